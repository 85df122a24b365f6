package mvcc

import "github.com/hupe1980/vecrow/model"

// VisibleAt reports whether v is visible at readTS.
func VisibleAt(v *model.VersionedRow, readTS model.Timestamp) bool {
	if v.BeginTS > readTS {
		return false
	}
	return v.EndTS == nil || readTS < *v.EndTS
}
