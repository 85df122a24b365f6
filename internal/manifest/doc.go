// Package manifest records which segments have been flushed.
//
// Each Save writes a new immutable manifest blob and then updates the CURRENT
// pointer to name it:
//
//	CURRENT                       -> "manifests/MANIFEST-000003.json"
//	manifests/MANIFEST-000001.json
//	manifests/MANIFEST-000002.json
//	manifests/MANIFEST-000003.json
//
// Manifests are encoded with the configured codec (JSON by default). The
// pointer update is the commit point; a crash between the two writes leaves
// an orphan manifest that is never read.
package manifest
