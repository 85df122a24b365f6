package manifest

import "errors"

// ErrNotFound means the store holds no CURRENT manifest yet.
var ErrNotFound = errors.New("manifest: none committed")

// ErrIncompatibleVersion means a manifest was written by a newer format.
var ErrIncompatibleVersion = errors.New("manifest: unsupported format version")
