// Package fs provides the filesystem abstraction used by the write-ahead log
// and the segment files.
//
//   - [LocalFS]: production implementation on top of package os
//   - [FaultyFS]: test wrapper that injects write, sync and open failures
//
// Production code passes nil (or fs.Default); tests inject a FaultyFS:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".wal", fs.Fault{FailAfterBytes: 64})
//	w, _ := wal.Open(ffs, path)
//
// Operations take no context.Context: local file I/O is not interruptible
// at the syscall level. Remote storage goes through package blobstore.
package fs
