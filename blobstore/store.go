package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
)

var (
	// ErrNotFound is returned when a blob does not exist. It matches
	// os.ErrNotExist so file system errors pass through unchanged.
	ErrNotFound = os.ErrNotExist

	// ErrAborted is returned by Writer.Close after Abort.
	ErrAborted = errors.New("blobstore: write aborted")
)

// BlobStore holds the archived segment files and manifests.
type BlobStore interface {
	// Get returns the whole content of a blob.
	Get(ctx context.Context, name string) ([]byte, error)
	// Put stores data under name in one step.
	Put(ctx context.Context, name string, data []byte) error
	// Create starts a streamed write. Nothing is visible before Close.
	Create(ctx context.Context, name string) (Writer, error)
	// List returns the sorted names starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Writer streams one blob into a store.
type Writer interface {
	io.WriteCloser
	// Abort drops everything written so far.
	Abort() error
}
