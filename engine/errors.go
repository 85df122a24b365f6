package engine

import "errors"

var (
	// ErrClosed is returned by operations on a closed engine.
	ErrClosed = errors.New("engine: closed")

	// ErrNoDataDir is returned by Flush when no data directory is configured.
	ErrNoDataDir = errors.New("engine: no data directory configured")

	// ErrUnknownIndex is returned for an unsupported IndexKind.
	ErrUnknownIndex = errors.New("engine: unknown index kind")

	// ErrNilEmbedder is returned by New when no embedder is given.
	ErrNilEmbedder = errors.New("engine: nil embedder")
)
