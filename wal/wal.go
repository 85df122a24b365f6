// Package wal provides the write-ahead log used for durability and crash
// recovery.
//
// Every record is written as a single length-prefixed frame and the log is
// append-only: it is never compacted or truncated. A checkpoint record marks
// the timestamp up to which the engine has flushed state to segments.
package wal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/hupe1980/vecrow/codec"
	"github.com/hupe1980/vecrow/internal/frame"
	"github.com/hupe1980/vecrow/internal/fs"
	"github.com/klauspost/compress/zstd"
)

// ErrClosed is returned when appending to a closed WAL.
var ErrClosed = errors.New("wal: closed")

// WAL is an append-only log of records.
type WAL struct {
	mu         sync.Mutex
	fsys       fs.FileSystem
	file       fs.File
	bufWriter  *bufio.Writer
	path       string
	size       int64
	codec      codec.Codec
	durability DurabilityMode
	logger     *slog.Logger
	closed     bool

	compressor   *zstd.Encoder
	decompressor *zstd.Decoder
}

// Open opens the WAL at path, creating the file and its parent directories
// when they do not exist.
func Open(path string, optFns ...func(o *Options)) (*WAL, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	fsys := fs.OrDefault(opts.FileSystem)

	if err := fsys.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create WAL directory: %w", err)
	}

	file, err := fsys.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAL file: %w", err)
	}

	st, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat WAL file: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	w := &WAL{
		fsys:       fsys,
		file:       file,
		bufWriter:  bufio.NewWriter(file),
		path:       path,
		size:       st.Size(),
		codec:      codec.OrDefault(opts.Codec),
		durability: opts.DurabilityMode,
		logger:     logger,
	}

	// The decoder is always present so that compressed records can be
	// replayed by a log opened without compression.
	w.decompressor, err = zstd.NewReader(nil)
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to create decompressor: %w", err)
	}

	if opts.Compress {
		level := zstd.EncoderLevelFromZstd(opts.CompressionLevel)
		w.compressor, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
		if err != nil {
			w.decompressor.Close()
			_ = file.Close()
			return nil, fmt.Errorf("failed to create compressor: %w", err)
		}
	}

	return w, nil
}

// Path returns the path of the WAL file.
func (w *WAL) Path() string {
	return w.path
}

// Size returns the current size of the log in bytes.
func (w *WAL) Size() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

// Append encodes rec, writes it as one frame and flushes it to the file.
// Under DurabilitySync the file is also fsynced.
//
// It returns the log position after the record, i.e. the new log size.
func (w *WAL) Append(rec *Record) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, ErrClosed
	}

	payload, err := encodeRecord(w.codec, w.compressor, rec)
	if err != nil {
		return 0, err
	}

	n, err := frame.Write(w.bufWriter, payload)
	if err != nil {
		return 0, fmt.Errorf("failed to write WAL record: %w", err)
	}

	if err := w.bufWriter.Flush(); err != nil {
		// Reset so a failed flush does not leak its buffered bytes into the
		// next append.
		w.bufWriter.Reset(w.file)
		return 0, fmt.Errorf("failed to flush WAL: %w", err)
	}

	if w.durability == DurabilitySync {
		if err := w.file.Sync(); err != nil {
			return 0, fmt.Errorf("failed to sync WAL: %w", err)
		}
	}

	w.size += n

	return w.size, nil
}

// Replay reads all records from the start of the log.
//
// A partial trailing frame, left behind by a crash mid-append, ends replay
// silently. A frame that is complete but cannot be decoded stops replay and
// is returned as an error together with the records decoded before it.
func (w *WAL) Replay() ([]*Record, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.closed {
		if err := w.bufWriter.Flush(); err != nil {
			return nil, fmt.Errorf("failed to flush WAL: %w", err)
		}
	}

	file, err := w.fsys.OpenFile(w.path, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAL for replay: %w", err)
	}
	defer file.Close()

	r := bufio.NewReader(file)

	var records []*Record

	for {
		payload, err := frame.Read(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return records, nil
			}
			if errors.Is(err, frame.ErrTruncated) {
				w.logger.Warn("wal: ignoring truncated tail", "path", w.path, "records", len(records), "error", err)
				return records, nil
			}
			return records, fmt.Errorf("failed to read WAL frame: %w", err)
		}

		rec, err := decodeRecord(w.codec, w.decompressor, payload)
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
}

// Close flushes and closes the WAL. Subsequent appends return ErrClosed.
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	var errs []error
	if err := w.bufWriter.Flush(); err != nil {
		errs = append(errs, err)
	}
	if w.durability == DurabilitySync {
		if err := w.file.Sync(); err != nil {
			errs = append(errs, err)
		}
	}
	if w.compressor != nil {
		if err := w.compressor.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	w.decompressor.Close()
	if err := w.file.Close(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
