package segment

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/hupe1980/vecrow/codec"
	"github.com/hupe1980/vecrow/internal/frame"
	"github.com/hupe1980/vecrow/internal/fs"
	"github.com/hupe1980/vecrow/model"
)

// ErrCorrupt is returned when segment contents cannot be decoded.
var ErrCorrupt = errors.New("segment: corrupt")

// RowSegmentMeta is the leading metadata record of a row segment.
//
// Rows is written as 0 when the segment is created and is not maintained by
// Append; readers count rows themselves.
type RowSegmentMeta struct {
	Rows uint64 `json:"rows"`
}

// RowSegment is an append-only file of versioned rows.
type RowSegment struct {
	mu   sync.Mutex
	fsys fs.FileSystem
	file fs.File
	path string
	opts Options
}

// CreateRowSegment creates (or truncates) the segment at path and writes the
// metadata frame.
func CreateRowSegment(path string, optFns ...func(o *Options)) (*RowSegment, error) {
	opts := applyOptions(optFns)

	if err := opts.FileSystem.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create segment directory: %w", err)
	}

	file, err := opts.FileSystem.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_RDWR|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to create row segment: %w", err)
	}

	meta, err := opts.Codec.Marshal(RowSegmentMeta{Rows: 0})
	if err != nil {
		_ = file.Close()
		return nil, err
	}

	if _, err := frame.Write(file, meta); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to write row segment metadata: %w", err)
	}

	return &RowSegment{fsys: opts.FileSystem, file: file, path: path, opts: opts}, nil
}

// OpenRowSegment opens an existing row segment for appending and iteration.
func OpenRowSegment(path string, optFns ...func(o *Options)) (*RowSegment, error) {
	opts := applyOptions(optFns)

	file, err := opts.FileSystem.OpenFile(path, os.O_RDWR|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open row segment: %w", err)
	}

	return &RowSegment{fsys: opts.FileSystem, file: file, path: path, opts: opts}, nil
}

// Path returns the file path of the segment.
func (s *RowSegment) Path() string {
	return s.path
}

// Append writes v as one frame at the end of the segment.
func (s *RowSegment) Append(v *model.VersionedRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := codec.EncodeRow(s.opts.Codec, v)
	if err != nil {
		return err
	}

	if _, err := frame.Write(s.file, data); err != nil {
		return fmt.Errorf("failed to append to row segment: %w", err)
	}

	if s.opts.Sync {
		return s.file.Sync()
	}

	return nil
}

// Iter reads the metadata and then every row in file order.
//
// Only a clean end of file at a frame boundary ends iteration; a truncated
// frame is reported as an error.
func (s *RowSegment) Iter() (RowSegmentMeta, []model.VersionedRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.fsys.OpenFile(s.path, os.O_RDONLY, 0)
	if err != nil {
		return RowSegmentMeta{}, nil, fmt.Errorf("failed to open row segment: %w", err)
	}
	defer file.Close()

	r := bufio.NewReader(file)

	var meta RowSegmentMeta

	payload, err := frame.Read(r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return meta, nil, fmt.Errorf("%w: missing metadata frame", ErrCorrupt)
		}
		return meta, nil, fmt.Errorf("failed to read row segment metadata: %w", err)
	}

	if err := s.opts.Codec.Unmarshal(payload, &meta); err != nil {
		return meta, nil, fmt.Errorf("%w: metadata: %w", ErrCorrupt, err)
	}

	var rows []model.VersionedRow

	for {
		payload, err := frame.Read(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return meta, rows, nil
			}
			return meta, rows, fmt.Errorf("failed to read row segment: %w", err)
		}

		v, err := codec.DecodeRow(s.opts.Codec, payload)
		if err != nil {
			return meta, rows, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		rows = append(rows, v)
	}
}

// Close syncs and closes the segment file.
func (s *RowSegment) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.file.Sync(); err != nil {
		_ = s.file.Close()
		return err
	}
	return s.file.Close()
}
