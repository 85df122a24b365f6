package segment

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/hupe1980/vecrow/internal/frame"
)

var (
	// ErrColumnNotFound is returned when a named column does not exist.
	ErrColumnNotFound = errors.New("segment: column not found")
	// ErrRowOutOfRange is returned when a row index exceeds the row count.
	ErrRowOutOfRange = errors.New("segment: row out of range")
)

// ZoneMap summarizes a column for scan pruning.
type ZoneMap struct {
	// MinLen and MaxLen bound the byte length of the column's values.
	// A column without values has MinLen math.MaxUint32 and MaxLen 0.
	MinLen uint32
	MaxLen uint32
	MinTS  *uint64
	MaxTS  *uint64
}

// MayContainLen reports whether a value of byte length n may be present.
func (z ZoneMap) MayContainLen(n uint32) bool {
	return n >= z.MinLen && n <= z.MaxLen
}

// MayContainTS reports whether a row written at ts may be present. Without
// a recorded time range every timestamp may be present.
func (z ZoneMap) MayContainTS(ts uint64) bool {
	if z.MinTS != nil && ts < *z.MinTS {
		return false
	}
	if z.MaxTS != nil && ts > *z.MaxTS {
		return false
	}
	return true
}

// Column is a single string column.
type Column struct {
	Name string
	// Offsets holds, per row, the byte offset of the value's length prefix in Blob.
	Offsets []uint64
	// Blob is the concatenation of every value prefixed by its 4-byte
	// little-endian length.
	Blob    []byte
	ZoneMap ZoneMap
}

// Len returns the number of values in the column.
func (c *Column) Len() int {
	return len(c.Offsets)
}

// Value decodes the value of row i.
func (c *Column) Value(i int) (string, error) {
	if i < 0 || i >= len(c.Offsets) {
		return "", fmt.Errorf("%w: %d of %d", ErrRowOutOfRange, i, len(c.Offsets))
	}
	off := c.Offsets[i]
	if off+4 > uint64(len(c.Blob)) {
		return "", fmt.Errorf("%w: offset %d outside blob", ErrCorrupt, off)
	}
	n := uint64(binary.LittleEndian.Uint32(c.Blob[off:]))
	if off+4+n > uint64(len(c.Blob)) {
		return "", fmt.Errorf("%w: value at %d overruns blob", ErrCorrupt, off)
	}
	return string(c.Blob[off+4 : off+4+n]), nil
}

// ColumnSegment aggregates string columns sharing one row count.
type ColumnSegment struct {
	Rows    uint64
	Columns []*Column
}

// NewColumnSegment returns an empty column segment.
func NewColumnSegment() *ColumnSegment {
	return &ColumnSegment{}
}

// AddStringColumn encodes values as a column named name, replacing any
// existing column of that name, and sets the row count to len(values).
func (s *ColumnSegment) AddStringColumn(name string, values []string) {
	col := &Column{
		Name:    name,
		Offsets: make([]uint64, 0, len(values)),
		ZoneMap: ZoneMap{MinLen: math.MaxUint32, MaxLen: 0},
	}

	for _, v := range values {
		col.Offsets = append(col.Offsets, uint64(len(col.Blob)))
		col.Blob = binary.LittleEndian.AppendUint32(col.Blob, uint32(len(v)))
		col.Blob = append(col.Blob, v...)

		n := uint32(len(v))
		col.ZoneMap.MinLen = min(col.ZoneMap.MinLen, n)
		col.ZoneMap.MaxLen = max(col.ZoneMap.MaxLen, n)
	}

	s.Rows = uint64(len(values))

	for i, c := range s.Columns {
		if c.Name == name {
			s.Columns[i] = col
			return
		}
	}
	s.Columns = append(s.Columns, col)
}

// Column returns the column named name.
func (s *ColumnSegment) Column(name string) (*Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Value decodes row i of the named column.
func (s *ColumnSegment) Value(name string, i int) (string, error) {
	c, ok := s.Column(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	return c.Value(i)
}

// SetTimeRange records the timestamp range of the rows in the named column's
// zone map.
func (s *ColumnSegment) SetTimeRange(name string, minTS, maxTS uint64) error {
	c, ok := s.Column(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	c.ZoneMap.MinTS = &minTS
	c.ZoneMap.MaxTS = &maxTS
	return nil
}

// WriteFile serializes the segment into a single frame at path.
func (s *ColumnSegment) WriteFile(path string, optFns ...func(o *Options)) error {
	opts := applyOptions(optFns)

	block, err := compressBlock(s.marshal(), opts.Compression)
	if err != nil {
		return fmt.Errorf("failed to compress column segment: %w", err)
	}

	if err := opts.FileSystem.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create segment directory: %w", err)
	}

	file, err := opts.FileSystem.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to create column segment: %w", err)
	}

	w := bufio.NewWriter(file)
	if _, err := frame.Write(w, block); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write column segment: %w", err)
	}
	if err := w.Flush(); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write column segment: %w", err)
	}

	if opts.Sync {
		if err := file.Sync(); err != nil {
			_ = file.Close()
			return err
		}
	}

	return file.Close()
}

// ReadColumnSegment reads a segment written by WriteFile.
func ReadColumnSegment(path string, optFns ...func(o *Options)) (*ColumnSegment, error) {
	opts := applyOptions(optFns)

	file, err := opts.FileSystem.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open column segment: %w", err)
	}
	defer file.Close()

	block, err := frame.Read(bufio.NewReader(file))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty column segment", ErrCorrupt)
		}
		return nil, fmt.Errorf("failed to read column segment: %w", err)
	}

	body, err := decompressBlock(block)
	if err != nil {
		return nil, err
	}

	return unmarshalColumnSegment(body)
}

// Serialized layout (little-endian):
//
//	[Rows u64][ColumnCount u32]
//	per column:
//	  [NameLen u32][Name]
//	  [OffsetCount u32][Offsets u64...]
//	  [BlobLen u32][Blob]
//	  [MinLen u32][MaxLen u32][Flags u8][MinTS u64 if bit0][MaxTS u64 if bit1]
const (
	flagMinTS = 1 << 0
	flagMaxTS = 1 << 1
)

func (s *ColumnSegment) marshal() []byte {
	var buf []byte
	buf = binary.LittleEndian.AppendUint64(buf, s.Rows)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s.Columns)))

	for _, c := range s.Columns {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(c.Name)))
		buf = append(buf, c.Name...)

		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(c.Offsets)))
		for _, off := range c.Offsets {
			buf = binary.LittleEndian.AppendUint64(buf, off)
		}

		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(c.Blob)))
		buf = append(buf, c.Blob...)

		buf = binary.LittleEndian.AppendUint32(buf, c.ZoneMap.MinLen)
		buf = binary.LittleEndian.AppendUint32(buf, c.ZoneMap.MaxLen)

		var flags byte
		if c.ZoneMap.MinTS != nil {
			flags |= flagMinTS
		}
		if c.ZoneMap.MaxTS != nil {
			flags |= flagMaxTS
		}
		buf = append(buf, flags)
		if c.ZoneMap.MinTS != nil {
			buf = binary.LittleEndian.AppendUint64(buf, *c.ZoneMap.MinTS)
		}
		if c.ZoneMap.MaxTS != nil {
			buf = binary.LittleEndian.AppendUint64(buf, *c.ZoneMap.MaxTS)
		}
	}

	return buf
}

type reader struct {
	buf []byte
	err error
}

func (r *reader) take(n uint64) []byte {
	if r.err != nil {
		return nil
	}
	if uint64(len(r.buf)) < n {
		r.err = fmt.Errorf("%w: need %d bytes, have %d", ErrCorrupt, n, len(r.buf))
		return nil
	}
	b := r.buf[:n]
	r.buf = r.buf[n:]
	return b
}

func (r *reader) u8() byte {
	if b := r.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (r *reader) u32() uint32 {
	if b := r.take(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (r *reader) u64() uint64 {
	if b := r.take(8); b != nil {
		return binary.LittleEndian.Uint64(b)
	}
	return 0
}

func unmarshalColumnSegment(data []byte) (*ColumnSegment, error) {
	r := &reader{buf: data}

	s := &ColumnSegment{Rows: r.u64()}
	ncols := r.u32()

	for i := uint32(0); i < ncols && r.err == nil; i++ {
		c := &Column{}
		c.Name = string(r.take(uint64(r.u32())))

		noffs := r.u32()
		if r.err == nil && uint64(noffs)*8 > uint64(len(r.buf)) {
			return nil, fmt.Errorf("%w: %d offsets exceed remaining bytes", ErrCorrupt, noffs)
		}
		c.Offsets = make([]uint64, noffs)
		for j := range c.Offsets {
			c.Offsets[j] = r.u64()
		}

		if blob := r.take(uint64(r.u32())); len(blob) > 0 {
			c.Blob = append([]byte(nil), blob...)
		}

		c.ZoneMap.MinLen = r.u32()
		c.ZoneMap.MaxLen = r.u32()
		flags := r.u8()
		if flags&flagMinTS != 0 {
			v := r.u64()
			c.ZoneMap.MinTS = &v
		}
		if flags&flagMaxTS != 0 {
			v := r.u64()
			c.ZoneMap.MaxTS = &v
		}

		s.Columns = append(s.Columns, c)
	}

	if r.err != nil {
		return nil, r.err
	}
	if len(r.buf) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(r.buf))
	}

	return s, nil
}
