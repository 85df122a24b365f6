// Package frame implements the length-prefixed framing shared by the
// write-ahead log and the segment files.
//
// Format:
//
//	[Length: 4 bytes, little-endian uint32] [Payload: Length bytes]
//
// repeated until end of file.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// HeaderSize is the size of the length prefix.
const HeaderSize = 4

// MaxSize bounds a single frame payload.
const MaxSize = 100 * 1024 * 1024

var (
	// ErrTruncated is returned when a frame header or body ends early.
	ErrTruncated = errors.New("frame: truncated")
	// ErrTooLarge is returned when a frame exceeds MaxSize.
	ErrTooLarge = errors.New("frame: too large")
)

// Write writes a single frame and returns the number of bytes written.
func Write(w io.Writer, payload []byte) (int64, error) {
	if len(payload) > MaxSize || uint64(len(payload)) > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(payload))
	}
	var hdr [HeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(len(payload)))
	n, err := w.Write(hdr[:])
	if err != nil {
		return int64(n), err
	}
	m, err := w.Write(payload)
	return int64(n + m), err
}

// Read reads a single frame.
//
// It returns io.EOF when r is exhausted exactly at a frame boundary and an
// error wrapping ErrTruncated when the header or body is incomplete.
func Read(r io.Reader) ([]byte, error) {
	var hdr [HeaderSize]byte
	n, err := io.ReadFull(r, hdr[:])
	if err != nil {
		if n == 0 && errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: header has %d of %d bytes", ErrTruncated, n, HeaderSize)
		}
		return nil, err
	}

	size := binary.LittleEndian.Uint32(hdr[:])
	if size > MaxSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, size)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: body shorter than %d bytes", ErrTruncated, size)
		}
		return nil, err
	}
	return payload, nil
}
