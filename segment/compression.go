package segment

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionType defines the compression algorithm used for a column segment body.
type CompressionType uint8

const (
	// CompressionNone stores the body as is.
	CompressionNone CompressionType = 0
	// CompressionLZ4 uses LZ4 block compression (fast, good for hot data).
	CompressionLZ4 CompressionType = 1
	// CompressionZSTD uses ZSTD block compression (better ratio, good for cold data).
	CompressionZSTD CompressionType = 2
)

// String returns the compression name.
func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression parses a compression name as returned by String.
func ParseCompression(s string) (CompressionType, error) {
	switch s {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return CompressionNone, fmt.Errorf("segment: unknown compression %q", s)
	}
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("segment: zstd encoder: %w", err)
	}
	return enc, nil
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("segment: zstd decoder: %w", err)
	}
	return dec, nil
}

// Block layout:
//
//	[Type uint8][UncompressedSize uint32][CompressedSize uint32][Data...]
//
// CompressedSize == 0 means Data is stored uncompressed.
const blockHeaderSize = 9

// compressBlock compresses data and prepends the block header. Data that does
// not shrink below 90% of its size is stored uncompressed.
func compressBlock(data []byte, ct CompressionType) ([]byte, error) {
	var compressed []byte

	switch ct {
	case CompressionNone:
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		compressed = buf[:n]
	case CompressionZSTD:
		enc, err := getZstdEncoder()
		if err != nil {
			return nil, err
		}
		compressed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("segment: unknown compression %d", ct)
	}

	out := make([]byte, blockHeaderSize, blockHeaderSize+len(data))
	out[0] = byte(ct)
	binary.LittleEndian.PutUint32(out[1:], uint32(len(data)))

	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		return append(out, data...), nil
	}

	binary.LittleEndian.PutUint32(out[5:], uint32(len(compressed)))
	return append(out, compressed...), nil
}

// decompressBlock reverses compressBlock.
func decompressBlock(block []byte) ([]byte, error) {
	if len(block) < blockHeaderSize {
		return nil, fmt.Errorf("%w: block too small for header", ErrCorrupt)
	}

	ct := CompressionType(block[0])
	uncompressedSize := binary.LittleEndian.Uint32(block[1:])
	compressedSize := binary.LittleEndian.Uint32(block[5:])
	data := block[blockHeaderSize:]

	if compressedSize == 0 {
		if uint32(len(data)) != uncompressedSize {
			return nil, fmt.Errorf("%w: block has %d of %d bytes", ErrCorrupt, len(data), uncompressedSize)
		}
		return data, nil
	}

	if uint32(len(data)) != compressedSize {
		return nil, fmt.Errorf("%w: compressed block has %d of %d bytes", ErrCorrupt, len(data), compressedSize)
	}

	result := make([]byte, uncompressedSize)

	switch ct {
	case CompressionLZ4:
		n, err := lz4.UncompressBlock(data, result)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if uint32(n) != uncompressedSize {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, errSizeMismatch)
		}
		return result, nil
	case CompressionZSTD:
		dec, err := getZstdDecoder()
		if err != nil {
			return nil, err
		}
		defer zstdDecoderPool.Put(dec)

		decoded, err := dec.DecodeAll(data, result[:0])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if uint32(len(decoded)) != uncompressedSize {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, errSizeMismatch)
		}
		return decoded, nil
	default:
		return nil, fmt.Errorf("%w: unknown compression %d", ErrCorrupt, ct)
	}
}

var errSizeMismatch = errors.New("decompressed size mismatch")
