package wal

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hupe1980/vecrow/codec"
	"github.com/klauspost/compress/zstd"
)

// ErrCorrupt is returned when a complete frame cannot be decoded.
var ErrCorrupt = errors.New("wal: corrupt record")

const flagCompressed = 1 << 0

// Record payload layout, inside a frame:
//
//	[flags: 1] [body]
//
// where body (zstd-compressed when flagCompressed is set) is
//
//	[type: 1] [insert: encoded VersionedRow | checkpoint: 8-byte LE timestamp]
func encodeRecord(c codec.Codec, enc *zstd.Encoder, rec *Record) ([]byte, error) {
	body := []byte{byte(rec.Type)}

	switch rec.Type {
	case RecordTypeInsert:
		row, err := codec.EncodeRow(c, &rec.Row)
		if err != nil {
			return nil, err
		}
		body = append(body, row...)
	case RecordTypeCheckpoint:
		body = binary.LittleEndian.AppendUint64(body, rec.CheckpointTS)
	default:
		return nil, fmt.Errorf("wal: unknown record type %d", rec.Type)
	}

	if enc == nil {
		return append([]byte{0}, body...), nil
	}
	return enc.EncodeAll(body, []byte{flagCompressed}), nil
}

func decodeRecord(c codec.Codec, dec *zstd.Decoder, payload []byte) (*Record, error) {
	if len(payload) < 2 {
		return nil, fmt.Errorf("%w: %d byte payload", ErrCorrupt, len(payload))
	}

	body := payload[1:]
	if payload[0]&flagCompressed != 0 {
		var err error
		body, err = dec.DecodeAll(body, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		if len(body) == 0 {
			return nil, fmt.Errorf("%w: empty body", ErrCorrupt)
		}
	}

	rec := &Record{Type: RecordType(body[0])}
	switch rec.Type {
	case RecordTypeInsert:
		row, err := codec.DecodeRow(c, body[1:])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		rec.Row = row
	case RecordTypeCheckpoint:
		if len(body) != 9 {
			return nil, fmt.Errorf("%w: checkpoint body has %d bytes", ErrCorrupt, len(body))
		}
		rec.CheckpointTS = binary.LittleEndian.Uint64(body[1:])
	default:
		return nil, fmt.Errorf("%w: unknown record type %d", ErrCorrupt, body[0])
	}
	return rec, nil
}
