package codec

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hupe1980/vecrow/model"
)

// ErrShortBuffer is returned when an encoded row ends early.
var ErrShortBuffer = errors.New("codec: short buffer")

const (
	flagHasEnd byte = 1 << 0
)

// EncodeRow encodes a versioned row.
//
// Layout:
//
//	[BeginTS: 8] [Flags: 1] [EndTS: 8, if flagHasEnd] [TxnID: 8]
//	[KeyLen: 4] [Key] [DocLen: 4] [Doc: codec-encoded payload]
func EncodeRow(c Codec, v *model.VersionedRow) ([]byte, error) {
	c = OrDefault(c)

	var doc []byte
	if v.Row.Payload != nil {
		var err error
		doc, err = c.Marshal(v.Row.Payload)
		if err != nil {
			return nil, fmt.Errorf("codec %s: encode payload of %q: %w", c.Name(), v.Row.Key, err)
		}
	}

	size := 8 + 1 + 8 + 4 + len(v.Row.Key) + 4 + len(doc)
	if v.EndTS != nil {
		size += 8
	}
	buf := make([]byte, 0, size)

	buf = binary.LittleEndian.AppendUint64(buf, v.BeginTS)
	var flags byte
	if v.EndTS != nil {
		flags |= flagHasEnd
	}
	buf = append(buf, flags)
	if v.EndTS != nil {
		buf = binary.LittleEndian.AppendUint64(buf, *v.EndTS)
	}
	buf = binary.LittleEndian.AppendUint64(buf, v.TxnID)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(v.Row.Key)))
	buf = append(buf, v.Row.Key...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(doc)))
	buf = append(buf, doc...)
	return buf, nil
}

// DecodeRow decodes a row produced by EncodeRow.
func DecodeRow(c Codec, data []byte) (model.VersionedRow, error) {
	c = OrDefault(c)
	var v model.VersionedRow
	d := decoder{buf: data}

	v.BeginTS = d.u64()
	flags := d.u8()
	if flags&flagHasEnd != 0 {
		end := d.u64()
		v.EndTS = &end
	}
	v.TxnID = d.u64()
	v.Row.Key = model.RowKey(d.blob())
	doc := d.blob()
	if d.err != nil {
		return model.VersionedRow{}, d.err
	}
	if len(doc) > 0 {
		if err := c.Unmarshal(doc, &v.Row.Payload); err != nil {
			return model.VersionedRow{}, fmt.Errorf("codec %s: decode payload of %q: %w", c.Name(), v.Row.Key, err)
		}
	}
	return v, nil
}

// decoder reads little-endian primitives and remembers the first error.
type decoder struct {
	buf []byte
	off int
	err error
}

func (d *decoder) need(n int) bool {
	if d.err != nil {
		return false
	}
	if len(d.buf)-d.off < n {
		d.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrShortBuffer, n, d.off, len(d.buf)-d.off)
		return false
	}
	return true
}

func (d *decoder) u8() byte {
	if !d.need(1) {
		return 0
	}
	b := d.buf[d.off]
	d.off++
	return b
}

func (d *decoder) u32() uint32 {
	if !d.need(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(d.buf[d.off:])
	d.off += 4
	return v
}

func (d *decoder) u64() uint64 {
	if !d.need(8) {
		return 0
	}
	v := binary.LittleEndian.Uint64(d.buf[d.off:])
	d.off += 8
	return v
}

func (d *decoder) blob() []byte {
	n := int(d.u32())
	if !d.need(n) {
		return nil
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b
}
