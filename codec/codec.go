// Package codec centralizes document and row encoding.
//
// Documents (row payloads) are encoded with a pluggable [Codec]; the
// surrounding version envelope uses a fixed little-endian binary layout
// (see [EncodeRow]). Changing the codec is a breaking change for files
// written with a different one.
package codec

import (
	"bytes"
	stdjson "encoding/json"

	gojson "github.com/goccy/go-json"
)

// Default is the payload codec for new stores.
var Default Codec = GoJSON{}

// Codec turns a document payload into bytes and back. Implementations are
// shared between goroutines.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// OrDefault returns c, or Default when c is nil.
func OrDefault(c Codec) Codec {
	if c == nil {
		return Default
	}
	return c
}

// GoJSON encodes payloads with goccy/go-json. Its output is interchangeable
// with JSON. Numbers inside untyped values decode as json.Number.
type GoJSON struct{}

func (GoJSON) Marshal(v any) ([]byte, error) { return gojson.Marshal(v) }

func (GoJSON) Unmarshal(data []byte, v any) error {
	dec := gojson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

func (GoJSON) Name() string { return "go-json" }

// JSON encodes payloads with encoding/json. Numbers inside untyped values
// decode as json.Number.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error) { return stdjson.Marshal(v) }

func (JSON) Unmarshal(data []byte, v any) error {
	dec := stdjson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

func (JSON) Name() string { return "json" }
