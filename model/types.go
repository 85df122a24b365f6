package model

import (
	"fmt"
)

// TextField is the reserved payload field used as the embedding source.
const TextField = "text"

// Timestamp is a logical write timestamp.
type Timestamp = uint64

// TxnID identifies the transaction a version was written by.
type TxnID = uint64

// RowKey is the user-facing identifier of a row.
type RowKey string

// String returns the key as a plain string.
func (k RowKey) String() string { return string(k) }

// Document is an open map of payload fields.
type Document map[string]any

// Text returns the reserved text field if it is present and a string.
func (d Document) Text() (string, bool) {
	if d == nil {
		return "", false
	}
	s, ok := d[TextField].(string)
	return s, ok
}

// Row is a keyed document.
type Row struct {
	Key     RowKey
	Payload Document
}

// VersionedRow is a Row together with its validity interval.
//
// EndTS is nil while the version is open (not yet superseded).
type VersionedRow struct {
	BeginTS Timestamp
	EndTS   *Timestamp
	TxnID   TxnID
	Row     Row
}

// String returns a short representation of the version.
func (v VersionedRow) String() string {
	if v.EndTS == nil {
		return fmt.Sprintf("%s@[%d,∞)", v.Row.Key, v.BeginTS)
	}
	return fmt.Sprintf("%s@[%d,%d)", v.Row.Key, v.BeginTS, *v.EndTS)
}

// Vector is a fixed-length embedding.
type Vector = []float32

// Hit is a single similarity search result.
type Hit struct {
	// ID is the index identity of the matched vector.
	ID uint64
	// Score is the cosine similarity to the query in [-1, 1].
	Score float32
}

// EmbeddingMeta describes how a version's vector was produced.
type EmbeddingMeta struct {
	ModelID   string
	Dims      int
	CreatedTS Timestamp
}
