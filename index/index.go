package index

import (
	"errors"
	"fmt"

	"github.com/hupe1980/vecrow/model"
)

// Hit is a single search result.
type Hit = model.Hit

var (
	// ErrInvalidK is returned when a top-k query asks for k <= 0.
	ErrInvalidK = errors.New("index: k must be positive")
	// ErrInvalidDimension is returned when an index is configured with a
	// non-positive dimensionality.
	ErrInvalidDimension = errors.New("index: dimension must be positive")
)

// ErrDimensionMismatch is a named error type for dimension mismatch.
type ErrDimensionMismatch struct {
	Expected int // Expected dimensions
	Actual   int // Actual dimensions
}

// Error returns the error message for dimension mismatch.
func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Index is a vector index searchable by cosine similarity.
//
// Implementations must be safe for concurrent use.
type Index interface {
	// Name returns the index type name.
	Name() string

	// Dims returns the dimensionality every stored and query vector must have.
	Dims() int

	// Len returns the number of stored entries.
	Len() int

	// Add stores vec under id. It never deduplicates.
	Add(id uint64, vec []float32) error

	// TopK returns up to k hits sorted by non-increasing similarity.
	TopK(q []float32, k int) ([]Hit, error)
}

// ValidateDims checks that vec has the expected dimensionality.
func ValidateDims(expected int, vec []float32) error {
	if len(vec) != expected {
		return &ErrDimensionMismatch{Expected: expected, Actual: len(vec)}
	}
	return nil
}

// ValidateQuery checks the query vector and k of a top-k call.
func ValidateQuery(expected int, q []float32, k int) error {
	if k <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidK, k)
	}
	return ValidateDims(expected, q)
}
