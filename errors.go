package vecrow

import (
	"errors"
	"fmt"

	"github.com/hupe1980/vecrow/engine"
	"github.com/hupe1980/vecrow/index"
	"github.com/hupe1980/vecrow/planner"
)

var (
	// ErrClosed is returned by operations on a closed DB.
	ErrClosed = errors.New("vecrow: database closed")

	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("vecrow: k must be positive")

	// ErrInvalidQuery is returned for malformed SemanticQL statements or
	// unknown spaces.
	ErrInvalidQuery = errors.New("vecrow: invalid query")

	// ErrNotConfigured is returned when an operation needs an option that
	// was not set, such as Flush without a data directory.
	ErrNotConfigured = errors.New("vecrow: not configured")
)

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("vecrow: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, engine.ErrClosed) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}
	if errors.Is(err, engine.ErrNoDataDir) {
		return fmt.Errorf("%w: %w", ErrNotConfigured, err)
	}

	var dm *index.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}
	if errors.Is(err, index.ErrInvalidK) {
		return fmt.Errorf("%w: %w", ErrInvalidK, err)
	}
	if errors.Is(err, planner.ErrSyntax) || errors.Is(err, planner.ErrUnknownSpace) {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}

	return err
}
