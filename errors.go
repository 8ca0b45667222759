package semdex

import (
	"errors"
	"fmt"

	"github.com/semdex/semdex/index"
)

var (
	// ErrEmptyBatch is returned when Ingest is called with no records.
	// A zero-length batch is rejected rather than treated as a no-op so
	// caller mistakes surface immediately.
	ErrEmptyBatch = errors.New("empty batch")

	// ErrInvalidQuery is returned when a query has no vector or a
	// negative k.
	ErrInvalidQuery = errors.New("invalid query")
)

// ErrDimensionMismatch reports a vector whose length differs from the
// store's dimension. Unwrap exposes the index-level error when the mismatch
// surfaced below the facade.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: got %d, want %d", e.Actual, e.Expected)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// ErrInvalidDimension reports a non-positive configured dimension.
type ErrInvalidDimension struct {
	Dimension int
	cause     error
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid dimension %d", e.Dimension)
}

func (e *ErrInvalidDimension) Unwrap() error { return e.cause }

// translateError normalizes index-level errors into the store's taxonomy.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var dm *index.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}
	var id *index.ErrInvalidDimension
	if errors.As(err, &id) {
		return &ErrInvalidDimension{Dimension: id.Dimension, cause: err}
	}
	if errors.Is(err, index.ErrEmptyVector) || errors.Is(err, index.ErrInvalidK) {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}

	return err
}
