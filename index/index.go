// Package index provides shared types for vector search indexes.
package index

import (
	"errors"
	"fmt"

	"github.com/semdex/semdex/distance"
)

var (
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrEmptyVector is returned when a nil or zero-length vector is supplied.
	ErrEmptyVector = errors.New("empty vector")
)

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
type ErrDimensionMismatch struct {
	Expected int // Expected dimensions
	Actual   int // Actual dimensions
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: got %d, want %d", e.Actual, e.Expected)
}

// ErrInvalidDimension indicates an invalid configured dimension.
type ErrInvalidDimension struct {
	Dimension int
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid dimension %d", e.Dimension)
}

// DistanceType represents the type of distance function used for
// calculating distances between vectors.
type DistanceType int

const (
	DistanceTypeSquaredL2 DistanceType = iota
	DistanceTypeDotProduct
)

// ErrInvalidDistanceType indicates an unsupported distance type.
type ErrInvalidDistanceType struct {
	DistanceType DistanceType
}

func (e *ErrInvalidDistanceType) Error() string {
	return fmt.Sprintf("invalid distance type: %d", e.DistanceType)
}

// String returns a string representation of the DistanceType.
func (dt DistanceType) String() string {
	switch dt {
	case DistanceTypeSquaredL2:
		return "SquaredL2"
	case DistanceTypeDotProduct:
		return "DotProduct"
	default:
		return "Unknown"
	}
}

// DistanceFunc calculates the distance between two vectors.
// Smaller is nearer for every DistanceType.
type DistanceFunc func(a, b []float32) float32

// NewDistanceFunc returns a distance function for the given distance type,
// or nil if the type is unknown.
func NewDistanceFunc(dt DistanceType) DistanceFunc {
	switch dt {
	case DistanceTypeSquaredL2:
		return distance.SquaredL2
	case DistanceTypeDotProduct:
		// Negated so that a larger dot product sorts nearer.
		return func(a, b []float32) float32 { return -distance.Dot(a, b) }
	default:
		return nil
	}
}

// ValidateBasicOptions checks options common to all index kinds.
func ValidateBasicOptions(dimension int, dt DistanceType) error {
	if dimension <= 0 {
		return &ErrInvalidDimension{Dimension: dimension}
	}
	if NewDistanceFunc(dt) == nil {
		return &ErrInvalidDistanceType{DistanceType: dt}
	}
	return nil
}

// SearchResult represents a single nearest-neighbor candidate.
type SearchResult struct {
	// ID is the insertion-order position of the vector in the index.
	ID uint32

	// Distance is the distance between the query vector and the result vector.
	Distance float32
}
