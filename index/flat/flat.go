// Package flat provides a brute-force flat index for vector storage and search.
//
// The flat index is append-only: a vector's identity is its insertion-order
// position, so vectors are never moved, updated, or deleted.
package flat

import (
	"context"
	"sync"

	"github.com/semdex/semdex/index"
	"github.com/semdex/semdex/internal/queue"
)

// Options contains configuration options for the flat index.
type Options struct {
	// Dimension is the fixed vector dimensionality for this index.
	// It must be > 0 and is enforced for all appends and searches.
	Dimension int

	// DistanceType selects the distance function used for search.
	DistanceType index.DistanceType
}

// DefaultOptions contains the default configuration options for the flat index.
var DefaultOptions = Options{
	Dimension:    0,
	DistanceType: index.DistanceTypeSquaredL2,
}

// WithDimension sets the vector dimensionality.
func WithDimension(dim int) func(o *Options) {
	return func(o *Options) {
		o.Dimension = dim
	}
}

// WithDistanceType sets the distance function used for search.
func WithDistanceType(dt index.DistanceType) func(o *Options) {
	return func(o *Options) {
		o.DistanceType = dt
	}
}

// Flat is a brute-force index over a contiguous float32 buffer.
// Vectors are stored row-major with a stride of Dimension.
type Flat struct {
	mu           sync.RWMutex
	data         []float32
	count        int
	distanceFunc index.DistanceFunc
	opts         Options
}

// New creates a new flat index. Dimension is required.
func New(optFns ...func(o *Options)) (*Flat, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if err := index.ValidateBasicOptions(opts.Dimension, opts.DistanceType); err != nil {
		return nil, err
	}

	return &Flat{
		distanceFunc: index.NewDistanceFunc(opts.DistanceType),
		opts:         opts,
	}, nil
}

func (*Flat) Name() string { return "Flat" }

// Len returns the number of vectors in the index.
func (f *Flat) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.count
}

// Dimension returns the configured vector dimensionality.
func (f *Flat) Dimension() int {
	return f.opts.Dimension
}

// DistanceType returns the configured distance type.
func (f *Flat) DistanceType() index.DistanceType {
	return f.opts.DistanceType
}

// Append adds vectors to the end of the index in argument order.
//
// The batch is validated before any mutation: if any vector is empty or has
// the wrong dimension, nothing is appended and a typed error is returned.
func (f *Flat) Append(vectors ...[]float32) error {
	for _, v := range vectors {
		if len(v) == 0 {
			return index.ErrEmptyVector
		}
		if len(v) != f.opts.Dimension {
			return &index.ErrDimensionMismatch{Expected: f.opts.Dimension, Actual: len(v)}
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, v := range vectors {
		f.data = append(f.data, v...)
	}
	f.count += len(vectors)

	return nil
}

// VectorAt returns a copy of the vector at the given position.
func (f *Flat) VectorAt(id uint32) ([]float32, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if int(id) >= f.count {
		return nil, false
	}
	row := f.row(id)
	out := make([]float32, len(row))
	copy(out, row)
	return out, true
}

// row returns the backing slice for position id. Caller must hold f.mu.
func (f *Flat) row(id uint32) []float32 {
	dim := f.opts.Dimension
	off := int(id) * dim
	return f.data[off : off+dim]
}

// KNNSearch returns the k nearest vectors to q, nearest first.
//
// Searching an empty index returns no results and no error. If k exceeds the
// index size, all vectors are returned.
func (f *Flat) KNNSearch(ctx context.Context, q []float32, k int) ([]index.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, index.ErrInvalidK
	}
	if len(q) != f.opts.Dimension {
		return nil, &index.ErrDimensionMismatch{Expected: f.opts.Dimension, Actual: len(q)}
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.count == 0 {
		return nil, nil
	}

	actualK := k
	if actualK > f.count {
		actualK = f.count
	}

	top := queue.NewBounded(actualK)
	for id := uint32(0); int(id) < f.count; id++ {
		top.Offer(queue.Candidate{ID: id, Distance: f.distanceFunc(q, f.row(id))})
	}

	candidates := top.Drain()
	results := make([]index.SearchResult, len(candidates))
	for i, c := range candidates {
		results[i] = index.SearchResult{ID: c.ID, Distance: c.Distance}
	}
	return results, nil
}
