// Package blobstore abstracts the storage backing the index artifacts.
//
// A Bucket holds whole, named blobs. The store reads and replaces artifacts
// in full, so the interface is deliberately small: no ranged reads, no
// appends, no listing.
package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Bucket is an abstraction for reading and atomically replacing data blobs.
type Bucket interface {
	// Open opens the named blob for reading.
	// Returns an error satisfying errors.Is(err, ErrNotFound) if absent.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// Put atomically replaces the named blob with the bytes produced by
	// write. Readers never observe a partially written blob: either the
	// previous content remains or the new content is fully visible.
	Put(ctx context.Context, name string, write func(w io.Writer) error) error
}
