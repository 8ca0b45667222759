package flat

import (
	"fmt"
	"io"

	"github.com/semdex/semdex/index"
	"github.com/semdex/semdex/persistence"
)

// Artifact layout, little-endian:
//
//	64-byte persistence.FileHeader
//	uint32 distance type
//	count*dimension float32 vector payload
//	uint32 CRC32 of everything above
//
// maxVectors bounds allocation when reading untrusted headers.
const maxVectors = 100_000_000

// SaveToFile saves the index to a file, atomically.
func (f *Flat) SaveToFile(filename string) error {
	return persistence.SaveToFile(filename, func(w io.Writer) error {
		_, err := f.WriteTo(w)
		return err
	})
}

// LoadFromFile loads a flat index from a file.
func LoadFromFile(filename string, optFns ...func(o *Options)) (*Flat, error) {
	var f *Flat
	err := persistence.LoadFromFile(filename, func(r io.Reader) error {
		loaded, err := Read(r, optFns...)
		if err != nil {
			return err
		}
		f = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// WriteTo writes the index to w in binary artifact format.
// It implements io.WriterTo.
func (f *Flat) WriteTo(w io.Writer) (int64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	enc := persistence.NewEncoder(w)

	err := enc.Header(&persistence.FileHeader{
		IndexType:   persistence.IndexTypeFlat,
		VectorCount: uint64(f.count),
		Dimension:   uint32(f.opts.Dimension),
	})
	if err != nil {
		return enc.Size(), err
	}

	if err := enc.Uint32(uint32(f.opts.DistanceType)); err != nil {
		return enc.Size(), err
	}
	if err := enc.Float32s(f.data); err != nil {
		return enc.Size(), err
	}

	if err := enc.Checksum(); err != nil {
		return enc.Size(), err
	}
	return enc.Size(), nil
}

// Read reads a flat index from r in binary artifact format.
//
// Dimension and distance type persisted in the artifact are authoritative; a
// non-zero Dimension in the supplied options is validated against them.
func Read(r io.Reader, optFns ...func(o *Options)) (*Flat, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	dec := persistence.NewDecoder(r)

	header, err := dec.Header()
	if err != nil {
		return nil, err
	}
	if header.IndexType != persistence.IndexTypeFlat {
		return nil, fmt.Errorf("%w: expected flat, got %d", persistence.ErrInvalidIndex, header.IndexType)
	}
	if header.VectorCount > maxVectors {
		return nil, fmt.Errorf("vector count %d exceeds limit", header.VectorCount)
	}
	if opts.Dimension != 0 && opts.Dimension != int(header.Dimension) {
		return nil, &index.ErrDimensionMismatch{Expected: opts.Dimension, Actual: int(header.Dimension)}
	}

	dt, err := dec.Uint32()
	if err != nil {
		return nil, err
	}

	opts.Dimension = int(header.Dimension)
	opts.DistanceType = index.DistanceType(dt)
	if err := index.ValidateBasicOptions(opts.Dimension, opts.DistanceType); err != nil {
		return nil, err
	}

	count := int(header.VectorCount)
	data := make([]float32, count*opts.Dimension)
	if err := dec.Float32sInto(data); err != nil {
		return nil, fmt.Errorf("failed to read vector payload: %w", err)
	}

	if err := dec.VerifyChecksum(); err != nil {
		return nil, err
	}

	return &Flat{
		data:         data,
		count:        count,
		distanceFunc: index.NewDistanceFunc(opts.DistanceType),
		opts:         opts,
	}, nil
}
