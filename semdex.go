package semdex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/semdex/semdex/blobstore"
	"github.com/semdex/semdex/index/flat"
	"github.com/semdex/semdex/internal/fslock"
	"github.com/semdex/semdex/metadata"
)

// Record is one (vector, text) pair to ingest.
//
// The JSON field names match the embedding pipeline's output, so a records
// file can be unmarshaled straight into []Record.
type Record struct {
	Vector []float32 `json:"embedding"`
	Text   string    `json:"text"`

	// Hash is the content hash some pipelines attach to each chunk.
	// It is accepted for compatibility but not persisted.
	Hash string `json:"hash,omitempty"`
}

// Store is the handle to one durable vector index.
//
// A Store does not hold the index in memory: every operation is a fresh
// load-operate-(save) cycle against the backing bucket, so the artifacts on
// storage are the only source of truth. Construct one Store per index
// location and per configuration.
type Store struct {
	dimension int
	bucket    blobstore.Bucket
	lockPath  string
	opts      options
}

// New creates a Store for vectors of the given dimension.
//
// By default artifacts live in the current directory under their well-known
// names. The dimension is immutable for the lifetime of the index: it is
// enforced against every ingested and queried vector, and validated against
// the persisted artifact on load.
func New(dimension int, optFns ...Option) (*Store, error) {
	if dimension <= 0 {
		return nil, &ErrInvalidDimension{Dimension: dimension}
	}

	opts := applyOptions(optFns)

	bucket := opts.bucket
	if bucket == nil {
		local, err := blobstore.NewLocal(opts.dir)
		if err != nil {
			return nil, fmt.Errorf("semdex: open storage: %w", err)
		}
		bucket = local
	}

	// Local buckets get an advisory lock around the load-mutate-save cycle.
	// Remote buckets are last-writer-wins; see the bucket package docs.
	lockPath := ""
	if local, ok := bucket.(*blobstore.Local); ok {
		lockPath = local.Path(DefaultLockName)
	}

	return &Store{
		dimension: dimension,
		bucket:    bucket,
		lockPath:  lockPath,
		opts:      opts,
	}, nil
}

// Dimension returns the configured vector dimensionality.
func (s *Store) Dimension() int {
	return s.dimension
}

// Ingest appends a batch of records to the index and persists the result.
//
// The batch is validated before any mutation: if any record's vector length
// differs from the store dimension the whole batch is rejected. On success
// the returned count equals the growth of the index, which for the flat
// index is always the batch size.
func (s *Store) Ingest(ctx context.Context, records []Record) (ingested int, err error) {
	start := time.Now()
	defer func() {
		s.opts.metrics.RecordIngest(len(records), time.Since(start), err)
		s.opts.logger.LogIngest(ctx, len(records), err)
	}()

	if len(records) == 0 {
		return 0, ErrEmptyBatch
	}
	for i, rec := range records {
		if len(rec.Vector) != s.dimension {
			return 0, &ErrDimensionMismatch{
				Expected: s.dimension,
				Actual:   len(rec.Vector),
				cause:    fmt.Errorf("record %d", i),
			}
		}
	}

	if s.lockPath != "" {
		lock, lockErr := fslock.Acquire(s.lockPath)
		if lockErr != nil {
			return 0, fmt.Errorf("semdex: acquire lock: %w", lockErr)
		}
		defer func() { _ = lock.Release() }()
	}

	idx, meta, err := s.load(ctx)
	if err != nil {
		return 0, err
	}

	before := idx.Len()

	vectors := make([][]float32, len(records))
	texts := make([]string, len(records))
	for i, rec := range records {
		vectors[i] = rec.Vector
		texts[i] = rec.Text
	}

	if err := idx.Append(vectors...); err != nil {
		return 0, translateError(err)
	}
	meta.Append(texts...)

	if err := s.save(ctx, idx, meta); err != nil {
		return 0, err
	}

	return idx.Len() - before, nil
}

// Query returns the texts of the k nearest vectors to the query, nearest
// first. k == 0 means the store's default; k may exceed the index size.
//
// Querying an empty index returns an empty, non-nil slice: an empty corpus
// has no neighbors, which is a valid outcome and not an error. Candidates
// whose position has no metadata entry are skipped with a warning instead
// of failing the query.
func (s *Store) Query(ctx context.Context, vector []float32, k int) (results []string, err error) {
	start := time.Now()
	defer func() {
		s.opts.metrics.RecordQuery(k, time.Since(start), err)
		s.opts.logger.LogQuery(ctx, k, len(results), err)
	}()

	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: missing vector", ErrInvalidQuery)
	}
	if k < 0 {
		return nil, fmt.Errorf("%w: k must not be negative, got %d", ErrInvalidQuery, k)
	}
	if k == 0 {
		k = s.opts.defaultK
	}
	if len(vector) != s.dimension {
		return nil, &ErrDimensionMismatch{Expected: s.dimension, Actual: len(vector)}
	}

	idx, meta, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	if idx.Len() == 0 {
		return []string{}, nil
	}

	candidates, err := idx.KNNSearch(ctx, vector, k)
	if err != nil {
		return nil, translateError(err)
	}

	results = make([]string, 0, len(candidates))
	for _, c := range candidates {
		text, ok := meta.Get(int(c.ID))
		if !ok {
			// Structure and metadata disagree, e.g. after a crash between
			// the two artifact writes. Degrade to a smaller result set.
			s.opts.logger.WarnContext(ctx, "skipping candidate without metadata",
				"id", c.ID,
				"metadata_len", meta.Len(),
			)
			continue
		}
		results = append(results, text)
	}

	return results, nil
}

// Stats describes the persisted state of the index.
type Stats struct {
	Vectors   int `json:"vectors"`
	Metadata  int `json:"metadata"`
	Dimension int `json:"dimension"`
}

// Stat loads the index read-only and reports its size.
func (s *Store) Stat(ctx context.Context) (Stats, error) {
	idx, meta, err := s.load(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Vectors:   idx.Len(),
		Metadata:  meta.Len(),
		Dimension: idx.Dimension(),
	}, nil
}

// load materializes the index from the bucket, or produces an empty one.
//
// A missing vector artifact yields an empty index; a missing metadata
// artifact yields an empty list. A metadata artifact that is present but
// unparsable is replaced by an empty list with a warning: ingestion always
// re-derives metadata from its input, so availability beats failing the
// load. All other storage errors are fatal for the invocation.
func (s *Store) load(ctx context.Context) (idx *flat.Flat, meta *metadata.List, err error) {
	start := time.Now()
	defer func() {
		s.opts.metrics.RecordLoad(time.Since(start), err)
	}()

	rc, openErr := s.bucket.Open(ctx, s.opts.indexName)
	if errors.Is(openErr, blobstore.ErrNotFound) {
		s.opts.logger.DebugContext(ctx, "no index artifact, starting empty",
			"artifact", s.opts.indexName,
		)
		idx, err = flat.New(flat.WithDimension(s.dimension))
		if err != nil {
			return nil, nil, translateError(err)
		}
	} else if openErr != nil {
		return nil, nil, fmt.Errorf("semdex: open index artifact: %w", openErr)
	} else {
		defer rc.Close()
		cr, wrapErr := s.opts.compression.WrapReader(rc)
		if wrapErr != nil {
			return nil, nil, fmt.Errorf("semdex: open index artifact: %w", wrapErr)
		}
		defer cr.Close()
		idx, err = flat.Read(cr, flat.WithDimension(s.dimension))
		if err != nil {
			err = fmt.Errorf("semdex: read index artifact: %w", translateError(err))
			return nil, nil, err
		}
	}

	mrc, openErr := s.bucket.Open(ctx, s.opts.metadataName)
	if errors.Is(openErr, blobstore.ErrNotFound) {
		meta = metadata.New()
	} else if openErr != nil {
		return nil, nil, fmt.Errorf("semdex: open metadata artifact: %w", openErr)
	} else {
		defer mrc.Close()
		var decodeErr error
		meta, decodeErr = metadata.Decode(mrc, s.opts.codec)
		if errors.Is(decodeErr, metadata.ErrCorrupt) {
			s.opts.logger.WarnContext(ctx, "metadata artifact corrupt, substituting empty metadata",
				"artifact", s.opts.metadataName,
				"error", decodeErr,
			)
			meta = metadata.New()
		} else if decodeErr != nil {
			return nil, nil, fmt.Errorf("semdex: read metadata artifact: %w", decodeErr)
		}
	}

	if idx.Len() != meta.Len() {
		s.opts.logger.WarnContext(ctx, "index and metadata sizes disagree",
			"vectors", idx.Len(),
			"metadata", meta.Len(),
		)
	}

	return idx, meta, nil
}

// save persists both artifacts: the vector structure first, then metadata.
//
// The two writes are individually atomic but not jointly: a crash between
// them leaves the structure larger than the metadata sequence. Query
// tolerates that per candidate, and the next successful ingest repairs it.
func (s *Store) save(ctx context.Context, idx *flat.Flat, meta *metadata.List) (err error) {
	start := time.Now()
	defer func() {
		s.opts.metrics.RecordSave(time.Since(start), err)
	}()

	err = s.bucket.Put(ctx, s.opts.indexName, func(w io.Writer) error {
		cw, wrapErr := s.opts.compression.WrapWriter(w)
		if wrapErr != nil {
			return wrapErr
		}
		if _, writeErr := idx.WriteTo(cw); writeErr != nil {
			_ = cw.Close()
			return writeErr
		}
		return cw.Close()
	})
	s.opts.logger.LogSave(ctx, s.opts.indexName, err)
	if err != nil {
		return fmt.Errorf("semdex: save index artifact: %w", err)
	}

	err = s.bucket.Put(ctx, s.opts.metadataName, func(w io.Writer) error {
		return meta.Encode(w, s.opts.codec)
	})
	s.opts.logger.LogSave(ctx, s.opts.metadataName, err)
	if err != nil {
		return fmt.Errorf("semdex: save metadata artifact: %w", err)
	}

	return nil
}
