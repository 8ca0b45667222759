package semdex

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semdex/semdex/blobstore"
	"github.com/semdex/semdex/persistence"
)

func newMemStore(t *testing.T, dimension int, optFns ...Option) (*Store, *blobstore.Memory) {
	t.Helper()

	mem := blobstore.NewMemory()
	store, err := New(dimension, append([]Option{
		WithBucket(mem),
		WithLogger(NoopLogger()),
	}, optFns...)...)
	require.NoError(t, err)

	return store, mem
}

func TestNew(t *testing.T) {
	t.Run("RejectsNonPositiveDimension", func(t *testing.T) {
		for _, dim := range []int{0, -1} {
			_, err := New(dim)

			var dimErr *ErrInvalidDimension
			require.ErrorAs(t, err, &dimErr)
			assert.Equal(t, dim, dimErr.Dimension)
		}
	})

	t.Run("DefaultDimension", func(t *testing.T) {
		store, _ := newMemStore(t, DefaultDimension)
		assert.Equal(t, DefaultDimension, store.Dimension())
	})
}

func TestIngestAndQuery(t *testing.T) {
	ctx := context.Background()

	t.Run("NearestFirst", func(t *testing.T) {
		store, _ := newMemStore(t, 3)

		n, err := store.Ingest(ctx, []Record{
			{Vector: []float32{1, 2, 3}, Text: "alpha"},
			{Vector: []float32{4, 5, 6}, Text: "beta"},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		results, err := store.Query(ctx, []float32{1, 2, 3}, 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"alpha"}, results)

		results, err = store.Query(ctx, []float32{4, 5, 6}, 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"beta"}, results)
	})

	t.Run("KLargerThanIndex", func(t *testing.T) {
		store, _ := newMemStore(t, 3)

		_, err := store.Ingest(ctx, []Record{
			{Vector: []float32{1, 2, 3}, Text: "alpha"},
			{Vector: []float32{4, 5, 6}, Text: "beta"},
		})
		require.NoError(t, err)

		results, err := store.Query(ctx, []float32{1, 2, 3}, 5)
		require.NoError(t, err)
		assert.Equal(t, []string{"alpha", "beta"}, results)
	})

	t.Run("ZeroKUsesDefault", func(t *testing.T) {
		store, _ := newMemStore(t, 2, WithDefaultK(2))

		_, err := store.Ingest(ctx, []Record{
			{Vector: []float32{0, 0}, Text: "origin"},
			{Vector: []float32{1, 0}, Text: "east"},
			{Vector: []float32{0, 9}, Text: "north"},
		})
		require.NoError(t, err)

		results, err := store.Query(ctx, []float32{0, 0}, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"origin", "east"}, results)
	})

	t.Run("AccumulatesAcrossInvocations", func(t *testing.T) {
		store, _ := newMemStore(t, 2)

		_, err := store.Ingest(ctx, []Record{{Vector: []float32{1, 0}, Text: "first"}})
		require.NoError(t, err)
		_, err = store.Ingest(ctx, []Record{{Vector: []float32{0, 1}, Text: "second"}})
		require.NoError(t, err)

		stats, err := store.Stat(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Vectors)
		assert.Equal(t, 2, stats.Metadata)

		results, err := store.Query(ctx, []float32{0, 1}, 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"second", "first"}, results)
	})

	t.Run("IncrementalBatches", func(t *testing.T) {
		store, _ := newMemStore(t, 3)

		n, err := store.Ingest(ctx, []Record{
			{Vector: []float32{1, 0, 0}, Text: "a"},
			{Vector: []float32{0, 1, 0}, Text: "b"},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		results, err := store.Query(ctx, []float32{1, 0, 0}, 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, results)

		n, err = store.Ingest(ctx, []Record{
			{Vector: []float32{0, 0, 1}, Text: "c"},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		results, err = store.Query(ctx, []float32{0, 0, 1}, 2)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "c", results[0])
		assert.Contains(t, []string{"a", "b"}, results[1])
	})

	t.Run("SurvivesReopen", func(t *testing.T) {
		mem := blobstore.NewMemory()

		store1, err := New(4, WithBucket(mem), WithLogger(NoopLogger()))
		require.NoError(t, err)
		_, err = store1.Ingest(ctx, []Record{
			{Vector: []float32{1, 0, 0, 0}, Text: "x"},
			{Vector: []float32{0, 1, 0, 0}, Text: "y"},
		})
		require.NoError(t, err)

		store2, err := New(4, WithBucket(mem), WithLogger(NoopLogger()))
		require.NoError(t, err)
		results, err := store2.Query(ctx, []float32{0, 1, 0, 0}, 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"y"}, results)
	})
}

func TestIngestValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("EmptyBatch", func(t *testing.T) {
		store, _ := newMemStore(t, 3)

		_, err := store.Ingest(ctx, nil)
		require.ErrorIs(t, err, ErrEmptyBatch)

		_, err = store.Ingest(ctx, []Record{})
		require.ErrorIs(t, err, ErrEmptyBatch)
	})

	t.Run("DimensionMismatchRejectsWholeBatch", func(t *testing.T) {
		store, _ := newMemStore(t, 3)

		_, err := store.Ingest(ctx, []Record{
			{Vector: []float32{1, 2, 3}, Text: "good"},
			{Vector: []float32{1, 2}, Text: "short"},
		})

		var dimErr *ErrDimensionMismatch
		require.ErrorAs(t, err, &dimErr)
		assert.Equal(t, 3, dimErr.Expected)
		assert.Equal(t, 2, dimErr.Actual)

		stats, err := store.Stat(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.Vectors)
		assert.Equal(t, 0, stats.Metadata)
	})

	t.Run("MissingVector", func(t *testing.T) {
		store, _ := newMemStore(t, 3)

		_, err := store.Ingest(ctx, []Record{{Text: "no vector"}})

		var dimErr *ErrDimensionMismatch
		require.ErrorAs(t, err, &dimErr)
		assert.Equal(t, 0, dimErr.Actual)
	})
}

func TestQueryValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("MissingVector", func(t *testing.T) {
		store, _ := newMemStore(t, 3)

		_, err := store.Query(ctx, nil, 1)
		require.ErrorIs(t, err, ErrInvalidQuery)

		_, err = store.Query(ctx, []float32{}, 1)
		require.ErrorIs(t, err, ErrInvalidQuery)
	})

	t.Run("NegativeK", func(t *testing.T) {
		store, _ := newMemStore(t, 3)

		_, err := store.Query(ctx, []float32{1, 2, 3}, -1)
		require.ErrorIs(t, err, ErrInvalidQuery)
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		store, _ := newMemStore(t, 3)

		_, err := store.Query(ctx, []float32{1, 2}, 1)

		var dimErr *ErrDimensionMismatch
		require.ErrorAs(t, err, &dimErr)
		assert.Equal(t, 3, dimErr.Expected)
		assert.Equal(t, 2, dimErr.Actual)
	})

	t.Run("EmptyIndex", func(t *testing.T) {
		store, _ := newMemStore(t, 3)

		results, err := store.Query(ctx, []float32{1, 2, 3}, 5)
		require.NoError(t, err)
		require.NotNil(t, results)
		assert.Empty(t, results)
	})
}

func TestDegradedArtifacts(t *testing.T) {
	ctx := context.Background()

	t.Run("CorruptMetadataDoesNotFailQuery", func(t *testing.T) {
		store, mem := newMemStore(t, 2)

		_, err := store.Ingest(ctx, []Record{
			{Vector: []float32{1, 0}, Text: "a"},
			{Vector: []float32{0, 1}, Text: "b"},
		})
		require.NoError(t, err)

		mem.SetRaw(DefaultMetadataName, []byte("{not json"))

		// The vectors are still searchable but no candidate has a text, so
		// the result set degrades to empty.
		results, err := store.Query(ctx, []float32{1, 0}, 2)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("CorruptMetadataDoesNotFailIngest", func(t *testing.T) {
		store, mem := newMemStore(t, 2)

		_, err := store.Ingest(ctx, []Record{{Vector: []float32{1, 0}, Text: "a"}})
		require.NoError(t, err)

		mem.SetRaw(DefaultMetadataName, []byte("[1, 2,"))

		n, err := store.Ingest(ctx, []Record{{Vector: []float32{0, 1}, Text: "b"}})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("MissingMetadataEntrySkipsCandidate", func(t *testing.T) {
		store, mem := newMemStore(t, 2)

		_, err := store.Ingest(ctx, []Record{
			{Vector: []float32{0, 0}, Text: "origin"},
			{Vector: []float32{1, 0}, Text: "east"},
			{Vector: []float32{0, 1}, Text: "north"},
		})
		require.NoError(t, err)

		// Metadata for everything past position 0 is gone, as after a crash
		// between the two artifact writes.
		mem.SetRaw(DefaultMetadataName, []byte(`["origin"]`))

		results, err := store.Query(ctx, []float32{0, 0}, 3)
		require.NoError(t, err)
		assert.Equal(t, []string{"origin"}, results)
	})

	t.Run("CorruptIndexFailsQuery", func(t *testing.T) {
		store, mem := newMemStore(t, 2)

		_, err := store.Ingest(ctx, []Record{{Vector: []float32{1, 0}, Text: "a"}})
		require.NoError(t, err)

		mem.SetRaw(DefaultIndexName, []byte("definitely not an index file"))

		_, err = store.Query(ctx, []float32{1, 0}, 1)
		require.Error(t, err)
	})

	t.Run("MissingIndexStartsEmpty", func(t *testing.T) {
		store, mem := newMemStore(t, 2)

		_, err := store.Ingest(ctx, []Record{{Vector: []float32{1, 0}, Text: "a"}})
		require.NoError(t, err)

		mem.Delete(DefaultIndexName)

		results, err := store.Query(ctx, []float32{1, 0}, 1)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestLocalDir(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := New(3, WithDir(dir), WithLogger(NoopLogger()))
	require.NoError(t, err)

	_, err = store.Ingest(ctx, []Record{
		{Vector: []float32{1, 2, 3}, Text: "alpha"},
		{Vector: []float32{4, 5, 6}, Text: "beta"},
	})
	require.NoError(t, err)

	for _, name := range []string{DefaultIndexName, DefaultMetadataName} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Positive(t, info.Size(), name)
	}

	// A second store against the same directory sees the data.
	store2, err := New(3, WithDir(dir), WithLogger(NoopLogger()))
	require.NoError(t, err)

	results, err := store2.Query(ctx, []float32{4, 5, 6}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"beta"}, results)
}

func TestCompression(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		name        string
		compression persistence.Compression
	}{
		{"Zstd", persistence.CompressionZstd},
		{"LZ4", persistence.CompressionLZ4},
	} {
		t.Run(tc.name, func(t *testing.T) {
			store, _ := newMemStore(t, 3, WithCompression(tc.compression))

			_, err := store.Ingest(ctx, []Record{
				{Vector: []float32{1, 2, 3}, Text: "alpha"},
				{Vector: []float32{4, 5, 6}, Text: "beta"},
			})
			require.NoError(t, err)

			results, err := store.Query(ctx, []float32{1, 2, 3}, 2)
			require.NoError(t, err)
			assert.Equal(t, []string{"alpha", "beta"}, results)
		})
	}

	t.Run("MismatchedCodecFailsLoad", func(t *testing.T) {
		mem := blobstore.NewMemory()

		compressed, err := New(3, WithBucket(mem), WithLogger(NoopLogger()),
			WithCompression(persistence.CompressionZstd))
		require.NoError(t, err)
		_, err = compressed.Ingest(ctx, []Record{{Vector: []float32{1, 2, 3}, Text: "a"}})
		require.NoError(t, err)

		plain, err := New(3, WithBucket(mem), WithLogger(NoopLogger()))
		require.NoError(t, err)
		_, err = plain.Query(ctx, []float32{1, 2, 3}, 1)
		require.Error(t, err)
	})
}

func TestStat(t *testing.T) {
	ctx := context.Background()
	store, _ := newMemStore(t, 3)

	stats, err := store.Stat(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Vectors: 0, Metadata: 0, Dimension: 3}, stats)

	_, err = store.Ingest(ctx, []Record{{Vector: []float32{1, 2, 3}, Text: "a"}})
	require.NoError(t, err)

	stats, err = store.Stat(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Vectors: 1, Metadata: 1, Dimension: 3}, stats)
}
