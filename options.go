package semdex

import (
	"log/slog"

	"github.com/semdex/semdex/blobstore"
	"github.com/semdex/semdex/codec"
	"github.com/semdex/semdex/persistence"
)

const (
	// DefaultIndexName is the well-known name of the vector-structure artifact.
	DefaultIndexName = "index.bin"

	// DefaultMetadataName is the well-known name of the metadata artifact.
	DefaultMetadataName = "metadata.json"

	// DefaultLockName is the well-known name of the advisory lock file used
	// on local buckets.
	DefaultLockName = ".semdex.lock"

	// DefaultK is the neighbor count used when a query does not specify one.
	DefaultK = 5

	// DefaultDimension matches the width of the common embedding models this
	// index is typically fed from.
	DefaultDimension = 1536
)

type options struct {
	bucket       blobstore.Bucket
	dir          string
	indexName    string
	metadataName string
	codec        codec.Codec
	compression  persistence.Compression
	logger       *Logger
	metrics      MetricsCollector
	defaultK     int
}

// Option configures Store construction.
type Option func(*options)

// WithBucket sets the storage the artifacts live in. Overrides WithDir.
func WithBucket(b blobstore.Bucket) Option {
	return func(o *options) {
		o.bucket = b
	}
}

// WithDir stores the artifacts in the given local directory
// (created if missing). The default is the current directory.
func WithDir(dir string) Option {
	return func(o *options) {
		o.dir = dir
	}
}

// WithArtifactNames overrides the well-known artifact names.
func WithArtifactNames(indexName, metadataName string) Option {
	return func(o *options) {
		if indexName != "" {
			o.indexName = indexName
		}
		if metadataName != "" {
			o.metadataName = metadataName
		}
	}
}

// WithCodec configures the codec used for the metadata artifact.
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCompression configures compression of the vector-structure artifact.
//
// Compression selection is a breaking-change boundary: open a store with the
// same compression it was saved with.
func WithCompression(c persistence.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metrics = mc
	}
}

// WithDefaultK overrides the neighbor count used when Query is called
// with k == 0.
func WithDefaultK(k int) Option {
	return func(o *options) {
		if k > 0 {
			o.defaultK = k
		}
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		dir:          ".",
		indexName:    DefaultIndexName,
		metadataName: DefaultMetadataName,
		codec:        codec.Default,
		compression:  persistence.CompressionNone,
		logger:       NoopLogger(),
		metrics:      NoopMetricsCollector{},
		defaultK:     DefaultK,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
