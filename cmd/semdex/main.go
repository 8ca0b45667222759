package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/semdex/semdex"
	"github.com/semdex/semdex/blobstore/s3"
	"github.com/semdex/semdex/persistence"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "semdex",
		Short: "Maintain and query a durable flat vector index",
		Long: `semdex keeps an exact nearest-neighbor index of embedding vectors with
positionally linked texts, persisted as two artifacts in a directory or
an S3 bucket.

Records are JSON objects of the form produced by common embedding
pipelines: {"embedding": [...], "text": "...", "hash": "..."}.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("dir", ".", "Directory holding the index artifacts")
	rootCmd.PersistentFlags().Int("dim", semdex.DefaultDimension, "Vector dimensionality of the index")
	rootCmd.PersistentFlags().String("s3-bucket", "", "Store artifacts in this S3 bucket instead of a directory")
	rootCmd.PersistentFlags().String("s3-prefix", "", "Key prefix inside the S3 bucket")
	rootCmd.PersistentFlags().String("compression", "none", "Artifact compression: none, zstd or lz4")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(
		newVersionCmd(),
		newIngestCmd(),
		newQueryCmd(),
		newStatsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStore builds a Store from the persistent flags. Logs go to stderr so
// stdout stays clean for command output.
func openStore(cmd *cobra.Command) (*semdex.Store, error) {
	dim, _ := cmd.Flags().GetInt("dim")

	levelName, _ := cmd.Flags().GetString("log-level")
	level, err := parseLevel(levelName)
	if err != nil {
		return nil, err
	}

	compressionName, _ := cmd.Flags().GetString("compression")
	compression, err := parseCompression(compressionName)
	if err != nil {
		return nil, err
	}

	opts := []semdex.Option{
		semdex.WithLogger(semdex.NewTextLogger(level)),
		semdex.WithCompression(compression),
	}

	if bucketName, _ := cmd.Flags().GetString("s3-bucket"); bucketName != "" {
		prefix, _ := cmd.Flags().GetString("s3-prefix")
		bucket, err := s3.NewDefault(cmd.Context(), bucketName, prefix)
		if err != nil {
			return nil, fmt.Errorf("failed to open s3 bucket: %w", err)
		}
		opts = append(opts, semdex.WithBucket(bucket))
	} else {
		dir, _ := cmd.Flags().GetString("dir")
		opts = append(opts, semdex.WithDir(dir))
	}

	return semdex.New(dim, opts...)
}

func parseLevel(name string) (slog.Level, error) {
	switch name {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", name)
	}
}

func parseCompression(name string) (persistence.Compression, error) {
	switch name {
	case "none", "":
		return persistence.CompressionNone, nil
	case "zstd":
		return persistence.CompressionZstd, nil
	case "lz4":
		return persistence.CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", name)
	}
}

// readInput reads a file, or stdin when path is "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("semdex version %s\n", version)
		},
	}
}

func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Append a batch of records to the index",
		Long: `Append a batch of records to the index and persist it.

The data file holds a JSON array of records. Every record's embedding must
match the index dimension; a batch with any mismatched record is rejected
as a whole.

Example:
  semdex ingest --data-file chunks.json --dir ./index`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dataFile, _ := cmd.Flags().GetString("data-file")

			data, err := readInput(dataFile)
			if err != nil {
				return fmt.Errorf("failed to read data file: %w", err)
			}

			var records []semdex.Record
			if err := json.Unmarshal(data, &records); err != nil {
				return fmt.Errorf("failed to parse data file: %w", err)
			}

			store, err := openStore(cmd)
			if err != nil {
				return err
			}

			n, err := store.Ingest(cmd.Context(), records)
			if err != nil {
				return err
			}

			return json.NewEncoder(os.Stdout).Encode(map[string]int{"ingested": n})
		},
	}

	cmd.Flags().String("data-file", "-", "JSON file with records to ingest, or - for stdin")

	return cmd
}

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Retrieve the texts nearest to a query vector",
		Long: `Retrieve the texts of the k vectors nearest to the query, nearest first,
as a JSON array on stdout.

The query file holds either a bare JSON array of numbers or a record
object whose "embedding" field is used.

Example:
  semdex query --query-file q.json -k 5 --dir ./index`,
		RunE: func(cmd *cobra.Command, args []string) error {
			queryFile, _ := cmd.Flags().GetString("query-file")
			k, _ := cmd.Flags().GetInt("k")

			data, err := readInput(queryFile)
			if err != nil {
				return fmt.Errorf("failed to read query file: %w", err)
			}

			vector, err := parseQueryVector(data)
			if err != nil {
				return fmt.Errorf("failed to parse query file: %w", err)
			}

			store, err := openStore(cmd)
			if err != nil {
				return err
			}

			results, err := store.Query(cmd.Context(), vector, k)
			if err != nil {
				return err
			}

			return json.NewEncoder(os.Stdout).Encode(results)
		},
	}

	cmd.Flags().String("query-file", "-", "JSON file with the query vector, or - for stdin")
	cmd.Flags().IntP("k", "k", semdex.DefaultK, "Number of neighbors to retrieve")

	return cmd
}

func parseQueryVector(data []byte) ([]float32, error) {
	var vector []float32
	if err := json.Unmarshal(data, &vector); err == nil {
		return vector, nil
	}

	var rec semdex.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return rec.Vector, nil
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Report the size of the persisted index",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}

			stats, err := store.Stat(cmd.Context())
			if err != nil {
				return err
			}

			return json.NewEncoder(os.Stdout).Encode(stats)
		},
	}
}
