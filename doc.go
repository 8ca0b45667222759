// Package semdex maintains a durable flat vector index with positionally
// linked text metadata, for exact nearest-neighbor retrieval over embedding
// vectors.
//
// The index lives in two artifacts in a bucket (a local directory by
// default): a binary file holding the vector structure and a JSON file
// holding the text of each vector, in insertion order. Position is the only
// linkage between the two. Every operation loads the artifacts, operates,
// and — for mutations — saves them back atomically, so independent processes
// can share one index directory.
//
//	store, err := semdex.New(1536, semdex.WithDir("./index"))
//	if err != nil { ... }
//
//	n, err := store.Ingest(ctx, records)
//	texts, err := store.Query(ctx, queryVector, 5)
package semdex
