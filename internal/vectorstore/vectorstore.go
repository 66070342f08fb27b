// Package vectorstore implements the prior-version corpus lookup consumed
// by the content analyzer stage (C4): retrieve(chunk_text, top_k) -> ranked
// chunks from an indexed corpus of prior-version documents. The Store
// interface the analyzer consumes only answers similarity queries; the
// concrete backends also expose an Index method for loading ("backfill")
// that corpus.
package vectorstore

import "context"

// RetrievedChunk is one ranked hit returned by a Store.
type RetrievedChunk struct {
	ChunkText  string
	Similarity float64
	Metadata   map[string]string
}

// Store is the narrow contract the content analyzer stage consumes.
// Implementations must tolerate an empty corpus by returning a nil/empty
// slice rather than an error.
type Store interface {
	Retrieve(ctx context.Context, chunkText string, topK int) ([]RetrievedChunk, error)
}

// Embedder converts text into a dense vector. Both backends in this
// package need one to turn a chunk of text into something they can index
// or query by similarity.
type Embedder func(ctx context.Context, text string) ([]float32, error)
