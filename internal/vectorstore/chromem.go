package vectorstore

import (
	"context"
	"fmt"

	"github.com/philippgille/chromem-go"
)

// ChromemStore is an in-process Store backed by philippgille/chromem-go.
// It is the default backend for local/single-process deployments and for
// tests: no external service, corpus indexing and querying both happen
// in-memory.
type ChromemStore struct {
	collection *chromem.Collection
}

// NewChromemStore opens (or creates) a named collection in db, embedding
// documents and queries with embed.
func NewChromemStore(db *chromem.DB, collectionName string, embed Embedder) (*ChromemStore, error) {
	collection, err := db.GetOrCreateCollection(collectionName, nil, chromem.EmbeddingFunc(embed))
	if err != nil {
		return nil, fmt.Errorf("vectorstore: create chromem collection %q: %w", collectionName, err)
	}
	return &ChromemStore{collection: collection}, nil
}

// Index adds prior-version chunks to the corpus. id must be unique per
// chunk; metadata is carried through to RetrievedChunk.Metadata.
func (s *ChromemStore) Index(ctx context.Context, id, chunkText string, metadata map[string]string) error {
	return s.collection.AddDocument(ctx, chromem.Document{
		ID:       id,
		Content:  chunkText,
		Metadata: metadata,
	})
}

// Retrieve implements Store. An empty or not-yet-indexed corpus yields an
// empty result rather than an error.
func (s *ChromemStore) Retrieve(ctx context.Context, chunkText string, topK int) ([]RetrievedChunk, error) {
	if topK <= 0 {
		topK = 1
	}
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if topK > count {
		topK = count
	}

	results, err := s.collection.Query(ctx, chunkText, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: chromem query: %w", err)
	}

	out := make([]RetrievedChunk, 0, len(results))
	for _, r := range results {
		out = append(out, RetrievedChunk{
			ChunkText:  r.Content,
			Similarity: float64(r.Similarity),
			Metadata:   r.Metadata,
		})
	}
	return out, nil
}
