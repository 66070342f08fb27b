package vectorstore

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// QdrantStore is a networked Store backed by qdrant/go-client, for
// deployments that index the prior-version corpus in a standalone Qdrant
// instance rather than in-process.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
	embed      Embedder
}

// NewQdrantStore connects to Qdrant's gRPC port at host:port and returns a
// Store scoped to collection. embed turns chunk text into the dense vector
// Qdrant indexes and searches on.
func NewQdrantStore(host string, port int, apiKey string, useTLS bool, collection string, embed Embedder) (*QdrantStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: dial qdrant: %w", err)
	}
	return &QdrantStore{client: client, collection: collection, embed: embed}, nil
}

// Index upserts a prior-version chunk into the collection.
func (s *QdrantStore) Index(ctx context.Context, id uint64, chunkText string, metadata map[string]string) error {
	vector, err := s.embed(ctx, chunkText)
	if err != nil {
		return fmt.Errorf("vectorstore: embed chunk: %w", err)
	}

	payload := map[string]*qdrant.Value{
		"chunk_text": qdrant.NewValueString(chunkText),
	}
	for k, v := range metadata {
		payload[k] = qdrant.NewValueString(v)
	}

	_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewIDNum(id),
				Vectors: qdrant.NewVectors(vector...),
				Payload: payload,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("vectorstore: upsert point: %w", err)
	}
	return nil
}

// Retrieve implements Store. A collection with zero points yields an empty
// result rather than an error.
func (s *QdrantStore) Retrieve(ctx context.Context, chunkText string, topK int) ([]RetrievedChunk, error) {
	if topK <= 0 {
		topK = 1
	}

	vector, err := s.embed(ctx, chunkText)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: embed query: %w", err)
	}

	limit := uint64(topK)
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQueryDense(vector),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: query: %w", err)
	}

	out := make([]RetrievedChunk, 0, len(points))
	for _, p := range points {
		metadata := make(map[string]string, len(p.Payload))
		chunk := ""
		for k, v := range p.Payload {
			s := v.GetStringValue()
			if k == "chunk_text" {
				chunk = s
				continue
			}
			metadata[k] = s
		}
		out = append(out, RetrievedChunk{
			ChunkText:  chunk,
			Similarity: float64(p.Score),
			Metadata:   metadata,
		})
	}
	return out, nil
}

// Close releases the underlying gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}
