package dataset

import "context"

// Embedder is the slice of the embedding service the ingestion pipeline
// needs. Batch results are identical to embedding each text individually.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorIndex is the mutable view of the similarity index.
type VectorIndex interface {
	Add(id string, vector []float32)
	Remove(id string)
	Rebuild(ids []string, vectors [][]float32)
}
