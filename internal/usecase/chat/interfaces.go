package chat

import (
	"context"

	"github.com/qachat/qa-backend/internal/entity"
	"github.com/qachat/qa-backend/internal/index"
)

// Embedder is the slice of the embedding service the resolver needs.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher is the resolver's view of the similarity index. Remove lets the
// resolver evict an indexed id whose entry is gone from the store.
type Searcher interface {
	Search(query []float32, k int) []index.Match
	Remove(id string)
}

// Rephraser restates a matched answer in terms of the user's question.
// Best-effort: the resolver falls back to the verbatim answer on any error.
type Rephraser interface {
	Rephrase(ctx context.Context, req *entity.RephraseRequest) (string, error)
}
