package embedder

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const mockDimension = 64

// MockConnector is a local stand-in for the embedding service. It hashes
// tokens into a fixed-dimension bag-of-words vector, so texts sharing
// normalized tokens really do score as similar. Deterministic, which keeps
// mock-mode query behavior reproducible.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{logger: logger}
}

func (m *MockConnector) Healthcheck(ctx context.Context) error {
	ctxzap.Info(ctx, "[MOCK] embedder healthcheck")
	return nil
}

func (m *MockConnector) Embed(ctx context.Context, text string) ([]float32, error) {
	return hashEmbed(text), nil
}

func (m *MockConnector) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	ctxzap.Debug(ctx, "[MOCK] embedding texts", zap.Int("text_count", len(texts)))

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = hashEmbed(text)
	}
	return vectors, nil
}

func hashEmbed(text string) []float32 {
	vec := make([]float32, mockDimension)
	for _, token := range strings.Fields(text) {
		h := fnv.New64a()
		h.Write([]byte(token))
		vec[h.Sum64()%mockDimension]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec
}
