// Package embedder talks to the external sentence-embedding service. The
// service is deterministic for a fixed model version, so the same normalized
// text always maps to the same vector.
package embedder

import (
	"context"
	"fmt"
	"net/http"

	"github.com/avast/retry-go/v4"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/qachat/qa-backend/internal/config"
	"github.com/qachat/qa-backend/internal/entity"
	"github.com/qachat/qa-backend/internal/integration/common"
	pkghttp "github.com/qachat/qa-backend/pkg/http"
)

type Connector struct {
	config    config.EmbedderConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.EmbedderConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

// Healthcheck verifies the embedding model is loaded and reachable. Failure
// here is fatal at startup: no ingestion or query can proceed without it.
func (c *Connector) Healthcheck(ctx context.Context) error {
	err := c.connector.DoRequest(ctx, http.MethodGet, c.config.HealthEndpoint, nil, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", entity.ErrEmbedderUnavailable, err)
	}
	return nil
}

// Embed returns the vector for a single normalized text.
func (c *Connector) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in one round trip. The service embeds each text
// independently, so batch results are identical to per-text calls.
func (c *Connector) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctxzap.Debug(ctx, "embedding texts", zap.Int("text_count", len(texts)))

	req := &entity.EmbedRequest{Texts: texts}

	var resp entity.EmbedResponse
	err := retry.Do(func() error {
		return c.connector.DoRequest(ctx, http.MethodPost, c.config.EmbedEndpoint, req, &resp)
	}, append(c.config.Retry.ToRetryOptions(), retry.Context(ctx))...)
	if err != nil {
		ctxzap.Error(ctx, "failed to embed texts", zap.Error(err))
		return nil, fmt.Errorf("embed texts: %w", err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: sent %d, got %d", entity.ErrEmbeddingMismatch, len(texts), len(resp.Embeddings))
	}

	ctxzap.Debug(ctx, "texts embedded",
		zap.Int("text_count", len(texts)),
		zap.Int("dimension", len(resp.Embeddings[0])),
	)

	return resp.Embeddings, nil
}
