// Package rephrase talks to the optional generative rephrasing service. The
// resolver treats it as best-effort: any failure degrades to the verbatim
// matched answer.
package rephrase

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
	config    config.RephraseConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.RephraseConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

// Rephrase asks the generation service to restate the matched answer in terms
// of the user's question, given the supporting context.
func (c *Connector) Rephrase(ctx context.Context, req *entity.RephraseRequest) (string, error) {
	ctxzap.Debug(ctx, "rephrasing answer via generation service")

	var resp entity.RephraseResponse
	err := retry.Do(func() error {
		return c.connector.DoRequest(ctx, http.MethodPost, c.config.RephraseEndpoint, req, &resp)
	}, append(c.config.Retry.ToRetryOptions(), retry.Context(ctx))...)
	if err != nil {
		return "", fmt.Errorf("rephrase answer: %w", err)
	}

	if resp.Answer == "" {
		return "", fmt.Errorf("invalid rephrase response: empty answer")
	}

	ctxzap.Debug(ctx, "answer rephrased", zap.Int("answer_length", len(resp.Answer)))

	return resp.Answer, nil
}
