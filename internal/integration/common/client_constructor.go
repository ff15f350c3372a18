package common

import (
	"go.uber.org/zap"

	"github.com/qachat/qa-backend/internal/config"
	pkgHTTP "github.com/qachat/qa-backend/pkg/http"
)

// NewBaseConnector builds the shared JSON connector for an upstream service
// from its HTTP client config.
func NewBaseConnector(cfg config.HTTPClientConfig, logger *zap.Logger) *pkgHTTP.Connector {
	connCfg := &pkgHTTP.ConnectorConfig{
		Logger:  logger,
		BaseURL: cfg.Url,
	}

	return pkgHTTP.NewConnector(
		connCfg,
		pkgHTTP.WithRequestTimeout(cfg.RequestTimeout),
		pkgHTTP.WithConnTimeout(cfg.ConnTimeout),
		pkgHTTP.WithKeepAlive(cfg.KeepAlive),
		pkgHTTP.WithIdleConnTimeout(cfg.IdleConnTimeout),
		pkgHTTP.WithResponseHeaderTimeout(cfg.ResponseHeaderTimeout),
		pkgHTTP.WithRequestLogging(),
		pkgHTTP.WithAuthToken(cfg.Token),
	)
}
