package common

import (
	"net/http"

	"github.com/dominiq/maturity-backend/internal/config"
	pkgHTTP "github.com/dominiq/maturity-backend/pkg/http"
	"go.uber.org/zap"
)

func NewBaseConnector(cfg config.HTTPClientConfig, policy pkgHTTP.RetryPolicy, logger *zap.Logger) *pkgHTTP.Connector {
	connCfg := &pkgHTTP.ConnectorConfig{
		Logger:  logger,
		BaseURL: cfg.Url,
	}

	return pkgHTTP.NewConnector(connCfg, clientOptions(cfg, policy)...)
}

// NewHTTPClient is the bare client behind NewBaseConnector, for SDKs that bring their own request layer
func NewHTTPClient(cfg config.HTTPClientConfig, policy pkgHTTP.RetryPolicy) *http.Client {
	return pkgHTTP.NewClient(clientOptions(cfg, policy)...)
}

func clientOptions(cfg config.HTTPClientConfig, policy pkgHTTP.RetryPolicy) []pkgHTTP.HttpOpts {
	// RequestTimeout applies to each attempt, the client bounds the whole retry sequence
	policy.AttemptTimeout = cfg.RequestTimeout

	return []pkgHTTP.HttpOpts{
		pkgHTTP.WithRequestTimeout(policy.TotalTimeout(cfg.RequestTimeout)),
		pkgHTTP.WithConnClientTimeout(cfg.ConnTimeout),
		pkgHTTP.WithClientKeepAlive(cfg.KeepAlive),
		pkgHTTP.WithIdleConnTimeout(cfg.IdleConnTimeout),
		pkgHTTP.WithResponseHeaderTimeout(cfg.ResponseHeaderTimeout),
		pkgHTTP.WithRequestLogging(),
		pkgHTTP.WithAuthToken(cfg.Token),
		// Outermost, so every attempt goes through auth and logging
		pkgHTTP.WithRetry(policy),
	}
}
