package app

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"bolagsverket-mcp/internal/app/catalog"
	"bolagsverket-mcp/internal/app/dispatch"
	"bolagsverket-mcp/internal/domain"
	"bolagsverket-mcp/internal/infra/auth"
	"bolagsverket-mcp/internal/infra/config"
	"bolagsverket-mcp/internal/infra/gateway"
	"bolagsverket-mcp/internal/infra/registry"
	"bolagsverket-mcp/internal/infra/telemetry"
)

// ServeConfig selects the configuration sources for a run.
type ServeConfig struct {
	ConfigPath string
	EnvFile    string
	Overrides  map[string]any
}

func LoadConfig(ctx context.Context, serve ServeConfig, logger *zap.Logger) (domain.Config, error) {
	return config.NewLoader(logger).Load(ctx, config.Sources{
		ConfigPath: serve.ConfigPath,
		EnvFile:    serve.EnvFile,
		Overrides:  serve.Overrides,
	})
}

func NewMetricsRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	registry.MustRegister(prometheus.NewGoCollector())
	return registry
}

func NewMetrics(registry *prometheus.Registry) domain.Metrics {
	return telemetry.NewPrometheusMetrics(registry)
}

func NewHealthTracker() *telemetry.HealthTracker {
	return telemetry.NewHealthTracker()
}

// NewHTTPClient returns the client shared by the token provider and the
// registry client. Per-call deadlines are applied by the callers.
func NewHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	return &http.Client{Transport: transport}
}

func NewTokenProvider(cfg domain.Config, client *http.Client, metrics domain.Metrics, health *telemetry.HealthTracker, logger *zap.Logger) *auth.Provider {
	return auth.NewProvider(auth.Options{
		Credentials: cfg.Credentials,
		TokenURL:    cfg.TokenURL,
		Scopes:      cfg.Scopes,
		CacheTokens: cfg.CacheTokens,
		RenewBefore: cfg.TokenRenewBefore,
		Timeout:     cfg.TokenTimeout,
		HTTPClient:  client,
		Metrics:     metrics,
		Health:      health,
		Logger:      logger,
	})
}

func NewRegistryClient(cfg domain.Config, tokens registry.TokenSource, client *http.Client, metrics domain.Metrics, health *telemetry.HealthTracker, logger *zap.Logger) *registry.Client {
	return registry.NewClient(registry.Options{
		BaseURL:          cfg.BaseURL,
		Tokens:           tokens,
		HTTPClient:       client,
		RequestTimeout:   cfg.RequestTimeout,
		MaxResponseBytes: cfg.MaxResponseBytes,
		Metrics:          metrics,
		Health:           health,
		Logger:           logger,
	})
}

func NewCatalog() *catalog.Catalog {
	return catalog.New()
}

// NewSessionLog forwards tool call logs to MCP clients that enabled logging.
func NewSessionLog() *gateway.SessionLog {
	return gateway.NewSessionLog(zapcore.InfoLevel)
}

func NewDispatcher(remote dispatch.Remote, metrics domain.Metrics, sessions *gateway.SessionLog, logger *zap.Logger) *dispatch.Dispatcher {
	return dispatch.NewDispatcher(remote, metrics, gateway.WithSessionLog(logger, sessions))
}

func NewGateway(dispatcher gateway.Dispatcher, tools gateway.ToolLister, sessions *gateway.SessionLog, logger *zap.Logger) *gateway.Gateway {
	return gateway.NewGateway(gateway.Options{
		Name:       domain.ServerName,
		Version:    Version,
		Dispatcher: dispatcher,
		Tools:      tools,
		SessionLog: sessions,
		Logger:     logger,
	})
}
