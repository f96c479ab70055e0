package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"bolagsverket-mcp/internal/app/catalog"
	"bolagsverket-mcp/internal/app/dispatch"
	"bolagsverket-mcp/internal/domain"
	"bolagsverket-mcp/internal/infra/gateway"
	"bolagsverket-mcp/internal/infra/telemetry"
)

// Supported MCP transports.
const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable-http"
)

// Application holds the wired service.
type Application struct {
	config     domain.Config
	logger     *zap.Logger
	registry   *prometheus.Registry
	health     *telemetry.HealthTracker
	catalog    *catalog.Catalog
	dispatcher *dispatch.Dispatcher
	gateway    *gateway.Gateway
}

// ApplicationOptions captures dependencies for Application.
type ApplicationOptions struct {
	Config     domain.Config
	Logger     *zap.Logger
	Registry   *prometheus.Registry
	Health     *telemetry.HealthTracker
	Catalog    *catalog.Catalog
	Dispatcher *dispatch.Dispatcher
	Gateway    *gateway.Gateway
}

func NewApplication(opts ApplicationOptions) *Application {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Application{
		config:     opts.Config,
		logger:     logger,
		registry:   opts.Registry,
		health:     opts.Health,
		catalog:    opts.Catalog,
		dispatcher: opts.Dispatcher,
		gateway:    opts.Gateway,
	}
}

// Serve runs the MCP gateway on the given transport together with the
// observability server, and blocks until ctx is done or the gateway stops.
func (a *Application) Serve(ctx context.Context, transport string) error {
	a.logger.Info("configuration loaded",
		zap.String("token_url", a.config.TokenURL),
		zap.String("base_url", a.config.BaseURL),
		zap.Strings("scopes", a.config.Scopes),
		zap.Bool("cache_tokens", a.config.CacheTokens),
		zap.String("transport", transport),
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	group, groupCtx := errgroup.WithContext(runCtx)

	obs := a.config.Observability
	group.Go(func() error {
		return telemetry.StartHTTPServer(groupCtx, telemetry.HTTPServerOptions{
			Addr:          obs.ListenAddress,
			EnableMetrics: obs.Metrics,
			EnableHealthz: obs.Healthz,
			Health:        a.health,
			Registry:      a.registry,
		}, a.logger)
	})
	group.Go(func() error {
		// The observability server only lives as long as the gateway.
		defer cancel()
		switch transport {
		case "", TransportStdio:
			return a.gateway.Run(groupCtx)
		case TransportStreamableHTTP:
			return a.gateway.RunStreamableHTTP(groupCtx, gateway.HTTPOptionsFromConfig(a.config.HTTP))
		default:
			return fmt.Errorf("unsupported transport: %s", transport)
		}
	})
	return group.Wait()
}

// Call dispatches a single tool call outside of any MCP session.
func (a *Application) Call(ctx context.Context, req domain.ToolRequest) (domain.ToolResult, error) {
	return a.dispatcher.Dispatch(ctx, req)
}

// Tools returns the advertised tool definitions.
func (a *Application) Tools() []domain.ToolDefinition {
	return a.catalog.List()
}

func (a *Application) Config() domain.Config {
	return a.config
}

func (a *Application) Health() telemetry.HealthReport {
	return a.health.Report()
}
