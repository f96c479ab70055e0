//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"

	"bolagsverket-mcp/internal/app/catalog"
	"bolagsverket-mcp/internal/app/dispatch"
	"bolagsverket-mcp/internal/infra/auth"
	"bolagsverket-mcp/internal/infra/gateway"
	"bolagsverket-mcp/internal/infra/registry"
)

var CoreInfraSet = wire.NewSet(
	NewLogger,
	LoadConfig,
	NewMetricsRegistry,
	NewMetrics,
	NewHealthTracker,
	NewHTTPClient,
)

var RemoteSet = wire.NewSet(
	NewTokenProvider,
	wire.Bind(new(registry.TokenSource), new(*auth.Provider)),
	NewRegistryClient,
	wire.Bind(new(dispatch.Remote), new(*registry.Client)),
)

var ToolSet = wire.NewSet(
	NewCatalog,
	wire.Bind(new(gateway.ToolLister), new(*catalog.Catalog)),
	NewSessionLog,
	NewDispatcher,
	wire.Bind(new(gateway.Dispatcher), new(*dispatch.Dispatcher)),
	NewGateway,
)

var AppSet = wire.NewSet(
	CoreInfraSet,
	RemoteSet,
	ToolSet,
	wire.Struct(new(ApplicationOptions), "*"),
	NewApplication,
)
