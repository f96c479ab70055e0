package gateway

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"bolagsverket-mcp/internal/domain"
	"bolagsverket-mcp/internal/infra/telemetry"
)

// Dispatcher executes one tool call.
type Dispatcher interface {
	Dispatch(ctx context.Context, req domain.ToolRequest) (domain.ToolResult, error)
}

// ToolLister provides the advertised tool definitions.
type ToolLister interface {
	List() []domain.ToolDefinition
}

type Options struct {
	Name       string
	Version    string
	Dispatcher Dispatcher
	Tools      ToolLister
	// SessionLog publishes log entries to MCP clients. The gateway attaches
	// its server to it; a private one is created when nil.
	SessionLog *SessionLog
	Logger     *zap.Logger
}

// Gateway serves the tool catalog over MCP and forwards calls to the
// dispatcher.
type Gateway struct {
	dispatcher Dispatcher
	logger     *zap.Logger
	server     *mcp.Server
	registry   *toolRegistry
}

func NewGateway(opts Options) *Gateway {
	base := opts.Logger
	if base == nil {
		base = zap.NewNop()
	}
	name := opts.Name
	if name == "" {
		name = domain.ServerName
	}
	version := opts.Version
	if version == "" {
		version = domain.ServerVersion
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    name,
		Version: version,
	}, &mcp.ServerOptions{
		HasTools: true,
	})

	g := &Gateway{
		dispatcher: opts.Dispatcher,
		server:     server,
	}
	sessions := opts.SessionLog
	if sessions == nil {
		sessions = NewSessionLog(zapcore.InfoLevel)
	}
	sessions.attach(server)
	g.logger = WithSessionLog(base, sessions).Named("gateway")
	g.registry = newToolRegistry(server, g.toolHandler, g.logger)
	if opts.Tools != nil {
		g.registry.Register(opts.Tools.List())
	}
	return g
}

// Server exposes the underlying MCP server.
func (g *Gateway) Server() *mcp.Server {
	return g.server
}

// Run serves MCP over stdin/stdout until ctx is done or the client
// disconnects.
func (g *Gateway) Run(ctx context.Context) error {
	g.logger.Info("gateway starting (stdio transport)", zap.Strings("tools", g.registry.Names()))
	err := g.server.Run(ctx, &mcp.StdioTransport{})
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return nil
	}
	return err
}

func (g *Gateway) toolHandler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, _ = telemetry.StartToolCall(ctx, name)

		args, err := decodeArguments(req)
		if err != nil {
			return errorResult(&domain.InvalidArgumentError{Tool: name, Field: "arguments", Reason: err.Error()}), nil
		}
		if g.dispatcher == nil {
			return errorResult(domain.E(domain.CodeFailedPrecond, name, "dispatcher not configured", nil)), nil
		}

		// The dispatcher logs the outcome.
		result, err := g.dispatcher.Dispatch(ctx, domain.ToolRequest{Name: name, Arguments: args})
		if err != nil {
			return errorResult(err), nil
		}
		return toCallToolResult(result), nil
	}
}

func decodeArguments(req *mcp.CallToolRequest) (map[string]any, error) {
	if req == nil || req.Params == nil || len(req.Params.Arguments) == 0 {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return nil, errors.New("arguments must be a JSON object")
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}
