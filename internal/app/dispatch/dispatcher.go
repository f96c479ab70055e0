package dispatch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"bolagsverket-mcp/internal/domain"
	"bolagsverket-mcp/internal/infra/telemetry"
)

// Remote is the set of registry operations a tool can reach.
type Remote interface {
	CheckLiveness(ctx context.Context) (domain.ToolResult, error)
	GetOrganisation(ctx context.Context, identitetsbeteckning string) (domain.ToolResult, error)
	GetDocumentList(ctx context.Context, identitetsbeteckning string) (domain.ToolResult, error)
	GetDocument(ctx context.Context, documentID string) (domain.ToolResult, error)
}

type route struct {
	arg  string
	call func(ctx context.Context, remote Remote, arg string) (domain.ToolResult, error)
}

var routes = map[string]route{
	domain.ToolIsAlive: {
		call: func(ctx context.Context, remote Remote, _ string) (domain.ToolResult, error) {
			return remote.CheckLiveness(ctx)
		},
	},
	domain.ToolGetOrganisation: {
		arg: domain.ArgIdentitetsbeteckning,
		call: func(ctx context.Context, remote Remote, arg string) (domain.ToolResult, error) {
			return remote.GetOrganisation(ctx, arg)
		},
	},
	domain.ToolGetDocumentList: {
		arg: domain.ArgIdentitetsbeteckning,
		call: func(ctx context.Context, remote Remote, arg string) (domain.ToolResult, error) {
			return remote.GetDocumentList(ctx, arg)
		},
	},
	domain.ToolGetDocument: {
		arg: domain.ArgDocumentID,
		call: func(ctx context.Context, remote Remote, arg string) (domain.ToolResult, error) {
			return remote.GetDocument(ctx, arg)
		},
	},
}

// Dispatcher routes tool calls to registry operations.
type Dispatcher struct {
	remote  Remote
	metrics domain.Metrics
	logger  *zap.Logger
}

func NewDispatcher(remote Remote, metrics domain.Metrics, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = domain.NoopMetrics{}
	}
	return &Dispatcher{
		remote:  remote,
		metrics: metrics,
		logger:  logger.Named("dispatch"),
	}
}

// Dispatch validates the request and performs the matching registry call.
// Validation failures never reach the network.
func (d *Dispatcher) Dispatch(ctx context.Context, req domain.ToolRequest) (domain.ToolResult, error) {
	ctx, meta := telemetry.StartToolCall(ctx, req.Name)
	logger := d.logger.With(telemetry.RequestFields(meta)...)

	start := time.Now()
	result, err := d.dispatch(ctx, req)
	duration := time.Since(start)

	metric := domain.ToolCallMetric{
		Tool:     metricToolLabel(req.Name),
		Outcome:  domain.OutcomeOf(err),
		Duration: duration,
	}
	if err != nil {
		code, ok := domain.CodeFrom(err)
		if !ok {
			code = domain.CodeInternal
		}
		metric.Code = code
		logger.Warn("tool call failed",
			telemetry.EventField(telemetry.EventToolFailure),
			telemetry.CodeField(code),
			telemetry.DurationField(duration),
			zap.Error(err),
		)
	} else {
		logger.Info("tool call completed",
			telemetry.EventField(telemetry.EventToolCall),
			telemetry.DurationField(duration),
		)
	}
	d.metrics.ObserveToolCall(metric)
	return result, err
}

func (d *Dispatcher) dispatch(ctx context.Context, req domain.ToolRequest) (domain.ToolResult, error) {
	r, ok := routes[req.Name]
	if !ok {
		return domain.ToolResult{}, &domain.UnknownToolError{Name: req.Name}
	}
	var arg string
	if r.arg != "" {
		value, err := stringArgument(req.Name, r.arg, req.Arguments)
		if err != nil {
			return domain.ToolResult{}, err
		}
		arg = value
	}
	if d.remote == nil {
		return domain.ToolResult{}, domain.E(domain.CodeFailedPrecond, req.Name, "registry client not configured", nil)
	}
	return r.call(ctx, d.remote, arg)
}

func stringArgument(tool, field string, args map[string]any) (string, error) {
	raw, ok := args[field]
	if !ok || raw == nil {
		return "", &domain.MissingArgumentError{Tool: tool, Field: field}
	}
	value, ok := raw.(string)
	if !ok {
		return "", &domain.InvalidArgumentError{Tool: tool, Field: field, Reason: fmt.Sprintf("expected string, got %T", raw)}
	}
	return value, nil
}

// metricToolLabel keeps label cardinality bounded for unknown names.
func metricToolLabel(name string) string {
	if _, ok := routes[name]; ok {
		return name
	}
	return "unknown"
}
