package telemetry

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type toolCallKey struct{}

// RequestMeta identifies one tool call across the log lines it produces.
type RequestMeta struct {
	RequestID string
	TraceID   string
	SpanID    string
	Tool      string
}

func (m RequestMeta) IsZero() bool {
	return m == RequestMeta{}
}

func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	if meta.IsZero() {
		return ctx
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, toolCallKey{}, meta)
}

func RequestMetaFromContext(ctx context.Context) (RequestMeta, bool) {
	if ctx == nil {
		return RequestMeta{}, false
	}
	meta, ok := ctx.Value(toolCallKey{}).(RequestMeta)
	return meta, ok && !meta.IsZero()
}

// StartToolCall tags ctx with metadata for one tool invocation. The gateway
// and the dispatcher both call it; the inner call keeps the outer request id.
func StartToolCall(ctx context.Context, tool string) (context.Context, RequestMeta) {
	meta := RequestMeta{Tool: tool}
	if existing, ok := RequestMetaFromContext(ctx); ok {
		meta.RequestID = existing.RequestID
	}
	if meta.RequestID == "" {
		meta.RequestID = uuid.NewString()
	}
	if ctx != nil {
		if span := trace.SpanContextFromContext(ctx); span.IsValid() {
			meta.TraceID = span.TraceID().String()
			meta.SpanID = span.SpanID().String()
		}
	}
	return WithRequestMeta(ctx, meta), meta
}

func RequestFields(meta RequestMeta) []zap.Field {
	if meta.IsZero() {
		return nil
	}
	fields := make([]zap.Field, 0, 4)
	if meta.RequestID != "" {
		fields = append(fields, RequestIDField(meta.RequestID))
	}
	if meta.TraceID != "" {
		fields = append(fields, TraceIDField(meta.TraceID))
	}
	if meta.SpanID != "" {
		fields = append(fields, SpanIDField(meta.SpanID))
	}
	if meta.Tool != "" {
		fields = append(fields, ToolField(meta.Tool))
	}
	return fields
}

// LoggerWithRequest decorates base with the tool call carried by ctx, if any.
func LoggerWithRequest(ctx context.Context, base *zap.Logger) *zap.Logger {
	if base == nil {
		base = zap.NewNop()
	}
	meta, ok := RequestMetaFromContext(ctx)
	if !ok {
		return base
	}
	return base.With(RequestFields(meta)...)
}
