package telemetry

import (
	"time"

	"go.uber.org/zap"

	"bolagsverket-mcp/internal/domain"
)

const (
	FieldEvent      = "event"
	FieldTool       = "tool"
	FieldOperation  = "operation"
	FieldStatus     = "status"
	FieldCode       = "code"
	FieldSource     = "source"
	FieldDurationMs = "duration_ms"
	FieldRequestID  = "request_id"
	FieldTraceID    = "trace_id"
	FieldSpanID     = "span_id"
)

const (
	EventToolCall      = "tool_call"
	EventToolFailure   = "tool_failure"
	EventTokenFetch    = "token_fetch"
	EventTokenFailure  = "token_failure"
	EventTokenDiscard  = "token_discard"
	EventRemoteRequest = "remote_request"
	EventRemoteFailure = "remote_failure"
)

func EventField(event string) zap.Field {
	return zap.String(FieldEvent, event)
}

func ToolField(name string) zap.Field {
	return zap.String(FieldTool, name)
}

func OperationField(op string) zap.Field {
	return zap.String(FieldOperation, op)
}

func StatusField(status int) zap.Field {
	return zap.Int(FieldStatus, status)
}

func CodeField(code domain.ErrorCode) zap.Field {
	return zap.String(FieldCode, string(code))
}

func SourceField(source domain.TokenFetchSource) zap.Field {
	return zap.String(FieldSource, string(source))
}

func DurationField(duration time.Duration) zap.Field {
	return zap.Int64(FieldDurationMs, duration.Milliseconds())
}

func RequestIDField(value string) zap.Field {
	return zap.String(FieldRequestID, value)
}

func TraceIDField(value string) zap.Field {
	return zap.String(FieldTraceID, value)
}

func SpanIDField(value string) zap.Field {
	return zap.String(FieldSpanID, value)
}
