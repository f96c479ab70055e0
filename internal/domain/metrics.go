package domain

import "time"

// Outcome labels the result of an observed operation.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"
)

// OutcomeOf maps an error to an outcome label.
func OutcomeOf(err error) Outcome {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}

// TokenFetchSource says where a token handed to a caller came from.
type TokenFetchSource string

const (
	TokenSourceNetwork TokenFetchSource = "network"
	TokenSourceCache   TokenFetchSource = "cache"
)

// ToolCallMetric captures a single dispatch.
type ToolCallMetric struct {
	Tool     string
	Outcome  Outcome
	Code     ErrorCode
	Duration time.Duration
}

// Metrics records operational metrics for the gateway.
type Metrics interface {
	ObserveToolCall(metric ToolCallMetric)
	ObserveTokenFetch(source TokenFetchSource, duration time.Duration, err error)
	ObserveRemoteRequest(operation string, status int, duration time.Duration)
}

// NoopMetrics discards all observations.
type NoopMetrics struct{}

func (NoopMetrics) ObserveToolCall(ToolCallMetric) {}

func (NoopMetrics) ObserveTokenFetch(TokenFetchSource, time.Duration, error) {}

func (NoopMetrics) ObserveRemoteRequest(string, int, time.Duration) {}
