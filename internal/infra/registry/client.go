package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"bolagsverket-mcp/internal/domain"
	"bolagsverket-mcp/internal/infra/telemetry"
)

// Operation names used in errors, logs and metrics.
const (
	OpIsAlive         = "isalive"
	OpOrganisation    = "organisationer"
	OpDocumentList    = "dokumentlista"
	OpDocument        = "dokument"
	acceptJSON        = "application/json"
	acceptAny         = "*/*"
	contentTypeHeader = "Content-Type"
)

// TokenSource hands out bearer tokens for registry calls.
type TokenSource interface {
	Token(ctx context.Context) (domain.AccessToken, error)
	Invalidate(value string)
}

type Options struct {
	BaseURL          string
	Tokens           TokenSource
	HTTPClient       *http.Client
	RequestTimeout   time.Duration
	MaxResponseBytes int64
	Metrics          domain.Metrics
	Health           *telemetry.HealthTracker
	Logger           *zap.Logger
}

// Client calls the registry API. Each operation obtains one token and issues
// one resource request.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	timeout    time.Duration
	maxBytes   int64
	metrics    domain.Metrics
	health     *telemetry.HealthTracker
	logger     *zap.Logger
}

func NewClient(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = domain.NoopMetrics{}
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = time.Duration(domain.DefaultRequestTimeoutSeconds) * time.Second
	}
	maxBytes := opts.MaxResponseBytes
	if maxBytes <= 0 {
		maxBytes = domain.DefaultMaxResponseBytes
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		tokens:     opts.Tokens,
		httpClient: httpClient,
		timeout:    timeout,
		maxBytes:   maxBytes,
		metrics:    metrics,
		health:     opts.Health,
		logger:     logger.Named("registry"),
	}
}

// CheckLiveness returns the liveness endpoint body as text.
func (c *Client) CheckLiveness(ctx context.Context) (domain.ToolResult, error) {
	body, err := c.do(ctx, OpIsAlive, http.MethodGet, "/isalive", nil)
	if err != nil {
		return domain.ToolResult{}, err
	}
	return domain.TextResult(string(body)), nil
}

// GetOrganisation looks up a company by identity number.
func (c *Client) GetOrganisation(ctx context.Context, identitetsbeteckning string) (domain.ToolResult, error) {
	return c.postIdentity(ctx, OpOrganisation, "/organisationer", identitetsbeteckning)
}

// GetDocumentList lists the annual reports available for a company.
func (c *Client) GetDocumentList(ctx context.Context, identitetsbeteckning string) (domain.ToolResult, error) {
	return c.postIdentity(ctx, OpDocumentList, "/dokumentlista", identitetsbeteckning)
}

// GetDocument fetches one annual report. The body is returned as text.
func (c *Client) GetDocument(ctx context.Context, documentID string) (domain.ToolResult, error) {
	body, err := c.do(ctx, OpDocument, http.MethodGet, "/dokument/"+url.PathEscape(documentID), nil)
	if err != nil {
		return domain.ToolResult{}, err
	}
	return domain.TextResult(string(body)), nil
}

type identityRequest struct {
	Identitetsbeteckning string `json:"identitetsbeteckning"`
}

func (c *Client) postIdentity(ctx context.Context, op, path, identitetsbeteckning string) (domain.ToolResult, error) {
	payload, err := json.Marshal(identityRequest{Identitetsbeteckning: identitetsbeteckning})
	if err != nil {
		return domain.ToolResult{}, domain.E(domain.CodeInternal, op, "encode request", err)
	}
	body, err := c.do(ctx, op, http.MethodPost, path, payload)
	if err != nil {
		return domain.ToolResult{}, err
	}
	if !json.Valid(body) {
		return domain.ToolResult{}, domain.E(domain.CodeInternal, op, "response is not valid JSON", nil)
	}
	return domain.StructuredResult(json.RawMessage(body)), nil
}

func (c *Client) do(ctx context.Context, op, method, path string, payload []byte) ([]byte, error) {
	if c.tokens == nil {
		return nil, domain.E(domain.CodeFailedPrecond, op, "token source not configured", nil)
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(reqCtx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, domain.E(domain.CodeInternal, op, "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.Value)
	if payload != nil {
		req.Header.Set(contentTypeHeader, acceptJSON)
		req.Header.Set("Accept", acceptJSON)
	} else {
		req.Header.Set("Accept", acceptAny)
	}

	logger := telemetry.LoggerWithRequest(ctx, c.logger).With(telemetry.OperationField(op))
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		duration := time.Since(start)
		c.metrics.ObserveRemoteRequest(op, 0, duration)
		wrapped := transportError(op, err)
		c.health.Mark(telemetry.ComponentRegistry, wrapped)
		logger.Warn("registry request failed",
			telemetry.EventField(telemetry.EventRemoteFailure),
			telemetry.DurationField(duration),
			zap.Error(err),
		)
		return nil, wrapped
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	duration := time.Since(start)
	c.metrics.ObserveRemoteRequest(op, resp.StatusCode, duration)
	if readErr != nil {
		wrapped := transportError(op, readErr)
		c.health.Mark(telemetry.ComponentRegistry, wrapped)
		return nil, wrapped
	}
	if int64(len(body)) > c.maxBytes {
		return nil, domain.E(domain.CodeInternal, op, fmt.Sprintf("response exceeds %d bytes", c.maxBytes), nil)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusUnauthorized {
			c.tokens.Invalidate(token.Value)
		}
		remoteErr := &domain.RemoteAPIError{Op: op, Status: resp.StatusCode, Body: string(body)}
		if resp.StatusCode >= 500 {
			c.health.Mark(telemetry.ComponentRegistry, remoteErr)
		} else {
			c.health.Mark(telemetry.ComponentRegistry, nil)
		}
		logger.Info("registry returned error status",
			telemetry.EventField(telemetry.EventRemoteFailure),
			telemetry.StatusField(resp.StatusCode),
			telemetry.DurationField(duration),
		)
		return nil, remoteErr
	}

	c.health.Mark(telemetry.ComponentRegistry, nil)
	logger.Debug("registry request completed",
		telemetry.EventField(telemetry.EventRemoteRequest),
		telemetry.StatusField(resp.StatusCode),
		telemetry.DurationField(duration),
	)
	return body, nil
}

// transportError classifies a failed exchange. Errors that already carry a
// code keep it.
func transportError(op string, err error) error {
	code := domain.CodeUnavailable
	switch {
	case errors.Is(err, context.Canceled):
		code = domain.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		code = domain.CodeDeadlineExceeded
	}
	return domain.Wrap(code, op, err)
}
