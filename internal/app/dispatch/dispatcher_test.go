package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"bolagsverket-mcp/internal/domain"
	"bolagsverket-mcp/internal/infra/auth"
	"bolagsverket-mcp/internal/infra/registry"
)

type fakeRemote struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeRemote) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeRemote) CheckLiveness(context.Context) (domain.ToolResult, error) {
	f.record("isalive")
	if f.err != nil {
		return domain.ToolResult{}, f.err
	}
	return domain.TextResult("OK"), nil
}

func (f *fakeRemote) GetOrganisation(_ context.Context, id string) (domain.ToolResult, error) {
	f.record("organisationer:" + id)
	return domain.StructuredResult(json.RawMessage(`{"id":"` + id + `"}`)), f.err
}

func (f *fakeRemote) GetDocumentList(_ context.Context, id string) (domain.ToolResult, error) {
	f.record("dokumentlista:" + id)
	return domain.StructuredResult(json.RawMessage(`[]`)), f.err
}

func (f *fakeRemote) GetDocument(_ context.Context, id string) (domain.ToolResult, error) {
	f.record("dokument:" + id)
	return domain.TextResult("doc"), f.err
}

func TestDispatcher_Routes(t *testing.T) {
	cases := []struct {
		name string
		args map[string]any
		call string
	}{
		{domain.ToolIsAlive, nil, "isalive"},
		{domain.ToolGetOrganisation, map[string]any{"identitetsbeteckning": "5560000001"}, "organisationer:5560000001"},
		{domain.ToolGetDocumentList, map[string]any{"identitetsbeteckning": "5560000001"}, "dokumentlista:5560000001"},
		{domain.ToolGetDocument, map[string]any{"document_id": "doc-1"}, "dokument:doc-1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			remote := &fakeRemote{}
			d := NewDispatcher(remote, nil, zap.NewNop())
			_, err := d.Dispatch(context.Background(), domain.ToolRequest{Name: tc.name, Arguments: tc.args})
			require.NoError(t, err)
			assert.Equal(t, []string{tc.call}, remote.calls)
		})
	}
}

func TestDispatcher_PassesArgumentsUntouched(t *testing.T) {
	remote := &fakeRemote{}
	d := NewDispatcher(remote, nil, nil)

	_, err := d.Dispatch(context.Background(), domain.ToolRequest{
		Name:      domain.ToolGetOrganisation,
		Arguments: map[string]any{"identitetsbeteckning": " 556000-0001 ", "extra": 1},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"organisationer: 556000-0001 "}, remote.calls)
}

func TestDispatcher_UnknownTool(t *testing.T) {
	remote := &fakeRemote{}
	d := NewDispatcher(remote, nil, nil)

	_, err := d.Dispatch(context.Background(), domain.ToolRequest{Name: "unknown_tool", Arguments: map[string]any{}})
	var unknown *domain.UnknownToolError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "unknown_tool", unknown.Name)
	assert.Empty(t, remote.calls)
}

func TestDispatcher_MissingArgument(t *testing.T) {
	for _, tc := range []struct {
		tool  string
		field string
		args  map[string]any
	}{
		{domain.ToolGetOrganisation, domain.ArgIdentitetsbeteckning, map[string]any{}},
		{domain.ToolGetDocumentList, domain.ArgIdentitetsbeteckning, nil},
		{domain.ToolGetDocument, domain.ArgDocumentID, map[string]any{"document_id": nil}},
	} {
		remote := &fakeRemote{}
		d := NewDispatcher(remote, nil, nil)
		_, err := d.Dispatch(context.Background(), domain.ToolRequest{Name: tc.tool, Arguments: tc.args})
		var missing *domain.MissingArgumentError
		require.ErrorAs(t, err, &missing, tc.tool)
		assert.Equal(t, tc.field, missing.Field)
		assert.Equal(t, tc.tool, missing.Tool)
		assert.Empty(t, remote.calls)
	}
}

func TestDispatcher_InvalidArgument(t *testing.T) {
	for _, value := range []any{42, true, []string{"x"}, map[string]any{"id": "x"}} {
		remote := &fakeRemote{}
		d := NewDispatcher(remote, nil, nil)
		_, err := d.Dispatch(context.Background(), domain.ToolRequest{
			Name:      domain.ToolGetDocument,
			Arguments: map[string]any{"document_id": value},
		})
		var invalid *domain.InvalidArgumentError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, domain.ArgDocumentID, invalid.Field)
		assert.Empty(t, remote.calls)
	}
}

type staticTokens struct{}

func (staticTokens) Token(context.Context) (domain.AccessToken, error) {
	return domain.AccessToken{Value: "tok", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (staticTokens) Invalidate(string) {}

func TestDispatcher_BlankArgumentReachesRegistry(t *testing.T) {
	var body atomic.Value
	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		body.Store(payload)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"allowed_ids":["5560000001"]}`))
	}))
	defer apiSrv.Close()

	client := registry.NewClient(registry.Options{BaseURL: apiSrv.URL, Tokens: staticTokens{}})
	d := NewDispatcher(client, nil, nil)

	_, err := d.Dispatch(context.Background(), domain.ToolRequest{
		Name:      domain.ToolGetOrganisation,
		Arguments: map[string]any{"identitetsbeteckning": ""},
	})
	var remoteErr *domain.RemoteAPIError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusBadRequest, remoteErr.Status)
	assert.Equal(t, `{"allowed_ids":["5560000001"]}`, remoteErr.Body)
	assert.Equal(t, map[string]any{"identitetsbeteckning": ""}, body.Load())
}

func TestDispatcher_PropagatesRemoteError(t *testing.T) {
	remoteErr := &domain.RemoteAPIError{Op: "isalive", Status: http.StatusServiceUnavailable, Body: "down"}
	d := NewDispatcher(&fakeRemote{err: remoteErr}, nil, nil)

	_, err := d.Dispatch(context.Background(), domain.ToolRequest{Name: domain.ToolIsAlive})
	assert.True(t, errors.Is(err, remoteErr))
}

type toolRecorder struct {
	domain.NoopMetrics
	mu      sync.Mutex
	metrics []domain.ToolCallMetric
}

func (r *toolRecorder) ObserveToolCall(metric domain.ToolCallMetric) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics = append(r.metrics, metric)
}

func TestDispatcher_RecordsMetricsAndLogs(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	metrics := &toolRecorder{}
	d := NewDispatcher(&fakeRemote{}, metrics, zap.New(core))

	_, err := d.Dispatch(context.Background(), domain.ToolRequest{Name: domain.ToolIsAlive})
	require.NoError(t, err)
	_, err = d.Dispatch(context.Background(), domain.ToolRequest{Name: "nope"})
	require.Error(t, err)

	require.Len(t, metrics.metrics, 2)
	assert.Equal(t, domain.ToolIsAlive, metrics.metrics[0].Tool)
	assert.Equal(t, domain.OutcomeSuccess, metrics.metrics[0].Outcome)
	assert.Equal(t, "unknown", metrics.metrics[1].Tool)
	assert.Equal(t, domain.OutcomeError, metrics.metrics[1].Outcome)
	assert.Equal(t, domain.CodeNotFound, metrics.metrics[1].Code)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "tool call completed", entries[0].Message)
	assert.NotEmpty(t, entries[0].ContextMap()["request_id"])
	assert.Equal(t, "tool call failed", entries[1].Message)
	assert.Equal(t, "NOT_FOUND", entries[1].ContextMap()["code"])
}

// TestDispatcher_TokenThenResourcePerCall drives the real token provider and
// registry client against fake endpoints with caching off.
func TestDispatcher_TokenThenResourcePerCall(t *testing.T) {
	var (
		mu    sync.Mutex
		order []string
		seq   atomic.Int32
	)
	mark := func(event string) {
		mu.Lock()
		order = append(order, event)
		mu.Unlock()
	}

	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mark("token")
		n := seq.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-" + string(rune('0'+n)),
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	defer tokenSrv.Close()

	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mark(r.Method + " " + r.URL.Path)
		if r.Method == http.MethodPost {
			_, _ = w.Write([]byte(`{"ok":true}`))
			return
		}
		_, _ = w.Write([]byte("OK"))
	}))
	defer apiSrv.Close()

	provider := auth.NewProvider(auth.Options{
		Credentials: domain.Credentials{ClientID: "id", ClientSecret: "secret"},
		TokenURL:    tokenSrv.URL,
		Timeout:     5 * time.Second,
	})
	client := registry.NewClient(registry.Options{
		BaseURL: apiSrv.URL,
		Tokens:  provider,
	})
	d := NewDispatcher(client, nil, nil)

	requests := []domain.ToolRequest{
		{Name: domain.ToolIsAlive},
		{Name: domain.ToolGetOrganisation, Arguments: map[string]any{"identitetsbeteckning": "1"}},
		{Name: domain.ToolGetDocumentList, Arguments: map[string]any{"identitetsbeteckning": "1"}},
		{Name: domain.ToolGetDocument, Arguments: map[string]any{"document_id": "d1"}},
	}
	for _, req := range requests {
		_, err := d.Dispatch(context.Background(), req)
		require.NoError(t, err, req.Name)
	}

	assert.Equal(t, []string{
		"token", "GET /isalive",
		"token", "POST /organisationer",
		"token", "POST /dokumentlista",
		"token", "GET /dokument/d1",
	}, order)

	_, err := d.Dispatch(context.Background(), domain.ToolRequest{Name: domain.ToolGetOrganisation})
	require.Error(t, err)
	assert.Len(t, order, 8)
}
