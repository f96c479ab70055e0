package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bolagsverket-mcp/internal/domain"
)

type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (b bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+b.token)
	return b.base.RoundTrip(clone)
}

func TestHTTPHandler_RequiresBearerToken(t *testing.T) {
	gw := newTestGateway(&stubDispatcher{})
	srv := httptest.NewServer(gw.HTTPHandler(HTTPOptions{Path: "/mcp", Token: "secret", JSONResponse: true}))
	t.Cleanup(srv.Close)

	body := `{"jsonrpc":"2.0","id":1,"method":"ping","params":{}}`
	resp, err := http.Post(srv.URL+"/mcp", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("WWW-Authenticate"))

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/mcp", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer wrong")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHTTPHandler_SessionWithToken(t *testing.T) {
	ctx := context.Background()
	gw := newTestGateway(&stubDispatcher{result: domain.TextResult("OK")})
	srv := httptest.NewServer(gw.HTTPHandler(HTTPOptions{Path: "/mcp", Token: "secret", JSONResponse: true}))
	t.Cleanup(srv.Close)

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "0.1.0"}, nil)
	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{
		Endpoint:   srv.URL + "/mcp",
		HTTPClient: &http.Client{Transport: bearerTransport{token: "secret", base: http.DefaultTransport}},
	}, nil)
	require.NoError(t, err)
	defer session.Close()

	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: domain.ToolIsAlive})
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Equal(t, "OK", res.Content[0].(*mcp.TextContent).Text)
}

func TestHTTPHandler_UnknownPath(t *testing.T) {
	gw := newTestGateway(&stubDispatcher{})
	srv := httptest.NewServer(gw.HTTPHandler(HTTPOptions{Path: "/mcp"}))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/other")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestValidateHTTPOptions(t *testing.T) {
	require.NoError(t, ValidateHTTPOptions(HTTPOptions{Addr: "127.0.0.1:8090", Path: "/mcp"}))
	require.NoError(t, ValidateHTTPOptions(HTTPOptions{Addr: "localhost:8090"}))
	require.NoError(t, ValidateHTTPOptions(HTTPOptions{Addr: "0.0.0.0:8090", Token: "t"}))

	require.Error(t, ValidateHTTPOptions(HTTPOptions{}))
	require.Error(t, ValidateHTTPOptions(HTTPOptions{Addr: "0.0.0.0:8090"}))
	require.Error(t, ValidateHTTPOptions(HTTPOptions{Addr: ":8090"}))
	require.Error(t, ValidateHTTPOptions(HTTPOptions{Addr: "127.0.0.1:8090", Path: "mcp"}))
}

func TestRunStreamableHTTP_StopsOnCancel(t *testing.T) {
	gw := newTestGateway(&stubDispatcher{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- gw.RunStreamableHTTP(ctx, HTTPOptions{Addr: "127.0.0.1:0", Path: "/mcp"})
	}()
	cancel()
	require.NoError(t, <-done)
}
