package gateway

import (
	"context"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bolagsverket-mcp/internal/domain"
)

func TestToolRegistry_RegisterReplacesTools(t *testing.T) {
	ctx := context.Background()
	server := mcp.NewServer(&mcp.Implementation{Name: "gateway", Version: "0.1.0"}, &mcp.ServerOptions{HasTools: true})

	registry := newToolRegistry(server, func(name string) mcp.ToolHandler {
		return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: name}},
			}, nil
		}
	}, zap.NewNop())

	registry.Register([]domain.ToolDefinition{
		{Name: "echo", Description: "echo input", InputSchema: &jsonschema.Schema{Type: "object"}},
		{Name: "broken", InputSchema: &jsonschema.Schema{Type: "string"}},
		{Name: "", InputSchema: &jsonschema.Schema{Type: "object"}},
	})
	require.Equal(t, []string{"echo"}, registry.Names())

	_, session := connectClient(t, ctx, server)
	defer session.Close()

	res, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	require.NoError(t, err)
	require.Len(t, res.Tools, 1)
	require.Equal(t, "echo", res.Tools[0].Name)

	registry.Register(nil)

	res, err = session.ListTools(ctx, &mcp.ListToolsParams{})
	require.NoError(t, err)
	require.Len(t, res.Tools, 0)
}

func TestIsObjectSchema(t *testing.T) {
	require.True(t, isObjectSchema(&jsonschema.Schema{Type: "object"}))
	require.True(t, isObjectSchema(map[string]any{"type": "Object"}))
	require.False(t, isObjectSchema(nil))
	require.False(t, isObjectSchema(&jsonschema.Schema{Type: "array"}))
}

func connectClient(t *testing.T, ctx context.Context, server *mcp.Server) (*mcp.Client, *mcp.ClientSession) {
	t.Helper()
	return connectClientWithOptions(t, ctx, server, nil)
}

func connectClientWithOptions(t *testing.T, ctx context.Context, server *mcp.Server, opts *mcp.ClientOptions) (*mcp.Client, *mcp.ClientSession) {
	t.Helper()
	ct, st := mcp.NewInMemoryTransports()
	_, err := server.Connect(ctx, st, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "0.1.0"}, opts)
	session, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)
	return client, session
}
