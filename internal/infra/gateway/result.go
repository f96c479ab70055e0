package gateway

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"bolagsverket-mcp/internal/domain"
)

func toCallToolResult(result domain.ToolResult) *mcp.CallToolResult {
	switch result.Kind {
	case domain.ContentStructured:
		out := &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(result.JSON)}},
		}
		// structuredContent must be a JSON object.
		if trimmed := bytes.TrimSpace(result.JSON); len(trimmed) > 0 && trimmed[0] == '{' {
			out.StructuredContent = json.RawMessage(trimmed)
		}
		return out
	default:
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: result.Text}},
		}
	}
}

type errorPayload struct {
	Code   domain.ErrorCode `json:"code"`
	Status int              `json:"status,omitempty"`
	Body   string           `json:"body,omitempty"`
}

// errorResult reports a failed call as a tool result so the client sees the
// failure kind instead of a protocol error.
func errorResult(err error) *mcp.CallToolResult {
	code, ok := domain.CodeFrom(err)
	if !ok {
		code = domain.CodeInternal
	}
	payload := errorPayload{Code: code}
	var remoteErr *domain.RemoteAPIError
	if errors.As(err, &remoteErr) {
		payload.Status = remoteErr.Status
		payload.Body = remoteErr.Body
	}
	return &mcp.CallToolResult{
		IsError:           true,
		Content:           []mcp.Content{&mcp.TextContent{Text: err.Error()}},
		StructuredContent: payload,
	}
}
