package gateway

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"bolagsverket-mcp/internal/domain"
)

type toolRegistry struct {
	server     *mcp.Server
	handler    func(name string) mcp.ToolHandler
	logger     *zap.Logger
	mu         sync.Mutex
	registered []string
}

func newToolRegistry(server *mcp.Server, handler func(name string) mcp.ToolHandler, logger *zap.Logger) *toolRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &toolRegistry{
		server:  server,
		handler: handler,
		logger:  logger.Named("tool_registry"),
	}
}

// Register replaces the served tool set with defs. Definitions without a name
// or with a non-object input schema are skipped.
func (r *toolRegistry) Register(defs []domain.ToolDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make([]string, 0, len(defs))
	keep := make(map[string]struct{}, len(defs))
	for _, def := range defs {
		if def.Name == "" {
			continue
		}
		if !isObjectSchema(def.InputSchema) {
			r.logger.Warn("skip tool with invalid input schema", zap.String("tool", def.Name))
			continue
		}
		tool := toMCPTool(def)
		r.server.AddTool(tool, r.handler(def.Name))
		next = append(next, def.Name)
		keep[def.Name] = struct{}{}
	}

	var remove []string
	for _, name := range r.registered {
		if _, ok := keep[name]; !ok {
			remove = append(remove, name)
		}
	}
	if len(remove) > 0 {
		r.server.RemoveTools(remove...)
	}
	r.registered = next
	r.logger.Debug("tools registered", zap.Strings("tools", next))
}

func (r *toolRegistry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.registered...)
}

func toMCPTool(def domain.ToolDefinition) *mcp.Tool {
	return &mcp.Tool{
		Name:        def.Name,
		Title:       def.Title,
		Description: def.Description,
		InputSchema: def.InputSchema,
		Annotations: &mcp.ToolAnnotations{
			Title:          def.Title,
			ReadOnlyHint:   true,
			IdempotentHint: true,
		},
	}
}

func isObjectSchema(schema any) bool {
	if schema == nil {
		return false
	}

	raw, err := json.Marshal(schema)
	if err != nil {
		return false
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return false
	}
	if typ, ok := obj["type"]; ok {
		if val, ok := typ.(string); ok {
			return strings.EqualFold(val, "object")
		}
	}
	return false
}
