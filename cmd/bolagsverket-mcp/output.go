package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/jsonschema-go/jsonschema"

	"bolagsverket-mcp/internal/domain"
)

type toolJSON struct {
	Name        string             `json:"name"`
	Title       string             `json:"title,omitempty"`
	Description string             `json:"description,omitempty"`
	InputSchema *jsonschema.Schema `json:"inputSchema"`
}

func writeJSON(w io.Writer, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func writeTools(w io.Writer, defs []domain.ToolDefinition) error {
	tools := make([]toolJSON, 0, len(defs))
	for _, def := range defs {
		tools = append(tools, toolJSON{
			Name:        def.Name,
			Title:       def.Title,
			Description: def.Description,
			InputSchema: def.InputSchema,
		})
	}
	return writeJSON(w, map[string]any{"tools": tools})
}

// writeResult prints text results verbatim and structured results as
// indented JSON.
func writeResult(w io.Writer, result domain.ToolResult) error {
	switch result.Kind {
	case domain.ContentStructured:
		return writeJSON(w, result.JSON)
	default:
		_, err := fmt.Fprintln(w, result.Text)
		return err
	}
}
