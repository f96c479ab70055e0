package catalog

import (
	"github.com/google/jsonschema-go/jsonschema"

	"bolagsverket-mcp/internal/domain"
)

// Catalog advertises the tools served by the dispatcher.
type Catalog struct{}

func New() *Catalog {
	return &Catalog{}
}

// List returns the tool definitions in a fixed order. Each call builds new
// values so callers may modify what they receive.
func (c *Catalog) List() []domain.ToolDefinition {
	return []domain.ToolDefinition{
		{
			Name:        domain.ToolIsAlive,
			Title:       "Is Alive",
			Description: "Checks if the Bolagsverket API is available.",
			InputSchema: objectSchema(""),
		},
		{
			Name:        domain.ToolGetOrganisation,
			Title:       "Get Organisation",
			Description: "Retrieves data about a company.",
			InputSchema: objectSchema(domain.ArgIdentitetsbeteckning),
		},
		{
			Name:        domain.ToolGetDocumentList,
			Title:       "Get Document List",
			Description: "Retrieves a list of available annual reports for a company.",
			InputSchema: objectSchema(domain.ArgIdentitetsbeteckning),
		},
		{
			Name:        domain.ToolGetDocument,
			Title:       "Get Document",
			Description: "Retrieves an annual report.",
			InputSchema: objectSchema(domain.ArgDocumentID),
		},
	}
}

// Lookup finds a definition by tool name.
func (c *Catalog) Lookup(name string) (domain.ToolDefinition, bool) {
	for _, def := range c.List() {
		if def.Name == name {
			return def, true
		}
	}
	return domain.ToolDefinition{}, false
}

// Names lists tool names in catalog order.
func (c *Catalog) Names() []string {
	defs := c.List()
	names := make([]string, 0, len(defs))
	for _, def := range defs {
		names = append(names, def.Name)
	}
	return names
}

func objectSchema(required string) *jsonschema.Schema {
	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: map[string]*jsonschema.Schema{},
	}
	if required != "" {
		schema.Properties[required] = &jsonschema.Schema{Type: "string"}
		schema.Required = []string{required}
	}
	return schema
}
