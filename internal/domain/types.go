package domain

import (
	"encoding/json"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
)

// Tool names exposed over the control channel.
const (
	ToolIsAlive         = "is_alive"
	ToolGetOrganisation = "get_organisation"
	ToolGetDocumentList = "get_document_list"
	ToolGetDocument     = "get_document"
)

// Argument names accepted by the tools.
const (
	ArgIdentitetsbeteckning = "identitetsbeteckning"
	ArgDocumentID           = "document_id"
)

// Credentials identify this service to the authorization endpoint.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// AccessToken is a bearer token. A zero ExpiresAt means the expiry is unknown
// and the token must not be reused.
type AccessToken struct {
	Value      string
	ObtainedAt time.Time
	ExpiresAt  time.Time
}

// ValidAt reports whether the token can still be presented at now, keeping
// renewBefore of headroom before expiry.
func (t AccessToken) ValidAt(now time.Time, renewBefore time.Duration) bool {
	if t.Value == "" || t.ExpiresAt.IsZero() {
		return false
	}
	return t.ExpiresAt.After(now.Add(renewBefore))
}

type ToolRequest struct {
	Name      string
	Arguments map[string]any
}

type ContentKind string

const (
	ContentText       ContentKind = "text"
	ContentStructured ContentKind = "json"
)

// ToolResult holds exactly one content item: Text for ContentText, JSON for
// ContentStructured.
type ToolResult struct {
	Kind ContentKind
	Text string
	JSON json.RawMessage
}

func TextResult(text string) ToolResult {
	return ToolResult{Kind: ContentText, Text: text}
}

func StructuredResult(raw json.RawMessage) ToolResult {
	return ToolResult{Kind: ContentStructured, JSON: raw}
}

type ToolDefinition struct {
	Name        string
	Title       string
	Description string
	InputSchema *jsonschema.Schema
}
