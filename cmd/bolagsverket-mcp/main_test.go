package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bolagsverket-mcp/internal/app/catalog"
	"bolagsverket-mcp/internal/domain"
)

func TestParseToolArguments(t *testing.T) {
	args, err := parseToolArguments([]string{"identitetsbeteckning=5560000001", "note=a=b"}, `{"document_id":"d1","identitetsbeteckning":"x"}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"identitetsbeteckning": "5560000001",
		"note":                 "a=b",
		"document_id":          "d1",
	}, args)

	_, err = parseToolArguments([]string{"novalue"}, "")
	require.Error(t, err)

	_, err = parseToolArguments(nil, "[1,2]")
	require.Error(t, err)

	args, err = parseToolArguments(nil, "")
	require.NoError(t, err)
	assert.Empty(t, args)
}

func TestServeFlagOverrides_OnlyExplicitFlags(t *testing.T) {
	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	bindServeFlags(flags, newServeOptions())
	require.NoError(t, flags.Parse([]string{"--http-addr", "0.0.0.0:9000", "--metrics", "--cache-tokens=false"}))

	assert.Equal(t, map[string]any{
		"http.addr":             "0.0.0.0:9000",
		"observability.metrics": true,
		"cacheTokens":           false,
	}, serveFlagOverrides(flags))
}

func TestWriteTools(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeTools(&buf, catalog.New().List()))

	var decoded struct {
		Tools []struct {
			Name        string         `json:"name"`
			InputSchema map[string]any `json:"inputSchema"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Tools, 4)
	assert.Equal(t, domain.ToolIsAlive, decoded.Tools[0].Name)
	assert.Equal(t, "object", decoded.Tools[3].InputSchema["type"])
}

func TestWriteResult(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, domain.TextResult("OK")))
	assert.Equal(t, "OK\n", buf.String())

	buf.Reset()
	require.NoError(t, writeResult(&buf, domain.StructuredResult(json.RawMessage(`{"a":1}`))))
	assert.JSONEq(t, `{"a":1}`, buf.String())
}

func TestReportErrorExitCodes(t *testing.T) {
	assert.Equal(t, exitCodeConfig, reportError(&domain.ConfigurationError{Missing: []string{domain.EnvClientID}}))
	assert.Equal(t, exitCodeToolError, reportError(toolCallError(&domain.UnknownToolError{Name: "x"})))
	assert.Equal(t, 1, reportError(errors.New("boom")))
}

func TestToolCallErrorIncludesCode(t *testing.T) {
	err := toolCallError(&domain.RemoteAPIError{Op: "dokument", Status: 404, Body: "missing"})
	assert.Contains(t, err.Error(), "NOT_FOUND")
	assert.Contains(t, err.Error(), "missing")
}

func TestBuildLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := buildLogger("verbose")
	require.Error(t, err)

	logger, err := buildLogger("debug")
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestRootCommandHasSubcommands(t *testing.T) {
	root := newRootCommand()
	names := make([]string, 0)
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	assert.Subset(t, names, []string{"serve", "tools", "call"})
}
