package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bolagsverket-mcp/internal/domain"
)

type callOptions struct {
	args     []string
	argsJSON string
}

func newCallCmd(opts *cliOptions) *cobra.Command {
	callOpts := &callOptions{}
	cmd := &cobra.Command{
		Use:   "call <tool>",
		Short: "Call one tool directly and print its result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arguments, err := parseToolArguments(callOpts.args, callOpts.argsJSON)
			if err != nil {
				return err
			}

			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()

			application, err := initializeApplication(ctx, opts, nil)
			if err != nil {
				return err
			}
			result, err := application.Call(ctx, domain.ToolRequest{Name: args[0], Arguments: arguments})
			if err != nil {
				return toolCallError(err)
			}
			return writeResult(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringArrayVar(&callOpts.args, "arg", nil, "tool argument as key=value (repeatable)")
	cmd.Flags().StringVar(&callOpts.argsJSON, "args-json", "", "tool arguments as a JSON object")
	return cmd
}

// parseToolArguments merges a JSON object with key=value pairs; pairs win.
func parseToolArguments(pairs []string, raw string) (map[string]any, error) {
	arguments := make(map[string]any)
	if strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &arguments); err != nil {
			return nil, fmt.Errorf("parse --args-json: %w", err)
		}
		if arguments == nil {
			arguments = make(map[string]any)
		}
	}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid --arg %q: expected key=value", pair)
		}
		arguments[strings.TrimSpace(key)] = value
	}
	return arguments, nil
}

func toolCallError(err error) error {
	code, ok := domain.CodeFrom(err)
	if !ok {
		code = domain.CodeInternal
	}
	return exitError{
		code:    exitCodeToolError,
		message: fmt.Sprintf("%s: %v", code, err),
	}
}
