package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"bolagsverket-mcp/internal/app"
)

type serveOptions struct {
	transport string
}

func newServeOptions() *serveOptions {
	return &serveOptions{transport: app.TransportStdio}
}

func newServeCmd(opts *cliOptions) *cobra.Command {
	serveOpts := newServeOptions()
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the registry tools over MCP (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts, serveOpts)
		},
	}
	bindServeFlags(cmd.Flags(), serveOpts)
	return cmd
}

func bindServeFlags(flags *pflag.FlagSet, opts *serveOptions) {
	flags.StringVar(&opts.transport, "transport", opts.transport, "MCP transport (stdio or streamable-http)")
	flags.String("http-addr", "", "streamable HTTP listen address")
	flags.String("http-path", "", "streamable HTTP endpoint path")
	flags.String("http-token", "", "streamable HTTP bearer token (required for non-localhost)")
	flags.Bool("http-json-response", false, "use application/json responses instead of SSE")
	flags.String("metrics-addr", "", "listen address for /metrics and /healthz")
	flags.Bool("metrics", false, "serve prometheus metrics")
	flags.Bool("healthz", false, "serve the health endpoint")
	flags.Bool("cache-tokens", true, "reuse access tokens until shortly before they expire")
}

// serveFlagOverrides maps explicitly set flags onto config keys.
func serveFlagOverrides(flags *pflag.FlagSet) map[string]any {
	overrides := make(map[string]any)
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "http-addr":
			overrides["http.addr"], _ = flags.GetString("http-addr")
		case "http-path":
			overrides["http.path"], _ = flags.GetString("http-path")
		case "http-token":
			overrides["http.token"], _ = flags.GetString("http-token")
		case "http-json-response":
			overrides["http.jsonResponse"], _ = flags.GetBool("http-json-response")
		case "metrics-addr":
			overrides["observability.listenAddress"], _ = flags.GetString("metrics-addr")
		case "metrics":
			overrides["observability.metrics"], _ = flags.GetBool("metrics")
		case "healthz":
			overrides["observability.healthz"], _ = flags.GetBool("healthz")
		case "cache-tokens":
			overrides["cacheTokens"], _ = flags.GetBool("cache-tokens")
		}
	})
	return overrides
}

func runServe(cmd *cobra.Command, opts *cliOptions, serveOpts *serveOptions) error {
	switch serveOpts.transport {
	case app.TransportStdio, app.TransportStreamableHTTP:
	default:
		return fmt.Errorf("unsupported transport: %s", serveOpts.transport)
	}

	ctx, cancel := signalAwareContext(cmd.Context())
	defer cancel()

	application, err := initializeApplication(ctx, opts, serveFlagOverrides(cmd.Flags()))
	if err != nil {
		return err
	}
	err = application.Serve(ctx, serveOpts.transport)
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return nil
	}
	return err
}
