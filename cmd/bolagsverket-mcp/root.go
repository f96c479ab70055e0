package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"bolagsverket-mcp/internal/app"
)

type cliOptions struct {
	configPath string
	envFile    string
	logLevel   string
	logger     *zap.Logger
}

func newRootCommand() *cobra.Command {
	opts := cliOptions{
		logLevel: "info",
		logger:   zap.NewNop(),
	}
	serveOpts := newServeOptions()

	root := &cobra.Command{
		Use:           "bolagsverket-mcp",
		Short:         "MCP server for the Bolagsverket company registry API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			applyRootFlagBindings(cmd.Flags(), &opts)
			logger, err := buildLogger(opts.logLevel)
			if err != nil {
				return err
			}
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = opts.logger.Sync()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, &opts, serveOpts)
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "dotenv file with credentials (default .env when present)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", opts.logLevel, "log level (debug, info, warn, error)")
	bindServeFlags(root.Flags(), serveOpts)

	root.AddCommand(
		newServeCmd(&opts),
		newToolsCmd(),
		newCallCmd(&opts),
	)
	return root
}

func applyRootFlagBindings(flags *pflag.FlagSet, opts *cliOptions) {
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "config":
			opts.configPath, _ = flags.GetString("config")
		case "env-file":
			opts.envFile, _ = flags.GetString("env-file")
		case "log-level":
			opts.logLevel, _ = flags.GetString("log-level")
		}
	})
}

// buildLogger writes JSON logs to stderr; stdout carries the stdio transport.
func buildLogger(level string) (*zap.Logger, error) {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parsed)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

func initializeApplication(ctx context.Context, opts *cliOptions, overrides map[string]any) (*app.Application, error) {
	return app.InitializeApplication(ctx, app.ServeConfig{
		ConfigPath: opts.configPath,
		EnvFile:    opts.envFile,
		Overrides:  overrides,
	}, app.LoggingConfig{Logger: opts.logger})
}

func signalAwareContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
