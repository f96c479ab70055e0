package main

import (
	"errors"
	"fmt"
	"os"

	"bolagsverket-mcp/internal/domain"
)

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		os.Exit(reportError(err))
	}
}

// reportError prints err to stderr and returns the process exit code.
func reportError(err error) int {
	var exitErr exitError
	if errors.As(err, &exitErr) {
		if exitErr.message != "" {
			fmt.Fprintln(os.Stderr, exitErr.message)
		}
		return exitErr.code
	}
	fmt.Fprintln(os.Stderr, err.Error())
	var cfgErr *domain.ConfigurationError
	if errors.As(err, &cfgErr) {
		return exitCodeConfig
	}
	return 1
}
