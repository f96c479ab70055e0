package main

import (
	"github.com/spf13/cobra"

	"bolagsverket-mcp/internal/app/catalog"
)

func newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Print the tool catalog as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeTools(cmd.OutOrStdout(), catalog.New().List())
		},
	}
}
