package commands

import (
	"github.com/spf13/cobra"

	"github.com/shrinklab/minimize/internal/mcp"
)

// NewMCPCommand builds the serve-mcp subcommand, exposing run_passes and
// status as MCP tools over stdio.
func NewMCPCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve-mcp",
		Short: "Serve reduction runs as Model Context Protocol tools over stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv := mcp.NewServer(mcp.ServerDeps{})

			return srv.Run(cmd.Context())
		},
	}
}
