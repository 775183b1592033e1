package cmd

import (
	"github.com/spf13/cobra"

	"github.com/agentic-research/reshape/internal/mcpserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the mapper as MCP tools over stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return mcpserver.Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
