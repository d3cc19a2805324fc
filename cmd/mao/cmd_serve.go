package main

import (
	"github.com/spf13/cobra"

	"github.com/MerlinChiodo/multi-agent-orchestration/internal/mcpserver"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		Long: `Starts an MCP server over stdin/stdout exposing analyze_document,
preview_sections and graph_topology. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sink := a.openSink(cmd.Context())
			defer sink.Close()

			mcpserver.Version = version
			a.logger.Info("starting MCP server over stdio", "name", mcpserver.Name, "model", a.cfg.Model)
			return mcpserver.ServeStdio(a.mcpDependencies(sink))
		},
	}
}
