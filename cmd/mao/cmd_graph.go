package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MerlinChiodo/multi-agent-orchestration/workflows/analysis"
)

func newGraphCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the analysis graph topology",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch strings.ToLower(format) {
			case "dot":
				_, err := fmt.Fprint(cmd.OutOrStdout(), analysis.StaticDOT)
				return err
			case "mermaid":
				_, err := fmt.Fprintln(cmd.OutOrStdout(), analysis.Mermaid())
				return err
			default:
				return fmt.Errorf("unknown format %q (want dot or mermaid)", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "dot", "Output format: dot or mermaid")
	return cmd
}
