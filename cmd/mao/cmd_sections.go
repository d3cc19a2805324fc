package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/MerlinChiodo/multi-agent-orchestration/internal/ingest"
	"github.com/MerlinChiodo/multi-agent-orchestration/internal/mcpserver"
	"github.com/MerlinChiodo/multi-agent-orchestration/internal/preprocess"
	"github.com/MerlinChiodo/multi-agent-orchestration/internal/utils"
)

// contextPreviewChars is how much of the analysis context sections prints.
const contextPreviewChars = 1200

func newSectionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sections [sources...]",
		Short: "Preview which sections go into the analysis context",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{ingest.Stdin}
			}
			input, err := ingest.New(ingest.WithStdin(cmd.InOrStdin())).LoadAll(cmd.Context(), args)
			if err != nil {
				return err
			}

			preview := mcpserver.Preview(input, a.cfg)

			tw := table.NewWriter()
			tw.SetStyle(table.StyleLight)
			tw.AppendHeader(table.Row{"Section", "Chars"})
			tw.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
			for _, entry := range preview.Sections {
				tw.AppendRow(table.Row{entry.Section, entry.Chars})
			}
			tw.AppendFooter(table.Row{"total", preview.Total})

			truncated := input
			if a.cfg.TruncateChars > 0 {
				truncated = preprocess.Truncate(input, a.cfg.TruncateChars)
			}
			analysisContext := preprocess.Build(truncated, a.cfg.PreprocessOptions())

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, tw.Render())
			fmt.Fprintf(out, "\ncontext: %d chars (budget %d)\n\n", preview.ContextChars, preview.BudgetChars)
			_, err = fmt.Fprintln(out, utils.Head(analysisContext, contextPreviewChars))
			return err
		},
	}
}
