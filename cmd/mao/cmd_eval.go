package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MerlinChiodo/multi-agent-orchestration/internal/eval"
	"github.com/MerlinChiodo/multi-agent-orchestration/workflows/analysis"
	"github.com/MerlinChiodo/multi-agent-orchestration/workflows/sequential"
)

type evalFlags struct {
	dev         string
	concurrency int
	markdown    bool
}

func newEvalCmd(a *app) *cobra.Command {
	var flags evalFlags

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Run both engines over a JSONL dev set and report F1 per document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEval(cmd, a, flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.dev, "dev", eval.DefaultDevSet, "Dev set path (one {\"text\": ...} object per line)")
	f.IntVar(&flags.concurrency, "concurrency", 1, "Documents analysed at once")
	f.BoolVar(&flags.markdown, "markdown", false, "Render the report as a Markdown table")
	return cmd
}

func runEval(cmd *cobra.Command, a *app, flags evalFlags) error {
	ctx := cmd.Context()

	examples, err := eval.LoadDevSet(flags.dev)
	if err != nil {
		if len(examples) == 0 {
			return err
		}
		a.logger.Warn("skipping malformed dev-set lines", "error", err)
	}
	if len(examples) == 0 {
		return fmt.Errorf("dev set %s has no examples", flags.dev)
	}

	sink := a.openSink(ctx)
	defer sink.Close()

	llm, err := a.newClient(a.cfg)
	if err != nil {
		return err
	}
	chain, err := sequential.New(llm, append(sequential.ConfigOptions(a.cfg), sequential.WithObserver(a.observer), sequential.WithSink(sink))...)
	if err != nil {
		return err
	}
	graph, err := analysis.New(llm, append(analysis.ConfigOptions(a.cfg), analysis.WithObserver(a.observer), analysis.WithSink(sink))...)
	if err != nil {
		return err
	}

	runner := eval.NewRunner(
		[]eval.NamedEngine{
			{Name: sequential.Engine, Engine: chain},
			{Name: analysis.Engine, Engine: graph},
		},
		eval.WithConcurrency(flags.concurrency),
		eval.WithPreprocess(a.cfg.PreprocessOptions(), a.cfg.TruncateChars),
		eval.WithObserver(a.observer),
	)

	report, err := runner.Run(ctx, examples)
	if err != nil {
		return err
	}
	if err := report.Failed(); err != nil {
		a.logger.Warn("some evaluation runs failed", "error", err)
	}
	return report.Render(cmd.OutOrStdout(), flags.markdown)
}
