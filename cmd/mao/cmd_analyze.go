package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/MerlinChiodo/multi-agent-orchestration/internal/ingest"
	"github.com/MerlinChiodo/multi-agent-orchestration/internal/mcpserver"
	"github.com/MerlinChiodo/multi-agent-orchestration/workflows/analysis"
	"github.com/MerlinChiodo/multi-agent-orchestration/workflows/sequential"
)

type analyzeFlags struct {
	engine string
	json   bool
	dot    string
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var flags analyzeFlags

	cmd := &cobra.Command{
		Use:   "analyze [sources...]",
		Short: "Analyse documents from files, URLs or stdin",
		Long: `Analyse the concatenated text of all sources. Sources are .txt, .md, .html
files, http(s) URLs, or "-" for stdin; with no sources stdin is read.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, a, flags, args)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.engine, "engine", mcpserver.EngineGraph, "Engine: graph or sequential")
	f.BoolVar(&flags.json, "json", false, "Print the result record as JSON")
	f.StringVar(&flags.dot, "dot", "", "Write the execution graph as DOT to this file")
	return cmd
}

type engine interface {
	Run(ctx context.Context, input string) (*analysis.Result, error)
}

func runAnalyze(cmd *cobra.Command, a *app, flags analyzeFlags, sources []string) error {
	ctx := cmd.Context()
	if len(sources) == 0 {
		sources = []string{ingest.Stdin}
	}

	input, err := ingest.New(ingest.WithStdin(cmd.InOrStdin())).LoadAll(ctx, sources)
	if err != nil {
		return err
	}

	sink := a.openSink(ctx)
	defer sink.Close()

	llm, err := a.newClient(a.cfg)
	if err != nil {
		return err
	}

	var pipeline engine
	switch strings.ToLower(flags.engine) {
	case mcpserver.EngineGraph:
		opts := append(analysis.ConfigOptions(a.cfg), analysis.WithObserver(a.observer), analysis.WithSink(sink))
		pipeline, err = analysis.New(llm, opts...)
	case mcpserver.EngineSequential:
		opts := append(sequential.ConfigOptions(a.cfg), sequential.WithObserver(a.observer), sequential.WithSink(sink))
		pipeline, err = sequential.New(llm, opts...)
	default:
		return fmt.Errorf("unknown engine %q (want graph or sequential)", flags.engine)
	}
	if err != nil {
		return err
	}

	result, err := pipeline.Run(ctx, input)
	if err != nil {
		return err
	}

	if flags.dot != "" {
		dot := result.GraphDOT
		if dot == "" {
			dot = analysis.StaticDOT
		}
		if err := os.WriteFile(flags.dot, []byte(dot), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", flags.dot, err)
		}
	}

	out := cmd.OutOrStdout()
	if flags.json {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}
	return printResult(out, result)
}

func printResult(out io.Writer, result *analysis.Result) error {
	blocks := []struct {
		title string
		body  string
	}{
		{"Meta Summary", result.Meta},
		{"Summary", result.Summary},
		{"Translated Summary", result.SummaryTranslated},
		{"Keywords", result.Keywords},
		{"Reader Notes", result.Structured},
		{"Critic", result.Critic},
	}
	for _, block := range blocks {
		if block.body == "" {
			continue
		}
		if _, err := fmt.Fprintf(out, "## %s\n\n%s\n\n", block.title, strings.TrimSpace(block.body)); err != nil {
			return err
		}
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.SetTitle(fmt.Sprintf("%s run %s", strings.ToUpper(result.Engine), result.RunID))
	tw.AppendHeader(table.Row{"Metric", "Value"})
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	tw.AppendRows([]table.Row{
		{"input_chars", result.InputChars},
		{"reader_s", fmt.Sprintf("%.2f", result.ReaderSeconds)},
		{"summarizer_s", fmt.Sprintf("%.2f", result.SummarizerSeconds)},
		{"critic_s", fmt.Sprintf("%.2f", result.CriticSeconds)},
		{"integrator_s", fmt.Sprintf("%.2f", result.IntegratorSeconds)},
		{"latency_s", fmt.Sprintf("%.2f", result.LatencySeconds)},
	})
	if result.Engine == analysis.Engine {
		tw.AppendSeparator()
		tw.AppendRows([]table.Row{
			{"translator_s", fmt.Sprintf("%.2f", result.TranslatorSeconds)},
			{"keyword_s", fmt.Sprintf("%.2f", result.KeywordSeconds)},
			{"critic_score", fmt.Sprintf("%.2f", result.CriticScore)},
			{"critic_loops", result.CriticLoops},
			{"quality_f1", fmt.Sprintf("%.3f", result.QualityF1)},
			{"judge_score", fmt.Sprintf("%.1f", result.JudgeScore)},
			{"judge_aggregate", fmt.Sprintf("%.3f", result.JudgeAggregate)},
		})
	}
	if len(result.TimedOutStages) > 0 {
		tw.AppendFooter(table.Row{"timed out", strings.Join(result.TimedOutStages, ", ")})
	}

	_, err := fmt.Fprintln(out, tw.Render())
	return err
}
