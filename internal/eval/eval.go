package eval

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/sync/errgroup"

	"github.com/MerlinChiodo/multi-agent-orchestration/core/parse"
	"github.com/MerlinChiodo/multi-agent-orchestration/internal/preprocess"
	"github.com/MerlinChiodo/multi-agent-orchestration/internal/utils"
	"github.com/MerlinChiodo/multi-agent-orchestration/providers/observability"
	"github.com/MerlinChiodo/multi-agent-orchestration/workflows/analysis"
)

// DefaultDevSet is where the dev set lives relative to the working directory.
const DefaultDevSet = "dev-set/dev.jsonl"

// Example is one dev-set record.
type Example struct {
	Text          string `json:"text"`
	TargetSummary string `json:"target_summary,omitempty"`
}

// ReadDevSet decodes JSONL records and drops those without text. Malformed
// lines are reported as a joined error next to the records that did decode.
func ReadDevSet(reader io.Reader) ([]Example, error) {
	records, err := parse.ReadJSONL[Example](reader)
	examples := records[:0]
	for _, record := range records {
		if strings.TrimSpace(record.Text) != "" {
			examples = append(examples, record)
		}
	}
	return examples, err
}

// LoadDevSet reads the dev set at path.
func LoadDevSet(path string) ([]Example, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dev set: %w", err)
	}
	defer file.Close()
	return ReadDevSet(file)
}

// Engine is anything that analyses a text into a Result. Both workflow
// pipelines satisfy it.
type Engine interface {
	Run(ctx context.Context, input string) (*analysis.Result, error)
}

// NamedEngine pairs an engine with its report label.
type NamedEngine struct {
	Name   string
	Engine Engine
}

// Outcome is one (example, engine) cell of the evaluation.
type Outcome struct {
	Example int
	Engine  string
	F1      float64
	Result  *analysis.Result
	Err     error
}

// Runner evaluates engines over a dev set.
type Runner struct {
	engines       []NamedEngine
	preprocess    preprocess.Options
	truncateChars int
	concurrency   int
	observer      observability.Provider
}

// Option configures a Runner.
type Option func(*Runner)

// WithConcurrency bounds how many examples run at once. Values below 1 mean 1.
func WithConcurrency(limit int) Option {
	return func(runner *Runner) { runner.concurrency = limit }
}

// WithPreprocess sets how each example's analysis context is built.
func WithPreprocess(options preprocess.Options, truncateChars int) Option {
	return func(runner *Runner) {
		runner.preprocess = options
		runner.truncateChars = truncateChars
	}
}

// WithObserver logs per-example progress.
func WithObserver(observer observability.Provider) Option {
	return func(runner *Runner) { runner.observer = observer }
}

// NewRunner evaluates engines in the given order.
func NewRunner(engines []NamedEngine, opts ...Option) *Runner {
	runner := &Runner{
		engines:     engines,
		preprocess:  preprocess.DefaultOptions(),
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(runner)
	}
	runner.concurrency = max(1, runner.concurrency)
	return runner
}

// AnalysisContext is the text every engine receives for text.
func (runner *Runner) AnalysisContext(text string) string {
	if runner.truncateChars > 0 {
		text = preprocess.Truncate(text, runner.truncateChars)
	}
	return preprocess.Build(text, runner.preprocess)
}

// Run evaluates every example with every engine. Each result is annotated
// with the F1 of its summary against the analysis context. Engine failures
// are kept on their Outcome; only a cancelled context fails the run.
func (runner *Runner) Run(ctx context.Context, examples []Example) (*Report, error) {
	outcomes := make([][]Outcome, len(examples))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(runner.concurrency)
	for i, example := range examples {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			outcomes[i] = runner.runExample(groupCtx, i+1, example)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("evaluation interrupted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("evaluation interrupted: %w", err)
	}

	report := &Report{engines: make([]string, len(runner.engines))}
	for i, named := range runner.engines {
		report.engines[i] = named.Name
	}
	for _, row := range outcomes {
		report.Outcomes = append(report.Outcomes, row...)
	}
	return report, nil
}

func (runner *Runner) runExample(ctx context.Context, index int, example Example) []Outcome {
	analysisContext := runner.AnalysisContext(example.Text)
	outcomes := make([]Outcome, 0, len(runner.engines))

	for _, named := range runner.engines {
		outcome := Outcome{Example: index, Engine: named.Name}
		result, err := named.Engine.Run(ctx, analysisContext)
		if err != nil {
			outcome.Err = err
			if runner.observer != nil {
				runner.observer.Warn(ctx, "evaluation run failed",
					observability.Int("example", index),
					observability.String(observability.AttrEngine, named.Name),
					observability.Error(err),
				)
			}
		} else {
			outcome.Result = result
			outcome.F1 = utils.Round(analysis.QualityF1(analysisContext, result.Summary), 3)
		}
		outcomes = append(outcomes, outcome)
	}

	if runner.observer != nil {
		runner.observer.Info(ctx, "example evaluated", observability.Int("example", index))
	}
	return outcomes
}

// Report holds the outcomes ordered by example, then engine.
type Report struct {
	Outcomes []Outcome
	engines  []string
}

// MeanF1 averages F1 per engine over the successful outcomes.
func (report *Report) MeanF1() map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, outcome := range report.Outcomes {
		if outcome.Err != nil {
			continue
		}
		sums[outcome.Engine] += outcome.F1
		counts[outcome.Engine]++
	}

	means := make(map[string]float64, len(counts))
	for engine, count := range counts {
		means[engine] = utils.Round(sums[engine]/float64(count), 3)
	}
	return means
}

// Failed joins the errors of all failed outcomes, or returns nil.
func (report *Report) Failed() error {
	var errs []error
	for _, outcome := range report.Outcomes {
		if outcome.Err != nil {
			errs = append(errs, fmt.Errorf("example %d, %s: %w", outcome.Example, outcome.Engine, outcome.Err))
		}
	}
	return errors.Join(errs...)
}

// Render writes the report as a table, one row per example and engine, with
// the mean F1 per engine in the footer. markdown selects a Markdown table.
func (report *Report) Render(writer io.Writer, markdown bool) error {
	tableWriter := table.NewWriter()
	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	style.Format.Footer = text.FormatDefault
	tableWriter.SetStyle(style)
	tableWriter.AppendHeader(table.Row{"Example", "Engine", "F1", "latency_s", "judge_aggregate", "critic_loops"})
	tableWriter.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})

	for _, outcome := range report.Outcomes {
		if outcome.Err != nil {
			tableWriter.AppendRow(table.Row{outcome.Example, strings.ToUpper(outcome.Engine), "error", "-", "-", "-"})
			continue
		}
		tableWriter.AppendRow(table.Row{
			outcome.Example,
			strings.ToUpper(outcome.Engine),
			fmt.Sprintf("%.3f", outcome.F1),
			fmt.Sprintf("%.2f", outcome.Result.LatencySeconds),
			fmt.Sprintf("%.3f", outcome.Result.JudgeAggregate),
			outcome.Result.CriticLoops,
		})
	}

	means := report.MeanF1()
	for _, engine := range report.engines {
		mean, ok := means[engine]
		if !ok {
			continue
		}
		tableWriter.AppendFooter(table.Row{"mean", strings.ToUpper(engine), fmt.Sprintf("%.3f", mean), "", "", ""})
	}

	rendered := tableWriter.Render()
	if markdown {
		rendered = tableWriter.RenderMarkdown()
	}
	_, err := fmt.Fprintln(writer, rendered)
	return err
}
