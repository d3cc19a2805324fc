package sequential

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/MerlinChiodo/multi-agent-orchestration/agents"
	"github.com/MerlinChiodo/multi-agent-orchestration/core/guard"
	"github.com/MerlinChiodo/multi-agent-orchestration/core/overview"
	"github.com/MerlinChiodo/multi-agent-orchestration/internal/config"
	"github.com/MerlinChiodo/multi-agent-orchestration/internal/preprocess"
	"github.com/MerlinChiodo/multi-agent-orchestration/internal/utils"
	"github.com/MerlinChiodo/multi-agent-orchestration/providers/observability"
	"github.com/MerlinChiodo/multi-agent-orchestration/telemetry"
	"github.com/MerlinChiodo/multi-agent-orchestration/workflows/analysis"
)

// Engine identifies this workflow in results and telemetry.
const Engine = "langchain"

// MinInputChars is the trimmed input length below which no stage runs.
const MinInputChars = 100

// Placeholders returned for an input that is empty or too short.
const (
	TooShortStructured = "[Input empty or too short]"
	TooShortMeta       = "⚠️ No valid text detected. Try disabling truncation or re-uploading the PDF."
)

// Stage names used for degradation bookkeeping.
const (
	StageReader     = "reader"
	StageSummarizer = "summarizer"
	StageCritic     = "critic"
	StageIntegrator = "integrator"
)

type settings struct {
	timeoutSeconds float64
	truncateChars  int
	model          string
	observer       observability.Provider
	sink           telemetry.Sink
}

// Option configures a Pipeline.
type Option func(*settings)

// WithTimeout bounds every model call, in seconds. Values below 1 become 1.
func WithTimeout(seconds float64) Option {
	return func(s *settings) { s.timeoutSeconds = seconds }
}

// WithTruncateChars cuts the input before anything else. Zero keeps it whole.
func WithTruncateChars(chars int) Option {
	return func(s *settings) { s.truncateChars = chars }
}

// WithModel records the model name on results.
func WithModel(model string) Option {
	return func(s *settings) { s.model = model }
}

// WithObserver enables logs and spans for runs.
func WithObserver(observer observability.Provider) Option {
	return func(s *settings) { s.observer = observer }
}

// WithSink receives one telemetry row per completed run.
func WithSink(sink telemetry.Sink) Option {
	return func(s *settings) { s.sink = sink }
}

// ConfigOptions maps a run configuration onto pipeline options.
func ConfigOptions(cfg config.Config) []Option {
	return []Option{
		WithTimeout(cfg.TimeoutSeconds),
		WithTruncateChars(cfg.TruncateChars),
		WithModel(cfg.Model),
	}
}

// Pipeline runs Reader, Summarizer, Critic and Integrator one after another.
type Pipeline struct {
	llm      agents.Completer
	settings settings
}

// New returns a sequential pipeline bound to llm.
func New(llm agents.Completer, opts ...Option) (*Pipeline, error) {
	if llm == nil {
		return nil, fmt.Errorf("sequential: model client must not be nil")
	}

	current := settings{timeoutSeconds: config.DefaultTimeoutSeconds, sink: telemetry.Nop{}}
	for _, opt := range opts {
		opt(&current)
	}
	if current.sink == nil {
		current.sink = telemetry.Nop{}
	}
	return &Pipeline{llm: llm, settings: current}, nil
}

// Run analyses input. Stage failures and timeouts degrade into the result;
// only a cancelled context is returned as an error.
func (pipeline *Pipeline) Run(ctx context.Context, input string) (*analysis.Result, error) {
	usage := overview.New()
	ctx = usage.ToContext(ctx)

	result := &analysis.Result{
		RunID:          uuid.NewString(),
		Engine:         Engine,
		Model:          pipeline.settings.model,
		TimedOutStages: []string{},
	}

	truncated := input
	if pipeline.settings.truncateChars > 0 {
		truncated = preprocess.Truncate(input, pipeline.settings.truncateChars)
	}
	result.InputChars = utils.RuneLen(truncated)

	if utils.RuneLen(strings.TrimSpace(truncated)) < MinInputChars {
		result.Structured = TooShortStructured
		result.Meta = TooShortMeta
		return result, nil
	}

	if observer := pipeline.settings.observer; observer != nil {
		ctx = observability.ContextWithObserver(ctx, observer)
		var span observability.Span
		ctx, span = observer.StartSpan(ctx, observability.SpanPipelineRun,
			observability.String(observability.AttrEngine, Engine),
			observability.String(observability.AttrRunID, result.RunID),
			observability.Int(observability.AttrInputChars, result.InputChars),
		)
		defer span.End()
	}

	combined := CombineSections(ExtractSections(truncated), truncated)

	usage.StartExecution()
	total := utils.NewTimer()

	stages := []func(context.Context){
		func(ctx context.Context) {
			result.Structured, result.ReaderSeconds = pipeline.stage(ctx, result, StageReader, func(ctx context.Context) (string, error) {
				return agents.ReadNotes(ctx, pipeline.llm, combined)
			})
		},
		func(ctx context.Context) {
			notes := result.Structured
			result.Summary, result.SummarizerSeconds = pipeline.stage(ctx, result, StageSummarizer, func(ctx context.Context) (string, error) {
				return agents.Summarize(ctx, pipeline.llm, notes)
			})
		},
		func(ctx context.Context) {
			notes, summary := result.Structured, result.Summary
			result.Critic, result.CriticSeconds = pipeline.stage(ctx, result, StageCritic, func(ctx context.Context) (string, error) {
				return agents.Critique(ctx, pipeline.llm, notes, summary)
			})
		},
		func(ctx context.Context) {
			notes, summary, critic := result.Structured, result.Summary, result.Critic
			result.Meta, result.IntegratorSeconds = pipeline.stage(ctx, result, StageIntegrator, func(ctx context.Context) (string, error) {
				return agents.Integrate(ctx, pipeline.llm, notes, summary, critic)
			})
		},
	}

	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("sequential run %s interrupted: %w", result.RunID, err)
		}
		stage(ctx)
	}

	total.Stop()
	usage.EndExecution()
	result.LatencySeconds = total.Seconds()
	result.Usage = usage.Summary()

	if err := pipeline.settings.sink.Write(context.WithoutCancel(ctx), TelemetryRow(result)); err != nil {
		pipeline.warn(ctx, "telemetry write failed", observability.Error(err))
	}
	return result, nil
}

// stage runs one model call under the timeout guard and returns its text and
// duration. Timeouts yield the sentinel and errors yield
// analysis.FailureText; both are recorded on result.
func (pipeline *Pipeline) stage(ctx context.Context, result *analysis.Result, name string, work func(context.Context) (string, error)) (string, float64) {
	timer := utils.NewTimer()
	text, timedOut, err := guard.Text(ctx, pipeline.settings.timeoutSeconds, work)
	timer.Stop()

	switch {
	case timedOut:
		result.TimedOutStages = append(result.TimedOutStages, name)
		pipeline.warn(ctx, "stage timed out, propagating sentinel", observability.String(observability.AttrStage, name))
	case err != nil:
		result.FailedStages = append(result.FailedStages, name)
		pipeline.warn(ctx, "stage failed", observability.String(observability.AttrStage, name), observability.Error(err))
		text = analysis.FailureText(name)
	}
	return text, timer.Seconds()
}

// TelemetryRow flattens a sequential result: the default telemetry fields
// followed by run_id.
func TelemetryRow(result *analysis.Result) *telemetry.Row {
	return telemetry.NewRow(
		telemetry.Field{Key: "engine", Value: result.Engine},
		telemetry.Field{Key: "input_chars", Value: result.InputChars},
		telemetry.Field{Key: "summary_len", Value: utils.RuneLen(result.Summary)},
		telemetry.Field{Key: "meta_len", Value: utils.RuneLen(result.Meta)},
		telemetry.Field{Key: "latency_s", Value: result.LatencySeconds},
		telemetry.Field{Key: "reader_s", Value: result.ReaderSeconds},
		telemetry.Field{Key: "summarizer_s", Value: result.SummarizerSeconds},
		telemetry.Field{Key: "critic_s", Value: result.CriticSeconds},
		telemetry.Field{Key: "integrator_s", Value: result.IntegratorSeconds},
		telemetry.Field{Key: "run_id", Value: result.RunID},
	)
}

func (pipeline *Pipeline) warn(ctx context.Context, msg string, attrs ...observability.Attribute) {
	observer := pipeline.settings.observer
	if observer == nil {
		observer = observability.ObserverFromContext(ctx)
	}
	if observer != nil {
		observer.Warn(ctx, msg, attrs...)
	}
}
