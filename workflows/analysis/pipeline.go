package analysis

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/MerlinChiodo/multi-agent-orchestration/agents"
	"github.com/MerlinChiodo/multi-agent-orchestration/core/overview"
	"github.com/MerlinChiodo/multi-agent-orchestration/internal/config"
	"github.com/MerlinChiodo/multi-agent-orchestration/internal/preprocess"
	"github.com/MerlinChiodo/multi-agent-orchestration/internal/utils"
	"github.com/MerlinChiodo/multi-agent-orchestration/patterns/graph"
	"github.com/MerlinChiodo/multi-agent-orchestration/providers/observability"
	"github.com/MerlinChiodo/multi-agent-orchestration/telemetry"
)

// Engine identifies this workflow in results and telemetry.
const Engine = "langgraph"

const (
	defaultTimeoutSeconds = 45.0
	defaultMaxCriticLoops = 1
)

type settings struct {
	timeoutSeconds float64
	maxCriticLoops int
	truncateChars  int
	preprocess     preprocess.Options
	language       string
	style          string
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

// WithMaxCriticLoops bounds the rework loop. Negative values disable it.
func WithMaxCriticLoops(loops int) Option {
	return func(s *settings) { s.maxCriticLoops = loops }
}

// WithTruncateChars cuts the raw input before preprocessing. Zero keeps it
// whole.
func WithTruncateChars(chars int) Option {
	return func(s *settings) { s.truncateChars = chars }
}

// WithPreprocess sets how the analysis context is assembled.
func WithPreprocess(options preprocess.Options) Option {
	return func(s *settings) { s.preprocess = options }
}

// WithTranslator sets the translator's language tag and style.
func WithTranslator(language, style string) Option {
	return func(s *settings) {
		s.language = language
		s.style = style
	}
}

// WithModel records the model name on results.
func WithModel(model string) Option {
	return func(s *settings) { s.model = model }
}

// WithObserver enables logs, spans and metrics for runs and nodes.
func WithObserver(observer observability.Provider) Option {
	return func(s *settings) { s.observer = observer }
}

// WithSink receives one telemetry row per run.
func WithSink(sink telemetry.Sink) Option {
	return func(s *settings) { s.sink = sink }
}

// ConfigOptions maps a run configuration onto pipeline options.
func ConfigOptions(cfg config.Config) []Option {
	return []Option{
		WithTimeout(cfg.TimeoutSeconds),
		WithMaxCriticLoops(cfg.MaxCriticLoops),
		WithTruncateChars(cfg.TruncateChars),
		WithPreprocess(cfg.PreprocessOptions()),
		WithTranslator(cfg.Language(), cfg.TranslatorStyle),
		WithModel(cfg.Model),
	}
}

// Pipeline is the compiled analysis graph bound to one model client. It is
// safe for concurrent Run calls.
type Pipeline struct {
	llm      agents.Completer
	settings settings
	graph    *graph.Graph[State]
}

// New compiles the analysis graph.
func New(llm agents.Completer, opts ...Option) (*Pipeline, error) {
	if llm == nil {
		return nil, fmt.Errorf("analysis: model client must not be nil")
	}

	current := settings{
		timeoutSeconds: defaultTimeoutSeconds,
		maxCriticLoops: defaultMaxCriticLoops,
		preprocess:     preprocess.DefaultOptions(),
		language:       "DE",
		style:          "short",
		sink:           telemetry.Nop{},
	}
	for _, opt := range opts {
		opt(&current)
	}
	if current.sink == nil {
		current.sink = telemetry.Nop{}
	}

	pipeline := &Pipeline{llm: llm, settings: current}
	compiled, err := pipeline.build()
	if err != nil {
		return nil, err
	}
	pipeline.graph = compiled
	return pipeline, nil
}

// maxSteps is the longest possible walk: six nodes up to the critic, four
// more per rework pass, then four to the end.
func (pipeline *Pipeline) maxSteps() int {
	return 6 + 4*EffectiveMaxLoops(pipeline.settings.maxCriticLoops) + 4
}

func (pipeline *Pipeline) build() (*graph.Graph[State], error) {
	graphOptions := []graph.Option{graph.WithMaxSteps(pipeline.maxSteps())}
	if pipeline.settings.observer != nil {
		graphOptions = append(graphOptions, graph.WithObserver(pipeline.settings.observer))
	}

	builder := graph.NewBuilder[State](graphOptions...).
		AddNode(NodeRetriever, pipeline.retrieve, graph.WithNodeLabel("Retriever/Preprocess")).
		AddNode(NodeReader, pipeline.read, graph.WithNodeLabel("Reader - Notes")).
		AddNode(NodeSummarizer, pipeline.summarize, graph.WithNodeLabel("Summarizer")).
		AddNode(NodeTranslator, pipeline.translate, graph.WithNodeLabel("Translator (DE/EN)")).
		AddNode(NodeKeyword, pipeline.extractKeywords, graph.WithNodeLabel("Keyword Extraction")).
		AddNode(NodeCritic, pipeline.critique, graph.WithNodeLabel("Critic - Review")).
		AddNode(NodeQuality, pipeline.scoreQuality, graph.WithNodeLabel("Quality (F1)")).
		AddNode(NodeJudge, pipeline.judge, graph.WithNodeLabel("LLM Judge")).
		AddNode(NodeAggregator, pipeline.aggregate, graph.WithNodeLabel("Judge Aggregator")).
		AddNode(NodeIntegrator, pipeline.integrate, graph.WithNodeLabel("Integrator - Meta Summary")).
		SetEntryPoint(NodeRetriever).
		AddEdge(NodeRetriever, NodeReader).
		AddEdge(NodeReader, NodeSummarizer).
		AddEdge(NodeSummarizer, NodeTranslator).
		AddEdge(NodeTranslator, NodeKeyword).
		AddEdge(NodeKeyword, NodeCritic)

	branches := make([]graph.Branch, 0, len(Routes()))
	for _, route := range Routes() {
		target, err := route.target()
		if err != nil {
			return nil, err
		}
		label, style := routeAppearance(route)
		branches = append(branches, graph.Branch{Name: route.String(), To: target, Label: label, Style: style})
	}

	builder.AddConditionalEdges(NodeCritic, pipeline.route, branches...).
		AddEdge(NodeQuality, NodeJudge).
		AddEdge(NodeJudge, NodeAggregator).
		AddEdge(NodeAggregator, NodeIntegrator).
		AddEdge(NodeIntegrator, graph.End)

	compiled, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("analysis: %w", err)
	}
	return compiled, nil
}

// Topology exposes the compiled graph's structure.
func (pipeline *Pipeline) Topology() graph.Topology {
	return pipeline.graph.Topology()
}

// Run analyses input. Stage failures and timeouts degrade into the result;
// only graph-level problems such as a cancelled context are returned as
// errors.
func (pipeline *Pipeline) Run(ctx context.Context, input string) (*Result, error) {
	runID := uuid.NewString()
	usage := overview.New()
	ctx = usage.ToContext(ctx)
	if pipeline.settings.observer != nil {
		ctx = observability.ContextWithObserver(ctx, pipeline.settings.observer)
	}

	var span observability.Span
	if observer := pipeline.settings.observer; observer != nil {
		ctx, span = observer.StartSpan(ctx, observability.SpanPipelineRun,
			observability.String(observability.AttrEngine, Engine),
			observability.String(observability.AttrRunID, runID),
		)
		defer span.End()
	}

	usage.StartExecution()
	timer := utils.NewTimer()
	state := NewState(input)
	trace, err := pipeline.graph.Run(ctx, state)
	timer.Stop()
	usage.EndExecution()

	if err != nil {
		if span != nil {
			span.RecordError(err)
			span.SetStatus(observability.StatusError, err.Error())
		}
		return nil, fmt.Errorf("analysis run %s: %w", runID, err)
	}

	result := newResult(state, trace)
	result.RunID = runID
	result.Model = pipeline.settings.model
	result.LatencySeconds = timer.Seconds()
	result.Usage = usage.Summary()
	result.GraphDOT = DynamicDOT(state)

	if span != nil {
		span.SetAttributes(
			observability.Int(observability.AttrInputChars, result.InputChars),
			observability.Int(observability.AttrCriticLoops, result.CriticLoops),
		)
		span.SetStatus(observability.StatusOK, "")
	}
	if observer := pipeline.settings.observer; observer != nil {
		observer.Histogram(observability.MetricPipelineScore).Record(ctx, result.JudgeAggregate,
			observability.String(observability.AttrEngine, Engine))
	}

	pipeline.writeTelemetry(ctx, result.TelemetryRow())
	return result, nil
}

func (pipeline *Pipeline) writeTelemetry(ctx context.Context, row *telemetry.Row) {
	if err := pipeline.settings.sink.Write(context.WithoutCancel(ctx), row); err != nil {
		pipeline.warn(ctx, "telemetry write failed", observability.Error(err))
	}
}

func (pipeline *Pipeline) observer(ctx context.Context) observability.Provider {
	if pipeline.settings.observer != nil {
		return pipeline.settings.observer
	}
	return observability.ObserverFromContext(ctx)
}

func (pipeline *Pipeline) warn(ctx context.Context, msg string, attrs ...observability.Attribute) {
	if observer := pipeline.observer(ctx); observer != nil {
		observer.Warn(ctx, msg, attrs...)
	}
}

func (pipeline *Pipeline) debug(ctx context.Context, msg string, attrs ...observability.Attribute) {
	if observer := pipeline.observer(ctx); observer != nil {
		observer.Debug(ctx, msg, attrs...)
	}
}
