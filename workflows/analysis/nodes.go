package analysis

import (
	"context"
	"fmt"

	"github.com/MerlinChiodo/multi-agent-orchestration/agents"
	"github.com/MerlinChiodo/multi-agent-orchestration/core/guard"
	"github.com/MerlinChiodo/multi-agent-orchestration/internal/preprocess"
	"github.com/MerlinChiodo/multi-agent-orchestration/internal/utils"
	"github.com/MerlinChiodo/multi-agent-orchestration/providers/observability"
)

// Node IDs of the analysis graph.
const (
	NodeRetriever  = "retriever"
	NodeReader     = "reader"
	NodeSummarizer = "summarizer"
	NodeTranslator = "translator"
	NodeKeyword    = "keyword"
	NodeCritic     = "critic_node"
	NodeQuality    = "quality"
	NodeJudge      = "judge"
	NodeAggregator = "aggregator"
	NodeIntegrator = "integrator"
)

// FailureText is what a stage writes when its model call returns an error.
// It carries no digits, so score extraction over it falls back to defaults;
// the error itself is logged.
func FailureText(stage string) string {
	return fmt.Sprintf("[%s failed]", stage)
}

// guarded runs one model-backed stage under the timeout guard. Timeouts yield
// guard.Sentinel and errors yield FailureText; both are recorded on the
// state and never returned.
func (pipeline *Pipeline) guarded(ctx context.Context, state *State, stage string, work func(context.Context) (string, error)) string {
	text, timedOut, err := guard.Text(ctx, pipeline.settings.timeoutSeconds, work)
	switch {
	case timedOut:
		state.TimedOut = append(state.TimedOut, stage)
		pipeline.warn(ctx, "stage timed out, propagating sentinel",
			observability.String(observability.AttrStage, stage),
			observability.Float64("timeout_s", guard.Seconds(pipeline.settings.timeoutSeconds).Seconds()),
		)
		if observer := pipeline.observer(ctx); observer != nil {
			observer.Counter(observability.MetricStageTimeouts).Add(ctx, 1, observability.String(observability.AttrStage, stage))
		}
		return text
	case err != nil:
		state.Failed = append(state.Failed, stage)
		pipeline.warn(ctx, "stage failed",
			observability.String(observability.AttrStage, stage),
			observability.Error(err),
		)
		return FailureText(stage)
	default:
		return text
	}
}

func (pipeline *Pipeline) retrieve(_ context.Context, state *State) error {
	text := state.InputText
	if pipeline.settings.truncateChars > 0 {
		text = preprocess.Truncate(text, pipeline.settings.truncateChars)
	}
	state.AnalysisContext = preprocess.Build(text, pipeline.settings.preprocess)
	return nil
}

func (pipeline *Pipeline) read(ctx context.Context, state *State) error {
	timer := utils.NewTimer()
	input := state.readerInput()
	state.Notes = pipeline.guarded(ctx, state, NodeReader, func(ctx context.Context) (string, error) {
		return agents.ReadNotes(ctx, pipeline.llm, input)
	})
	timer.Stop()
	state.ReaderSeconds = timer.Seconds()
	return nil
}

func (pipeline *Pipeline) summarize(ctx context.Context, state *State) error {
	timer := utils.NewTimer()
	notes := state.Notes
	state.Summary = pipeline.guarded(ctx, state, NodeSummarizer, func(ctx context.Context) (string, error) {
		return agents.Summarize(ctx, pipeline.llm, notes)
	})
	timer.Stop()
	state.SummarizerSeconds = timer.Seconds()
	return nil
}

func (pipeline *Pipeline) translate(_ context.Context, state *State) error {
	timer := utils.NewTimer()
	state.SummaryTranslated = Translate(state.Summary, pipeline.settings.language, pipeline.settings.style)
	timer.Stop()
	state.TranslatorSeconds = timer.Seconds()
	return nil
}

func (pipeline *Pipeline) extractKeywords(_ context.Context, state *State) error {
	timer := utils.NewTimer()
	state.Keywords = Keywords(state.Summary)
	timer.Stop()
	state.KeywordSeconds = timer.Seconds()
	return nil
}

func (pipeline *Pipeline) critique(ctx context.Context, state *State) error {
	timer := utils.NewTimer()
	notes, summary := state.Notes, state.Summary
	state.Critic = pipeline.guarded(ctx, state, NodeCritic, func(ctx context.Context) (string, error) {
		return agents.Critique(ctx, pipeline.llm, notes, summary)
	})
	timer.Stop()
	state.CriticSeconds = timer.Seconds()
	return nil
}

func (pipeline *Pipeline) route(ctx context.Context, state *State) (string, error) {
	route := Decide(state, pipeline.settings.maxCriticLoops)
	pipeline.debug(ctx, "critic route",
		observability.String(observability.AttrRoute, route.String()),
		observability.Float64("critic_score", state.CriticScore),
		observability.Int(observability.AttrCriticLoops, state.CriticLoops),
	)
	return route.String(), nil
}

func (pipeline *Pipeline) scoreQuality(_ context.Context, state *State) error {
	state.QualityF1 = QualityF1(state.Notes, state.Summary)
	return nil
}

func (pipeline *Pipeline) judge(ctx context.Context, state *State) error {
	notes, summary := state.Notes, state.Summary
	reply := pipeline.guarded(ctx, state, NodeJudge, func(ctx context.Context) (string, error) {
		return agents.JudgeSummary(ctx, pipeline.llm, notes, summary)
	})
	state.JudgeScore = JudgeScore(reply)
	return nil
}

func (pipeline *Pipeline) aggregate(_ context.Context, state *State) error {
	state.JudgeAggregate = Aggregate(state.QualityF1, state.JudgeScore, state.CriticScore)
	return nil
}

func (pipeline *Pipeline) integrate(ctx context.Context, state *State) error {
	timer := utils.NewTimer()
	notes, summary, critic := state.Notes, state.Summary, state.Critic
	state.Meta = pipeline.guarded(ctx, state, NodeIntegrator, func(ctx context.Context) (string, error) {
		return agents.Integrate(ctx, pipeline.llm, notes, summary, critic)
	})
	timer.Stop()
	state.IntegratorSeconds = timer.Seconds()
	return nil
}
