package analysis

import (
	"github.com/MerlinChiodo/multi-agent-orchestration/core/overview"
	"github.com/MerlinChiodo/multi-agent-orchestration/internal/utils"
	"github.com/MerlinChiodo/multi-agent-orchestration/patterns/graph"
	"github.com/MerlinChiodo/multi-agent-orchestration/telemetry"
)

// Step is one node visit as reported to callers.
type Step struct {
	Node    string  `json:"node"`
	Seconds float64 `json:"seconds"`
	Branch  string  `json:"branch,omitempty"`
}

// Result is the output record of one run. The sequential engine fills the
// subset it produces and leaves graph-only fields at zero.
type Result struct {
	RunID  string `json:"run_id"`
	Engine string `json:"engine"`
	Model  string `json:"model,omitempty"`

	Structured        string `json:"structured"`
	Summary           string `json:"summary"`
	SummaryTranslated string `json:"summary_translated"`
	Keywords          string `json:"keywords"`
	Critic            string `json:"critic"`
	Meta              string `json:"meta"`

	ReaderSeconds     float64 `json:"reader_s"`
	SummarizerSeconds float64 `json:"summarizer_s"`
	CriticSeconds     float64 `json:"critic_s"`
	TranslatorSeconds float64 `json:"translator_s"`
	KeywordSeconds    float64 `json:"keyword_s"`
	IntegratorSeconds float64 `json:"integrator_s"`

	QualityF1      float64 `json:"quality_f1"`
	JudgeScore     float64 `json:"judge_score"`
	JudgeAggregate float64 `json:"judge_aggregate"`
	CriticScore    float64 `json:"critic_score"`
	CriticLoops    int     `json:"critic_loops"`

	LatencySeconds float64 `json:"latency_s"`
	InputChars     int     `json:"input_chars"`
	GraphDOT       string  `json:"graph_dot"`

	TimedOutStages []string         `json:"timed_out_stages"`
	FailedStages   []string         `json:"failed_stages,omitempty"`
	Trace          []Step           `json:"trace,omitempty"`
	Usage          overview.Summary `json:"usage"`
}

func newResult(state *State, trace graph.Trace) *Result {
	steps := make([]Step, len(trace))
	for i, visit := range trace {
		steps[i] = Step{Node: visit.Node, Seconds: utils.Round(visit.Duration.Seconds(), 3), Branch: visit.Branch}
	}

	timedOut := state.TimedOut
	if timedOut == nil {
		timedOut = []string{}
	}

	return &Result{
		Engine:            Engine,
		Structured:        state.Notes,
		Summary:           state.Summary,
		SummaryTranslated: state.SummaryTranslated,
		Keywords:          state.Keywords,
		Critic:            state.Critic,
		Meta:              state.Meta,
		ReaderSeconds:     state.ReaderSeconds,
		SummarizerSeconds: state.SummarizerSeconds,
		CriticSeconds:     state.CriticSeconds,
		TranslatorSeconds: state.TranslatorSeconds,
		KeywordSeconds:    state.KeywordSeconds,
		IntegratorSeconds: state.IntegratorSeconds,
		QualityF1:         state.QualityF1,
		JudgeScore:        state.JudgeScore,
		JudgeAggregate:    state.JudgeAggregate,
		CriticScore:       state.CriticScore,
		CriticLoops:       state.CriticLoops,
		InputChars:        state.InputChars(),
		TimedOutStages:    timedOut,
		FailedStages:      state.Failed,
		Trace:             steps,
	}
}

// TelemetryRow flattens the result in the column order of the telemetry
// file, with run_id last.
func (result *Result) TelemetryRow() *telemetry.Row {
	return telemetry.NewRow(
		telemetry.Field{Key: "engine", Value: result.Engine},
		telemetry.Field{Key: "input_chars", Value: result.InputChars},
		telemetry.Field{Key: "summary_len", Value: utils.RuneLen(result.Summary)},
		telemetry.Field{Key: "meta_len", Value: utils.RuneLen(result.Meta)},
		telemetry.Field{Key: "latency_s", Value: result.LatencySeconds},
		telemetry.Field{Key: "reader_s", Value: result.ReaderSeconds},
		telemetry.Field{Key: "summarizer_s", Value: result.SummarizerSeconds},
		telemetry.Field{Key: "critic_s", Value: result.CriticSeconds},
		telemetry.Field{Key: "translator_s", Value: result.TranslatorSeconds},
		telemetry.Field{Key: "keyword_s", Value: result.KeywordSeconds},
		telemetry.Field{Key: "integrator_s", Value: result.IntegratorSeconds},
		telemetry.Field{Key: "quality_f1", Value: result.QualityF1},
		telemetry.Field{Key: "judge_score", Value: result.JudgeScore},
		telemetry.Field{Key: "judge_aggregate", Value: result.JudgeAggregate},
		telemetry.Field{Key: "critic_score", Value: result.CriticScore},
		telemetry.Field{Key: "critic_loops", Value: result.CriticLoops},
		telemetry.Field{Key: "run_id", Value: result.RunID},
	)
}
