package analysis

import "github.com/MerlinChiodo/multi-agent-orchestration/internal/utils"

// State is the record one analysis run works on. Every field exists from
// the start; each node writes only its own outputs and timing.
type State struct {
	InputText       string
	AnalysisContext string

	Notes             string
	Summary           string
	Critic            string
	Meta              string
	SummaryTranslated string
	Keywords          string

	ReaderSeconds     float64
	SummarizerSeconds float64
	CriticSeconds     float64
	TranslatorSeconds float64
	KeywordSeconds    float64
	IntegratorSeconds float64

	CriticScore    float64
	QualityF1      float64
	JudgeScore     float64
	JudgeAggregate float64

	// CriticLoops counts rework passes. Only the router increments it.
	CriticLoops int

	// TimedOut lists the stages that produced the timeout sentinel, in
	// execution order.
	TimedOut []string

	// Failed lists the stages whose model call returned an error.
	Failed []string
}

// NewState returns the initial state for input.
func NewState(input string) *State {
	return &State{InputText: input}
}

// readerInput is the text handed to the reader: the analysis context, or the
// raw input when preprocessing produced nothing.
func (state *State) readerInput() string {
	if state.AnalysisContext != "" {
		return state.AnalysisContext
	}
	return state.InputText
}

// InputChars is the length of the text the reader actually saw.
func (state *State) InputChars() int {
	return utils.RuneLen(state.readerInput())
}
