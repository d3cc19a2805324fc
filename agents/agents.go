package agents

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/MerlinChiodo/multi-agent-orchestration/providers/observability"
)

// Completer turns a prompt into model text. *client.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Agent is one prompt template bound to a name.
type Agent struct {
	name     string
	template *template.Template
}

func newAgent(name, text string) Agent {
	return Agent{
		name:     name,
		template: template.Must(template.New(name).Option("missingkey=error").Parse(text)),
	}
}

var (
	// Reader turns document text into structured notes.
	Reader = newAgent("reader", readerPrompt)
	// Summarizer writes a prose summary from the notes.
	Summarizer = newAgent("summarizer", summarizerPrompt)
	// Critic reviews the summary against the notes with a 0-5 rubric.
	Critic = newAgent("critic", criticPrompt)
	// Integrator fuses notes, summary and critique into a meta summary.
	Integrator = newAgent("integrator", integratorPrompt)
	// Judge scores the summary with a single integer from 0 to 5.
	Judge = newAgent("judge", judgePrompt)
)

// Name returns the agent's identifier.
func (agent Agent) Name() string {
	return agent.name
}

// Render fills the template with data.
func (agent Agent) Render(data any) (string, error) {
	var builder strings.Builder
	if err := agent.template.Execute(&builder, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", agent.name, err)
	}
	return builder.String(), nil
}

// Run renders the prompt, sends it and returns the trimmed reply.
func (agent Agent) Run(ctx context.Context, llm Completer, data any) (string, error) {
	prompt, err := agent.Render(data)
	if err != nil {
		return "", err
	}

	reply, err := llm.Complete(observability.ContextWithStage(ctx, agent.name), prompt)
	if err != nil {
		return "", fmt.Errorf("%s: %w", agent.name, err)
	}
	return strings.TrimSpace(reply), nil
}

// ReaderInput is the template data of Reader.
type ReaderInput struct {
	Content string
}

// SummarizerInput is the template data of Summarizer.
type SummarizerInput struct {
	Notes string
}

// ReviewInput is the template data of Critic and Judge.
type ReviewInput struct {
	Notes   string
	Summary string
}

// IntegratorInput is the template data of Integrator.
type IntegratorInput struct {
	Notes   string
	Summary string
	Critic  string
}

// ReadNotes runs Reader over content.
func ReadNotes(ctx context.Context, llm Completer, content string) (string, error) {
	return Reader.Run(ctx, llm, ReaderInput{Content: content})
}

// Summarize runs Summarizer over notes.
func Summarize(ctx context.Context, llm Completer, notes string) (string, error) {
	return Summarizer.Run(ctx, llm, SummarizerInput{Notes: notes})
}

// Critique runs Critic over notes and summary.
func Critique(ctx context.Context, llm Completer, notes, summary string) (string, error) {
	return Critic.Run(ctx, llm, ReviewInput{Notes: notes, Summary: summary})
}

// Integrate runs Integrator over notes, summary and critique.
func Integrate(ctx context.Context, llm Completer, notes, summary, critic string) (string, error) {
	return Integrator.Run(ctx, llm, IntegratorInput{Notes: notes, Summary: summary, Critic: critic})
}

// JudgeSummary runs Judge and returns the raw reply; score extraction is left
// to the caller.
func JudgeSummary(ctx context.Context, llm Completer, notes, summary string) (string, error) {
	return Judge.Run(ctx, llm, ReviewInput{Notes: notes, Summary: summary})
}
