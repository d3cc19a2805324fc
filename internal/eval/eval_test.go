package eval

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/MerlinChiodo/multi-agent-orchestration/internal/preprocess"
	"github.com/MerlinChiodo/multi-agent-orchestration/workflows/analysis"
)

// stubEngine echoes part of its input as the summary.
type stubEngine struct {
	mu     sync.Mutex
	inputs []string
	words  int
	err    error
}

func (engine *stubEngine) Run(_ context.Context, input string) (*analysis.Result, error) {
	engine.mu.Lock()
	engine.inputs = append(engine.inputs, input)
	engine.mu.Unlock()

	if engine.err != nil {
		return nil, engine.err
	}
	fields := strings.Fields(input)
	summary := strings.Join(fields[:min(engine.words, len(fields))], " ")
	return &analysis.Result{Summary: summary, LatencySeconds: 0.5, JudgeAggregate: 0.7, CriticLoops: 1}, nil
}

const devSet = `{"text": "alpha beta gamma delta", "target_summary": "x"}

{"text": ""}
{"text": "epsilon zeta", }
not json at all
`

func TestReadDevSet(testCase *testing.T) {
	examples, err := ReadDevSet(strings.NewReader(devSet))

	want := []Example{
		{Text: "alpha beta gamma delta", TargetSummary: "x"},
		{Text: "epsilon zeta"},
	}
	if diff := cmp.Diff(want, examples); diff != "" {
		testCase.Errorf("examples mismatch (-want +got):\n%s", diff)
	}
	if err == nil {
		testCase.Error("expected the malformed line to be reported")
	}
}

func TestLoadDevSet_Missing(testCase *testing.T) {
	if _, err := LoadDevSet(testCase.TempDir() + "/dev.jsonl"); err == nil {
		testCase.Fatal("expected an error for a missing dev set")
	}
}

func TestRunner_Run(testCase *testing.T) {
	full := &stubEngine{words: 100}
	half := &stubEngine{words: 2}
	runner := NewRunner(
		[]NamedEngine{{Name: "langchain", Engine: full}, {Name: "langgraph", Engine: half}},
		WithPreprocess(preprocess.Options{SectionsEnabled: false, BudgetChars: 1000}, 0),
		WithConcurrency(3),
	)

	examples := []Example{
		{Text: "alpha beta gamma delta"},
		{Text: "epsilon zeta theta iota"},
		{Text: "kappa lambda"},
	}
	report, err := runner.Run(context.Background(), examples)
	if err != nil {
		testCase.Fatalf("Run: %v", err)
	}

	type cell struct {
		Example int
		Engine  string
		F1      float64
	}
	var got []cell
	for _, outcome := range report.Outcomes {
		got = append(got, cell{outcome.Example, outcome.Engine, outcome.F1})
	}
	want := []cell{
		{1, "langchain", 1}, {1, "langgraph", 0.667},
		{2, "langchain", 1}, {2, "langgraph", 0.667},
		{3, "langchain", 1}, {3, "langgraph", 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		testCase.Errorf("outcomes mismatch (-want +got):\n%s", diff)
	}

	means := report.MeanF1()
	if means["langchain"] != 1 || means["langgraph"] != 0.778 {
		testCase.Errorf("means = %v", means)
	}
	if report.Failed() != nil {
		testCase.Errorf("Failed = %v", report.Failed())
	}
	if len(full.inputs) != 3 || len(half.inputs) != 3 {
		testCase.Errorf("engine calls = %d, %d", len(full.inputs), len(half.inputs))
	}
}

func TestRunner_EngineFailureIsKept(testCase *testing.T) {
	runner := NewRunner([]NamedEngine{
		{Name: "langchain", Engine: &stubEngine{words: 3}},
		{Name: "langgraph", Engine: &stubEngine{err: errors.New("boom")}},
	})

	report, err := runner.Run(context.Background(), []Example{{Text: "alpha beta gamma"}})
	if err != nil {
		testCase.Fatalf("Run: %v", err)
	}
	if len(report.Outcomes) != 2 || report.Outcomes[1].Err == nil {
		testCase.Fatalf("outcomes = %+v", report.Outcomes)
	}
	if err := report.Failed(); err == nil || !strings.Contains(err.Error(), "example 1, langgraph: boom") {
		testCase.Errorf("Failed = %v", err)
	}
	if _, ok := report.MeanF1()["langgraph"]; ok {
		testCase.Error("failed engine should have no mean")
	}

	var buffer bytes.Buffer
	if err := report.Render(&buffer, false); err != nil {
		testCase.Fatalf("Render: %v", err)
	}
	if !strings.Contains(buffer.String(), "error") {
		testCase.Errorf("failed row not rendered:\n%s", buffer.String())
	}
}

func TestRunner_Cancelled(testCase *testing.T) {
	runner := NewRunner([]NamedEngine{{Name: "langchain", Engine: &stubEngine{words: 1}}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := runner.Run(ctx, []Example{{Text: "alpha"}}); !errors.Is(err, context.Canceled) {
		testCase.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestReport_Render(testCase *testing.T) {
	report := &Report{
		engines: []string{"langchain", "langgraph"},
		Outcomes: []Outcome{
			{Example: 1, Engine: "langchain", F1: 0.5, Result: &analysis.Result{LatencySeconds: 1.234}},
			{Example: 1, Engine: "langgraph", F1: 0.25, Result: &analysis.Result{JudgeAggregate: 0.7, CriticLoops: 1}},
		},
	}

	var buffer bytes.Buffer
	if err := report.Render(&buffer, false); err != nil {
		testCase.Fatalf("Render: %v", err)
	}
	out := strings.ToLower(buffer.String())
	for _, fragment := range []string{"example", "langchain", "langgraph", "0.500", "0.250", "1.23", "0.700", "mean"} {
		if !strings.Contains(out, fragment) {
			testCase.Errorf("render is missing %q:\n%s", fragment, out)
		}
	}
}

func TestReport_RenderMarkdown(testCase *testing.T) {
	report := &Report{
		engines:  []string{"langgraph"},
		Outcomes: []Outcome{{Example: 1, Engine: "langgraph", F1: 0.25, Result: &analysis.Result{}}},
	}

	var buffer bytes.Buffer
	if err := report.Render(&buffer, true); err != nil {
		testCase.Fatalf("Render: %v", err)
	}
	if !strings.Contains(strings.ToLower(buffer.String()), "| example |") {
		testCase.Errorf("not a markdown table:\n%s", buffer.String())
	}
}
