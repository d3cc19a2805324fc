package analysis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/MerlinChiodo/multi-agent-orchestration/core/guard"
	"github.com/MerlinChiodo/multi-agent-orchestration/telemetry"
)

const (
	stageReader     = "reader"
	stageSummarizer = "summarizer"
	stageCritic     = "critic"
	stageJudge      = "judge"
	stageIntegrator = "integrator"
)

// promptStages maps the opening words of each prompt to its stage.
var promptStages = map[string]string{
	"You are a precise scientific note-taker": stageReader,
	"Produce a concise scientific summary":    stageSummarizer,
	"You are a rigorous scientific reviewer":  stageCritic,
	"Score the SUMMARY against NOTES":         stageJudge,
	"Create an executive Meta Summary":        stageIntegrator,
}

// scriptedCompleter answers by stage. Stages listed in block wait for
// cancellation instead of answering.
type scriptedCompleter struct {
	mu      sync.Mutex
	replies map[string]string
	errs    map[string]error
	block   map[string]bool
	calls   map[string]int
}

func (completer *scriptedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	stage := "unknown"
	for prefix, name := range promptStages {
		if strings.HasPrefix(prompt, prefix) {
			stage = name
			break
		}
	}

	completer.mu.Lock()
	if completer.calls == nil {
		completer.calls = make(map[string]int)
	}
	completer.calls[stage]++
	reply, err, block := completer.replies[stage], completer.errs[stage], completer.block[stage]
	completer.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return reply, err
}

func (completer *scriptedCompleter) count(stage string) int {
	completer.mu.Lock()
	defer completer.mu.Unlock()
	return completer.calls[stage]
}

type recordingSink struct {
	mu   sync.Mutex
	rows []*telemetry.Row
	err  error
}

func (sink *recordingSink) Write(_ context.Context, row *telemetry.Row) error {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	sink.rows = append(sink.rows, row)
	return sink.err
}

func (sink *recordingSink) Close() error { return nil }

const document = `Abstract
We study graph based orchestration of language model agents for scientific document analysis.

Methods
A reader extracts notes, a summarizer writes a summary, and a critic reviews it against the notes.

Results
Objective: test. Results: accuracy 90%. The pipeline finished every run within the time budget.`

const testNotes = "Objective: test. Results: accuracy 90%. Method: graph orchestration of reader, summarizer and critic agents."

const testSummary = "Objective: test the graph orchestration. Results: accuracy 90% with reader, summarizer and critic agents working together."

func healthyCompleter() *scriptedCompleter {
	return &scriptedCompleter{replies: map[string]string{
		stageReader:     testNotes,
		stageSummarizer: testSummary,
		stageCritic:     "Coverage: 4\nFaithfulness: 4",
		stageJudge:      "4",
		stageIntegrator: "Meta: the orchestration reaches 90% accuracy.",
	}}
}

func TestNew_NilClient(testCase *testing.T) {
	if _, err := New(nil); err == nil {
		testCase.Fatal("expected an error for a nil client")
	}
}

func TestPipeline_Run_EndToEnd(testCase *testing.T) {
	completer := healthyCompleter()
	sink := &recordingSink{}
	pipeline, err := New(completer, WithSink(sink), WithModel("test-model"), WithTranslator("en", "ultra_short"))
	if err != nil {
		testCase.Fatalf("New: %v", err)
	}

	result, err := pipeline.Run(context.Background(), document)
	if err != nil {
		testCase.Fatalf("Run: %v", err)
	}

	if result.Meta == "" {
		testCase.Error("meta must not be empty")
	}
	if result.Engine != Engine || result.Model != "test-model" || result.RunID == "" {
		testCase.Errorf("identity = (%q, %q, %q)", result.Engine, result.Model, result.RunID)
	}
	if result.CriticLoops != 0 {
		testCase.Errorf("CriticLoops = %d, want 0", result.CriticLoops)
	}
	if result.CriticScore != 0.8 || result.JudgeScore != 4 {
		testCase.Errorf("scores = critic %v judge %v", result.CriticScore, result.JudgeScore)
	}
	if result.QualityF1 <= 0 || result.QualityF1 > 1 {
		testCase.Errorf("QualityF1 = %v, want (0,1]", result.QualityF1)
	}
	if want := Aggregate(result.QualityF1, result.JudgeScore, result.CriticScore); result.JudgeAggregate != want {
		testCase.Errorf("JudgeAggregate = %v, want %v", result.JudgeAggregate, want)
	}
	if !strings.HasPrefix(result.SummaryTranslated, "[EN] ") {
		testCase.Errorf("SummaryTranslated = %q", result.SummaryTranslated)
	}
	if result.Keywords == "" {
		testCase.Error("keywords must not be empty")
	}
	if len(result.TimedOutStages) != 0 || len(result.FailedStages) != 0 {
		testCase.Errorf("unexpected degraded stages: %v %v", result.TimedOutStages, result.FailedStages)
	}
	if !strings.Contains(result.GraphDOT, "LLM Judge\\n4.0/5") {
		testCase.Errorf("GraphDOT does not carry the run values:\n%s", result.GraphDOT)
	}

	for name, seconds := range map[string]float64{
		"reader": result.ReaderSeconds, "summarizer": result.SummarizerSeconds, "critic": result.CriticSeconds,
		"translator": result.TranslatorSeconds, "keyword": result.KeywordSeconds, "integrator": result.IntegratorSeconds,
		"latency": result.LatencySeconds,
	} {
		if seconds < 0 {
			testCase.Errorf("%s timing = %v, want >= 0", name, seconds)
		}
	}

	nodes := make([]string, len(result.Trace))
	for i, step := range result.Trace {
		nodes[i] = step.Node
	}
	wantNodes := []string{
		NodeRetriever, NodeReader, NodeSummarizer, NodeTranslator, NodeKeyword,
		NodeCritic, NodeQuality, NodeJudge, NodeAggregator, NodeIntegrator,
	}
	if diff := cmp.Diff(wantNodes, nodes); diff != "" {
		testCase.Errorf("trace mismatch (-want +got):\n%s", diff)
	}

	if len(sink.rows) != 1 {
		testCase.Fatalf("telemetry rows = %d, want 1", len(sink.rows))
	}
	wantFields := []string{
		"engine", "input_chars", "summary_len", "meta_len", "latency_s",
		"reader_s", "summarizer_s", "critic_s", "translator_s", "keyword_s", "integrator_s",
		"quality_f1", "judge_score", "judge_aggregate", "critic_score", "critic_loops", "run_id",
	}
	if diff := cmp.Diff(wantFields, sink.rows[0].Fields()); diff != "" {
		testCase.Errorf("telemetry fields (-want +got):\n%s", diff)
	}
	if got := sink.rows[0].Value("run_id"); got != result.RunID {
		testCase.Errorf("telemetry run_id = %q, want %q", got, result.RunID)
	}
}

func TestPipeline_Run_ReworkLoopIsBounded(testCase *testing.T) {
	tests := []struct {
		name      string
		maxLoops  int
		wantLoops int
	}{
		{name: "disabled", maxLoops: 0, wantLoops: 0},
		{name: "negative disables", maxLoops: -1, wantLoops: 0},
		{name: "one pass", maxLoops: 1, wantLoops: 1},
		{name: "three passes", maxLoops: 3, wantLoops: 3},
	}

	for _, test := range tests {
		testCase.Run(test.name, func(testCase *testing.T) {
			completer := healthyCompleter()
			completer.replies[stageCritic] = "Coverage: 1"

			pipeline, err := New(completer, WithMaxCriticLoops(test.maxLoops))
			if err != nil {
				testCase.Fatalf("New: %v", err)
			}
			result, err := pipeline.Run(context.Background(), document)
			if err != nil {
				testCase.Fatalf("Run: %v", err)
			}

			if result.CriticLoops != test.wantLoops {
				testCase.Errorf("CriticLoops = %d, want %d", result.CriticLoops, test.wantLoops)
			}
			if got := completer.count(stageSummarizer); got != test.wantLoops+1 {
				testCase.Errorf("summarizer calls = %d, want %d", got, test.wantLoops+1)
			}
			if got := completer.count(stageCritic); got != test.wantLoops+1 {
				testCase.Errorf("critic calls = %d, want %d", got, test.wantLoops+1)
			}
			if result.Meta == "" {
				testCase.Error("meta must not be empty")
			}
		})
	}
}

func TestPipeline_Run_ShortSummarySkipsQuality(testCase *testing.T) {
	completer := healthyCompleter()
	completer.replies[stageSummarizer] = "Accuracy 90%."

	pipeline, err := New(completer)
	if err != nil {
		testCase.Fatalf("New: %v", err)
	}
	result, err := pipeline.Run(context.Background(), document)
	if err != nil {
		testCase.Fatalf("Run: %v", err)
	}

	for _, step := range result.Trace {
		if step.Node == NodeQuality {
			testCase.Fatal("quality node ran for a short summary")
		}
	}
	if result.QualityF1 != 0 {
		testCase.Errorf("QualityF1 = %v, want 0", result.QualityF1)
	}
	if want := Aggregate(0, 4, 0.8); result.JudgeAggregate != want {
		testCase.Errorf("JudgeAggregate = %v, want %v", result.JudgeAggregate, want)
	}
}

func TestPipeline_Run_TimeoutPropagatesSentinel(testCase *testing.T) {
	completer := healthyCompleter()
	completer.block = map[string]bool{stageReader: true}

	pipeline, err := New(completer, WithTimeout(0.2), WithMaxCriticLoops(0))
	if err != nil {
		testCase.Fatalf("New: %v", err)
	}

	start := time.Now()
	result, err := pipeline.Run(context.Background(), document)
	elapsed := time.Since(start)
	if err != nil {
		testCase.Fatalf("Run: %v", err)
	}

	// The timeout is raised to the one second floor.
	if elapsed < time.Second || elapsed > 5*time.Second {
		testCase.Errorf("run took %v, want about one second", elapsed)
	}
	if result.Structured != guard.Sentinel {
		testCase.Errorf("Structured = %q, want the sentinel", result.Structured)
	}
	if diff := cmp.Diff([]string{NodeReader}, result.TimedOutStages); diff != "" {
		testCase.Errorf("TimedOutStages (-want +got):\n%s", diff)
	}
	if result.Meta == "" {
		testCase.Error("downstream stages must still run")
	}
}

func TestPipeline_Run_FailuresDegrade(testCase *testing.T) {
	completer := healthyCompleter()
	completer.errs = map[string]error{
		stageCritic: errors.New("upstream returned 503"),
		stageJudge:  errors.New("upstream returned 503"),
	}
	sink := &recordingSink{err: errors.New("disk full")}

	pipeline, err := New(completer, WithSink(sink))
	if err != nil {
		testCase.Fatalf("New: %v", err)
	}
	result, err := pipeline.Run(context.Background(), document)
	if err != nil {
		testCase.Fatalf("Run: %v", err)
	}

	if result.Critic != FailureText(NodeCritic) {
		testCase.Errorf("Critic = %q", result.Critic)
	}
	if result.JudgeScore != 0 {
		testCase.Errorf("JudgeScore = %v, want 0", result.JudgeScore)
	}
	// Without a parsable critique the score falls back to an F1 that has not
	// been computed yet, so the single rework pass is taken.
	if result.CriticLoops != 1 {
		testCase.Errorf("CriticLoops = %d, want 1", result.CriticLoops)
	}
	wantFailed := []string{NodeCritic, NodeCritic, NodeJudge}
	if diff := cmp.Diff(wantFailed, result.FailedStages); diff != "" {
		testCase.Errorf("FailedStages (-want +got):\n%s", diff)
	}
	if result.Meta == "" {
		testCase.Error("meta must not be empty")
	}
	if len(sink.rows) != 1 {
		testCase.Errorf("telemetry rows = %d, want 1", len(sink.rows))
	}
}

func TestPipeline_Run_CancelledContext(testCase *testing.T) {
	pipeline, err := New(healthyCompleter())
	if err != nil {
		testCase.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := pipeline.Run(ctx, document); !errors.Is(err, context.Canceled) {
		testCase.Fatalf("Run error = %v, want context.Canceled", err)
	}
}

func TestPipeline_ConcurrentRuns(testCase *testing.T) {
	pipeline, err := New(healthyCompleter())
	if err != nil {
		testCase.Fatalf("New: %v", err)
	}

	var wg sync.WaitGroup
	results := make([]*Result, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := pipeline.Run(context.Background(), document)
			if err != nil {
				testCase.Errorf("Run %d: %v", i, err)
				return
			}
			results[i] = result
		}()
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, result := range results {
		if result == nil {
			continue
		}
		if seen[result.RunID] {
			testCase.Errorf("duplicate run id %s", result.RunID)
		}
		seen[result.RunID] = true
	}
}
