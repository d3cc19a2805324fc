package overview

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/MerlinChiodo/multi-agent-orchestration/providers/ai"
)

func TestOverviewFromContext_CreatesOnce(t *testing.T) {
	ctx := context.Background()

	first := OverviewFromContext(&ctx)
	second := OverviewFromContext(&ctx)

	if first == nil || first != second {
		t.Fatal("expected the same Overview instance on repeated lookups")
	}
	if FromContext(ctx) != first {
		t.Error("FromContext should see the Overview stored by OverviewFromContext")
	}
}

func TestFromContext_Missing(t *testing.T) {
	if FromContext(context.Background()) != nil {
		t.Error("expected nil Overview for a bare context")
	}
}

func TestOverview_RecordAndSummary(t *testing.T) {
	overview := New()
	overview.StartExecution()

	overview.RecordResponse(&ai.ChatResponse{Model: "qwen2.5:1.5b", Usage: &ai.Usage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120}})
	overview.RecordResponse(&ai.ChatResponse{Model: "qwen2.5:1.5b", Usage: &ai.Usage{PromptTokens: 50, CompletionTokens: 5, TotalTokens: 55}})
	overview.RecordResponse(&ai.ChatResponse{})
	overview.RecordFailure()

	time.Sleep(time.Millisecond)
	overview.EndExecution()

	summary := overview.Summary()
	if summary.ExecutionTime <= 0 {
		t.Error("execution time should be positive after Start/End")
	}
	summary.ExecutionTime = 0

	want := Summary{
		TotalUsage: ai.Usage{PromptTokens: 150, CompletionTokens: 25, TotalTokens: 175},
		Calls:      4,
		Failures:   1,
		Models:     map[string]int{"qwen2.5:1.5b": 2},
	}
	if diff := cmp.Diff(want, summary); diff != "" {
		t.Errorf("Summary mismatch (-want +got):\n%s", diff)
	}
}

func TestOverview_ConcurrentRecording(t *testing.T) {
	overview := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			overview.RecordResponse(&ai.ChatResponse{Usage: &ai.Usage{TotalTokens: 2}})
		}()
	}
	wg.Wait()

	summary := overview.Summary()
	if summary.Calls != 50 || summary.TotalUsage.TotalTokens != 100 {
		t.Errorf("unexpected summary after concurrent writes: %+v", summary)
	}
}
