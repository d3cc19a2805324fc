package overview

import (
	"context"
	"sync"
	"time"

	"github.com/MerlinChiodo/multi-agent-orchestration/providers/ai"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// overviewContextKey is the key used to store Overview in context.
const overviewContextKey contextKey = "overview"

// Overview aggregates model-call statistics for one pipeline execution. It is
// safe for concurrent use: guarded calls may still finish on their own
// goroutine after the pipeline has moved on.
type Overview struct {
	mu sync.Mutex

	totalUsage ai.Usage
	calls      int
	failures   int
	models     map[string]int

	executionStartTime time.Time
	executionEndTime   time.Time
}

// Summary is an immutable snapshot of an Overview, suitable for JSON output.
type Summary struct {
	TotalUsage    ai.Usage       `json:"total_usage"`
	Calls         int            `json:"calls"`
	Failures      int            `json:"failures"`
	Models        map[string]int `json:"models,omitempty"`
	ExecutionTime time.Duration  `json:"execution_time_ns,omitempty"`
}

// New creates an empty Overview.
func New() *Overview {
	return &Overview{models: make(map[string]int)}
}

// OverviewFromContext retrieves the Overview from the context, creating one if
// it does not already exist. The context pointer is updated in-place when a new
// Overview is created so callers see the enriched context.
func OverviewFromContext(ctx *context.Context) *Overview {
	if existing := FromContext(*ctx); existing != nil {
		return existing
	}

	overview := New()
	*ctx = overview.ToContext(*ctx)
	return overview
}

// FromContext returns the Overview stored in ctx, or nil.
func FromContext(ctx context.Context) *Overview {
	if ctx == nil {
		return nil
	}
	overview, _ := ctx.Value(overviewContextKey).(*Overview)
	return overview
}

// ToContext stores the Overview in the given context and returns the enriched context.
func (overview *Overview) ToContext(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithValue(ctx, overviewContextKey, overview)
}

// RecordResponse counts a successful model call and accumulates its usage.
func (overview *Overview) RecordResponse(response *ai.ChatResponse) {
	overview.mu.Lock()
	defer overview.mu.Unlock()

	overview.calls++
	if response == nil {
		return
	}
	if response.Model != "" {
		overview.models[response.Model]++
	}
	if usage := response.Usage; usage != nil {
		overview.totalUsage.PromptTokens += usage.PromptTokens
		overview.totalUsage.CompletionTokens += usage.CompletionTokens
		overview.totalUsage.TotalTokens += usage.TotalTokens
	}
}

// RecordFailure counts a model call that returned an error.
func (overview *Overview) RecordFailure() {
	overview.mu.Lock()
	defer overview.mu.Unlock()

	overview.calls++
	overview.failures++
}

// StartExecution marks the start of the execution.
func (overview *Overview) StartExecution() {
	overview.mu.Lock()
	defer overview.mu.Unlock()
	overview.executionStartTime = time.Now()
}

// EndExecution marks the end of the execution.
func (overview *Overview) EndExecution() {
	overview.mu.Lock()
	defer overview.mu.Unlock()
	overview.executionEndTime = time.Now()
}

// Summary returns a snapshot of the collected statistics.
func (overview *Overview) Summary() Summary {
	overview.mu.Lock()
	defer overview.mu.Unlock()

	models := make(map[string]int, len(overview.models))
	for model, count := range overview.models {
		models[model] = count
	}

	summary := Summary{
		TotalUsage: overview.totalUsage,
		Calls:      overview.calls,
		Failures:   overview.failures,
		Models:     models,
	}
	if !overview.executionStartTime.IsZero() && !overview.executionEndTime.IsZero() {
		summary.ExecutionTime = overview.executionEndTime.Sub(overview.executionStartTime)
	}
	return summary
}
