package graph

import (
	"context"
	"time"

	"github.com/MerlinChiodo/multi-agent-orchestration/providers/observability"
)

// Semantic conventions for graph observability attributes.
const (
	spanGraphRun         = "graph.run"
	spanGraphNodeExecute = "graph.node.execute"

	attrGraphNodeID     = "graph.node.id"
	attrGraphNodeStep   = "graph.node.step"
	attrGraphNodeStatus = "graph.node.status"
	attrGraphBranch     = "graph.branch"
	attrGraphNext       = "graph.next"
	attrGraphEntry      = "graph.entry"
	attrGraphTotalNodes = "graph.total_nodes"
	attrGraphSteps      = "graph.steps"

	metricGraphNodeDuration = "mao.graph.node.duration"
	metricGraphNodeCount    = "mao.graph.node.count"
	metricGraphRunDuration  = "mao.graph.run.duration"

	statusCompleted = "completed"
	statusFailed    = "failed"
)

// runObserver carries the observer and root span of one run. The zero value
// (nil provider) disables observability.
type runObserver struct {
	provider observability.Provider
	rootSpan observability.Span
}

// startRunObservation resolves the observer (graph option first, then the
// context), opens the root span and attaches both to ctx.
func (graph *Graph[S]) startRunObservation(ctx *context.Context) runObserver {
	provider := graph.config.observer
	if provider == nil {
		provider = observability.ObserverFromContext(*ctx)
	}
	if provider == nil {
		return runObserver{}
	}

	var rootSpan observability.Span
	*ctx, rootSpan = provider.StartSpan(*ctx, spanGraphRun,
		observability.Int(attrGraphTotalNodes, len(graph.nodes)),
		observability.String(attrGraphEntry, graph.entry),
	)
	*ctx = observability.ContextWithSpan(*ctx, rootSpan)
	*ctx = observability.ContextWithObserver(*ctx, provider)

	provider.Debug(*ctx, "graph run started",
		observability.Int(attrGraphTotalNodes, len(graph.nodes)),
		observability.String(attrGraphEntry, graph.entry),
	)

	return runObserver{provider: provider, rootSpan: rootSpan}
}

func (observer runObserver) runCompleted(ctx context.Context, steps int, duration time.Duration) {
	if observer.provider == nil {
		return
	}

	observer.provider.Histogram(metricGraphRunDuration).Record(ctx, duration.Seconds(),
		observability.String(observability.AttrStatus, statusCompleted),
	)
	observer.provider.Info(ctx, "graph run completed",
		observability.Int(attrGraphSteps, steps),
		observability.Duration(observability.AttrDuration, duration),
	)

	observer.rootSpan.SetAttributes(observability.Int(attrGraphSteps, steps))
	observer.rootSpan.SetStatus(observability.StatusOK, "graph run completed")
	observer.rootSpan.End()
}

func (observer runObserver) runFailed(ctx context.Context, runError error, duration time.Duration) {
	if observer.provider == nil {
		return
	}

	observer.provider.Histogram(metricGraphRunDuration).Record(ctx, duration.Seconds(),
		observability.String(observability.AttrStatus, statusFailed),
	)
	observer.provider.Error(ctx, "graph run failed",
		observability.Error(runError),
		observability.Duration(observability.AttrDuration, duration),
	)

	observer.rootSpan.RecordError(runError)
	observer.rootSpan.SetStatus(observability.StatusError, "graph run failed")
	observer.rootSpan.End()
}

// nodeStarted opens a child span for the node and returns the context carrying it.
func (observer runObserver) nodeStarted(ctx context.Context, nodeID string, step int) context.Context {
	if observer.provider == nil {
		return ctx
	}

	ctx, nodeSpan := observer.provider.StartSpan(ctx, spanGraphNodeExecute,
		observability.String(attrGraphNodeID, nodeID),
		observability.Int(attrGraphNodeStep, step),
	)
	ctx = observability.ContextWithSpan(ctx, nodeSpan)

	observer.provider.Debug(ctx, "node execution started",
		observability.String(attrGraphNodeID, nodeID),
		observability.Int(attrGraphNodeStep, step),
	)
	return ctx
}

func (observer runObserver) nodeCompleted(ctx context.Context, visit Visit) {
	if observer.provider == nil {
		return
	}

	observer.provider.Histogram(metricGraphNodeDuration).Record(ctx, visit.Duration.Seconds(),
		observability.String(attrGraphNodeID, visit.Node),
	)
	observer.provider.Counter(metricGraphNodeCount).Add(ctx, 1,
		observability.String(attrGraphNodeID, visit.Node),
		observability.String(attrGraphNodeStatus, statusCompleted),
	)

	logAttrs := []observability.Attribute{
		observability.String(attrGraphNodeID, visit.Node),
		observability.String(attrGraphNext, visit.Next),
		observability.Duration(observability.AttrDuration, visit.Duration),
	}
	if visit.Branch != "" {
		logAttrs = append(logAttrs, observability.String(attrGraphBranch, visit.Branch))
	}
	observer.provider.Info(ctx, "node execution completed", logAttrs...)

	if nodeSpan := observability.SpanFromContext(ctx); nodeSpan != nil {
		nodeSpan.SetAttributes(logAttrs...)
		nodeSpan.SetStatus(observability.StatusOK, "node completed")
		nodeSpan.End()
	}
}

func (observer runObserver) nodeFailed(ctx context.Context, nodeID string, nodeError error, duration time.Duration) {
	if observer.provider == nil {
		return
	}

	observer.provider.Histogram(metricGraphNodeDuration).Record(ctx, duration.Seconds(),
		observability.String(attrGraphNodeID, nodeID),
	)
	observer.provider.Counter(metricGraphNodeCount).Add(ctx, 1,
		observability.String(attrGraphNodeID, nodeID),
		observability.String(attrGraphNodeStatus, statusFailed),
	)
	observer.provider.Error(ctx, "node execution failed",
		observability.String(attrGraphNodeID, nodeID),
		observability.Error(nodeError),
		observability.Duration(observability.AttrDuration, duration),
	)

	if nodeSpan := observability.SpanFromContext(ctx); nodeSpan != nil {
		nodeSpan.RecordError(nodeError)
		nodeSpan.SetStatus(observability.StatusError, "node failed")
		nodeSpan.End()
	}
}
