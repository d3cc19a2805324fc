package graph

import (
	"context"
	"time"

	"github.com/MerlinChiodo/multi-agent-orchestration/providers/observability"
)

// Option configures graph-level behavior in NewBuilder.
type Option func(*graphConfig)

// NodeOption configures a single node in AddNode.
type NodeOption func(*nodeSettings)

// EdgeOption configures a static edge in AddEdge.
type EdgeOption func(*edge)

type nodeSettings struct {
	label   string
	timeout time.Duration
}

// WithMaxSteps limits how many node executions a single Run may perform. Cyclic
// graphs rely on it as the last line against a router that never exits. Values
// below 1 keep DefaultMaxSteps.
func WithMaxSteps(maxSteps int) Option {
	return func(config *graphConfig) {
		if maxSteps > 0 {
			config.maxSteps = maxSteps
		}
	}
}

// WithExecutionTimeout bounds a whole Run. Zero means no bound.
func WithExecutionTimeout(timeout time.Duration) Option {
	return func(config *graphConfig) {
		config.executionTimeout = timeout
	}
}

// WithObserver enables spans, metrics and logs for every run and node. Without
// it the observer found on the run's context, if any, is used.
func WithObserver(observer observability.Provider) Option {
	return func(config *graphConfig) {
		config.observer = observer
	}
}

// WithVisitHook registers a callback invoked after every node execution, in
// order, on the goroutine calling Run.
func WithVisitHook(hook func(ctx context.Context, visit Visit)) Option {
	return func(config *graphConfig) {
		config.onVisit = hook
	}
}

// WithNodeLabel sets the human-readable label used in diagrams.
func WithNodeLabel(label string) NodeOption {
	return func(settings *nodeSettings) {
		settings.label = label
	}
}

// WithNodeTimeout cancels the node's context after timeout. The node itself
// decides how to react to the cancellation.
func WithNodeTimeout(timeout time.Duration) NodeOption {
	return func(settings *nodeSettings) {
		settings.timeout = timeout
	}
}

// WithEdgeLabel sets the diagram label of a static edge.
func WithEdgeLabel(label string) EdgeOption {
	return func(graphEdge *edge) {
		graphEdge.label = label
	}
}

// WithEdgeStyle sets the diagram style of a static edge.
func WithEdgeStyle(style EdgeStyle) EdgeOption {
	return func(graphEdge *edge) {
		graphEdge.style = style
	}
}
