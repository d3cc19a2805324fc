package graph

import (
	"context"
	"fmt"
	"time"
)

// Run executes the graph against state, starting at the entry point and
// following edges until End. Nodes run sequentially on the calling goroutine.
//
// The returned Trace lists every node execution, including a failing one.
// Run returns an error when a node or router fails, when the context is
// cancelled, or when the step limit is reached (ErrMaxStepsExceeded).
func (graph *Graph[S]) Run(ctx context.Context, state *S) (Trace, error) {
	if state == nil {
		return nil, ErrNilState
	}

	runStart := time.Now()

	if graph.config.executionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, graph.config.executionTimeout)
		defer cancel()
	}

	observer := graph.startRunObservation(&ctx)

	trace := make(Trace, 0, len(graph.nodes))
	current := graph.entry

	for step := 0; current != End; step++ {
		if step >= graph.config.maxSteps {
			err := fmt.Errorf("%w: limit %d reached before node %q", ErrMaxStepsExceeded, graph.config.maxSteps, current)
			observer.runFailed(ctx, err, time.Since(runStart))
			return trace, err
		}

		if err := ctx.Err(); err != nil {
			err = fmt.Errorf("graph run interrupted before node %q: %w", current, err)
			observer.runFailed(ctx, err, time.Since(runStart))
			return trace, err
		}

		visit := graph.executeNode(ctx, observer, current, step, state)
		trace = append(trace, visit)

		if graph.config.onVisit != nil {
			graph.config.onVisit(ctx, visit)
		}

		if visit.Err != nil {
			observer.runFailed(ctx, visit.Err, time.Since(runStart))
			return trace, visit.Err
		}

		current = visit.Next
	}

	observer.runCompleted(ctx, len(trace), time.Since(runStart))

	return trace, nil
}

// executeNode runs one node and resolves its successor.
func (graph *Graph[S]) executeNode(ctx context.Context, observer runObserver, nodeID string, step int, state *S) Visit {
	graphNode := graph.nodes[nodeID]
	visit := Visit{Step: step, Node: nodeID}

	nodeCtx := observer.nodeStarted(ctx, nodeID, step)

	runCtx := nodeCtx
	if graphNode.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(nodeCtx, graphNode.timeout)
		defer cancel()
	}

	start := time.Now()
	err := graphNode.fn(runCtx, state)
	visit.Duration = time.Since(start)

	if err != nil {
		visit.Err = fmt.Errorf("node %q: %w", nodeID, err)
		observer.nodeFailed(nodeCtx, nodeID, visit.Err, visit.Duration)
		return visit
	}

	visit.Next, visit.Branch, visit.Err = graph.resolveNext(ctx, nodeID, state)
	if visit.Err != nil {
		observer.nodeFailed(nodeCtx, nodeID, visit.Err, visit.Duration)
		return visit
	}

	observer.nodeCompleted(nodeCtx, visit)
	return visit
}

func (graph *Graph[S]) resolveNext(ctx context.Context, nodeID string, state *S) (string, string, error) {
	if target, ok := graph.next[nodeID]; ok {
		return target, "", nil
	}

	branching := graph.conditionals[nodeID]
	branch, err := branching.router(ctx, state)
	if err != nil {
		return "", branch, fmt.Errorf("router of node %q: %w", nodeID, err)
	}

	target, ok := branching.branches[branch]
	if !ok {
		return "", branch, fmt.Errorf("%w: node %q chose %q", ErrUnknownBranch, nodeID, branch)
	}
	return target, branch, nil
}
