// Package graph implements a small state machine for orchestrating multi-step
// LLM workflows over a typed state.
//
// Nodes are functions that read and update a *S in place. After a node runs,
// either its single static edge or the router of its conditional edges picks
// the next node. Routers return a branch name, and every branch name maps to a
// registered target, so an unexpected decision fails the run with
// [ErrUnknownBranch] instead of silently falling through. Cycles are allowed
// and bounded by [WithMaxSteps].
//
// The main entry points are [NewBuilder] to construct and validate a graph and
// [Graph.Run] to execute it. [Graph.Topology] exposes the structure for
// rendering as a Mermaid flowchart.
//
//	g, err := graph.NewBuilder[State](graph.WithObserver(observer)).
//	    AddNode("draft", draftNode).
//	    AddNode("review", reviewNode).
//	    SetEntryPoint("draft").
//	    AddEdge("draft", "review").
//	    AddConditionalEdges("review", decide,
//	        graph.Branch{Name: "again", To: "draft", Label: "rework", Style: graph.EdgeDotted},
//	        graph.Branch{Name: "done", To: graph.End},
//	    ).
//	    Build()
//
//	state := &State{Input: text}
//	trace, err := g.Run(ctx, state)
package graph
