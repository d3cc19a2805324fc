package graph

import (
	"context"
	"errors"
	"time"

	"github.com/MerlinChiodo/multi-agent-orchestration/providers/observability"
)

// End is the terminal pseudo-node. An edge to End finishes the run.
const End = "__end__"

// DefaultMaxSteps bounds the number of node executions per run when no
// WithMaxSteps option is given.
const DefaultMaxSteps = 25

var (
	// ErrMaxStepsExceeded is returned by Run when a cycle keeps the graph from
	// reaching End within the step limit.
	ErrMaxStepsExceeded = errors.New("graph: maximum steps exceeded")

	// ErrUnknownNode is reported by Build when an edge or the entry point names a
	// node that was never added.
	ErrUnknownNode = errors.New("graph: unknown node")

	// ErrUnknownBranch is returned by Run when a router picks a branch that has
	// no registered target.
	ErrUnknownBranch = errors.New("graph: router returned an unknown branch")

	// ErrNilState is returned by Run when no state is supplied.
	ErrNilState = errors.New("graph: state must not be nil")
)

// NodeFunc is the processing logic of one node. It reads and writes the run's
// state in place. A returned error aborts the run.
type NodeFunc[S any] func(ctx context.Context, state *S) error

// Router decides which branch of a conditional edge to follow after its source
// node ran. It may update bookkeeping fields of the state, such as loop
// counters.
type Router[S any] func(ctx context.Context, state *S) (string, error)

// EdgeStyle is a rendering hint for diagrams.
type EdgeStyle string

const (
	EdgeSolid  EdgeStyle = "solid"
	EdgeDashed EdgeStyle = "dashed"
	EdgeDotted EdgeStyle = "dotted"
)

// Branch is one outcome of a conditional edge.
type Branch struct {
	// Name is the value the router returns to select this branch.
	Name string

	// To is the target node ID, or End.
	To string

	// Label is shown on the edge in diagrams. Defaults to Name.
	Label string

	// Style is the diagram style of the edge. Defaults to EdgeSolid.
	Style EdgeStyle
}

// Visit records one node execution.
type Visit struct {
	Step     int
	Node     string
	Duration time.Duration
	// Branch is the router's choice when the node has a conditional edge.
	Branch string
	Next   string
	Err    error
}

// Trace is the ordered list of visits of one run.
type Trace []Visit

// Nodes returns the visited node IDs in order.
func (trace Trace) Nodes() []string {
	nodes := make([]string, len(trace))
	for index, visit := range trace {
		nodes[index] = visit.Node
	}
	return nodes
}

// Count reports how many times nodeID ran.
func (trace Trace) Count(nodeID string) int {
	count := 0
	for _, visit := range trace {
		if visit.Node == nodeID {
			count++
		}
	}
	return count
}

type node[S any] struct {
	id      string
	label   string
	fn      NodeFunc[S]
	timeout time.Duration
}

type edge struct {
	from   string
	to     string
	label  string
	style  EdgeStyle
	branch string
}

type conditional[S any] struct {
	router   Router[S]
	branches map[string]string
}

type graphConfig struct {
	maxSteps         int
	executionTimeout time.Duration
	observer         observability.Provider
	onVisit          func(context.Context, Visit)
}

// Graph is a validated state machine over a state of type S. Nodes run one at
// a time; after each node the outgoing static edge or the router of its
// conditional edge selects the next node, until End is reached.
//
// A Graph holds no per-run data and is safe for concurrent Run calls, provided
// each call gets its own state.
type Graph[S any] struct {
	nodes        map[string]*node[S]
	nodeOrder    []string
	next         map[string]string
	conditionals map[string]*conditional[S]
	edges        []*edge
	entry        string
	config       *graphConfig
}

// Entry returns the ID of the first node.
func (graph *Graph[S]) Entry() string {
	return graph.entry
}

// MaxSteps returns the effective step limit.
func (graph *Graph[S]) MaxSteps() int {
	return graph.config.maxSteps
}
