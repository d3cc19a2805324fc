package graph

import (
	"errors"
	"fmt"
	"sort"
)

// Builder constructs a validated Graph[S] using a fluent API. Problems found
// while adding nodes and edges are accumulated and reported together by Build.
//
// Example:
//
//	g, err := graph.NewBuilder[State]().
//	    AddNode("draft", draft).
//	    AddNode("review", review).
//	    SetEntryPoint("draft").
//	    AddEdge("draft", "review").
//	    AddConditionalEdges("review", decide,
//	        graph.Branch{Name: "again", To: "draft", Style: graph.EdgeDotted},
//	        graph.Branch{Name: "done", To: graph.End},
//	    ).
//	    Build()
type Builder[S any] struct {
	config       *graphConfig
	nodes        map[string]*node[S]
	nodeOrder    []string
	next         map[string]string
	conditionals map[string]*conditional[S]
	edges        []*edge
	entry        string
	buildErrors  []error
}

// NewBuilder creates an empty Builder. Graph-level options apply to every run.
func NewBuilder[S any](opts ...Option) *Builder[S] {
	config := &graphConfig{maxSteps: DefaultMaxSteps}
	for _, opt := range opts {
		opt(config)
	}

	return &Builder[S]{
		config:       config,
		nodes:        make(map[string]*node[S]),
		next:         make(map[string]string),
		conditionals: make(map[string]*conditional[S]),
	}
}

// AddNode registers a node. IDs must be unique and must not collide with End.
func (builder *Builder[S]) AddNode(nodeID string, fn NodeFunc[S], opts ...NodeOption) *Builder[S] {
	switch {
	case nodeID == "":
		builder.buildErrors = append(builder.buildErrors, errors.New("node ID must not be empty"))
		return builder
	case nodeID == End:
		builder.buildErrors = append(builder.buildErrors, fmt.Errorf("node ID %q is reserved", End))
		return builder
	case fn == nil:
		builder.buildErrors = append(builder.buildErrors, fmt.Errorf("node function must not be nil for node %q", nodeID))
		return builder
	}

	if _, exists := builder.nodes[nodeID]; exists {
		builder.buildErrors = append(builder.buildErrors, fmt.Errorf("duplicate node ID %q", nodeID))
		return builder
	}

	settings := &nodeSettings{label: nodeID}
	for _, opt := range opts {
		opt(settings)
	}

	builder.nodes[nodeID] = &node[S]{
		id:      nodeID,
		label:   settings.label,
		fn:      fn,
		timeout: settings.timeout,
	}
	builder.nodeOrder = append(builder.nodeOrder, nodeID)

	return builder
}

// SetEntryPoint names the node every run starts at.
func (builder *Builder[S]) SetEntryPoint(nodeID string) *Builder[S] {
	builder.entry = nodeID
	return builder
}

// AddEdge adds an unconditional transition. A node has either exactly one
// static edge or one set of conditional edges.
func (builder *Builder[S]) AddEdge(from, to string, opts ...EdgeOption) *Builder[S] {
	if from == "" || to == "" {
		builder.buildErrors = append(builder.buildErrors, fmt.Errorf("edge endpoints must not be empty (from=%q, to=%q)", from, to))
		return builder
	}

	if !builder.claimOutgoing(from) {
		return builder
	}

	graphEdge := &edge{from: from, to: to, style: EdgeSolid}
	for _, opt := range opts {
		opt(graphEdge)
	}

	builder.next[from] = to
	builder.edges = append(builder.edges, graphEdge)

	return builder
}

// AddConditionalEdges makes router decide the successor of from. Every branch
// name the router can return must be listed; an unlisted name fails the run
// with ErrUnknownBranch.
func (builder *Builder[S]) AddConditionalEdges(from string, router Router[S], branches ...Branch) *Builder[S] {
	if router == nil {
		builder.buildErrors = append(builder.buildErrors, fmt.Errorf("router must not be nil for node %q", from))
		return builder
	}
	if len(branches) == 0 {
		builder.buildErrors = append(builder.buildErrors, fmt.Errorf("conditional edges of node %q need at least one branch", from))
		return builder
	}
	if !builder.claimOutgoing(from) {
		return builder
	}

	targets := make(map[string]string, len(branches))
	for _, branch := range branches {
		if branch.Name == "" || branch.To == "" {
			builder.buildErrors = append(builder.buildErrors, fmt.Errorf("branch of node %q must have a name and a target", from))
			continue
		}
		if _, exists := targets[branch.Name]; exists {
			builder.buildErrors = append(builder.buildErrors, fmt.Errorf("duplicate branch %q on node %q", branch.Name, from))
			continue
		}
		targets[branch.Name] = branch.To

		label := branch.Label
		if label == "" {
			label = branch.Name
		}
		style := branch.Style
		if style == "" {
			style = EdgeSolid
		}
		builder.edges = append(builder.edges, &edge{
			from:   from,
			to:     branch.To,
			label:  label,
			style:  style,
			branch: branch.Name,
		})
	}

	builder.conditionals[from] = &conditional[S]{router: router, branches: targets}

	return builder
}

func (builder *Builder[S]) claimOutgoing(from string) bool {
	_, hasStatic := builder.next[from]
	_, hasConditional := builder.conditionals[from]
	if hasStatic || hasConditional {
		builder.buildErrors = append(builder.buildErrors, fmt.Errorf("node %q already has an outgoing transition", from))
		return false
	}
	return true
}

// Build validates the graph and returns it. All structural problems are
// reported at once:
//
//  1. errors accumulated by AddNode, AddEdge and AddConditionalEdges
//  2. a missing or unknown entry point
//  3. edges whose endpoints were never added
//  4. nodes without an outgoing transition
//  5. nodes not reachable from the entry point
//
// Cycles are allowed; WithMaxSteps bounds them at run time.
func (builder *Builder[S]) Build() (*Graph[S], error) {
	errs := append([]error(nil), builder.buildErrors...)

	if len(builder.nodes) == 0 {
		errs = append(errs, errors.New("graph must contain at least one node"))
	}

	switch {
	case builder.entry == "":
		errs = append(errs, errors.New("entry point is not set"))
	case builder.nodes[builder.entry] == nil:
		errs = append(errs, fmt.Errorf("%w: entry point %q", ErrUnknownNode, builder.entry))
	}

	errs = append(errs, builder.validateEdges()...)
	errs = append(errs, builder.validateTransitions()...)

	if len(errs) == 0 {
		if unreachable := builder.unreachableNodes(); len(unreachable) > 0 {
			errs = append(errs, fmt.Errorf("nodes not reachable from %q: %v", builder.entry, unreachable))
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("graph build errors: %w", errors.Join(errs...))
	}

	return &Graph[S]{
		nodes:        builder.nodes,
		nodeOrder:    builder.nodeOrder,
		next:         builder.next,
		conditionals: builder.conditionals,
		edges:        builder.edges,
		entry:        builder.entry,
		config:       builder.config,
	}, nil
}

func (builder *Builder[S]) validateEdges() []error {
	var errs []error
	for _, graphEdge := range builder.edges {
		if builder.nodes[graphEdge.from] == nil {
			errs = append(errs, fmt.Errorf("%w: edge source %q", ErrUnknownNode, graphEdge.from))
		}
		if graphEdge.to != End && builder.nodes[graphEdge.to] == nil {
			errs = append(errs, fmt.Errorf("%w: edge target %q", ErrUnknownNode, graphEdge.to))
		}
	}
	return errs
}

func (builder *Builder[S]) validateTransitions() []error {
	var errs []error
	for _, nodeID := range builder.nodeOrder {
		_, hasStatic := builder.next[nodeID]
		_, hasConditional := builder.conditionals[nodeID]
		if !hasStatic && !hasConditional {
			errs = append(errs, fmt.Errorf("node %q has no outgoing transition; add an edge to graph.End", nodeID))
		}
	}
	return errs
}

// unreachableNodes walks the edges breadth-first from the entry point.
func (builder *Builder[S]) unreachableNodes() []string {
	adjacency := make(map[string][]string, len(builder.nodes))
	for _, graphEdge := range builder.edges {
		adjacency[graphEdge.from] = append(adjacency[graphEdge.from], graphEdge.to)
	}

	visited := map[string]bool{builder.entry: true}
	queue := []string{builder.entry}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, neighbor := range adjacency[current] {
			if !visited[neighbor] {
				visited[neighbor] = true
				queue = append(queue, neighbor)
			}
		}
	}

	var unreachable []string
	for nodeID := range builder.nodes {
		if !visited[nodeID] {
			unreachable = append(unreachable, nodeID)
		}
	}
	sort.Strings(unreachable)
	return unreachable
}
