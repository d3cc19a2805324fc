package graph

import (
	"fmt"
	"strings"
)

// NodeInfo describes a node for rendering.
type NodeInfo struct {
	ID    string
	Label string
}

// EdgeInfo describes a transition for rendering. Branch is empty for static
// edges.
type EdgeInfo struct {
	From   string
	To     string
	Label  string
	Style  EdgeStyle
	Branch string
}

// Topology is a read-only snapshot of a graph's structure, in insertion order.
type Topology struct {
	Entry string
	Nodes []NodeInfo
	Edges []EdgeInfo
}

// Topology returns the structure of the graph.
func (graph *Graph[S]) Topology() Topology {
	topology := Topology{
		Entry: graph.entry,
		Nodes: make([]NodeInfo, 0, len(graph.nodeOrder)),
		Edges: make([]EdgeInfo, 0, len(graph.edges)),
	}

	for _, nodeID := range graph.nodeOrder {
		topology.Nodes = append(topology.Nodes, NodeInfo{ID: nodeID, Label: graph.nodes[nodeID].label})
	}
	for _, graphEdge := range graph.edges {
		topology.Edges = append(topology.Edges, EdgeInfo{
			From:   graphEdge.from,
			To:     graphEdge.to,
			Label:  graphEdge.label,
			Style:  graphEdge.style,
			Branch: graphEdge.branch,
		})
	}

	return topology
}

// HasEdge reports whether a transition from -> to exists.
func (topology Topology) HasEdge(from, to string) bool {
	for _, edgeInfo := range topology.Edges {
		if edgeInfo.From == from && edgeInfo.To == to {
			return true
		}
	}
	return false
}

// Mermaid renders the topology as a Mermaid flowchart. Dashed and dotted edges
// both use Mermaid's dotted arrow.
func (topology Topology) Mermaid() string {
	var builder strings.Builder

	builder.WriteString("flowchart LR\n")
	for _, nodeInfo := range topology.Nodes {
		fmt.Fprintf(&builder, "  %s[%s]\n", mermaidID(nodeInfo.ID), mermaidQuote(nodeInfo.Label))
	}
	for _, edgeInfo := range topology.Edges {
		arrow := "-->"
		if edgeInfo.Style == EdgeDashed || edgeInfo.Style == EdgeDotted {
			arrow = "-.->"
		}

		to := mermaidID(edgeInfo.To)
		if edgeInfo.To == End {
			to = "END((end))"
		}

		if edgeInfo.Label != "" {
			fmt.Fprintf(&builder, "  %s %s|%s| %s\n", mermaidID(edgeInfo.From), arrow, mermaidQuote(edgeInfo.Label), to)
		} else {
			fmt.Fprintf(&builder, "  %s %s %s\n", mermaidID(edgeInfo.From), arrow, to)
		}
	}

	return strings.TrimRight(builder.String(), "\n")
}

func mermaidID(id string) string {
	if id == End {
		return "END"
	}
	return id
}

func mermaidQuote(text string) string {
	return `"` + strings.ReplaceAll(text, `"`, "#quot;") + `"`
}
