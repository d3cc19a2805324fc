package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/MerlinChiodo/multi-agent-orchestration/workflows/analysis"
)

// TopologyTool handles the graph_topology MCP tool.
type TopologyTool struct{}

// NewTopologyTool creates a TopologyTool.
func NewTopologyTool() *TopologyTool {
	return &TopologyTool{}
}

// Definition returns the MCP tool definition for graph_topology.
func (t *TopologyTool) Definition() mcp.Tool {
	return mcp.NewTool("graph_topology",
		mcp.WithDescription("Return the analysis graph: nodes, edges and the conditional critic routes."),
		mcp.WithString("format",
			mcp.Description("dot (default) or mermaid"),
		),
	)
}

// Handle processes the graph_topology tool call.
func (t *TopologyTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	switch format := strings.ToLower(req.GetString("format", "dot")); format {
	case "dot", "":
		return mcp.NewToolResultText(analysis.StaticDOT), nil
	case "mermaid":
		return mcp.NewToolResultText(analysis.Mermaid()), nil
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown format %q (want dot or mermaid)", format)), nil
	}
}
