package mcpserver

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"

	"github.com/MerlinChiodo/multi-agent-orchestration/agents"
	"github.com/MerlinChiodo/multi-agent-orchestration/internal/config"
	"github.com/MerlinChiodo/multi-agent-orchestration/providers/observability"
	"github.com/MerlinChiodo/multi-agent-orchestration/telemetry"
)

// Name is the server name announced during the MCP handshake.
const Name = "multi-agent-orchestration"

// Version is set at build time via ldflags.
var Version = "dev"

// ClientFactory builds the model client for one analysis. The config passed in
// already carries the per-call overrides.
type ClientFactory func(config.Config) (agents.Completer, error)

// Dependencies are shared by every tool call.
type Dependencies struct {
	Config    config.Config
	NewClient ClientFactory
	Observer  observability.Provider
	Sink      telemetry.Sink
}

// New creates the MCP server with every analysis tool registered.
func New(deps Dependencies) (*server.MCPServer, error) {
	if deps.NewClient == nil {
		return nil, fmt.Errorf("mcpserver: a client factory is required")
	}
	if deps.Sink == nil {
		deps.Sink = telemetry.Nop{}
	}

	s := server.NewMCPServer(
		Name,
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	analyzeTool := NewAnalyzeTool(deps)
	s.AddTool(analyzeTool.Definition(), analyzeTool.Handle)

	previewTool := NewPreviewTool(deps.Config)
	s.AddTool(previewTool.Definition(), previewTool.Handle)

	topologyTool := NewTopologyTool()
	s.AddTool(topologyTool.Definition(), topologyTool.Handle)

	return s, nil
}

// ServeStdio runs the server on standard input and output until the client
// disconnects.
func ServeStdio(deps Dependencies) error {
	s, err := New(deps)
	if err != nil {
		return err
	}
	return server.ServeStdio(s)
}

const instructions = `Analyses scientific documents with a team of language-model agents.

Call analyze_document with the plain text of a paper. The graph engine runs
reader, summarizer, translator, keyword extraction, a critic with a bounded
rework loop, quality and judge scoring, and a final meta summary. The
sequential engine runs reader, summarizer, critic and integrator only.

Call preview_sections first to see which sections fit the context budget, and
graph_topology to fetch the execution graph as DOT or Mermaid.`
