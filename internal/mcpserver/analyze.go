package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/MerlinChiodo/multi-agent-orchestration/core/parse"
	"github.com/MerlinChiodo/multi-agent-orchestration/internal/config"
	"github.com/MerlinChiodo/multi-agent-orchestration/workflows/analysis"
	"github.com/MerlinChiodo/multi-agent-orchestration/workflows/sequential"
)

const (
	EngineGraph      = "graph"
	EngineSequential = "sequential"
)

// overrides is the free-form "options" argument. Clients tend to send
// almost-JSON, so it is decoded leniently.
type overrides struct {
	Temperature     *float64 `json:"temperature"`
	MaxTokens       *int     `json:"max_tokens"`
	TruncateChars   *int     `json:"truncate_chars"`
	SectionsEnabled *bool    `json:"sections_enabled"`
	TimeoutSeconds  *float64 `json:"timeout_s"`
}

func (o overrides) apply(cfg *config.Config) {
	if o.Temperature != nil {
		cfg.Temperature = *o.Temperature
	}
	if o.MaxTokens != nil {
		cfg.MaxTokens = *o.MaxTokens
	}
	if o.TruncateChars != nil {
		cfg.TruncateChars = *o.TruncateChars
	}
	if o.SectionsEnabled != nil {
		cfg.SectionsEnabled = *o.SectionsEnabled
	}
	if o.TimeoutSeconds != nil {
		cfg.TimeoutSeconds = *o.TimeoutSeconds
	}
}

// runner is satisfied by both engines.
type runner interface {
	Run(ctx context.Context, input string) (*analysis.Result, error)
}

// AnalyzeTool handles the analyze_document MCP tool.
type AnalyzeTool struct {
	deps Dependencies
}

// NewAnalyzeTool creates an AnalyzeTool.
func NewAnalyzeTool(deps Dependencies) *AnalyzeTool {
	return &AnalyzeTool{deps: deps}
}

// Definition returns the MCP tool definition for analyze_document.
func (t *AnalyzeTool) Definition() mcp.Tool {
	return mcp.NewTool("analyze_document",
		mcp.WithDescription(
			"Analyse a scientific document with the multi-agent pipeline. Returns the full result record as JSON: "+
				"notes, summary, translation, keywords, critique, meta summary, scores and per-stage timings.",
		),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Plain text of the document"),
		),
		mcp.WithString("engine",
			mcp.Description("graph (default) or sequential"),
		),
		mcp.WithString("preset",
			mcp.Description("speed, balanced or detail"),
		),
		mcp.WithNumber("max_critic_loops",
			mcp.Description("Upper bound on critic-driven summary rewrites (graph engine only)"),
		),
		mcp.WithString("translator_language",
			mcp.Description("Language code for the translated summary (default DE)"),
		),
		mcp.WithString("translator_style",
			mcp.Description("short, ultra_short or none"),
		),
		mcp.WithString("options",
			mcp.Description(`JSON object with further overrides, e.g. {"temperature": 0.1, "truncate_chars": 8000, "timeout_s": 60}`),
		),
	)
}

// Handle processes the analyze_document tool call.
func (t *AnalyzeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := req.GetString("text", "")
	if strings.TrimSpace(text) == "" {
		return mcp.NewToolResultError("'text' is required"), nil
	}
	engine := strings.ToLower(req.GetString("engine", EngineGraph))
	if engine != EngineGraph && engine != EngineSequential {
		return mcp.NewToolResultError(fmt.Sprintf("unknown engine %q (want graph or sequential)", engine)), nil
	}

	cfg, err := t.config(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	llm, err := t.deps.NewClient(cfg)
	if err != nil {
		return mcp.NewToolResultError("creating model client: " + err.Error()), nil
	}

	var pipeline runner
	if engine == EngineSequential {
		opts := append(sequential.ConfigOptions(cfg), sequential.WithObserver(t.deps.Observer), sequential.WithSink(t.deps.Sink))
		pipeline, err = sequential.New(llm, opts...)
	} else {
		opts := append(analysis.ConfigOptions(cfg), analysis.WithObserver(t.deps.Observer), analysis.WithSink(t.deps.Sink))
		pipeline, err = analysis.New(llm, opts...)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := pipeline.Run(ctx, text)
	if err != nil {
		return mcp.NewToolResultError("analysis failed: " + err.Error()), nil
	}
	return jsonResult(result)
}

// config applies the call's arguments over the server config.
func (t *AnalyzeTool) config(req mcp.CallToolRequest) (config.Config, error) {
	cfg := t.deps.Config

	if preset := req.GetString("preset", ""); preset != "" {
		if err := cfg.ApplyPreset(preset); err != nil {
			return cfg, err
		}
	}
	if loops, ok := intArg(req, "max_critic_loops"); ok {
		cfg.MaxCriticLoops = loops
	}
	if language := req.GetString("translator_language", ""); language != "" {
		cfg.TranslatorLanguage = language
	}
	if style := req.GetString("translator_style", ""); style != "" {
		cfg.TranslatorStyle = style
	}
	if raw := req.GetString("options", ""); strings.TrimSpace(raw) != "" {
		extra, err := parse.JSONAs[overrides](raw)
		if err != nil {
			return cfg, fmt.Errorf("parsing options: %w", err)
		}
		extra.apply(&cfg)
	}

	return cfg, cfg.Validate()
}
