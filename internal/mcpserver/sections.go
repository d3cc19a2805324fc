package mcpserver

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/MerlinChiodo/multi-agent-orchestration/internal/config"
	"github.com/MerlinChiodo/multi-agent-orchestration/internal/preprocess"
	"github.com/MerlinChiodo/multi-agent-orchestration/internal/utils"
)

// SectionsPreview is the preview_sections result.
type SectionsPreview struct {
	Sections     preprocess.Usage `json:"sections"`
	Usage        map[string]int   `json:"usage"`
	Total        int              `json:"total"`
	ContextChars int              `json:"context_chars"`
	BudgetChars  int              `json:"budget_chars"`
}

// PreviewTool handles the preview_sections MCP tool.
type PreviewTool struct {
	cfg config.Config
}

// NewPreviewTool creates a PreviewTool that previews with cfg's section
// settings.
func NewPreviewTool(cfg config.Config) *PreviewTool {
	return &PreviewTool{cfg: cfg}
}

// Definition returns the MCP tool definition for preview_sections.
func (t *PreviewTool) Definition() mcp.Tool {
	return mcp.NewTool("preview_sections",
		mcp.WithDescription(
			"Show which sections of a document would be sent to the agents and how many characters each contributes. "+
				"No model is called.",
		),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Plain text of the document"),
		),
	)
}

// Handle processes the preview_sections tool call.
func (t *PreviewTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := req.GetString("text", "")
	if strings.TrimSpace(text) == "" {
		return mcp.NewToolResultError("'text' is required"), nil
	}

	return jsonResult(Preview(text, t.cfg))
}

// Preview builds the analysis context for text the way the pipelines do and
// reports the section usage.
func Preview(text string, cfg config.Config) SectionsPreview {
	if cfg.TruncateChars > 0 {
		text = preprocess.Truncate(text, cfg.TruncateChars)
	}
	options := cfg.PreprocessOptions()
	usage := preprocess.Preview(text, options)
	if usage == nil {
		usage = preprocess.Usage{}
	}

	return SectionsPreview{
		Sections:     usage,
		Usage:        usage.Map(),
		Total:        usage.Total(),
		ContextChars: utils.RuneLen(preprocess.Build(text, options)),
		BudgetChars:  options.BudgetChars,
	}
}
