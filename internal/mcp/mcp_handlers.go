package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/huangsam/treemetrics/core"
	"github.com/huangsam/treemetrics/core/agg"
	"github.com/huangsam/treemetrics/core/shape"
	"github.com/huangsam/treemetrics/internal/contract"
	"github.com/huangsam/treemetrics/schema"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
}

// analyzeResponse is the payload of analyze_path.
type analyzeResponse struct {
	Result      schema.ResultData   `json:"result"`
	Diagnostics []schema.Diagnostic `json:"diagnostics"`
}

// configFor applies the common path and language arguments to a copy of the base config.
func (h *toolHandler) configFor(request mcp.CallToolRequest) (*contract.Config, error) {
	cfg := h.baseCfg.Clone()
	path := request.GetString("path", "")
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	cfg.Paths = []string{path}
	if l := request.GetString("language", ""); l != "" {
		cfg.Language = l
	}
	return cfg, nil
}

func (h *toolHandler) handleAnalyzePath(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.configFor(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if m := request.GetString("metrics", ""); m != "" {
		re, err := regexp.Compile(m)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid metrics filter: %v", err)), nil
		}
		cfg.Metrics = re
	}
	cfg.Export.OmitFiles = request.GetBool("omit_files", cfg.Export.OmitFiles)

	output, err := core.GetAnalysisResults(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}
	data, err := shape.BuildResultData(output.Results, cfg.Export)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("export failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(analyzeResponse{Result: data, Diagnostics: output.Diagnostics}, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGroupTotals(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.configFor(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mode := agg.ParseGroupMode(request.GetString("group_by", string(schema.GroupByLanguage)))

	output, err := core.GetAnalysisResults(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}
	totals, err := agg.GroupBy(output.Results, mode)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("aggregation failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(totals, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleListLanguages(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jsonData, _ := json.MarshalIndent(core.LanguageInfos(), "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
