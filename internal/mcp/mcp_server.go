// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/huangsam/treemetrics/internal/contract"
)

// NewMCPServer initializes and configures the treemetrics MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Treemetrics Analysis Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: analyze_path ---
	s.AddTool(mcp.NewTool("analyze_path",
		mcp.WithDescription("Compute structural code metrics for every source file under a path, with per-directory and per-language totals."),
		mcp.WithString("path", mcp.Description("File or directory to analyze."), mcp.Required()),
		mcp.WithString("language", mcp.Description("Analyze every file as this language instead of detecting it.")),
		mcp.WithString("metrics", mcp.Description("Regular expression selecting standard metrics by name.")),
		mcp.WithBoolean("omit_files", mcp.Description("Leave out the flat file listing.")),
	), h.handleAnalyzePath)

	// --- 2. Tool: group_totals ---
	s.AddTool(mcp.NewTool("group_totals",
		mcp.WithDescription("Sum the metrics of every file under a path by file, language or directory, skipping files with too many parse errors."),
		mcp.WithString("path", mcp.Description("File or directory to analyze."), mcp.Required()),
		mcp.WithString("group_by", mcp.Description("Partition key. Defaults to 'lang'."), mcp.Enum("group", "file", "lang", "dir")),
		mcp.WithString("language", mcp.Description("Analyze every file as this language instead of detecting it.")),
	), h.handleGroupTotals)

	// --- 3. Tool: list_languages ---
	s.AddTool(mcp.NewTool("list_languages",
		mcp.WithDescription("List the supported languages with their extensions and standard metrics."),
	), h.handleListLanguages)

	return s
}

// StartMCPServer starts the treemetrics MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
