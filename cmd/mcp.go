package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huangsam/treemetrics/internal/iocache"
	"github.com/huangsam/treemetrics/internal/mcp"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the treemetrics MCP server",
	Long:  `Launch an MCP server that allows AI agents to compute code metrics via standard tools.`,
	Args:  cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Tool handlers suppress the analysis header themselves, since stdio carries the protocol.
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, iocache.Manager)
	},
}
