package cmd

import (
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/huangsam/treemetrics/internal/langs"
)

// versionCmd reports the build and the grammars compiled into it.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show build information and bundled grammars.",
	Long: `Print the release, commit and build date of this binary, the Go toolchain
and platform it was built for, and the tree-sitter grammars it bundles.

Include this output when reporting metric differences between machines.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("treemetrics %s (commit %s, built %s)\n", version, commit, date)
		cmd.Printf("  Go:       %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		cmd.Printf("  Grammars: %s\n", strings.Join(langs.Default.Names(), ", "))
	},
}
