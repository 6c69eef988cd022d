package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/treemetrics/internal/contract"
	"github.com/huangsam/treemetrics/internal/iocache"
	"github.com/huangsam/treemetrics/schema"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// profiler writes a CPU profile for the whole run and a heap profile at its end.
type profiler struct {
	prefix string
	cpu    *os.File
}

// activeProfile is non-nil while profiling.
var activeProfile *profiler

func (p *profiler) start() error {
	f, err := os.Create(p.prefix + ".cpu.prof")
	if err != nil {
		return fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("could not start CPU profiling: %w", err)
	}
	p.cpu = f
	_, err = fmt.Fprintf(os.Stderr, "Profiling to %[1]s.cpu.prof and %[1]s.mem.prof\n", p.prefix)
	return err
}

func (p *profiler) stop() error {
	pprof.StopCPUProfile()
	_ = p.cpu.Close()

	heap, err := os.Create(p.prefix + ".mem.prof")
	if err != nil {
		return fmt.Errorf("could not create memory profile: %w", err)
	}
	defer func() { _ = heap.Close() }()
	if err := pprof.WriteHeapProfile(heap); err != nil {
		return fmt.Errorf("could not write memory profile: %w", err)
	}
	_, err = fmt.Fprintf(os.Stderr, "Profiling complete. Inspect with 'go tool pprof %s.cpu.prof'\n", p.prefix)
	return err
}

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:                "treemetrics",
	Short:              "Compute structural code metrics with tree-sitter.",
	Long:               `Treemetrics parses source files with tree-sitter, counts syntax patterns per file and sums them by group, language or directory.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Set environment variable prefix
	viper.SetEnvPrefix("TREEMETRICS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	for key, value := range map[string]any{
		"workers":             contract.DefaultWorkers,
		"precision":           contract.DefaultPrecision,
		"output":              schema.TextOut,
		"group-by":            schema.GroupByGroup,
		"standard-queries":    true,
		"cache-backend":       schema.SQLiteBackend,
		"cache-db-connect":    "",
		"analysis-backend":    "",
		"analysis-db-connect": "",
		"color":               "yes",
	} {
		viper.SetDefault(key, value)
	}
}

// loadConfigFile handles config file loading logic common to all setup functions.
func loadConfigFile() error {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".treemetrics") // Name of config file (without extension)
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			// Config file was found but another error was produced
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}
	return nil
}

// sharedSetup unmarshals config and runs validation.
func sharedSetup(_ context.Context, _ *cobra.Command, args []string) error {
	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := loadConfigFile(); err != nil {
		return err
	}

	if prefix := viper.GetString("profile"); prefix != "" && activeProfile == nil {
		p := &profiler{prefix: prefix}
		if err := p.start(); err != nil {
			return fmt.Errorf("failed to start profiling: %w", err)
		}
		activeProfile = p
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 3. Handle positional arguments (which Viper doesn't do).
	input.Paths = args

	// 4. Run all validation and complex parsing.
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}
	color.NoColor = color.NoColor || !cfg.UseColors

	// 5. Initialize persistence layer with validated config
	if err := iocache.InitCaching(cfg.CacheBackend, cfg.CacheDBConnect, cfg.AnalysisBackend, cfg.AnalysisDBConnect); err != nil {
		return fmt.Errorf("failed to initialize caching: %w", err)
	}
	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// StopProfiling writes the profiles of a run started with --profile.
func StopProfiling() error {
	if activeProfile == nil {
		return nil
	}
	p := activeProfile
	activeProfile = nil
	return p.stop()
}
