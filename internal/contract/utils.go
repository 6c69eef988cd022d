package contract

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

// Parse health label constants.
const (
	UnreliableValue = "Unreliable" // Error ratio at or above the outlier threshold
	NoisyValue      = "Noisy"      // Error ratio a quarter of the way to the threshold
	MinorValue      = "Minor"      // Some parse errors
	CleanValue      = "Clean"      // No parse errors
)

// OutlierErrorRatio is the share of ERROR nodes per unit of file size at
// which a file's metrics are no longer trusted.
const OutlierErrorRatio = 1.0 / 50

// Color variables for console output.
var (
	UnreliableColor = color.New(color.FgRed, color.Bold) // UnreliableColor represents standard danger.
	NoisyColor      = color.New(color.FgYellow)          // NoisyColor represents standard caution, not bold.
	MinorColor      = color.New(color.FgCyan)            // MinorColor represents informational signal.
	CleanColor      = color.New(color.FgGreen)           // CleanColor represents a healthy parse.
	HeaderColor     = color.New(color.FgCyan, color.Bold)
)

// healthLevels maps error ratio floors to labels, worst first.
var healthLevels = []struct {
	floor float64
	label string
	color *color.Color
}{
	{OutlierErrorRatio, UnreliableValue, UnreliableColor},
	{OutlierErrorRatio / 4, NoisyValue, NoisyColor},
	{math.SmallestNonzeroFloat64, MinorValue, MinorColor},
}

// healthLevel returns the label and color of an error ratio.
func healthLevel(errorRatio float64) (string, *color.Color) {
	for _, lvl := range healthLevels {
		if errorRatio >= lvl.floor {
			return lvl.label, lvl.color
		}
	}
	return CleanValue, CleanColor
}

// GetPlainLabel returns the parse health of a file or group, given its ratio
// of ERROR nodes to its size.
func GetPlainLabel(errorRatio float64) string {
	label, _ := healthLevel(errorRatio)
	return label
}

// GetColorLabel is GetPlainLabel for console output.
func GetColorLabel(errorRatio float64) string {
	label, c := healthLevel(errorRatio)
	return c.Sprint(label)
}

// SelectOutputFile opens filePath for writing, or returns os.Stdout for an empty path.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// ShouldIgnore reports whether path matches one of the exclude patterns.
// Patterns with wildcards are globs tried against the path and its base name,
// a trailing '/' names a directory anywhere in the path, a leading '.' is a
// suffix and anything else is a substring.
func ShouldIgnore(path string, excludes []string) bool {
	for _, ex := range excludes {
		if matchExclude(path, strings.TrimSpace(ex)) {
			return true
		}
	}
	return false
}

func matchExclude(path, ex string) bool {
	switch {
	case ex == "":
		return false
	case strings.ContainsAny(ex, "*?["):
		pat := strings.ReplaceAll(ex, "**", "*")
		for _, candidate := range []string{path, filepath.Base(path)} {
			if ok, err := filepath.Match(pat, candidate); err == nil && ok {
				return true
			}
		}
		return false
	case strings.HasSuffix(ex, "/"):
		return strings.HasPrefix(path, ex) || strings.Contains(path, "/"+ex)
	case strings.HasPrefix(ex, "."):
		return strings.HasSuffix(path, ex)
	default:
		return strings.Contains(path, ex)
	}
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// LogDiagnostic prints a non-fatal analysis finding to stderr.
func LogDiagnostic(d fmt.Stringer) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s\n", d)
}

// homeDBPath places a SQLite file in the home directory, or the working
// directory when there is no home.
func homeDBPath(name string) string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, name)
	}
	return name
}

// GetCacheDBFilePath is the default SQLite file of the metric cache.
func GetCacheDBFilePath() string { return homeDBPath(".treemetrics_cache.db") }

// GetAnalysisDBFilePath is the default SQLite file of the analysis store.
func GetAnalysisDBFilePath() string { return homeDBPath(".treemetrics_analysis.db") }

// TruncatePath truncates a file path to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 to leave room for the "..." prefix and at least one character.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}

// SplitList splits a comma-separated list, dropping blank entries.
func SplitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// ParseQuantiles parses a list like "0.2,0.5,0.8" or "p20,p50,p80".
// Every quantile must lie in [0, 1].
func ParseQuantiles(s string) ([]float64, error) {
	parts := SplitList(s)
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		percent := strings.HasPrefix(strings.ToLower(part), "p")
		value, err := strconv.ParseFloat(strings.TrimLeft(part, "pP"), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid quantile %q: %w", part, err)
		}
		if percent {
			value /= 100
		}
		if !(value >= 0 && value <= 1) {
			return nil, fmt.Errorf("quantile %q must be between 0 and 1", part)
		}
		out = append(out, value)
	}
	return out, nil
}
