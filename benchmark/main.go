// Package main times the treemetrics CLI over a set of local repositories.
//
// Every suite is an analyze invocation. It runs first with the metric cache
// disabled, then with the SQLite cache, where the first run fills the cache
// (cold) and the remaining runs read it (warm). Timings go to a CSV file in
// the temp directory and to a summary table on stdout.
//
// Prerequisites:
// - treemetrics binary installed and available in PATH
// - flask, express, ripgrep and kubernetes cloned under the base directory
//
// Usage: go run benchmark/main.go [repo-base-dir]
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
)

// suite is one treemetrics invocation measured on every repository.
type suite struct {
	name string
	args []string
}

// timing is the outcome of one suite on one repository.
// Zero durations mean no run finished in time.
type timing struct {
	repo, suite string
	noCache     time.Duration
	cold        time.Duration
	warm        time.Duration
}

type settings struct {
	base        string
	timeout     time.Duration
	workers     int
	noCacheRuns int
	cacheRuns   int
	repos       []string
	suites      []suite
}

var defaults = settings{
	timeout:     5 * time.Minute,
	workers:     14,
	noCacheRuns: 3,
	cacheRuns:   4,
	repos:       []string{"flask", "express", "ripgrep", "kubernetes"},
	suites: []suite{
		{"standard", []string{"--group-by", "lang"}},
		{"named-nodes", []string{"--standard-queries=false", "--node-types", "identifier,comment,string"}},
		{"node-types", []string{"--standard-queries=false", "--all-node-types", "--omit-files"}},
	},
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [repo-base-dir]\n", os.Args[0])
		os.Exit(1)
	}
	s := defaults
	s.base = os.Args[1]

	if err := s.check(); err != nil {
		fmt.Printf("Cannot benchmark: %v\n", err)
		os.Exit(1)
	}
	if out, err := exec.Command("treemetrics", "cache", "clear").CombinedOutput(); err != nil {
		fmt.Printf("Warning: cache clear failed: %v\n%s\n", err, out)
	}

	fmt.Printf("%d repos x %d suites, %d workers, timeout %v\n", len(s.repos), len(s.suites), s.workers, s.timeout)
	var timings []timing
	for _, repo := range s.repos {
		for _, st := range s.suites {
			fmt.Printf("%s / %s\n", repo, st.name)
			timings = append(timings, s.measure(repo, st))
		}
	}

	path := filepath.Join(os.TempDir(), "treemetrics_benchmark_"+time.Now().Format("20060102_150405")+".csv")
	if err := saveCSV(path, timings); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Results saved to %s\n", path)
	if err := printTable(timings); err != nil {
		fmt.Printf("Failed to print summary: %v\n", err)
	}
}

// check verifies that the binary and every repository are present.
func (s settings) check() error {
	if _, err := exec.LookPath("treemetrics"); err != nil {
		return errors.New("treemetrics binary not found in PATH")
	}
	for _, repo := range s.repos {
		if _, err := os.Stat(filepath.Join(s.base, repo)); err != nil {
			return fmt.Errorf("repository %s: %w", repo, err)
		}
	}
	return nil
}

// measure runs the uncached and cached phases of a suite on a repository.
func (s settings) measure(repo string, st suite) timing {
	dir := filepath.Join(s.base, repo)
	t := timing{repo: repo, suite: st.name}

	t.noCache = mean(s.runs(dir, st, "none", s.noCacheRuns))
	if cached := s.runs(dir, st, "sqlite", s.cacheRuns); len(cached) > 0 {
		t.cold = cached[0]
		t.warm = mean(cached[1:])
	}
	fmt.Printf("  no-cache %s, cold %s, warm %s\n", show(t.noCache), show(t.cold), show(t.warm))
	return t
}

// runs executes analyze n times and returns the durations of the successful runs.
func (s settings) runs(dir string, st suite, backend string, n int) []time.Duration {
	args := append([]string{
		"analyze",
		"--cache-backend", backend,
		"--workers", strconv.Itoa(s.workers),
		"--output-file", filepath.Join(os.TempDir(), "treemetrics_benchmark_run.csv"),
	}, st.args...)

	var out []time.Duration
	for range n {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		cmd := exec.CommandContext(ctx, "treemetrics", args...)
		cmd.Dir = dir
		start := time.Now()
		output, err := cmd.CombinedOutput()
		elapsed := time.Since(start)
		cancel()
		if err == nil && completed(output) {
			out = append(out, elapsed)
		}
	}
	return out
}

// completed looks for the run summary treemetrics prints on success.
func completed(output []byte) bool {
	text := string(output)
	return strings.Contains(text, "Analysis completed in") && strings.Contains(text, "workers")
}

func mean(ds []time.Duration) time.Duration {
	if len(ds) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range ds {
		sum += d
	}
	return sum / time.Duration(len(ds))
}

// show renders a duration in seconds, or TIMEOUT for a missing one.
func show(d time.Duration) string {
	if d == 0 {
		return "TIMEOUT"
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

func saveCSV(path string, timings []timing) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)
	_ = w.Write([]string{"repo", "suite", "no_cache_avg", "cold_time", "warm_avg"})
	for _, t := range timings {
		_ = w.Write([]string{t.repo, t.suite, show(t.noCache), show(t.cold), show(t.warm)})
	}
	w.Flush()
	return w.Error()
}

func printTable(timings []timing) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"Suite", "Repository", "No-cache", "Cold", "Warm"})
	var rows [][]string
	for _, t := range timings {
		rows = append(rows, []string{t.suite, t.repo, show(t.noCache), show(t.cold), show(t.warm)})
	}
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}
