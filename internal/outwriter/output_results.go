package outwriter

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/huangsam/treemetrics/core/shape"
	"github.com/huangsam/treemetrics/internal/contract"
	"github.com/huangsam/treemetrics/internal/parquet"
	"github.com/huangsam/treemetrics/schema"
)

// WriteAnalysisResults outputs the analysis results, dispatching based on the output format configured.
func WriteAnalysisResults(output *schema.AnalysisOutput, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := floatFormatter(cfg.Precision)

	// Dispatcher: Handle different output formats
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeResultsJSONFile(output, cfg.Export, cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeResultsCSVFile(output, cfg.Export, cfg.OutputFile, fmtFloat); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := writeResultsParquetFile(output, cfg.Export, cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	case schema.BothOut:
		if cfg.OutputFile == "" {
			return errors.New("both output needs an output file")
		}
		base := strings.TrimSuffix(cfg.OutputFile, filepath.Ext(cfg.OutputFile))
		if err := writeResultsJSONFile(output, cfg.Export, base+".json"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
		if err := writeResultsCSVFile(output, cfg.Export, base+".csv", fmtFloat); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		// Default to human-readable table
		return writeOutput(cfg.OutputFile, func(w io.Writer) error {
			return writeResultsTable(output, cfg, fmtFloat, duration, w)
		}, "table")
	}

	// Structured output keeps stdout clean, so the summary goes to stderr
	return writeSummary(os.Stderr, output, duration, cfg)
}

// writeResultsJSONFile handles opening the file and calling the JSON writer.
func writeResultsJSONFile(output *schema.AnalysisOutput, opts schema.ExportOptions, path string) error {
	data, err := shape.BuildResultData(output.Results, opts)
	if err != nil {
		return err
	}
	return writeOutput(path, func(w io.Writer) error {
		return encodeJSON(w, data)
	}, "JSON")
}

// writeResultsCSVFile handles opening the file and calling the CSV writer.
// CSV columns must line up across rows, so empty metrics are always written.
func writeResultsCSVFile(output *schema.AnalysisOutput, opts schema.ExportOptions, path string, fmtFloat func(float64) string) error {
	opts.IncludeEmptyMetrics = true
	data, err := shape.BuildResultData(output.Results, opts)
	if err != nil {
		return err
	}
	return writeOutput(path, func(w io.Writer) error {
		return writeResultsCSV(w, data, fmtFloat)
	}, "CSV")
}

// writeResultsParquetFile writes the flattened rows in long format.
func writeResultsParquetFile(output *schema.AnalysisOutput, opts schema.ExportOptions, path string) error {
	if path == "" {
		return errors.New("parquet output needs an output file")
	}
	data, err := shape.BuildResultData(output.Results, opts)
	if err != nil {
		return err
	}
	values, err := parquet.ConvertRows(shape.Rows(data))
	if err != nil {
		return err
	}
	if err := parquet.WriteMetricValuesParquet(values, path); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "💾 Wrote Parquet to %s\n", path)
	return nil
}
