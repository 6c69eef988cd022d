package iocache

import (
	"errors"
	"fmt"

	"github.com/huangsam/treemetrics/internal/parquet"
)

// ExecuteAnalysisExport exports the stored analysis runs and file metrics to Parquet files.
func ExecuteAnalysisExport(outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	store := Manager.GetAnalysisStore()
	if store == nil {
		return errors.New("analysis tracking is not configured")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get analysis status: %w", err)
	}

	if status.TotalRuns == 0 {
		return errors.New("no analysis data found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total analysis runs: %d\n", status.TotalRuns)
	fmt.Printf("Total file records: %d\n", status.TableSizes[fileMetricsTable])

	analysisRuns, err := store.GetAllAnalysisRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve analysis runs: %w", err)
	}

	fileMetrics, err := store.GetAllFileMetrics()
	if err != nil {
		return fmt.Errorf("failed to retrieve file metrics: %w", err)
	}

	analysisRunsFile := outputFile + ".analysis_runs.parquet"
	if err := parquet.WriteAnalysisRunsParquet(parquet.ConvertAnalysisRunRecords(analysisRuns), analysisRunsFile); err != nil {
		return fmt.Errorf("failed to write analysis runs: %w", err)
	}
	fmt.Printf("Exported %d analysis runs to: %s\n", len(analysisRuns), analysisRunsFile)

	fileMetricsFile := outputFile + ".file_metrics.parquet"
	if err := parquet.WriteFileMetricsParquet(parquet.ConvertFileMetricsRecords(fileMetrics), fileMetricsFile); err != nil {
		return fmt.Errorf("failed to write file metrics: %w", err)
	}
	fmt.Printf("Exported %d file metric records to: %s\n", len(fileMetrics), fileMetricsFile)

	return nil
}
