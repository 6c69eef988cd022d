// Package parquet exports analysis runs, stored file metrics and shaped metric
// rows to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/huangsam/treemetrics/schema"
)

// AnalysisRun represents a single analysis run with metadata.
// This struct maps to the treemetrics_analysis_runs database table.
type AnalysisRun struct {
	// AnalysisID is the unique identifier for this analysis run
	AnalysisID int64 `parquet:"analysis_id,snappy"`

	// StartTime is when the analysis began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the analysis completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the analysis run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	// TotalFilesAnalyzed is the number of files analyzed in this run
	TotalFilesAnalyzed int32 `parquet:"total_files_analyzed,snappy"`

	// TotalDiagnostics is the number of diagnostics raised in this run
	TotalDiagnostics int32 `parquet:"total_diagnostics,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// FileMetrics is the metric map of one file in one analysis run.
// This struct maps to the treemetrics_file_metrics database table.
type FileMetrics struct {
	AnalysisID   int64     `parquet:"analysis_id,snappy"`
	Dir          string    `parquet:"dir,dict,snappy"`
	FilePath     string    `parquet:"file_path,snappy"`
	Language     string    `parquet:"language,dict,snappy"`
	GroupName    string    `parquet:"group_name,dict,snappy"`
	AnalysisTime time.Time `parquet:"analysis_time,snappy"`

	// MetricsJSON is the metric map in its JSON envelope form
	MetricsJSON string `parquet:"metrics_json,snappy"`
}

// MetricValue is one exported field of one row, in long format.
// Numeric fields fill Value, everything else is encoded into Text.
type MetricValue struct {
	RowType  string   `parquet:"type,dict,snappy"`
	Dir      string   `parquet:"dir,dict,snappy"`
	File     string   `parquet:"file,snappy"`
	Language string   `parquet:"lang,dict,snappy"`
	Group    string   `parquet:"group,dict,snappy"`
	Metric   string   `parquet:"metric,dict,snappy"`
	Value    *float64 `parquet:"value,optional,snappy"`
	Text     *string  `parquet:"text,optional,snappy"`
}

// writeParquet writes records to a Parquet file, inferring the schema from T.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteAnalysisRunsParquet writes a slice of AnalysisRun structs to a Parquet file.
func WriteAnalysisRunsParquet(data []AnalysisRun, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteFileMetricsParquet writes a slice of FileMetrics structs to a Parquet file.
func WriteFileMetricsParquet(data []FileMetrics, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteMetricValuesParquet writes shaped metric values to a Parquet file.
func WriteMetricValuesParquet(data []MetricValue, outputPath string) error {
	return writeParquet(data, outputPath)
}

// ConvertAnalysisRunRecords converts schema.AnalysisRunRecord to AnalysisRun for Parquet export.
func ConvertAnalysisRunRecords(records []schema.AnalysisRunRecord) []AnalysisRun {
	result := make([]AnalysisRun, len(records))
	for i, record := range records {
		result[i] = AnalysisRun{
			AnalysisID:         record.AnalysisID,
			StartTime:          record.StartTime,
			EndTime:            record.EndTime,
			RunDurationMs:      record.RunDurationMs,
			TotalFilesAnalyzed: record.TotalFilesAnalyzed,
			TotalDiagnostics:   record.TotalDiagnostics,
			ConfigParams:       record.ConfigParams,
		}
	}
	return result
}

// ConvertFileMetricsRecords converts schema.FileMetricsRecord to FileMetrics for Parquet export.
func ConvertFileMetricsRecords(records []schema.FileMetricsRecord) []FileMetrics {
	result := make([]FileMetrics, len(records))
	for i, record := range records {
		result[i] = FileMetrics{
			AnalysisID:   record.AnalysisID,
			Dir:          record.Dir,
			FilePath:     record.FilePath,
			Language:     record.Language,
			GroupName:    record.GroupName,
			AnalysisTime: record.AnalysisTime,
			MetricsJSON:  record.MetricsJSON,
		}
	}
	return result
}

// ConvertRows flattens shaped rows into one MetricValue per field.
// Fields are emitted in sorted name order within a row.
func ConvertRows(rows []schema.Row) ([]MetricValue, error) {
	var result []MetricValue
	for _, row := range rows {
		names := make([]string, 0, len(row.Values))
		for name := range row.Values {
			names = append(names, name)
		}
		slices.Sort(names)

		for _, name := range names {
			mv := MetricValue{
				RowType:  string(row.Type),
				Dir:      row.Dir,
				File:     row.File,
				Language: row.Language,
				Group:    row.Group,
				Metric:   name,
			}
			if err := fillValue(&mv, row.Values[name]); err != nil {
				return nil, fmt.Errorf("field %s of %s: %w", name, row.File, err)
			}
			result = append(result, mv)
		}
	}
	return result, nil
}

func fillValue(mv *MetricValue, v any) error {
	switch x := v.(type) {
	case nil:
	case int64:
		f := float64(x)
		mv.Value = &f
	case int:
		f := float64(x)
		mv.Value = &f
	case float64:
		mv.Value = &x
	case string:
		mv.Text = &x
	default:
		data, err := json.Marshal(x)
		if err != nil {
			return err
		}
		text := string(data)
		mv.Text = &text
	}
	return nil
}
