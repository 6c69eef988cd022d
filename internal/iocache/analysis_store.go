package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/treemetrics/internal/contract"
	"github.com/huangsam/treemetrics/schema"
)

// Table names for analysis tracking.
const (
	analysisRunsTable = "treemetrics_analysis_runs"
	fileMetricsTable  = "treemetrics_file_metrics"
	migrationsTable   = "treemetrics_schema_migrations"
)

// analysisTablesDDL creates the run table and the per-file metric table.
// The migrations directory carries the same layout as versioned steps.
var analysisTablesDDL = []struct{ name, ddl string }{
	{analysisRunsTable, `
		CREATE TABLE IF NOT EXISTS %s (
			analysis_id {serial},
			start_time {time} NOT NULL,
			end_time {time},
			run_duration_ms {int},
			total_files_analyzed {int} NOT NULL DEFAULT 0,
			total_diagnostics {int} NOT NULL DEFAULT 0,
			config_params TEXT
		)`},
	{fileMetricsTable, `
		CREATE TABLE IF NOT EXISTS %s (
			analysis_id {bigint} NOT NULL,
			dir VARCHAR(255) NOT NULL,
			file_path VARCHAR(255) NOT NULL,
			language VARCHAR(64) NOT NULL,
			group_name VARCHAR(255) NOT NULL,
			analysis_time {time} NOT NULL,
			metrics_json {text} NOT NULL,
			PRIMARY KEY (analysis_id, dir, file_path)
		)`},
}

// runColumns lists the run columns in scan order.
const runColumns = "analysis_id, start_time, end_time, run_duration_ms, total_files_analyzed, total_diagnostics, config_params"

// fileColumns lists the file metric columns in insert and scan order.
const fileColumns = "analysis_id, dir, file_path, language, group_name, analysis_time, metrics_json"

// AnalysisStoreImpl records analysis runs and the metric map of every analyzed file.
// A store without a database is disabled tracking: writes are dropped and reads are empty.
type AnalysisStoreImpl struct {
	db      *sql.DB
	d       dialect
	backend schema.DatabaseBackend
}

var _ contract.AnalysisStore = &AnalysisStoreImpl{} // Compile-time check

// openAnalysisDB opens and pings the analysis database of a backend.
func openAnalysisDB(backend schema.DatabaseBackend, connStr string) (*sql.DB, dialect, error) {
	d, err := dialectFor(backend)
	if err != nil {
		return nil, dialect{}, err
	}
	db, err := d.open(connStr, contract.GetAnalysisDBFilePath())
	return db, d, err
}

// NewAnalysisStore creates a new AnalysisStore with the specified backend.
func NewAnalysisStore(backend schema.DatabaseBackend, connStr string) (contract.AnalysisStore, error) {
	if backend == schema.NoneBackend {
		return &AnalysisStoreImpl{backend: backend}, nil
	}

	db, d, err := openAnalysisDB(backend, connStr)
	if err != nil {
		return nil, err
	}
	for _, t := range analysisTablesDDL {
		if _, err := db.Exec(fmt.Sprintf(d.expand(t.ddl), d.table(t.name))); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create table %s: %w", t.name, err)
		}
	}
	return &AnalysisStoreImpl{db: db, d: d, backend: backend}, nil
}

// BeginAnalysis creates a new analysis run and returns its unique ID.
// Disabled tracking returns 0.
func (as *AnalysisStoreImpl) BeginAnalysis(startTime time.Time, configParams map[string]any) (int64, error) {
	if as.db == nil {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (start_time, config_params) VALUES (%s)`, as.d.table(analysisRunsTable), as.d.binds(2))
	args := []any{as.d.timeValue(startTime), string(configJSON)}

	var analysisID int64
	if as.backend == schema.PostgreSQLBackend {
		// pgx does not report LastInsertId
		err = as.db.QueryRow(query+" RETURNING analysis_id", args...).Scan(&analysisID)
	} else {
		var result sql.Result
		if result, err = as.db.Exec(query, args...); err == nil {
			analysisID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert analysis run: %w", err)
	}
	return analysisID, nil
}

// EndAnalysis stores the end time, duration and counts of a run.
func (as *AnalysisStoreImpl) EndAnalysis(analysisID int64, endTime time.Time, totalFiles int, totalDiagnostics int) error {
	if as.db == nil {
		return nil
	}
	runs := as.d.table(analysisRunsTable)

	var start sqlTime
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE analysis_id = %s`, runs, as.d.bind(1))
	if err := as.db.QueryRow(query, analysisID).Scan(&start); err != nil {
		return fmt.Errorf("failed to get start_time for analysis %d: %w", analysisID, err)
	}

	update := fmt.Sprintf(`UPDATE %s SET end_time = %s, run_duration_ms = %s, total_files_analyzed = %s, total_diagnostics = %s WHERE analysis_id = %s`,
		runs, as.d.bind(1), as.d.bind(2), as.d.bind(3), as.d.bind(4), as.d.bind(5))
	durationMs := endTime.Sub(start.Time).Milliseconds()
	if _, err := as.db.Exec(update, as.d.timeValue(endTime), durationMs, totalFiles, totalDiagnostics, analysisID); err != nil {
		return fmt.Errorf("failed to update analysis run: %w", err)
	}
	return nil
}

// RecordFileResult stores the metric map of one file for an analysis run.
func (as *AnalysisStoreImpl) RecordFileResult(analysisID int64, result schema.FileResult) error {
	if as.db == nil {
		return nil
	}

	metricsJSON, err := json.Marshal(result.Metrics)
	if err != nil {
		return fmt.Errorf("failed to marshal metrics of %s: %w", result.File, err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, as.d.table(fileMetricsTable), fileColumns, as.d.binds(7))
	_, err = as.db.Exec(query, analysisID, result.Dir, result.File, result.Language, result.Group,
		as.d.timeValue(time.Now()), string(metricsJSON))
	if err != nil {
		return fmt.Errorf("failed to insert file metrics: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (as *AnalysisStoreImpl) Close() error {
	if as.db != nil {
		return as.db.Close()
	}
	return nil
}

// GetStatus returns run counts, the newest and oldest runs and per-table row counts.
func (as *AnalysisStoreImpl) GetStatus() (schema.AnalysisStatus, error) {
	status := schema.AnalysisStatus{
		Backend:    string(as.backend),
		Connected:  as.db != nil,
		TableSizes: make(map[string]int64),
	}
	if as.db == nil {
		return status, nil
	}
	runs := as.d.table(analysisRunsTable)

	query := fmt.Sprintf("SELECT COUNT(*), COALESCE(SUM(total_files_analyzed), 0) FROM %s", runs)
	if err := as.db.QueryRow(query).Scan(&status.TotalRuns, &status.TotalFilesAnalyzed); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		var last, oldest sqlTime
		query = fmt.Sprintf("SELECT analysis_id, start_time FROM %s ORDER BY analysis_id DESC LIMIT 1", runs)
		if err := as.db.QueryRow(query).Scan(&status.LastRunID, &last); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		query = fmt.Sprintf("SELECT start_time FROM %s ORDER BY analysis_id ASC LIMIT 1", runs)
		if err := as.db.QueryRow(query).Scan(&oldest); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		status.LastRunTime = last.Time
		status.OldestRunTime = oldest.Time
	}

	for _, t := range analysisTablesDDL {
		var count int64
		if err := as.db.QueryRow("SELECT COUNT(*) FROM " + as.d.table(t.name)).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", t.name, err)
		}
		status.TableSizes[t.name] = count
	}
	return status, nil
}

// GetAllAnalysisRuns retrieves all analysis runs in ID order.
func (as *AnalysisStoreImpl) GetAllAnalysisRuns() ([]schema.AnalysisRunRecord, error) {
	if as.db == nil {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY analysis_id`, runColumns, as.d.table(analysisRunsTable))
	return queryAll(as.db, query, "analysis runs", func(rows *sql.Rows) (schema.AnalysisRunRecord, error) {
		var r schema.AnalysisRunRecord
		var start, end sqlTime
		err := rows.Scan(&r.AnalysisID, &start, &end, &r.RunDurationMs, &r.TotalFilesAnalyzed, &r.TotalDiagnostics, &r.ConfigParams)
		r.StartTime = start.Time
		r.EndTime = end.ptr()
		return r, err
	})
}

// GetAllFileMetrics retrieves every stored file metric map.
func (as *AnalysisStoreImpl) GetAllFileMetrics() ([]schema.FileMetricsRecord, error) {
	if as.db == nil {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY analysis_id, dir, file_path`, fileColumns, as.d.table(fileMetricsTable))
	return queryAll(as.db, query, "file metrics", func(rows *sql.Rows) (schema.FileMetricsRecord, error) {
		var r schema.FileMetricsRecord
		var at sqlTime
		err := rows.Scan(&r.AnalysisID, &r.Dir, &r.FilePath, &r.Language, &r.GroupName, &at, &r.MetricsJSON)
		r.AnalysisTime = at.Time
		return r, err
	})
}

// queryAll runs a query and scans every row with scan.
func queryAll[T any](db *sql.DB, query, what string, scan func(*sql.Rows) (T, error)) ([]T, error) {
	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", what, err)
	}
	defer func() { _ = rows.Close() }()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", what, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", what, err)
	}
	return out, nil
}
