package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// GroupMode selects the partition key used when summing file results.
	GroupMode string

	// DatabaseBackend represents the database backend for caching.
	DatabaseBackend string

	// RowKind tags a flattened output row.
	RowKind string

	// DiagnosticKind classifies a non-fatal analysis finding.
	DiagnosticKind string

	// FieldKind describes how an exported field is derived from a metric.
	FieldKind string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
	BothOut    OutputMode = "both" // json and csv side by side
)

// All grouping modes supported.
const (
	GroupByGroup    GroupMode = "group" // default
	GroupByFile     GroupMode = "file"
	GroupByLanguage GroupMode = "lang"
	GroupByDir      GroupMode = "dir"
	GroupByNone     GroupMode = "none" // one partition keyed ""
)

// All cache backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Row kinds emitted by the row export.
const (
	FileRow     RowKind = "file"
	DirTotalRow RowKind = "dir-total"
	TotalRow    RowKind = "total"
)

// TotalMarker fills the dir and file columns of aggregate rows.
const TotalMarker = "//total"

// MixedGroupMarker is the group of a directory total spanning several groups.
const MixedGroupMarker = "?"

// Diagnostic kinds.
const (
	DuplicateMetricKey DiagnosticKind = "duplicate-metric-key"
	HighErrorRatio     DiagnosticKind = "high-error-ratio"
	AnalysisFailed     DiagnosticKind = "analysis-failed"
	GroupFailed        DiagnosticKind = "group-failed"
)

// Field kinds for exported metric fields.
const (
	TotalField     FieldKind = "total"
	AvgField       FieldKind = "histogram-avg"
	HistogramField FieldKind = "histogram-data"
	MessagesField  FieldKind = "message-list"
	LabelField     FieldKind = "label"
	QuantileField  FieldKind = "quantile"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
	BothOut:    {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// DefaultQuantiles are the distribution quantiles exported when none are configured.
var DefaultQuantiles = []float64{0.2, 0.5, 0.8}
