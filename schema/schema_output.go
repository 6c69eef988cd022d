package schema

// ExportOptions controls which derived fields are exported.
type ExportOptions struct {
	Quantiles           []float64 // Distribution quantiles exported as <metric>_p<N>
	HistogramData       bool      // Export raw distributions as <metric>_histogram
	MessagesData        bool      // Export message lists as <metric>_messages
	OmitFiles           bool      // Drop the flat file listing from tree output
	IncludeEmptyMetrics bool      // Emit absent metrics as 0 (totals) or null
}

// Descriptor is one exported field derived from a source metric.
type Descriptor struct {
	Name     string    `json:"name"`   // Export name, e.g. statements_total
	Source   string    `json:"source"` // Source metric name
	Kind     FieldKind `json:"kind"`
	Quantile float64   `json:"quantile,omitempty"` // Set for QuantileField
}

// Record maps export names to shaped values.
type Record map[string]any

// FileEntry is one file in the result tree.
type FileEntry struct {
	Dir      string `json:"dir,omitempty"`
	File     string `json:"file"`
	Group    string `json:"group"`
	Language string `json:"language"`
	Metrics  Record `json:"metrics"`
}

// LanguageTotal is the shaped sum of every file of one language in a scope.
type LanguageTotal struct {
	Language string   `json:"language"`
	Groups   []string `json:"groups,omitempty"` // Distinct groups contributing to the total
	Files    int      `json:"files"`
	Skipped  int      `json:"skipped"`
	Metrics  Record   `json:"metrics"`
}

// DirEntry holds one directory's files and its per-language totals.
type DirEntry struct {
	Dir      string          `json:"dir"`
	Files    []FileEntry     `json:"files"`
	DirTotal []LanguageTotal `json:"dirTotal"`
}

// ResultData is the hierarchical export of a batch.
type ResultData struct {
	Metrics []Descriptor    `json:"metrics"`
	Files   []FileEntry     `json:"files,omitempty"`
	Dirs    []DirEntry      `json:"dirs"`
	Total   []LanguageTotal `json:"total"`
}

// Row is one line of the flattened export.
type Row struct {
	Type     RowKind `json:"type"`
	Dir      string  `json:"dir"`
	File     string  `json:"file"`
	Language string  `json:"lang"`
	Group    string  `json:"group"`
	Values   Record  `json:"values"`
}
