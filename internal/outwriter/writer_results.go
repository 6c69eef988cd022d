package outwriter

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/huangsam/treemetrics/core/shape"
	"github.com/huangsam/treemetrics/schema"
)

// resultsCSVHeader lists the fixed columns written before the metric fields.
var resultsCSVHeader = []string{"type", "dir", "file", "lang", "group"}

// writeResultsCSV writes one line per file, directory total and grand total.
func writeResultsCSV(w io.Writer, data schema.ResultData, fmtFloat func(float64) string) error {
	fields := shape.FieldNames(data.Metrics)
	header := append(append([]string{}, resultsCSVHeader...), fields...)

	return writeCSVRecords(w, header, func(emit func([]string) error) error {
		for _, row := range shape.Rows(data) {
			record := make([]string, 0, len(header))
			record = append(record, string(row.Type), row.Dir, row.File, row.Language, row.Group)
			for _, name := range fields {
				cell, err := formatCell(row.Values[name], fmtFloat)
				if err != nil {
					return fmt.Errorf("field %s of %s: %w", name, row.File, err)
				}
				record = append(record, cell)
			}
			if err := emit(record); err != nil {
				return err
			}
		}
		return nil
	})
}

// formatCell renders one shaped value as a CSV cell. Nil values are empty,
// message lists are joined and distributions are written as JSON.
func formatCell(v any, fmtFloat func(float64) string) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case int:
		return strconv.Itoa(x), nil
	case float64:
		return fmtFloat(x), nil
	case string:
		return x, nil
	case []string:
		return strings.Join(x, ";"), nil
	default:
		data, err := json.Marshal(x)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}
