package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/huangsam/treemetrics/internal/contract"
)

// writeOutput runs write against the output file, or stdout when path is empty,
// and tells stderr where a file went.
func writeOutput(path string, write func(io.Writer) error, format string) error {
	file, err := contract.SelectOutputFile(path)
	if err != nil {
		return err
	}
	if file == os.Stdout {
		return write(file)
	}

	writeErr := write(file)
	closeErr := file.Close()
	if writeErr != nil {
		return writeErr
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close %s: %w", path, closeErr)
	}
	fmt.Fprintf(os.Stderr, "💾 Wrote %s to %s\n", format, path)
	return nil
}

// encodeJSON writes v as indented JSON.
func encodeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVRecords writes the header, then every record passed to emit.
func writeCSVRecords(w io.Writer, header []string, records func(emit func([]string) error) error) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	err := records(func(record []string) error {
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// floatFormatter renders floats with a fixed number of decimals.
func floatFormatter(precision int) func(float64) string {
	return func(v float64) string {
		return strconv.FormatFloat(v, 'f', precision, 64)
	}
}
