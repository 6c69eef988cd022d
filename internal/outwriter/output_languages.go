package outwriter

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/huangsam/treemetrics/internal/contract"
	"github.com/huangsam/treemetrics/schema"
)

// PrintLanguages displays every supported language with its standard metrics.
// This is a static display that does not require any analysis.
func PrintLanguages(languages []schema.LanguageInfo, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeOutput(cfg.OutputFile, func(w io.Writer) error {
			return encodeJSON(w, languages)
		}, "JSON")
	case schema.CSVOut:
		return writeOutput(cfg.OutputFile, func(w io.Writer) error {
			return writeLanguagesCSV(w, languages)
		}, "CSV")
	default:
		return writeOutput(cfg.OutputFile, func(w io.Writer) error {
			return writeLanguagesTable(w, languages)
		}, "text")
	}
}

func writeLanguagesTable(w io.Writer, languages []schema.LanguageInfo) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Language", "Aliases", "Extensions", "Metrics"})

	var data [][]string
	for _, l := range languages {
		data = append(data, []string{
			l.Name,
			strings.Join(l.Aliases, ", "),
			strings.Join(l.Extensions, " "),
			strconv.Itoa(len(l.Metrics)),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d languages supported\n", len(languages))
	return err
}

func writeLanguagesCSV(w io.Writer, languages []schema.LanguageInfo) error {
	header := []string{"language", "aliases", "extensions", "metrics"}
	return writeCSVRecords(w, header, func(emit func([]string) error) error {
		for _, l := range languages {
			if err := emit([]string{
				l.Name,
				strings.Join(l.Aliases, ";"),
				strings.Join(l.Extensions, ";"),
				strings.Join(l.Metrics, ";"),
			}); err != nil {
				return err
			}
		}
		return nil
	})
}
