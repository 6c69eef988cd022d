package source

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NotebookExt is the extension of Jupyter notebooks.
const NotebookExt = ".ipynb"

// IsNotebook reports whether path names a Jupyter notebook.
func IsNotebook(path string) bool {
	return strings.EqualFold(pathExt(path), NotebookExt)
}

func pathExt(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 && !strings.Contains(path[i:], "/") {
		return path[i:]
	}
	return ""
}

type notebook struct {
	Cells []struct {
		CellType string          `json:"cell_type"`
		Source   json.RawMessage `json:"source"`
	} `json:"cells"`
}

// cellSource accepts both the list-of-lines and the single string forms.
func cellSource(raw json.RawMessage) ([]string, error) {
	var lines []string
	if err := json.Unmarshal(raw, &lines); err == nil {
		return lines, nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return nil, err
	}
	return strings.SplitAfter(text, "\n"), nil
}

// UnwrapNotebook returns the code cells of a notebook as one source file.
// Cells are separated by a blank line and IPython magics are commented out.
func UnwrapNotebook(content []byte) ([]byte, error) {
	var nb notebook
	if err := json.Unmarshal(content, &nb); err != nil {
		return nil, fmt.Errorf("decode notebook: %w", err)
	}
	var cells []string
	for i, cell := range nb.Cells {
		if cell.CellType != "code" {
			continue
		}
		lines, err := cellSource(cell.Source)
		if err != nil {
			return nil, fmt.Errorf("decode cell %d: %w", i, err)
		}
		var b strings.Builder
		for _, line := range lines {
			if strings.HasPrefix(line, "%") {
				b.WriteString("#")
			}
			b.WriteString(line)
		}
		cells = append(cells, b.String())
	}
	return []byte(strings.Join(cells, "\n\n") + "\n"), nil
}
