package langs

import (
	"path/filepath"

	"github.com/src-d/enry/v2"
)

// Detect returns the language of a file. Linguist detection on the name and
// content is tried first, then the extension index.
func (r *Registry) Detect(path string, content []byte) (*Language, bool) {
	if name := enry.GetLanguage(filepath.Base(path), content); name != "" {
		if l, err := r.Get(name); err == nil {
			return l, true
		}
	}
	return r.ByExtension(path)
}
