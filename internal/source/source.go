// Package source collects the files to analyze from the local file system.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/src-d/enry/v2"

	"github.com/huangsam/treemetrics/internal/contract"
	"github.com/huangsam/treemetrics/internal/langs"
)

// File is a file selected for analysis.
type File struct {
	Dir      string          // Root the file was collected from
	Path     string          // Slash-separated path relative to Dir
	Abs      string          // Absolute path on disk
	Language *langs.Language // Language the file is analyzed as
}

// Options selects which files Walk returns.
type Options struct {
	Registry   *langs.Registry // Defaults to langs.Default
	Language   *langs.Language // Analyze every matching file as this language
	Include    *regexp.Regexp  // Matched against the relative path; nil keeps all
	Excludes   []string        // Patterns understood by contract.ShouldIgnore
	KeepVendor bool            // Keep vendored and generated third-party files
}

// Walk collects the analyzable files under root. A root naming a single
// file yields that file relative to its directory. Files are sorted by path.
func Walk(ctx context.Context, root string, opts Options) ([]File, error) {
	if opts.Registry == nil {
		opts.Registry = langs.Default
	}
	abs, err := filepath.Abs(strings.TrimSpace(root))
	if err != nil {
		return nil, fmt.Errorf("resolve path %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		f, ok := opts.selectFile(root, filepath.Dir(abs), abs)
		if !ok {
			return nil, fmt.Errorf("no supported language for %s", root)
		}
		f.Dir = filepath.Dir(root)
		return []File{f}, nil
	}

	var files []File
	err = filepath.WalkDir(abs, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, relErr := filepath.Rel(abs, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if entry.IsDir() {
			if path == abs {
				return nil
			}
			if strings.HasPrefix(entry.Name(), ".") || contract.ShouldIgnore(rel+"/", opts.Excludes) {
				return filepath.SkipDir
			}
			if !opts.KeepVendor && enry.IsVendor(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		if f, ok := opts.selectFile(root, abs, path); ok {
			files = append(files, f)
		}
		return nil
	})
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			// files collected so far stay valid
			return files, ctxErr
		}
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}

// selectFile applies the filters to one file and resolves its language.
func (o Options) selectFile(root, base, path string) (File, bool) {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)

	if contract.ShouldIgnore(rel, o.Excludes) {
		return File{}, false
	}
	if o.Include != nil && !o.Include.MatchString(rel) {
		return File{}, false
	}
	if !o.KeepVendor && enry.IsVendor(rel) {
		return File{}, false
	}

	f := File{Dir: root, Path: rel, Abs: path, Language: o.Language}
	if f.Language != nil {
		return f, o.Include != nil || hasExtension(f.Language, rel) || IsNotebook(rel)
	}
	if IsNotebook(rel) {
		f.Language, _ = o.Registry.Get("python")
		return f, f.Language != nil
	}
	l, ok := o.Registry.ByExtension(rel)
	if !ok && filepath.Ext(rel) == "" {
		// extensionless scripts are recognized by their shebang
		l, ok = o.Registry.Detect(rel, head(path))
	}
	if !ok {
		return File{}, false
	}
	f.Language = l
	return f, true
}

func hasExtension(l *langs.Language, path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range l.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// head returns the first bytes of a file, enough for a shebang line.
func head(path string) []byte {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer func() { _ = f.Close() }()
	buf := make([]byte, 256)
	n, _ := io.ReadFull(f, buf)
	return buf[:n]
}

// Read loads the file content, unwrapping notebooks to their code cells.
func (f File) Read() ([]byte, error) {
	content, err := os.ReadFile(f.Abs)
	if err != nil {
		return nil, err
	}
	if IsNotebook(f.Path) {
		code, err := UnwrapNotebook(content)
		if err != nil {
			contract.LogWarn(fmt.Sprintf("Failed to unwrap notebook %s", f.Path), err)
			return content, nil
		}
		return code, nil
	}
	return content, nil
}
