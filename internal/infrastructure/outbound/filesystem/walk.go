package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultExclude lists dependency and build directories never scanned.
var DefaultExclude = []string{"node_modules", ".next", "dist", "build", "out", "coverage", ".git", ".turbo"}

// DefaultClientExtensions are the client source extensions scanned.
var DefaultClientExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}

// DefaultServerExtensions are the server source extensions scanned.
var DefaultServerExtensions = []string{".ts", ".js"}

// walkSpec selects the files a walk returns.
type walkSpec struct {
	extensions []string
	exclude    []string
	skip       func(name string) bool
}

// walkSources returns matching files under root, sorted lexicographically.
// A missing root is reported through missing, not as an error.
func walkSources(root string, spec walkSpec) (files []string, missing bool, err error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, true, nil
		}
		return nil, false, fmt.Errorf("failed to stat root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, false, fmt.Errorf("root %s is not a directory", root)
	}

	exts := make(map[string]bool, len(spec.extensions))
	for _, e := range spec.extensions {
		exts[strings.ToLower(e)] = true
	}
	excluded := make(map[string]bool, len(spec.exclude))
	for _, d := range spec.exclude {
		excluded[d] = true
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subdirectories are skipped; the root itself was stat'ed above.
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && excluded[d.Name()] {
				return fs.SkipDir
			}
			return nil
		}
		if !hasExtension(d.Name(), exts) {
			return nil
		}
		if spec.skip != nil && spec.skip(d.Name()) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	sort.Strings(files)
	return files, false, nil
}

func hasExtension(name string, exts map[string]bool) bool {
	return exts[strings.ToLower(filepath.Ext(name))]
}

// isTestFile matches *.spec.* and *.test.* files.
func isTestFile(name string) bool {
	return strings.Contains(name, ".spec.") || strings.Contains(name, ".test.")
}

// displayPath renders path relative to base with forward slashes. Paths
// outside base are returned as-is.
func displayPath(base, path string) string {
	if base == "" {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(base, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
