package filesystem

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/sophialabs/wirecheck/internal/domain/match"
)

// findInAppTree resolves segs against a Next.js app directory and returns the
// first file named one of names. At each level a literal segment prefers the
// exact directory, then any dynamic "[x]" directory; a placeholder segment
// only accepts dynamic directories. Catch-all directories absorb the rest of
// the path and route groups "(x)" are transparent.
func findInAppTree(dir string, segs []string, names []string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}

	if len(segs) == 0 {
		if f, ok := firstExisting(dir, names); ok {
			return f, true
		}
		for _, e := range entries {
			if e.IsDir() && isOptionalCatchAll(e.Name()) {
				if f, ok := firstExisting(filepath.Join(dir, e.Name()), names); ok {
					return f, true
				}
			}
		}
		return searchGroups(dir, entries, segs, names)
	}

	seg := segs[0]
	if !strings.Contains(seg, match.Placeholder) && !isSpecialDir(seg) {
		if sub := filepath.Join(dir, seg); isDir(sub) {
			if f, ok := findInAppTree(sub, segs[1:], names); ok {
				return f, true
			}
		}
	}
	for _, e := range entries {
		if e.IsDir() && isDynamicDir(e.Name()) {
			if f, ok := findInAppTree(filepath.Join(dir, e.Name()), segs[1:], names); ok {
				return f, true
			}
		}
	}
	for _, e := range entries {
		if e.IsDir() && isCatchAll(e.Name()) {
			if f, ok := firstExisting(filepath.Join(dir, e.Name()), names); ok {
				return f, true
			}
		}
	}
	return searchGroups(dir, entries, segs, names)
}

func searchGroups(dir string, entries []os.DirEntry, segs []string, names []string) (string, bool) {
	for _, e := range entries {
		if e.IsDir() && isRouteGroup(e.Name()) {
			if f, ok := findInAppTree(filepath.Join(dir, e.Name()), segs, names); ok {
				return f, true
			}
		}
	}
	return "", false
}

func firstExisting(dir string, names []string) (string, bool) {
	for _, n := range names {
		if p := filepath.Join(dir, n); isRegularFile(p) {
			return p, true
		}
	}
	return "", false
}

func isDynamicDir(name string) bool {
	return strings.HasPrefix(name, "[") && strings.HasSuffix(name, "]") && !isCatchAll(name)
}

func isCatchAll(name string) bool {
	return strings.HasPrefix(name, "[...") || strings.HasPrefix(name, "[[...")
}

func isOptionalCatchAll(name string) bool {
	return strings.HasPrefix(name, "[[...") && strings.HasSuffix(name, "]]")
}

func isRouteGroup(name string) bool {
	return strings.HasPrefix(name, "(") && strings.HasSuffix(name, ")")
}

func isSpecialDir(name string) bool {
	return strings.HasPrefix(name, "[") || isRouteGroup(name)
}
