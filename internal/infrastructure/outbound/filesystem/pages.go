package filesystem

import (
	"path/filepath"

	"github.com/sophialabs/wirecheck/internal/domain/match"
)

var pageNames = []string{"page.tsx", "page.ts", "page.jsx", "page.js"}

// PageResolver finds the entry file for a wiring trace.
type PageResolver struct {
	appRoot  string
	repoRoot string
}

// NewPageResolver creates a resolver over the app directory appRoot. File
// arguments are resolved against repoRoot.
func NewPageResolver(appRoot, repoRoot string) *PageResolver {
	return &PageResolver{appRoot: appRoot, repoRoot: repoRoot}
}

// ResolveRoute walks the page tree for a URL path such as /customers/42,
// preferring exact directories and falling back to dynamic ones per level.
func (r *PageResolver) ResolveRoute(route string) (string, bool) {
	return findInAppTree(r.appRoot, match.Segments(match.Normalize(route, "")), pageNames)
}

// ResolveFile resolves a repo-relative or absolute path to an existing file.
func (r *PageResolver) ResolveFile(p string) (string, bool) {
	if !filepath.IsAbs(p) {
		p = filepath.Join(r.repoRoot, p)
	}
	p = filepath.Clean(p)
	return p, isRegularFile(p)
}
