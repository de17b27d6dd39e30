package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/sophialabs/wirecheck/internal/infrastructure/ports"
)

// importSuffixes are tried in order when resolving a local specifier.
var importSuffixes = []string{"", ".ts", ".tsx", ".js", ".jsx", "/index.ts", "/index.tsx", "/index.js", "/index.jsx"}

var (
	importFromRe    = regexp.MustCompile(`^\s*(?:import|export)\s+.*from\s+["']([^"']+)["']`)
	importBareRe    = regexp.MustCompile(`^\s*import\s+["']([^"']+)["']`)
	importDynamicRe = regexp.MustCompile(`\b(?:import|require)\(\s*["']([^"']+)["']\s*\)`)
)

// ImportTracer expands a wiring-trace entry file into the set of files to scan:
// the entry, its sibling source files and the local modules it imports, up
// to hops levels deep.
type ImportTracer struct {
	clientRoot string
	extensions []string
	hops       int
	cache      *SourceCache
	logger     ports.Logger
}

// NewImportTracer creates a tracer. The "@/" alias resolves against clientRoot.
func NewImportTracer(clientRoot string, extensions []string, hops int, cache *SourceCache, logger ports.Logger) *ImportTracer {
	if cache == nil {
		cache = NewSourceCache(0)
	}
	return &ImportTracer{
		clientRoot: clientRoot,
		extensions: extensions,
		hops:       max(1, hops),
		cache:      cache,
		logger:     logger,
	}
}

// ResolveFileSet returns the entry, its siblings (sorted) and the imported
// files in discovery order, each exactly once.
func (t *ImportTracer) ResolveFileSet(ctx context.Context, entry string) ([]string, error) {
	entry = filepath.Clean(entry)
	seen := map[string]bool{entry: true}
	files := []string{entry}

	siblings, err := t.siblings(entry)
	if err != nil {
		return nil, err
	}
	for _, s := range siblings {
		if !seen[s] {
			seen[s] = true
			files = append(files, s)
		}
	}

	frontier := []string{entry}
	for hop := 0; hop < t.hops && len(frontier) > 0; hop++ {
		var next []string
		for _, f := range frontier {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			for _, spec := range t.Imports(ctx, f) {
				resolved, ok := t.resolve(f, spec)
				if !ok {
					if isLocalSpecifier(spec) {
						t.logger.Debug("unresolved import", "file", f, "specifier", spec)
					}
					continue
				}
				if seen[resolved] {
					continue
				}
				seen[resolved] = true
				files = append(files, resolved)
				next = append(next, resolved)
			}
		}
		frontier = next
	}

	return files, nil
}

func (t *ImportTracer) siblings(entry string) ([]string, error) {
	dir := filepath.Dir(entry)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	exts := make(map[string]bool, len(t.extensions))
	for _, e := range t.extensions {
		exts[strings.ToLower(e)] = true
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() && hasExtension(e.Name(), exts) {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

// Imports returns the module specifiers of a file in source order. Static
// imports, re-exports, dynamic import() and require() are recognized. When
// the file cannot be parsed a line-based fallback is used.
func (t *ImportTracer) Imports(ctx context.Context, file string) []string {
	data, err := t.cache.Bytes(file)
	if err != nil {
		t.logger.Warn("skipping unreadable import source", "file", file, "error", err)
		return nil
	}

	specs, err := parseImports(ctx, file, data)
	if err != nil {
		t.logger.Debug("tree-sitter parse failed, using line scan", "file", file, "error", err)
		return scanImportLines(splitLines(string(data)))
	}
	return specs
}

func languageFor(file string) *sitter.Language {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".ts", ".mts", ".cts":
		return typescript.GetLanguage()
	case ".js", ".mjs", ".cjs":
		return javascript.GetLanguage()
	default:
		return tsx.GetLanguage()
	}
}

func parseImports(ctx context.Context, file string, data []byte) ([]string, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(languageFor(file))

	tree, err := parser.ParseCtx(ctx, nil, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", file, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("failed to parse %s: empty tree", file)
	}

	var specs []string
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == nil {
			continue
		}

		switch n.Type() {
		case "import_statement", "export_statement":
			if src := n.ChildByFieldName("source"); src != nil {
				if s := stringContent(src, data); s != "" {
					specs = append(specs, s)
				}
			}
			if n.Type() == "import_statement" {
				continue
			}
		case "call_expression":
			if s := callSpecifier(n, data); s != "" {
				specs = append(specs, s)
			}
		}

		// Push children in reverse so they pop in source order.
		for i := int(n.NamedChildCount()) - 1; i >= 0; i-- {
			stack = append(stack, n.NamedChild(i))
		}
	}
	return specs, nil
}

// callSpecifier extracts the string argument of import("x") or require("x").
func callSpecifier(n *sitter.Node, data []byte) string {
	fn := n.ChildByFieldName("function")
	args := n.ChildByFieldName("arguments")
	if fn == nil || args == nil {
		return ""
	}
	if fn.Type() != "import" && !(fn.Type() == "identifier" && fn.Content(data) == "require") {
		return ""
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		if a := args.NamedChild(i); a != nil && a.Type() == "string" {
			return stringContent(a, data)
		}
	}
	return ""
}

func stringContent(n *sitter.Node, data []byte) string {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == "string_fragment" {
			return c.Content(data)
		}
	}
	text := n.Content(data)
	if len(text) >= 2 {
		return text[1 : len(text)-1]
	}
	return ""
}

func scanImportLines(lines []string) []string {
	var specs []string
	for _, l := range lines {
		if m := importFromRe.FindStringSubmatch(l); m != nil {
			specs = append(specs, m[1])
			continue
		}
		if m := importBareRe.FindStringSubmatch(l); m != nil {
			specs = append(specs, m[1])
			continue
		}
		for _, m := range importDynamicRe.FindAllStringSubmatch(l, -1) {
			specs = append(specs, m[1])
		}
	}
	return specs
}

func isLocalSpecifier(spec string) bool {
	return strings.HasPrefix(spec, "@/") || strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../")
}

// resolve maps a local specifier to the first existing candidate file.
func (t *ImportTracer) resolve(from, spec string) (string, bool) {
	var base string
	switch {
	case strings.HasPrefix(spec, "@/"):
		base = filepath.Join(t.clientRoot, filepath.FromSlash(spec[2:]))
	case strings.HasPrefix(spec, "./"), strings.HasPrefix(spec, "../"):
		base = filepath.Join(filepath.Dir(from), filepath.FromSlash(spec))
	default:
		return "", false
	}
	for _, suffix := range importSuffixes {
		if p := base + filepath.FromSlash(suffix); isRegularFile(p) {
			return filepath.Clean(p), true
		}
	}
	return "", false
}
