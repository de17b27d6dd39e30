package filesystem

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sophialabs/wirecheck/internal/domain/contract"
	"github.com/sophialabs/wirecheck/internal/domain/match"
	"github.com/sophialabs/wirecheck/internal/infrastructure/ports"
)

var _ contract.CallSource = (*ClientScanner)(nil)

// WrapperOptions describes the thin fetch helper the client routes its calls through.
type WrapperOptions struct {
	Name     string
	File     string
	BasePath string
}

// ClientOptions configures a ClientScanner.
type ClientOptions struct {
	Root        string
	DisplayBase string
	APIPrefix   string
	Extensions  []string
	Exclude     []string
	Lookahead   int
	Wrapper     WrapperOptions
	Receivers   []string
}

// DefaultClientOptions returns options for a Next.js client rooted at root.
func DefaultClientOptions(root string) ClientOptions {
	return ClientOptions{
		Root:       root,
		APIPrefix:  "/api",
		Extensions: DefaultClientExtensions,
		Exclude:    DefaultExclude,
		Lookahead:  6,
		Wrapper:    WrapperOptions{Name: "apiFetch", File: "lib/api.ts", BasePath: "/api"},
		Receivers:  []string{"client", "api", "axios", "http"},
	}
}

var (
	fetchLiteralRe  = regexp.MustCompile(`\bfetch\(\s*['"](/[^'"]*)['"]\s*(?:[,)]|$)`)
	fetchTemplateRe = regexp.MustCompile("\\bfetch\\(\\s*`([^`]*)`")
	methodFieldRe   = regexp.MustCompile("\\bmethod\\s*:\\s*['\"`]([A-Za-z]+)['\"`]")
	interpolationRe = regexp.MustCompile(`\$\{[^}]*\}`)
)

// ClientScanner extracts ClientCalls from a client source tree.
type ClientScanner struct {
	opts      ClientOptions
	cache     *SourceCache
	logger    ports.Logger
	wrapperRe *regexp.Regexp
	clientRe  *regexp.Regexp
}

// NewClientScanner compiles the call-site patterns for opts.
func NewClientScanner(opts ClientOptions, cache *SourceCache, logger ports.Logger) (*ClientScanner, error) {
	if cache == nil {
		cache = NewSourceCache(0)
	}
	s := &ClientScanner{opts: opts, cache: cache, logger: logger}

	if name := strings.TrimSpace(opts.Wrapper.Name); name != "" {
		q := regexp.QuoteMeta(name)
		s.wrapperRe = regexp.MustCompile(`\b` + q + "(?:<[^()]*>)?\\(\\s*['\"`]([^'\"`]*)['\"`]")
	}

	if len(opts.Receivers) > 0 {
		quoted := make([]string, len(opts.Receivers))
		for i, r := range opts.Receivers {
			quoted[i] = regexp.QuoteMeta(r)
		}
		expr := `\b(?:` + strings.Join(quoted, "|") + `)\.(get|post|put|patch|delete)(?:<[^()]*>)?\(\s*['"` + "`" + `]([^'"` + "`" + `]*)['"` + "`" + `]`
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("failed to compile client receivers: %w", err)
		}
		s.clientRe = re
	}

	return s, nil
}

// ScanCalls walks the whole client root.
func (s *ClientScanner) ScanCalls(ctx context.Context) ([]contract.ClientCall, contract.ScanStats, error) {
	stats := contract.ScanStats{Root: displayPath(s.opts.DisplayBase, s.opts.Root)}

	files, missing, err := walkSources(s.opts.Root, walkSpec{
		extensions: s.opts.Extensions,
		exclude:    s.opts.Exclude,
	})
	if err != nil {
		return nil, stats, err
	}
	if missing {
		s.logger.Warn("client root does not exist", "root", s.opts.Root)
		stats.Missing = true
		return []contract.ClientCall{}, stats, nil
	}

	calls, fileStats, err := s.ScanFiles(ctx, files)
	fileStats.Root = stats.Root
	return calls, fileStats, err
}

// ScanFiles scans the given files in order. Unreadable files are skipped and
// recorded in the returned stats.
func (s *ClientScanner) ScanFiles(ctx context.Context, files []string) ([]contract.ClientCall, contract.ScanStats, error) {
	stats := contract.ScanStats{Root: displayPath(s.opts.DisplayBase, s.opts.Root)}
	calls := []contract.ClientCall{}
	seen := make(map[string]bool)

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}

		lines, err := s.cache.Lines(path)
		if err != nil {
			display := displayPath(s.opts.DisplayBase, path)
			s.logger.Warn("skipping unreadable client file", "file", display, "error", err)
			stats.Skipped = append(stats.Skipped, display)
			continue
		}
		stats.Files++

		for _, c := range s.scanLines(displayPath(s.opts.DisplayBase, path), lines, s.isWrapperFile(path)) {
			if seen[c.Key()] {
				continue
			}
			seen[c.Key()] = true
			calls = append(calls, c)
		}
	}

	return calls, stats, nil
}

// isWrapperFile reports whether path is the wrapper's implementation file,
// where wrapper-style matches are the helper's own delegation.
func (s *ClientScanner) isWrapperFile(path string) bool {
	f := s.opts.Wrapper.File
	if s.wrapperRe == nil || f == "" {
		return false
	}
	return displayPath(s.opts.Root, path) == filepath.ToSlash(filepath.Clean(f))
}

func (s *ClientScanner) scanLines(file string, lines []string, inWrapper bool) []contract.ClientCall {
	var out []contract.ClientCall
	for i, line := range lines {
		if isCommentLine(line) {
			continue
		}
		raw, method, dialect, ok := s.matchLine(lines, i, inWrapper)
		if !ok {
			continue
		}
		out = append(out, contract.ClientCall{
			Path:           raw,
			NormalizedPath: match.Normalize(raw, s.opts.APIPrefix),
			Method:         method,
			SourceFile:     file,
			SourceLine:     i + 1,
			Dialect:        dialect,
		})
	}
	return out
}

// matchLine applies the dialects in priority order; the first that matches
// wins. Inside the wrapper implementation the wrapper dialect is not applied.
func (s *ClientScanner) matchLine(lines []string, i int, inWrapper bool) (string, contract.Method, contract.Dialect, bool) {
	line := lines[i]

	if m := fetchLiteralRe.FindStringSubmatch(line); m != nil {
		if !hasLiteralSegment(m[1]) {
			return "", "", "", false
		}
		return m[1], s.inferMethod(lines, i), contract.DialectFetch, true
	}

	if m := fetchTemplateRe.FindStringSubmatch(line); m != nil {
		p, ok := expandTemplate(m[1], true)
		if !ok {
			return "", "", "", false
		}
		return p, s.inferMethod(lines, i), contract.DialectFetchTemplate, true
	}

	if s.wrapperRe != nil && !inWrapper {
		if m := s.wrapperRe.FindStringSubmatch(line); m != nil {
			p, ok := expandTemplate(m[1], false)
			if !ok {
				return "", "", "", false
			}
			raw := strings.TrimRight(s.opts.Wrapper.BasePath, "/") + "/" + strings.TrimLeft(p, "/")
			return raw, s.inferMethod(lines, i), contract.DialectWrapper, true
		}
	}

	if s.clientRe != nil {
		if m := s.clientRe.FindStringSubmatch(line); m != nil {
			p, ok := expandTemplate(m[2], false)
			if !ok {
				return "", "", "", false
			}
			return p, contract.Method(strings.ToUpper(m[1])), contract.DialectClient, true
		}
	}

	return "", "", "", false
}

// inferMethod looks for a method field on line i and up to Lookahead lines
// after it, stopping early at a line that starts another call. GET otherwise.
func (s *ClientScanner) inferMethod(lines []string, i int) contract.Method {
	end := min(len(lines), i+1+max(0, s.opts.Lookahead))
	for j := i; j < end; j++ {
		if j > i && s.startsCall(lines[j]) {
			break
		}
		if m := methodFieldRe.FindStringSubmatch(lines[j]); m != nil {
			return contract.Method(strings.ToUpper(m[1]))
		}
	}
	return contract.MethodGet
}

func (s *ClientScanner) startsCall(line string) bool {
	if fetchLiteralRe.MatchString(line) || fetchTemplateRe.MatchString(line) {
		return true
	}
	if s.wrapperRe != nil && s.wrapperRe.MatchString(line) {
		return true
	}
	return s.clientRe != nil && s.clientRe.MatchString(line)
}

// expandTemplate replaces ${...} spans with the placeholder. With dropBase, a
// leading interpolation directly followed by "/" is a base URL and removed.
// It reports false for empty or interpolation-only paths.
func expandTemplate(p string, dropBase bool) (string, bool) {
	if dropBase && strings.HasPrefix(p, "${") {
		if end := strings.IndexByte(p, '}'); end > 0 && strings.HasPrefix(p[end+1:], "/") {
			p = p[end+1:]
		}
	}
	p = interpolationRe.ReplaceAllString(p, match.Placeholder)
	if !hasLiteralSegment(p) {
		return "", false
	}
	return p, true
}

// hasLiteralSegment reports whether p carries any text besides separators
// and placeholders.
func hasLiteralSegment(p string) bool {
	rest := strings.ReplaceAll(p, match.Placeholder, "")
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}
	return strings.Trim(rest, "/ ") != ""
}

func isCommentLine(line string) bool {
	t := strings.TrimSpace(line)
	return strings.HasPrefix(t, "//") || strings.HasPrefix(t, "*") || strings.HasPrefix(t, "/*")
}
