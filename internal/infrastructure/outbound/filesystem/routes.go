package filesystem

import (
	"context"
	"regexp"
	"strings"

	"github.com/sophialabs/wirecheck/internal/domain/contract"
	"github.com/sophialabs/wirecheck/internal/domain/match"
	"github.com/sophialabs/wirecheck/internal/infrastructure/ports"
)

var _ contract.RouteSource = (*RouteScanner)(nil)

// ServerOptions configures a RouteScanner.
type ServerOptions struct {
	Root         string
	DisplayBase  string
	GlobalPrefix string
	Extensions   []string
	Exclude      []string
}

// DefaultServerOptions returns options for a NestJS server rooted at root.
func DefaultServerOptions(root string) ServerOptions {
	return ServerOptions{
		Root:       root,
		Extensions: DefaultServerExtensions,
		Exclude:    DefaultExclude,
	}
}

var (
	controllerOpenRe = regexp.MustCompile(`@Controller\s*\(`)
	controllerRe     = regexp.MustCompile(`@Controller\s*\(([^)]*)\)`)
	controllerPathRe = regexp.MustCompile("\\bpath\\s*:\\s*['\"`]([^'\"`]*)['\"`]")
	quotedRe         = regexp.MustCompile("['\"`]([^'\"`]*)['\"`]")
	routeRe          = regexp.MustCompile("@(Get|Post|Put|Patch|Delete)\\s*\\(\\s*(?:['\"`]([^'\"`]*)['\"`])?")
)

// RouteScanner extracts ServerRoutes from NestJS-style controllers.
type RouteScanner struct {
	opts   ServerOptions
	cache  *SourceCache
	logger ports.Logger
}

// NewRouteScanner creates a RouteScanner.
func NewRouteScanner(opts ServerOptions, cache *SourceCache, logger ports.Logger) *RouteScanner {
	if cache == nil {
		cache = NewSourceCache(0)
	}
	return &RouteScanner{opts: opts, cache: cache, logger: logger}
}

// ScanRoutes walks the server root in lexicographic order.
func (s *RouteScanner) ScanRoutes(ctx context.Context) ([]contract.ServerRoute, contract.ScanStats, error) {
	stats := contract.ScanStats{Root: displayPath(s.opts.DisplayBase, s.opts.Root)}

	files, missing, err := walkSources(s.opts.Root, walkSpec{
		extensions: s.opts.Extensions,
		exclude:    s.opts.Exclude,
		skip: func(name string) bool {
			return isTestFile(name) || strings.HasSuffix(name, ".d.ts")
		},
	})
	if err != nil {
		return nil, stats, err
	}
	if missing {
		s.logger.Warn("server root does not exist", "root", s.opts.Root)
		stats.Missing = true
		return []contract.ServerRoute{}, stats, nil
	}

	routes := []contract.ServerRoute{}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		display := displayPath(s.opts.DisplayBase, path)
		lines, err := s.cache.Lines(path)
		if err != nil {
			s.logger.Warn("skipping unreadable server file", "file", display, "error", err)
			stats.Skipped = append(stats.Skipped, display)
			continue
		}
		stats.Files++
		routes = append(routes, s.scanFile(display, lines)...)
	}

	s.logger.Debug("server scan complete", "files", stats.Files, "routes", len(routes))
	return routes, stats, nil
}

func (s *RouteScanner) scanFile(file string, lines []string) []contract.ServerRoute {
	if !hasController(lines) {
		if hasRouteDecorator(lines) {
			s.logger.Warn("route decorators without a parsable @Controller, file contributes no routes", "file", file)
		}
		return nil
	}

	var (
		out  []contract.ServerRoute
		base string
	)
	for i, line := range lines {
		if isCommentLine(line) {
			continue
		}
		if arg, ok := controllerAt(lines, i); ok {
			base = controllerBase(arg)
			continue
		}
		m := routeRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		method, _ := contract.ParseMethod(m[1])
		local := m[2]
		out = append(out, contract.ServerRoute{
			BasePath:   match.Normalize(base, ""),
			LocalPath:  local,
			Method:     method,
			FullPath:   match.Join(s.opts.GlobalPrefix, base, local),
			SourceFile: file,
			SourceLine: i + 1,
		})
	}
	return out
}

// controllerLookahead bounds how many lines a wrapped @Controller(...)
// argument list may span.
const controllerLookahead = 6

// controllerAt returns the argument of an @Controller decorator opening on
// line i, joining continuation lines until the call closes.
func controllerAt(lines []string, i int) (string, bool) {
	if isCommentLine(lines[i]) || !controllerOpenRe.MatchString(lines[i]) {
		return "", false
	}
	text := lines[i]
	end := min(len(lines), i+1+controllerLookahead)
	for j := i + 1; ; j++ {
		if m := controllerRe.FindStringSubmatch(text); m != nil {
			return m[1], true
		}
		if j >= end {
			return "", false
		}
		text += " " + strings.TrimSpace(lines[j])
	}
}

func hasController(lines []string) bool {
	for i := range lines {
		if _, ok := controllerAt(lines, i); ok {
			return true
		}
	}
	return false
}

func hasRouteDecorator(lines []string) bool {
	for _, l := range lines {
		if !isCommentLine(l) && routeRe.MatchString(l) {
			return true
		}
	}
	return false
}

// controllerBase reads the base path from @Controller('x'),
// @Controller({ path: 'x' }) or @Controller().
func controllerBase(arg string) string {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return ""
	}
	if m := controllerPathRe.FindStringSubmatch(arg); m != nil {
		return m[1]
	}
	if strings.HasPrefix(arg, "{") {
		return ""
	}
	if m := quotedRe.FindStringSubmatch(arg); m != nil {
		return m[1]
	}
	return ""
}
