package report

import (
	"sort"
	"strings"

	"github.com/sophialabs/wirecheck/internal/domain/contract"
	"github.com/sophialabs/wirecheck/internal/domain/match"
)

// RootModule names backlog entries whose file sits directly in the client root.
const RootModule = "(root)"

// Row is one table line of the report.
type Row struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Normalized  string `json:"normalizedPath"`
	Source      string `json:"source"`
	RouteMethod string `json:"routeMethod,omitempty"`
	RoutePath   string `json:"routePath,omitempty"`
	RouteSource string `json:"routeSource,omitempty"`
	Status      string `json:"status,omitempty"`
}

// Module groups the missing endpoints of one client module.
type Module struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	Rows  []Row  `json:"rows"`
}

// Summary carries the counters shown at the top of the report.
type Summary struct {
	ClientRoot   string   `json:"clientRoot"`
	ServerRoot   string   `json:"serverRoot"`
	Calls        int      `json:"calls"`
	Routes       int      `json:"routes"`
	Matched      int      `json:"matched"`
	Verified     int      `json:"verified"`
	Missing      int      `json:"missing"`
	Mismatches   int      `json:"mismatches"`
	Coverage     int      `json:"coverage"`
	Skipped      []string `json:"skipped"`
	SkippedCount int      `json:"skippedCount"`
	Gate         string   `json:"gate"`
	GateResult   string   `json:"gateResult"`
	Pass         bool     `json:"pass"`
}

// Document is everything the report artifacts are rendered from.
type Document struct {
	Summary    Summary               `json:"summary"`
	Backlog    []Module              `json:"backlog"`
	Result     *contract.AuditResult `json:"result"`
	Missing    []Row                 `json:"-"`
	Mismatches []Row                 `json:"-"`
	Matched    []Row                 `json:"-"`
}

// Input is what Build needs from an audit run.
type Input struct {
	Result *contract.AuditResult
	Client contract.ScanStats
	Server contract.ScanStats
	AppDir string
	Gate   string
	Pass   bool
}

// Build assembles the report document. Row order follows discovery order;
// backlog modules are sorted by name.
func Build(in Input) *Document {
	r := in.Result
	skipped := append(append([]string{}, in.Client.Skipped...), in.Server.Skipped...)

	doc := &Document{
		Summary: Summary{
			ClientRoot:   in.Client.Root,
			ServerRoot:   in.Server.Root,
			Calls:        len(r.Calls),
			Routes:       len(r.Routes),
			Matched:      len(r.Matches),
			Verified:     len(r.Verified()),
			Missing:      len(r.MissingBackend),
			Mismatches:   len(r.MethodMismatches),
			Coverage:     r.CoveragePercent,
			Skipped:      skipped,
			SkippedCount: len(skipped),
			Gate:         in.Gate,
			GateResult:   gateResult(in.Pass),
			Pass:         in.Pass,
		},
		Result:     r,
		Backlog:    []Module{},
		Missing:    make([]Row, 0, len(r.MissingBackend)),
		Mismatches: make([]Row, 0, len(r.MethodMismatches)),
		Matched:    make([]Row, 0, len(r.Matches)),
	}

	groups := make(map[string]*Module)
	for _, c := range r.MissingBackend {
		row := callRow(c)
		doc.Missing = append(doc.Missing, row)

		name := ModuleOf(c.SourceFile, in.Client.Root, in.AppDir)
		m, ok := groups[name]
		if !ok {
			m = &Module{Name: name}
			groups[name] = m
		}
		m.Rows = append(m.Rows, row)
		m.Count++
	}
	names := make([]string, 0, len(groups))
	for n := range groups {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		doc.Backlog = append(doc.Backlog, *groups[n])
	}

	for _, m := range r.MethodMismatches {
		doc.Mismatches = append(doc.Mismatches, matchRow(m))
	}
	for _, m := range r.Matches {
		doc.Matched = append(doc.Matched, matchRow(m))
	}
	return doc
}

// ModuleOf returns the client module of a source file: the first path
// segment relative to the client root, skipping the app directory and
// route groups such as "(dashboard)".
func ModuleOf(sourceFile, clientRoot, appDir string) string {
	segs := match.Segments(sourceFile)
	if root := match.Segments(clientRoot); hasPrefix(segs, root) {
		segs = segs[len(root):]
	}
	if app := match.Segments(appDir); len(app) > 0 && hasPrefix(segs, app) {
		segs = segs[len(app):]
	}
	for len(segs) > 1 {
		s := segs[0]
		if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
			segs = segs[1:]
			continue
		}
		return s
	}
	return RootModule
}

func hasPrefix(segs, prefix []string) bool {
	if len(prefix) > len(segs) {
		return false
	}
	for i := range prefix {
		if segs[i] != prefix[i] {
			return false
		}
	}
	return true
}

func callRow(c contract.ClientCall) Row {
	return Row{
		Method:     string(c.Method),
		Path:       cell(c.Path),
		Normalized: cell(c.NormalizedPath),
		Source:     cell(c.Location()),
	}
}

func matchRow(m contract.MatchResult) Row {
	row := callRow(m.Call)
	row.RouteMethod = string(m.Route.Method)
	row.RoutePath = cell(m.Route.FullPath)
	row.RouteSource = cell(m.Route.Location())
	row.Status = "ok"
	if !m.MethodMatch {
		row.Status = "method mismatch"
	}
	return row
}

// cell escapes pipes so a value cannot break a markdown table.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func gateResult(pass bool) string {
	if pass {
		return "PASS"
	}
	return "FAIL"
}
