package contract

import (
	"strconv"
	"strings"
)

// Method is an upper-case HTTP method name.
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodPatch  Method = "PATCH"
	MethodDelete Method = "DELETE"
)

// ParseMethod accepts any casing of the five methods the scanners recognize.
func ParseMethod(s string) (Method, bool) {
	switch m := Method(strings.ToUpper(strings.TrimSpace(s))); m {
	case MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete:
		return m, true
	default:
		return "", false
	}
}

// Dialect names the call-site form a ClientCall was extracted from.
type Dialect string

const (
	DialectFetch         Dialect = "fetch"
	DialectFetchTemplate Dialect = "fetch-template"
	DialectWrapper       Dialect = "wrapper"
	DialectClient        Dialect = "client"
)

// ClientCall is one network call site discovered in the client tree.
type ClientCall struct {
	Path           string  `json:"path"`
	NormalizedPath string  `json:"normalizedPath"`
	Method         Method  `json:"method"`
	SourceFile     string  `json:"sourceFile"`
	SourceLine     int     `json:"sourceLine"`
	Dialect        Dialect `json:"dialect"`
}

// Location returns the file:line reference of the call site.
func (c ClientCall) Location() string {
	return location(c.SourceFile, c.SourceLine)
}

// Key identifies a call site for deduplication.
func (c ClientCall) Key() string {
	return c.NormalizedPath + "\x00" + c.Location()
}

// ServerRoute is one route annotation discovered in the server tree.
type ServerRoute struct {
	BasePath   string `json:"basePath"`
	LocalPath  string `json:"localPath"`
	Method     Method `json:"method"`
	FullPath   string `json:"fullPath"`
	SourceFile string `json:"sourceFile"`
	SourceLine int    `json:"sourceLine"`
}

// Location returns the file:line reference of the route annotation.
func (r ServerRoute) Location() string {
	return location(r.SourceFile, r.SourceLine)
}

// MatchResult pairs a call with the route it structurally matched.
type MatchResult struct {
	Call        ClientCall  `json:"call"`
	Route       ServerRoute `json:"route"`
	MethodMatch bool        `json:"methodMatch"`
}

// AuditResult aggregates one comparison run.
type AuditResult struct {
	Calls            []ClientCall  `json:"calls"`
	Routes           []ServerRoute `json:"routes"`
	Matches          []MatchResult `json:"matches"`
	MissingBackend   []ClientCall  `json:"missingBackend"`
	MethodMismatches []MatchResult `json:"methodMismatches"`
	CoveragePercent  int           `json:"coveragePercent"`
}

// Verified returns the matches whose methods agree.
func (r *AuditResult) Verified() []MatchResult {
	out := make([]MatchResult, 0, len(r.Matches))
	for _, m := range r.Matches {
		if m.MethodMatch {
			out = append(out, m)
		}
	}
	return out
}

// ProxyStatus records whether the same-origin proxy handler for an endpoint exists.
type ProxyStatus struct {
	Endpoint          string `json:"endpoint"`
	ExpectedRouteFile string `json:"expectedRouteFile"`
	Exists            bool   `json:"exists"`
}

// ScanStats describes what a scanner walked over.
type ScanStats struct {
	Root    string   `json:"root"`
	Files   int      `json:"files"`
	Skipped []string `json:"skipped,omitempty"`
	Missing bool     `json:"missing,omitempty"`
}

func location(file string, line int) string {
	return file + ":" + strconv.Itoa(line)
}
