package match

import (
	"math"

	"github.com/sophialabs/wirecheck/internal/domain/contract"
)

// CompiledRoute is a server route with its precomputed pattern. Order is the
// route's position in discovery order.
type CompiledRoute struct {
	Route   contract.ServerRoute
	Pattern Pattern
	Order   int
}

// Compile precomputes server patterns, preserving discovery order.
func Compile(routes []contract.ServerRoute) []CompiledRoute {
	out := make([]CompiledRoute, len(routes))
	for i, r := range routes {
		out[i] = CompiledRoute{Route: r, Pattern: ServerPattern(r.FullPath), Order: i}
	}
	return out
}

// Candidates supplies, for a segment count, the routes that could match, in
// discovery order.
type Candidates interface {
	Candidates(segments int) []CompiledRoute
	All() []contract.ServerRoute
}

// Comparator classifies client calls against server routes.
type Comparator struct {
	isIdent Predicate
}

// NewComparator creates a Comparator using isIdent as the client-side
// identifier heuristic. A nil isIdent wildcards only interpolated segments.
func NewComparator(isIdent Predicate) *Comparator {
	if isIdent == nil {
		isIdent = Never()
	}
	return &Comparator{isIdent: isIdent}
}

// Match finds the route for one call among pre-ordered candidates. The first
// pattern-equal route wins; MethodMatch reports whether its method agrees.
func (c *Comparator) Match(call contract.ClientCall, candidates []CompiledRoute) (contract.MatchResult, bool) {
	pattern := ClientPattern(call.NormalizedPath, c.isIdent)

	for _, cr := range candidates {
		if pattern.Equal(cr.Pattern) {
			return contract.MatchResult{Call: call, Route: cr.Route, MethodMatch: cr.Route.Method == call.Method}, true
		}
	}
	return contract.MatchResult{}, false
}

// Compare classifies every call exactly once. It never fails; empty inputs
// yield an empty result with 100% coverage when there are no calls.
func (c *Comparator) Compare(calls []contract.ClientCall, routes Candidates) contract.AuditResult {
	result := contract.AuditResult{
		Calls:            calls,
		Routes:           routes.All(),
		Matches:          []contract.MatchResult{},
		MissingBackend:   []contract.ClientCall{},
		MethodMismatches: []contract.MatchResult{},
	}
	if result.Calls == nil {
		result.Calls = []contract.ClientCall{}
	}
	if result.Routes == nil {
		result.Routes = []contract.ServerRoute{}
	}

	verified := 0
	for _, call := range calls {
		n := len(Segments(call.NormalizedPath))
		m, ok := c.Match(call, routes.Candidates(n))
		if !ok {
			result.MissingBackend = append(result.MissingBackend, call)
			continue
		}
		result.Matches = append(result.Matches, m)
		if m.MethodMatch {
			verified++
		} else {
			result.MethodMismatches = append(result.MethodMismatches, m)
		}
	}

	result.CoveragePercent = Coverage(verified, len(calls))
	return result
}

// Compare is a convenience for callers without a prebuilt index.
func Compare(calls []contract.ClientCall, routes []contract.ServerRoute, isIdent Predicate) contract.AuditResult {
	return NewComparator(isIdent).Compare(calls, routeList(Compile(routes)))
}

// Coverage returns round(100*verified/total), or 100 when total is zero.
func Coverage(verified, total int) int {
	if total <= 0 {
		return 100
	}
	pct := int(math.Round(100 * float64(verified) / float64(total)))
	return max(0, min(100, pct))
}

type routeList []CompiledRoute

func (l routeList) Candidates(segments int) []CompiledRoute {
	out := make([]CompiledRoute, 0, len(l))
	for _, cr := range l {
		if len(cr.Pattern) == segments {
			out = append(out, cr)
		}
	}
	return out
}

func (l routeList) All() []contract.ServerRoute {
	out := make([]contract.ServerRoute, len(l))
	for i, cr := range l {
		out[i] = cr.Route
	}
	return out
}
