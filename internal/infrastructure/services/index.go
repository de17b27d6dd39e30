package services

import (
	"sort"

	"github.com/sophialabs/wirecheck/internal/domain/contract"
	"github.com/sophialabs/wirecheck/internal/domain/match"
)

var _ match.Candidates = (*RouteIndex)(nil)

// RouteIndex buckets compiled server routes by segment count so the
// comparator only tests routes of the right length. Within a bucket routes
// keep discovery order.
type RouteIndex struct {
	routes  []contract.ServerRoute
	buckets map[int][]match.CompiledRoute
}

// NewRouteIndex compiles and indexes routes.
func NewRouteIndex(routes []contract.ServerRoute) *RouteIndex {
	idx := &RouteIndex{
		routes:  routes,
		buckets: make(map[int][]match.CompiledRoute),
	}
	for _, cr := range match.Compile(routes) {
		n := len(cr.Pattern)
		idx.buckets[n] = append(idx.buckets[n], cr)
	}
	return idx
}

// Candidates returns the routes with the given number of segments.
func (idx *RouteIndex) Candidates(segments int) []match.CompiledRoute {
	return idx.buckets[segments]
}

// All returns every indexed route in discovery order.
func (idx *RouteIndex) All() []contract.ServerRoute {
	return idx.routes
}

// Len returns the number of indexed routes.
func (idx *RouteIndex) Len() int {
	return len(idx.routes)
}

// Lengths returns the distinct segment counts present, ascending.
func (idx *RouteIndex) Lengths() []int {
	out := make([]int, 0, len(idx.buckets))
	for n := range idx.buckets {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}
