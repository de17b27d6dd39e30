package services_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sophialabs/wirecheck/internal/domain/contract"
	"github.com/sophialabs/wirecheck/internal/domain/match"
	"github.com/sophialabs/wirecheck/internal/infrastructure/services"
)

func route(method contract.Method, full string) contract.ServerRoute {
	return contract.ServerRoute{Method: method, FullPath: full, SourceFile: "server/x.controller.ts", SourceLine: 1}
}

func TestRouteIndex_BucketsBySegmentCount(t *testing.T) {
	routes := []contract.ServerRoute{
		route(contract.MethodGet, "/customers"),
		route(contract.MethodGet, "/customers/:id"),
		route(contract.MethodPost, "/customers"),
		route(contract.MethodGet, "/orders/:id"),
	}
	idx := services.NewRouteIndex(routes)

	if idx.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", idx.Len())
	}
	if diff := cmp.Diff([]int{1, 2}, idx.Lengths()); diff != "" {
		t.Errorf("Lengths() mismatch (-want +got):\n%s", diff)
	}

	two := idx.Candidates(2)
	if len(two) != 2 {
		t.Fatalf("expected 2 two-segment routes, got %d", len(two))
	}
	if two[0].Route.FullPath != "/customers/:id" || two[1].Route.FullPath != "/orders/:id" {
		t.Errorf("bucket lost discovery order: %v, %v", two[0].Route.FullPath, two[1].Route.FullPath)
	}
	if got := idx.Candidates(5); len(got) != 0 {
		t.Errorf("expected no five-segment routes, got %d", len(got))
	}
	if diff := cmp.Diff(routes, idx.All()); diff != "" {
		t.Errorf("All() mismatch (-want +got):\n%s", diff)
	}
}

func TestRouteIndex_AgreesWithLinearCompare(t *testing.T) {
	routes := []contract.ServerRoute{
		route(contract.MethodGet, "/customers/:id"),
		route(contract.MethodPatch, "/customers/:id"),
		route(contract.MethodGet, "/customers/:id/orders"),
	}
	calls := []contract.ClientCall{
		{Path: "/customers/42", NormalizedPath: "/customers/42", Method: contract.MethodPatch, SourceFile: "a.ts", SourceLine: 1},
		{Path: "/customers/*/orders", NormalizedPath: "/customers/*/orders", Method: contract.MethodPost, SourceFile: "a.ts", SourceLine: 2},
		{Path: "/invoices", NormalizedPath: "/invoices", Method: contract.MethodGet, SourceFile: "a.ts", SourceLine: 3},
	}

	isIdent := match.IdentifierShape()
	indexed := match.NewComparator(isIdent).Compare(calls, services.NewRouteIndex(routes))
	linear := match.Compare(calls, routes, isIdent)

	if diff := cmp.Diff(linear, indexed); diff != "" {
		t.Errorf("indexed compare differs from linear (-linear +indexed):\n%s", diff)
	}
	if len(indexed.MissingBackend) != 1 || len(indexed.MethodMismatches) != 2 {
		t.Errorf("unexpected classification: missing=%d mismatches=%d", len(indexed.MissingBackend), len(indexed.MethodMismatches))
	}
}
