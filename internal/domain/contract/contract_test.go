package contract_test

import (
	"testing"

	"github.com/sophialabs/wirecheck/internal/domain/contract"
)

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in     string
		want   contract.Method
		wantOK bool
	}{
		{"GET", contract.MethodGet, true},
		{"post", contract.MethodPost, true},
		{" Patch ", contract.MethodPatch, true},
		{"delete", contract.MethodDelete, true},
		{"put", contract.MethodPut, true},
		{"HEAD", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := contract.ParseMethod(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseMethod(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestLocation(t *testing.T) {
	c := contract.ClientCall{SourceFile: "app/customers/page.tsx", SourceLine: 12}
	if got := c.Location(); got != "app/customers/page.tsx:12" {
		t.Errorf("ClientCall.Location() = %q", got)
	}

	r := contract.ServerRoute{SourceFile: "src/customers.controller.ts", SourceLine: 4}
	if got := r.Location(); got != "src/customers.controller.ts:4" {
		t.Errorf("ServerRoute.Location() = %q", got)
	}
}

func TestClientCall_Key(t *testing.T) {
	a := contract.ClientCall{NormalizedPath: "/customers", SourceFile: "a.tsx", SourceLine: 1, Method: contract.MethodGet}
	b := a
	b.Method = contract.MethodPost
	if a.Key() != b.Key() {
		t.Error("key should ignore method")
	}
	b.SourceLine = 2
	if a.Key() == b.Key() {
		t.Error("key should include the line")
	}
}

func TestAuditResult_Verified(t *testing.T) {
	res := contract.AuditResult{
		Matches: []contract.MatchResult{
			{MethodMatch: true},
			{MethodMatch: false},
			{MethodMatch: true},
		},
	}
	if got := len(res.Verified()); got != 2 {
		t.Errorf("Verified() returned %d matches, want 2", got)
	}
}
