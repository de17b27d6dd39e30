//go:build e2e

package e2e_test

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sophialabs/wirecheck/internal/app"
	"github.com/sophialabs/wirecheck/internal/domain/trace"
	"github.com/sophialabs/wirecheck/internal/infrastructure/usecases"
)

func TestAudit_FailsGateAndWritesArtifacts(t *testing.T) {
	a, out, reports := setupApp(t, nil)

	pass, err := a.Audit(context.Background())
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if pass {
		t.Error("expected the default gate to fail on /widgets")
	}
	if !strings.Contains(out.String(), "60%") {
		t.Errorf("console summary lacks coverage:\n%s", out.String())
	}

	md, err := os.ReadFile(filepath.Join(reports, "contract-audit.md"))
	if err != nil {
		t.Fatalf("markdown report: %v", err)
	}
	if !strings.Contains(string(md), "### widgets (1)") {
		t.Errorf("backlog section missing widgets:\n%s", md)
	}

	raw, err := os.ReadFile(filepath.Join(reports, "audit.json"))
	if err != nil {
		t.Fatalf("json report: %v", err)
	}
	var doc struct {
		Summary struct {
			Missing  int `json:"missing"`
			Coverage int `json:"coverage"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("decode audit.json: %v", err)
	}
	if doc.Summary.Missing != 1 || doc.Summary.Coverage != 60 {
		t.Errorf("unexpected summary: %+v", doc.Summary)
	}

	junit, err := os.ReadFile(filepath.Join(reports, "junit.xml"))
	if err != nil {
		t.Fatalf("junit report: %v", err)
	}
	var suites struct {
		Failures int `xml:"failures,attr"`
	}
	if err := xml.Unmarshal(junit, &suites); err != nil {
		t.Fatalf("decode junit.xml: %v", err)
	}
	if suites.Failures == 0 {
		t.Error("junit should record the missing endpoint as a failure")
	}
}

func TestAudit_LenientGatePasses(t *testing.T) {
	a, _, _ := setupApp(t, func(cfg *app.Config) {
		cfg.Gate = "coverage >= 50"
	})

	pass, err := a.Audit(context.Background())
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if !pass {
		t.Error("coverage 60 should satisfy coverage >= 50")
	}
}

func TestAudit_RerunRewritesReport(t *testing.T) {
	a, _, reports := setupApp(t, nil)
	path := filepath.Join(reports, "contract-audit.md")

	if _, err := a.Audit(context.Background()); err != nil {
		t.Fatalf("first audit: %v", err)
	}
	first, _ := os.ReadFile(path)
	if _, err := a.Audit(context.Background()); err != nil {
		t.Fatalf("second audit: %v", err)
	}
	second, _ := os.ReadFile(path)
	if string(first) != string(second) {
		t.Error("re-running against an unchanged tree should produce the same report")
	}
}

func TestTrace_Verdicts(t *testing.T) {
	tests := []struct {
		name string
		req  usecases.TraceRequest
		want trace.Verdict
	}{
		{"wired page", usecases.TraceRequest{Route: "/customers"}, trace.Go},
		{"mismatch only", usecases.TraceRequest{Route: "/customers/7"}, trace.Go},
		{"missing backend", usecases.TraceRequest{Route: "/widgets"}, trace.NoGo},
		{"by file", usecases.TraceRequest{File: "client/app/widgets/page.tsx"}, trace.NoGo},
		{"unresolved", usecases.TraceRequest{Route: "/nowhere"}, trace.NoGo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, out, _ := setupApp(t, nil)
			got, err := a.Trace(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("trace: %v", err)
			}
			if got != tt.want {
				t.Errorf("verdict = %s, want %s\n%s", got, tt.want, out.String())
			}
			if !strings.Contains(out.String(), string(tt.want)) {
				t.Errorf("console output lacks verdict:\n%s", out.String())
			}
		})
	}
}
