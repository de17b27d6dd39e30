package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sophialabs/wirecheck/internal/domain/contract"
	"github.com/sophialabs/wirecheck/internal/testutil"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRoot_RunsAuditAndFailsGate(t *testing.T) {
	repo := testutil.FixtureRepo(t)

	out, err := execute(t, "--repo", repo)
	if !errors.Is(err, errFailed) {
		t.Fatalf("expected errFailed, got %v", err)
	}
	if !strings.Contains(out, "Contract audit") {
		t.Errorf("missing summary:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(repo, "reports", "contract-audit.md")); err != nil {
		t.Errorf("report not written: %v", err)
	}
}

func TestAudit_GateOverrideAndArtifacts(t *testing.T) {
	repo := testutil.FixtureRepo(t)
	dir := filepath.Join(t.TempDir(), "out")

	_, err := execute(t, "audit", "--repo", repo, "--gate", "missing <= 1", "--report-dir", dir, "--json", "--junit")
	if err != nil {
		t.Fatalf("expected gate to pass, got %v", err)
	}
	for _, name := range []string{"contract-audit.md", "audit.json", "junit.xml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
}

func TestAudit_ConfigFile(t *testing.T) {
	repo := testutil.FixtureRepo(t)
	testutil.WriteTree(t, repo, map[string]string{
		"wirecheck.yaml": "gate: coverage >= 30\nreport:\n  dir: audit\n",
	})

	if _, err := execute(t, "--repo", repo); err != nil {
		t.Fatalf("config gate should pass, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(repo, "audit", "contract-audit.md")); err != nil {
		t.Errorf("report not written to configured dir: %v", err)
	}
}

func TestTrace_Usage(t *testing.T) {
	repo := testutil.FixtureRepo(t)
	if _, err := execute(t, "trace", "--repo", repo); !errors.Is(err, contract.ErrUsage) {
		t.Fatalf("expected ErrUsage, got %v", err)
	}
	if _, err := execute(t, "trace", "--repo", repo, "--route", "/a", "--file", "b"); err == nil {
		t.Fatal("expected error for both --route and --file")
	}
}

func TestTrace_Verdicts(t *testing.T) {
	repo := testutil.FixtureRepo(t)
	testutil.WriteTree(t, repo, map[string]string{
		"client/app/settings/page.tsx": "export default function Settings() {\n  return fetch('/api/customers');\n}\n",
	})

	out, err := execute(t, "trace", "--repo", repo, "--route", "/customers")
	if !errors.Is(err, errFailed) {
		t.Fatalf("expected NO_GO failure, got %v", err)
	}
	if !strings.Contains(out, "Verdict: NO_GO") {
		t.Errorf("missing verdict:\n%s", out)
	}

	out, err = execute(t, "trace", "--repo", repo, "--file", "client/app/settings/page.tsx")
	if err != nil {
		t.Fatalf("expected GO, got %v\n%s", err, out)
	}
	if !strings.Contains(out, "Verdict: GO") {
		t.Errorf("missing verdict:\n%s", out)
	}
}

func TestInvalidLogLevel(t *testing.T) {
	repo := testutil.FixtureRepo(t)
	_, err := execute(t, "--repo", repo, "--log-level", "loud")
	if err == nil || errors.Is(err, errFailed) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
