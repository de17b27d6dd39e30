package wiring_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/sophialabs/wirecheck/internal/domain/match"
	"github.com/sophialabs/wirecheck/internal/infrastructure/outbound/filesystem"
	"github.com/sophialabs/wirecheck/internal/infrastructure/outbound/report"
	"github.com/sophialabs/wirecheck/internal/infrastructure/wiring"
	"github.com/sophialabs/wirecheck/internal/testutil"
)

func validParams(t *testing.T) wiring.Params {
	t.Helper()
	repo := testutil.FixtureRepo(t)
	return wiring.Params{
		RepoRoot:      repo,
		Client:        filesystem.DefaultClientOptions(filepath.Join(repo, "client")),
		AppDir:        "app",
		Server:        filesystem.DefaultServerOptions(filepath.Join(repo, "server")),
		Identifiers:   match.DefaultIdentifierRules(),
		Report:        report.Options{Dir: filepath.Join(repo, "reports")},
		TraceHops:     1,
		CacheFiles:    64,
		HistorySize:   10,
		RunInterval:   time.Second,
		RunBurst:      2,
		WatchInterval: time.Second,
		Logger:        &testutil.NoopLogger{},
	}
}

func TestNew_Success(t *testing.T) {
	c, err := wiring.New(validParams(t))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	if c.Logger() == nil {
		t.Error("Logger() returned nil")
	}
	if c.Server() == nil {
		t.Error("Server() returned nil")
	}
	if c.Server() != c.Server() {
		t.Error("Server() should return the same instance")
	}
	if c.AuditUseCase() == nil || c.TraceUseCase() == nil {
		t.Error("use cases not wired")
	}
	if c.Policy() == nil || c.ReportWriter() == nil {
		t.Error("policy or writer not wired")
	}
	if c.History() == nil || c.WatchLimiter() == nil {
		t.Error("history or watch limiter not wired")
	}
}

func TestNew_InvalidRepoRoot(t *testing.T) {
	p := validParams(t)
	p.RepoRoot = "/nonexistent/path/that/does/not/exist"

	c, err := wiring.New(p)
	if err == nil {
		c.Close()
		t.Fatal("expected error for invalid repository root")
	}
	if c != nil {
		t.Error("expected nil container on error")
	}
}

func TestNew_InvalidPolicy(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := validParams(t)
	p.Gate = "missing =="
	if _, err := wiring.New(p); err == nil {
		t.Fatal("expected error for invalid gate")
	}

	p = validParams(t)
	p.ExtraRules = []string{"segment +"}
	if _, err := wiring.New(p); err == nil {
		t.Fatal("expected error for invalid identifier rule")
	}
}

func TestNew_ComponentsAreWiredCorrectly(t *testing.T) {
	p := validParams(t)
	c, err := wiring.New(p)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	out, err := c.AuditUseCase().Execute(context.Background(), "test")
	if err != nil {
		t.Fatalf("audit failed: %v", err)
	}
	if out.Document.Summary.ClientRoot != "client" || out.Document.Summary.ServerRoot != "server" {
		t.Errorf("roots should be repo-relative: %+v", out.Document.Summary)
	}
	if out.Artifacts.Markdown != filepath.Join(p.RepoRoot, "reports", "contract-audit.md") {
		t.Errorf("report path = %q", out.Artifacts.Markdown)
	}
	if c.History().Count() != 1 {
		t.Errorf("history count = %d, want 1", c.History().Count())
	}

	opts := c.WatchOptions(50 * time.Millisecond)
	if len(opts.Roots) != 2 || opts.Debounce != 50*time.Millisecond {
		t.Errorf("unexpected watch options: %+v", opts)
	}
}

func TestNew_LoggerIsPassedThrough(t *testing.T) {
	p := validParams(t)
	logger := &testutil.NoopLogger{}
	p.Logger = logger

	c, err := wiring.New(p)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	if c.Logger() != logger {
		t.Error("Logger() does not return the same logger instance passed in Params")
	}
}

func TestClose_IsIdempotentAndStopsGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, err := wiring.New(validParams(t))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// Double close must not panic.
	c.Close()
	c.Close()
}
