//go:build e2e

package e2e_test

import (
	"bytes"
	"io"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/sophialabs/wirecheck/internal/app"
)

func projectRoot() string {
	_, file, _, _ := runtime.Caller(0)
	// file = <root>/test/e2e/testhelpers_test.go, go up 3 levels
	return filepath.Join(filepath.Dir(file), "..", "..")
}

func fixtureRepo() string {
	return filepath.Join(projectRoot(), "testdata", "monorepo")
}

// setupApp loads the fixture configuration with artifacts redirected to a
// temp dir. The returned buffer collects console output.
func setupApp(t *testing.T, mutate func(*app.Config)) (*app.App, *bytes.Buffer, string) {
	t.Helper()

	cfg, _, err := app.LoadConfig(fixtureRepo(), "")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	reports := t.TempDir()
	cfg.Report.Dir = reports
	cfg.Report.JSON = true
	cfg.Report.JUnit = true
	if mutate != nil {
		mutate(&cfg)
	}

	out := &bytes.Buffer{}
	a, err := app.New(cfg, out, io.Discard)
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}
	t.Cleanup(a.Close)
	return a, out, reports
}
