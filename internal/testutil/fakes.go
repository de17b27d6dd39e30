package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sophialabs/wirecheck/internal/infrastructure/ports"
)

var _ ports.Logger = (*NoopLogger)(nil)

// NoopLogger discards all log output.
type NoopLogger struct{}

func (l *NoopLogger) Info(string, ...any)  {}
func (l *NoopLogger) Warn(string, ...any)  {}
func (l *NoopLogger) Error(string, ...any) {}
func (l *NoopLogger) Debug(string, ...any) {}

var _ ports.Logger = (*RecordingLogger)(nil)

// RecordingLogger keeps warning and error messages for assertions.
type RecordingLogger struct {
	mu       sync.Mutex
	warnings []string
	errors   []string
}

func (l *RecordingLogger) Info(string, ...any)  {}
func (l *RecordingLogger) Debug(string, ...any) {}

func (l *RecordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warnings = append(l.warnings, msg)
}

func (l *RecordingLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

// Warnings returns the warning messages logged so far.
func (l *RecordingLogger) Warnings() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.warnings...)
}

var _ ports.Clock = (*FixedClock)(nil)

// FixedClock returns a fixed time. Every run appears to take Elapsed.
type FixedClock struct {
	T       time.Time
	Elapsed time.Duration
}

func (c *FixedClock) Now() time.Time                { return c.T }
func (c *FixedClock) Since(time.Time) time.Duration { return c.Elapsed }

var _ ports.RateLimiter = (*StubRateLimiter)(nil)

// StubRateLimiter returns a configurable Allow result.
type StubRateLimiter struct {
	AllowAll bool
}

func (r *StubRateLimiter) Allow(string) bool { return r.AllowAll }

func (r *StubRateLimiter) Wait(ctx context.Context, _ string) error { return ctx.Err() }

// WriteTree creates files under root from a map of slash-separated relative
// paths to contents and returns root.
func WriteTree(t testing.TB, root string, files map[string]string) string {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", rel, err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return root
}
