package ports

import (
	"context"
	"time"

	"github.com/sophialabs/wirecheck/internal/domain/contract"
)

// Clock stamps run history entries and measures run durations.
type Clock interface {
	Now() time.Time
	Since(start time.Time) time.Duration
}

// Logger provides structured logging.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
}

// RateLimiter throttles audit re-runs.
type RateLimiter interface {
	// Allow reports whether a run requested by key may start now.
	Allow(key string) bool

	// Wait blocks until a run for key may start or ctx is done.
	Wait(ctx context.Context, key string) error
}

// PageResolver locates the entry file of a wiring trace.
type PageResolver interface {
	ResolveRoute(route string) (string, bool)
	ResolveFile(path string) (string, bool)
}

// FileSetResolver expands an entry file into the files a trace scans.
type FileSetResolver interface {
	ResolveFileSet(ctx context.Context, entry string) ([]string, error)
}

// ProxyResolver checks the same-origin route handler behind an endpoint.
type ProxyResolver interface {
	// Resolve reports false when endpoint is not proxied at all.
	Resolve(endpoint string) (contract.ProxyStatus, bool)
}
