package contract

import (
	"context"
	"errors"
)

var (
	// ErrUsage indicates the command line did not name an entry point.
	ErrUsage = errors.New("exactly one of --route or --file is required")

	// ErrPageNotFound indicates a route or file could not be resolved to a page.
	ErrPageNotFound = errors.New("page not found")
)

// CallSource is the port for discovering client call sites.
type CallSource interface {
	// ScanCalls walks the whole client tree.
	ScanCalls(ctx context.Context) ([]ClientCall, ScanStats, error)

	// ScanFiles scans only the given files, in the order given.
	ScanFiles(ctx context.Context, files []string) ([]ClientCall, ScanStats, error)
}

// RouteSource is the port for discovering server routes.
type RouteSource interface {
	// ScanRoutes walks the server tree. A missing root yields no routes and
	// ScanStats.Missing set, not an error.
	ScanRoutes(ctx context.Context) ([]ServerRoute, ScanStats, error)
}
