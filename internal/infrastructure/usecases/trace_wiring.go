package usecases

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sophialabs/wirecheck/internal/domain/contract"
	"github.com/sophialabs/wirecheck/internal/domain/trace"
	"github.com/sophialabs/wirecheck/internal/infrastructure/ports"
	"github.com/sophialabs/wirecheck/internal/infrastructure/services"
)

// TraceRequest names the entry point of a wiring trace. Exactly one field
// must be set.
type TraceRequest struct {
	Route string
	File  string
}

// TraceWiringUseCase follows one client page through its imports, the proxy
// route handlers and the backend routes.
type TraceWiringUseCase struct {
	pages    ports.PageResolver
	files    ports.FileSetResolver
	calls    contract.CallSource
	proxies  ports.ProxyResolver
	routes   contract.RouteSource
	policy   *services.Policy
	repoRoot string
	clock    ports.Clock
	logger   ports.Logger
	history  *trace.RingBuffer
}

// NewTraceWiringUseCase creates a new use case. Reported file paths are
// relative to repoRoot.
func NewTraceWiringUseCase(
	pages ports.PageResolver,
	files ports.FileSetResolver,
	calls contract.CallSource,
	proxies ports.ProxyResolver,
	routes contract.RouteSource,
	compiled *services.Policy,
	repoRoot string,
	clock ports.Clock,
	logger ports.Logger,
	history *trace.RingBuffer,
) *TraceWiringUseCase {
	return &TraceWiringUseCase{
		pages:    pages,
		files:    files,
		calls:    calls,
		proxies:  proxies,
		routes:   routes,
		policy:   compiled,
		repoRoot: repoRoot,
		clock:    clock,
		logger:   logger,
		history:  history,
	}
}

// Execute runs the trace. When the entry cannot be resolved the returned
// report carries a NO_GO verdict and the error wraps contract.ErrPageNotFound.
func (uc *TraceWiringUseCase) Execute(ctx context.Context, req TraceRequest) (*trace.WiringReport, error) {
	route, file := strings.TrimSpace(req.Route), strings.TrimSpace(req.File)
	if (route == "") == (file == "") {
		return nil, contract.ErrUsage
	}
	start := uc.clock.Now()

	rep := &trace.WiringReport{
		Input:   route + file,
		Files:   []string{},
		Calls:   []contract.ClientCall{},
		Proxies: []contract.ProxyStatus{},
		Backend: []contract.MatchResult{},
		Missing: []contract.ClientCall{},
	}

	var (
		page  string
		found bool
	)
	if route != "" {
		page, found = uc.pages.ResolveRoute(route)
	} else {
		page, found = uc.pages.ResolveFile(file)
	}
	if !found {
		rep.Decide()
		uc.record(rep, start)
		uc.logger.Warn("trace entry not found", "input", rep.Input)
		return rep, fmt.Errorf("%w: %s", contract.ErrPageNotFound, rep.Input)
	}
	rep.PageFound = true
	rep.PageFile = uc.rel(page)

	files, err := uc.files.ResolveFileSet(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve imports of %s: %w", rep.PageFile, err)
	}
	for _, f := range files {
		rep.Files = append(rep.Files, uc.rel(f))
	}

	calls, _, err := uc.calls.ScanFiles(ctx, files)
	if err != nil {
		return nil, fmt.Errorf("failed to scan traced files: %w", err)
	}
	rep.Calls = calls

	seen := make(map[string]bool)
	for _, c := range calls {
		status, ok := uc.proxies.Resolve(c.Path)
		if !ok || seen[status.Endpoint] {
			continue
		}
		seen[status.Endpoint] = true
		rep.Proxies = append(rep.Proxies, status)
	}

	routes, _, err := uc.routes.ScanRoutes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan server routes: %w", err)
	}
	result := uc.policy.Comparator().Compare(calls, services.NewRouteIndex(routes))
	rep.Backend = result.Matches
	rep.Missing = result.MissingBackend

	rep.Decide()
	uc.record(rep, start)
	uc.logger.Info("wiring trace complete",
		"input", rep.Input,
		"files", len(rep.Files),
		"calls", len(rep.Calls),
		"missingProxies", len(rep.MissingProxies()),
		"missingBackend", len(rep.Missing),
		"verdict", rep.Verdict,
	)
	return rep, nil
}

func (uc *TraceWiringUseCase) record(rep *trace.WiringReport, start time.Time) {
	if uc.history == nil {
		return
	}
	uc.history.Add(trace.Entry{
		Timestamp: start,
		Kind:      "trace",
		Trigger:   rep.Input,
		Calls:     len(rep.Calls),
		Missing:   len(rep.Missing),
		Pass:      rep.Verdict == trace.Go,
		Duration:  uc.clock.Since(start),
	})
}

func (uc *TraceWiringUseCase) rel(p string) string {
	if uc.repoRoot == "" {
		return filepath.ToSlash(p)
	}
	if r, err := filepath.Rel(uc.repoRoot, p); err == nil && !strings.HasPrefix(r, "..") {
		return filepath.ToSlash(r)
	}
	return filepath.ToSlash(p)
}
