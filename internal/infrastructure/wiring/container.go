package wiring

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sophialabs/wirecheck/internal/domain/match"
	"github.com/sophialabs/wirecheck/internal/domain/trace"
	inboundhttp "github.com/sophialabs/wirecheck/internal/infrastructure/inbound/http"
	"github.com/sophialabs/wirecheck/internal/infrastructure/outbound/clock"
	"github.com/sophialabs/wirecheck/internal/infrastructure/outbound/filesystem"
	"github.com/sophialabs/wirecheck/internal/infrastructure/outbound/ratelimit"
	"github.com/sophialabs/wirecheck/internal/infrastructure/outbound/report"
	"github.com/sophialabs/wirecheck/internal/infrastructure/ports"
	"github.com/sophialabs/wirecheck/internal/infrastructure/services"
	"github.com/sophialabs/wirecheck/internal/infrastructure/usecases"
)

// limiterTTL is how long an idle per-client bucket is kept.
const limiterTTL = 10 * time.Minute

// Params holds the resolved configuration needed to construct infrastructure
// components. Client.Root, Server.Root and Report.Dir are absolute or
// relative to the working directory; RepoRoot is the display base.
type Params struct {
	RepoRoot    string
	Client      filesystem.ClientOptions
	AppDir      string
	Server      filesystem.ServerOptions
	Identifiers match.IdentifierRules
	ExtraRules  []string
	Gate        string
	Report      report.Options
	TraceHops   int
	CacheFiles  int
	HistorySize int

	RunInterval   time.Duration
	RunBurst      int
	WatchInterval time.Duration

	Logger ports.Logger
}

// Container owns the construction and lifecycle of all infrastructure components.
type Container struct {
	logger       ports.Logger
	params       Params
	policy       *services.Policy
	writer       *report.Writer
	auditUC      *usecases.RunAuditUseCase
	traceUC      *usecases.TraceWiringUseCase
	runLimiter   *ratelimit.TokenBucketStore
	watchLimiter *ratelimit.TokenBucketStore
	history      *trace.RingBuffer

	serverOnce sync.Once
	server     *inboundhttp.Server
	closeOnce  sync.Once
}

// New constructs all infrastructure components. Fallible operations (policy
// and template compilation) run before the rate limiter stores start their
// eviction goroutines.
func New(p Params) (*Container, error) {
	if _, err := os.Stat(p.RepoRoot); err != nil {
		return nil, fmt.Errorf("failed to access repository root: %w", err)
	}

	policy, err := services.CompilePolicy(p.Identifiers, p.ExtraRules, p.Gate)
	if err != nil {
		return nil, err
	}

	p.Report.AppDir = p.AppDir
	writer, err := report.NewWriter(p.Report)
	if err != nil {
		return nil, fmt.Errorf("failed to create report writer: %w", err)
	}

	p.Client.DisplayBase = p.RepoRoot
	p.Server.DisplayBase = p.RepoRoot
	cache := filesystem.NewSourceCache(p.CacheFiles)

	calls, err := filesystem.NewClientScanner(p.Client, cache, p.Logger)
	if err != nil {
		return nil, err
	}
	routes := filesystem.NewRouteScanner(p.Server, cache, p.Logger)

	appRoot := filepath.Join(p.Client.Root, filepath.FromSlash(p.AppDir))
	pages := filesystem.NewPageResolver(appRoot, p.RepoRoot)
	imports := filesystem.NewImportTracer(p.Client.Root, p.Client.Extensions, p.TraceHops, cache, p.Logger)
	proxies := filesystem.NewProxyResolver(appRoot, p.RepoRoot, p.Client.APIPrefix, policy.IsIdentifier)

	clk := clock.New()
	history := trace.NewRingBuffer(max(1, p.HistorySize))

	auditUC := usecases.NewRunAuditUseCase(calls, routes, policy, writer, p.AppDir, clk, p.Logger, history)
	traceUC := usecases.NewTraceWiringUseCase(pages, imports, calls, proxies, routes, policy, p.RepoRoot, clk, p.Logger, history)

	// Start background goroutines only after all fallible ops succeed.
	runLimiter := ratelimit.NewTokenBucketStore(p.RunInterval, max(1, p.RunBurst), limiterTTL)
	watchLimiter := ratelimit.NewTokenBucketStore(p.WatchInterval, 1, limiterTTL)

	return &Container{
		logger:       p.Logger,
		params:       p,
		policy:       policy,
		writer:       writer,
		auditUC:      auditUC,
		traceUC:      traceUC,
		runLimiter:   runLimiter,
		watchLimiter: watchLimiter,
		history:      history,
	}, nil
}

// Close releases resources held by the container. It is idempotent.
func (c *Container) Close() {
	c.closeOnce.Do(func() {
		c.runLimiter.Stop()
		c.watchLimiter.Stop()
	})
}

// Logger returns the logger passed at construction time.
func (c *Container) Logger() ports.Logger {
	return c.logger
}

// Policy returns the compiled identifier predicate and gate.
func (c *Container) Policy() *services.Policy {
	return c.policy
}

// ReportWriter returns the artifact writer.
func (c *Container) ReportWriter() *report.Writer {
	return c.writer
}

// AuditUseCase returns the full-audit use case.
func (c *Container) AuditUseCase() *usecases.RunAuditUseCase {
	return c.auditUC
}

// TraceUseCase returns the wiring-trace use case.
func (c *Container) TraceUseCase() *usecases.TraceWiringUseCase {
	return c.traceUC
}

// Server returns the report API, building it on first use.
func (c *Container) Server() *inboundhttp.Server {
	c.serverOnce.Do(func() {
		c.server = inboundhttp.NewServer(c.auditUC, c.traceUC, c.writer, c.runLimiter, c.history, c.logger)
	})
	return c.server
}

// WatchLimiter throttles watch-mode re-runs.
func (c *Container) WatchLimiter() ports.RateLimiter {
	return c.watchLimiter
}

// History returns the run history ring buffer.
func (c *Container) History() *trace.RingBuffer {
	return c.history
}

// WatchOptions returns the trees a watcher should observe.
func (c *Container) WatchOptions(debounce time.Duration) filesystem.WatchOptions {
	exts := append(append([]string{}, c.params.Client.Extensions...), c.params.Server.Extensions...)
	exclude := append(append([]string{}, c.params.Client.Exclude...), c.params.Server.Exclude...)
	return filesystem.WatchOptions{
		Roots:      []string{c.params.Client.Root, c.params.Server.Root},
		Extensions: exts,
		Exclude:    exclude,
		Debounce:   debounce,
	}
}
