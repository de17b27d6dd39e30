package usecases

import (
	"context"
	"fmt"
	"sync"

	"github.com/sophialabs/wirecheck/internal/domain/contract"
	"github.com/sophialabs/wirecheck/internal/domain/trace"
	"github.com/sophialabs/wirecheck/internal/infrastructure/outbound/policy"
	"github.com/sophialabs/wirecheck/internal/infrastructure/outbound/report"
	"github.com/sophialabs/wirecheck/internal/infrastructure/ports"
	"github.com/sophialabs/wirecheck/internal/infrastructure/services"
)

// ReportWriter persists a rendered audit.
type ReportWriter interface {
	Write(doc *report.Document) (report.Artifacts, error)
}

// AuditOutcome is the result of one full audit run.
type AuditOutcome struct {
	Document  *report.Document
	Artifacts report.Artifacts
	Entry     trace.Entry
	Pass      bool
}

// RunAuditUseCase scans both trees, compares them, applies the gate and
// writes the report. Runs are serialized.
type RunAuditUseCase struct {
	calls   contract.CallSource
	routes  contract.RouteSource
	policy  *services.Policy
	writer  ReportWriter
	appDir  string
	clock   ports.Clock
	logger  ports.Logger
	history *trace.RingBuffer

	mu     sync.Mutex
	latest *AuditOutcome
}

// NewRunAuditUseCase creates a new use case. writer may be nil, in which case
// nothing is written to disk.
func NewRunAuditUseCase(
	calls contract.CallSource,
	routes contract.RouteSource,
	compiled *services.Policy,
	writer ReportWriter,
	appDir string,
	clock ports.Clock,
	logger ports.Logger,
	history *trace.RingBuffer,
) *RunAuditUseCase {
	return &RunAuditUseCase{
		calls:   calls,
		routes:  routes,
		policy:  compiled,
		writer:  writer,
		appDir:  appDir,
		clock:   clock,
		logger:  logger,
		history: history,
	}
}

// Execute runs the audit. trigger names what started the run ("cli",
// "watch", "api") and is recorded in the run history.
func (uc *RunAuditUseCase) Execute(ctx context.Context, trigger string) (*AuditOutcome, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	start := uc.clock.Now()

	calls, clientStats, err := uc.calls.ScanCalls(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan client calls: %w", err)
	}
	routes, serverStats, err := uc.routes.ScanRoutes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan server routes: %w", err)
	}
	uc.logger.Debug("scanned sources", "calls", len(calls), "routes", len(routes),
		"clientFiles", clientStats.Files, "serverFiles", serverStats.Files)

	result := uc.policy.Comparator().Compare(calls, services.NewRouteIndex(routes))

	skipped := len(clientStats.Skipped) + len(serverStats.Skipped)
	pass, err := uc.policy.Gate.Evaluate(policy.NewGateEnv(&result, skipped))
	if err != nil {
		return nil, err
	}

	doc := report.Build(report.Input{
		Result: &result,
		Client: clientStats,
		Server: serverStats,
		AppDir: uc.appDir,
		Gate:   uc.policy.Gate.String(),
		Pass:   pass,
	})

	out := &AuditOutcome{Document: doc, Pass: pass}
	if uc.writer != nil {
		artifacts, err := uc.writer.Write(doc)
		if err != nil {
			return nil, err
		}
		out.Artifacts = artifacts
	}

	out.Entry = trace.Entry{
		Timestamp:  start,
		Kind:       "audit",
		Trigger:    trigger,
		Calls:      len(result.Calls),
		Routes:     len(result.Routes),
		Missing:    len(result.MissingBackend),
		Mismatches: len(result.MethodMismatches),
		Coverage:   result.CoveragePercent,
		Pass:       pass,
		Duration:   uc.clock.Since(start),
	}
	if uc.history != nil {
		uc.history.Add(out.Entry)
	}

	if prev := uc.latest; prev != nil && prev.Entry.Coverage != out.Entry.Coverage {
		uc.logger.Info("coverage changed", "from", prev.Entry.Coverage, "to", out.Entry.Coverage)
	}
	uc.latest = out

	uc.logger.Info("audit complete",
		"trigger", trigger,
		"calls", out.Entry.Calls,
		"missing", out.Entry.Missing,
		"mismatches", out.Entry.Mismatches,
		"coverage", out.Entry.Coverage,
		"pass", pass,
	)
	return out, nil
}

// Latest returns the most recent successful run, if any.
func (uc *RunAuditUseCase) Latest() (*AuditOutcome, bool) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.latest, uc.latest != nil
}
