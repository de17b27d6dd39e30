package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sophialabs/wirecheck/internal/domain/trace"
	"github.com/sophialabs/wirecheck/internal/infrastructure/outbound/filesystem"
	"github.com/sophialabs/wirecheck/internal/infrastructure/outbound/logging"
	"github.com/sophialabs/wirecheck/internal/infrastructure/outbound/report"
	"github.com/sophialabs/wirecheck/internal/infrastructure/usecases"
	"github.com/sophialabs/wirecheck/internal/infrastructure/wiring"
)

// App is the thin lifecycle manager that delegates dependency construction to wiring.Container.
type App struct {
	cfg       Config
	container *wiring.Container
	console   *report.Console
}

// New validates cfg, creates the logger (writing to logOut) and wires the
// infrastructure. Console summaries go to out.
func New(cfg Config, out, logOut io.Writer) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.NewWriter(logOut, cfg.Log.Level, cfg.Log.Format)

	client := filesystem.DefaultClientOptions(cfg.Path(cfg.Client.Root))
	client.APIPrefix = cfg.Client.APIPrefix
	client.Extensions = cfg.Client.Extensions
	client.Exclude = cfg.Client.Exclude
	client.Lookahead = cfg.Client.Lookahead
	client.Wrapper = filesystem.WrapperOptions{
		Name:     cfg.Client.Wrapper.Name,
		File:     cfg.Client.Wrapper.File,
		BasePath: cfg.Client.Wrapper.BasePath,
	}
	client.Receivers = cfg.Client.Receivers

	server := filesystem.DefaultServerOptions(cfg.Path(cfg.Server.Root))
	server.GlobalPrefix = cfg.Server.GlobalPrefix
	server.Extensions = cfg.Server.Extensions
	server.Exclude = cfg.Server.Exclude

	var template string
	if cfg.Report.Template != "" {
		template = cfg.Path(cfg.Report.Template)
	}

	container, err := wiring.New(wiring.Params{
		RepoRoot:    filepath.Clean(cfg.Repo),
		Client:      client,
		AppDir:      cfg.Client.AppDir,
		Server:      server,
		Identifiers: cfg.Identifiers.BuiltIn(),
		ExtraRules:  cfg.Identifiers.Rules,
		Gate:        cfg.Gate,
		Report: report.Options{
			Dir:      cfg.Path(cfg.Report.Dir),
			Name:     cfg.Report.Name,
			JSON:     cfg.Report.JSON,
			JUnit:    cfg.Report.JUnit,
			Template: template,
		},
		TraceHops:     cfg.Trace.Hops,
		CacheFiles:    cfg.Cache.Files,
		HistorySize:   cfg.Serve.HistorySize,
		RunInterval:   cfg.Serve.RunInterval,
		RunBurst:      cfg.Serve.RunBurst,
		WatchInterval: cfg.Watch.MinInterval,
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to wire infrastructure: %w", err)
	}

	return &App{
		cfg:       cfg,
		container: container,
		console:   report.NewConsole(out),
	}, nil
}

// Close releases background resources.
func (a *App) Close() {
	a.container.Close()
}

// Audit runs the full audit once, prints the summary and reports whether the
// gate passed.
func (a *App) Audit(ctx context.Context) (bool, error) {
	out, err := a.container.AuditUseCase().Execute(ctx, "cli")
	if err != nil {
		return false, err
	}
	a.console.Summary(out.Document, out.Artifacts)
	return out.Pass, nil
}

// Trace runs a wiring trace and prints it. An unresolved entry is printed and
// reported as NO_GO rather than returned as an error.
func (a *App) Trace(ctx context.Context, req usecases.TraceRequest) (trace.Verdict, error) {
	rep, err := a.container.TraceUseCase().Execute(ctx, req)
	if rep != nil {
		a.console.Wiring(rep)
	}
	if err != nil && rep == nil {
		return trace.NoGo, err
	}
	return rep.Verdict, nil
}

// Watch runs the audit, then re-runs it whenever a source file under either
// root changes, until ctx is cancelled or SIGINT/SIGTERM is received.
func (a *App) Watch(ctx context.Context) error {
	defer a.container.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := a.container.Logger()
	if _, err := a.Audit(ctx); err != nil {
		return fmt.Errorf("failed to run initial audit: %w", err)
	}

	limiter := a.container.WatchLimiter()
	watcher, err := filesystem.NewWatcher(a.container.WatchOptions(a.cfg.Watch.Debounce), logger, func(changed []string) {
		if err := limiter.Wait(ctx, "watch"); err != nil {
			return
		}
		logger.Debug("changed files", "files", changed)
		out, err := a.container.AuditUseCase().Execute(ctx, "watch")
		if err != nil {
			logger.Error("re-run failed", "error", err)
			return
		}
		a.console.Summary(out.Document, out.Artifacts)
	})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	watcher.Start()
	defer watcher.Stop()

	logger.Info("watching for changes", "client", a.cfg.Client.Root, "server", a.cfg.Server.Root)
	<-ctx.Done()
	logger.Info("watch stopped")
	return nil
}

// Serve runs the audit, then serves the report API until ctx is cancelled or
// SIGINT/SIGTERM is received, and shuts down gracefully.
func (a *App) Serve(ctx context.Context) error {
	defer a.container.Close()

	logger := a.container.Logger()
	if _, err := a.container.AuditUseCase().Execute(ctx, "serve"); err != nil {
		return fmt.Errorf("failed to run initial audit: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:         a.cfg.Serve.Addr,
		Handler:      a.container.Server(),
		ReadTimeout:  a.cfg.Serve.ReadTimeout,
		WriteTimeout: a.cfg.Serve.WriteTimeout,
		IdleTimeout:  a.cfg.Serve.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting wirecheck server", "addr", httpServer.Addr, "repo", a.cfg.Repo)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Serve.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
