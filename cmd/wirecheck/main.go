package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sophialabs/wirecheck/internal/app"
	"github.com/sophialabs/wirecheck/internal/domain/contract"
	"github.com/sophialabs/wirecheck/internal/domain/trace"
	"github.com/sophialabs/wirecheck/internal/infrastructure/usecases"
)

// errFailed signals a completed run whose outcome should exit non-zero. The
// details were already printed.
var errFailed = errors.New("contract check failed")

type rootFlags struct {
	repo     string
	config   string
	logLevel string
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	flags := &rootFlags{}
	var audit auditFlags

	root := &cobra.Command{
		Use:   "wirecheck",
		Short: "Reconcile client fetch calls against server routes",
		Long: "wirecheck scans a Next.js client for network calls and a NestJS server for\n" +
			"route annotations, reports every call without a backend route and exits\n" +
			"non-zero when the gate fails. Without a subcommand it runs the full audit.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAudit(cmd, flags, audit, out, errOut)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&flags.repo, "repo", ".", "repository root containing the client and server trees")
	root.PersistentFlags().StringVar(&flags.config, "config", "", "config file (default: wirecheck.yaml/.yml/.toml in the repo root)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	audit.register(root)

	root.AddCommand(
		newAuditCmd(flags, out, errOut),
		newTraceCmd(flags, out, errOut),
		newWatchCmd(flags, out, errOut),
		newServeCmd(flags, out, errOut),
	)
	return root
}

type auditFlags struct {
	gate      string
	reportDir string
	json      bool
	junit     bool
}

func (f *auditFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.gate, "gate", "", "gate expression, e.g. \"missing == 0 && coverage >= 90\"")
	cmd.Flags().StringVar(&f.reportDir, "report-dir", "", "directory the report is written to")
	cmd.Flags().BoolVar(&f.json, "json", false, "also write audit.json")
	cmd.Flags().BoolVar(&f.junit, "junit", false, "also write junit.xml")
}

func (f auditFlags) apply(cmd *cobra.Command, cfg *app.Config) {
	if cmd.Flags().Changed("gate") {
		cfg.Gate = f.gate
	}
	if cmd.Flags().Changed("report-dir") {
		cfg.Report.Dir = f.reportDir
	}
	if cmd.Flags().Changed("json") {
		cfg.Report.JSON = f.json
	}
	if cmd.Flags().Changed("junit") {
		cfg.Report.JUnit = f.junit
	}
}

func newAuditCmd(flags *rootFlags, out, errOut io.Writer) *cobra.Command {
	var audit auditFlags
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Run the full contract audit and write the report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAudit(cmd, flags, audit, out, errOut)
		},
	}
	audit.register(cmd)
	return cmd
}

func newTraceCmd(flags *rootFlags, out, errOut io.Writer) *cobra.Command {
	var req usecases.TraceRequest
	cmd := &cobra.Command{
		Use:   "trace (--route <url-path> | --file <path>)",
		Short: "Trace one client page through its proxy routes to the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (req.Route == "") == (req.File == "") {
				return contract.ErrUsage
			}
			a, err := newApp(cmd, flags, out, errOut, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			verdict, err := a.Trace(cmd.Context(), req)
			if err != nil {
				return err
			}
			if verdict != trace.Go {
				return errFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Route, "route", "", "URL path of the page, e.g. /customers/42")
	cmd.Flags().StringVar(&req.File, "file", "", "entry file, relative to the repo root or absolute")
	cmd.MarkFlagsMutuallyExclusive("route", "file")
	return cmd
}

func newWatchCmd(flags *rootFlags, out, errOut io.Writer) *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run the audit whenever client or server sources change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, flags, out, errOut, func(cfg *app.Config) error {
				if cmd.Flags().Changed("debounce") {
					cfg.Watch.Debounce = debounce
				}
				return nil
			})
			if err != nil {
				return err
			}
			return a.Watch(cmd.Context())
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", 0, "quiet period before a re-run, e.g. 500ms")
	return cmd
}

func newServeCmd(flags *rootFlags, out, errOut io.Writer) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the audit, run history and wiring traces over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, flags, out, errOut, func(cfg *app.Config) error {
				if cmd.Flags().Changed("addr") {
					cfg.Serve.Addr = addr
				}
				return nil
			})
			if err != nil {
				return err
			}
			return a.Serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8787", "listen address")
	return cmd
}

func runAudit(cmd *cobra.Command, flags *rootFlags, audit auditFlags, out, errOut io.Writer) error {
	a, err := newApp(cmd, flags, out, errOut, func(cfg *app.Config) error {
		audit.apply(cmd, cfg)
		return nil
	})
	if err != nil {
		return err
	}
	defer a.Close()

	pass, err := a.Audit(cmd.Context())
	if err != nil {
		return err
	}
	if !pass {
		return errFailed
	}
	return nil
}

// newApp loads the config, applies flag overrides and builds the App.
func newApp(cmd *cobra.Command, flags *rootFlags, out, errOut io.Writer, override func(*app.Config) error) (*app.App, error) {
	cfg, path, err := app.LoadConfig(flags.repo, flags.config)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if override != nil {
		if err := override(&cfg); err != nil {
			return nil, fmt.Errorf("invalid flag: %w", err)
		}
	}

	a, err := app.New(cfg, out, errOut)
	if err != nil {
		return nil, err
	}
	if path != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "using config %s\n", path)
	}
	return a, nil
}
