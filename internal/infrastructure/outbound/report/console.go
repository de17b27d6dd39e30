package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/sophialabs/wirecheck/internal/domain/trace"
)

// Console prints run summaries. Styling is dropped when w is not a terminal.
type Console struct {
	w    io.Writer
	bold lipgloss.Style
	ok   lipgloss.Style
	bad  lipgloss.Style
}

// NewConsole creates a console printer for w.
func NewConsole(w io.Writer) *Console {
	r := lipgloss.NewRenderer(w)
	return &Console{
		w:    w,
		bold: r.NewStyle().Bold(true),
		ok:   r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		bad:  r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	}
}

// Summary prints the full-audit counters and where the report went.
func (c *Console) Summary(doc *Document, artifacts Artifacts) {
	s := doc.Summary
	fmt.Fprintln(c.w, c.bold.Render("Contract audit"))
	fmt.Fprintf(c.w, "  client calls:       %d\n", s.Calls)
	fmt.Fprintf(c.w, "  server routes:      %d\n", s.Routes)
	fmt.Fprintf(c.w, "  matched:            %d\n", s.Matched)
	fmt.Fprintf(c.w, "  missing backend:    %d\n", s.Missing)
	fmt.Fprintf(c.w, "  method mismatches:  %d\n", s.Mismatches)
	fmt.Fprintf(c.w, "  coverage:           %d%%\n", s.Coverage)
	if s.SkippedCount > 0 {
		fmt.Fprintf(c.w, "  skipped files:      %d\n", s.SkippedCount)
	}
	fmt.Fprintf(c.w, "  gate:               %s %s\n", s.Gate, c.status(s.Pass, s.GateResult))
	if artifacts.Markdown != "" {
		fmt.Fprintf(c.w, "  report:             %s\n", artifacts.Markdown)
	}
	if artifacts.JSON != "" {
		fmt.Fprintf(c.w, "  json:               %s\n", artifacts.JSON)
	}
	if artifacts.JUnit != "" {
		fmt.Fprintf(c.w, "  junit:              %s\n", artifacts.JUnit)
	}
}

// Wiring prints a wiring trace: input, page, API references, proxy routes,
// backend routes and the verdict.
func (c *Console) Wiring(r *trace.WiringReport) {
	fmt.Fprintln(c.w, c.bold.Render("Wiring trace"))
	fmt.Fprintf(c.w, "Input: %s\n", r.Input)
	if r.PageFound {
		fmt.Fprintf(c.w, "Page:  %s\n", r.PageFile)
	} else {
		fmt.Fprintf(c.w, "Page:  %s\n", c.bad.Render("NOT FOUND"))
	}
	fmt.Fprintf(c.w, "Files traced: %d\n", len(r.Files))

	fmt.Fprintf(c.w, "\nAPI references (%d):\n", len(r.Calls))
	for _, call := range r.Calls {
		fmt.Fprintf(c.w, "  %-6s %s  %s\n", call.Method, call.Path, call.Location())
	}
	if len(r.Calls) == 0 {
		fmt.Fprintln(c.w, "  none")
	}

	fmt.Fprintf(c.w, "\nProxy routes (%d):\n", len(r.Proxies))
	for _, p := range r.Proxies {
		label := "present"
		if !p.Exists {
			label = "MISSING"
		}
		fmt.Fprintf(c.w, "  %s %s -> %s\n", c.status(p.Exists, label), p.Endpoint, p.ExpectedRouteFile)
	}
	if len(r.Proxies) == 0 {
		fmt.Fprintln(c.w, "  none")
	}

	fmt.Fprintf(c.w, "\nBackend routes (%d matched, %d missing):\n", len(r.Backend), len(r.Missing))
	for _, m := range r.Backend {
		label := "matched"
		if !m.MethodMatch {
			label = "method mismatch"
		}
		fmt.Fprintf(c.w, "  %s %s %s -> %s %s  %s\n", c.status(m.MethodMatch, label), m.Call.Method, m.Call.NormalizedPath, m.Route.Method, m.Route.FullPath, m.Route.Location())
	}
	for _, call := range r.Missing {
		fmt.Fprintf(c.w, "  %s %s %s  %s\n", c.bad.Render("MISSING"), call.Method, call.NormalizedPath, call.Location())
	}

	fmt.Fprintf(c.w, "\nVerdict: %s\n", c.status(r.Verdict == trace.Go, string(r.Verdict)))
}

func (c *Console) status(ok bool, label string) string {
	if ok {
		return c.ok.Render(label)
	}
	return c.bad.Render(label)
}
