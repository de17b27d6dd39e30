package report

import (
	"encoding/json"
	"fmt"
	"path/filepath"
)

// Options configures the artifacts a Writer produces.
type Options struct {
	Dir      string
	Name     string
	JSON     bool
	JUnit    bool
	Template string
	AppDir   string
}

// Artifacts lists the files a Writer produced. Empty fields were not written.
type Artifacts struct {
	Markdown string `json:"markdown"`
	JSON     string `json:"json,omitempty"`
	JUnit    string `json:"junit,omitempty"`
}

// Writer persists the report artifacts. Every file is fully rewritten on each
// run.
type Writer struct {
	opts Options
	md   *MarkdownRenderer
}

// NewWriter compiles the markdown template.
func NewWriter(opts Options) (*Writer, error) {
	if opts.Name == "" {
		opts.Name = "contract-audit.md"
	}
	md, err := NewMarkdownRenderer(opts.Template)
	if err != nil {
		return nil, err
	}
	return &Writer{opts: opts, md: md}, nil
}

// ReportPath is where the markdown report is written.
func (w *Writer) ReportPath() string {
	return filepath.Join(w.opts.Dir, w.opts.Name)
}

// Markdown renders the report without writing it.
func (w *Writer) Markdown(doc *Document) ([]byte, error) {
	return w.md.Render(doc)
}

// Write renders and writes all enabled artifacts.
func (w *Writer) Write(doc *Document) (Artifacts, error) {
	var out Artifacts

	md, err := w.md.Render(doc)
	if err != nil {
		return out, err
	}
	if err := WriteFileAtomic(w.ReportPath(), md); err != nil {
		return out, fmt.Errorf("failed to write markdown report: %w", err)
	}
	out.Markdown = w.ReportPath()

	if w.opts.JSON {
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return out, fmt.Errorf("failed to encode audit json: %w", err)
		}
		path := filepath.Join(w.opts.Dir, "audit.json")
		if err := WriteFileAtomic(path, append(data, '\n')); err != nil {
			return out, fmt.Errorf("failed to write audit json: %w", err)
		}
		out.JSON = path
	}

	if w.opts.JUnit {
		data, err := JUnit(doc, w.opts.AppDir)
		if err != nil {
			return out, err
		}
		path := filepath.Join(w.opts.Dir, "junit.xml")
		if err := WriteFileAtomic(path, data); err != nil {
			return out, fmt.Errorf("failed to write junit report: %w", err)
		}
		out.JUnit = path
	}

	return out, nil
}
