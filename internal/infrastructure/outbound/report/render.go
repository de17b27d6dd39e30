package report

import (
	_ "embed"
	"fmt"

	"github.com/flosch/pongo2/v6"
)

//go:embed templates/report.md.pongo
var defaultTemplate string

// MarkdownRenderer renders a Document with a pongo2 template.
type MarkdownRenderer struct {
	tpl *pongo2.Template
}

// NewMarkdownRenderer compiles the template at path, or the built-in one when
// path is empty.
func NewMarkdownRenderer(path string) (*MarkdownRenderer, error) {
	var (
		tpl *pongo2.Template
		err error
	)
	if path == "" {
		tpl, err = pongo2.FromString(defaultTemplate)
	} else {
		tpl, err = pongo2.FromFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to compile report template: %w", err)
	}
	return &MarkdownRenderer{tpl: tpl}, nil
}

// Render produces the markdown report.
func (r *MarkdownRenderer) Render(doc *Document) ([]byte, error) {
	out, err := r.tpl.ExecuteBytes(pongo2.Context{
		"summary":    doc.Summary,
		"missing":    doc.Missing,
		"mismatches": doc.Mismatches,
		"backlog":    doc.Backlog,
		"matched":    doc.Matched,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return out, nil
}
