package report_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/antchfx/xmlquery"
	"github.com/google/go-cmp/cmp"

	"github.com/sophialabs/wirecheck/internal/domain/contract"
	"github.com/sophialabs/wirecheck/internal/domain/match"
	"github.com/sophialabs/wirecheck/internal/domain/trace"
	"github.com/sophialabs/wirecheck/internal/infrastructure/outbound/report"
)

func call(method contract.Method, path, file string, line int) contract.ClientCall {
	return contract.ClientCall{
		Path:           "/api" + path,
		NormalizedPath: path,
		Method:         method,
		SourceFile:     file,
		SourceLine:     line,
		Dialect:        contract.DialectFetch,
	}
}

func fixture() *report.Document {
	calls := []contract.ClientCall{
		call("GET", "/customers/42", "client/app/customers/page.tsx", 3),
		call("POST", "/customers/42", "client/app/customers/page.tsx", 9),
		call("GET", "/widgets", "client/app/invoices/page.tsx", 5),
		call("GET", "/reports/summary", "client/app/(dash)/reports/page.tsx", 2),
	}
	routes := []contract.ServerRoute{
		{BasePath: "/customers", LocalPath: ":id", Method: "GET", FullPath: "/customers/:id", SourceFile: "server/src/customers.controller.ts", SourceLine: 8},
	}
	result := match.Compare(calls, routes, match.IdentifierShape())
	return report.Build(report.Input{
		Result: &result,
		Client: contract.ScanStats{Root: "client", Files: 3},
		Server: contract.ScanStats{Root: "server", Files: 1, Skipped: []string{"server/src/broken.ts"}},
		AppDir: "app",
		Gate:   "missing == 0",
		Pass:   false,
	})
}

func TestModuleOf(t *testing.T) {
	tests := []struct {
		file, root, appDir, want string
	}{
		{"invoices/page.tsx", "", "app", "invoices"},
		{"client/app/invoices/page.tsx", "client", "app", "invoices"},
		{"client/app/(dash)/reports/page.tsx", "client", "app", "reports"},
		{"client/src/app/billing/[id]/page.tsx", "client", "src/app", "billing"},
		{"client/components/table.tsx", "client", "app", "components"},
		{"client/app/page.tsx", "client", "app", report.RootModule},
		{"client/middleware.ts", "client", "app", report.RootModule},
	}
	for _, tt := range tests {
		if got := report.ModuleOf(tt.file, tt.root, tt.appDir); got != tt.want {
			t.Errorf("ModuleOf(%q, %q, %q) = %q, want %q", tt.file, tt.root, tt.appDir, got, tt.want)
		}
	}
}

func TestBuild(t *testing.T) {
	doc := fixture()

	want := report.Summary{
		ClientRoot:   "client",
		ServerRoot:   "server",
		Calls:        4,
		Routes:       1,
		Matched:      2,
		Verified:     1,
		Missing:      2,
		Mismatches:   1,
		Coverage:     25,
		Skipped:      []string{"server/src/broken.ts"},
		SkippedCount: 1,
		Gate:         "missing == 0",
		GateResult:   "FAIL",
	}
	if diff := cmp.Diff(want, doc.Summary); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}

	var modules []string
	for _, m := range doc.Backlog {
		modules = append(modules, m.Name)
	}
	if diff := cmp.Diff([]string{"invoices", "reports"}, modules); diff != "" {
		t.Errorf("backlog modules mismatch (-want +got):\n%s", diff)
	}
	if doc.Backlog[0].Rows[0].Source != "client/app/invoices/page.tsx:5" {
		t.Errorf("unexpected backlog row: %+v", doc.Backlog[0].Rows[0])
	}
	if len(doc.Matched) != 2 || doc.Matched[1].Status != "method mismatch" {
		t.Errorf("unexpected matched rows: %+v", doc.Matched)
	}
}

func TestMarkdownRenderer_SectionsInOrder(t *testing.T) {
	r, err := report.NewMarkdownRenderer("")
	if err != nil {
		t.Fatalf("NewMarkdownRenderer failed: %v", err)
	}
	out, err := r.Render(fixture())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	md := string(out)

	sections := []string{
		"## Summary",
		"## Missing Backend Endpoints",
		"## Method Mismatches",
		"## Wiring Backlog",
		"### invoices (1)",
		"### reports (1)",
		"## Matched Endpoints",
	}
	last := -1
	for _, s := range sections {
		i := strings.Index(md, s)
		if i < 0 {
			t.Fatalf("missing section %q in:\n%s", s, md)
		}
		if i < last {
			t.Errorf("section %q out of order", s)
		}
		last = i
	}

	for _, want := range []string{
		"| Coverage | 25% |",
		"| 1 | GET | `/api/widgets` | `/widgets` | client/app/invoices/page.tsx:5 |",
		"| 1 | POST | `/customers/42` | GET | `/customers/:id` | client/app/customers/page.tsx:9 | server/src/customers.controller.ts:8 |",
		"- `server/src/broken.ts`",
		"`missing == 0` FAIL",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("expected report to contain %q, got:\n%s", want, md)
		}
	}
	if strings.Contains(md, "&lt;") || strings.Contains(md, "&#") {
		t.Errorf("report must not be HTML-escaped:\n%s", md)
	}
}

func TestMarkdownRenderer_EmptyAudit(t *testing.T) {
	result := match.Compare(nil, nil, nil)
	doc := report.Build(report.Input{Result: &result, Gate: "missing == 0", Pass: true})

	r, err := report.NewMarkdownRenderer("")
	if err != nil {
		t.Fatalf("NewMarkdownRenderer failed: %v", err)
	}
	out, err := r.Render(doc)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	md := string(out)
	if strings.Count(md, "None.") != 4 {
		t.Errorf("expected four empty sections, got:\n%s", md)
	}
	if !strings.Contains(md, "| Coverage | 100% |") {
		t.Errorf("expected 100%% coverage for an empty audit:\n%s", md)
	}
}

func TestMarkdownRenderer_CustomTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.md")
	if err := os.WriteFile(path, []byte("coverage={{ summary.Coverage }} missing={{ missing|length }}"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	r, err := report.NewMarkdownRenderer(path)
	if err != nil {
		t.Fatalf("NewMarkdownRenderer failed: %v", err)
	}
	out, err := r.Render(fixture())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if string(out) != "coverage=25 missing=2" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestWriter_WritesIdempotentArtifacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	w, err := report.NewWriter(report.Options{Dir: dir, JSON: true, JUnit: true, AppDir: "app"})
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	first, err := w.Write(fixture())
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	firstMD, _ := os.ReadFile(first.Markdown)
	firstJSON, _ := os.ReadFile(first.JSON)

	second, err := w.Write(fixture())
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	secondMD, _ := os.ReadFile(second.Markdown)
	secondJSON, _ := os.ReadFile(second.JSON)

	if first.Markdown != filepath.Join(dir, "contract-audit.md") {
		t.Errorf("unexpected report path %q", first.Markdown)
	}
	if !bytes.Equal(firstMD, secondMD) || !bytes.Equal(firstJSON, secondJSON) {
		t.Error("expected byte-identical artifacts across runs")
	}

	var decoded struct {
		Summary report.Summary `json:"summary"`
		Result  struct {
			MissingBackend []contract.ClientCall `json:"missingBackend"`
		} `json:"result"`
	}
	if err := json.Unmarshal(firstJSON, &decoded); err != nil {
		t.Fatalf("audit.json is not valid JSON: %v", err)
	}
	if decoded.Summary.Missing != 2 || len(decoded.Result.MissingBackend) != 2 {
		t.Errorf("unexpected audit.json content: %+v", decoded)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("expected only the three artifacts, found %d entries", len(entries))
	}
}

func TestJUnit(t *testing.T) {
	data, err := report.JUnit(fixture(), "app")
	if err != nil {
		t.Fatalf("JUnit failed: %v", err)
	}
	doc, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("invalid XML: %v", err)
	}

	suites := xmlquery.FindOne(doc, "//testsuites")
	if suites == nil || suites.SelectAttr("tests") != "4" || suites.SelectAttr("failures") != "3" {
		t.Fatalf("unexpected testsuites element: %s", data)
	}
	if n := len(xmlquery.Find(doc, "//testcase")); n != 4 {
		t.Errorf("expected 4 testcases, got %d", n)
	}

	missing := xmlquery.Find(doc, "//testcase[failure/@type='missing-backend']")
	if len(missing) != 2 {
		t.Fatalf("expected 2 missing-backend failures, got %d", len(missing))
	}
	if missing[0].SelectAttr("classname") != "invoices" || missing[0].SelectAttr("line") != "5" {
		t.Errorf("unexpected testcase attrs: classname=%s line=%s", missing[0].SelectAttr("classname"), missing[0].SelectAttr("line"))
	}

	mismatch := xmlquery.FindOne(doc, "//testcase[failure/@type='method-mismatch']")
	if mismatch == nil || mismatch.SelectAttr("name") != "POST /customers/42" {
		t.Errorf("expected a method-mismatch testcase for POST /customers/42")
	}
}

func TestConsole_Summary(t *testing.T) {
	var buf bytes.Buffer
	report.NewConsole(&buf).Summary(fixture(), report.Artifacts{Markdown: "reports/contract-audit.md"})
	out := buf.String()
	for _, want := range []string{"client calls:       4", "coverage:           25%", "missing == 0 FAIL", "reports/contract-audit.md", "skipped files:      1"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected console output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestConsole_Wiring(t *testing.T) {
	doc := fixture()
	r := &trace.WiringReport{
		Input:     "--route /customers/42",
		PageFound: false,
		Calls:     doc.Result.Calls[:2],
		Proxies: []contract.ProxyStatus{
			{Endpoint: "/api/customers/[id]", ExpectedRouteFile: "client/app/api/customers/[id]/route.ts", Exists: true},
			{Endpoint: "/api/widgets", ExpectedRouteFile: "client/app/api/widgets/route.ts"},
		},
		Backend: doc.Result.Matches,
		Missing: doc.Result.MissingBackend,
	}
	r.Decide()

	var buf bytes.Buffer
	report.NewConsole(&buf).Wiring(r)
	out := buf.String()
	for _, want := range []string{
		"Input: --route /customers/42",
		"Page:  NOT FOUND",
		"client/app/customers/page.tsx:9",
		"present /api/customers/[id]",
		"MISSING /api/widgets",
		"method mismatch POST /customers/42",
		"Verdict: NO_GO",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected wiring output to contain %q, got:\n%s", want, out)
		}
	}
}
