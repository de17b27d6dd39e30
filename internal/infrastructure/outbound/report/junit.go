package report

import (
	"encoding/xml"
	"fmt"

	"github.com/sophialabs/wirecheck/internal/domain/contract"
)

type junitSuites struct {
	XMLName  xml.Name     `xml:"testsuites"`
	Name     string       `xml:"name,attr"`
	Tests    int          `xml:"tests,attr"`
	Failures int          `xml:"failures,attr"`
	Suites   []junitSuite `xml:"testsuite"`
}

type junitSuite struct {
	Name     string      `xml:"name,attr"`
	Tests    int         `xml:"tests,attr"`
	Failures int         `xml:"failures,attr"`
	Cases    []junitCase `xml:"testcase"`
}

type junitCase struct {
	ClassName string        `xml:"classname,attr"`
	Name      string        `xml:"name,attr"`
	File      string        `xml:"file,attr"`
	Line      int           `xml:"line,attr"`
	Failure   *junitFailure `xml:"failure,omitempty"`
}

type junitFailure struct {
	Type    string `xml:"type,attr"`
	Message string `xml:"message,attr"`
	Text    string `xml:",chardata"`
}

// JUnit renders one testcase per client call, classed by client module.
// Missing routes and method mismatches are failures.
func JUnit(doc *Document, appDir string) ([]byte, error) {
	r := doc.Result
	missing := make(map[string]bool, len(r.MissingBackend))
	for _, c := range r.MissingBackend {
		missing[c.Key()] = true
	}
	matched := make(map[string]contract.MatchResult, len(r.Matches))
	for _, m := range r.Matches {
		matched[m.Call.Key()] = m
	}

	suite := junitSuite{Name: "contract-audit", Cases: make([]junitCase, 0, len(r.Calls))}
	for _, c := range r.Calls {
		tc := junitCase{
			ClassName: ModuleOf(c.SourceFile, doc.Summary.ClientRoot, appDir),
			Name:      fmt.Sprintf("%s %s", c.Method, c.NormalizedPath),
			File:      c.SourceFile,
			Line:      c.SourceLine,
		}
		switch m, ok := matched[c.Key()]; {
		case missing[c.Key()]:
			tc.Failure = &junitFailure{
				Type:    "missing-backend",
				Message: "no server route matches " + c.NormalizedPath,
				Text:    c.Location(),
			}
		case ok && !m.MethodMatch:
			tc.Failure = &junitFailure{
				Type:    "method-mismatch",
				Message: fmt.Sprintf("client sends %s, server declares %s %s", c.Method, m.Route.Method, m.Route.FullPath),
				Text:    m.Route.Location(),
			}
		}
		if tc.Failure != nil {
			suite.Failures++
		}
		suite.Cases = append(suite.Cases, tc)
	}
	suite.Tests = len(suite.Cases)

	out, err := xml.MarshalIndent(junitSuites{
		Name:     "wirecheck",
		Tests:    suite.Tests,
		Failures: suite.Failures,
		Suites:   []junitSuite{suite},
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode junit report: %w", err)
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}
