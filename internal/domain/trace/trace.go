package trace

import (
	"time"

	"github.com/sophialabs/wirecheck/internal/domain/contract"
)

// Verdict is the outcome token of a wiring trace.
type Verdict string

const (
	Go   Verdict = "GO"
	NoGo Verdict = "NO_GO"
)

// WiringReport is the result of tracing one client page through its proxy
// routes to the backend.
type WiringReport struct {
	Input     string                 `json:"input"`
	PageFile  string                 `json:"pageFile"`
	PageFound bool                   `json:"pageFound"`
	Files     []string               `json:"files"`
	Calls     []contract.ClientCall  `json:"calls"`
	Proxies   []contract.ProxyStatus `json:"proxies"`
	Backend   []contract.MatchResult `json:"backend"`
	Missing   []contract.ClientCall  `json:"missing"`
	Verdict   Verdict                `json:"verdict"`
}

// MissingProxies returns the proxy routes that do not exist on disk.
func (r *WiringReport) MissingProxies() []contract.ProxyStatus {
	var out []contract.ProxyStatus
	for _, p := range r.Proxies {
		if !p.Exists {
			out = append(out, p)
		}
	}
	return out
}

// Decide sets and returns the verdict: NO_GO when the page is unresolved, a
// proxy route is missing or a call has no backend route.
func (r *WiringReport) Decide() Verdict {
	r.Verdict = Go
	if !r.PageFound || len(r.MissingProxies()) > 0 || len(r.Missing) > 0 {
		r.Verdict = NoGo
	}
	return r.Verdict
}

// Entry records one pipeline run.
type Entry struct {
	Timestamp  time.Time     `json:"timestamp"`
	Kind       string        `json:"kind"`
	Trigger    string        `json:"trigger"`
	Calls      int           `json:"calls"`
	Routes     int           `json:"routes"`
	Missing    int           `json:"missing"`
	Mismatches int           `json:"mismatches"`
	Coverage   int           `json:"coverage"`
	Pass       bool          `json:"pass"`
	Duration   time.Duration `json:"duration"`
}
