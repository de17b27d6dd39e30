package policy

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/sophialabs/wirecheck/internal/domain/contract"
)

// DefaultGate passes when every client call has a backend route.
const DefaultGate = "missing == 0"

// GateEnv holds the audit counters a gate expression may reference.
type GateEnv struct {
	Calls      int `expr:"calls" json:"calls"`
	Routes     int `expr:"routes" json:"routes"`
	Matched    int `expr:"matched" json:"matched"`
	Verified   int `expr:"verified" json:"verified"`
	Missing    int `expr:"missing" json:"missing"`
	Mismatches int `expr:"mismatches" json:"mismatches"`
	Coverage   int `expr:"coverage" json:"coverage"`
	Skipped    int `expr:"skipped" json:"skipped"`
}

// NewGateEnv summarizes an audit result.
func NewGateEnv(r *contract.AuditResult, skipped int) GateEnv {
	return GateEnv{
		Calls:      len(r.Calls),
		Routes:     len(r.Routes),
		Matched:    len(r.Matches),
		Verified:   len(r.Verified()),
		Missing:    len(r.MissingBackend),
		Mismatches: len(r.MethodMismatches),
		Coverage:   r.CoveragePercent,
		Skipped:    skipped,
	}
}

// Gate decides the exit status of a full audit.
type Gate struct {
	source  string
	program *vm.Program
}

// CompileGate compiles a boolean gate expression. Empty source means DefaultGate.
func CompileGate(source string) (*Gate, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		source = DefaultGate
	}
	program, err := expr.Compile(source, expr.Env(GateEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("failed to compile gate %q: %w", source, err)
	}
	return &Gate{source: source, program: program}, nil
}

// Evaluate reports whether the audit passes the gate.
func (g *Gate) Evaluate(env GateEnv) (bool, error) {
	out, err := expr.Run(g.program, env)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate gate %q: %w", g.source, err)
	}
	pass, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("gate %q returned %T, want bool", g.source, out)
	}
	return pass, nil
}

func (g *Gate) String() string { return g.source }
