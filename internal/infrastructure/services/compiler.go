package services

import (
	"fmt"

	"github.com/sophialabs/wirecheck/internal/domain/match"
	"github.com/sophialabs/wirecheck/internal/infrastructure/outbound/policy"
)

// Policy is the compiled form of the configurable matching and gating rules.
type Policy struct {
	IsIdentifier match.Predicate
	Gate         *policy.Gate
}

// CompilePolicy builds the identifier predicate from the built-in rules plus
// any expression rules, and compiles the gate expression.
func CompilePolicy(rules match.IdentifierRules, extra []string, gate string) (*Policy, error) {
	isIdent, err := policy.IdentifierPredicate(rules, extra)
	if err != nil {
		return nil, fmt.Errorf("failed to compile identifier rules: %w", err)
	}
	g, err := policy.CompileGate(gate)
	if err != nil {
		return nil, err
	}
	return &Policy{IsIdentifier: isIdent, Gate: g}, nil
}

// Comparator returns a comparator using the compiled identifier predicate.
func (p *Policy) Comparator() *match.Comparator {
	return match.NewComparator(p.IsIdentifier)
}
