package policy

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/sophialabs/wirecheck/internal/domain/match"
)

// segmentEnv is the environment of an identifier rule, e.g.
//
//	segment matches "^usr_[0-9a-z]{12}$"
//	len(segment) == 26 && upper(segment) == segment
type segmentEnv struct {
	Segment string `expr:"segment"`
}

// CompileIdentifierRule compiles one boolean expression over a path segment
// into a predicate. Evaluation errors count as no match.
func CompileIdentifierRule(source string) (match.Predicate, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, fmt.Errorf("empty identifier rule")
	}
	program, err := expr.Compile(source, expr.Env(segmentEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("failed to compile identifier rule %q: %w", source, err)
	}
	return func(seg string) bool {
		out, err := expr.Run(program, segmentEnv{Segment: seg})
		if err != nil {
			return false
		}
		b, _ := out.(bool)
		return b
	}, nil
}

// IdentifierPredicate combines the built-in rules with any extra expression
// rules. A segment is an identifier if any rule says so.
func IdentifierPredicate(rules match.IdentifierRules, extra []string) (match.Predicate, error) {
	preds := []match.Predicate{rules.Predicate()}
	for _, src := range extra {
		p, err := CompileIdentifierRule(src)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return match.Or(preds...), nil
}
