package match

import "strings"

// Predicate tests a single path segment.
type Predicate func(string) bool

// And returns a predicate that requires all predicates to match.
func And(predicates ...Predicate) Predicate {
	return func(s string) bool {
		for _, p := range predicates {
			if !p(s) {
				return false
			}
		}
		return true
	}
}

// Or returns a predicate that requires at least one predicate to match.
func Or(predicates ...Predicate) Predicate {
	return func(s string) bool {
		for _, p := range predicates {
			if p(s) {
				return true
			}
		}
		return false
	}
}

// Not returns a predicate that inverts the given predicate.
func Not(p Predicate) Predicate {
	return func(s string) bool {
		return !p(s)
	}
}

// Always returns a predicate that always matches.
func Always() Predicate {
	return func(string) bool { return true }
}

// Never returns a predicate that never matches.
func Never() Predicate {
	return func(string) bool { return false }
}

// PrefixRule describes an opaque ID scheme: a fixed total length and a leading letter.
type PrefixRule struct {
	Prefix string `yaml:"prefix" toml:"prefix" json:"prefix"`
	Length int    `yaml:"length" toml:"length" json:"length"`
}

// IdentifierRules is the tunable allowlist behind IdentifierShape. It is a
// guess about which literal client path segments are really runtime IDs.
type IdentifierRules struct {
	HexMinLength int          `yaml:"hexMinLength" toml:"hexMinLength" json:"hexMinLength"`
	Prefixes     []PrefixRule `yaml:"prefixes" toml:"prefixes" json:"prefixes"`
}

// DefaultIdentifierRules covers UUIDs and Mongo ObjectIds (hex), numeric keys
// and 25-character cuids.
func DefaultIdentifierRules() IdentifierRules {
	return IdentifierRules{
		HexMinLength: 20,
		Prefixes:     []PrefixRule{{Prefix: "c", Length: 25}},
	}
}

// Predicate composes the built-in rules.
func (r IdentifierRules) Predicate() Predicate {
	return Or(HexToken(r.HexMinLength), Numeric(), PrefixedToken(r.Prefixes...))
}

// IdentifierShape is the default client-side identifier heuristic.
func IdentifierShape() Predicate {
	return DefaultIdentifierRules().Predicate()
}

// HexToken matches tokens of at least minLen hex digits and hyphens.
func HexToken(minLen int) Predicate {
	return func(s string) bool {
		if len(s) < minLen || minLen <= 0 {
			return false
		}
		digits := 0
		for i := 0; i < len(s); i++ {
			switch c := s[i]; {
			case c == '-':
			case isHex(c):
				digits++
			default:
				return false
			}
		}
		return digits > 0
	}
}

// Numeric matches purely numeric tokens.
func Numeric() Predicate {
	return func(s string) bool {
		if s == "" {
			return false
		}
		for i := 0; i < len(s); i++ {
			if s[i] < '0' || s[i] > '9' {
				return false
			}
		}
		return true
	}
}

// PrefixedToken matches alphanumeric tokens of an exact length that start
// with one of the rule prefixes.
func PrefixedToken(rules ...PrefixRule) Predicate {
	return func(s string) bool {
		if !isAlnum(s) {
			return false
		}
		for _, r := range rules {
			if r.Prefix != "" && len(s) == r.Length && strings.HasPrefix(s, r.Prefix) {
				return true
			}
		}
		return false
	}
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isAlnum(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9') && !(c >= 'a' && c <= 'z') && !(c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return true
}
