package match

import "strings"

// Pattern is a normalized path split into segments, where Wildcard marks a
// segment that matches anything.
type Pattern []string

// ClientPattern wildcards interpolated segments and any segment isIdent
// recognizes as an opaque identifier.
func ClientPattern(path string, isIdent Predicate) Pattern {
	segs := Segments(path)
	out := make(Pattern, len(segs))
	for i, s := range segs {
		if strings.Contains(s, Placeholder) || (isIdent != nil && isIdent(s)) {
			out[i] = Wildcard
			continue
		}
		out[i] = s
	}
	return out
}

// ServerPattern wildcards every declared parameter segment (":id", "*",
// "{id}"), whatever its name.
func ServerPattern(path string) Pattern {
	segs := Segments(path)
	out := make(Pattern, len(segs))
	for i, s := range segs {
		if IsParam(s) {
			out[i] = Wildcard
			continue
		}
		out[i] = s
	}
	return out
}

// IsParam reports whether a server segment is a route parameter.
func IsParam(seg string) bool {
	switch {
	case strings.HasPrefix(seg, ":"), seg == Wildcard:
		return true
	case strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}"):
		return true
	default:
		return false
	}
}

// Equal reports pattern equality: same length, and each pair of segments is
// textually equal or has a wildcard on at least one side.
func (p Pattern) Equal(q Pattern) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] == Wildcard || q[i] == Wildcard {
			continue
		}
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

func (p Pattern) String() string {
	return "/" + strings.Join(p, "/")
}
