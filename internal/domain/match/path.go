package match

import "strings"

const (
	// Wildcard is the pattern token that matches any single segment.
	Wildcard = "*"

	// Placeholder replaces interpolation spans in templated client paths.
	Placeholder = ":param"
)

// Normalize canonicalizes a concrete or templated path: scheme and host,
// query string and fragment are dropped, apiPrefix is stripped when it is a
// whole-segment prefix, separators are collapsed and the trailing separator
// removed. The root normalizes to "/".
func Normalize(raw, apiPrefix string) string {
	p := strings.TrimSpace(raw)
	if i := strings.Index(p, "://"); i >= 0 {
		rest := p[i+3:]
		if j := strings.IndexByte(rest, '/'); j >= 0 {
			p = rest[j:]
		} else {
			p = "/"
		}
	}
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}

	segs := Segments(p)
	if prefix := Segments(apiPrefix); len(prefix) > 0 && hasSegmentPrefix(segs, prefix) {
		segs = segs[len(prefix):]
	}
	return "/" + strings.Join(segs, "/")
}

// Join concatenates path parts and normalizes the result.
func Join(apiPrefix string, parts ...string) string {
	return Normalize(strings.Join(parts, "/"), apiPrefix)
}

// Segments splits a path on "/" and drops empty segments.
func Segments(path string) []string {
	raw := strings.Split(path, "/")
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// HasPrefix reports whether path starts with prefix on a segment boundary.
func HasPrefix(path, prefix string) bool {
	pre := Segments(prefix)
	return len(pre) > 0 && hasSegmentPrefix(Segments(stripOrigin(path)), pre)
}

func hasSegmentPrefix(segs, prefix []string) bool {
	if len(segs) < len(prefix) {
		return false
	}
	for i := range prefix {
		if segs[i] != prefix[i] {
			return false
		}
	}
	return true
}

func stripOrigin(p string) string {
	if i := strings.Index(p, "://"); i >= 0 {
		rest := p[i+3:]
		if j := strings.IndexByte(rest, '/'); j >= 0 {
			return rest[j:]
		}
		return "/"
	}
	return p
}
