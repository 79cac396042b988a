package routes

import "strings"

func isVariable(seg string) bool {
	return strings.HasPrefix(seg, ":") || seg == "*"
}

func segments(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// variablePrefix returns the path up to the first variable segment.
func variablePrefix(pattern string) (string, bool) {
	segs := segments(pattern)
	for i, s := range segs {
		if isVariable(s) {
			return "/" + strings.Join(segs[:i], "/"), true
		}
	}
	return "", false
}

// Match reports whether path satisfies pattern. ":name" matches one
// non-empty segment, a trailing "*" matches any remainder.
func Match(pattern, path string) bool {
	ps, xs := segments(pattern), segments(path)
	for i, s := range ps {
		if s == "*" && i == len(ps)-1 {
			return true
		}
		if i >= len(xs) {
			return false
		}
		if strings.HasPrefix(s, ":") {
			continue
		}
		if s != xs[i] {
			return false
		}
	}
	return len(ps) == len(xs)
}

func segmentKind(seg string) int {
	switch {
	case seg == "*":
		return 2
	case strings.HasPrefix(seg, ":"):
		return 1
	default:
		return 0
	}
}

// precedes reports whether pattern a is routed before b when both match
// the same path. Segment by segment a static name beats a parameter, and a
// parameter beats a wildcard.
func precedes(a, b string) bool {
	as, bs := segments(a), segments(b)
	for i := 0; i < len(as) && i < len(bs); i++ {
		if ka, kb := segmentKind(as[i]), segmentKind(bs[i]); ka != kb {
			return ka < kb
		}
	}
	return len(as) > len(bs)
}
