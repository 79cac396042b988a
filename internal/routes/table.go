// Package routes holds the declarative route table: every endpoint is
// registered together with its visibility markers, and the resolved rules
// are read-only once the table is sealed.
package routes

import (
	"fmt"
	"slices"
	"strings"
)

type Visibility int

const (
	VisibilityProtected Visibility = iota
	VisibilityPublic
)

func (v Visibility) String() string {
	if v == VisibilityPublic {
		return "public"
	}
	return "protected"
}

type markerKind int

const (
	markPublic markerKind = iota + 1
	markProtected
)

// Marker tags a group or a single route. Route-level markers override
// group-level ones.
type Marker struct {
	kind  markerKind
	roles []string
}

func Public() Marker { return Marker{kind: markPublic} }

// RequiresAuth marks a route protected. No roles means any authenticated
// identity.
func RequiresAuth(roles ...string) Marker {
	return Marker{kind: markProtected, roles: slices.Clone(roles)}
}

type Rule struct {
	Method     string
	Pattern    string
	Visibility Visibility
	Roles      []string
	// Guarded is set when a protected marker applies. Unmarked routes
	// resolve to VisibilityProtected but are not guarded.
	Guarded bool
}

// Endpoint is a method and path pair of the public allow-list.
type Endpoint struct {
	Method string
	Path   string
}

func (e Endpoint) String() string { return e.Method + " " + e.Path }

type Table struct {
	rules  map[Endpoint]Rule
	order  []Endpoint
	public []Endpoint
	sealed bool
}

func NewTable() *Table {
	return &Table{rules: make(map[Endpoint]Rule)}
}

type Group struct {
	t      *Table
	prefix string
	marker *Marker
}

// Group starts a prefix whose routes inherit marker. Passing more than one
// marker is a programming error.
func (t *Table) Group(prefix string, marker ...Marker) *Group {
	g := &Group{t: t, prefix: strings.TrimSuffix(prefix, "/")}
	g.marker = single(marker, "group "+prefix)
	return g
}

func (g *Group) Add(method, path string, marker ...Marker) Rule {
	return g.t.add(method, g.prefix+path, single(marker, method+" "+g.prefix+path), g.marker)
}

func (t *Table) Add(method, pattern string, marker ...Marker) Rule {
	return t.add(method, pattern, single(marker, method+" "+pattern), nil)
}

func single(m []Marker, where string) *Marker {
	switch len(m) {
	case 0:
		return nil
	case 1:
		return &m[0]
	default:
		panic(fmt.Sprintf("routes: %s has %d markers, want at most one", where, len(m)))
	}
}

func (t *Table) add(method, pattern string, route, group *Marker) Rule {
	if t.sealed {
		panic("routes: table is sealed")
	}
	if pattern == "" {
		pattern = "/"
	}
	ep := Endpoint{Method: strings.ToUpper(method), Path: pattern}
	if _, dup := t.rules[ep]; dup {
		panic("routes: duplicate rule for " + ep.String())
	}

	r := resolve(route, group)
	r.Method, r.Pattern = ep.Method, ep.Path
	t.rules[ep] = r
	t.order = append(t.order, ep)
	return r
}

func resolve(route, group *Marker) Rule {
	switch {
	case route != nil && route.kind == markProtected:
		return Rule{Visibility: VisibilityProtected, Roles: route.roles, Guarded: true}
	case route != nil && route.kind == markPublic:
		return Rule{Visibility: VisibilityPublic}
	case group != nil && group.kind == markPublic:
		return Rule{Visibility: VisibilityPublic}
	case group != nil && group.kind == markProtected:
		return Rule{Visibility: VisibilityProtected, Roles: group.roles, Guarded: true}
	default:
		return Rule{Visibility: VisibilityProtected}
	}
}

// Seal freezes the table and builds the public allow-list. Further Add
// calls panic.
func (t *Table) Seal() {
	if t.sealed {
		return
	}
	t.sealed = true

	seen := make(map[Endpoint]bool)
	push := func(ep Endpoint) {
		if seen[ep] {
			return
		}
		if r, ok := t.rules[ep]; ok && r.Visibility != VisibilityPublic {
			return
		}
		seen[ep] = true
		t.public = append(t.public, ep)
	}

	for _, ep := range t.order {
		if t.rules[ep].Visibility != VisibilityPublic {
			continue
		}
		push(ep)
		if prefix, ok := variablePrefix(ep.Path); ok {
			push(Endpoint{Method: ep.Method, Path: strings.TrimSuffix(prefix, "/") + "/*"})
			push(Endpoint{Method: ep.Method, Path: prefix})
		}
	}
}

// route picks the registered rule a concrete path would be dispatched to.
func (t *Table) route(method, path string) (Rule, bool) {
	var (
		best  Endpoint
		found bool
	)
	for _, ep := range t.order {
		if ep.Method != method || !Match(ep.Path, path) {
			continue
		}
		if !found || precedes(ep.Path, best.Path) {
			best, found = ep, true
		}
	}
	return t.rules[best], found
}

func (t *Table) Lookup(method, pattern string) (Rule, bool) {
	r, ok := t.rules[Endpoint{Method: strings.ToUpper(method), Path: pattern}]
	return r, ok
}

func (t *Table) Rules() []Rule {
	out := make([]Rule, 0, len(t.order))
	for _, ep := range t.order {
		out = append(out, t.rules[ep])
	}
	return out
}

// PublicPatterns returns the allow-list built by Seal. It is informational:
// a wildcard sibling may cover concrete paths that route to a protected
// rule, and the enforcer decides by rule lookup, never by this list.
func (t *Table) PublicPatterns() []Endpoint {
	return slices.Clone(t.public)
}

// IsPublic reports whether a concrete request path is public. The
// registered rule the path routes to decides. The allow-list only answers
// for paths no registered rule matches.
func (t *Table) IsPublic(method, path string) bool {
	method = strings.ToUpper(method)
	if r, ok := t.route(method, path); ok {
		return r.Visibility == VisibilityPublic
	}
	for _, ep := range t.public {
		if ep.Method == method && Match(ep.Path, path) {
			return true
		}
	}
	return false
}
