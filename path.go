package simpleschema

import "strconv"

// Path builds dotted document paths with bracketed sequence indices, e.g.
// testsuites.testsuite[0].tests. The zero value is the document root.
type Path struct {
	s string
}

// Field returns the path extended by a field name.
func (p Path) Field(name string) Path {
	if p.s == "" {
		return Path{s: name}
	}
	return Path{s: p.s + "." + name}
}

// Index returns the path extended by a sequence index.
func (p Path) Index(i int) Path {
	return Path{s: p.s + "[" + strconv.Itoa(i) + "]"}
}

func (p Path) String() string { return p.s }

// Violation creates a Violation at this path.
func (p Path) Violation(constraint, msg string) Violation {
	return Violation{Path: p.s, Constraint: constraint, Message: msg}
}
