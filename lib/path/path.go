package path

import "strings"

// Path is an ordered sequence of node identifiers. The empty path denotes
// the root.
type Path []NodeID

// String renders a path using '/' as the component separator.
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, id := range p {
		parts[i] = id.String()
	}
	return "/" + strings.Join(parts, "/")
}

// Equal reports structural equality between two paths.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if !p[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// Child returns a new path with id appended.
func (p Path) Child(id NodeID) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = id
	return out
}

// Parent returns the path without its last component, and false if p is the
// root path.
func (p Path) Parent() (Path, bool) {
	if len(p) == 0 {
		return nil, false
	}
	return p[:len(p)-1], true
}

// IsRoot reports whether p is the empty (root) path.
func (p Path) IsRoot() bool {
	return len(p) == 0
}

// ParsePath parses a Unix-like path of literal components (no
// conditions) using the same grammar as ParseString for patterns. It is
// a convenience for callers that already know the path is fully literal,
// e.g. after a Walker match has resolved a pattern to a concrete path.
func ParsePath(s string) (Path, error) {
	pat, err := ParseString(s)
	if err != nil {
		return nil, err
	}
	out := make(Path, 0, len(pat))
	for _, c := range pat {
		lit, ok := c.(Literal)
		if !ok {
			return nil, errNotLiteral(s)
		}
		out = append(out, lit.ID)
	}
	return out, nil
}

type errNotLiteralPath string

func (e errNotLiteralPath) Error() string {
	return "path: not a literal path: " + string(e)
}

func errNotLiteral(s string) error {
	return errNotLiteralPath(s)
}
