package path

import (
	"fmt"
	"regexp"
)

// NodeProps is the read-only view of a tree node's matchable properties
// that conditions evaluate against. It mirrors the "Derived properties"
// described for the Tree Node entity, decoupled from the tree package so
// this package never imports it (the tree package imports this one).
type NodeProps struct {
	ID               NodeID // the node's own identifier, valid when Exists
	Exists           bool
	HasData          bool
	IsSproc          bool
	HasPayload       bool
	Data             any // valid when HasData
	PayloadVersion   uint64
	ChildListVersion uint64
	ChildListLength  int
	ChildNames       []string
}

// Condition is a predicate evaluated against one tree node during a walk.
type Condition interface {
	// Matches reports whether props satisfies the condition.
	Matches(props NodeProps) bool

	// Specific reports whether this condition can match at most one
	// sibling at a given depth. Used by the pattern specificity rule.
	Specific() bool

	fmt.Stringer
}

// --------------------------------------------------------------------------
// Existence / payload-shape conditions
// --------------------------------------------------------------------------

// NodeExists requires (or forbids, when Want is false) that the node exists.
type NodeExists struct{ Want bool }

func (c NodeExists) Matches(p NodeProps) bool { return p.Exists == c.Want }
func (c NodeExists) Specific() bool           { return false }
func (c NodeExists) String() string           { return fmt.Sprintf("node-exists(%t)", c.Want) }

// HasData requires the node's payload to be the Data variant.
type HasData struct{}

func (HasData) Matches(p NodeProps) bool { return p.Exists && p.HasData }
func (HasData) Specific() bool           { return false }
func (HasData) String() string           { return "has-data" }

// HasSproc requires the node's payload to be the StoredProc variant.
type HasSproc struct{}

func (HasSproc) Matches(p NodeProps) bool { return p.Exists && p.IsSproc }
func (HasSproc) Specific() bool           { return false }
func (HasSproc) String() string           { return "has-sproc" }

// HasPayload requires the node's payload to be anything but None.
type HasPayload struct{}

func (HasPayload) Matches(p NodeProps) bool { return p.Exists && p.HasPayload }
func (HasPayload) Specific() bool           { return false }
func (HasPayload) String() string           { return "has-payload" }

// DataMatches applies a caller-supplied predicate to the node's Data term.
// It never matches nodes without a Data payload.
type DataMatches struct {
	Predicate func(term any) bool
	Label     string // used only for String(); purely cosmetic
}

func (c DataMatches) Matches(p NodeProps) bool {
	return p.Exists && p.HasData && c.Predicate != nil && c.Predicate(p.Data)
}
func (c DataMatches) Specific() bool { return false }
func (c DataMatches) String() string {
	if c.Label != "" {
		return "data-matches(" + c.Label + ")"
	}
	return "data-matches(...)"
}

// PayloadVersionEquals requires an exact payload_version.
type PayloadVersionEquals struct{ Version uint64 }

func (c PayloadVersionEquals) Matches(p NodeProps) bool {
	return p.Exists && p.PayloadVersion == c.Version
}
func (c PayloadVersionEquals) Specific() bool { return false }
func (c PayloadVersionEquals) String() string {
	return fmt.Sprintf("payload-version-equals(%d)", c.Version)
}

// ChildListVersionEquals requires an exact child_list_version.
type ChildListVersionEquals struct{ Version uint64 }

func (c ChildListVersionEquals) Matches(p NodeProps) bool {
	return p.Exists && p.ChildListVersion == c.Version
}
func (c ChildListVersionEquals) Specific() bool { return false }
func (c ChildListVersionEquals) String() string {
	return fmt.Sprintf("child-list-version-equals(%d)", c.Version)
}

// ChildListLengthEquals requires an exact number of children.
type ChildListLengthEquals struct{ Length int }

func (c ChildListLengthEquals) Matches(p NodeProps) bool {
	return p.Exists && p.ChildListLength == c.Length
}
func (c ChildListLengthEquals) Specific() bool { return false }
func (c ChildListLengthEquals) String() string {
	return fmt.Sprintf("child-list-length-equals(%d)", c.Length)
}

// --------------------------------------------------------------------------
// Name-based condition
// --------------------------------------------------------------------------

// NameRegex requires that the node identifier (rendered canonically, see
// NodeID.String) matches a regular expression. There is no
// pattern/glob-matching library anywhere in the reference corpus this
// implementation was grounded on, so this condition is, deliberately, the
// one place in lib/path that reaches for the standard library's regexp
// instead of a third-party matcher.
type NameRegex struct {
	Re *regexp.Regexp
}

// CompileNameRegex compiles expr and wraps it as a NameRegex condition.
func CompileNameRegex(expr string) (NameRegex, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return NameRegex{}, err
	}
	return NameRegex{Re: re}, nil
}

func (c NameRegex) Matches(p NodeProps) bool {
	return p.Exists && c.Re != nil && c.Re.MatchString(p.ID.String())
}
func (c NameRegex) Specific() bool { return false }
func (c NameRegex) String() string { return fmt.Sprintf("name-regex(%s)", c.Re.String()) }

// --------------------------------------------------------------------------
// Logical combinators
// --------------------------------------------------------------------------

// All requires every sub-condition to match (logical AND).
type All []Condition

func (c All) Matches(p NodeProps) bool {
	for _, sub := range c {
		if !sub.Matches(p) {
			return false
		}
	}
	return true
}
func (c All) Specific() bool {
	for _, sub := range c {
		if sub.Specific() {
			return true
		}
	}
	return false
}
func (c All) String() string { return joinConds("all", c) }

// Any requires at least one sub-condition to match (logical OR).
type Any []Condition

func (c Any) Matches(p NodeProps) bool {
	for _, sub := range c {
		if sub.Matches(p) {
			return true
		}
	}
	return false
}
func (c Any) Specific() bool { return false }
func (c Any) String() string { return joinConds("any", c) }

// Not negates a sub-condition.
type Not struct{ Cond Condition }

func (c Not) Matches(p NodeProps) bool { return !c.Cond.Matches(p) }
func (c Not) Specific() bool           { return false }
func (c Not) String() string           { return "not(" + c.Cond.String() + ")" }

func joinConds(op string, conds []Condition) string {
	s := op + "("
	for i, c := range conds {
		if i > 0 {
			s += ", "
		}
		s += c.String()
	}
	return s + ")"
}
