package path

// Component is one element of a Pattern: a Literal node identifier, a
// LiteralCond, a Cond wrapping a structural Condition, a Wildcard or a
// WildcardDeep.
type Component interface {
	component()
	String() string
}

// Literal matches exactly one node identifier.
type Literal struct{ ID NodeID }

func (Literal) component()       {}
func (l Literal) String() string { return l.ID.String() }

// LiteralCond matches a specific node identifier, and additionally
// requires the node at that identifier to satisfy Extra. Unlike Cond, the
// identifier is resolved directly (a map lookup by ID) rather than by
// scanning every sibling with Condition.Matches, which lets it succeed
// against a position whose node does not exist yet (e.g. Create's
// NodeExists(false) condition) the way a bare Literal component does.
type LiteralCond struct {
	ID    NodeID
	Extra Condition
}

func (LiteralCond) component()       {}
func (l LiteralCond) String() string { return l.ID.String() + "&" + l.Extra.String() }

// Cond wraps a Condition as a pattern component.
type Cond struct{ Condition Condition }

func (Cond) component()       {}
func (c Cond) String() string { return c.Condition.String() }

// Wildcard matches exactly one node at the current depth, regardless of
// identifier or data.
type Wildcard struct{}

func (Wildcard) component()             {}
func (Wildcard) Matches(NodeProps) bool { return true }
func (Wildcard) Specific() bool         { return false }
func (Wildcard) String() string         { return "*" }

// WildcardDeep matches zero or more levels. It is handled specially by the
// walker (it is never evaluated via Matches against a single node the way
// other conditions are) but still satisfies Condition so it can appear
// wherever a Condition is expected.
type WildcardDeep struct{}

func (WildcardDeep) component()             {}
func (WildcardDeep) Matches(NodeProps) bool { return true }
func (WildcardDeep) Specific() bool         { return false }
func (WildcardDeep) String() string         { return "**" }

// Pattern is an ordered sequence of components.
type Pattern []Component

// String renders a pattern using the same grammar ParseString accepts.
func (p Pattern) String() string {
	s := ""
	for _, c := range p {
		s += "/" + c.String()
	}
	if s == "" {
		return "/"
	}
	return s
}

// Specific reports whether the pattern can match at most one node: every
// component must be a Literal, a LiteralCond (resolved by identifier like
// a Literal), or a Cond whose Condition's Specific() returns true.
func (p Pattern) Specific() bool {
	for _, c := range p {
		switch v := c.(type) {
		case Literal, LiteralCond:
			continue
		case Cond:
			if !v.Condition.Specific() {
				return false
			}
		default:
			// Wildcard / WildcardDeep components are never specific.
			return false
		}
	}
	return true
}

// LiteralPath converts a pattern made entirely of Literal components into
// the concrete Path it denotes. It reports false if any component is a
// condition or wildcard, since those don't identify a single fixed path.
func LiteralPath(p Pattern) (Path, bool) {
	out := make(Path, 0, len(p))
	for _, c := range p {
		lit, ok := c.(Literal)
		if !ok {
			return nil, false
		}
		out = append(out, lit.ID)
	}
	return out, true
}

// Combine returns a new pattern with extra conditions AND-ed onto the
// pattern's final component. If the pattern is empty (root), the extra
// conditions become the pattern's sole component. This realizes the
// Create/Update/CompareAndSwap "append a structural condition" behavior.
func Combine(p Pattern, extra ...Condition) Pattern {
	if len(extra) == 0 {
		return p
	}
	out := make(Pattern, len(p))
	copy(out, p)

	combined := func(existing Condition) Condition {
		if existing == nil {
			if len(extra) == 1 {
				return extra[0]
			}
			return All(extra)
		}
		all := make(All, 0, len(extra)+1)
		all = append(all, existing)
		all = append(all, extra...)
		return all
	}

	if len(out) == 0 {
		return Pattern{Cond{Condition: combined(nil)}}
	}

	switch last := out[len(out)-1].(type) {
	case Literal:
		out[len(out)-1] = LiteralCond{ID: last.ID, Extra: combined(nil)}
	case LiteralCond:
		out[len(out)-1] = LiteralCond{ID: last.ID, Extra: combined(last.Extra)}
	case Cond:
		out[len(out)-1] = Cond{Condition: combined(last.Condition)}
	default:
		// Wildcard / WildcardDeep: the component is replaced by a Cond
		// carrying the extra conditions, which matches one node at that
		// depth; a WildcardDeep's any-depth match is not kept.
		out[len(out)-1] = Cond{Condition: combined(nil)}
	}
	return out
}
