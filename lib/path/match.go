package path

// MatchPath reports whether pattern structurally matches target, a
// concrete identifier sequence rather than a live tree. It is used by the
// trigger/projection dispatcher, which only has a path and the event's
// own before/after properties to work with, not a tree it can walk.
//
// Condition components (Cond, LiteralCond) are only evaluated when they
// are the pattern's final component and align with target's final
// identifier, against leafProps; elsewhere in the pattern they degrade to
// an identifier-existence check (LiteralCond) or an unconditional pass-
// through for one component (Cond), since no intermediate node's
// properties are available outside of a tree walk.
func MatchPath(pattern Pattern, target Path, leafProps NodeProps) bool {
	return matchStep(pattern, 0, target, 0, leafProps)
}

func matchStep(pat Pattern, pi int, target Path, ti int, leafProps NodeProps) bool {
	if pi == len(pat) {
		return ti == len(target)
	}
	isFinal := pi == len(pat)-1 && ti == len(target)-1

	switch c := pat[pi].(type) {
	case Literal:
		if ti >= len(target) || !c.ID.Equal(target[ti]) {
			return false
		}
		return matchStep(pat, pi+1, target, ti+1, leafProps)

	case LiteralCond:
		if ti >= len(target) || !c.ID.Equal(target[ti]) {
			return false
		}
		if isFinal && !c.Extra.Matches(leafProps) {
			return false
		}
		return matchStep(pat, pi+1, target, ti+1, leafProps)

	case Cond:
		if ti >= len(target) {
			return false
		}
		if isFinal && !c.Condition.Matches(leafProps) {
			return false
		}
		return matchStep(pat, pi+1, target, ti+1, leafProps)

	case Wildcard:
		if ti >= len(target) {
			return false
		}
		return matchStep(pat, pi+1, target, ti+1, leafProps)

	case WildcardDeep:
		if matchStep(pat, pi+1, target, ti, leafProps) {
			return true
		}
		if ti >= len(target) {
			return false
		}
		return matchStep(pat, pi, target, ti+1, leafProps)

	default:
		return false
	}
}
