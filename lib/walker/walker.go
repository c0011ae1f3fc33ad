// Package walker evaluates a path pattern against a tree, yielding matched
// paths and their properties in a deterministic order. The algorithm is a
// cooperative depth-first traversal over a frontier of (node, path,
// pattern-position) triples, advancing in lock-step with the pattern the
// way a recursive-descent matcher advances in lock-step with its grammar.
package walker

import (
	"sort"

	"github.com/grove-db/grove/lib/path"
	"github.com/grove-db/grove/lib/tree"
)

// Options controls how a walk resolves ambiguity and which properties are
// reported back for each match.
type Options struct {
	// ExpectSpecificNode fails the walk early with an *Error of kind
	// NotSpecific if the
	// pattern could match more than one sibling at any depth.
	ExpectSpecificNode bool

	// PropsToReturn is the subset of projectable properties to populate on
	// each Match.Props. A nil/empty slice returns everything.
	PropsToReturn []string

	// IncludeRootProps controls whether a match that resolves to the root
	// path is reported. Root matches only occur for the empty pattern or
	// for the zero-level branch of "**" at the top of the tree.
	IncludeRootProps bool
}

// Match pairs a resolved path with the properties the walk observed there.
type Match struct {
	Path  path.Path
	Props path.NodeProps
}

// ErrorKind enumerates the per-match failure conditions named in the
// design (NodeNotFound, MismatchingNode, NotSpecific; DeniedUpdate is
// raised by callers that forbid mutating the root, not by the walk
// itself).
type ErrorKind string

const (
	NodeNotFound    ErrorKind = "NodeNotFound"
	MismatchingNode ErrorKind = "MismatchingNode"
	NotSpecific     ErrorKind = "NotSpecific"
	DeniedUpdate    ErrorKind = "DeniedUpdate"
)

// Error carries the failing path alongside its kind.
type Error struct {
	Kind ErrorKind
	Path path.Path
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Path.String()
}

type frontierEntry struct {
	node       *tree.Node
	exists     bool
	resolved   path.Path
	patternPos int
}

// Walk resolves pattern against t, returning every match in depth-first,
// children-in-identifier-order. Non-existent nodes matched via a
// LiteralCond (e.g. Create's NodeExists=false) are still reported, with
// Props.Exists == false.
func Walk(t *tree.Tree, pattern path.Pattern, opts Options) ([]Match, error) {
	if opts.ExpectSpecificNode && !pattern.Specific() {
		return nil, &Error{Kind: NotSpecific}
	}

	root, _ := t.Get(nil)
	frontier := []frontierEntry{{node: root, exists: true, resolved: path.Path{}, patternPos: 0}}

	// pendingErr remembers the most recent per-branch failure (NodeNotFound
	// or MismatchingNode) a literal component produced. A failing branch
	// says nothing about its siblings, so it never aborts the walk: it is
	// simply dropped from the frontier, the way a dead end in any DFS
	// search just yields no results from that direction. The one caller
	// that still wants the precise failure reason is ResolveSpecific, via
	// ExpectSpecificNode: a specific pattern has at most one live branch at
	// a time, so if that branch dies without producing a match, pendingErr
	// is the reason why, and is returned instead of a bare empty result.
	var pendingErr error
	var matches []Match
	for len(frontier) > 0 {
		// pop the last entry (stack-based DFS keeps identifier order when
		// children are pushed in reverse-sorted order, see pushChildren).
		cur := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]

		if cur.patternPos == len(pattern) {
			if cur.resolved.IsRoot() && !opts.IncludeRootProps {
				continue
			}
			props := cur.node.Props(lastID(cur.resolved), cur.exists)
			matches = append(matches, Match{Path: cur.resolved, Props: filterProps(props, opts.PropsToReturn)})
			continue
		}

		component := pattern[cur.patternPos]
		next, err := step(cur, component)
		if err != nil {
			pendingErr = err
			continue
		}
		frontier = append(frontier, next...)
	}

	if len(matches) == 0 && opts.ExpectSpecificNode && pendingErr != nil {
		return nil, pendingErr
	}
	return matches, nil
}

func step(cur frontierEntry, component path.Component) ([]frontierEntry, error) {
	switch c := component.(type) {
	case path.Literal:
		child, exists := lookupChild(cur, c.ID)
		if !exists {
			return nil, &Error{Kind: NodeNotFound, Path: cur.resolved.Child(c.ID)}
		}
		return []frontierEntry{{
			node: child, exists: true,
			resolved: cur.resolved.Child(c.ID), patternPos: cur.patternPos + 1,
		}}, nil

	case path.LiteralCond:
		child, exists := lookupChild(cur, c.ID)
		props := childProps(child, c.ID, exists)
		if !c.Extra.Matches(props) {
			if !exists {
				return nil, &Error{Kind: NodeNotFound, Path: cur.resolved.Child(c.ID)}
			}
			return nil, &Error{Kind: MismatchingNode, Path: cur.resolved.Child(c.ID)}
		}
		return []frontierEntry{{
			node: child, exists: exists,
			resolved: cur.resolved.Child(c.ID), patternPos: cur.patternPos + 1,
		}}, nil

	case path.Cond:
		entries := sortedChildren(cur.node)
		out := make([]frontierEntry, 0, len(entries))
		for _, e := range entries {
			props := childProps(e.node, e.id, true)
			if c.Condition.Matches(props) {
				out = append(out, frontierEntry{
					node: e.node, exists: true,
					resolved: cur.resolved.Child(e.id), patternPos: cur.patternPos + 1,
				})
			}
		}
		reverseFrontier(out)
		return out, nil

	case path.Wildcard:
		entries := sortedChildren(cur.node)
		out := make([]frontierEntry, 0, len(entries))
		for _, e := range entries {
			out = append(out, frontierEntry{
				node: e.node, exists: true,
				resolved: cur.resolved.Child(e.id), patternPos: cur.patternPos + 1,
			})
		}
		reverseFrontier(out)
		return out, nil

	case path.WildcardDeep:
		// (a) match zero additional levels: advance the pattern cursor
		// without moving in the tree.
		out := []frontierEntry{{
			node: cur.node, exists: cur.exists,
			resolved: cur.resolved, patternPos: cur.patternPos + 1,
		}}
		// (b) descend one level without advancing the pattern cursor.
		entries := sortedChildren(cur.node)
		descend := make([]frontierEntry, 0, len(entries))
		for _, e := range entries {
			descend = append(descend, frontierEntry{
				node: e.node, exists: true,
				resolved: cur.resolved.Child(e.id), patternPos: cur.patternPos,
			})
		}
		reverseFrontier(descend)
		// push (a) last so it is popped first: zero-level matches are
		// emitted before deeper descents at the same node, matching the
		// depth-first, shallow-before-deep tie-break.
		return append(descend, out...), nil

	default:
		return nil, &Error{Kind: MismatchingNode, Path: cur.resolved}
	}
}

type childEntry struct {
	id   path.NodeID
	node *tree.Node
}

// sortedChildren returns node's children ordered by canonical identifier
// string, ascending, to keep replicas deterministic.
func sortedChildren(node *tree.Node) []childEntry {
	if node == nil {
		return nil
	}
	out := make([]childEntry, 0, len(node.Children))
	for key, child := range node.Children {
		id, err := path.ParseNodeID(key)
		if err != nil {
			continue
		}
		out = append(out, childEntry{id: id, node: child})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id.String() < out[j].id.String() })
	return out
}

// reverseFrontier reverses in place so that, once pushed onto a stack,
// popping yields the original ascending order (stack DFS is LIFO).
func reverseFrontier(entries []frontierEntry) {
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
}

func lookupChild(cur frontierEntry, id path.NodeID) (*tree.Node, bool) {
	if cur.node == nil {
		return nil, false
	}
	child, ok := cur.node.Children[id.String()]
	return child, ok
}

func childProps(n *tree.Node, id path.NodeID, exists bool) path.NodeProps {
	if !exists || n == nil {
		return path.NodeProps{ID: id, Exists: false}
	}
	return n.Props(id, true)
}

func lastID(p path.Path) path.NodeID {
	if len(p) == 0 {
		return path.NodeID{}
	}
	return p[len(p)-1]
}

// filterProps zeroes fields not named in want, leaving props untouched
// when want is empty (meaning "return everything").
func filterProps(props path.NodeProps, want []string) path.NodeProps {
	if len(want) == 0 {
		return props
	}
	set := make(map[string]bool, len(want))
	for _, w := range want {
		set[w] = true
	}
	// "payload" and "has_payload" are synonyms granting access to the
	// full payload-variant-dependent group (data, has_data, is_sproc).
	payloadGroup := set["payload"] || set["has_payload"]

	out := path.NodeProps{ID: props.ID, Exists: props.Exists}
	if payloadGroup {
		out.HasData = props.HasData
		out.IsSproc = props.IsSproc
		out.HasPayload = props.HasPayload
		out.Data = props.Data
	}
	if set["payload_version"] {
		out.PayloadVersion = props.PayloadVersion
	}
	if set["child_list_version"] {
		out.ChildListVersion = props.ChildListVersion
	}
	if set["child_list_length"] {
		out.ChildListLength = props.ChildListLength
	}
	if set["child_names"] {
		out.ChildNames = props.ChildNames
	}
	return out
}

// ResolveSpecific walks a pattern known (or required) to be specific and
// returns its single match. It is the entry point mutations use to
// resolve put/create/update/compare_and_swap/delete targets before
// touching the tree.
func ResolveSpecific(t *tree.Tree, pattern path.Pattern) (Match, error) {
	if !pattern.Specific() {
		return Match{}, &Error{Kind: NotSpecific}
	}
	matches, err := Walk(t, pattern, Options{ExpectSpecificNode: true, IncludeRootProps: true})
	if err != nil {
		return Match{}, err
	}
	if len(matches) == 0 {
		return Match{}, &Error{Kind: NodeNotFound}
	}
	return matches[0], nil
}
