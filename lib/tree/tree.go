package tree

import (
	"sync"

	"github.com/grove-db/grove/lib/path"
)

// Tree is the mutable ownership tree described by the data model: a single
// root Node reachable by nested Children maps, guarded by a single RWMutex
// (there is exactly one lock because the tree cannot be partitioned without
// breaking parent/child atomicity, unlike a flat sharded key space).
type Tree struct {
	mu   sync.RWMutex
	root *Node
}

func New() *Tree {
	return &Tree{root: NewNode()}
}

// walkTo descends from the root following p, returning the sequence of
// nodes visited (index 0 is the root) and whether the full path resolved.
func (t *Tree) walkTo(p path.Path) (nodes []*Node, ok bool) {
	cur := t.root
	nodes = make([]*Node, 0, len(p)+1)
	nodes = append(nodes, cur)
	for _, id := range p {
		child, exists := cur.Children[childKey(id)]
		if !exists {
			return nodes, false
		}
		nodes = append(nodes, child)
		cur = child
	}
	return nodes, true
}

// Get returns the node at p and whether it exists. p == nil (root) always
// exists.
func (t *Tree) Get(p path.Path) (*Node, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	nodes, ok := t.walkTo(p)
	if !ok {
		return nil, false
	}
	return nodes[len(nodes)-1], true
}

// Insert ensures a node exists at p, creating missing intermediates with
// None payload when createMissingParents is true (matching the Tree
// contract in the design). It returns the resolved node and whether it was
// newly created at this call (as opposed to already existing).
func (t *Tree) Insert(p path.Path, createMissingParents bool) (*Node, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur := t.root
	created := false
	for i, id := range p {
		key := childKey(id)
		child, exists := cur.Children[key]
		if !exists {
			if !createMissingParents && i < len(p)-1 {
				return nil, false, errMissingParent(p)
			}
			child = NewNode()
			cur.Children[key] = child
			cur.ChildListVersion++
			if i == len(p)-1 {
				created = true
			}
		}
		cur = child
	}
	return cur, created, nil
}

// SetPayload replaces the payload at p, bumping payload_version
// unconditionally (puts are unconditionally versioning per invariant 3).
func (t *Tree) SetPayload(p path.Path, payload Payload) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	nodes, ok := t.walkTo(p)
	if !ok {
		return errNotFound(p)
	}
	n := nodes[len(nodes)-1]
	n.Payload = payload
	n.PayloadVersion++
	return nil
}

// Remove deletes the node at p (and its whole subtree) from its parent's
// child map, bumping the parent's child_list_version. Removing the root is
// rejected: the root has no parent to detach from.
func (t *Tree) Remove(p path.Path) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p.IsRoot() {
		return errRemoveRoot
	}
	parentPath, _ := p.Parent()
	nodes, ok := t.walkTo(parentPath)
	if !ok {
		return errNotFound(p)
	}
	parent := nodes[len(nodes)-1]
	key := childKey(p[len(p)-1])
	if _, exists := parent.Children[key]; !exists {
		return errNotFound(p)
	}
	delete(parent.Children, key)
	parent.ChildListVersion++
	return nil
}

// Children returns a snapshot slice of (identifier, node) pairs at p, in
// identifier-lexicographic order so callers get deterministic iteration
// without depending on Go's randomized map order.
func (t *Tree) Children(p path.Path) ([]ChildEntry, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	nodes, ok := t.walkTo(p)
	if !ok {
		return nil, errNotFound(p)
	}
	n := nodes[len(nodes)-1]
	out := make([]ChildEntry, 0, len(n.Children))
	for key, child := range n.Children {
		id, err := path.ParseNodeID(key)
		if err != nil {
			continue
		}
		out = append(out, ChildEntry{ID: id, Node: child})
	}
	sortChildEntries(out)
	return out, nil
}

// ChildEntry pairs a child identifier with its node for ordered iteration.
type ChildEntry struct {
	ID   path.NodeID
	Node *Node
}

func sortChildEntries(entries []ChildEntry) {
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j].ID.String() < entries[j-1].ID.String(); j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
}

// Root returns the tree's root node, for snapshot serialization.
func (t *Tree) Root() *Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.root
}

// SetRoot replaces the tree's root node wholesale, used only to restore a
// tree from a snapshot.
func (t *Tree) SetRoot(n *Node) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.root = n
}

// Props returns the derived, matchable view of the node at p.
func (t *Tree) Props(p path.Path) path.NodeProps {
	t.mu.RLock()
	defer t.mu.RUnlock()
	nodes, ok := t.walkTo(p)
	if !ok {
		return path.NodeProps{Exists: false}
	}
	n := nodes[len(nodes)-1]
	var id path.NodeID
	if len(p) > 0 {
		id = p[len(p)-1]
	}
	return n.Props(id, true)
}

type errNotFoundPath path.Path

func (e errNotFoundPath) Error() string { return "tree: node not found: " + path.Path(e).String() }
func errNotFound(p path.Path) error     { return errNotFoundPath(p) }

type errMissingParentPath path.Path

func (e errMissingParentPath) Error() string {
	return "tree: missing parent for: " + path.Path(e).String()
}
func errMissingParent(p path.Path) error { return errMissingParentPath(p) }

type errRemoveRootErr struct{}

func (errRemoveRootErr) Error() string { return "tree: cannot remove root" }

var errRemoveRoot = errRemoveRootErr{}
