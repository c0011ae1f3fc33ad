package grove

import (
	"github.com/grove-db/grove/lib/db"
	"github.com/grove-db/grove/lib/dispatch"
	"github.com/grove-db/grove/lib/keepwhile"
	"github.com/grove-db/grove/lib/path"
	"github.com/grove-db/grove/lib/tree"
	"github.com/grove-db/grove/lib/walker"
)

// resolveLiteral resolves a pattern that must denote exactly one path
// (Put/Create/Update/CompareAndSwap/Delete/DeletePayload all target a
// single node identified by literal identifiers, not a search pattern).
func resolveLiteral(pattern path.Pattern) (path.Path, error) {
	p, ok := path.LiteralPath(pattern)
	if !ok {
		return nil, db.NewError(db.ErrNotSpecific, map[string]any{"pattern": pattern.String()})
	}
	return p, nil
}

func toEdges(specs []db.KeepWhileSpec) []keepwhile.Edge {
	edges := make([]keepwhile.Edge, len(specs))
	for i, s := range specs {
		edges[i] = keepwhile.Edge{Watched: s.Watched, Cond: s.Cond}
	}
	return edges
}

// put installs payload at p, creating the node (and any missing parents)
// if necessary. Whether the node was created or already existed is
// reported by the Action of the change event it emits.
func (e *Engine) put(p path.Path, payload tree.Payload, keepWhile []db.KeepWhileSpec) (path.NodeProps, error) {
	before := e.tree.Props(p)
	if _, _, err := e.tree.Insert(p, true); err != nil {
		return path.NodeProps{}, db.NewError(db.ErrInternal, map[string]any{"error": err.Error()})
	}
	if err := e.tree.SetPayload(p, payload); err != nil {
		return path.NodeProps{}, db.NewError(db.ErrInternal, map[string]any{"error": err.Error()})
	}
	if len(keepWhile) > 0 {
		e.graph.Set(p, toEdges(keepWhile))
	}
	after := e.tree.Props(p)
	action := dispatch.ActionCreate
	if before.Exists {
		action = dispatch.ActionUpdate
	}
	e.emitAndCascade(p, action, before, after)
	return after, nil
}

// putMany applies every item of a batch as a sequence of puts against the
// same tree state, aborting on the first item whose pattern doesn't
// resolve to a literal path. It is deterministic: replaying the same
// batch against the same prior state always aborts (or succeeds) at the
// same item.
func (e *Engine) putMany(items []db.PutManyItem) (map[string]path.NodeProps, error) {
	out := make(map[string]path.NodeProps, len(items))
	for _, item := range items {
		p, err := resolveLiteral(item.Pattern)
		if err != nil {
			return nil, err
		}
		props, err := e.put(p, item.Payload, item.KeepWhile)
		if err != nil {
			return nil, err
		}
		out[p.String()] = props
	}
	return out, nil
}

// create installs payload at p, failing with ErrExists if a node is
// already there.
func (e *Engine) create(p path.Path, payload tree.Payload, keepWhile []db.KeepWhileSpec) (path.NodeProps, error) {
	if e.tree.Props(p).Exists {
		return path.NodeProps{}, db.NewError(db.ErrExists, map[string]any{"path": p.String()})
	}
	return e.put(p, payload, keepWhile)
}

// update replaces the payload at an existing node, failing with
// ErrNodeNotFound if it doesn't exist.
func (e *Engine) update(p path.Path, payload tree.Payload) (path.NodeProps, error) {
	before := e.tree.Props(p)
	if !before.Exists {
		return path.NodeProps{}, db.NewError(db.ErrNodeNotFound, map[string]any{"path": p.String()})
	}
	if err := e.tree.SetPayload(p, payload); err != nil {
		return path.NodeProps{}, db.NewError(db.ErrInternal, map[string]any{"error": err.Error()})
	}
	after := e.tree.Props(p)
	e.emitAndCascade(p, dispatch.ActionUpdate, before, after)
	return after, nil
}

// compareAndSwap replaces the payload at p only if dataMatches accepts
// the node's current properties.
func (e *Engine) compareAndSwap(p path.Path, dataMatches path.Condition, payload tree.Payload) (path.NodeProps, error) {
	before := e.tree.Props(p)
	if !before.Exists {
		return path.NodeProps{}, db.NewError(db.ErrNodeNotFound, map[string]any{"path": p.String()})
	}
	if dataMatches != nil && !dataMatches.Matches(before) {
		return path.NodeProps{}, db.NewError(db.ErrMismatchingNode, map[string]any{"path": p.String()})
	}
	if err := e.tree.SetPayload(p, payload); err != nil {
		return path.NodeProps{}, db.NewError(db.ErrInternal, map[string]any{"error": err.Error()})
	}
	after := e.tree.Props(p)
	e.emitAndCascade(p, dispatch.ActionUpdate, before, after)
	return after, nil
}

// deletePayload resets the node's payload to None without removing the
// node or its children.
func (e *Engine) deletePayload(p path.Path) (path.NodeProps, error) {
	before := e.tree.Props(p)
	if !before.Exists {
		return path.NodeProps{}, db.NewError(db.ErrNodeNotFound, map[string]any{"path": p.String()})
	}
	if err := e.tree.SetPayload(p, tree.NonePayload()); err != nil {
		return path.NodeProps{}, db.NewError(db.ErrInternal, map[string]any{"error": err.Error()})
	}
	after := e.tree.Props(p)
	e.emitAndCascade(p, dispatch.ActionUpdate, before, after)
	return after, nil
}

// delete removes the node at p and cascades through every keep-while
// watcher whose condition no longer holds as a result.
func (e *Engine) delete(p path.Path) error {
	if p.IsRoot() {
		return db.NewError(db.ErrDeniedUpdate, map[string]any{"reason": "cannot delete root"})
	}
	before := e.tree.Props(p)
	if !before.Exists {
		return db.NewError(db.ErrNodeNotFound, map[string]any{"path": p.String()})
	}
	if err := e.tree.Remove(p); err != nil {
		return db.NewError(db.ErrInternal, map[string]any{"error": err.Error()})
	}
	e.graph.Remove(p)
	e.pushEvent(dispatch.ChangeEvent{Path: p, Action: dispatch.ActionDelete, OldProps: &before})
	e.cascade([]path.Path{p})
	return nil
}

// deleteMany removes every existing node matched by pattern (which may
// contain wildcards, unlike the other mutating operations).
func (e *Engine) deleteMany(pattern path.Pattern) (int, error) {
	matches, err := walker.Walk(e.tree, pattern, walker.Options{})
	if err != nil {
		return 0, mapWalkErr(err)
	}
	count := 0
	for _, m := range matches {
		if !m.Props.Exists {
			continue
		}
		if err := e.delete(m.Path); err == nil {
			count++
		}
	}
	return count, nil
}

// emitAndCascade records the change event for a direct mutation at p and
// re-evaluates every keep-while watcher that might depend on it.
func (e *Engine) emitAndCascade(p path.Path, action dispatch.Action, before, after path.NodeProps) {
	ev := dispatch.ChangeEvent{Path: p, Action: action, NewProps: &after}
	if action == dispatch.ActionUpdate {
		ev.OldProps = &before
	}
	e.pushEvent(ev)
	e.cascade([]path.Path{p})
}

// cascade re-evaluates keep-while watchers transitively reachable from
// changed, removing each one whose condition now fails. Each round
// actually applies the tree removal before recomputing so the next
// round's lookups reflect reality, which is what lets a chain of
// watchers-of-watchers collapse correctly in a single call.
func (e *Engine) cascade(changed []path.Path) []path.Path {
	var removed []path.Path
	lookup := func(p path.Path) path.NodeProps { return e.tree.Props(p) }
	for {
		affected := e.graph.AffectedBy(changed, lookup)
		if len(affected) == 0 {
			break
		}
		for _, w := range affected {
			wProps := e.tree.Props(w)
			_ = e.tree.Remove(w)
			e.graph.Remove(w)
			e.pushEvent(dispatch.ChangeEvent{Path: w, Action: dispatch.ActionDelete, OldProps: &wProps})
		}
		removed = append(removed, affected...)
		changed = affected
	}
	return removed
}

func (e *Engine) pushEvent(ev dispatch.ChangeEvent) {
	e.events.Push(&ev)
}
