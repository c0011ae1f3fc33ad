package grove

import (
	"github.com/grove-db/grove/lib/path"
	"github.com/grove-db/grove/lib/tree"
	"github.com/grove-db/grove/lib/walker"
)

// readWriteTx implements txn.Tx against an engine's live state. Every
// method goes through the same core mutation helpers Apply uses, so a
// ReadWrite transaction body and a plain command produce identical
// change events and keep-while cascades.
type readWriteTx struct {
	engine *Engine
}

func (t *readWriteTx) Get(pattern path.Pattern) (path.NodeProps, error) {
	match, err := walker.ResolveSpecific(t.engine.tree, pattern)
	if err != nil {
		return path.NodeProps{}, mapWalkErr(err)
	}
	return match.Props, nil
}

func (t *readWriteTx) Exists(pattern path.Pattern) (bool, error) {
	match, err := walker.ResolveSpecific(t.engine.tree, pattern)
	if werr, ok := err.(*walker.Error); ok && werr.Kind == walker.NodeNotFound {
		return false, nil
	}
	if err != nil {
		return false, mapWalkErr(err)
	}
	return match.Props.Exists, nil
}

func (t *readWriteTx) Put(pattern path.Pattern, payload tree.Payload) (path.Path, error) {
	p, err := resolveLiteral(pattern)
	if err != nil {
		return nil, err
	}
	if _, err := t.engine.put(p, payload, nil); err != nil {
		return nil, err
	}
	return p, nil
}

func (t *readWriteTx) Create(pattern path.Pattern, payload tree.Payload) (path.Path, error) {
	p, err := resolveLiteral(pattern)
	if err != nil {
		return nil, err
	}
	if _, err := t.engine.create(p, payload, nil); err != nil {
		return nil, err
	}
	return p, nil
}

func (t *readWriteTx) Update(pattern path.Pattern, payload tree.Payload) (path.Path, error) {
	p, err := resolveLiteral(pattern)
	if err != nil {
		return nil, err
	}
	if _, err := t.engine.update(p, payload); err != nil {
		return nil, err
	}
	return p, nil
}

func (t *readWriteTx) CompareAndSwap(pattern path.Pattern, dataMatches path.Condition, payload tree.Payload) (path.Path, error) {
	p, err := resolveLiteral(pattern)
	if err != nil {
		return nil, err
	}
	if _, err := t.engine.compareAndSwap(p, dataMatches, payload); err != nil {
		return nil, err
	}
	return p, nil
}

func (t *readWriteTx) Delete(pattern path.Pattern) error {
	p, err := resolveLiteral(pattern)
	if err != nil {
		return err
	}
	return t.engine.delete(p)
}
