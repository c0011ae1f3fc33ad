package txn

import (
	"github.com/grove-db/grove/lib/path"
	"github.com/grove-db/grove/lib/tree"
	"github.com/grove-db/grove/lib/walker"
)

// ReadOnlyTx implements Tx against a fixed tree snapshot. Every mutating
// method aborts immediately with StoreUpdateDenied; the tree itself is
// never touched.
type ReadOnlyTx struct {
	Snapshot *tree.Tree
}

func (t *ReadOnlyTx) Get(pattern path.Pattern) (path.NodeProps, error) {
	match, err := walker.ResolveSpecific(t.Snapshot, pattern)
	if err != nil {
		return path.NodeProps{}, err
	}
	return match.Props, nil
}

func (t *ReadOnlyTx) Exists(pattern path.Pattern) (bool, error) {
	props, err := t.Get(pattern)
	if werr, ok := err.(*walker.Error); ok && werr.Kind == walker.NodeNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return props.Exists, nil
}

func (t *ReadOnlyTx) Put(path.Pattern, tree.Payload) (path.Path, error) {
	return nil, &AbortError{Reason: AbortStoreUpdateDenied}
}

func (t *ReadOnlyTx) Create(path.Pattern, tree.Payload) (path.Path, error) {
	return nil, &AbortError{Reason: AbortStoreUpdateDenied}
}

func (t *ReadOnlyTx) Update(path.Pattern, tree.Payload) (path.Path, error) {
	return nil, &AbortError{Reason: AbortStoreUpdateDenied}
}

func (t *ReadOnlyTx) CompareAndSwap(path.Pattern, path.Condition, tree.Payload) (path.Path, error) {
	return nil, &AbortError{Reason: AbortStoreUpdateDenied}
}

func (t *ReadOnlyTx) Delete(path.Pattern) error {
	return &AbortError{Reason: AbortStoreUpdateDenied}
}
