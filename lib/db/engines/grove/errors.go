package grove

import (
	"github.com/grove-db/grove/lib/db"
	"github.com/grove-db/grove/lib/walker"
)

// mapWalkErr translates a lib/walker error into the canonical db.Error
// taxonomy, the boundary where the tree-internal error vocabulary becomes
// the one callers of TreeDB see.
func mapWalkErr(err error) error {
	werr, ok := err.(*walker.Error)
	if !ok {
		return db.NewError(db.ErrInternal, map[string]any{"error": err.Error()})
	}
	info := map[string]any{}
	if werr.Path != nil {
		info["path"] = werr.Path.String()
	}
	switch werr.Kind {
	case walker.NodeNotFound:
		return db.NewError(db.ErrNodeNotFound, info)
	case walker.MismatchingNode:
		return db.NewError(db.ErrMismatchingNode, info)
	case walker.NotSpecific:
		return db.NewError(db.ErrNotSpecific, info)
	case walker.DeniedUpdate:
		return db.NewError(db.ErrDeniedUpdate, info)
	default:
		return db.NewError(db.ErrInternal, info)
	}
}
