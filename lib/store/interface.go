package store

import (
	"fmt"
	"time"

	"github.com/grove-db/grove/lib/db"
	"github.com/grove-db/grove/lib/dispatch"
	"github.com/grove-db/grove/lib/path"
	"github.com/grove-db/grove/lib/tree"
	"github.com/grove-db/grove/lib/txn"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// DBFactory is a function type that creates a new TreeDB used by the store.
// This abstracts the choice of engine away from the store implementation.
type DBFactory func() db.TreeDB

// ITreeStore is the generic interface for interacting with a replicated
// tree store. All operations return a *Error (nil on success) alongside
// any requested data.
type ITreeStore interface {
	// Put installs payload at the node pattern resolves to, creating the
	// node (and any missing parents) if necessary.
	Put(pattern path.Pattern, payload tree.Payload, opts ...Option) (path.Path, error)
	// PutMany applies a batch of (pattern, payload, keep_while) items as a
	// single command, aborting the whole batch at the first item that
	// doesn't resolve to a literal path. It returns the resolved
	// properties of every applied item, keyed by its literal path string.
	PutMany(items []PutManyItem, opts ...Option) (map[string]path.NodeProps, error)
	// Create installs payload at pattern, failing if a node already exists there.
	Create(pattern path.Pattern, payload tree.Payload, opts ...Option) (path.Path, error)
	// Update replaces the payload at an existing node, failing if it doesn't exist.
	Update(pattern path.Pattern, payload tree.Payload, opts ...Option) (path.Path, error)
	// CompareAndSwap replaces the payload at pattern only if dataMatches
	// accepts the node's current properties.
	CompareAndSwap(pattern path.Pattern, dataMatches path.Condition, payload tree.Payload, opts ...Option) (path.Path, error)
	// Delete removes the node pattern resolves to and cascades through
	// every keep-while watcher whose condition fails as a result.
	Delete(pattern path.Pattern, opts ...Option) error
	// DeleteMany removes every node matched by a (possibly wildcarded) pattern.
	DeleteMany(pattern path.Pattern, opts ...Option) (int, error)
	// DeletePayload resets a node's payload to None without removing the node.
	DeletePayload(pattern path.Pattern, opts ...Option) (path.Path, error)

	// Get returns the properties of the single node pattern resolves to.
	Get(pattern path.Pattern, opts ...Option) (path.NodeProps, error)
	// Exists reports whether pattern resolves to an existing node.
	Exists(pattern path.Pattern, opts ...Option) (bool, error)
	// HasData reports whether the node pattern resolves to carries a
	// Data payload, composed over Get the way Exists is composed over the
	// exists query.
	HasData(pattern path.Pattern, opts ...Option) (bool, error)
	// IsSproc reports whether the node pattern resolves to carries a
	// stored-procedure payload.
	IsSproc(pattern path.Pattern, opts ...Option) (bool, error)
	// Count returns the number of nodes matching pattern.
	Count(pattern path.Pattern, opts ...Option) (int, error)
	// GetOr returns the data at the node pattern resolves to, substituting
	// def when the node doesn't exist or carries no payload.
	GetOr(pattern path.Pattern, def any, opts ...Option) (any, error)

	// RegisterTrigger installs a trigger firing on every change matching filter.
	RegisterTrigger(triggerID string, pattern path.Pattern, filter dispatch.EventFilter, sprocPath path.Path, priority int) error
	// RegisterProjection installs a named projection view over pattern.
	RegisterProjection(name string, pattern path.Pattern, spec dispatch.ProjectSpec, opts dispatch.RegisterOptions) error
	// RunTransaction executes an ad-hoc transaction body against the store.
	// The inline Fn it carries is a Go closure: only a local store can run
	// it, since it cannot cross a replicated log (see RunStoredProc).
	RunTransaction(spec txn.TxSpec) (any, error)
	// RunStoredProc executes a previously registered stored procedure by
	// path, the wire-safe equivalent of RunTransaction a distributed store
	// supports.
	RunStoredProc(sprocPath path.Path) (any, error)

	// GetDBInfo returns metadata about the database underlying the store.
	// Not all fields are guaranteed to be populated or up-to-date.
	GetDBInfo() (db.DatabaseInfo, error)
}

// PutManyItem is one entry of a PutMany batch.
type PutManyItem struct {
	Pattern   path.Pattern
	Payload   tree.Payload
	KeepWhile []db.KeepWhileSpec
}

// ToDBItems translates a PutMany call's items into the db.PutManyItem
// form a Command carries, for use by ITreeStore implementations.
func ToDBItems(items []PutManyItem) []db.PutManyItem {
	out := make([]db.PutManyItem, len(items))
	for i, it := range items {
		out[i] = db.PutManyItem{Pattern: it.Pattern, Payload: it.Payload, KeepWhile: it.KeepWhile}
	}
	return out
}

// Option configures a single store call. Stores that have no use for an
// option (e.g. a local store ignoring Favor) are free to ignore it.
type Option func(*db.Options)

// WithTimeout bounds how long a call may block before returning ErrTimeout.
func WithTimeout(d time.Duration) Option {
	return func(o *db.Options) { o.Timeout = d }
}

// WithAsync sets Options.Async on a write. No store or engine reads it:
// the call still blocks until the command is applied. Trigger/projection
// dispatch never delays a call, with or without this option, since the
// engine dispatches change events from its own queue.
func WithAsync() Option {
	return func(o *db.Options) { o.Async = true }
}

// WithFavor selects a consistency/latency tradeoff for a distributed store.
func WithFavor(f db.FavorMode) Option {
	return func(o *db.Options) { o.Favor = f }
}

// WithKeepWhile attaches lifetime edges to a Put/Create command.
func WithKeepWhile(specs ...db.KeepWhileSpec) Option {
	return func(o *db.Options) { o.KeepWhile = append(o.KeepWhile, specs...) }
}

// ApplyOptions folds a list of Option values into a db.Options, for use by
// store implementations translating a call's opts into a db.Command/Query.
func ApplyOptions(opts []Option) db.Options {
	var o db.Options
	for _, apply := range opts {
		apply(&o)
	}
	return o
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error carries a return code (of type RetCode) together with the message
// and Info map of the canonical *db.Error it was translated from, so
// callers that only understand RetCode and callers that want the Info
// detail are both served.
type Error struct {
	Code RetCode
	Msg  string
	Info map[string]any
}

func (e *Error) Error() string {
	return fmt.Sprintf("TreeStoreError (code %s): %s", e.Code, e.Msg)
}

// NewError creates a new Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// TranslateDBError translates the canonical db.Error taxonomy into the
// wire-friendly RetCode a store client can switch on without importing
// lib/db itself. Implementations of ITreeStore (lstore, dstore) call this
// at the boundary where a TreeDB/state machine error becomes a store error.
func TranslateDBError(err error) error {
	if err == nil {
		return nil
	}
	dberr, ok := err.(*db.Error)
	if !ok {
		return NewError(RetCInternalError, err.Error())
	}
	return &Error{Code: retCodeFor(dberr.Kind), Msg: dberr.Error(), Info: dberr.Info}
}

// IsNodeNotFound reports whether err is an *Error carrying RetCNodeNotFound,
// the condition GetOr substitutes its default for.
func IsNodeNotFound(err error) bool {
	serr, ok := err.(*Error)
	return ok && serr.Code == RetCNodeNotFound
}

func retCodeFor(kind db.ErrorKind) RetCode {
	switch kind {
	case db.ErrNodeNotFound:
		return RetCNodeNotFound
	case db.ErrMismatchingNode:
		return RetCMismatchingNode
	case db.ErrNotSpecific:
		return RetCNotSpecific
	case db.ErrDeniedUpdate, db.ErrStoreUpdateDenied:
		return RetCDeniedUpdate
	case db.ErrUnanalyzableTxFun, db.ErrFunctionClause:
		return RetCInvalidOperation
	case db.ErrExists:
		return RetCExists
	case db.ErrTimeout:
		return RetCTimeout
	case db.ErrUnexpectedOption:
		return RetCInvalidOperation
	case db.ErrNotLeader:
		return RetCNotLeader
	case db.ErrNoQuorum:
		return RetCNoQuorum
	case db.ErrUnsupportedFeature:
		return RetCUnsupportedOperation
	default:
		return RetCInternalError
	}
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess              RetCode = iota // Command executed successfully.
	RetCInternalError                       // Command failed due to an internal error.
	RetCUnsupportedOperation                // Operation is not supported by the underlying database.
	RetCInvalidOperation                    // Invalid operation or option.
	RetCNodeNotFound                        // Targeted node does not exist.
	RetCMismatchingNode                      // Node exists but fails the required condition.
	RetCNotSpecific                         // Pattern does not resolve to a single node.
	RetCDeniedUpdate                        // Update denied by walker/store policy.
	RetCExists                              // Node already exists (Create on an occupied path).
	RetCTimeout                             // Operation exceeded its deadline.
	RetCNotLeader                           // Node is not the current leader.
	RetCNoQuorum                            // Not enough replicas available to reach quorum.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCUnsupportedOperation:
		return "UnsupportedOperation"
	case RetCInvalidOperation:
		return "InvalidOperation"
	case RetCNodeNotFound:
		return "NodeNotFound"
	case RetCMismatchingNode:
		return "MismatchingNode"
	case RetCNotSpecific:
		return "NotSpecific"
	case RetCDeniedUpdate:
		return "DeniedUpdate"
	case RetCExists:
		return "Exists"
	case RetCTimeout:
		return "Timeout"
	case RetCNotLeader:
		return "NotLeader"
	case RetCNoQuorum:
		return "NoQuorum"
	default:
		return "Unknown"
	}
}
