// Package txn classifies, sandboxes and executes user-supplied transaction
// functions against a tree. Execution itself is delegated to whatever Tx
// implementation the caller provides (a read-only snapshot view or a
// live, in-apply view backed by the state machine); this package owns
// only the mode classification and the panic/abort recovery contract
// every replica must apply identically.
package txn

import (
	"fmt"
	"runtime/debug"

	"github.com/grove-db/grove/lib/path"
	"github.com/grove-db/grove/lib/tree"
)

// Mode selects how a transaction function is evaluated.
type Mode uint8

const (
	// ReadOnly evaluates fn outside consensus against a consistent
	// snapshot; any mutating primitive call aborts with StoreUpdateDenied.
	ReadOnly Mode = iota
	// ReadWrite evaluates fn inside the state machine's apply path so
	// every replica recomputes the identical result.
	ReadWrite
	// Auto defers the ReadOnly/ReadWrite decision to Classify.
	Auto
)

func (m Mode) String() string {
	switch m {
	case ReadOnly:
		return "ReadOnly"
	case ReadWrite:
		return "ReadWrite"
	case Auto:
		return "Auto"
	default:
		return "Unknown"
	}
}

// Tx is the sandboxed handle a transaction function receives. Every
// method operates on the transaction's own view of the tree: a snapshot
// for ReadOnly, the live state for ReadWrite.
type Tx interface {
	Get(pattern path.Pattern) (path.NodeProps, error)
	Exists(pattern path.Pattern) (bool, error)
	Put(pattern path.Pattern, payload tree.Payload) (path.Path, error)
	Create(pattern path.Pattern, payload tree.Payload) (path.Path, error)
	Update(pattern path.Pattern, payload tree.Payload) (path.Path, error)
	CompareAndSwap(pattern path.Pattern, dataMatches path.Condition, payload tree.Payload) (path.Path, error)
	Delete(pattern path.Pattern) error
}

// Func is a user-supplied transaction body: it receives the Tx handle,
// returns any value, and runs every primitive through that Tx.
type Func func(tx Tx) (any, error)

// TxSpec pairs a Func with the mode information needed to classify it.
// Go cannot inspect a func value's body for calls to mutating primitives,
// so Auto mode cannot be resolved by static analysis the way a language
// with introspectable ASTs might resolve it: Declared carries the
// author's own classification, and Mutates is consulted only when
// Declared is Auto (see Classify).
type TxSpec struct {
	Fn       Func
	Declared Mode
	Mutates  bool
}

// ErrUnanalyzable carries the UnanalyzableTxFun error kind. Classify does
// not return it: an Auto spec always resolves to ReadWrite or ReadOnly
// from its Mutates flag.
var ErrUnanalyzable = fmt.Errorf("txn: %s", "UnanalyzableTxFun")

// Classify resolves a TxSpec to a concrete Mode. For Auto, it trusts the
// caller-declared Mutates flag: true resolves to ReadWrite, false to
// ReadOnly. This stands in for real call-graph analysis, which would
// require inspecting the transaction function's body rather than just
// its declared intent.
func Classify(spec TxSpec) Mode {
	switch spec.Declared {
	case ReadOnly, ReadWrite:
		return spec.Declared
	default:
		if spec.Mutates {
			return ReadWrite
		}
		return ReadOnly
	}
}

// AbortReason names why a transaction aborted without raising.
type AbortReason string

const (
	AbortStoreUpdateDenied AbortReason = "StoreUpdateDenied"
	AbortUnanalyzableTxFun AbortReason = "UnanalyzableTxFun"
)

// AbortError wraps an explicit transaction abort.
type AbortError struct{ Reason AbortReason }

func (e *AbortError) Error() string { return "transaction aborted: " + string(e.Reason) }

// Exception carries a recovered panic out of a transaction function,
// preserving its kind and value the way the design requires.
type Exception struct {
	Kind  string
	Value any
	Trace string
}

func (e *Exception) Error() string {
	return fmt.Sprintf("transaction exception (%s): %v", e.Kind, e.Value)
}

// Execute runs fn against tx, converting any panic into an *Exception
// instead of letting it escape into the state machine's apply path
// (which, for ReadWrite transactions, is shared by every replica and
// must never crash).
func Execute(tx Tx, fn Func) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &Exception{Kind: exceptionKind(r), Value: r, Trace: string(debug.Stack())}
		}
	}()
	return fn(tx)
}

func exceptionKind(r any) string {
	switch r.(type) {
	case error:
		return "error"
	case string:
		return "string"
	default:
		return fmt.Sprintf("%T", r)
	}
}
