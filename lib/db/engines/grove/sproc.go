package grove

import (
	"sync"

	"github.com/grove-db/grove/lib/txn"
)

// SprocFunc is a stored procedure body invoked either by a firing trigger
// or by a RunTransaction command that names it instead of shipping an
// inline closure. args carries the event schema (path, on_action,
// old_props, new_props) for trigger invocations, and is nil otherwise.
type SprocFunc func(tx txn.Tx, args map[string]any) (any, error)

// SprocRegistry maps the process-local names a tree.Payload's SprocRef
// carries to their actual Go implementation. It is populated by the
// embedding application at startup (registering the same names on every
// replica) rather than reconstructed from a snapshot, since a func value
// cannot round-trip through gob.
type SprocRegistry struct {
	mu    sync.RWMutex
	procs map[string]SprocFunc
}

func NewSprocRegistry() *SprocRegistry {
	return &SprocRegistry{procs: make(map[string]SprocFunc)}
}

// Register installs fn under name, overwriting any prior registration.
func (r *SprocRegistry) Register(name string, fn SprocFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.procs[name] = fn
}

// Get resolves a registered stored procedure by name.
func (r *SprocRegistry) Get(name string) (SprocFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.procs[name]
	return fn, ok
}
