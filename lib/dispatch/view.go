package dispatch

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// View is a projection's process-local materialized table. Set views
// hold one value per key; bag views hold a set of values per key, the
// shape S3's symmetric-difference extended projection needs.
//
// It uses a concurrent map (xsync.MapOf) because many trigger/projection
// dispatches can run concurrently across commands' side effects while
// queries read the view without blocking them.
type View struct {
	kind ViewType
	set  *xsync.MapOf[string, any]
	bag  *xsync.MapOf[string, *xsync.MapOf[any, struct{}]]
}

func newView(kind ViewType) *View {
	v := &View{kind: kind}
	if kind == ViewBag {
		v.bag = xsync.NewMapOf[string, *xsync.MapOf[any, struct{}]]()
	} else {
		v.set = xsync.NewMapOf[string, any]()
	}
	return v
}

// Put writes key->value in a set view. Simple projections only ever call
// this (and Delete); extended projections may call it too when they want
// set semantics.
func (v *View) Put(key string, value any) {
	if v.set != nil {
		v.set.Store(key, value)
	}
}

// Delete removes key from a set view, or clears all of key's values from
// a bag view.
func (v *View) Delete(key string) {
	if v.set != nil {
		v.set.Delete(key)
	}
	if v.bag != nil {
		v.bag.Delete(key)
	}
}

// Add inserts value into key's set of values in a bag view.
func (v *View) Add(key string, value any) {
	if v.bag == nil {
		return
	}
	values, _ := v.bag.LoadOrCompute(key, func() *xsync.MapOf[any, struct{}] {
		return xsync.NewMapOf[any, struct{}]()
	})
	values.Store(value, struct{}{})
}

// RemoveValue drops one value from key's set in a bag view.
func (v *View) RemoveValue(key string, value any) {
	if v.bag == nil {
		return
	}
	if values, ok := v.bag.Load(key); ok {
		values.Delete(value)
	}
}

// Get returns a set view's value for key.
func (v *View) Get(key string) (any, bool) {
	if v.set == nil {
		return nil, false
	}
	return v.set.Load(key)
}

// Values returns a bag view's current set of values for key.
func (v *View) Values(key string) []any {
	if v.bag == nil {
		return nil
	}
	values, ok := v.bag.Load(key)
	if !ok {
		return nil
	}
	out := make([]any, 0, values.Size())
	values.Range(func(val any, _ struct{}) bool {
		out = append(out, val)
		return true
	})
	return out
}

// Len reports the number of keys currently populated.
func (v *View) Len() int {
	if v.set != nil {
		return v.set.Size()
	}
	if v.bag != nil {
		return v.bag.Size()
	}
	return 0
}
