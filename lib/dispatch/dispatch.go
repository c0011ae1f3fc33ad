// Package dispatch matches change events emitted by the state machine
// against registered triggers and projections and drives their effects:
// invoking a stored procedure on the leader for triggers, writing into a
// process-local view table for projections.
package dispatch

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/lni/dragonboat/v4/logger"

	"github.com/grove-db/grove/lib/path"
	"github.com/grove-db/grove/lib/tree"
)

var log = logger.GetLogger("dispatch")

// Action is the kind of change a ChangeEvent reports.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ChangeEvent is the wire schema described for triggers and projections.
// Either OldProps or NewProps is nil on create/delete respectively.
type ChangeEvent struct {
	Path     path.Path
	Action   Action
	OldProps *path.NodeProps
	NewProps *path.NodeProps
}

// EventFilter selects which change events a trigger fires on.
type EventFilter struct {
	Pattern path.Pattern
	Actions map[Action]bool
}

func (f EventFilter) matches(ev ChangeEvent) bool {
	if !f.Actions[ev.Action] {
		return false
	}
	props := ev.NewProps
	if props == nil {
		props = ev.OldProps
	}
	var leaf path.NodeProps
	if props != nil {
		leaf = *props
	}
	return path.MatchPath(f.Pattern, ev.Path, leaf)
}

// SprocInvoker executes a stored procedure by path, passing the argument
// map the design specifies ({path, on_action, ...}). It is supplied by
// the engine, which owns the stored-procedure registry and knows whether
// this replica is the current leader.
type SprocInvoker func(sprocPath path.Path, args map[string]any) error

// TriggerReg is one registered trigger.
type TriggerReg struct {
	ID             string
	Filter         EventFilter
	StoredProcPath path.Path
	Priority       int
	seq            uint64 // registration order, used as the priority tie-break
}

// ViewType selects the shape of view a projection writes into.
type ViewType int

const (
	ViewSet ViewType = iota
	ViewBag
)

func (t ViewType) String() string {
	if t == ViewBag {
		return "bag"
	}
	return "set"
}

// RegisterOptions are the only recognized projection options; anything
// else must be rejected explicitly rather than silently ignored.
type RegisterOptions struct {
	Type             ViewType
	ReadConcurrency  int
	WriteConcurrency int
}

// SimpleProjectFunc is the arity-2 projection shape: (path, new payload)
// -> (key, value), applied on create/update; delete removes the key. A
// false ok return means "skip this event" (used for FunctionClause-style
// mismatches, see error isolation).
type SimpleProjectFunc func(p path.Path, newPayload tree.Payload) (key string, value any, ok bool)

// ExtendedProjectFunc is the arity-4 shape: the function itself mutates
// view.
type ExtendedProjectFunc func(view *View, p path.Path, oldProps, newProps *path.NodeProps)

// ProjectSpec holds exactly one of Simple or Extended.
type ProjectSpec struct {
	Simple   SimpleProjectFunc
	Extended ExtendedProjectFunc
}

// ProjectionReg is one registered projection and its live view table.
type ProjectionReg struct {
	Name    string
	Pattern path.Pattern
	Spec    ProjectSpec
	Options RegisterOptions
	View    *View
}

// UnexpectedOptionError reports a rejected registration option, per the
// error taxonomy's UnexpectedOption kind.
type UnexpectedOptionError struct {
	Option string
	Value  any
}

func (e *UnexpectedOptionError) Error() string {
	return fmt.Sprintf("UnexpectedOption{%s, %v}", e.Option, e.Value)
}

// ExistsError reports a duplicate trigger or projection registration.
type ExistsError struct{ Name string }

func (e *ExistsError) Error() string { return fmt.Sprintf("Exists{%s}", e.Name) }

// Dispatcher owns the trigger and projection registries and drives them
// from a stream of committed change events. It is not itself replicated:
// only the decision of *which* events to dispatch is derived
// deterministically from state machine output; the dispatch side effects
// (sproc invocation, view mutation) are node-local.
type Dispatcher struct {
	mu          sync.Mutex
	triggers    map[string]*TriggerReg
	triggerSeq  atomic.Uint64
	projections map[string]*ProjectionReg
	invoke      SprocInvoker
}

func New(invoke SprocInvoker) *Dispatcher {
	return &Dispatcher{
		triggers:    make(map[string]*TriggerReg),
		projections: make(map[string]*ProjectionReg),
		invoke:      invoke,
	}
}

// RegisterTrigger adds a trigger, failing with *ExistsError if id is
// already registered.
func (d *Dispatcher) RegisterTrigger(id string, filter EventFilter, sprocPath path.Path, priority int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.triggers[id]; exists {
		return &ExistsError{Name: id}
	}
	d.triggers[id] = &TriggerReg{
		ID:             id,
		Filter:         filter,
		StoredProcPath: sprocPath,
		Priority:       priority,
		seq:            d.triggerSeq.Add(1),
	}
	return nil
}

// RegisterProjection adds a projection, validating options and replaying
// existing matches (retro) as synthetic create events before returning.
func (d *Dispatcher) RegisterProjection(name string, pattern path.Pattern, spec ProjectSpec, opts RegisterOptions, retro []RetroMatch) error {
	if err := validateProjectSpec(spec, opts); err != nil {
		return err
	}

	d.mu.Lock()
	if _, exists := d.projections[name]; exists {
		d.mu.Unlock()
		return &ExistsError{Name: name}
	}
	reg := &ProjectionReg{
		Name:    name,
		Pattern: pattern,
		Spec:    spec,
		Options: opts,
		View:    newView(opts.Type),
	}
	d.projections[name] = reg
	d.mu.Unlock()

	for _, m := range retro {
		props := m.Props
		d.applyProjection(reg, ChangeEvent{
			Path:     m.Path,
			Action:   ActionCreate,
			NewProps: &props,
		})
	}
	return nil
}

// RetroMatch is one existing tree match replayed at registration time.
type RetroMatch struct {
	Path  path.Path
	Props path.NodeProps
}

func validateProjectSpec(spec ProjectSpec, opts RegisterOptions) error {
	hasSimple := spec.Simple != nil
	hasExtended := spec.Extended != nil
	if hasSimple == hasExtended {
		return &UnexpectedOptionError{Option: "project_fun", Value: "must set exactly one of Simple or Extended"}
	}
	if opts.Type == ViewBag && hasSimple {
		return &UnexpectedOptionError{Option: "type", Value: "bag"}
	}
	if opts.Type != ViewSet && opts.Type != ViewBag {
		return &UnexpectedOptionError{Option: "type", Value: opts.Type}
	}
	return nil
}

// View returns the named projection's view table, or nil if unregistered.
func (d *Dispatcher) View(name string) *View {
	d.mu.Lock()
	defer d.mu.Unlock()
	reg, ok := d.projections[name]
	if !ok {
		return nil
	}
	return reg.View
}

// Dispatch delivers ev to every matching trigger (in descending priority,
// then registration order) and every matching projection. Trigger and
// projection failures are isolated: a panic or error from one does not
// prevent the others from running, and never propagates to the caller
// (the underlying mutation has already committed).
func (d *Dispatcher) Dispatch(ev ChangeEvent) {
	d.mu.Lock()
	triggers := make([]*TriggerReg, 0, len(d.triggers))
	for _, tr := range d.triggers {
		if tr.Filter.matches(ev) {
			triggers = append(triggers, tr)
		}
	}
	projections := make([]*ProjectionReg, 0, len(d.projections))
	for _, p := range d.projections {
		if p.matches(ev) {
			projections = append(projections, p)
		}
	}
	d.mu.Unlock()

	sort.Slice(triggers, func(i, j int) bool {
		if triggers[i].Priority != triggers[j].Priority {
			return triggers[i].Priority > triggers[j].Priority
		}
		return triggers[i].seq < triggers[j].seq
	})

	for _, tr := range triggers {
		d.fireTrigger(tr, ev)
	}
	for _, p := range projections {
		d.applyProjection(p, ev)
	}
}

func (p *ProjectionReg) matches(ev ChangeEvent) bool {
	props := ev.NewProps
	if props == nil {
		props = ev.OldProps
	}
	if props != nil && props.IsSproc {
		return false // projections skip stored-procedure payloads entirely
	}
	var leaf path.NodeProps
	if props != nil {
		leaf = *props
	}
	return path.MatchPath(p.Pattern, ev.Path, leaf)
}

func (d *Dispatcher) fireTrigger(tr *TriggerReg, ev ChangeEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("trigger %s panicked on %s %s: %v", tr.ID, ev.Action, ev.Path, r)
		}
	}()
	args := map[string]any{
		"path":      ev.Path,
		"on_action": string(ev.Action),
	}
	if ev.OldProps != nil {
		args["old_props"] = *ev.OldProps
	}
	if ev.NewProps != nil {
		args["new_props"] = *ev.NewProps
	}
	if d.invoke == nil {
		return
	}
	if err := d.invoke(tr.StoredProcPath, args); err != nil {
		log.Errorf("trigger %s failed on %s %s: %v", tr.ID, ev.Action, ev.Path, err)
	}
}

func (d *Dispatcher) applyProjection(p *ProjectionReg, ev ChangeEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("projection %s panicked on %s %s: %v", p.Name, ev.Action, ev.Path, r)
		}
	}()

	if p.Spec.Extended != nil {
		p.Spec.Extended(p.View, ev.Path, ev.OldProps, ev.NewProps)
		return
	}

	switch ev.Action {
	case ActionDelete:
		p.View.Delete(ev.Path.String())
	case ActionCreate, ActionUpdate:
		if ev.NewProps == nil || !ev.NewProps.HasData {
			return
		}
		key, value, ok := p.Spec.Simple(ev.Path, tree.DataPayload(ev.NewProps.Data))
		if !ok {
			log.Errorf("projection %s: no function clause matching for %s", p.Name, ev.Path)
			return
		}
		p.View.Put(key, value)
	}
}
