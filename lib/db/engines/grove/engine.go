package grove

import (
	"encoding/gob"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/lni/dragonboat/v4/logger"

	"github.com/grove-db/grove/lib/db"
	"github.com/grove-db/grove/lib/db/util"
	"github.com/grove-db/grove/lib/dispatch"
	"github.com/grove-db/grove/lib/keepwhile"
	"github.com/grove-db/grove/lib/path"
	"github.com/grove-db/grove/lib/tree"
	"github.com/grove-db/grove/lib/txn"
	"github.com/grove-db/grove/lib/walker"
)

var log = logger.GetLogger("grove")

// Engine implements db.TreeDB over an in-memory tree guarded by a
// keep-while lifetime graph and observed by a trigger/projection
// dispatcher.
type Engine struct {
	tree     *tree.Tree
	graph    *keepwhile.Graph
	dispatch *dispatch.Dispatcher
	sprocs   *SprocRegistry

	events   *util.LockFreeMPSC[dispatch.ChangeEvent]
	isLeader atomic.Bool
	writeIdx atomic.Uint64
}

// New creates an empty Engine. sprocs may be nil, in which case an empty
// registry is created; callers that need stored procedures register them
// before serving any traffic (every replica must register the same names
// with equivalent bodies for ReadWrite evaluation to stay deterministic).
func New(sprocs *SprocRegistry) *Engine {
	if sprocs == nil {
		sprocs = NewSprocRegistry()
	}
	e := &Engine{
		tree:   tree.New(),
		graph:  keepwhile.New(),
		sprocs: sprocs,
		events: util.NewLockFreeMPSC[dispatch.ChangeEvent](),
	}
	e.dispatch = dispatch.New(e.invokeSproc)
	go e.consumeEvents()
	return e
}

func (e *Engine) consumeEvents() {
	for ev := range e.events.Recv() {
		e.dispatch.Dispatch(*ev)
	}
}

// invokeSproc resolves and runs the stored procedure registered at
// sprocPath's node, passing it the trigger's event args. It is the
// dispatch.SprocInvoker the Dispatcher calls on a matching trigger fire;
// dispatch already guarantees this is only ever reached from this
// replica's own event loop, so the leader check below is what actually
// gates execution to a single replica cluster-wide.
func (e *Engine) invokeSproc(sprocPath path.Path, args map[string]any) error {
	if !e.isLeader.Load() {
		return nil
	}
	node, ok := e.tree.Get(sprocPath)
	if !ok || !node.Payload.IsSproc() {
		return db.NewError(db.ErrNodeNotFound, map[string]any{"path": sprocPath.String()})
	}
	fn, ok := e.sprocs.Get(node.Payload.SprocRef)
	if !ok {
		return db.NewError(db.ErrFunctionClause, map[string]any{"sproc_ref": node.Payload.SprocRef})
	}
	_, err := fn(&readWriteTx{engine: e}, args)
	return err
}

// Apply deterministically applies a single command. Every replica that
// applies the same command against the same prior state produces the
// same reply and the same sequence of change events.
func (e *Engine) Apply(writeIndex uint64, cmd db.Command) (db.Reply, error) {
	e.setWriteIdx(writeIndex)

	switch cmd.Type {
	case db.CommandPut:
		p, err := resolveLiteral(cmd.Pattern)
		if err != nil {
			return db.Reply{}, err
		}
		props, err := e.put(p, cmd.Payload, cmd.Options.KeepWhile)
		return replyFor(p, props, err)

	case db.CommandPutMany:
		matches, err := e.putMany(cmd.Items)
		if err != nil {
			return db.Reply{}, err
		}
		return db.Reply{Ok: true, Matches: matches}, nil

	case db.CommandCreate:
		p, err := resolveLiteral(cmd.Pattern)
		if err != nil {
			return db.Reply{}, err
		}
		props, err := e.create(p, cmd.Payload, cmd.Options.KeepWhile)
		return replyFor(p, props, err)

	case db.CommandUpdate:
		p, err := resolveLiteral(cmd.Pattern)
		if err != nil {
			return db.Reply{}, err
		}
		props, err := e.update(p, cmd.Payload)
		return replyFor(p, props, err)

	case db.CommandCompareAndSwap:
		p, err := resolveLiteral(cmd.Pattern)
		if err != nil {
			return db.Reply{}, err
		}
		props, err := e.compareAndSwap(p, cmd.DataMatches, cmd.Payload)
		return replyFor(p, props, err)

	case db.CommandDelete:
		p, err := resolveLiteral(cmd.Pattern)
		if err != nil {
			return db.Reply{}, err
		}
		if err := e.delete(p); err != nil {
			return db.Reply{}, err
		}
		return db.Reply{Ok: true, MatchPath: p}, nil

	case db.CommandDeleteMany:
		count, err := e.deleteMany(cmd.Pattern)
		if err != nil {
			return db.Reply{}, err
		}
		return db.Reply{Ok: true, Value: count}, nil

	case db.CommandDeletePayload:
		p, err := resolveLiteral(cmd.Pattern)
		if err != nil {
			return db.Reply{}, err
		}
		props, err := e.deletePayload(p)
		return replyFor(p, props, err)

	case db.CommandRegisterTrigger:
		if err := e.dispatch.RegisterTrigger(cmd.TriggerID, cmd.Filter, cmd.StoredProcPath, cmd.Priority); err != nil {
			return db.Reply{}, mapDispatchErr(err)
		}
		return db.Reply{Ok: true}, nil

	case db.CommandRegisterProjection:
		retro, err := e.retroMatches(cmd.Pattern)
		if err != nil {
			return db.Reply{}, err
		}
		if err := e.dispatch.RegisterProjection(cmd.ProjectionName, cmd.Pattern, cmd.ProjectSpec, cmd.RegisterOptions, retro); err != nil {
			return db.Reply{}, mapDispatchErr(err)
		}
		return db.Reply{Ok: true}, nil

	case db.CommandRunTransaction:
		return e.runTransaction(cmd)

	default:
		return db.Reply{}, db.NewError(db.ErrInternal, map[string]any{"command_type": cmd.Type.String()})
	}
}

func (e *Engine) retroMatches(pattern path.Pattern) ([]dispatch.RetroMatch, error) {
	matches, err := walker.Walk(e.tree, pattern, walker.Options{})
	if err != nil {
		return nil, mapWalkErr(err)
	}
	out := make([]dispatch.RetroMatch, 0, len(matches))
	for _, m := range matches {
		if m.Props.Exists {
			out = append(out, dispatch.RetroMatch{Path: m.Path, Props: m.Props})
		}
	}
	return out, nil
}

func (e *Engine) runTransaction(cmd db.Command) (db.Reply, error) {
	fn := cmd.TxSpec.Fn
	if fn == nil && len(cmd.StoredProcPath) > 0 {
		node, ok := e.tree.Get(cmd.StoredProcPath)
		if !ok || !node.Payload.IsSproc() {
			return db.Reply{}, db.NewError(db.ErrNodeNotFound, map[string]any{"path": cmd.StoredProcPath.String()})
		}
		sproc, ok := e.sprocs.Get(node.Payload.SprocRef)
		if !ok {
			return db.Reply{}, db.NewError(db.ErrFunctionClause, map[string]any{"sproc_ref": node.Payload.SprocRef})
		}
		fn = func(tx txn.Tx) (any, error) { return sproc(tx, nil) }
	}
	if fn == nil {
		return db.Reply{}, db.NewError(db.ErrUnanalyzableTxFun, map[string]any{"reason": "no function or stored procedure reference supplied"})
	}
	spec := cmd.TxSpec
	spec.Fn = fn

	mode := txn.Classify(spec)
	var tx txn.Tx
	if mode == txn.ReadOnly {
		tx = &txn.ReadOnlyTx{Snapshot: e.tree}
	} else {
		tx = &readWriteTx{engine: e}
	}

	result, err := txn.Execute(tx, fn)
	if err != nil {
		return db.Reply{}, mapTxnErr(err)
	}
	return db.Reply{Ok: true, Value: result}, nil
}

func replyFor(p path.Path, props path.NodeProps, err error) (db.Reply, error) {
	if err != nil {
		return db.Reply{}, err
	}
	return db.Reply{Ok: true, Match: &props, MatchPath: p}, nil
}

// Query answers a read-only request without going through command
// application (it never mutates writeIdx or emits change events).
func (e *Engine) Query(q db.Query) (db.Reply, error) {
	switch q.Type {
	case db.QueryGet:
		match, err := walker.ResolveSpecific(e.tree, q.Pattern)
		if err != nil {
			return db.Reply{}, mapWalkErr(err)
		}
		props := match.Props
		return db.Reply{Ok: true, Match: &props, MatchPath: match.Path}, nil

	case db.QueryExists:
		match, err := walker.ResolveSpecific(e.tree, q.Pattern)
		if werr, ok := err.(*walker.Error); ok && werr.Kind == walker.NodeNotFound {
			return db.Reply{Ok: true, Value: false}, nil
		}
		if err != nil {
			return db.Reply{}, mapWalkErr(err)
		}
		return db.Reply{Ok: true, Value: match.Props.Exists}, nil

	case db.QueryCount:
		matches, err := walker.Walk(e.tree, q.Pattern, walker.Options{})
		if err != nil {
			return db.Reply{}, mapWalkErr(err)
		}
		count := 0
		for _, m := range matches {
			if m.Props.Exists {
				count++
			}
		}
		return db.Reply{Ok: true, Value: count}, nil

	case db.QueryGetDBInfo:
		info := e.GetInfo()
		return db.Reply{Ok: true, Value: info}, nil

	default:
		return db.Reply{}, db.NewError(db.ErrInternal, map[string]any{"query_type": q.Type.String()})
	}
}

// --------------------------------------------------------------------------
// Persistence
// --------------------------------------------------------------------------

type snapshotEnvelope struct {
	Root      *tree.Node
	KeepWhile []keepwhile.WatcherEdges
	WriteIdx  uint64
}

// Save gob-encodes the whole tree, the keep-while graph and the current
// logical clock. Stored procedure registrations are not part of the
// snapshot: SprocRegistry entries are Go closures supplied by the
// embedding application at startup, identical on every replica, the same
// way tree.Payload carries only a SprocRef name rather than a func value.
//
// Any concrete type ever stored as a tree.Payload's Data must be
// registered with gob.Register by the embedding application before Save
// or Load is called; this is the standard gob restriction on encoding
// interface values; Data is `any` and gob cannot infer caller-defined
// concrete types from nothing.
func (e *Engine) Save(w io.Writer) error {
	env := snapshotEnvelope{
		Root:      e.tree.Root(),
		KeepWhile: e.graph.Export(),
		WriteIdx:  e.writeIdx.Load(),
	}
	return gob.NewEncoder(w).Encode(env)
}

// Load replaces the engine's tree and keep-while graph from a prior Save.
func (e *Engine) Load(r io.Reader) error {
	var env snapshotEnvelope
	if err := gob.NewDecoder(r).Decode(&env); err != nil {
		return err
	}
	e.tree.SetRoot(env.Root)
	e.graph = keepwhile.New()
	e.graph.Import(env.KeepWhile)
	e.writeIdx.Store(env.WriteIdx)
	return nil
}

func (e *Engine) setWriteIdx(idx uint64) {
	for {
		cur := e.writeIdx.Load()
		if idx <= cur {
			return
		}
		if e.writeIdx.CompareAndSwap(cur, idx) {
			return
		}
	}
}

// --------------------------------------------------------------------------
// Feature support & metadata
// --------------------------------------------------------------------------

const supportedFeatures = db.FeaturePut | db.FeatureCreate | db.FeatureUpdate |
	db.FeatureCompareAndSwap | db.FeatureDelete | db.FeatureQuery |
	db.FeatureKeepWhile | db.FeatureTrigger | db.FeatureProjection |
	db.FeatureTransaction | db.FeatureSave | db.FeatureLoad

func (e *Engine) SupportsFeature(feature db.Feature) bool {
	return supportedFeatures&feature == feature
}

func (e *Engine) GetInfo() db.DatabaseInfo {
	root := e.tree.Root()
	meta := &struct {
		WriteIndex   uint64 `json:"write_index"`
		RootChildren int    `json:"root_children"`
	}{
		WriteIndex:   e.writeIdx.Load(),
		RootChildren: len(root.Children),
	}
	features := make([]db.Feature, 0, 12)
	for f := db.Feature(1); f <= db.FeatureLoad; f <<= 1 {
		if supportedFeatures&f == f {
			features = append(features, f)
		}
	}
	return db.DatabaseInfo{
		DbType:            db.ImplGrove,
		SupportedFeatures: features,
		Metadata:          meta,
	}
}

// SetLeader gates trigger firing: stored procedures invoked by a trigger
// only ever run on the current leader.
func (e *Engine) SetLeader(isLeader bool) {
	e.isLeader.Store(isLeader)
	log.Infof("grove: leadership changed, isLeader=%t", isLeader)
}

func (e *Engine) Close() error {
	e.events.Close()
	return nil
}

func mapDispatchErr(err error) error {
	switch v := err.(type) {
	case *dispatch.ExistsError:
		return db.NewError(db.ErrExists, map[string]any{"name": v.Name})
	case *dispatch.UnexpectedOptionError:
		return db.NewError(db.ErrUnexpectedOption, map[string]any{"option": v.Option, "value": fmt.Sprintf("%v", v.Value)})
	default:
		return db.NewError(db.ErrInternal, map[string]any{"error": err.Error()})
	}
}

func mapTxnErr(err error) error {
	switch v := err.(type) {
	case *txn.AbortError:
		if v.Reason == txn.AbortUnanalyzableTxFun {
			return db.NewError(db.ErrUnanalyzableTxFun, nil)
		}
		return db.NewError(db.ErrStoreUpdateDenied, nil)
	case *txn.Exception:
		return db.NewError(db.ErrFunctionClause, map[string]any{"kind": v.Kind, "value": fmt.Sprintf("%v", v.Value)})
	default:
		return db.NewError(db.ErrInternal, map[string]any{"error": err.Error()})
	}
}
