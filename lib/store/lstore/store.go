package lstore

import (
	"sync/atomic"

	"github.com/grove-db/grove/lib/db"
	"github.com/grove-db/grove/lib/dispatch"
	"github.com/grove-db/grove/lib/path"
	"github.com/grove-db/grove/lib/store"
	"github.com/grove-db/grove/lib/tree"
	"github.com/grove-db/grove/lib/txn"
)

// storeImpl is a local, in-process ITreeStore. It calls straight into a
// TreeDB, numbering every write with a monotonically increasing index the
// way a single-node Raft group would, so engine behavior is identical
// whether it runs standalone or replicated.
type storeImpl struct {
	db    db.TreeDB
	index atomic.Uint64
}

// NewLocalStore creates a new local store instance.
// This store implementation is not distributed and only works on a single node.
// This works by using a TreeDB engine (e.g. grove) from the db package directly.
func NewLocalStore(factory store.DBFactory) store.ITreeStore {
	d := factory()
	// A single-node store is always its own leader, so triggers fire.
	d.SetLeader(true)
	return &storeImpl{db: d}
}

// incAndGetIndex increments the index and returns the new value.
// It is used to ensure that each write operation has a unique index.
//
// Thread-safety: This method is thread-safe since it uses atomic operations.
func (s *storeImpl) incAndGetIndex() uint64 {
	return s.index.Add(1)
}

func (s *storeImpl) apply(cmd db.Command) (db.Reply, error) {
	reply, err := s.db.Apply(s.incAndGetIndex(), cmd)
	if err != nil {
		return reply, store.TranslateDBError(err)
	}
	if reply.Err != nil {
		return reply, store.TranslateDBError(reply.Err)
	}
	return reply, nil
}

func (s *storeImpl) query(q db.Query) (db.Reply, error) {
	reply, err := s.db.Query(q)
	if err != nil {
		return reply, store.TranslateDBError(err)
	}
	if reply.Err != nil {
		return reply, store.TranslateDBError(reply.Err)
	}
	return reply, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docs see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Put(pattern path.Pattern, payload tree.Payload, opts ...store.Option) (path.Path, error) {
	reply, err := s.apply(db.Command{Type: db.CommandPut, Pattern: pattern, Payload: payload, Options: store.ApplyOptions(opts)})
	if err != nil {
		return nil, err
	}
	return reply.MatchPath, nil
}

func (s *storeImpl) PutMany(items []store.PutManyItem, opts ...store.Option) (map[string]path.NodeProps, error) {
	reply, err := s.apply(db.Command{Type: db.CommandPutMany, Items: store.ToDBItems(items), Options: store.ApplyOptions(opts)})
	if err != nil {
		return nil, err
	}
	return reply.Matches, nil
}

func (s *storeImpl) Create(pattern path.Pattern, payload tree.Payload, opts ...store.Option) (path.Path, error) {
	reply, err := s.apply(db.Command{Type: db.CommandCreate, Pattern: pattern, Payload: payload, Options: store.ApplyOptions(opts)})
	if err != nil {
		return nil, err
	}
	return reply.MatchPath, nil
}

func (s *storeImpl) Update(pattern path.Pattern, payload tree.Payload, opts ...store.Option) (path.Path, error) {
	reply, err := s.apply(db.Command{Type: db.CommandUpdate, Pattern: pattern, Payload: payload, Options: store.ApplyOptions(opts)})
	if err != nil {
		return nil, err
	}
	return reply.MatchPath, nil
}

func (s *storeImpl) CompareAndSwap(pattern path.Pattern, dataMatches path.Condition, payload tree.Payload, opts ...store.Option) (path.Path, error) {
	reply, err := s.apply(db.Command{
		Type: db.CommandCompareAndSwap, Pattern: pattern, Payload: payload,
		DataMatches: dataMatches, Options: store.ApplyOptions(opts),
	})
	if err != nil {
		return nil, err
	}
	return reply.MatchPath, nil
}

func (s *storeImpl) Delete(pattern path.Pattern, opts ...store.Option) error {
	_, err := s.apply(db.Command{Type: db.CommandDelete, Pattern: pattern, Options: store.ApplyOptions(opts)})
	return err
}

func (s *storeImpl) DeleteMany(pattern path.Pattern, opts ...store.Option) (int, error) {
	reply, err := s.apply(db.Command{Type: db.CommandDeleteMany, Pattern: pattern, Options: store.ApplyOptions(opts)})
	if err != nil {
		return 0, err
	}
	count, _ := reply.Value.(int)
	return count, nil
}

func (s *storeImpl) DeletePayload(pattern path.Pattern, opts ...store.Option) (path.Path, error) {
	reply, err := s.apply(db.Command{Type: db.CommandDeletePayload, Pattern: pattern, Options: store.ApplyOptions(opts)})
	if err != nil {
		return nil, err
	}
	return reply.MatchPath, nil
}

func (s *storeImpl) Get(pattern path.Pattern, opts ...store.Option) (path.NodeProps, error) {
	reply, err := s.query(db.Query{Type: db.QueryGet, Pattern: pattern, Options: store.ApplyOptions(opts)})
	if err != nil {
		return path.NodeProps{}, err
	}
	if reply.Match == nil {
		return path.NodeProps{}, nil
	}
	return *reply.Match, nil
}

func (s *storeImpl) Exists(pattern path.Pattern, opts ...store.Option) (bool, error) {
	reply, err := s.query(db.Query{Type: db.QueryExists, Pattern: pattern, Options: store.ApplyOptions(opts)})
	if err != nil {
		return false, err
	}
	ok, _ := reply.Value.(bool)
	return ok, nil
}

func (s *storeImpl) HasData(pattern path.Pattern, opts ...store.Option) (bool, error) {
	props, err := s.Get(pattern, opts...)
	if err != nil {
		return false, err
	}
	return props.HasData, nil
}

func (s *storeImpl) IsSproc(pattern path.Pattern, opts ...store.Option) (bool, error) {
	props, err := s.Get(pattern, opts...)
	if err != nil {
		return false, err
	}
	return props.IsSproc, nil
}

func (s *storeImpl) GetOr(pattern path.Pattern, def any, opts ...store.Option) (any, error) {
	props, err := s.Get(pattern, opts...)
	if err != nil {
		if store.IsNodeNotFound(err) {
			return def, nil
		}
		return nil, err
	}
	if !props.HasPayload {
		return def, nil
	}
	return props.Data, nil
}

func (s *storeImpl) Count(pattern path.Pattern, opts ...store.Option) (int, error) {
	reply, err := s.query(db.Query{Type: db.QueryCount, Pattern: pattern, Options: store.ApplyOptions(opts)})
	if err != nil {
		return 0, err
	}
	count, _ := reply.Value.(int)
	return count, nil
}

func (s *storeImpl) RegisterTrigger(triggerID string, pattern path.Pattern, filter dispatch.EventFilter, sprocPath path.Path, priority int) error {
	_, err := s.apply(db.Command{
		Type: db.CommandRegisterTrigger, Pattern: pattern,
		TriggerID: triggerID, Filter: filter, StoredProcPath: sprocPath, Priority: priority,
	})
	return err
}

func (s *storeImpl) RegisterProjection(name string, pattern path.Pattern, spec dispatch.ProjectSpec, opts dispatch.RegisterOptions) error {
	_, err := s.apply(db.Command{
		Type: db.CommandRegisterProjection, Pattern: pattern,
		ProjectionName: name, ProjectSpec: spec, RegisterOptions: opts,
	})
	return err
}

func (s *storeImpl) RunTransaction(spec txn.TxSpec) (any, error) {
	reply, err := s.apply(db.Command{Type: db.CommandRunTransaction, TxSpec: spec})
	if err != nil {
		return nil, err
	}
	return reply.Value, nil
}

func (s *storeImpl) RunStoredProc(sprocPath path.Path) (any, error) {
	reply, err := s.apply(db.Command{Type: db.CommandRunTransaction, StoredProcPath: sprocPath})
	if err != nil {
		return nil, err
	}
	return reply.Value, nil
}

func (s *storeImpl) GetDBInfo() (db.DatabaseInfo, error) {
	reply, err := s.query(db.Query{Type: db.QueryGetDBInfo})
	if err != nil {
		return db.DatabaseInfo{}, err
	}
	info, _ := reply.Value.(db.DatabaseInfo)
	return info, nil
}
