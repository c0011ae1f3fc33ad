package dstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lni/dragonboat/v4"
	"github.com/lni/dragonboat/v4/client"
	"github.com/lni/dragonboat/v4/logger"

	"github.com/grove-db/grove/lib/db"
	"github.com/grove-db/grove/lib/dispatch"
	"github.com/grove-db/grove/lib/path"
	"github.com/grove-db/grove/lib/store"
	"github.com/grove-db/grove/lib/store/dstore/internal"
	"github.com/grove-db/grove/lib/tree"
	"github.com/grove-db/grove/lib/txn"
)

var (
	retries = 5
	log     = logger.GetLogger("store")
)

// storeImpl is the concrete implementation of ITreeStore backed by a
// Dragonboat NodeHost, giving linearizable reads/writes across the nodes
// hosting the shard.
type storeImpl struct {
	nh      *dragonboat.NodeHost
	shardID uint64
	cs      *client.Session
	timeout time.Duration
}

// NewDistributedStore creates a new distributed store instance which uses
// Raft consensus to ensure strict linearizability across multiple nodes.
func NewDistributedStore(nh *dragonboat.NodeHost, shardID uint64, timeout time.Duration) store.ITreeStore {
	cs := nh.GetNoOPSession(shardID)
	return &storeImpl{
		nh:      nh,
		shardID: shardID,
		cs:      cs,
		timeout: timeout,
	}
}

// --------------------------------------------------------------------------
// Internal write and read operations (used by interface methods)
// --------------------------------------------------------------------------

// write gob-encodes cmd and proposes it via SyncPropose, retrying on a
// busy system.
func (s *storeImpl) write(cmd db.Command) error {
	wireCmd, err := internal.NewCommand(cmd)
	if err != nil {
		return store.NewError(store.RetCInvalidOperation, err.Error())
	}

	for i := 0; i < retries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		res, err := s.nh.SyncPropose(ctx, s.cs, wireCmd.Serialize())
		cancel()

		if errors.Is(err, dragonboat.ErrSystemBusy) {
			log.Infof("SyncPropose: system busy, retrying (%d/%d)...", i+1, retries)
			time.Sleep(s.timeout / 10)
			continue
		}
		if err != nil {
			return store.NewError(store.RetCInternalError, err.Error())
		}
		if res.Value != uint64(store.RetCSuccess) {
			return store.NewError(store.RetCode(res.Value), string(res.Data))
		}
		return nil
	}
	return store.NewError(store.RetCTimeout, "timeout")
}

// read is a generic helper that queries the state machine and converts
// the response into the expected type R. Pass stale=true to use the
// faster, possibly-behind StaleRead path (favor_low_latency).
func read[R any](s *storeImpl, q db.Query, stale bool) (R, error) {
	var zero R
	wireQuery, err := internal.NewQuery(q)
	if err != nil {
		return zero, store.NewError(store.RetCInvalidOperation, err.Error())
	}

	for i := 0; i < retries; i++ {
		var res interface{}
		if stale {
			res, err = s.nh.StaleRead(s.shardID, wireQuery)
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			res, err = s.nh.SyncRead(ctx, s.shardID, wireQuery)
			cancel()
		}

		if errors.Is(err, dragonboat.ErrSystemBusy) {
			log.Infof("SyncRead: system busy, retrying (%d/%d)...", i+1, retries)
			time.Sleep(s.timeout / 10)
			continue
		}
		if err != nil {
			return zero, store.NewError(store.RetCInternalError, err.Error())
		}

		casted, ok := res.(R)
		if !ok {
			return zero, store.NewError(store.RetCInternalError, fmt.Sprintf("unexpected type: received %T, expected %T", res, zero))
		}
		return casted, nil
	}
	return zero, store.NewError(store.RetCTimeout, "timeout")
}

// --------------------------------------------------------------------------
// Interface Methods (docs see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Put(pattern path.Pattern, payload tree.Payload, opts ...store.Option) (path.Path, error) {
	return nil, s.write(db.Command{Type: db.CommandPut, Pattern: pattern, Payload: payload, Options: store.ApplyOptions(opts)})
}

// PutMany, like DeleteMany, discards the applied Reply.Matches on the
// happy path: write only reports success/failure over the wire, not the
// state machine's returned value. Callers that need the resolved
// properties back should follow up with Get.
func (s *storeImpl) PutMany(items []store.PutManyItem, opts ...store.Option) (map[string]path.NodeProps, error) {
	return nil, s.write(db.Command{Type: db.CommandPutMany, Items: store.ToDBItems(items), Options: store.ApplyOptions(opts)})
}

func (s *storeImpl) Create(pattern path.Pattern, payload tree.Payload, opts ...store.Option) (path.Path, error) {
	return nil, s.write(db.Command{Type: db.CommandCreate, Pattern: pattern, Payload: payload, Options: store.ApplyOptions(opts)})
}

func (s *storeImpl) Update(pattern path.Pattern, payload tree.Payload, opts ...store.Option) (path.Path, error) {
	return nil, s.write(db.Command{Type: db.CommandUpdate, Pattern: pattern, Payload: payload, Options: store.ApplyOptions(opts)})
}

func (s *storeImpl) CompareAndSwap(pattern path.Pattern, dataMatches path.Condition, payload tree.Payload, opts ...store.Option) (path.Path, error) {
	return nil, s.write(db.Command{
		Type: db.CommandCompareAndSwap, Pattern: pattern, Payload: payload,
		DataMatches: dataMatches, Options: store.ApplyOptions(opts),
	})
}

func (s *storeImpl) Delete(pattern path.Pattern, opts ...store.Option) error {
	return s.write(db.Command{Type: db.CommandDelete, Pattern: pattern, Options: store.ApplyOptions(opts)})
}

func (s *storeImpl) DeleteMany(pattern path.Pattern, opts ...store.Option) (int, error) {
	return 0, s.write(db.Command{Type: db.CommandDeleteMany, Pattern: pattern, Options: store.ApplyOptions(opts)})
}

func (s *storeImpl) DeletePayload(pattern path.Pattern, opts ...store.Option) (path.Path, error) {
	return nil, s.write(db.Command{Type: db.CommandDeletePayload, Pattern: pattern, Options: store.ApplyOptions(opts)})
}

func (s *storeImpl) Get(pattern path.Pattern, opts ...store.Option) (path.NodeProps, error) {
	res, err := read[internal.QueryResult](s, db.Query{Type: db.QueryGet, Pattern: pattern, Options: store.ApplyOptions(opts)}, false)
	if err != nil {
		return path.NodeProps{}, err
	}
	return res.Props, nil
}

func (s *storeImpl) Exists(pattern path.Pattern, opts ...store.Option) (bool, error) {
	return read[bool](s, db.Query{Type: db.QueryExists, Pattern: pattern, Options: store.ApplyOptions(opts)}, false)
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

func (s *storeImpl) Count(pattern path.Pattern, opts ...store.Option) (int, error) {
	return read[int](s, db.Query{Type: db.QueryCount, Pattern: pattern, Options: store.ApplyOptions(opts)}, false)
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

// RegisterTrigger is replicated: every replica's Dispatcher ends up with
// the same trigger, and only the leader ever actually invokes it (see
// lib/db/engines/grove's leader gate), so at most one invocation happens
// per matching event cluster-wide.
func (s *storeImpl) RegisterTrigger(triggerID string, pattern path.Pattern, filter dispatch.EventFilter, sprocPath path.Path, priority int) error {
	return s.write(db.Command{
		Type: db.CommandRegisterTrigger, Pattern: pattern,
		TriggerID: triggerID, Filter: filter, StoredProcPath: sprocPath, Priority: priority,
	})
}

// RegisterProjection has no distributed form: ProjectSpec carries a Go
// closure that cannot survive a Raft log entry. Register projections
// identically in every replica's startup code instead (the Dispatcher
// that runs them is node-local by design, see lib/dispatch).
func (s *storeImpl) RegisterProjection(name string, pattern path.Pattern, spec dispatch.ProjectSpec, opts dispatch.RegisterOptions) error {
	return store.NewError(store.RetCUnsupportedOperation, "RegisterProjection is not supported over a distributed store; register it locally on each replica")
}

// RunTransaction has no distributed form: TxSpec.Fn is a Go closure that
// cannot survive a Raft log entry. Use RunStoredProc, which references a
// procedure every replica already has registered by name.
func (s *storeImpl) RunTransaction(spec txn.TxSpec) (any, error) {
	return nil, store.NewError(store.RetCInvalidOperation, "RunTransaction over a distributed store requires a registered stored procedure, use RunStoredProc")
}

func (s *storeImpl) RunStoredProc(sprocPath path.Path) (any, error) {
	return nil, s.write(db.Command{Type: db.CommandRunTransaction, StoredProcPath: sprocPath})
}

func (s *storeImpl) GetDBInfo() (db.DatabaseInfo, error) {
	return read[db.DatabaseInfo](
		s,
		db.Query{Type: db.QueryGetDBInfo},
		true, // stale reads are fine for informational metadata
	)
}
