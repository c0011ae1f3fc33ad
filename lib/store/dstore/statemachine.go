package dstore

import (
	"fmt"
	"io"
	"time"

	sm "github.com/lni/dragonboat/v4/statemachine"

	"github.com/grove-db/grove/lib/db"
	"github.com/grove-db/grove/lib/store"
	"github.com/grove-db/grove/lib/store/dstore/internal"
)

// --------------------------------------------------------------------------
// State Machine Implementation
// --------------------------------------------------------------------------

// TreeStateMachine is a dragonboat state machine wrapping a TreeDB engine
// (normally lib/db/engines/grove.Engine). Every replica in a shard runs
// an identical instance, deterministically applying the same log.
type TreeStateMachine struct {
	replicaID uint64
	shardID   uint64
	database  db.TreeDB
}

// CreateStateMachineFactory returns a function dragonboat calls to create
// a new state machine for a node host, closing over an interchangeable
// TreeDB factory.
func CreateStateMachineFactory(dbFactory store.DBFactory) func(shardID uint64, replicaID uint64) sm.IConcurrentStateMachine {
	return func(shardID uint64, replicaID uint64) sm.IConcurrentStateMachine {
		return &TreeStateMachine{
			replicaID: replicaID,
			shardID:   shardID,
			database:  dbFactory(),
		}
	}
}

// Lookup handles read-only queries by mapping each Query operation onto
// the corresponding TreeDB.Query call.
func (fsm *TreeStateMachine) Lookup(itf interface{}) (interface{}, error) {
	q, ok := itf.(internal.Query)
	if !ok {
		return nil, store.NewError(store.RetCInternalError, fmt.Sprintf("invalid Query type: %T", itf))
	}

	reply, err := fsm.database.Query(q.ToDBQuery())
	if err != nil {
		return nil, store.TranslateDBError(err)
	}
	if reply.Err != nil {
		return nil, store.TranslateDBError(reply.Err)
	}

	if q.Type == db.QueryGet {
		if reply.Match == nil {
			return internal.QueryResult{Ok: false}, nil
		}
		return internal.QueryResult{Ok: true, Props: *reply.Match}, nil
	}
	return reply.Value, nil
}

// Update handles write commands against the TreeDB instance. Each
// dragonboat log entry carries one gob-encoded internal.Command.
func (fsm *TreeStateMachine) Update(entries []sm.Entry) ([]sm.Entry, error) {
	if len(entries) == 0 {
		return entries, nil
	}

	start := time.Now()

	for idx, e := range entries {
		if len(e.Cmd) == 0 {
			entries[idx].Result = sm.Result{Value: uint64(store.RetCInvalidOperation), Data: []byte("empty command ignored")}
			continue
		}

		cmd := internal.Command{}
		if err := cmd.Deserialize(e.Cmd); err != nil {
			entries[idx].Result = sm.Result{
				Value: uint64(store.RetCInternalError),
				Data:  []byte(fmt.Sprintf("failed to deserialize command: %v", err)),
			}
			continue
		}

		reply, err := fsm.database.Apply(e.Index, cmd.ToDBCommand())
		if err == nil {
			err = reply.Err
		}
		if err != nil {
			storeErr, _ := store.TranslateDBError(err).(*store.Error)
			entries[idx].Result = sm.Result{Value: uint64(storeErr.Code), Data: []byte(storeErr.Error())}
			continue
		}
		entries[idx].Result = sm.Result{
			Value: uint64(store.RetCSuccess),
			Data:  []byte(fmt.Sprintf("%s: ok", cmd.Type)),
		}
	}

	if elapsed := time.Since(start); elapsed > time.Millisecond {
		log.Infof("state machine took long to update. batch updated %d entries, took %.2fms", len(entries), float64(elapsed)/float64(time.Millisecond))
	}
	return entries, nil
}

// PrepareSnapshot is not used: the engine's Save/Load pair is a fuzzy
// snapshot that needs no prior coordination.
func (fsm *TreeStateMachine) PrepareSnapshot() (interface{}, error) {
	return nil, nil
}

// SaveSnapshot writes a fuzzy engine snapshot to the writer.
func (fsm *TreeStateMachine) SaveSnapshot(_ interface{}, writer io.Writer, _ sm.ISnapshotFileCollection, _ <-chan struct{}) error {
	if !fsm.database.SupportsFeature(db.FeatureSave) {
		return fmt.Errorf("the configured TreeDB implementation does not support Save()")
	}
	return fsm.database.Save(writer)
}

// RecoverFromSnapshot restores the engine from a prior SaveSnapshot.
func (fsm *TreeStateMachine) RecoverFromSnapshot(r io.Reader, _ []sm.SnapshotFile, _ <-chan struct{}) error {
	if !fsm.database.SupportsFeature(db.FeatureLoad) {
		return fmt.Errorf("the configured TreeDB implementation does not support Load()")
	}
	return fsm.database.Load(r)
}

// Close performs any necessary cleanup.
func (fsm *TreeStateMachine) Close() error {
	return fsm.database.Close()
}
