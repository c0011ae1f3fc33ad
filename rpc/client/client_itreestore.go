package client

import (
	"github.com/grove-db/grove/lib/db"
	"github.com/grove-db/grove/lib/dispatch"
	"github.com/grove-db/grove/lib/path"
	"github.com/grove-db/grove/lib/store"
	"github.com/grove-db/grove/lib/tree"
	"github.com/grove-db/grove/lib/txn"
	"github.com/grove-db/grove/rpc/common"
	"github.com/grove-db/grove/rpc/serializer"
	"github.com/grove-db/grove/rpc/transport"
)

// NewRPCTreeStore creates a new RPC client implementing store.ITreeStore
// against a remote node's tree-store shard.
func NewRPCTreeStore(
	shardId uint64,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (store.ITreeStore, error) {

	// Connect the transport
	err := transport.Connect(config)
	if err != nil {
		return nil, err
	}

	s := rpcTreeStore{
		rpcClientAdapter{
			shardId:    shardId,
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}

	return &s, nil
}

type rpcTreeStore struct {
	rpcClientAdapter
}

// --------------------------------------------------------------------------
// Interface Methods (docs see the store package in interface.go)
// --------------------------------------------------------------------------

func (i *rpcTreeStore) write(msgType common.MessageType, cmd db.Command) (*common.Message, error) {
	wire, err := common.NewRPCCommand(cmd)
	if err != nil {
		return nil, store.NewError(store.RetCInvalidOperation, err.Error())
	}
	req := common.NewWriteRequest(msgType, wire.Serialize())
	return invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
}

func (i *rpcTreeStore) read(msgType common.MessageType, q db.Query) (*common.Message, error) {
	wire, err := common.NewRPCQuery(q)
	if err != nil {
		return nil, store.NewError(store.RetCInvalidOperation, err.Error())
	}
	req := common.NewReadRequest(msgType, wire.Serialize())
	return invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
}

func (i *rpcTreeStore) Put(pattern path.Pattern, payload tree.Payload, opts ...store.Option) (path.Path, error) {
	resp, err := i.write(common.MsgTPut, db.Command{Type: db.CommandPut, Pattern: pattern, Payload: payload, Options: store.ApplyOptions(opts)})
	if err != nil {
		return nil, err
	}
	return common.DecodePath(resp.Path)
}

func (i *rpcTreeStore) PutMany(items []store.PutManyItem, opts ...store.Option) (map[string]path.NodeProps, error) {
	resp, err := i.write(common.MsgTPutMany, db.Command{Type: db.CommandPutMany, Items: store.ToDBItems(items), Options: store.ApplyOptions(opts)})
	if err != nil {
		return nil, err
	}
	var matches map[string]path.NodeProps
	if err := common.DecodeValue(resp.Value, &matches); err != nil {
		return nil, err
	}
	return matches, nil
}

func (i *rpcTreeStore) Create(pattern path.Pattern, payload tree.Payload, opts ...store.Option) (path.Path, error) {
	resp, err := i.write(common.MsgTCreate, db.Command{Type: db.CommandCreate, Pattern: pattern, Payload: payload, Options: store.ApplyOptions(opts)})
	if err != nil {
		return nil, err
	}
	return common.DecodePath(resp.Path)
}

func (i *rpcTreeStore) Update(pattern path.Pattern, payload tree.Payload, opts ...store.Option) (path.Path, error) {
	resp, err := i.write(common.MsgTUpdate, db.Command{Type: db.CommandUpdate, Pattern: pattern, Payload: payload, Options: store.ApplyOptions(opts)})
	if err != nil {
		return nil, err
	}
	return common.DecodePath(resp.Path)
}

func (i *rpcTreeStore) CompareAndSwap(pattern path.Pattern, dataMatches path.Condition, payload tree.Payload, opts ...store.Option) (path.Path, error) {
	resp, err := i.write(common.MsgTCompareAndSwap, db.Command{
		Type: db.CommandCompareAndSwap, Pattern: pattern, Payload: payload,
		DataMatches: dataMatches, Options: store.ApplyOptions(opts),
	})
	if err != nil {
		return nil, err
	}
	return common.DecodePath(resp.Path)
}

func (i *rpcTreeStore) Delete(pattern path.Pattern, opts ...store.Option) error {
	_, err := i.write(common.MsgTDelete, db.Command{Type: db.CommandDelete, Pattern: pattern, Options: store.ApplyOptions(opts)})
	return err
}

func (i *rpcTreeStore) DeleteMany(pattern path.Pattern, opts ...store.Option) (int, error) {
	resp, err := i.write(common.MsgTDeleteMany, db.Command{Type: db.CommandDeleteMany, Pattern: pattern, Options: store.ApplyOptions(opts)})
	if err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (i *rpcTreeStore) DeletePayload(pattern path.Pattern, opts ...store.Option) (path.Path, error) {
	resp, err := i.write(common.MsgTDeletePayload, db.Command{Type: db.CommandDeletePayload, Pattern: pattern, Options: store.ApplyOptions(opts)})
	if err != nil {
		return nil, err
	}
	return common.DecodePath(resp.Path)
}

func (i *rpcTreeStore) Get(pattern path.Pattern, opts ...store.Option) (path.NodeProps, error) {
	resp, err := i.read(common.MsgTGet, db.Query{Type: db.QueryGet, Pattern: pattern, Options: store.ApplyOptions(opts)})
	if err != nil {
		return path.NodeProps{}, err
	}
	return common.DecodeProps(resp.Props)
}

func (i *rpcTreeStore) Exists(pattern path.Pattern, opts ...store.Option) (bool, error) {
	resp, err := i.read(common.MsgTExists, db.Query{Type: db.QueryExists, Pattern: pattern, Options: store.ApplyOptions(opts)})
	if err != nil {
		return false, err
	}
	return resp.Ok, nil
}

func (i *rpcTreeStore) Count(pattern path.Pattern, opts ...store.Option) (int, error) {
	resp, err := i.read(common.MsgTCount, db.Query{Type: db.QueryCount, Pattern: pattern, Options: store.ApplyOptions(opts)})
	if err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (i *rpcTreeStore) HasData(pattern path.Pattern, opts ...store.Option) (bool, error) {
	props, err := i.Get(pattern, opts...)
	if err != nil {
		return false, err
	}
	return props.HasData, nil
}

func (i *rpcTreeStore) IsSproc(pattern path.Pattern, opts ...store.Option) (bool, error) {
	props, err := i.Get(pattern, opts...)
	if err != nil {
		return false, err
	}
	return props.IsSproc, nil
}

func (i *rpcTreeStore) GetOr(pattern path.Pattern, def any, opts ...store.Option) (any, error) {
	props, err := i.Get(pattern, opts...)
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

func (i *rpcTreeStore) RegisterTrigger(triggerID string, pattern path.Pattern, filter dispatch.EventFilter, sprocPath path.Path, priority int) error {
	_, err := i.write(common.MsgTRegisterTrigger, db.Command{
		Type: db.CommandRegisterTrigger, Pattern: pattern,
		TriggerID: triggerID, Filter: filter, StoredProcPath: sprocPath, Priority: priority,
	})
	return err
}

// RegisterProjection has no RPC form: ProjectSpec carries a closure that
// cannot cross the wire. Register projections directly against the node
// hosting the shard instead (see rpc/client's package doc).
func (i *rpcTreeStore) RegisterProjection(name string, pattern path.Pattern, spec dispatch.ProjectSpec, opts dispatch.RegisterOptions) error {
	return store.NewError(store.RetCUnsupportedOperation, "RegisterProjection has no RPC form; register it directly against the node hosting the shard")
}

// RunTransaction has no RPC form for the same reason: TxSpec.Fn is a
// closure. Use RunStoredProc to invoke a procedure already registered on
// the remote node by name.
func (i *rpcTreeStore) RunTransaction(spec txn.TxSpec) (any, error) {
	return nil, store.NewError(store.RetCInvalidOperation, "RunTransaction has no RPC form; register a stored procedure and use RunStoredProc")
}

func (i *rpcTreeStore) RunStoredProc(sprocPath path.Path) (any, error) {
	resp, err := i.write(common.MsgTRunStoredProc, db.Command{Type: db.CommandRunTransaction, StoredProcPath: sprocPath})
	if err != nil {
		return nil, err
	}
	var v any
	if err := common.DecodeValue(resp.Value, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (i *rpcTreeStore) GetDBInfo() (info db.DatabaseInfo, err error) {
	req := &common.Message{MsgType: common.MsgTGetDBInfo}
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return db.DatabaseInfo{}, err
	}
	err = common.DecodeValue(resp.Value, &info)
	return info, err
}
