package server

import (
	"fmt"

	"github.com/grove-db/grove/lib/db"
	"github.com/grove-db/grove/lib/store"
	"github.com/grove-db/grove/rpc/common"
)

// NewTreeStoreServerAdapter creates an adapter translating Messages into
// ITreeStore calls. It is the RPC-layer counterpart of dstore's
// TreeStateMachine: both decode the same RPCCommand/RPCQuery shape, one
// from a Raft log entry, the other from a transport request.
func NewTreeStoreServerAdapter() IRPCServerAdapter {
	return &treeStoreServerAdapterImpl{}
}

type treeStoreServerAdapterImpl struct{}

func (adapter *treeStoreServerAdapterImpl) Handle(req *common.Message, s store.ITreeStore) *common.Message {
	if s == nil {
		return common.NewErrorResponse("handler: store is nil")
	}

	switch req.MsgType {
	case common.MsgTPut, common.MsgTPutMany, common.MsgTCreate, common.MsgTUpdate, common.MsgTCompareAndSwap, common.MsgTDelete, common.MsgTDeleteMany, common.MsgTDeletePayload, common.MsgTRegisterTrigger, common.MsgTRunStoredProc:
		return handleWrite(req, s)
	case common.MsgTGet, common.MsgTExists, common.MsgTCount, common.MsgTGetDBInfo:
		return handleRead(req, s)
	default:
		return common.NewErrorResponse(
			fmt.Sprintf("RPC TreeStoreAdapter - unsupported message type: %s", req.MsgType),
		)
	}
}

func handleWrite(req *common.Message, s store.ITreeStore) *common.Message {
	cmd, err := common.DeserializeCommand(req.Command)
	if err != nil {
		return common.NewErrorResponse(fmt.Sprintf("failed to decode command: %s", err))
	}
	dbCmd := cmd.ToDBCommand()

	switch req.MsgType {
	case common.MsgTPut:
		p, err := s.Put(dbCmd.Pattern, dbCmd.Payload, optsOf(dbCmd.Options))
		return common.NewPathResponse(req.MsgType, common.EncodePath(p), err)
	case common.MsgTPutMany:
		matches, err := s.PutMany(itemsOf(dbCmd.Items), optsOf(dbCmd.Options))
		return common.NewMatchesResponse(common.EncodeValue(matches), err)
	case common.MsgTCreate:
		p, err := s.Create(dbCmd.Pattern, dbCmd.Payload, optsOf(dbCmd.Options))
		return common.NewPathResponse(req.MsgType, common.EncodePath(p), err)
	case common.MsgTUpdate:
		p, err := s.Update(dbCmd.Pattern, dbCmd.Payload, optsOf(dbCmd.Options))
		return common.NewPathResponse(req.MsgType, common.EncodePath(p), err)
	case common.MsgTCompareAndSwap:
		p, err := s.CompareAndSwap(dbCmd.Pattern, dbCmd.DataMatches, dbCmd.Payload, optsOf(dbCmd.Options))
		return common.NewPathResponse(req.MsgType, common.EncodePath(p), err)
	case common.MsgTDelete:
		err := s.Delete(dbCmd.Pattern, optsOf(dbCmd.Options))
		return common.NewAckResponse(req.MsgType, err)
	case common.MsgTDeleteMany:
		n, err := s.DeleteMany(dbCmd.Pattern, optsOf(dbCmd.Options))
		return common.NewCountResponse(req.MsgType, n, err)
	case common.MsgTDeletePayload:
		p, err := s.DeletePayload(dbCmd.Pattern, optsOf(dbCmd.Options))
		return common.NewPathResponse(req.MsgType, common.EncodePath(p), err)
	case common.MsgTRegisterTrigger:
		err := s.RegisterTrigger(dbCmd.TriggerID, dbCmd.Pattern, dbCmd.Filter, dbCmd.StoredProcPath, dbCmd.Priority)
		return common.NewAckResponse(req.MsgType, err)
	case common.MsgTRunStoredProc:
		v, err := s.RunStoredProc(dbCmd.StoredProcPath)
		return common.NewValueResponse(req.MsgType, common.EncodeValue(v), err)
	default:
		return common.NewErrorResponse(fmt.Sprintf("RPC TreeStoreAdapter - unsupported write message type: %s", req.MsgType))
	}
}

func handleRead(req *common.Message, s store.ITreeStore) *common.Message {
	if req.MsgType == common.MsgTGetDBInfo {
		info, err := s.GetDBInfo()
		return common.NewValueResponse(req.MsgType, common.EncodeValue(info), err)
	}

	q, err := common.DeserializeQuery(req.Query)
	if err != nil {
		return common.NewErrorResponse(fmt.Sprintf("failed to decode query: %s", err))
	}
	dbQuery := q.ToDBQuery()

	switch req.MsgType {
	case common.MsgTGet:
		props, err := s.Get(dbQuery.Pattern, optsOf(dbQuery.Options))
		return common.NewPropsResponse(common.EncodeProps(props), err)
	case common.MsgTExists:
		ok, err := s.Exists(dbQuery.Pattern, optsOf(dbQuery.Options))
		return common.NewOkResponse(req.MsgType, ok, err)
	case common.MsgTCount:
		n, err := s.Count(dbQuery.Pattern, optsOf(dbQuery.Options))
		return common.NewCountResponse(req.MsgType, n, err)
	default:
		return common.NewErrorResponse(fmt.Sprintf("RPC TreeStoreAdapter - unsupported read message type: %s", req.MsgType))
	}
}

// itemsOf translates a decoded Command's db.PutManyItem batch into the
// store.PutManyItem form ITreeStore.PutMany accepts, the reverse of
// store.ToDBItems.
func itemsOf(items []db.PutManyItem) []store.PutManyItem {
	out := make([]store.PutManyItem, len(items))
	for i, it := range items {
		out[i] = store.PutManyItem{Pattern: it.Pattern, Payload: it.Payload, KeepWhile: it.KeepWhile}
	}
	return out
}

// optsOf replays an already-resolved db.Options back through a single
// store.Option so the adapter can call straight into the ITreeStore
// interface (which only accepts ...store.Option) without a second,
// option-bag-shaped entry point.
func optsOf(o db.Options) store.Option {
	return func(target *db.Options) { *target = o }
}

type MessageHandler func(req *common.Message) (resp *common.Message)

type RegisterMessageHandler func(handler MessageHandler)
