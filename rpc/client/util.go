package client

import (
	"fmt"

	"github.com/lni/dragonboat/v4/logger"

	"github.com/grove-db/grove/rpc/common"
	"github.com/grove-db/grove/rpc/serializer"
	"github.com/grove-db/grove/rpc/transport"
)

var (
	Logger = logger.GetLogger("rpc")
)

// rpcClientAdapter is a struct that stores all data needed for an
// implementation of an RPC client. Used by rpcTreeStore with composition.
type rpcClientAdapter struct {
	shardId    uint64
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
}

// invokeRPCRequest is a helper function used by all RPC clients to send requests.
// It takes a shard ID, a request message, a transport layer and a serializer as parameters.
// It returns a response message and an error if any occurs.
func invokeRPCRequest(shardId uint64, req *common.Message, transport transport.IRPCClientTransport, serializer serializer.IRPCSerializer) (*common.Message, error) {
	reqBytes, err := serializer.Serialize(*req)
	if err != nil {
		return nil, err
	}

	respBytes, err := transport.Send(shardId, reqBytes)
	if err != nil {
		return nil, err
	}

	resp := &common.Message{}
	err = serializer.Deserialize(respBytes, resp)
	if err != nil {
		return nil, fmt.Errorf("RPC TreeStoreAdapter - error: %s", err)
	}

	if resp.MsgType == common.MsgTError || resp.Err != "" {
		return nil, fmt.Errorf("RPC TreeStoreAdapter - error: %s", resp.Err)
	}

	if resp.MsgType != req.MsgType {
		return nil, fmt.Errorf("RPC TreeStoreAdapter - unexpected message type: %s, expected %s", resp.MsgType, req.MsgType)
	}

	return resp, nil
}
