package server

import (
	"fmt"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/lni/dragonboat/v4"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/grove-db/grove/lib/db"
	"github.com/grove-db/grove/lib/db/engines/grove"
	"github.com/grove-db/grove/lib/store"
	"github.com/grove-db/grove/lib/store/dstore"
	"github.com/grove-db/grove/lib/store/lstore"
	"github.com/grove-db/grove/rpc/common"
	"github.com/grove-db/grove/rpc/serializer"
	"github.com/grove-db/grove/rpc/transport"
)

var Logger = logger.GetLogger("rpc")

// serverShard is a struct that represents a shard in the RPC server
// It contains the tree store it encapsulates and the adapter that handles
// requests for that store (the shard ID is its key in the shards map)
type serverShard struct {
	Store   store.ITreeStore
	Adapter IRPCServerAdapter
}

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		http.NewHttpServerTransport(),
//		serializer.NewJSONSerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	 }
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) rpcServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	// Create shards map
	shardMap := xsync.NewMapOf[uint64, serverShard]()

	Logger.Infof("Created RPC Server")
	Logger.Infof(config.String())

	// Create the RPC server
	return rpcServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		shards:     shardMap,
	}
}

type rpcServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	shards     *xsync.MapOf[uint64, serverShard]
}

func (s *rpcServer) registerTransportHandler() {
	s.transport.RegisterHandler(func(shardId uint64, req []byte) []byte {
		var msg common.Message
		var respMsg common.Message

		// Get appropriate shard
		shard, ok := s.shards.Load(shardId)

		// Case shard does not exist -> error
		if !ok {
			respMsg = common.Message{
				MsgType: common.MsgTError,
				Err:     "shard not found",
			}
		} else {
			// Decode the request
			err := s.serializer.Deserialize(req, &msg)

			if err != nil {
				respMsg = common.Message{
					MsgType: common.MsgTError,
					Err:     fmt.Sprintf("failed to deserialize request: %s", err),
				}
			} else {
				// Let the adapter handle the request
				respMsg = *shard.Adapter.Handle(&msg, shard.Store)
			}
		}

		// Return result
		val, err := s.serializer.Serialize(respMsg)
		if err != nil {
			respMsg = common.Message{
				MsgType: common.MsgTError,
				Err:     fmt.Sprintf("failed to serialize response: %s", err),
			}
		}
		return val
	})
}

func (s *rpcServer) init() error {

	// Init logger
	common.InitLoggers(s.config)

	// Function to create a new tree engine instance. Every replica starts
	// from the same empty stored-procedure registry.
	dbFactory := func() db.TreeDB { return grove.New(nil) }

	// Create the Dragonboat NodeHost
	var nodeHost *dragonboat.NodeHost
	var err error
	if s.config.HasRemoteShard() {
		// Only create the NodeHost if we have remote shards
		nodeHost, err = dragonboat.NewNodeHost(s.config.ToNodeHostConfig())
		if err != nil {
			return fmt.Errorf("failed to create node host: %w", err)
		}
	}

	// Configure the timeout for the distributed store
	timeout := time.Duration(s.config.TimeoutSecond) * time.Second

	// CREATE SHARDS

	/*
		Note: A single RPC Server can have any number of remote and or local shards.
		Each shard wraps a tree store reached either locally or over Raft. The
		following loop creates all the shards and stores them for the RPC server.
	*/

	for _, shardConfig := range s.config.Shards {

		// Case local store
		if shardConfig.Type == common.ShardTypeLocalITreeStore {
			s.shards.Store(shardConfig.ShardID, serverShard{
				Store:   lstore.NewLocalStore(dbFactory),
				Adapter: NewTreeStoreServerAdapter(),
			})
			Logger.Infof("created local tree store for shard %d", shardConfig.ShardID)

			// Case remote store
		} else {
			if nodeHost == nil {
				return fmt.Errorf("node host is nil, cannot create remote store")
			}

			// Start Raft for the shard
			if err := nodeHost.StartConcurrentReplica(s.config.ClusterMembers, false, dstore.CreateStateMachineFactory(dbFactory), s.config.ToDragonboatConfig(shardConfig.ShardID)); err != nil {
				Logger.Errorf("failed to start shard %v: %v", shardConfig.ShardID, err)
			}

			if shardConfig.Type != common.ShardTypeRemoteITreeStore {
				return fmt.Errorf("invalid shard type: %s", shardConfig.Type)
			}

			s.shards.Store(shardConfig.ShardID, serverShard{
				Store:   dstore.NewDistributedStore(nodeHost, shardConfig.ShardID, timeout),
				Adapter: NewTreeStoreServerAdapter(),
			})
		}
	}

	Logger.Infof("grove setup completed successfully")

	// Configure the transport layer
	s.registerTransportHandler()

	return nil
}

// Serve starts the RPC server
// This function will also initialize the server plus the shards and start the transport layer
func (s *rpcServer) Serve() error {
	err := s.init()
	if err != nil {
		return err
	}
	return s.transport.Listen(s.config)
}
