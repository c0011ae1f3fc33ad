// Package client implements an RPC client for the replicated tree store
// system. It provides an implementation of the store.ITreeStore interface
// that communicates with a remote shard via RPC.
//
// The package focuses on:
//   - Transparent RPC access to a tree store implementation
//   - Integration with the transport and serialization layers
//   - Error handling and conversion between RPC and domain errors
//
// Key Components:
//
//   - NewRPCTreeStore: Factory function that creates a client implementing the
//     store.ITreeStore interface. This client forwards all operations to a remote
//     shard via the configured transport layer.
//
// Usage Example:
//
//		// Configure the client
//		config := common.ClientConfig{
//		  TimeoutSecond: 5,
//		  Transport: common.ClientTransportConfig{
//		    Endpoints:              []string{"localhost:8080"},
//		    RetryCount:             3,
//		    ConnectionsPerEndpoint: 1,
//		  },
//		}
//
//	 // Create a serializer
//		s := serializer.NewBinarySerializer()
//
//		// Create the tree store client
//		treeStore, _ := client.NewRPCTreeStore(100, config, tcp.NewTCPClientTransport(), s)
//
//		// Use the store
//		treeStore.Put(pattern, tree.DataPayload([]byte("value")))
//		props, _ := treeStore.Get(pattern)
//
// RegisterProjection and RunTransaction have no RPC form: both carry a Go
// closure (ProjectSpec.Simple/Extended and TxSpec.Fn respectively) that
// cannot cross the wire. Register a stored procedure and invoke it with
// RunStoredProc instead, or call these directly against the node hosting
// the shard.
//
// Performance Considerations:
//
//   - For applications that frequently send large payloads, increasing ConnectionsPerEndpoint
//     can improve throughput by allowing parallel requests.
//
//   - For small messages, a single connection per endpoint is often more efficient due to
//     reduced connection overhead.
//
//   - The choice of serializer significantly affects performance. The binary serializer
//     provides the best performance and smallest payload size.
//
// Thread Safety:
//
//	The client implementation is thread-safe and can be used concurrently from
//	multiple goroutines without additional synchronization.
package client
