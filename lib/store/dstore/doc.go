// Package dstore implements a distributed, fault-tolerant replicated tree
// store using the Dragonboat RAFT consensus library. It provides a strongly
// consistent implementation of the store.ITreeStore interface that can
// operate across multiple nodes while maintaining linearizable consistency.
//
// Architecture:
//
// The dstore implementation consists of three main components:
//
//   - Store Client: Implements the store.ITreeStore interface and communicates
//     with the RAFT cluster. It serializes operations into commands, sends them
//     to the consensus layer, and processes responses.
//
//   - State Machine: A Dragonboat IConcurrentStateMachine implementation that
//     processes commands and queries on each node. The state machine contains
//     the actual db.TreeDB instance and applies operations to it.
//
//   - Communication Protocol: Defined in the internal package, this consists of
//     Command and Query structures with serialization logic for transmitting
//     operations across the network.
//
// Consensus Model:
//
//	The store uses Dragonboat's implementation of the RAFT consensus protocol which provides:
//
//	- Strong Consistency: All operations are linearizable, meaning they appear to
//	  execute atomically and in a consistent order across all nodes.
//
//	- Fault Tolerance: The system remains operational as long as a majority of nodes
//	  are functioning. With 2N+1 nodes, up to N node failures can be tolerated.
//
//	- Leader-Based Processing: Write operations are forwarded to the leader node,
//	  replicated to followers, and only considered committed when a majority of nodes
//	  have persisted the operation.
//
// Write Operations:
//
//	All mutating operations (Put, Create, Update, CompareAndSwap, Delete,
//	DeleteMany, DeletePayload, RegisterTrigger, RunStoredProc) follow this flow:
//
//	1. The operation is serialized into a Command structure
//	2. The Command is proposed to the RAFT cluster via SyncPropose
//	3. The leader node replicates the command to a majority of followers
//	4. Once committed, the command is executed on the state machine on each node (Update method in statemachine.go)
//	5. The result is returned to the client
//
//	The write index for all operations is provided by the RAFT log index, ensuring
//	a globally consistent ordering of operations across the cluster, including the
//	ordering of keep-while lifetime edges.
//
// Read Operations:
//
// Read operations (Get, Exists, Count, GetDBInfo) can be handled in two ways:
//
//   - Linearizable Reads: By default, reads use SyncRead which ensures that the node
//     processing the read has applied all committed log entries locally before processing
//     the request. This guarantees the operation sees the latest committed state of the
//     tree, regardless of which node in the cluster processes the read.
//
//   - Stale Reads: For less critical operations (GetDBInfo), StaleRead is used,
//     which may return slightly outdated information but with lower latency.
//
// Error Handling and Retries:
//
//	The store implements automatic retry logic for transient failures:
//
//	- System Busy: When Dragonboat returns ErrSystemBusy, the operation is retried
//	  after a delay of a tenth of the timeout, up to 5 attempts.
//
//	- Timeouts: All operations have a configurable timeout. If consensus cannot be
//	  reached within this period, the operation fails with a timeout error.
//
//	- Feature Compatibility: Before saving or recovering a snapshot, the state machine
//	  verifies that the underlying db.TreeDB implementation supports Save or Load.
//
// Snapshotting and Recovery:
//
// The state machine implements Dragonboat's snapshotting interface to persist its state:
//
//   - Fuzzy Snapshots: The state machine creates snapshots without pausing operations,
//     leveraging the db.TreeDB's Save method.
//
//   - Recovery: On startup or when joining a cluster, nodes first restore their state
//     from the most recent (fuzzy) snapshot using the db.TreeDB's Load method. Then, they receive
//     all RAFT log entries that were committed after the snapshot was created from other
//     nodes in the cluster. This two-phase process ensures that after recovery is complete,
//     the node reaches the same consistent state as all other nodes in the cluster.
//
// Usage:
//
//	Setting up and using dstore requires several steps:
//
//	1. Initialize Dragonboat NodeHost (RAFT client)
//	2. Create a db.TreeDB factory function
//	3. Start a RAFT replica with the state machine factory
//	4. Create the distributed store with appropriate timeout
//	5. Begin operations once the shard is ready
//
//	Example:
//
//	  // Create NodeHost (RAFT client)
//	  nh, err := dragonboat.NewNodeHost(nodeHostConfig)
//	  if err != nil { ... }
//
//	  // DB factory for store
//	  dbFactory := func() db.TreeDB { return grove.New(nil) }
//
//	  // Create and start shard (RAFT server)
//	  err := nh.StartConcurrentReplica(
//	      clusterMembers,
//	      false,
//	      dstore.CreateStateMachineFactory(dbFactory),
//	      shardConfig)
//	  if err != nil { ... }
//
//	  // Create store with appropriate timeout
//	  timeout := time.Duration(5) * time.Second
//	  store := dstore.NewDistributedStore(nh, shardID, timeout)
//
//	  // Wait for shard readiness then begin operations
//	  // ...
//
// Performance Considerations:
//
//   - Consensus Overhead: Due to the requirement for replication and majority commitment,
//     distributed operations are significantly slower than local operations.
//
//   - Network Conditions: Operation latency is highly dependent on network conditions
//     between nodes. Timeouts should be adjusted based on expected network performance.
//
// Deployment Recommendations:
//
//   - Node Count: Deploy with an odd number of nodes (typically 3, 5, or 7) to ensure
//     majority consensus is always possible.
//
//   - Geographic Distribution: For maximum fault tolerance, distribute nodes across
//     different failure domains (servers, racks, data centers).
//
//   - Network Quality: Ensure low-latency, high-bandwidth connections between nodes
//     for optimal performance.
//
// Limitations:
//
//   - Majority Requirement: Operations cannot proceed if a majority of nodes are unavailable
//   - Leader Dependency: Write operations require the leader to be available
//   - Consistency vs. Performance: The strong consistency model introduces performance overhead
//   - No RPC form for RegisterProjection or RunTransaction with an inline closure: both
//     carry a Go closure with no wire representation. Use RunStoredProc instead.
//
// For scenarios where distributed consensus is not required, consider using the simpler
// and faster lstore package, which provides a single-node not-persistent implementation of the
// same interface.
package dstore
