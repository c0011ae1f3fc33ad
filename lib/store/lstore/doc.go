// Package lstore implements a local, in-memory, single-node replicated tree
// store based on the store.ITreeStore interface. It provides a thin wrapper
// around any db.TreeDB implementation with automatic write index
// management. Data is stored entirely in memory and is not persisted
// between process restarts.
//
// Key Features:
//   - Pure in-memory storage without persistence
//   - Direct integration with db.TreeDB implementations
//   - Automatic write index progression using atomic operations
//   - Engine errors translated into store.Error return codes
//   - Thread-safe operations for concurrent access
//
// Implementation Details:
//
//   - Write Index Management: The store maintains an atomic counter that automatically
//     increments with each write operation. This provides a monotonically increasing
//     logical timestamp that ensures consistent ordering of operations and enables
//     keep-while lifetime evaluation to be deterministic.
//
//   - Error Translation: The store does not call SupportsFeature itself; every call
//     goes straight to the underlying db.TreeDB, and any error it returns is
//     translated into a store.Error with a RetCode via store.TranslateDBError.
//
//   - Composition Architecture: The store follows a composition pattern where a
//     db.TreeDB factory function injects the underlying engine. This allows the
//     store to work with any db.TreeDB-compatible engine without modification.
//
// Thread Safety:
//
//	All operations in the local store are thread-safe. The write index is managed
//	using atomic operations that guarantee correct behavior even under concurrent access.
//	The underlying db.TreeDB implementation is expected to provide its own thread safety
//	guarantees for the actual tree mutations.
//
// Usage Example:
//
//	// Create a store with the in-memory tree engine
//	factory := func() db.TreeDB { return grove.New(nil) }
//	store := lstore.NewLocalStore(factory)
//
//	// Store a value at a path
//	pattern, _ := path.ParseString("/sessions/:123")
//	_, err := store.Put(pattern, tree.DataPayload(sessionData))
//
//	// Retrieve the value
//	props, err := store.Get(pattern)
//
// Suitable Use Cases:
//
//	The local store is ideal for:
//	- Ephemeral data that doesn't need to survive process restarts
//	- Single-node applications where distributed consensus is not required
//	- Testing and development environments
//	- Runtime caching and session storage within a single process
//
// Performance Considerations:
//
//	The local store adds minimal overhead to the underlying db.TreeDB implementation.
//	The primary additional cost is the atomic increment operation for write index
//	management, which typically has negligible impact on performance compared to
//	the actual tree mutations.
//
// For distributed scenarios requiring consensus across multiple nodes, consider
// using the dstore package instead, which provides a RAFT-based implementation
// of the same interface with strong consistency guarantees.
package lstore
