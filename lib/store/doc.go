// Package store provides a high-level interface for replicated tree
// storage operations, adding write-index management, standardized error
// reporting, and a pluggable backend on top of the lower-level db.TreeDB
// implementations.
//
// The package focuses on:
//   - A unified interface (ITreeStore) for tree operations across backends
//   - Pluggable storage backend architecture through the DBFactory pattern
//
// Key Components:
//
//   - ITreeStore Interface: The core abstraction defining operations for
//     interacting with a hierarchical path-addressed tree. All implementations
//     share this common interface, allowing applications to switch between
//     local and distributed backends without code changes. Methods return
//     custom Error types that provide detailed information about operation
//     results.
//
//   - Error System: A structured error reporting mechanism using typed error
//     codes and descriptive messages. This system allows applications to make
//     informed decisions based on specific error conditions rather than
//     generic errors.
//
//   - DBFactory: A function type that abstracts the creation of underlying
//     db.TreeDB instances, providing dependency injection and flexible
//     configuration of storage backends.
//
// Implementations:
//
//	The package includes two implementations of the ITreeStore interface:
//
//	- Local Store (lstore): A simple, non-distributed implementation that directly
//	  utilizes a db.TreeDB instance. It manages write index progression internally
//	  using atomic operations to ensure thread safety. This implementation is suitable
//	  for single-node applications where distributed consensus is not required.
//	  Available in the "github.com/grove-db/grove/lib/store/lstore" package.
//
//	- Distributed Store (dstore): An implementation built on the Dragonboat
//	  RAFT consensus library. It distributes tree mutations across multiple nodes
//	  with strong consistency guarantees. This implementation is appropriate for
//	  multi-node deployments requiring fault tolerance and high availability.
//	  Available in the "github.com/grove-db/grove/lib/store/dstore" package.
//
// This interface-driven approach allows applications to:
//   - Switch between local and distributed storage depending on deployment requirements
//   - Handle errors in a consistent and type-safe manner across implementations
//   - Abstract storage implementation details from application logic
package store
