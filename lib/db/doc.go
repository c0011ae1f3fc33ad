// Package db provides a standardized interface for hierarchical,
// path-addressed tree database implementations. It defines a comprehensive
// TreeDB interface that allows for consistent interaction with the engine
// that backs a store, while abstracting implementation details.
//
// The package focuses on:
//   - A unified interface for tree mutation and query operations
//   - Feature discovery through capability flags
//   - Standardized persistence operations
//   - Comprehensive metadata reporting
//
// Key Components:
//
//   - TreeDB Interface: The core interface that all engine implementations
//     must satisfy. It provides methods for applying a Command (Put, Create,
//     Update, CompareAndSwap, Delete, DeleteMany, DeletePayload,
//     RegisterTrigger, RegisterProjection, RunTransaction, which also runs
//     a stored procedure by path),
//     running a Query (Get, Exists, Count, GetDBInfo), and persistence
//     operations (Save, Load).
//
//   - Feature Flags: The Feature type defines capability flags that
//     implementations can advertise through the SupportsFeature method. This
//     allows clients to discover supported operations at runtime.
//
//   - Implementation Identifiers: The Implementation type provides string
//     constants for different engine backends (currently "grove").
//
//   - Database Information: The DatabaseInfo structure provides standardized
//     reporting on database state, including size statistics, implementation
//     type, and implementation-specific metadata. Note: for most
//     implementations all size statistics will be estimated since a precise
//     calculation can be expensive.
//
// This interface-driven approach allows applications to:
//   - Swap engine implementations without code changes
//   - Gracefully handle operations not supported by specific implementations
//   - Maintain consistent behavior across different storage backends
//   - Collect standardized metrics for monitoring and management
//
// Note on Write Ordering:
//   - Every mutating Command carries a write-index parameter supplied by the
//     store layer (the Raft log index in dstore, a local counter in lstore).
//     engines/grove keeps the highest index it has applied and saves it with
//     its snapshot; nodes and keep-while edges do not record it.
//   - Query operations do not accept a write-index; they always observe the
//     most recently applied write.
//   - Monotonicity Guarantee: implementations must ensure the write-index
//     only increases monotonically.
//
// Note on Cascading Deletion:
//   - Implementations must support keep-while lifetime edges and ensure that
//     a node is removed, together with its subtree, as soon as any one of
//     its keep-while conditions stops holding; that removal can in turn
//     remove further watchers.
//   - External Consistency: a Query must never observe a node that has lost
//     any of its keep-while support, even if internal bookkeeping has not yet
//     finished the cascade.
//
// Related Packages:
//
// The engines/grove package (github.com/grove-db/grove/lib/db/engines/grove) provides
// the reference implementation of the TreeDB interface: an in-memory tree guarded by a
// keep-while lifetime graph and observed by a trigger/projection dispatcher, with a
// sandboxed transaction evaluator for multi-path atomic updates.
//
// The util package (github.com/grove-db/grove/lib/db/util) provides complementary
// tools for working with db.TreeDB implementations:
//   - SizeHistogram: Utilities for analyzing data size distributions
//   - LockFreeMPSC: A lock-free multi-producer single-consumer queue, used by
//     engines/grove to decouple emitting change events from dispatching them
//   - ... and more
//
// The testing package (github.com/grove-db/grove/lib/db/testing) provides
// standardized tests and benchmarks for database implementations that satisfy the db.TreeDB interface.
//   - RunTreeDBTests: Runs a standardized test suite to validate implementations
//   - RunTreeDBBenchmarks: Provides performance benchmarks for comparing implementations
package db
