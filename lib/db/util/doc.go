// Package util provides utility components for
// database implementations that satisfy the db.TreeDB interface.
//
// The package contains:
//   - statistics: Utility tools for analyzing database characteristics and a SizeHistogram for tracking data size distribution
//   - functions: Hash functions and other utility functions
//   - lockfreempsc: A lock-free Multi-Producer Single-Consumer (MPSC) queue implementation build for high throughput and low latency
//
// This package is particularly useful for:
//   - Database developers implementing the TreeDB interface
//   - Decoupling event emission from event dispatch, the way engines/grove's
//     Engine.events queue uses lockfreempsc
//   - Monitoring systems that need to track database size and distribution metrics
//
// Each component is designed to work with any implementation of the db.TreeDB interface,
// allowing for consistent validation and measurement across different storage backends.
package util
