// Package testing provides standardised tests and benchmarks for
// database implementations that satisfy the db.TreeDB interface.
//
// The package contains:
//   - RunTreeDBTests: A comprehensive test suite for validating conformance to the TreeDB interface contract
//   - RunTreeDBBenchmarks: Performance tests for measuring throughput of common tree operations
//
// This package is particularly useful for:
//   - Applications that need to select the most appropriate engine implementation
//     based on performance characteristics
//   - Engine developers implementing the TreeDB interface
//
// Example usage:
//
//	// Creating a factory function for your implementation
//	factory := func() db.TreeDB {
//		return NewMyEngine()
//	}
//
//	// Running the standard test suite
//	testing.RunTreeDBTests(t, "MyEngine", factory)
//
//	// Running performance benchmarks
//	testing.RunTreeDBBenchmarks(b, "MyEngine", factory)
package testing
