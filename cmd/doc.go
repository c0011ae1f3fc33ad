// Package cmd implements the command-line interface for the grove replicated
// tree store. It provides a hierarchical command structure with operations
// for running the server and interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - tree: Commands for tree store operations (put, get, delete, count, etc.)
//   - trigger: Commands for registering change triggers
//   - serve: Commands for starting and configuring the grove server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See grove -help for a list of all commands.
package cmd
