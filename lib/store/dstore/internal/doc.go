// Package internal provides the wire envelope and serialization logic for
// the dstore package. It defines the format used to propose operations to
// the RAFT log and to address local reads on the state machine.
//
// This package is intended for internal use by the dstore implementation and
// should not be imported directly by external code.
//
// The package consists of two main components:
//
//   - Command: a gob-encodable mirror of db.Command used to propose mutating
//     operations (Put, Create, Update, CompareAndSwap, Delete, DeleteMany,
//     DeletePayload, RegisterTrigger, RunStoredProc) through the RAFT log.
//     A handful of db.Command shapes have no wire form and are rejected by
//     NewCommand before they ever reach the log: CommandRegisterProjection
//     (its callback is a closure with no serializable representation) and
//     RunTransaction with an inline TxSpec.Fn (RunStoredProc addresses a
//     procedure registered identically on every replica instead).
//
//   - Query: a gob-encodable mirror of db.Query used for read operations
//     (Get, Exists, Count, GetDBInfo) executed locally against the state
//     machine's current snapshot; queries never enter the RAFT log.
//
// Conditions embedded in a Pattern, Command.DataMatches, or a keep-while
// watcher may reference path.DataMatches, which wraps an arbitrary
// predicate function. Such conditions have no wire form either and are
// rejected by NewCommand/NewQuery via path.HasUnencodableCondition and
// path.PatternHasUnencodableCondition.
package internal
