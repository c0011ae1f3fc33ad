package db

import (
	"time"

	"github.com/grove-db/grove/lib/dispatch"
	"github.com/grove-db/grove/lib/path"
	"github.com/grove-db/grove/lib/tree"
	"github.com/grove-db/grove/lib/txn"
)

// CommandType enumerates the mutating operations the state machine
// applies deterministically.
type CommandType uint8

const (
	CommandPut CommandType = iota
	CommandPutMany
	CommandCreate
	CommandUpdate
	CommandCompareAndSwap
	CommandDelete
	CommandDeleteMany
	CommandDeletePayload
	CommandRegisterTrigger
	CommandRegisterProjection
	CommandRunTransaction
)

func (t CommandType) String() string {
	switch t {
	case CommandPut:
		return "Put"
	case CommandPutMany:
		return "PutMany"
	case CommandCreate:
		return "Create"
	case CommandUpdate:
		return "Update"
	case CommandCompareAndSwap:
		return "CompareAndSwap"
	case CommandDelete:
		return "Delete"
	case CommandDeleteMany:
		return "DeleteMany"
	case CommandDeletePayload:
		return "DeletePayload"
	case CommandRegisterTrigger:
		return "RegisterTrigger"
	case CommandRegisterProjection:
		return "RegisterProjection"
	case CommandRunTransaction:
		return "RunTransaction"
	default:
		return "Unknown"
	}
}

// FavorMode tunes read freshness for queries (timeout/async are shared
// with mutations via Options; favor is query-only).
type FavorMode uint8

const (
	FavorConsistency FavorMode = iota // read-after-quorum
	FavorCompromise                   // leader read, periodic quorum checks
	FavorLowLatency                   // local replica read, possibly stale
)

// KeepWhileSpec is one watched-path/condition pair to install atomically
// with a mutation via the keep_while option.
type KeepWhileSpec struct {
	Watched path.Path
	Cond    path.Condition
}

// PutManyItem is one (pattern, payload, keep_while) triple in a
// CommandPutMany batch. Each item resolves and applies exactly like a
// standalone Put, but the whole batch is one deterministic command:
// either every item is applied and one Reply.Matches map comes back, or
// the first item that fails to resolve aborts the batch before any
// further item is touched.
type PutManyItem struct {
	Pattern   path.Pattern
	Payload   tree.Payload
	KeepWhile []KeepWhileSpec
}

// Options bundles every option recognized on commands/queries.
type Options struct {
	Timeout            time.Duration
	Async              bool
	Priority           int
	Correlation        string
	Favor              FavorMode
	KeepWhile          []KeepWhileSpec
	PropsToReturn      []string
	ExpectSpecificNode bool
	IncludeRootProps   bool
}

// Command is a single deterministic state machine input: exactly the
// fields its Type uses are populated.
type Command struct {
	Type    CommandType
	Pattern path.Pattern
	Payload tree.Payload
	Options Options

	// CommandCompareAndSwap
	DataMatches path.Condition

	// CommandPutMany
	Items []PutManyItem

	// CommandRegisterTrigger
	TriggerID      string
	Filter         dispatch.EventFilter
	StoredProcPath path.Path
	Priority       int

	// CommandRegisterProjection
	ProjectionName  string
	ProjectSpec     dispatch.ProjectSpec
	RegisterOptions dispatch.RegisterOptions

	// CommandRunTransaction
	TxSpec txn.TxSpec
}

// Reply covers the minimal, single-node, and many-node result shapes a
// command can produce. Options.Async and Options.Correlation are not
// acted on: every command is applied and replied to synchronously, and
// Correlation is left empty.
type Reply struct {
	Ok          bool
	Err         *Error
	Match       *path.NodeProps
	MatchPath   path.Path
	Matches     map[string]path.NodeProps
	Value       any
	Correlation string
}
