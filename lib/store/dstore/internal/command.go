// Package internal defines the gob-encoded envelope carried through a
// Raft log entry: the wire-safe mirror of db.Command/db.Query that the
// state machine decodes before calling into a TreeDB.
//
// Not every db.Command is representable here. A DataMatches condition
// wraps a Go closure and a ProjectSpec wraps one or two, and neither can
// survive a gob round trip, so CommandRegisterProjection has no wire
// form at all (the Dispatcher that runs projections is explicitly
// node-local, see lib/dispatch's package doc, so a projection is
// registered identically on every replica's boot sequence rather than
// proposed through the log) and any CompareAndSwap/Create/Update whose
// DataMatches condition is a DataMatches is rejected by NewCommand before
// it ever reaches SyncPropose.
package internal

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/grove-db/grove/lib/db"
	"github.com/grove-db/grove/lib/dispatch"
	"github.com/grove-db/grove/lib/path"
	"github.com/grove-db/grove/lib/tree"
)

// Command is the replicated-log entry format for every mutating
// operation db.TreeDB.Apply accepts, except CommandRegisterProjection
// (see package doc) and any inline transaction function (RunTransaction
// always carries a StoredProcPath reference instead of a closure).
type Command struct {
	Type        db.CommandType
	Pattern     path.Pattern
	Payload     tree.Payload
	Options     db.Options
	DataMatches path.Condition
	Items       []db.PutManyItem

	TriggerID      string
	Filter         dispatch.EventFilter
	StoredProcPath path.Path
	Priority       int
}

// NewCommand builds a Command from a db.Command, rejecting anything that
// cannot be represented on the wire rather than failing deep inside gob.
func NewCommand(cmd db.Command) (Command, error) {
	if cmd.Type == db.CommandRegisterProjection {
		return Command{}, fmt.Errorf("%s is not replicated through the log, register it locally on every replica", cmd.Type)
	}
	if cmd.Type == db.CommandRunTransaction && cmd.TxSpec.Fn != nil {
		return Command{}, fmt.Errorf("RunTransaction with an inline function cannot be replicated, use a registered stored procedure")
	}
	if path.HasUnencodableCondition(cmd.DataMatches) || path.PatternHasUnencodableCondition(cmd.Pattern) {
		return Command{}, fmt.Errorf("%s: a DataMatches predicate cannot be replicated through the log", cmd.Type)
	}
	for _, kw := range cmd.Options.KeepWhile {
		if path.HasUnencodableCondition(kw.Cond) {
			return Command{}, fmt.Errorf("%s: a DataMatches keep_while predicate cannot be replicated through the log", cmd.Type)
		}
	}
	for _, item := range cmd.Items {
		if path.PatternHasUnencodableCondition(item.Pattern) {
			return Command{}, fmt.Errorf("%s: an item pattern's DataMatches predicate cannot be replicated through the log", cmd.Type)
		}
		for _, kw := range item.KeepWhile {
			if path.HasUnencodableCondition(kw.Cond) {
				return Command{}, fmt.Errorf("%s: an item's keep_while predicate cannot be replicated through the log", cmd.Type)
			}
		}
	}
	return Command{
		Type:           cmd.Type,
		Pattern:        cmd.Pattern,
		Payload:        cmd.Payload,
		Options:        cmd.Options,
		DataMatches:    cmd.DataMatches,
		Items:          cmd.Items,
		TriggerID:      cmd.TriggerID,
		Filter:         cmd.Filter,
		StoredProcPath: cmd.StoredProcPath,
		Priority:       cmd.Priority,
	}, nil
}

// ToDBCommand rebuilds the db.Command the state machine applies.
func (c Command) ToDBCommand() db.Command {
	return db.Command{
		Type:           c.Type,
		Pattern:        c.Pattern,
		Payload:        c.Payload,
		Options:        c.Options,
		DataMatches:    c.DataMatches,
		Items:          c.Items,
		TriggerID:      c.TriggerID,
		Filter:         c.Filter,
		StoredProcPath: c.StoredProcPath,
		Priority:       c.Priority,
	}
}

// Serialize gob-encodes the command for SyncPropose. The tree command set
// has too much variant shape (patterns of arbitrary length, optional
// conditions, option bags) for a fixed-width binary layout to stay
// maintainable, so this module uses gob the same way lib/db/engines/grove
// uses it for snapshots.
func (c Command) Serialize() []byte {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(c); err != nil {
		// Encoding failure here means a caller bypassed NewCommand and put
		// an unencodable value (a closure) directly into a field; that is
		// a programmer error, not a runtime condition to recover from.
		panic(fmt.Errorf("dstore: command encode: %w", err))
	}
	return buf.Bytes()
}

// Deserialize decodes a command previously produced by Serialize.
func (c *Command) Deserialize(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(c)
}
