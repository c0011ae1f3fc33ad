package common

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/grove-db/grove/lib/db"
	"github.com/grove-db/grove/lib/dispatch"
	"github.com/grove-db/grove/lib/path"
	"github.com/grove-db/grove/lib/tree"
)

// RPCCommand and RPCQuery are the wire envelopes a Message carries across
// an RPC transport. They mirror lib/store/dstore/internal's Command/Query
// (same restrictions: no inline TxSpec.Fn, no DataMatches condition, no
// CommandRegisterProjection) rather than importing that package directly,
// since it lives under dstore's internal/ and Go forbids importing an
// internal package from outside its parent tree. An RPC client talking to
// a remote ITreeStore has to obey the same wire-safety rules a Raft log
// entry does: anything with a closure cannot leave the process it was
// built in.
type RPCCommand struct {
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

// NewRPCCommand builds an RPCCommand from a db.Command, rejecting anything
// that cannot cross the wire rather than failing deep inside gob.
func NewRPCCommand(cmd db.Command) (RPCCommand, error) {
	if cmd.Type == db.CommandRegisterProjection {
		return RPCCommand{}, fmt.Errorf("%s has no RPC form, register it directly against the node's local store", cmd.Type)
	}
	if cmd.Type == db.CommandRunTransaction && cmd.TxSpec.Fn != nil {
		return RPCCommand{}, fmt.Errorf("RunTransaction with an inline function cannot cross the wire, use a registered stored procedure")
	}
	if path.HasUnencodableCondition(cmd.DataMatches) || path.PatternHasUnencodableCondition(cmd.Pattern) {
		return RPCCommand{}, fmt.Errorf("%s: a DataMatches predicate cannot cross the wire", cmd.Type)
	}
	for _, kw := range cmd.Options.KeepWhile {
		if path.HasUnencodableCondition(kw.Cond) {
			return RPCCommand{}, fmt.Errorf("%s: a DataMatches keep_while predicate cannot cross the wire", cmd.Type)
		}
	}
	for _, item := range cmd.Items {
		if path.PatternHasUnencodableCondition(item.Pattern) {
			return RPCCommand{}, fmt.Errorf("%s: an item pattern's DataMatches predicate cannot cross the wire", cmd.Type)
		}
		for _, kw := range item.KeepWhile {
			if path.HasUnencodableCondition(kw.Cond) {
				return RPCCommand{}, fmt.Errorf("%s: an item's keep_while predicate cannot cross the wire", cmd.Type)
			}
		}
	}
	return RPCCommand{
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

// ToDBCommand rebuilds the db.Command the adapter applies against its local store.
func (c RPCCommand) ToDBCommand() db.Command {
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

// Serialize gob-encodes the command for embedding in a Message.
func (c RPCCommand) Serialize() []byte {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(c); err != nil {
		panic(fmt.Errorf("rpc: command encode: %w", err))
	}
	return buf.Bytes()
}

// DeserializeCommand decodes a command previously produced by Serialize.
func DeserializeCommand(data []byte) (RPCCommand, error) {
	var c RPCCommand
	err := gob.NewDecoder(bytes.NewReader(data)).Decode(&c)
	return c, err
}

// RPCQuery is the wire envelope for a read-only lookup.
type RPCQuery struct {
	Type    db.QueryType
	Pattern path.Pattern
	Options db.Options
}

// NewRPCQuery validates that q can cross the wire.
func NewRPCQuery(q db.Query) (RPCQuery, error) {
	if path.PatternHasUnencodableCondition(q.Pattern) {
		return RPCQuery{}, fmt.Errorf("query pattern contains a DataMatches predicate, which cannot cross the wire")
	}
	return RPCQuery{Type: q.Type, Pattern: q.Pattern, Options: q.Options}, nil
}

func (q RPCQuery) ToDBQuery() db.Query {
	return db.Query{Type: q.Type, Pattern: q.Pattern, Options: q.Options}
}

// Serialize gob-encodes the query for embedding in a Message.
func (q RPCQuery) Serialize() []byte {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(q); err != nil {
		panic(fmt.Errorf("rpc: query encode: %w", err))
	}
	return buf.Bytes()
}

// DeserializeQuery decodes a query previously produced by Serialize.
func DeserializeQuery(data []byte) (RPCQuery, error) {
	var q RPCQuery
	err := gob.NewDecoder(bytes.NewReader(data)).Decode(&q)
	return q, err
}

// gobValue/gobPath/gobProps are small helpers shared by the server adapter
// and client so Message.Value/Path/Props stay opaque gob blobs no matter
// which IRPCSerializer wraps the outer Message.

func EncodeValue(v any) []byte {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		panic(fmt.Errorf("rpc: value encode: %w", err))
	}
	return buf.Bytes()
}

func DecodeValue(data []byte, out any) error {
	if len(data) == 0 {
		return nil
	}
	return gob.NewDecoder(bytes.NewReader(data)).Decode(out)
}

func EncodePath(p path.Path) []byte {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(p); err != nil {
		panic(fmt.Errorf("rpc: path encode: %w", err))
	}
	return buf.Bytes()
}

func DecodePath(data []byte) (path.Path, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var p path.Path
	err := gob.NewDecoder(bytes.NewReader(data)).Decode(&p)
	return p, err
}

func EncodeProps(p path.NodeProps) []byte {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(p); err != nil {
		panic(fmt.Errorf("rpc: props encode: %w", err))
	}
	return buf.Bytes()
}

func DecodeProps(data []byte) (path.NodeProps, error) {
	var p path.NodeProps
	if len(data) == 0 {
		return p, nil
	}
	err := gob.NewDecoder(bytes.NewReader(data)).Decode(&p)
	return p, err
}
