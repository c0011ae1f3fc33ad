package internal

import (
	"testing"

	"github.com/grove-db/grove/lib/db"
	"github.com/grove-db/grove/lib/dispatch"
	"github.com/grove-db/grove/lib/path"
	"github.com/grove-db/grove/lib/tree"
	"github.com/grove-db/grove/lib/txn"
)

func literalPattern(names ...string) path.Pattern {
	pat := make(path.Pattern, len(names))
	for i, n := range names {
		pat[i] = path.Literal{ID: path.Name(n)}
	}
	return pat
}

func TestNewCommandSerializeDeserializeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		cmd  db.Command
	}{
		{
			name: "Put with a data payload",
			cmd: db.Command{
				Type:    db.CommandPut,
				Pattern: literalPattern("stock", "wood", "oak"),
				Payload: tree.DataPayload(80),
				Options: db.Options{Timeout: 0, PropsToReturn: []string{"has_payload"}},
			},
		},
		{
			name: "Delete",
			cmd: db.Command{
				Type:    db.CommandDelete,
				Pattern: literalPattern("stock", "wood", "oak"),
			},
		},
		{
			name: "CompareAndSwap with a structural condition, not a closure",
			cmd: db.Command{
				Type:        db.CommandCompareAndSwap,
				Pattern:     literalPattern("cas"),
				Payload:     tree.DataPayload("swapped"),
				DataMatches: path.HasData{},
			},
		},
		{
			name: "PutMany batch",
			cmd: db.Command{
				Type: db.CommandPutMany,
				Items: []db.PutManyItem{
					{Pattern: literalPattern("many", "a"), Payload: tree.DataPayload(1)},
					{Pattern: literalPattern("many", "b"), Payload: tree.DataPayload(2),
						KeepWhile: []db.KeepWhileSpec{{Watched: path.Path{path.Name("many"), path.Name("a")}, Cond: path.NodeExists{Want: true}}}},
				},
			},
		},
		{
			name: "RegisterTrigger",
			cmd: db.Command{
				Type:           db.CommandRegisterTrigger,
				Pattern:        literalPattern("stock", "*"),
				TriggerID:      "low-stock",
				Filter:         dispatch.EventFilter{Pattern: literalPattern("stock", "*"), Actions: map[dispatch.Action]bool{dispatch.ActionUpdate: true}},
				StoredProcPath: path.Path{path.Name("sprocs"), path.Name("restock")},
				Priority:       5,
			},
		},
		{
			name: "Put with a binary node identifier",
			cmd: db.Command{
				Type:    db.CommandPut,
				Pattern: path.Pattern{path.Literal{ID: path.Bytes([]byte{0, 1, 2, 254, 255})}},
				Payload: tree.DataPayload([]byte("unicode test 你好世界")),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wire, err := NewCommand(tt.cmd)
			if err != nil {
				t.Fatalf("NewCommand() error = %v", err)
			}

			data := wire.Serialize()

			var decoded Command
			if err := decoded.Deserialize(data); err != nil {
				t.Fatalf("Deserialize() error = %v", err)
			}

			if decoded.Type != tt.cmd.Type {
				t.Errorf("Type mismatch: got %v, want %v", decoded.Type, tt.cmd.Type)
			}
			if len(decoded.Pattern) != len(tt.cmd.Pattern) {
				t.Errorf("Pattern length mismatch: got %d, want %d", len(decoded.Pattern), len(tt.cmd.Pattern))
			}
			if decoded.TriggerID != tt.cmd.TriggerID {
				t.Errorf("TriggerID mismatch: got %q, want %q", decoded.TriggerID, tt.cmd.TriggerID)
			}
			if decoded.Priority != tt.cmd.Priority {
				t.Errorf("Priority mismatch: got %d, want %d", decoded.Priority, tt.cmd.Priority)
			}

			// Round-tripping through ToDBCommand must preserve enough of the
			// original to be re-applied deterministically on every replica.
			back := decoded.ToDBCommand()
			if back.Type != tt.cmd.Type {
				t.Errorf("ToDBCommand Type mismatch: got %v, want %v", back.Type, tt.cmd.Type)
			}
		})
	}
}

func TestNewCommandRejectsUnencodableCommands(t *testing.T) {
	tests := []struct {
		name string
		cmd  db.Command
	}{
		{
			name: "RegisterProjection is node-local, not replicated",
			cmd:  db.Command{Type: db.CommandRegisterProjection, ProjectionName: "by-path"},
		},
		{
			name: "RunTransaction with an inline closure",
			cmd: db.Command{
				Type: db.CommandRunTransaction,
				TxSpec: txn.TxSpec{
					Fn: func(tx txn.Tx) (any, error) { return tx.Exists(literalPattern("x")) },
				},
			},
		},
		{
			name: "CompareAndSwap with a DataMatches closure predicate",
			cmd: db.Command{
				Type:        db.CommandCompareAndSwap,
				Pattern:     literalPattern("cas"),
				DataMatches: path.DataMatches{Predicate: func(any) bool { return true }},
			},
		},
		{
			name: "Put with a keep_while DataMatches predicate",
			cmd: db.Command{
				Type:    db.CommandPut,
				Pattern: literalPattern("watcher"),
				Options: db.Options{KeepWhile: []db.KeepWhileSpec{
					{Watched: path.Path{path.Name("watched")}, Cond: path.DataMatches{Predicate: func(any) bool { return true }}},
				}},
			},
		},
		{
			name: "PutMany item with an unencodable pattern condition",
			cmd: db.Command{
				Type: db.CommandPutMany,
				Items: []db.PutManyItem{
					{Pattern: path.Pattern{path.Cond{Condition: path.DataMatches{Predicate: func(any) bool { return true }}}}, Payload: tree.DataPayload(1)},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewCommand(tt.cmd); err == nil {
				t.Fatalf("expected NewCommand to reject %s, got nil error", tt.name)
			}
		})
	}
}

func TestNewQueryRejectsUnencodablePattern(t *testing.T) {
	q := db.Query{
		Type:    db.QueryGet,
		Pattern: path.Pattern{path.Cond{Condition: path.DataMatches{Predicate: func(any) bool { return true }}}},
	}
	if _, err := NewQuery(q); err == nil {
		t.Fatalf("expected NewQuery to reject a pattern with a DataMatches condition")
	}
}

func TestNewQueryRoundTrip(t *testing.T) {
	q := db.Query{Type: db.QueryCount, Pattern: literalPattern("count", "*")}
	wire, err := NewQuery(q)
	if err != nil {
		t.Fatalf("NewQuery() error = %v", err)
	}
	back := wire.ToDBQuery()
	if back.Type != q.Type || len(back.Pattern) != len(q.Pattern) {
		t.Errorf("ToDBQuery mismatch: got %+v, want %+v", back, q)
	}
}
