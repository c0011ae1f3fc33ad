package grove

import (
	"testing"

	"github.com/grove-db/grove/lib/db"
	"github.com/grove-db/grove/lib/dispatch"
	"github.com/grove-db/grove/lib/path"
	"github.com/grove-db/grove/lib/tree"
)

func woodPattern(t *testing.T) path.Pattern {
	t.Helper()
	pat, err := path.ParseString("/stock/wood/*")
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	return pat
}

// TestCountAgainstNeverWrittenAncestorReturnsZero exercises the same
// walker.Walk path as deleteMany/retroMatches, against a pattern whose
// literal prefix ("stock", "wood") has never been written at all: the
// missing ancestor must not surface as an error, only as zero matches.
func TestCountAgainstNeverWrittenAncestorReturnsZero(t *testing.T) {
	e := New(nil)

	reply, err := e.Query(db.Query{Type: db.QueryCount, Pattern: woodPattern(t)})
	if err != nil {
		t.Fatalf("Query(Count) error: %v", err)
	}
	if count, _ := reply.Value.(int); count != 0 {
		t.Fatalf("expected count 0 against an unwritten ancestor, got %d", count)
	}
}

// TestDeleteManyAgainstNeverWrittenAncestorReturnsZero mirrors the Count
// case for the mutating DeleteMany command.
func TestDeleteManyAgainstNeverWrittenAncestorReturnsZero(t *testing.T) {
	e := New(nil)

	reply, err := e.Apply(1, db.Command{Type: db.CommandDeleteMany, Pattern: woodPattern(t)})
	if err != nil || !reply.Ok {
		t.Fatalf("DeleteMany against an unwritten ancestor should succeed as a no-op: reply=%+v err=%v", reply, err)
	}
	if count, _ := reply.Value.(int); count != 0 {
		t.Fatalf("expected 0 deletions, got %d", count)
	}
}

// TestRegisterProjectionAgainstNeverWrittenAncestorStartsEmpty covers
// spec.md §4.G's registration retroactivity against an ancestor that has
// never been written: it must succeed with an empty initial view rather
// than fail with NodeNotFound.
func TestRegisterProjectionAgainstNeverWrittenAncestorStartsEmpty(t *testing.T) {
	e := New(nil)

	spec := dispatch.ProjectSpec{
		Simple: func(p path.Path, newPayload tree.Payload) (string, any, bool) {
			return p.String(), newPayload.Data, true
		},
	}
	reply, err := e.Apply(1, db.Command{
		Type:           db.CommandRegisterProjection,
		Pattern:        woodPattern(t),
		ProjectionName: "wood-stock",
		ProjectSpec:    spec,
	})
	if err != nil || !reply.Ok {
		t.Fatalf("RegisterProjection against an unwritten ancestor should succeed with an empty view: reply=%+v err=%v", reply, err)
	}

	view := e.dispatch.View("wood-stock")
	if view == nil {
		t.Fatal("expected a view table to have been created at registration")
	}
	if view.Len() != 0 {
		t.Fatalf("expected an empty initial view, got %d entries", view.Len())
	}
}
