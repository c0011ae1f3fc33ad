package tree

import (
	"testing"

	"github.com/grove-db/grove/lib/path"
)

func TestInsertCreatesMissingParents(t *testing.T) {
	tr := New()
	p, _ := path.ParsePath("/stock/wood/oak")

	node, created, err := tr.Insert(p, true)
	if err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	if !created {
		t.Error("expected created=true for a fresh node")
	}
	if node.Payload.HasPayload() {
		t.Error("expected None payload on newly created node")
	}

	if _, ok := tr.Get(p); !ok {
		t.Fatal("expected node to exist after insert")
	}
}

func TestInsertWithoutCreateMissingParentsFails(t *testing.T) {
	tr := New()
	p, _ := path.ParsePath("/stock/wood/oak")
	if _, _, err := tr.Insert(p, false); err == nil {
		t.Fatal("expected error when intermediates are missing")
	}
}

func TestInsertThenSetPayloadStartsAtOne(t *testing.T) {
	tr := New()
	p, _ := path.ParsePath("/stock/oak")
	tr.Insert(p, true)

	node, _ := tr.Get(p)
	if node.PayloadVersion != 0 {
		t.Errorf("expected a freshly inserted node to have payload_version 0, got %d", node.PayloadVersion)
	}

	// first write after Insert, the same sequence put() uses, must land on 1.
	if err := tr.SetPayload(p, DataPayload(80)); err != nil {
		t.Fatalf("SetPayload error: %v", err)
	}
	if node.PayloadVersion != 1 {
		t.Errorf("expected version 1 on first write, got %d", node.PayloadVersion)
	}

	// writing the identical payload still increments the version.
	if err := tr.SetPayload(p, DataPayload(80)); err != nil {
		t.Fatalf("SetPayload error: %v", err)
	}
	if node.PayloadVersion != 2 {
		t.Errorf("expected version 2, got %d", node.PayloadVersion)
	}
}

func TestRemoveResetsIdentity(t *testing.T) {
	tr := New()
	p, _ := path.ParsePath("/stock/oak")
	tr.Insert(p, true)
	tr.SetPayload(p, DataPayload(1))

	if err := tr.Remove(p); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if _, ok := tr.Get(p); ok {
		t.Fatal("expected node to be gone after Remove")
	}

	node, created, err := tr.Insert(p, true)
	if err != nil {
		t.Fatalf("Insert after remove error: %v", err)
	}
	if !created {
		t.Error("expected created=true on re-creation")
	}
	if node.PayloadVersion != 0 {
		t.Errorf("expected a freshly re-created node to start at payload_version 0, got %d", node.PayloadVersion)
	}

	// the same Insert+SetPayload sequence put() runs must bring a
	// re-created node's version back to 1, exactly like a brand new one.
	if err := tr.SetPayload(p, DataPayload(2)); err != nil {
		t.Fatalf("SetPayload error: %v", err)
	}
	if node.PayloadVersion != 1 {
		t.Errorf("expected payload_version 1 after re-creation's first write, got %d", node.PayloadVersion)
	}
}

func TestChildListVersionOnlyBumpsOnDirectChildChange(t *testing.T) {
	tr := New()
	stock, _ := path.ParsePath("/stock")
	tr.Insert(stock, true)

	node, _ := tr.Get(stock)
	v0 := node.ChildListVersion

	oak, _ := path.ParsePath("/stock/oak")
	tr.Insert(oak, true)
	if node.ChildListVersion != v0+1 {
		t.Errorf("expected child_list_version %d, got %d", v0+1, node.ChildListVersion)
	}

	// a payload update on the grandchild must not bump stock's version.
	tr.SetPayload(oak, DataPayload(5))
	if node.ChildListVersion != v0+1 {
		t.Errorf("child_list_version changed on unrelated payload update: %d", node.ChildListVersion)
	}
}

func TestChildrenOrderedByIdentifier(t *testing.T) {
	tr := New()
	for _, name := range []string{"oak", "birch", "maple"} {
		p, _ := path.ParsePath("/stock/" + name)
		tr.Insert(p, true)
	}
	root, _ := path.ParsePath("/stock")
	entries, err := tr.Children(root)
	if err != nil {
		t.Fatalf("Children error: %v", err)
	}
	for i := 1; i < len(entries); i++ {
		if entries[i-1].ID.String() > entries[i].ID.String() {
			t.Fatalf("children not sorted: %v before %v", entries[i-1].ID, entries[i].ID)
		}
	}
}
