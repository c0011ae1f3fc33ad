package testing

import (
	"bytes"
	"testing"

	"github.com/grove-db/grove/lib/db"
	"github.com/grove-db/grove/lib/path"
	"github.com/grove-db/grove/lib/tree"
)

// DBFactory is a function that creates a new instance of a TreeDB implementation.
type DBFactory func() db.TreeDB

// RunTreeDBTests runs a comprehensive test suite for a TreeDB implementation.
func RunTreeDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("PutCreateGet", func(t *testing.T) {
			testPutCreateGet(t, factory())
		})

		t.Run("Update", func(t *testing.T) {
			testUpdate(t, factory())
		})

		t.Run("CompareAndSwap", func(t *testing.T) {
			testCompareAndSwap(t, factory())
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory())
		})

		t.Run("DeleteMany", func(t *testing.T) {
			testDeleteMany(t, factory())
		})

		t.Run("Exists", func(t *testing.T) {
			testExists(t, factory())
		})

		t.Run("Count", func(t *testing.T) {
			testCount(t, factory())
		})

		t.Run("GetDBInfo", func(t *testing.T) {
			testGetDBInfo(t, factory())
		})

		t.Run("SupportsFeature", func(t *testing.T) {
			testSupportsFeature(t, factory())
		})

		t.Run("SaveLoad", func(t *testing.T) {
			testSaveLoad(t, factory, factory())
		})
	})
}

func mustPath(t *testing.T, s string) path.Path {
	t.Helper()
	p, err := path.ParsePath(s)
	if err != nil {
		t.Fatalf("failed to parse path %q: %v", s, err)
	}
	return p
}

func patternOf(t *testing.T, p path.Path) path.Pattern {
	t.Helper()
	pat := make(path.Pattern, len(p))
	for i, id := range p {
		pat[i] = path.Literal{ID: id}
	}
	return pat
}

func testPutCreateGet(t *testing.T, d db.TreeDB) {
	p := mustPath(t, "/a/b")

	reply, err := d.Apply(1, db.Command{
		Type:    db.CommandPut,
		Pattern: patternOf(t, p),
		Payload: tree.DataPayload("hello"),
	})
	if err != nil || !reply.Ok {
		t.Fatalf("Put failed: reply=%+v err=%v", reply, err)
	}

	getReply, err := d.Query(db.Query{Type: db.QueryGet, Pattern: patternOf(t, p)})
	if err != nil || !getReply.Ok {
		t.Fatalf("Get after Put failed: reply=%+v err=%v", getReply, err)
	}
	if getReply.Match == nil || !getReply.Match.HasData {
		t.Fatalf("expected a node with data, got %+v", getReply.Match)
	}

	// Create must fail against an existing node.
	createReply, err := d.Apply(2, db.Command{
		Type:    db.CommandCreate,
		Pattern: patternOf(t, p),
		Payload: tree.DataPayload("again"),
	})
	if err == nil && createReply.Ok {
		t.Fatalf("expected Create to fail against an existing node")
	}

	// Create on a new path must succeed.
	fresh := mustPath(t, "/a/c")
	createReply, err = d.Apply(3, db.Command{
		Type:    db.CommandCreate,
		Pattern: patternOf(t, fresh),
		Payload: tree.DataPayload("fresh"),
	})
	if err != nil || !createReply.Ok {
		t.Fatalf("Create on fresh path failed: reply=%+v err=%v", createReply, err)
	}
}

func testUpdate(t *testing.T, d db.TreeDB) {
	p := mustPath(t, "/x")

	if _, err := d.Apply(1, db.Command{Type: db.CommandPut, Pattern: patternOf(t, p), Payload: tree.DataPayload("v1")}); err != nil {
		t.Fatalf("setup Put failed: %v", err)
	}

	reply, err := d.Apply(2, db.Command{Type: db.CommandUpdate, Pattern: patternOf(t, p), Payload: tree.DataPayload("v2")})
	if err != nil || !reply.Ok {
		t.Fatalf("Update failed: reply=%+v err=%v", reply, err)
	}

	missing := mustPath(t, "/does-not-exist")
	reply, err = d.Apply(3, db.Command{Type: db.CommandUpdate, Pattern: patternOf(t, missing), Payload: tree.DataPayload("v3")})
	if err == nil && reply.Ok {
		t.Fatalf("expected Update against a missing node to fail")
	}
}

func testCompareAndSwap(t *testing.T, d db.TreeDB) {
	p := mustPath(t, "/cas")

	if _, err := d.Apply(1, db.Command{Type: db.CommandPut, Pattern: patternOf(t, p), Payload: tree.DataPayload("initial")}); err != nil {
		t.Fatalf("setup Put failed: %v", err)
	}

	reply, err := d.Apply(2, db.Command{
		Type:        db.CommandCompareAndSwap,
		Pattern:     patternOf(t, p),
		Payload:     tree.DataPayload("swapped"),
		DataMatches: path.HasData{},
	})
	if err != nil || !reply.Ok {
		t.Fatalf("CompareAndSwap against matching condition failed: reply=%+v err=%v", reply, err)
	}

	reply, err = d.Apply(3, db.Command{
		Type:        db.CommandCompareAndSwap,
		Pattern:     patternOf(t, p),
		Payload:     tree.DataPayload("rejected"),
		DataMatches: path.NodeExists{Want: false},
	})
	if err == nil && reply.Ok {
		t.Fatalf("expected CompareAndSwap to fail when DataMatches does not hold")
	}
}

func testDelete(t *testing.T, d db.TreeDB) {
	p := mustPath(t, "/del")

	if _, err := d.Apply(1, db.Command{Type: db.CommandPut, Pattern: patternOf(t, p), Payload: tree.DataPayload("v")}); err != nil {
		t.Fatalf("setup Put failed: %v", err)
	}

	reply, err := d.Apply(2, db.Command{Type: db.CommandDelete, Pattern: patternOf(t, p)})
	if err != nil || !reply.Ok {
		t.Fatalf("Delete failed: reply=%+v err=%v", reply, err)
	}

	existsReply, err := d.Query(db.Query{Type: db.QueryExists, Pattern: patternOf(t, p)})
	if err != nil {
		t.Fatalf("Exists after Delete failed: %v", err)
	}
	if exists, _ := existsReply.Value.(bool); exists {
		t.Fatalf("expected node to be gone after Delete")
	}
}

func testDeleteMany(t *testing.T, d db.TreeDB) {
	for _, s := range []string{"/many/a", "/many/b", "/many/c"} {
		p := mustPath(t, s)
		if _, err := d.Apply(1, db.Command{Type: db.CommandPut, Pattern: patternOf(t, p), Payload: tree.DataPayload("v")}); err != nil {
			t.Fatalf("setup Put %s failed: %v", s, err)
		}
	}

	pat, err := path.ParseString("/many/*")
	if err != nil {
		t.Fatalf("failed to parse pattern: %v", err)
	}

	reply, err := d.Apply(2, db.Command{Type: db.CommandDeleteMany, Pattern: pat})
	if err != nil || !reply.Ok {
		t.Fatalf("DeleteMany failed: reply=%+v err=%v", reply, err)
	}

	countReply, err := d.Query(db.Query{Type: db.QueryCount, Pattern: pat})
	if err != nil {
		t.Fatalf("Count after DeleteMany failed: %v", err)
	}
	if v, ok := countReply.Value.(int); ok && v != 0 {
		t.Fatalf("expected 0 matches after DeleteMany, got %d", v)
	}
}

func testExists(t *testing.T, d db.TreeDB) {
	p := mustPath(t, "/exists-me")

	existsReply, err := d.Query(db.Query{Type: db.QueryExists, Pattern: patternOf(t, p)})
	if err != nil {
		t.Fatalf("Exists on missing node failed: %v", err)
	}
	if exists, _ := existsReply.Value.(bool); exists {
		t.Fatalf("expected missing node to not exist")
	}

	if _, err := d.Apply(1, db.Command{Type: db.CommandPut, Pattern: patternOf(t, p), Payload: tree.DataPayload("v")}); err != nil {
		t.Fatalf("setup Put failed: %v", err)
	}

	existsReply, err = d.Query(db.Query{Type: db.QueryExists, Pattern: patternOf(t, p)})
	if err != nil {
		t.Fatalf("Exists after Put failed: %v", err)
	}
	if exists, _ := existsReply.Value.(bool); !exists {
		t.Fatalf("expected node to exist after Put: reply=%+v", existsReply)
	}
}

func testCount(t *testing.T, d db.TreeDB) {
	for _, s := range []string{"/count/a", "/count/b"} {
		p := mustPath(t, s)
		if _, err := d.Apply(1, db.Command{Type: db.CommandPut, Pattern: patternOf(t, p), Payload: tree.DataPayload("v")}); err != nil {
			t.Fatalf("setup Put %s failed: %v", s, err)
		}
	}

	pat, err := path.ParseString("/count/*")
	if err != nil {
		t.Fatalf("failed to parse pattern: %v", err)
	}

	countReply, err := d.Query(db.Query{Type: db.QueryCount, Pattern: pat})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if v, ok := countReply.Value.(int); !ok || v != 2 {
		t.Fatalf("expected count 2, got %+v", countReply.Value)
	}
}

func testGetDBInfo(t *testing.T, d db.TreeDB) {
	infoReply, err := d.Query(db.Query{Type: db.QueryGetDBInfo})
	if err != nil {
		t.Fatalf("GetDBInfo failed: %v", err)
	}
	info, ok := infoReply.Value.(db.DatabaseInfo)
	if !ok {
		t.Fatalf("expected DatabaseInfo, got %T", infoReply.Value)
	}
	if info.DbType == "" {
		t.Errorf("expected a non-empty DbType")
	}
}

func testSupportsFeature(t *testing.T, d db.TreeDB) {
	if !d.SupportsFeature(db.FeaturePut) {
		t.Errorf("expected FeaturePut to be supported")
	}
	if !d.SupportsFeature(db.FeatureQuery) {
		t.Errorf("expected FeatureQuery to be supported")
	}
}

func testSaveLoad(t *testing.T, factory DBFactory, d db.TreeDB) {
	p := mustPath(t, "/persisted")
	if _, err := d.Apply(1, db.Command{Type: db.CommandPut, Pattern: patternOf(t, p), Payload: tree.DataPayload("v")}); err != nil {
		t.Fatalf("setup Put failed: %v", err)
	}

	var buf bytes.Buffer
	if err := d.Save(&buf); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	restored := factory()
	if err := restored.Load(&buf); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	reply, err := restored.Query(db.Query{Type: db.QueryExists, Pattern: patternOf(t, p)})
	if err != nil {
		t.Fatalf("Exists on restored engine failed: %v", err)
	}
	if exists, _ := reply.Value.(bool); !exists {
		t.Fatalf("expected restored engine to have the persisted node: reply=%+v", reply)
	}
}
