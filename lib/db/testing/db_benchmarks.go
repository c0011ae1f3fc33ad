package testing

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/grove-db/grove/lib/db"
	"github.com/grove-db/grove/lib/path"
	"github.com/grove-db/grove/lib/tree"
)

// RunTreeDBBenchmarks runs all benchmarks for a TreeDB implementation.
func RunTreeDBBenchmarks(b *testing.B, name string, factory DBFactory) {

	b.Run("Put", func(b *testing.B) {
		benchmarkPut(b, factory())
	})

	b.Run("PutExisting", func(b *testing.B) {
		benchmarkPutExisting(b, factory())
	})

	b.Run("PutLargeValue", func(b *testing.B) {
		benchmarkPutLargeValue(b, factory())
	})

	b.Run("Get", func(b *testing.B) {
		benchmarkGet(b, factory())
	})

	b.Run("Delete", func(b *testing.B) {
		benchmarkDelete(b, factory())
	})

	b.Run("Exists", func(b *testing.B) {
		benchmarkExists(b, factory())
	})

	b.Run("Count", func(b *testing.B) {
		benchmarkCount(b, factory())
	})

	b.Run("SaveLoad", func(b *testing.B) {
		benchmarkSaveLoad(b, factory)
	})

	b.Run("MixedUsage", func(b *testing.B) {
		benchmarkMixedUsage(b, factory())
	})
}

func benchPath(n int) path.Path {
	p, err := path.ParsePath(fmt.Sprintf("/bench/%d", n))
	if err != nil {
		panic(err)
	}
	return p
}

func benchPattern(n int) path.Pattern {
	p := benchPath(n)
	pat := make(path.Pattern, len(p))
	for i, id := range p {
		pat[i] = path.Literal{ID: id}
	}
	return pat
}

func benchmarkPut(b *testing.B, d db.TreeDB) {
	for i := 0; i < b.N; i++ {
		if _, err := d.Apply(uint64(i+1), db.Command{
			Type:    db.CommandPut,
			Pattern: benchPattern(i),
			Payload: tree.DataPayload([]byte("benchmark-value")),
		}); err != nil {
			b.Fatalf("Put failed: %v", err)
		}
	}
}

func benchmarkPutExisting(b *testing.B, d db.TreeDB) {
	pat := benchPattern(0)
	if _, err := d.Apply(1, db.Command{Type: db.CommandPut, Pattern: pat, Payload: tree.DataPayload([]byte("initial"))}); err != nil {
		b.Fatalf("setup Put failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := d.Apply(uint64(i+2), db.Command{Type: db.CommandPut, Pattern: pat, Payload: tree.DataPayload([]byte("updated"))}); err != nil {
			b.Fatalf("Put failed: %v", err)
		}
	}
}

func benchmarkPutLargeValue(b *testing.B, d db.TreeDB) {
	value := make([]byte, 64*1024)
	for i := 0; i < b.N; i++ {
		if _, err := d.Apply(uint64(i+1), db.Command{
			Type:    db.CommandPut,
			Pattern: benchPattern(i),
			Payload: tree.DataPayload(value),
		}); err != nil {
			b.Fatalf("Put failed: %v", err)
		}
	}
}

func benchmarkGet(b *testing.B, d db.TreeDB) {
	pat := benchPattern(0)
	if _, err := d.Apply(1, db.Command{Type: db.CommandPut, Pattern: pat, Payload: tree.DataPayload([]byte("value"))}); err != nil {
		b.Fatalf("setup Put failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := d.Query(db.Query{Type: db.QueryGet, Pattern: pat}); err != nil {
			b.Fatalf("Get failed: %v", err)
		}
	}
}

func benchmarkDelete(b *testing.B, d db.TreeDB) {
	for i := 0; i < b.N; i++ {
		pat := benchPattern(i)
		if _, err := d.Apply(uint64(2*i+1), db.Command{Type: db.CommandPut, Pattern: pat, Payload: tree.DataPayload([]byte("v"))}); err != nil {
			b.Fatalf("setup Put failed: %v", err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pat := benchPattern(i)
		if _, err := d.Apply(uint64(2*i+2), db.Command{Type: db.CommandDelete, Pattern: pat}); err != nil {
			b.Fatalf("Delete failed: %v", err)
		}
	}
}

func benchmarkExists(b *testing.B, d db.TreeDB) {
	pat := benchPattern(0)
	if _, err := d.Apply(1, db.Command{Type: db.CommandPut, Pattern: pat, Payload: tree.DataPayload([]byte("v"))}); err != nil {
		b.Fatalf("setup Put failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := d.Query(db.Query{Type: db.QueryExists, Pattern: pat}); err != nil {
			b.Fatalf("Exists failed: %v", err)
		}
	}
}

func benchmarkCount(b *testing.B, d db.TreeDB) {
	for i := 0; i < 100; i++ {
		if _, err := d.Apply(uint64(i+1), db.Command{Type: db.CommandPut, Pattern: benchPattern(i), Payload: tree.DataPayload([]byte("v"))}); err != nil {
			b.Fatalf("setup Put failed: %v", err)
		}
	}

	pat, err := path.ParseString("/bench/*")
	if err != nil {
		b.Fatalf("failed to parse pattern: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := d.Query(db.Query{Type: db.QueryCount, Pattern: pat}); err != nil {
			b.Fatalf("Count failed: %v", err)
		}
	}
}

func benchmarkSaveLoad(b *testing.B, factory DBFactory) {
	d := factory()
	for i := 0; i < 1000; i++ {
		if _, err := d.Apply(uint64(i+1), db.Command{Type: db.CommandPut, Pattern: benchPattern(i), Payload: tree.DataPayload([]byte("value"))}); err != nil {
			b.Fatalf("setup Put failed: %v", err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var buf bytes.Buffer
		if err := d.Save(&buf); err != nil {
			b.Fatalf("Save failed: %v", err)
		}

		restored := factory()
		if err := restored.Load(&buf); err != nil {
			b.Fatalf("Load failed: %v", err)
		}
	}
}

func benchmarkMixedUsage(b *testing.B, d db.TreeDB) {
	for i := 0; i < b.N; i++ {
		pat := benchPattern(i % 1000)

		switch i % 4 {
		case 0:
			_, _ = d.Apply(uint64(i+1), db.Command{Type: db.CommandPut, Pattern: pat, Payload: tree.DataPayload([]byte("v"))})
		case 1:
			_, _ = d.Query(db.Query{Type: db.QueryGet, Pattern: pat})
		case 2:
			_, _ = d.Query(db.Query{Type: db.QueryExists, Pattern: pat})
		case 3:
			_, _ = d.Apply(uint64(i+1), db.Command{Type: db.CommandDelete, Pattern: pat})
		}
	}
}
