package grove

import (
	"testing"

	"github.com/grove-db/grove/lib/db"
	dbtesting "github.com/grove-db/grove/lib/db/testing"
)

func Test(t *testing.T) {
	dbtesting.RunTreeDBTests(t, "Engine", func() db.TreeDB {
		return New(nil)
	})
}

func Benchmark(b *testing.B) {
	dbtesting.RunTreeDBBenchmarks(b, "Engine", func() db.TreeDB {
		return New(nil)
	})
}
