package keepwhile

import (
	"testing"

	"github.com/grove-db/grove/lib/path"
)

func mustPath(t *testing.T, s string) path.Path {
	t.Helper()
	p, err := path.ParsePath(s)
	if err != nil {
		t.Fatalf("ParsePath(%q): %v", s, err)
	}
	return p
}

func TestAffectedByDeletesWatcherWhenConditionFails(t *testing.T) {
	g := New()
	watcher := mustPath(t, "/locks/session-1")
	watched := mustPath(t, "/stock/oak")
	g.Set(watcher, []Edge{{Watched: watched, Cond: path.HasData{}}})

	lookup := func(p path.Path) path.NodeProps {
		return path.NodeProps{Exists: false} // watched node gone: HasData fails
	}

	deleted := g.AffectedBy([]path.Path{watched}, lookup)
	if len(deleted) != 1 || !deleted[0].Equal(watcher) {
		t.Fatalf("expected watcher to be scheduled for deletion, got %v", deleted)
	}
}

func TestAffectedByKeepsWatcherWhenConditionHolds(t *testing.T) {
	g := New()
	watcher := mustPath(t, "/locks/session-1")
	watched := mustPath(t, "/stock/oak")
	g.Set(watcher, []Edge{{Watched: watched, Cond: path.HasData{}}})

	lookup := func(p path.Path) path.NodeProps {
		return path.NodeProps{Exists: true, HasData: true}
	}

	deleted := g.AffectedBy([]path.Path{watched}, lookup)
	if len(deleted) != 0 {
		t.Fatalf("expected no deletions, got %v", deleted)
	}
}

func TestAffectedByCascadesThroughChainedWatchers(t *testing.T) {
	g := New()
	a := mustPath(t, "/a")
	b := mustPath(t, "/b")
	c := mustPath(t, "/c")

	// b watches a; c watches b. When a fails, b is removed, which then
	// invalidates c's watch on b.
	g.Set(b, []Edge{{Watched: a, Cond: path.NodeExists{Want: true}}})
	g.Set(c, []Edge{{Watched: b, Cond: path.NodeExists{Want: true}}})

	lookup := func(p path.Path) path.NodeProps {
		if p.Equal(a) {
			return path.NodeProps{Exists: false}
		}
		// b has been logically removed by the cascade; the graph itself
		// doesn't track tree state, so the caller's lookup must reflect
		// that b no longer exists once scheduled.
		return path.NodeProps{Exists: false}
	}

	deleted := g.AffectedBy([]path.Path{a}, lookup)
	if len(deleted) != 2 {
		t.Fatalf("expected both b and c scheduled, got %v", deleted)
	}
	if !deleted[0].Equal(b) || !deleted[1].Equal(c) {
		t.Errorf("expected order [b, c], got %v", deleted)
	}
}

func TestRemoveDropsReverseEdges(t *testing.T) {
	g := New()
	watcher := mustPath(t, "/locks/session-1")
	watched := mustPath(t, "/stock/oak")
	g.Set(watcher, []Edge{{Watched: watched, Cond: path.HasData{}}})
	g.Remove(watcher)

	lookup := func(p path.Path) path.NodeProps { return path.NodeProps{Exists: false} }
	deleted := g.AffectedBy([]path.Path{watched}, lookup)
	if len(deleted) != 0 {
		t.Fatalf("expected no watchers after Remove, got %v", deleted)
	}
}
