// Package keepwhile tracks keep-while lifetime dependencies between tree
// paths and computes the cascading deletions they imply. A watcher path
// stays registered only for as long as every one of its watched paths
// keeps satisfying the condition recorded for it; the moment one fails,
// the watcher is scheduled for removal, which can in turn invalidate
// further watchers.
package keepwhile

import (
	"sort"
	"sync"

	"github.com/grove-db/grove/lib/path"
)

// PropsLookup resolves the current matchable properties of a path, as
// observed by the caller's tree snapshot at cascade time.
type PropsLookup func(path.Path) path.NodeProps

// Graph is a bidirectional watcher<->watched index with one condition
// recorded per edge. It guards its own state with a mutex the same way
// the tree guards its node map: every mutating operation here is driven
// by the single-threaded state machine apply path, but Graph is kept
// self-synchronizing so query-side inspection never races a cascade.
type Graph struct {
	mu sync.RWMutex

	// watcherConds[watcher][watched] = condition that must hold on watched
	// for watcher to remain alive.
	watcherConds map[string]map[string]path.Condition

	// reverse[watched] = set of watchers depending on watched.
	reverse map[string]map[string]struct{}

	// pathByKey recovers the original Path for a canonical key, since map
	// keys are plain strings for comparability and fast lookup.
	pathByKey map[string]path.Path
}

func New() *Graph {
	return &Graph{
		watcherConds: make(map[string]map[string]path.Condition),
		reverse:      make(map[string]map[string]struct{}),
		pathByKey:    make(map[string]path.Path),
	}
}

func key(p path.Path) string { return p.String() }

// Edge is one watched path and the condition it must keep satisfying for
// the owning watcher to remain alive.
type Edge struct {
	Watched path.Path
	Cond    path.Condition
}

// Set installs (replacing any prior registration) the watcher's keep-while
// conditions: watcher remains alive only while every edge's Watched path
// satisfies its Cond.
func (g *Graph) Set(watcher path.Path, edges []Edge) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removeLocked(watcher)

	wk := key(watcher)
	g.pathByKey[wk] = watcher

	byWatched := make(map[string]path.Condition, len(edges))
	for _, e := range edges {
		wdk := key(e.Watched)
		g.pathByKey[wdk] = e.Watched
		byWatched[wdk] = e.Cond

		if g.reverse[wdk] == nil {
			g.reverse[wdk] = make(map[string]struct{})
		}
		g.reverse[wdk][wk] = struct{}{}
	}
	g.watcherConds[wk] = byWatched
}

// Remove drops a watcher's registration entirely (used both for explicit
// node deletion and for cascade-driven removal).
func (g *Graph) Remove(watcher path.Path) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removeLocked(watcher)
}

func (g *Graph) removeLocked(watcher path.Path) {
	wk := key(watcher)
	conds, ok := g.watcherConds[wk]
	if !ok {
		return
	}
	for watchedKey := range conds {
		if set := g.reverse[watchedKey]; set != nil {
			delete(set, wk)
			if len(set) == 0 {
				delete(g.reverse, watchedKey)
			}
		}
	}
	delete(g.watcherConds, wk)
}

// AffectedBy re-evaluates every watcher reachable (transitively, through
// cascading deletions) from changed, returning the watchers that must be
// deleted, ordered lexicographically by path with descendants ordered
// before their siblings' ancestors (see orderForCascade).
//
// Termination: each watcher can enter the worklist at most once (guarded
// by visited), and deleting a watcher only ever removes edges, so the
// reverse index shrinks monotonically; cascades cannot reintroduce a
// watcher once it has been scheduled.
func (g *Graph) AffectedBy(changed []path.Path, lookup PropsLookup) []path.Path {
	g.mu.Lock()
	defer g.mu.Unlock()

	visited := make(map[string]bool)
	var scheduled []string

	worklist := make([]string, 0, len(changed))
	for _, c := range changed {
		worklist = append(worklist, key(c))
	}

	for len(worklist) > 0 {
		cur := worklist[0]
		worklist = worklist[1:]

		watchers := g.reverse[cur]
		if len(watchers) == 0 {
			continue
		}
		keys := make([]string, 0, len(watchers))
		for w := range watchers {
			keys = append(keys, w)
		}
		sort.Strings(keys)

		for _, w := range keys {
			if visited[w] {
				continue
			}
			if g.watcherSatisfied(w, lookup) {
				continue
			}
			visited[w] = true
			scheduled = append(scheduled, w)
			// the watcher's own removal is itself a change that may
			// invalidate further watchers watching the watcher's path.
			worklist = append(worklist, w)
		}
	}

	result := make([]path.Path, 0, len(scheduled))
	for _, w := range scheduled {
		if p, ok := g.pathByKey[w]; ok {
			result = append(result, p)
		}
	}
	orderForCascade(result)
	return result
}

func (g *Graph) watcherSatisfied(watcherKey string, lookup PropsLookup) bool {
	conds := g.watcherConds[watcherKey]
	for watchedKey, cond := range conds {
		watchedPath := g.pathByKey[watchedKey]
		if !cond.Matches(lookup(watchedPath)) {
			return false
		}
	}
	return true
}

// WatcherEdges is one watcher's full edge set, used to move a Graph's
// state in and out of a snapshot.
type WatcherEdges struct {
	Watcher path.Path
	Edges   []Edge
}

// Export dumps every registered watcher and its edges, for persistence.
func (g *Graph) Export() []WatcherEdges {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]WatcherEdges, 0, len(g.watcherConds))
	for wk, conds := range g.watcherConds {
		edges := make([]Edge, 0, len(conds))
		for wdk, cond := range conds {
			edges = append(edges, Edge{Watched: g.pathByKey[wdk], Cond: cond})
		}
		out = append(out, WatcherEdges{Watcher: g.pathByKey[wk], Edges: edges})
	}
	return out
}

// Import installs every watcher from a prior Export, replacing the
// registration of each watcher it names; watchers already in the graph
// and absent from the snapshot are kept.
func (g *Graph) Import(snapshot []WatcherEdges) {
	for _, w := range snapshot {
		g.Set(w.Watcher, w.Edges)
	}
}

// orderForCascade sorts paths lexicographically by their rendered string.
// A descendant's rendered path is prefixed by its ancestor's, so it sorts
// after the ancestor, and before the ancestor's next sibling subtree when
// that sibling's identifier continues with a character sorting after '/'
// (letters, digits, ':'). A sibling such as "/a-b" or "/a.b" sorts before
// "/a/x", between the ancestor "/a" and its descendant.
func orderForCascade(paths []path.Path) {
	sort.Slice(paths, func(i, j int) bool {
		return paths[i].String() < paths[j].String()
	})
}
