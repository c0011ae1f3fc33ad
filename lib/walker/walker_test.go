package walker

import (
	"testing"

	"github.com/grove-db/grove/lib/path"
	"github.com/grove-db/grove/lib/tree"
)

func mustPath(t *testing.T, s string) path.Path {
	t.Helper()
	p, err := path.ParsePath(s)
	if err != nil {
		t.Fatalf("ParsePath(%q): %v", s, err)
	}
	return p
}

func setup(t *testing.T) *tree.Tree {
	t.Helper()
	tr := tree.New()
	for _, name := range []string{"oak", "birch", "maple"} {
		p := mustPath(t, "/stock/wood/"+name)
		tr.Insert(p, true)
		tr.SetPayload(p, tree.DataPayload(name+"-value"))
	}
	return tr
}

func TestWalkLiteralResolvesSingleMatch(t *testing.T) {
	tr := setup(t)
	pat, err := path.ParseString("/stock/wood/oak")
	if err != nil {
		t.Fatal(err)
	}
	matches, err := Walk(tr, pat, Options{})
	if err != nil {
		t.Fatalf("Walk error: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].Props.Data != "oak-value" {
		t.Errorf("unexpected data: %v", matches[0].Props.Data)
	}
}

func TestWalkLiteralMissingYieldsNoMatches(t *testing.T) {
	tr := setup(t)
	pat, _ := path.ParseString("/stock/wood/pine")
	matches, err := Walk(tr, pat, Options{})
	if err != nil {
		t.Fatalf("Walk error: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected 0 matches for a missing literal path, got %d", len(matches))
	}
}

func TestWalkMissingLiteralAncestorDoesNotAbortSiblingBranches(t *testing.T) {
	tr := tree.New()
	tr.Insert(mustPath(t, "/stock/wood"), true)
	tr.Insert(mustPath(t, "/stock/metal/locked"), true)
	tr.SetPayload(mustPath(t, "/stock/metal/locked"), tree.DataPayload("bolted"))

	// The "wood" branch of the wildcard has no "locked" child, so its
	// literal component dies at that step; the "metal" branch does and
	// must still be reported. A pre-fix Walk would let the "wood" branch's
	// NodeNotFound abort the whole traversal and drop the "metal" match.
	pat, _ := path.ParseString("/stock/*/locked")
	matches, err := Walk(tr, pat, Options{})
	if err != nil {
		t.Fatalf("Walk error: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match (metal/locked), got %d", len(matches))
	}
	if matches[0].Props.Data != "bolted" {
		t.Errorf("unexpected match: %+v", matches[0])
	}
}

func TestResolveSpecificStillReportsNodeNotFound(t *testing.T) {
	tr := setup(t)
	pat, _ := path.ParseString("/stock/wood/pine")
	_, err := ResolveSpecific(tr, pat)
	werr, ok := err.(*Error)
	if !ok || werr.Kind != NodeNotFound {
		t.Fatalf("expected NodeNotFound, got %v", err)
	}
}

func TestWalkWildcardMatchesAllChildrenInOrder(t *testing.T) {
	tr := setup(t)
	pat, _ := path.ParseString("/stock/wood/*")
	matches, err := Walk(tr, pat, Options{})
	if err != nil {
		t.Fatalf("Walk error: %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(matches))
	}
	want := []string{"birch", "maple", "oak"}
	for i, m := range matches {
		last := m.Path[len(m.Path)-1].String()
		if last != want[i] {
			t.Errorf("match %d = %s, want %s", i, last, want[i])
		}
	}
}

func TestWalkWildcardDeepMatchesZeroLevels(t *testing.T) {
	tr := tree.New()
	pat, _ := path.ParseString("/**")
	matches, err := Walk(tr, pat, Options{IncludeRootProps: true})
	if err != nil {
		t.Fatalf("Walk error: %v", err)
	}
	found := false
	for _, m := range matches {
		if m.Path.IsRoot() {
			found = true
		}
	}
	if !found {
		t.Error("expected root to be among wildcard-deep matches when IncludeRootProps is set")
	}
}

func TestWalkExpectSpecificNodeRejectsWildcard(t *testing.T) {
	tr := setup(t)
	pat, _ := path.ParseString("/stock/wood/*")
	_, err := Walk(tr, pat, Options{ExpectSpecificNode: true})
	werr, ok := err.(*Error)
	if !ok || werr.Kind != NotSpecific {
		t.Fatalf("expected NotSpecific, got %v", err)
	}
}

func TestResolveSpecificForCreateAllowsMissingNode(t *testing.T) {
	tr := setup(t)
	pat, _ := path.ParseString("/stock/wood/pine")
	combined := path.Combine(pat, path.NodeExists{Want: false})

	match, err := ResolveSpecific(tr, combined)
	if err != nil {
		t.Fatalf("ResolveSpecific error: %v", err)
	}
	if match.Props.Exists {
		t.Error("expected Exists=false for a not-yet-created node")
	}
}

func TestResolveSpecificForCreateRejectsExistingNode(t *testing.T) {
	tr := setup(t)
	pat, _ := path.ParseString("/stock/wood/oak")
	combined := path.Combine(pat, path.NodeExists{Want: false})

	_, err := ResolveSpecific(tr, combined)
	werr, ok := err.(*Error)
	if !ok || werr.Kind != MismatchingNode {
		t.Fatalf("expected MismatchingNode, got %v", err)
	}
}

func TestPropsToReturnFiltersFields(t *testing.T) {
	tr := setup(t)
	pat, _ := path.ParseString("/stock/wood/oak")
	matches, err := Walk(tr, pat, Options{PropsToReturn: []string{"payload_version"}})
	if err != nil {
		t.Fatalf("Walk error: %v", err)
	}
	if matches[0].Props.Data != nil {
		t.Error("expected Data to be filtered out")
	}
	if matches[0].Props.PayloadVersion == 0 {
		t.Error("expected PayloadVersion to be retained")
	}
}
