package dispatch

import (
	"testing"

	"github.com/grove-db/grove/lib/path"
	"github.com/grove-db/grove/lib/tree"
)

func mustPattern(t *testing.T, s string) path.Pattern {
	t.Helper()
	p, err := path.ParseString(s)
	if err != nil {
		t.Fatalf("ParseString(%q): %v", s, err)
	}
	return p
}

func mustPath(t *testing.T, s string) path.Path {
	t.Helper()
	p, err := path.ParsePath(s)
	if err != nil {
		t.Fatalf("ParsePath(%q): %v", s, err)
	}
	return p
}

func identityProjection(p path.Path, payload tree.Payload) (string, any, bool) {
	return p.String(), payload.Data, true
}

func TestSimpleProjectionFollowsCreateUpdateDelete(t *testing.T) {
	d := New(nil)
	pattern := mustPattern(t, "/stock/wood/*")
	spec := ProjectSpec{Simple: identityProjection}
	if err := d.RegisterProjection("wood-view", pattern, spec, RegisterOptions{Type: ViewSet}, nil); err != nil {
		t.Fatalf("RegisterProjection error: %v", err)
	}

	oak := mustPath(t, "/stock/wood/oak")
	newProps := path.NodeProps{Exists: true, HasData: true, Data: 80}
	d.Dispatch(ChangeEvent{Path: oak, Action: ActionCreate, NewProps: &newProps})

	view := d.View("wood-view")
	val, ok := view.Get(oak.String())
	if !ok || val != 80 {
		t.Fatalf("expected view to contain 80, got %v, %v", val, ok)
	}

	updated := path.NodeProps{Exists: true, HasData: true, Data: 60}
	d.Dispatch(ChangeEvent{Path: oak, Action: ActionUpdate, OldProps: &newProps, NewProps: &updated})
	val, _ = view.Get(oak.String())
	if val != 60 {
		t.Fatalf("expected view updated to 60, got %v", val)
	}

	d.Dispatch(ChangeEvent{Path: oak, Action: ActionDelete, OldProps: &updated})
	if _, ok := view.Get(oak.String()); ok {
		t.Fatal("expected key removed from view after delete")
	}
}

func TestProjectionSkipsStoredProcedures(t *testing.T) {
	d := New(nil)
	pattern := mustPattern(t, "/stock/wood/oak")
	spec := ProjectSpec{Simple: identityProjection}
	d.RegisterProjection("oak-view", pattern, spec, RegisterOptions{Type: ViewSet}, nil)

	oak := mustPath(t, "/stock/wood/oak")
	sprocProps := path.NodeProps{Exists: true, IsSproc: true}
	d.Dispatch(ChangeEvent{Path: oak, Action: ActionCreate, NewProps: &sprocProps})

	view := d.View("oak-view")
	if view.Len() != 0 {
		t.Fatalf("expected sproc payload to be skipped, view has %d entries", view.Len())
	}
}

func TestDuplicateRegistrationFails(t *testing.T) {
	d := New(nil)
	pattern := mustPattern(t, "/stock/*")
	spec := ProjectSpec{Simple: identityProjection}
	if err := d.RegisterProjection("v", pattern, spec, RegisterOptions{Type: ViewSet}, nil); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	err := d.RegisterProjection("v", pattern, spec, RegisterOptions{Type: ViewSet}, nil)
	if _, ok := err.(*ExistsError); !ok {
		t.Fatalf("expected *ExistsError, got %v", err)
	}
}

func TestBagTypeRejectedForSimpleProjection(t *testing.T) {
	d := New(nil)
	pattern := mustPattern(t, "/stock/*")
	spec := ProjectSpec{Simple: identityProjection}
	err := d.RegisterProjection("v", pattern, spec, RegisterOptions{Type: ViewBag}, nil)
	if _, ok := err.(*UnexpectedOptionError); !ok {
		t.Fatalf("expected *UnexpectedOptionError, got %v", err)
	}
}

func TestRetroactiveRegistrationPopulatesView(t *testing.T) {
	d := New(nil)
	pattern := mustPattern(t, "/stock/*")
	spec := ProjectSpec{Simple: identityProjection}
	p := mustPath(t, "/stock/oak")
	retro := []RetroMatch{{Path: p, Props: path.NodeProps{Exists: true, HasData: true, Data: 100}}}

	if err := d.RegisterProjection("v", pattern, spec, RegisterOptions{Type: ViewSet}, retro); err != nil {
		t.Fatalf("RegisterProjection error: %v", err)
	}
	view := d.View("v")
	val, ok := view.Get(p.String())
	if !ok || val != 100 {
		t.Fatalf("expected retroactive entry (100), got %v, %v", val, ok)
	}
}

func TestTriggerFiresInPriorityThenRegistrationOrder(t *testing.T) {
	var fired []string
	invoke := func(sprocPath path.Path, args map[string]any) error {
		fired = append(fired, sprocPath.String())
		return nil
	}
	d := New(invoke)
	pattern := mustPattern(t, "/stock/*")
	filter := EventFilter{Pattern: pattern, Actions: map[Action]bool{ActionCreate: true}}

	low := mustPath(t, "/sproc/low")
	high := mustPath(t, "/sproc/high")
	firstRegisteredSamePriority := mustPath(t, "/sproc/first")
	secondRegisteredSamePriority := mustPath(t, "/sproc/second")

	d.RegisterTrigger("t-low", filter, low, 1)
	d.RegisterTrigger("t-first", filter, firstRegisteredSamePriority, 5)
	d.RegisterTrigger("t-high", filter, high, 10)
	d.RegisterTrigger("t-second", filter, secondRegisteredSamePriority, 5)

	oak := mustPath(t, "/stock/oak")
	props := path.NodeProps{Exists: true, HasData: true}
	d.Dispatch(ChangeEvent{Path: oak, Action: ActionCreate, NewProps: &props})

	want := []string{high.String(), firstRegisteredSamePriority.String(), secondRegisteredSamePriority.String(), low.String()}
	if len(fired) != len(want) {
		t.Fatalf("expected %d firings, got %v", len(want), fired)
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Errorf("firing %d = %s, want %s", i, fired[i], want[i])
		}
	}
}
