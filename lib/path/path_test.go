package path

import "testing"

func TestParseStringRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"root-empty", ""},
		{"root-slash", "/"},
		{"single-literal", "/stock"},
		{"nested-literal", "/stock/wood/oak"},
		{"atom-identifier", "/:stock/:wood"},
		{"wildcard-one", "/stock/*"},
		{"wildcard-deep", "/stock/**"},
		{"mixed", "/stock/*/oak/**"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pat, err := ParseString(tt.in)
			if err != nil {
				t.Fatalf("ParseString(%q) error: %v", tt.in, err)
			}

			rendered := Render(pat)

			reparsed, err := ParseString(rendered)
			if err != nil {
				t.Fatalf("ParseString(render) error: %v", err)
			}

			if len(pat) != len(reparsed) {
				t.Fatalf("round trip length mismatch: %d vs %d", len(pat), len(reparsed))
			}
			for i := range pat {
				if pat[i].String() != reparsed[i].String() {
					t.Errorf("component %d mismatch: %v vs %v", i, pat[i], reparsed[i])
				}
			}
		})
	}
}

func TestParseStringEmptyComponentRejected(t *testing.T) {
	if _, err := ParseString("/stock//oak"); err == nil {
		t.Fatal("expected error for empty component")
	}
}

func TestNodeIDRoundTrip(t *testing.T) {
	tests := []NodeID{
		Name("wood"),
		Bytes([]byte("oak")),
		Bytes([]byte{0x00, 0xff, 0x10}),
		Bytes([]byte("has space")),
	}

	for _, id := range tests {
		s := id.String()
		reparsed, err := ParseNodeID(s)
		if err != nil {
			t.Fatalf("ParseNodeID(%q) error: %v", s, err)
		}
		if !id.Equal(reparsed) {
			t.Errorf("round trip mismatch for %v: got %v (via %q)", id, reparsed, s)
		}
	}
}

func TestPatternSpecific(t *testing.T) {
	tests := []struct {
		name string
		pat  Pattern
		want bool
	}{
		{"all-literals", Pattern{Literal{ID: Name("a")}, Literal{ID: Name("b")}}, true},
		{"trailing-wildcard", Pattern{Literal{ID: Name("a")}, Wildcard{}}, false},
		{"trailing-wildcard-deep", Pattern{Literal{ID: Name("a")}, WildcardDeep{}}, false},
		{"non-specific-cond", Pattern{Cond{Condition: HasData{}}}, false},
		{"specific-literal-cond", Pattern{LiteralCond{ID: Name("a"), Extra: HasData{}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pat.Specific(); got != tt.want {
				t.Errorf("Specific() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCombineOnLiteral(t *testing.T) {
	pat := Pattern{Literal{ID: Name("stock")}, Literal{ID: Name("oak")}}
	combined := Combine(pat, NodeExists{Want: false})

	last, ok := combined[len(combined)-1].(LiteralCond)
	if !ok {
		t.Fatalf("expected LiteralCond, got %T", combined[len(combined)-1])
	}
	if !last.ID.Equal(Name("oak")) {
		t.Errorf("expected id 'oak', got %v", last.ID)
	}
	if !combined.Specific() {
		t.Error("expected combined pattern to remain specific")
	}
}

func TestCombineOnRoot(t *testing.T) {
	combined := Combine(Pattern{}, NodeExists{Want: true})
	if len(combined) != 1 {
		t.Fatalf("expected single component, got %d", len(combined))
	}
	if !combined.Specific() {
		t.Error("expected root Combine result to be specific")
	}
}
