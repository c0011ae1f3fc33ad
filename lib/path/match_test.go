package path

import "testing"

func TestMatchPathLiteralAndWildcard(t *testing.T) {
	pat, _ := ParseString("/:stock/:wood/*")
	target := Path{Name("stock"), Name("wood"), Name("oak")}
	if !MatchPath(pat, target, NodeProps{}) {
		t.Fatal("expected wildcard pattern to match")
	}

	miss := Path{Name("stock"), Name("metal"), Name("oak")}
	if MatchPath(pat, miss, NodeProps{}) {
		t.Fatal("expected literal mismatch to fail")
	}
}

func TestMatchPathWildcardDeepZeroLevels(t *testing.T) {
	pat, _ := ParseString("/:stock/**")
	if !MatchPath(pat, Path{Name("stock")}, NodeProps{}) {
		t.Fatal("expected wildcard-deep to match zero additional levels")
	}
	if !MatchPath(pat, Path{Name("stock"), Name("wood"), Name("oak")}, NodeProps{}) {
		t.Fatal("expected wildcard-deep to match multiple levels")
	}
}

func TestMatchPathTrailingCondition(t *testing.T) {
	pat := Pattern{Literal{ID: Name("stock")}, Cond{Condition: HasData{}}}
	target := Path{Name("stock"), Name("oak")}

	if MatchPath(pat, target, NodeProps{Exists: true, HasData: false}) {
		t.Fatal("expected condition mismatch to fail")
	}
	if !MatchPath(pat, target, NodeProps{Exists: true, HasData: true}) {
		t.Fatal("expected condition match to succeed")
	}
}
