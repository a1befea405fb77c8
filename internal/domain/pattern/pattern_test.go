package pattern

import "testing"

func TestLiteralCompile(t *testing.T) {
	m, err := Pattern{Content: "hello", Kind: Literal}.Compile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.Matches([]byte("say hello there")) {
		t.Error("expected literal to match")
	}
	if m.Matches([]byte("say goodbye")) {
		t.Error("expected literal not to match")
	}
	start, end, ok := m.FindFirst([]byte("oh hello hello"))
	if !ok || start != 3 || end != 8 {
		t.Errorf("FindFirst = (%d, %d, %v), want (3, 8, true)", start, end, ok)
	}
}

func TestLiteralWithRegexMetacharacters(t *testing.T) {
	m, err := Pattern{Content: "a.b*c", Kind: Literal}.Compile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.Matches([]byte("xx a.b*c yy")) {
		t.Error("expected byte-equal match")
	}
	if m.Matches([]byte("aXbbbc")) {
		t.Error("literal must not be interpreted as regex")
	}
}

func TestRegexCompile(t *testing.T) {
	m, err := Pattern{Content: `M[aä]rtens`, Kind: Regex}.Compile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.Matches([]byte("Liv Märtens-Güntersen")) {
		t.Error("expected unicode alternation to match")
	}
	if m.Matches([]byte("Liv Martens")) {
		t.Error("expected no match")
	}
}

func TestRegexCompileError(t *testing.T) {
	_, err := Pattern{Content: "(unclosed", Kind: Regex}.Compile()
	if err == nil {
		t.Fatal("expected compile error")
	}
}

func TestRegexFindFirstIsLeftmost(t *testing.T) {
	m, err := Pattern{Content: `b+`, Kind: Regex}.Compile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	start, end, ok := m.FindFirst([]byte("aabbabbb"))
	if !ok || start != 2 || end != 4 {
		t.Errorf("FindFirst = (%d, %d, %v), want (2, 4, true)", start, end, ok)
	}
}

func TestParseKindRoundTrip(t *testing.T) {
	for _, k := range []Kind{Literal, Regex} {
		parsed, err := ParseKind(k.String())
		if err != nil {
			t.Fatalf("ParseKind(%q): %v", k.String(), err)
		}
		if parsed != k {
			t.Errorf("round trip %v != %v", parsed, k)
		}
	}
	if _, err := ParseKind("nope"); err == nil {
		t.Error("expected error for unknown kind")
	}
}
