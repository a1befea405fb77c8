package ieql

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/kailas-cloud/ieql/internal/domain"
)

func helloQuery(id string) Query {
	return Query{
		ID: id,
		Triggers: []Trigger{
			{Pattern: Pattern{Content: "hello", Kind: Literal}, ID: "A"},
			{Pattern: Pattern{Content: "world", Kind: Literal}, ID: "B"},
		},
		Scope: Scope{Pattern: Pattern{Content: ".+", Kind: Regex}, Content: Text},
		Threshold: Group{
			Considers: []Node{TriggerRef{ID: "A"}, TriggerRef{ID: "B"}},
			Requires:  1,
		},
		Response: Response{Kind: Full, Include: []Field{FieldURL, FieldExcerpt}},
	}
}

func TestCompileAndScanDocument(t *testing.T) {
	engine, err := Compile([]Query{helloQuery("greetings")})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if engine.QueryCount() != 1 {
		t.Errorf("QueryCount = %d", engine.QueryCount())
	}

	responses, err := engine.ScanDocument(Document{
		URL:     "http://example.com/",
		Content: []byte("say hello to everybody"),
	})
	if err != nil {
		t.Fatalf("ScanDocument: %v", err)
	}
	if len(responses) != 1 {
		t.Fatalf("responses = %d, want 1", len(responses))
	}
	resp := responses[0]
	if resp.QueryID != "greetings" || resp.URL != "http://example.com/" {
		t.Errorf("response = %+v", resp)
	}
	if !strings.Contains(resp.Excerpt, "hello") {
		t.Errorf("excerpt = %q", resp.Excerpt)
	}
}

func TestCompileRejectsInvalidQuery(t *testing.T) {
	q := helloQuery("bad")
	q.Threshold = Group{Considers: []Node{TriggerRef{ID: "missing"}}, Requires: 1}
	if _, err := Compile([]Query{q}); !errors.Is(err, domain.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestCompileSourceSingleQuery(t *testing.T) {
	src := `{
	  "id": "from-source",
	  "response": {"kind": "partial", "include": ["domain"]},
	  "scope": {"pattern": {"content": ".+", "kind": "regex"}, "content": "raw"},
	  "threshold": {"considers": [{"trigger": "A"}], "requires": 1},
	  "triggers": [{"pattern": {"content": "needle", "kind": "literal"}, "id": "A"}]
	}`
	engine, err := CompileSource([]byte(src))
	if err != nil {
		t.Fatalf("CompileSource: %v", err)
	}
	responses, err := engine.ScanDocument(Document{URL: "https://www.host.org/p", Content: []byte("a needle here")})
	if err != nil || len(responses) != 1 {
		t.Fatalf("scan = (%v, %v)", responses, err)
	}
	if responses[0].Domain != "host.org" {
		t.Errorf("domain = %q", responses[0].Domain)
	}
}

func TestParseSourceShapes(t *testing.T) {
	single := `{
	  "response": {"kind": "partial", "include": []},
	  "scope": {"pattern": {"content": ".+", "kind": "regex"}, "content": "raw"},
	  "threshold": {"considers": [{"trigger": "A"}], "requires": 1},
	  "triggers": [{"pattern": {"content": "x", "kind": "literal"}, "id": "A"}]
	}`
	wrapped := `{"queries": [` + single + `]}`
	array := `[` + single + `]`

	for name, src := range map[string]string{"single": single, "wrapped": wrapped, "array": array} {
		queries, err := ParseSource([]byte(src))
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if len(queries) != 1 {
			t.Errorf("%s: queries = %d", name, len(queries))
		}
	}

	if _, err := ParseSource([]byte("  ")); err == nil {
		t.Error("empty source should fail")
	}
}

func TestEngineRun(t *testing.T) {
	engine, err := Compile([]Query{helloQuery("q1"), helloQuery("q2")}, WithWorkers(4))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	in := make(chan Task, 4)
	out := make(chan ScanResponse, 16)
	in <- Task{Document: Document{URL: "http://a/", Content: []byte("hello")}}
	in <- Task{Document: Document{URL: "http://b/", Content: []byte("no match in this one")}}
	in <- Task{Document: Document{URL: "http://c/", Content: []byte("world")}}
	close(in)

	if err := engine.Run(context.Background(), in, out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	close(out)

	var ids []string
	for resp := range out {
		ids = append(ids, resp.QueryID)
	}
	sort.Strings(ids)
	want := []string{"q1", "q1", "q2", "q2"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range ids {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
}

func TestWithExtractorAndTextFallback(t *testing.T) {
	q := helloQuery("text-only")
	engine, err := Compile([]Query{q},
		WithTextFallback(false),
		WithExtractor(func(Document) ([]byte, bool) { return nil, false }),
	)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	responses, err := engine.ScanDocument(Document{URL: "http://x/", Content: []byte("hello")})
	if err == nil {
		t.Fatal("expected a diagnostic for unavailable extraction")
	}
	if len(responses) != 0 {
		t.Errorf("responses = %v, want none", responses)
	}
}
