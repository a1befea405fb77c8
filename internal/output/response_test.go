package output

import (
	"strings"
	"testing"

	"github.com/kailas-cloud/ieql/internal/compile"
	"github.com/kailas-cloud/ieql/internal/domain/document"
	"github.com/kailas-cloud/ieql/internal/domain/query"
)

func fullMatch(include ...query.Field) compile.Match {
	return compile.Match{
		QueryID:  "q",
		Response: query.Response{Kind: query.Full, Include: include},
	}
}

func TestBuildIncludesRequestedFields(t *testing.T) {
	doc := document.Document{
		URL:     "https://www.Example.com/page",
		MIME:    "text/html",
		Content: []byte("raw bytes here"),
	}
	m := fullMatch(query.FieldURL, query.FieldDomain, query.FieldMIME, query.FieldFullContent)
	resp := Build(doc, m, 0)

	if resp.ID == "" {
		t.Error("response should carry an id")
	}
	if resp.QueryID != "q" || resp.Kind != "full" {
		t.Errorf("unexpected envelope: %+v", resp)
	}
	if resp.URL != doc.URL {
		t.Errorf("url = %q", resp.URL)
	}
	if resp.Domain != "example.com" {
		t.Errorf("domain = %q, want example.com", resp.Domain)
	}
	if resp.MIME != "text/html" {
		t.Errorf("mime = %q", resp.MIME)
	}
	if string(resp.FullContent) != "raw bytes here" {
		t.Errorf("full content = %q", resp.FullContent)
	}
}

func TestBuildIDIsDeterministic(t *testing.T) {
	doc := document.Document{URL: "https://example.com/", Content: []byte("stable")}
	m := fullMatch(query.FieldURL)
	first := Build(doc, m, 0)
	second := Build(doc, m, 0)
	if first.ID != second.ID {
		t.Errorf("ids differ across runs: %q vs %q", first.ID, second.ID)
	}
	other := Build(document.Document{URL: "https://example.com/", Content: []byte("different")}, m, 0)
	if other.ID == first.ID {
		t.Error("different documents should yield different ids")
	}
}

func TestBuildOmitsUnrequestedFields(t *testing.T) {
	doc := document.Document{URL: "https://example.com/", MIME: "text/plain", Content: []byte("x")}
	resp := Build(doc, fullMatch(), 0)
	if resp.URL != "" || resp.Domain != "" || resp.MIME != "" || resp.Excerpt != "" || resp.FullContent != nil {
		t.Errorf("unrequested fields must be absent: %+v", resp)
	}
}

func TestBuildDomainAbsentForUnparsableURL(t *testing.T) {
	doc := document.Document{URL: "/local/file.html"}
	resp := Build(doc, fullMatch(query.FieldDomain), 0)
	if resp.Domain != "" {
		t.Errorf("domain = %q, want absent", resp.Domain)
	}
}

func TestBuildExcerptWindow(t *testing.T) {
	content := []byte(strings.Repeat("a", 100) + "NEEDLE" + strings.Repeat("b", 100))
	m := fullMatch(query.FieldExcerpt)
	m.Content = content
	m.Witness = []compile.Span{{TriggerID: "t", Start: 100, End: 106}}

	resp := Build(document.Document{}, m, 10)
	want := strings.Repeat("a", 10) + "NEEDLE" + strings.Repeat("b", 10)
	if resp.Excerpt != want {
		t.Errorf("excerpt = %q, want %q", resp.Excerpt, want)
	}
}

func TestBuildExcerptClampedToBounds(t *testing.T) {
	content := []byte("NEEDLE tail")
	m := fullMatch(query.FieldExcerpt)
	m.Content = content
	m.Witness = []compile.Span{{TriggerID: "t", Start: 0, End: 6}}

	resp := Build(document.Document{}, m, 64)
	if resp.Excerpt != "NEEDLE tail" {
		t.Errorf("excerpt = %q, want full content", resp.Excerpt)
	}
}

func TestBuildExcerptEmptyWitness(t *testing.T) {
	m := fullMatch(query.FieldExcerpt)
	m.Content = []byte("anything")
	resp := Build(document.Document{}, m, 0)
	if resp.Excerpt != "" {
		t.Errorf("excerpt = %q, want absent for empty witness", resp.Excerpt)
	}
}
