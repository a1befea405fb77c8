package document

import "testing"

func TestDomain(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		domain string
		ok     bool
	}{
		{"plain", "https://example.com/page", "example.com", true},
		{"www stripped", "https://www.Example.COM/x", "example.com", true},
		{"case folded", "http://NEWS.Example.com", "news.example.com", true},
		{"port ignored", "http://example.com:8080/x", "example.com", true},
		{"no host", "/local/path/file.html", "", false},
		{"unparsable", "http://%zz^", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Document{URL: tt.url}.Domain()
			if ok != tt.ok || got != tt.domain {
				t.Errorf("Domain() = (%q, %v), want (%q, %v)", got, ok, tt.domain, tt.ok)
			}
		})
	}
}

func TestIsHTML(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
		want bool
	}{
		{"mime", Document{MIME: "text/html"}, true},
		{"mime with charset", Document{MIME: "text/html; charset=utf-8"}, true},
		{"url suffix", Document{URL: "http://x/page.html"}, true},
		{"plain text", Document{MIME: "text/plain"}, false},
		{"unknown", Document{URL: "http://x/data.bin"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.doc.IsHTML(); got != tt.want {
				t.Errorf("IsHTML() = %v, want %v", got, tt.want)
			}
		})
	}
}
