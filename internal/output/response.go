// Package output projects matched documents into the response shapes their
// queries requested.
package output

import (
	"github.com/google/uuid"

	"github.com/kailas-cloud/ieql/internal/compile"
	"github.com/kailas-cloud/ieql/internal/domain/document"
	"github.com/kailas-cloud/ieql/internal/domain/query"
)

// DefaultExcerptWindow is the context window, in bytes, on each side of an
// excerpt's match span.
const DefaultExcerptWindow = 64

// Response is one emitted match. Field presence follows the query's
// response descriptor; empty means absent.
type Response struct {
	ID          string `json:"id"`
	QueryID     string `json:"query_id,omitempty"`
	Kind        string `json:"kind"`
	URL         string `json:"url,omitempty"`
	Domain      string `json:"domain,omitempty"`
	MIME        string `json:"mime,omitempty"`
	Excerpt     string `json:"excerpt,omitempty"`
	FullContent []byte `json:"full_content,omitempty"`
}

// Build projects a match into its response. window bounds the excerpt
// context on each side of the first witness span; window <= 0 uses the
// default. The excerpt is drawn from the content the trigger scanned.
func Build(doc document.Document, m compile.Match, window int) Response {
	if window <= 0 {
		window = DefaultExcerptWindow
	}
	resp := Response{
		ID:      responseID(m.QueryID, doc),
		QueryID: m.QueryID,
		Kind:    m.Response.Kind.String(),
	}
	for _, f := range m.Response.Include {
		switch f {
		case query.FieldURL:
			resp.URL = doc.URL
		case query.FieldDomain:
			if host, ok := doc.Domain(); ok {
				resp.Domain = host
			}
		case query.FieldMIME:
			resp.MIME = doc.MIME
		case query.FieldExcerpt:
			resp.Excerpt = excerpt(m.Content, m.Witness, window)
		case query.FieldFullContent:
			resp.FullContent = doc.Content
		}
	}
	return resp
}

// responseID derives a stable UUID from the query and document, so repeated
// scans of the same document emit byte-identical responses.
func responseID(queryID string, doc document.Document) string {
	name := make([]byte, 0, len(queryID)+len(doc.URL)+len(doc.Content)+2)
	name = append(name, queryID...)
	name = append(name, 0)
	name = append(name, doc.URL...)
	name = append(name, 0)
	name = append(name, doc.Content...)
	return uuid.NewSHA1(uuid.NameSpaceOID, name).String()
}

// excerpt cuts a context window around the first witness span, clamped to
// the content bounds. Matches without a span (inverted thresholds) yield no
// excerpt.
func excerpt(content []byte, witness []compile.Span, window int) string {
	if len(witness) == 0 {
		return ""
	}
	first := witness[0]
	start := first.Start - window
	if start < 0 {
		start = 0
	}
	end := first.End + window
	if end > len(content) {
		end = len(content)
	}
	return string(content[start:end])
}
