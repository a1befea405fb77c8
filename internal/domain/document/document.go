// Package document holds the document record supplied by the external
// source.
package document

import (
	"net/url"
	"strings"
)

// Document is one web document to be scanned. The engine never fetches
// documents; any producer of (url, mime, content) records can feed it.
type Document struct {
	// URL of the document. There is no guarantee it is a valid URL; local
	// paths and other opaque identifiers pass through unchanged.
	URL string
	// MIME is the document's media type, per RFC 2045. Empty means unknown.
	MIME string
	// Content is the raw document byte stream.
	Content []byte
}

// Domain derives the host component of the URL, case-folded and with a
// leading "www." stripped. Returns ok=false for unparsable URLs or URLs
// without a host.
func (d Document) Domain() (string, bool) {
	parsed, err := url.Parse(d.URL)
	if err != nil {
		return "", false
	}
	host := parsed.Hostname()
	if host == "" {
		return "", false
	}
	host = strings.ToLower(host)
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return "", false
	}
	return host, true
}

// IsHTML reports whether the document looks like HTML, by MIME type or by a
// .html URL suffix.
func (d Document) IsHTML() bool {
	mime := d.MIME
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if strings.TrimSpace(mime) == "text/html" {
		return true
	}
	return strings.HasSuffix(d.URL, ".html")
}
