// Package extract converts documents into readable text for Text-scoped
// queries. It is a pure function over the document bytes.
package extract

import (
	"bytes"
	"regexp"

	"golang.org/x/net/html"

	"github.com/kailas-cloud/ieql/internal/domain/document"
)

var spaceRe = regexp.MustCompile(`\s+`)

// Text extracts readable text from the document. Returns ok=false when no
// extractor exists for the document kind; callers decide whether to fall
// back to the raw bytes.
func Text(doc document.Document) ([]byte, bool) {
	if !doc.IsHTML() {
		return nil, false
	}
	return htmlText(doc.Content), true
}

// htmlText walks the token stream and collects text nodes, skipping script
// and style subtrees and collapsing runs of whitespace.
func htmlText(content []byte) []byte {
	z := html.NewTokenizer(bytes.NewReader(content))
	var out bytes.Buffer
	skipDepth := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return bytes.TrimSpace(spaceRe.ReplaceAll(out.Bytes(), []byte(" ")))
		case html.StartTagToken:
			if name, _ := z.TagName(); skippedTag(name) {
				skipDepth++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); skippedTag(name) && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth == 0 {
				out.Write(z.Text())
				out.WriteByte(' ')
			}
		}
	}
}

func skippedTag(name []byte) bool {
	switch string(name) {
	case "script", "style", "noscript":
		return true
	}
	return false
}
