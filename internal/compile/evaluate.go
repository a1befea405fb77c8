package compile

import (
	"errors"
	"sort"

	"github.com/kailas-cloud/ieql/internal/domain/document"
	"github.com/kailas-cloud/ieql/internal/domain/query"
)

// ErrTextUnavailable reports that a Text bucket was skipped for a document
// because extraction yielded nothing and raw fallback is disabled.
var ErrTextUnavailable = errors.New("text extraction unavailable")

// Extractor turns a document into extracted text. ok=false means no
// extractor exists for the document kind.
type Extractor func(document.Document) ([]byte, bool)

// Config controls per-document evaluation.
type Config struct {
	// Extract supplies Text-kind content. When nil, Text buckets always fall
	// back to raw content (subject to AllowTextFallback).
	Extract Extractor
	// AllowTextFallback scans raw content when extraction is unavailable.
	AllowTextFallback bool
}

// Span is the first match span of one witness trigger within the scanned
// content.
type Span struct {
	TriggerID string
	Start     int
	End       int
}

// Match is one query's match against one document, ready for response
// building.
type Match struct {
	QueryID  string
	Response query.Response
	Kind     query.ContentKind
	// Content is the rendition the triggers scanned (raw bytes or extracted
	// text); excerpts are drawn from it.
	Content []byte
	// Witness holds the first spans of the witness triggers, ordered
	// leftmost-earliest. Populated only when the response includes excerpts.
	Witness []Span
}

// Scratch is per-worker evaluation state, reused across documents.
type Scratch struct {
	perBucket [query.NumContentKinds]bucketScratch
	text      []byte
	textOK    bool
	textSet   bool
}

type bucketScratch struct {
	scopeHits []bool
	trigHits  []bool
	fired     []bitset
}

// NewScratch allocates scratch sized for the group.
func (g *Group) NewScratch() *Scratch {
	s := &Scratch{}
	for k, b := range g.buckets {
		if b == nil {
			continue
		}
		bs := &s.perBucket[k]
		bs.scopeHits = make([]bool, len(b.queries))
		bs.trigHits = make([]bool, b.triggers.slots)
		bs.fired = make([]bitset, len(b.queries))
		for qi, cq := range b.queries {
			bs.fired[qi] = newBitset(len(cq.triggers))
		}
	}
	return s
}

func (s *Scratch) reset() {
	s.text = nil
	s.textOK = false
	s.textSet = false
}

// extractOnce computes extracted text at most once per document, however
// many queries ask for it.
func (s *Scratch) extractOnce(doc document.Document, extract Extractor) ([]byte, bool) {
	if !s.textSet {
		s.textSet = true
		if extract != nil {
			s.text, s.textOK = extract(doc)
		}
	}
	return s.text, s.textOK
}

// Evaluate scans one document against every bucket of the group and returns
// the matching queries. The returned error is per-document diagnostic
// information (a skipped Text bucket); it never invalidates the returned
// matches from other buckets.
func (g *Group) Evaluate(doc document.Document, s *Scratch, cfg Config) ([]Match, error) {
	s.reset()
	var matches []Match
	var docErr error
	urlBytes := []byte(doc.URL)

	for k := range g.buckets {
		b := g.buckets[k]
		if b == nil {
			continue
		}
		bs := &s.perBucket[k]

		clearBools(bs.scopeHits)
		b.scopes.scan(urlBytes, bs.scopeHits)
		if !anyTrue(bs.scopeHits) {
			continue
		}

		content := doc.Content
		if b.kind == query.Text {
			text, ok := s.extractOnce(doc, cfg.Extract)
			if ok {
				content = text
			} else if !cfg.AllowTextFallback {
				docErr = ErrTextUnavailable
				continue
			}
		}

		clearBools(bs.trigHits)
		b.triggers.scan(content, bs.trigHits)

		for qi := range bs.fired {
			bs.fired[qi].clear()
		}
		for slot, hit := range bs.trigHits {
			if !hit {
				continue
			}
			bind := b.table[slot]
			if bs.scopeHits[bind.query] {
				bs.fired[bind.query].set(bind.trigger)
			}
		}

		for qi, cq := range b.queries {
			if !bs.scopeHits[qi] {
				continue
			}
			fired := bs.fired[qi]
			if cq.needsExcerpt {
				witness := newBitset(len(cq.triggers))
				if !cq.threshold.witness(fired, witness) {
					continue
				}
				matches = append(matches, Match{
					QueryID:  cq.id,
					Response: cq.response,
					Kind:     b.kind,
					Content:  content,
					Witness:  collectSpans(cq, witness, content),
				})
			} else if cq.threshold.eval(fired) {
				matches = append(matches, Match{
					QueryID:  cq.id,
					Response: cq.response,
					Kind:     b.kind,
					Content:  content,
				})
			}
		}
	}
	return matches, docErr
}

// collectSpans resolves each witness trigger to its first match span,
// ordered leftmost-earliest.
func collectSpans(cq *compiledQuery, witness bitset, content []byte) []Span {
	var spans []Span
	witness.forEach(func(i int) {
		trig := cq.triggers[i]
		start, end, ok := trig.matcher.FindFirst(content)
		if !ok {
			return
		}
		spans = append(spans, Span{TriggerID: trig.id, Start: start, End: end})
	})
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].End < spans[j].End
	})
	return spans
}

func clearBools(b []bool) {
	for i := range b {
		b[i] = false
	}
}

func anyTrue(b []bool) bool {
	for _, v := range b {
		if v {
			return true
		}
	}
	return false
}
