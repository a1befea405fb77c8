// Package query holds the validated in-memory query model: triggers, scope,
// threshold tree, and response descriptor.
package query

import (
	"fmt"

	"github.com/kailas-cloud/ieql/internal/domain"
	"github.com/kailas-cloud/ieql/internal/domain/pattern"
)

// ContentKind selects which rendition of a document a query scans.
type ContentKind int

const (
	// Raw is the unmodified document byte stream.
	Raw ContentKind = iota
	// Text is extracted text, falling back to Raw when extraction is
	// unavailable for the document's MIME.
	Text
)

// NumContentKinds is the number of ContentKind values, for dense indexing.
const NumContentKinds = 2

// String returns the wire name of the kind.
func (c ContentKind) String() string {
	switch c {
	case Raw:
		return "raw"
	case Text:
		return "text"
	default:
		return fmt.Sprintf("unknown(%d)", int(c))
	}
}

// ParseContentKind parses a wire name into a ContentKind.
func ParseContentKind(s string) (ContentKind, error) {
	switch s {
	case "raw":
		return Raw, nil
	case "text":
		return Text, nil
	default:
		return 0, fmt.Errorf("unknown content kind %q", s)
	}
}

// Trigger is a named pattern. It is passive data until compiled.
type Trigger struct {
	Pattern pattern.Pattern
	ID      string
}

// Scope gates which documents a query considers: the pattern is tested
// against the document URL, Content selects the rendition the triggers scan.
type Scope struct {
	Pattern pattern.Pattern
	Content ContentKind
}

// Query is an uncompiled content-monitoring query. It is constructed by the
// parser, validated here, and frozen by compilation.
type Query struct {
	// ID identifies the query in emitted responses. Empty means absent.
	ID        string
	Triggers  []Trigger
	Scope     Scope
	Threshold Group
	Response  Response
}

// Validate checks the query's structural invariants: trigger-id uniqueness,
// threshold reference resolution, response descriptor consistency, and
// pattern compilability.
func (q Query) Validate() error {
	seen := make(map[string]struct{}, len(q.Triggers))
	for _, trig := range q.Triggers {
		if trig.ID == "" {
			return domain.NewQueryError(q.ID, "trigger with empty id")
		}
		if _, dup := seen[trig.ID]; dup {
			return domain.NewQueryError(q.ID, "duplicate trigger id %q", trig.ID)
		}
		seen[trig.ID] = struct{}{}
	}

	if err := q.Threshold.walkRefs(func(id string) error {
		if _, ok := seen[id]; !ok {
			return domain.NewQueryError(q.ID, "threshold references unknown trigger %q", id)
		}
		return nil
	}); err != nil {
		return err
	}

	if err := q.Response.Validate(); err != nil {
		return domain.NewQueryError(q.ID, "invalid response: %v", err)
	}

	if _, err := q.Scope.Pattern.Compile(); err != nil {
		return domain.NewPatternError(q.ID, "", err)
	}
	for _, trig := range q.Triggers {
		if _, err := trig.Pattern.Compile(); err != nil {
			return domain.NewPatternError(q.ID, trig.ID, err)
		}
	}
	return nil
}
