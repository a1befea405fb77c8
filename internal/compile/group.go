package compile

import (
	"errors"
	"fmt"

	"github.com/kailas-cloud/ieql/internal/domain"
	"github.com/kailas-cloud/ieql/internal/domain/pattern"
	"github.com/kailas-cloud/ieql/internal/domain/query"
)

// binding is one entry of the reverse table G: it relates a global pattern
// slot in a bucket's fused scanner back to (query position, local trigger).
type binding struct {
	query   int
	trigger int
}

// bucket holds the queries of one content kind and their fused matchers.
type bucket struct {
	kind    query.ContentKind
	queries []*compiledQuery
	// triggers is the fused scanner over every trigger of every query in the
	// bucket; table is G, indexed by the scanner's slots.
	triggers *multiScanner
	table    []binding
	// scopes fuses the URL-scope patterns; slot i belongs to queries[i], so
	// a single URL pass yields the scope-passing set for the whole bucket.
	scopes       *multiScanner
	needsExcerpt bool
}

// Group is an immutable compiled query group: up to one bucket per content
// kind, shared by reference across scan workers.
type Group struct {
	buckets [query.NumContentKinds]*bucket
	queries int
}

// NewGroup compiles the queries into a shared group. A single bad pattern
// or invalid query aborts the whole group; no partial group is exposed.
// Pattern-slot assignment follows the input order, so identical inputs
// compile to identical groups.
func NewGroup(queries []query.Query) (*Group, error) {
	g := &Group{queries: len(queries)}

	compiled := make([]*compiledQuery, 0, len(queries))
	for _, q := range queries {
		if q.Scope.Content < 0 || q.Scope.Content >= query.NumContentKinds {
			return nil, fmt.Errorf("%w: query %q has unknown content kind %d",
				domain.ErrIncompatibleGroup, q.ID, int(q.Scope.Content))
		}
		cq, err := compileQuery(q)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, cq)
	}

	for _, cq := range compiled {
		b := g.buckets[cq.content]
		if b == nil {
			b = &bucket{kind: cq.content}
			g.buckets[cq.content] = b
		}
		b.queries = append(b.queries, cq)
		b.needsExcerpt = b.needsExcerpt || cq.needsExcerpt
	}

	for _, b := range g.buckets {
		if b == nil {
			continue
		}
		if err := b.fuse(); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// GroupFromQuery compiles a single query into a group, for callers that want
// the concurrent scan path without assembling a set.
func GroupFromQuery(q query.Query) (*Group, error) {
	return NewGroup([]query.Query{q})
}

// QueryCount returns the number of queries the group was built from.
func (g *Group) QueryCount() int { return g.queries }

// fuse builds the bucket's fused trigger scanner, the reverse table, and the
// fused scope scanner.
func (b *bucket) fuse() error {
	var pats []pattern.Pattern
	for qi, cq := range b.queries {
		for ti, trig := range cq.triggers {
			pats = append(pats, trig.pat)
			b.table = append(b.table, binding{query: qi, trigger: ti})
		}
	}

	triggers, err := newMultiScanner(pats)
	if err != nil {
		var serr *slotError
		if errors.As(err, &serr) {
			bind := b.table[serr.slot]
			cq := b.queries[bind.query]
			return domain.NewPatternError(cq.id, cq.triggers[bind.trigger].id, serr.cause)
		}
		return err
	}
	b.triggers = triggers

	scopePats := make([]pattern.Pattern, len(b.queries))
	for qi, cq := range b.queries {
		scopePats[qi] = cq.scopePat
	}
	scopes, err := newMultiScanner(scopePats)
	if err != nil {
		var serr *slotError
		if errors.As(err, &serr) {
			return domain.NewPatternError(b.queries[serr.slot].id, "", serr.cause)
		}
		return err
	}
	b.scopes = scopes
	return nil
}
