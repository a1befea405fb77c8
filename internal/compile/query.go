package compile

import (
	"github.com/kailas-cloud/ieql/internal/domain/pattern"
	"github.com/kailas-cloud/ieql/internal/domain/query"
)

// compiledTrigger is one trigger with its compiled single-pattern matcher.
// The matcher serves excerpt span lookup; presence detection runs through
// the bucket's fused scanner.
type compiledTrigger struct {
	id      string
	pat     pattern.Pattern
	matcher pattern.Matcher
}

// compiledQuery is the intermediate form of one validated query: compiled
// scope, indexed triggers, and a threshold program with resolved indices.
type compiledQuery struct {
	id           string
	content      query.ContentKind
	scopePat     pattern.Pattern
	triggers     []compiledTrigger
	threshold    nodeProg
	response     query.Response
	needsExcerpt bool
	needsFull    bool
}

// compileQuery validates and compiles a single query.
func compileQuery(q query.Query) (*compiledQuery, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	triggers := make([]compiledTrigger, len(q.Triggers))
	index := make(map[string]int, len(q.Triggers))
	for i, trig := range q.Triggers {
		m, err := trig.Pattern.Compile()
		if err != nil {
			return nil, err
		}
		triggers[i] = compiledTrigger{id: trig.ID, pat: trig.Pattern, matcher: m}
		index[trig.ID] = i
	}

	return &compiledQuery{
		id:           q.ID,
		content:      q.Scope.Content,
		scopePat:     q.Scope.Pattern,
		triggers:     triggers,
		threshold:    resolveThreshold(q.Threshold, index, len(q.Triggers)),
		response:     q.Response,
		needsExcerpt: q.Response.Kind == query.Full && q.Response.Includes(query.FieldExcerpt),
		needsFull:    q.Response.Includes(query.FieldFullContent),
	}, nil
}
