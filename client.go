// Package ieql compiles content-monitoring queries into a shared matcher
// and scans document streams against it.
//
// Thousands of queries compile into one compiled group whose trigger
// patterns are fused into a single multi-pattern scan per content kind; each
// document is scanned once per kind regardless of query count, and per-query
// identity, scopes, and response shapes are preserved through demultiplexing.
package ieql

import (
	"bytes"
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ieql/internal/compile"
	"github.com/kailas-cloud/ieql/internal/domain/document"
	"github.com/kailas-cloud/ieql/internal/domain/pattern"
	"github.com/kailas-cloud/ieql/internal/domain/query"
	"github.com/kailas-cloud/ieql/internal/extract"
	"github.com/kailas-cloud/ieql/internal/output"
	"github.com/kailas-cloud/ieql/internal/parser"
	"github.com/kailas-cloud/ieql/internal/scan"
)

// Model aliases: callers build queries from these types and hand them to
// Compile. Values are frozen once compiled.
type (
	Query       = query.Query
	Trigger     = query.Trigger
	Scope       = query.Scope
	ContentKind = query.ContentKind
	Node        = query.Node
	TriggerRef  = query.TriggerRef
	Group       = query.Group
	Response    = query.Response
	Field       = query.Field
	Pattern     = pattern.Pattern
	PatternKind = pattern.Kind

	Document     = document.Document
	ScanResponse = output.Response
	Task         = scan.Task
)

// Re-exported enum values for query construction.
const (
	Raw  = query.Raw
	Text = query.Text

	Literal = pattern.Literal
	Regex   = pattern.Regex

	Full    = query.Full
	Partial = query.Partial

	FieldURL         = query.FieldURL
	FieldDomain      = query.FieldDomain
	FieldMIME        = query.FieldMIME
	FieldExcerpt     = query.FieldExcerpt
	FieldFullContent = query.FieldFullContent
)

// Engine is a compiled, immutable query group plus its scan configuration.
// One engine is shared by reference across all scan workers.
type Engine struct {
	group  *compile.Group
	cfg    engineConfig
	logger *zap.Logger
}

// Compile validates and compiles the queries into an engine. A single
// invalid query or pattern fails the whole compilation.
func Compile(queries []Query, opts ...Option) (*Engine, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	group, err := compile.NewGroup(queries)
	if err != nil {
		return nil, err
	}
	return &Engine{group: group, cfg: cfg, logger: cfg.logger}, nil
}

// CompileSource parses a .ieql document (a single query, a query array, or
// an object with a "queries" field) and compiles it.
func CompileSource(data []byte, opts ...Option) (*Engine, error) {
	queries, err := ParseSource(data)
	if err != nil {
		return nil, err
	}
	return Compile(queries, opts...)
}

// ParseSource parses a .ieql document into validated queries.
func ParseSource(data []byte) ([]Query, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty query source")
	}
	if trimmed[0] == '[' {
		return parser.ParseGroup(trimmed)
	}
	if bytes.Contains(trimmed, []byte(`"queries"`)) {
		if queries, err := parser.ParseGroup(trimmed); err == nil && len(queries) > 0 {
			return queries, nil
		}
	}
	q, err := parser.ParseQuery(trimmed)
	if err != nil {
		return nil, err
	}
	return []Query{q}, nil
}

// QueryCount returns the number of queries compiled into the engine.
func (e *Engine) QueryCount() int {
	return e.group.QueryCount()
}

// ScanDocument scans one document synchronously and returns its responses.
// The returned error is a per-document diagnostic (e.g. text extraction
// unavailable with fallback disabled); responses from other content kinds
// are still returned alongside it.
func (e *Engine) ScanDocument(doc Document) ([]ScanResponse, error) {
	scratch := e.group.NewScratch()
	matches, err := e.group.Evaluate(doc, scratch, e.evalConfig())

	responses := make([]ScanResponse, 0, len(matches))
	for _, m := range matches {
		responses = append(responses, output.Build(doc, m, e.cfg.excerptWindow))
	}
	return responses, err
}

// Run drives the concurrent scanner: a worker pool consumes tasks from in
// until it is closed and drained, pushing responses to out. Cancelling ctx
// aborts at the next document boundary. Run does not close out.
func (e *Engine) Run(ctx context.Context, in <-chan Task, out chan<- ScanResponse) error {
	s := scan.New(e.group, scan.Config{
		Workers:            e.cfg.workers,
		ExcerptWindowBytes: e.cfg.excerptWindow,
		AllowTextFallback:  e.cfg.allowTextFallback,
		Extract:            e.cfg.extractor,
	}, e.logger)
	return s.Run(ctx, in, out)
}

func (e *Engine) evalConfig() compile.Config {
	return compile.Config{
		Extract:           e.cfg.extractor,
		AllowTextFallback: e.cfg.allowTextFallback,
	}
}

// defaultExtractor adapts the HTML text extractor.
func defaultExtractor(doc document.Document) ([]byte, bool) {
	return extract.Text(doc)
}
