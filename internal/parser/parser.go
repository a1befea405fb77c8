// Package parser reads and writes the .ieql query text format and
// serializes responses. Parsing yields validated query values; the engine
// itself never sees unvalidated input.
package parser

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/ieql/internal/domain/pattern"
	"github.com/kailas-cloud/ieql/internal/domain/query"
	"github.com/kailas-cloud/ieql/internal/output"
)

type patternDTO struct {
	Content string `json:"content"`
	Kind    string `json:"kind"`
}

type triggerDTO struct {
	Pattern patternDTO `json:"pattern"`
	ID      string     `json:"id"`
}

type scopeDTO struct {
	Pattern patternDTO `json:"pattern"`
	Content string     `json:"content"`
}

// thresholdDTO is one considers entry: either a trigger reference or a
// nested threshold.
type thresholdDTO struct {
	Trigger   string         `json:"trigger,omitempty"`
	Considers []thresholdDTO `json:"considers,omitempty"`
	Requires  *uint32        `json:"requires,omitempty"`
	// Required is the deprecated v0.1 alias for Requires.
	Required *uint32 `json:"required,omitempty"`
	Inverse  bool    `json:"inverse,omitempty"`
}

type responseDTO struct {
	Kind    string   `json:"kind"`
	Include []string `json:"include"`
}

type queryDTO struct {
	Response  responseDTO  `json:"response"`
	Scope     scopeDTO     `json:"scope"`
	Threshold thresholdDTO `json:"threshold"`
	Triggers  []triggerDTO `json:"triggers"`
	ID        string       `json:"id,omitempty"`
}

type groupDTO struct {
	Queries []queryDTO `json:"queries"`
}

// ParseQuery parses one query document and validates it.
func ParseQuery(data []byte) (query.Query, error) {
	var dto queryDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return query.Query{}, fmt.Errorf("parse query: %w", err)
	}
	q, err := dto.toQuery()
	if err != nil {
		return query.Query{}, err
	}
	if err := q.Validate(); err != nil {
		return query.Query{}, err
	}
	return q, nil
}

// ParseGroup parses a query collection: either a top-level array or an
// object with a "queries" field. Every query is validated.
func ParseGroup(data []byte) ([]query.Query, error) {
	var dtos []queryDTO
	if err := json.Unmarshal(data, &dtos); err != nil {
		var grp groupDTO
		if err2 := json.Unmarshal(data, &grp); err2 != nil {
			return nil, fmt.Errorf("parse query group: %w", err)
		}
		dtos = grp.Queries
	}
	queries := make([]query.Query, 0, len(dtos))
	for i, dto := range dtos {
		q, err := dto.toQuery()
		if err != nil {
			return nil, fmt.Errorf("query %d: %w", i, err)
		}
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("query %d: %w", i, err)
		}
		queries = append(queries, q)
	}
	return queries, nil
}

// MarshalQuery serializes a query back into the canonical text shape.
func MarshalQuery(q query.Query) ([]byte, error) {
	return json.MarshalIndent(fromQuery(q), "", "  ")
}

// MarshalResponse serializes an emitted response.
func MarshalResponse(resp output.Response) ([]byte, error) {
	return json.Marshal(resp)
}

func (d queryDTO) toQuery() (query.Query, error) {
	scopePat, err := d.Scope.Pattern.toPattern()
	if err != nil {
		return query.Query{}, fmt.Errorf("scope: %w", err)
	}
	content, err := query.ParseContentKind(d.Scope.Content)
	if err != nil {
		return query.Query{}, fmt.Errorf("scope: %w", err)
	}

	triggers := make([]query.Trigger, len(d.Triggers))
	for i, t := range d.Triggers {
		pat, err := t.Pattern.toPattern()
		if err != nil {
			return query.Query{}, fmt.Errorf("trigger %q: %w", t.ID, err)
		}
		triggers[i] = query.Trigger{Pattern: pat, ID: t.ID}
	}

	threshold, err := d.Threshold.toGroup()
	if err != nil {
		return query.Query{}, fmt.Errorf("threshold: %w", err)
	}

	kind, err := query.ParseResponseKind(d.Response.Kind)
	if err != nil {
		return query.Query{}, fmt.Errorf("response: %w", err)
	}
	include := make([]query.Field, len(d.Response.Include))
	for i, name := range d.Response.Include {
		f, err := query.ParseField(name)
		if err != nil {
			return query.Query{}, fmt.Errorf("response: %w", err)
		}
		include[i] = f
	}

	return query.Query{
		ID:        d.ID,
		Triggers:  triggers,
		Scope:     query.Scope{Pattern: scopePat, Content: content},
		Threshold: threshold,
		Response:  query.Response{Kind: kind, Include: include},
	}, nil
}

func (d patternDTO) toPattern() (pattern.Pattern, error) {
	kind, err := pattern.ParseKind(d.Kind)
	if err != nil {
		return pattern.Pattern{}, err
	}
	return pattern.Pattern{Content: d.Content, Kind: kind}, nil
}

// requiresValue resolves the canonical requires field, accepting the
// deprecated required alias. When both are present, requires wins.
func (d thresholdDTO) requiresValue() uint32 {
	if d.Requires != nil {
		return *d.Requires
	}
	if d.Required != nil {
		return *d.Required
	}
	return 0
}

func (d thresholdDTO) toGroup() (query.Group, error) {
	considers := make([]query.Node, len(d.Considers))
	for i, c := range d.Considers {
		node, err := c.toNode()
		if err != nil {
			return query.Group{}, err
		}
		considers[i] = node
	}
	return query.Group{
		Considers: considers,
		Requires:  d.requiresValue(),
		Inverse:   d.Inverse,
	}, nil
}

func (d thresholdDTO) toNode() (query.Node, error) {
	if d.Trigger != "" {
		if len(d.Considers) > 0 {
			return nil, fmt.Errorf("threshold entry cannot be both a trigger reference and a group")
		}
		return query.TriggerRef{ID: d.Trigger}, nil
	}
	return d.toGroup()
}

func fromQuery(q query.Query) queryDTO {
	triggers := make([]triggerDTO, len(q.Triggers))
	for i, t := range q.Triggers {
		triggers[i] = triggerDTO{
			Pattern: patternDTO{Content: t.Pattern.Content, Kind: t.Pattern.Kind.String()},
			ID:      t.ID,
		}
	}
	include := make([]string, len(q.Response.Include))
	for i, f := range q.Response.Include {
		include[i] = f.String()
	}
	return queryDTO{
		Response: responseDTO{Kind: q.Response.Kind.String(), Include: include},
		Scope: scopeDTO{
			Pattern: patternDTO{Content: q.Scope.Pattern.Content, Kind: q.Scope.Pattern.Kind.String()},
			Content: q.Scope.Content.String(),
		},
		Threshold: fromGroup(q.Threshold),
		Triggers:  triggers,
		ID:        q.ID,
	}
}

func fromGroup(g query.Group) thresholdDTO {
	considers := make([]thresholdDTO, len(g.Considers))
	for i, c := range g.Considers {
		considers[i] = fromNode(c)
	}
	requires := g.Requires
	return thresholdDTO{
		Considers: considers,
		Requires:  &requires,
		Inverse:   g.Inverse,
	}
}

func fromNode(n query.Node) thresholdDTO {
	switch node := n.(type) {
	case query.TriggerRef:
		return thresholdDTO{Trigger: node.ID}
	case query.Group:
		return fromGroup(node)
	default:
		panic("parser: unknown threshold node type")
	}
}
