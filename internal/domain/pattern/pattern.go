// Package pattern provides the content patterns that triggers and scopes
// match with, and their compiled matcher primitives.
package pattern

import (
	"bytes"
	"fmt"
	"regexp"
)

// Kind denotes how a pattern's content is interpreted.
type Kind int

const (
	// Literal matches a contiguous byte-equal occurrence anywhere in the input.
	Literal Kind = iota
	// Regex matches anywhere the regular expression finds a match (unanchored).
	Regex
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case Literal:
		return "literal"
	case Regex:
		return "regex"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// ParseKind parses a wire name into a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "literal", "raw":
		return Literal, nil
	case "regex":
		return Regex, nil
	default:
		return 0, fmt.Errorf("unknown pattern kind %q", s)
	}
}

// Pattern is an uncompiled content pattern.
type Pattern struct {
	Content string
	Kind    Kind
}

// Matcher is a compiled single-pattern matcher.
type Matcher interface {
	// Matches reports whether the pattern occurs anywhere in content.
	Matches(content []byte) bool
	// FindFirst returns the leftmost-earliest match span, if any.
	FindFirst(content []byte) (start, end int, ok bool)
}

// Compile compiles the pattern into a Matcher. Literal patterns never fail;
// Regex patterns fail when the expression does not compile under Go's regexp
// dialect.
func (p Pattern) Compile() (Matcher, error) {
	switch p.Kind {
	case Literal:
		return literalMatcher(p.Content), nil
	case Regex:
		re, err := regexp.Compile(p.Content)
		if err != nil {
			return nil, fmt.Errorf("compile regex %q: %w", p.Content, err)
		}
		return &regexMatcher{re: re}, nil
	default:
		return nil, fmt.Errorf("unknown pattern kind %d", int(p.Kind))
	}
}

type literalMatcher []byte

func (m literalMatcher) Matches(content []byte) bool {
	return bytes.Contains(content, m)
}

func (m literalMatcher) FindFirst(content []byte) (int, int, bool) {
	i := bytes.Index(content, m)
	if i < 0 {
		return 0, 0, false
	}
	return i, i + len(m), true
}

type regexMatcher struct {
	re *regexp.Regexp
}

func (m *regexMatcher) Matches(content []byte) bool {
	return m.re.Match(content)
}

func (m *regexMatcher) FindFirst(content []byte) (int, int, bool) {
	loc := m.re.FindIndex(content)
	if loc == nil {
		return 0, 0, false
	}
	return loc[0], loc[1], true
}
