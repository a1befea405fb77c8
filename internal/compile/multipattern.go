package compile

import (
	"fmt"
	"regexp"

	"github.com/cloudflare/ahocorasick"

	"github.com/kailas-cloud/ieql/internal/domain/pattern"
)

// multiScanner is a fused multi-pattern matcher over a slice of pattern
// slots. All literal patterns share one Aho-Corasick automaton; regex
// patterns are deduplicated by expression and run in the same content pass.
// A scan reports, per slot, whether the pattern matched at least once.
type multiScanner struct {
	slots int
	// ac matches the unique literal dictionary; acSlots maps each dictionary
	// entry back to every slot bound to it.
	ac      *ahocorasick.Matcher
	acSlots [][]int
	regexes []fusedRegex
	// alwaysSlots fire on every input (empty literal patterns).
	alwaysSlots []int
}

type fusedRegex struct {
	re    *regexp.Regexp
	slots []int
}

// slotError reports a pattern that failed group-level compilation, by slot.
type slotError struct {
	slot  int
	cause error
}

func (e *slotError) Error() string {
	return fmt.Sprintf("pattern slot %d: %v", e.slot, e.cause)
}

// newMultiScanner fuses the given patterns. Slot order is the caller's
// pattern order; duplicate content shares automaton state but keeps every
// slot binding.
func newMultiScanner(pats []pattern.Pattern) (*multiScanner, error) {
	m := &multiScanner{slots: len(pats)}

	litIndex := make(map[string]int)
	var dict [][]byte
	reIndex := make(map[string]int)

	for slot, p := range pats {
		switch p.Kind {
		case pattern.Literal:
			if p.Content == "" {
				m.alwaysSlots = append(m.alwaysSlots, slot)
				continue
			}
			i, ok := litIndex[p.Content]
			if !ok {
				i = len(dict)
				litIndex[p.Content] = i
				dict = append(dict, []byte(p.Content))
				m.acSlots = append(m.acSlots, nil)
			}
			m.acSlots[i] = append(m.acSlots[i], slot)
		case pattern.Regex:
			i, ok := reIndex[p.Content]
			if !ok {
				re, err := regexp.Compile(p.Content)
				if err != nil {
					return nil, &slotError{slot: slot, cause: err}
				}
				i = len(m.regexes)
				reIndex[p.Content] = i
				m.regexes = append(m.regexes, fusedRegex{re: re})
			}
			m.regexes[i].slots = append(m.regexes[i].slots, slot)
		default:
			return nil, &slotError{slot: slot, cause: fmt.Errorf("unknown pattern kind %d", int(p.Kind))}
		}
	}

	if len(dict) > 0 {
		m.ac = ahocorasick.NewMatcher(dict)
	}
	return m, nil
}

// scan sets hits[slot] = true for every slot whose pattern occurs in
// content. hits must have length slots and arrive cleared. Safe for
// concurrent use.
func (m *multiScanner) scan(content []byte, hits []bool) {
	for _, s := range m.alwaysSlots {
		hits[s] = true
	}
	if m.ac != nil {
		for _, d := range m.ac.MatchThreadSafe(content) {
			for _, s := range m.acSlots[d] {
				hits[s] = true
			}
		}
	}
	for i := range m.regexes {
		if m.regexes[i].re.Match(content) {
			for _, s := range m.regexes[i].slots {
				hits[s] = true
			}
		}
	}
}
