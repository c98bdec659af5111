// Package ahocorasick provides multi-pattern string matching using an Aho-Corasick automaton.
// It wraps the petar-dambovaliev/aho-corasick library for O(n + m + z) matching.
package ahocorasick

import (
	aho "github.com/petar-dambovaliev/aho-corasick"
)

// Matcher implements ports.KeywordMatcher over a fixed keyword set.
// It is immutable after NewMatcher and safe for concurrent use.
type Matcher struct {
	automaton aho.AhoCorasick
	keywords  []string
}

// NewMatcher compiles the automaton for the given keywords. Empty keywords are
// dropped; a matcher with no keywords never matches.
func NewMatcher(keywords []string) *Matcher {
	kws := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw != "" {
			kws = append(kws, kw)
		}
	}
	m := &Matcher{keywords: kws}
	if len(kws) > 0 {
		builder := aho.NewAhoCorasickBuilder(aho.Opts{
			DFA: true,
		})
		m.automaton = builder.Build(kws)
	}
	return m
}

// Contains returns true if any keyword occurs in content.
func (m *Matcher) Contains(content string) bool {
	if len(m.keywords) == 0 || content == "" {
		return false
	}
	return len(m.automaton.FindAll(content)) > 0
}

// Match returns the distinct keywords found in content, in first-seen order.
// Overlapping occurrences are reported, so "FIXME" and "FIX" both match "FIXME".
func (m *Matcher) Match(content string) []string {
	if len(m.keywords) == 0 || content == "" {
		return nil
	}
	iter := m.automaton.IterOverlappingByte([]byte(content))
	var result []string
	seen := make(map[int]bool)
	for next := iter.Next(); next != nil; next = iter.Next() {
		idx := next.Pattern()
		if seen[idx] {
			continue
		}
		seen[idx] = true
		result = append(result, m.keywords[idx])
	}
	return result
}

// Keywords returns a copy of the compiled keyword set.
func (m *Matcher) Keywords() []string {
	out := make([]string, len(m.keywords))
	copy(out, m.keywords)
	return out
}
