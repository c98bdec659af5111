// Package extract is the lexical candidate stage: it tracks comment state line
// by line and applies the tag grammar to comment lines only. Its output is a
// pure function of file content, path, language rule and tag vocabulary.
package extract

import (
	"strings"

	"github.com/corey/todos/internal/domain/lang"
	"github.com/corey/todos/internal/ports"
)

// Extractor produces candidate items from file content. It holds no per-file
// state and is safe for concurrent use.
type Extractor struct {
	grammar   *Grammar
	prefilter ports.KeywordMatcher // optional
}

// NewExtractor creates an extractor for grammar. When prefilter is non-nil,
// comment lines containing none of its keywords skip the regex pass; the
// prefilter must cover the grammar's whole vocabulary.
func NewExtractor(grammar *Grammar, prefilter ports.KeywordMatcher) *Extractor {
	return &Extractor{grammar: grammar, prefilter: prefilter}
}

// Grammar returns the tag grammar in use.
func (e *Extractor) Grammar() *Grammar {
	return e.grammar
}

// Extract scans src and returns every tag occurrence on a comment line, in
// line then column order. A nil rule scans every line.
func (e *Extractor) Extract(path string, src []byte, rule *lang.Rule) []ports.Item {
	var items []ports.Item
	tracker := NewCommentTracker(rule)

	lineNo := 0
	forEachLine(string(src), func(line string) {
		lineNo++
		if !tracker.Advance(line) {
			return
		}
		if e.prefilter != nil && !e.prefilter.Contains(line) {
			return
		}
		for _, m := range e.grammar.MatchLine(line) {
			items = append(items, ports.Item{
				Tag:      m.Tag,
				Message:  m.Message,
				File:     path,
				Line:     lineNo,
				Column:   m.Start + 1,
				Author:   m.Author,
				Issue:    m.Issue,
				Priority: m.Priority,
				Context:  line,
			})
		}
	})
	return items
}

// forEachLine calls fn for each line of s. Lines end at '\n'; a trailing '\r'
// is dropped, and a final empty line after the last newline is not reported.
func forEachLine(s string, fn func(line string)) {
	for len(s) > 0 {
		var line string
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			line, s = s[:i], s[i+1:]
		} else {
			line, s = s, ""
		}
		fn(strings.TrimSuffix(line, "\r"))
	}
}
