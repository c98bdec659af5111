package extract

import (
	"strings"
	"unicode"

	"github.com/corey/todos/internal/domain/lang"
)

// CommentTracker decides, line by line, whether a line belongs to a comment.
// Block-comment depth persists across lines, so one tracker must see every
// line of a file in order.
type CommentTracker struct {
	rule  *lang.Rule
	depth int
}

// NewCommentTracker returns a tracker for rule. A nil rule means the language
// is unknown and every line is treated as a comment.
func NewCommentTracker(rule *lang.Rule) *CommentTracker {
	return &CommentTracker{rule: rule}
}

// Depth returns the current block-comment nesting depth.
func (t *CommentTracker) Depth() int {
	return t.depth
}

// Advance consumes one line and reports whether it is in a comment: the line
// started inside a block comment, opened a block comment, or begins (after
// leading whitespace) with a line-comment prefix.
func (t *CommentTracker) Advance(line string) bool {
	if t.rule == nil {
		return true
	}

	wasInBlock := t.depth > 0
	opened := false
	if t.rule.HasBlock() {
		opened = t.scanDelimiters(line)
	}

	return wasInBlock || opened || t.isLineComment(line)
}

// scanDelimiters walks the line left to right, applying block delimiters in
// the order they occur. An end delimiter only counts while depth > 0; a start
// found before the next end wins. Returns true if a block was opened.
func (t *CommentTracker) scanDelimiters(line string) bool {
	start, end := t.rule.BlockStart, t.rule.BlockEnd
	opened := false
	pos := 0
	for pos < len(line) {
		rest := line[pos:]
		s := strings.Index(rest, start)
		e := -1
		if t.depth > 0 {
			e = strings.Index(rest, end)
		}

		switch {
		case s >= 0 && (e < 0 || s < e):
			t.depth++
			opened = true
			pos += s + len(start)
		case e >= 0:
			t.depth--
			pos += e + len(end)
		default:
			return opened
		}
	}
	return opened
}

func (t *CommentTracker) isLineComment(line string) bool {
	trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
	for _, prefix := range t.rule.LineComments {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}
