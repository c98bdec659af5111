// Package policy narrows scan results for display and evaluates CI rules
// against them. Both operate on finished results and never rescan.
package policy

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/corey/todos/internal/ports"
)

// Filter selects items. Zero-valued fields do not constrain; set fields are
// AND-combined.
type Filter struct {
	Tags     []string       // any of, case-insensitive
	Authors  []string       // any of, case-insensitive; items without author never match
	File     string         // doublestar glob over the slash-separated path
	Priority ports.Priority // exact match when not PriorityNone
	HasIssue *bool
}

// SplitList splits a comma-separated flag value, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsEmpty reports whether the filter keeps every item.
func (f Filter) IsEmpty() bool {
	return len(f.Tags) == 0 && len(f.Authors) == 0 && f.File == "" &&
		f.Priority == ports.PriorityNone && f.HasIssue == nil
}

// Match reports whether it passes every set criterion.
func (f Filter) Match(it ports.Item) bool {
	if len(f.Tags) > 0 && !containsFold(f.Tags, it.Tag.String()) {
		return false
	}
	if len(f.Authors) > 0 && (it.Author == "" || !containsFold(f.Authors, it.Author)) {
		return false
	}
	if f.File != "" && !matchFile(f.File, it.File) {
		return false
	}
	if f.Priority != ports.PriorityNone && it.Priority != f.Priority {
		return false
	}
	if f.HasIssue != nil && *f.HasIssue != (it.Issue != "") {
		return false
	}
	return true
}

// Apply returns res narrowed to matching items with stats recomputed. An
// empty filter returns res unchanged.
func (f Filter) Apply(res ports.ScanResult) ports.ScanResult {
	if f.IsEmpty() {
		return res
	}
	return res.Filter(f.Match)
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// matchFile matches the pattern against the whole path, and a pattern
// without '/' against the base name too.
func matchFile(pattern, path string) bool {
	slash := filepath.ToSlash(path)
	if ok, err := doublestar.Match(pattern, slash); err == nil && ok {
		return true
	}
	if !strings.Contains(pattern, "/") {
		ok, err := doublestar.Match(pattern, filepath.Base(path))
		return err == nil && ok
	}
	if ok, err := doublestar.Match("**/"+strings.TrimPrefix(pattern, "/"), slash); err == nil && ok {
		return true
	}
	return false
}
