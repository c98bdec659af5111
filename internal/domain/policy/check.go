package policy

import (
	"fmt"
	"strings"

	"github.com/corey/todos/internal/ports"
)

// Rules configures Check. Zero values disable a rule.
type Rules struct {
	MaxTodos     int      // 0 = unlimited
	RequireIssue []string // tags that must carry an issue reference
	DenyTags     []string // tags that must not appear
}

// Severity of a violation. Every rule reports SeverityError.
type Severity string

const SeverityError Severity = "error"

// Violation is one failed rule.
type Violation struct {
	Rule     string   `json:"rule"`
	Message  string   `json:"message"`
	File     string   `json:"file,omitempty"`
	Line     int      `json:"line,omitempty"`
	Severity Severity `json:"severity"`
}

func (v Violation) String() string {
	return fmt.Sprintf("[%s] %s: %s", v.Severity, v.Rule, v.Message)
}

// Check evaluates rules against res. Item-level violations follow the item
// order of res.
func Check(res ports.ScanResult, rules Rules) []Violation {
	var out []Violation

	if rules.MaxTodos > 0 && res.Stats.TotalItems > rules.MaxTodos {
		out = append(out, Violation{
			Rule:     "max_todos",
			Message:  fmt.Sprintf("found %d items, maximum allowed is %d", res.Stats.TotalItems, rules.MaxTodos),
			Severity: SeverityError,
		})
	}

	for _, it := range res.Items {
		if it.Issue == "" && containsFold(rules.RequireIssue, it.Tag.String()) {
			out = append(out, Violation{
				Rule:     "require_issue",
				Message:  fmt.Sprintf("%s at %s:%d requires an issue reference", it.Tag, it.File, it.Line),
				File:     it.File,
				Line:     it.Line,
				Severity: SeverityError,
			})
		}
	}

	for _, it := range res.Items {
		if containsFold(rules.DenyTags, it.Tag.String()) {
			out = append(out, Violation{
				Rule:     "deny_tags",
				Message:  fmt.Sprintf("denied tag %s found at %s:%d", it.Tag, it.File, it.Line),
				File:     it.File,
				Line:     it.Line,
				Severity: SeverityError,
			})
		}
	}
	return out
}

// HasErrors reports whether any violation is an error.
func HasErrors(vs []Violation) bool {
	for _, v := range vs {
		if v.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Summary is the closing line printed after violations.
func Summary(vs []Violation) string {
	if len(vs) == 0 {
		return "All checks passed."
	}
	return fmt.Sprintf("%d policy violation(s) found.", len(vs))
}

// normalizeTags upper-cases built-in tag names so config written as "fixme"
// still matches.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, ports.ParseTag(t).String())
		}
	}
	return out
}

// Normalize cleans tag lists in place and returns r.
func (r Rules) Normalize() Rules {
	r.RequireIssue = normalizeTags(r.RequireIssue)
	r.DenyTags = normalizeTags(r.DenyTags)
	return r
}
