package extract

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/corey/todos/internal/ports"
)

// Grammar holds the two tag forms for a vocabulary:
//
//	TAG(meta, list)  metadata form, tried first
//	TAG              bare form, word-boundary matched
type Grammar struct {
	tags []string
	meta *regexp.Regexp
	bare *regexp.Regexp
}

// NewGrammar compiles the tag grammar for the built-in tags plus custom.
// Custom tags are matched literally, in the case they are given.
func NewGrammar(custom []string) *Grammar {
	tags := make([]string, 0, len(ports.BuiltinTags)+len(custom))
	seen := make(map[string]bool)
	for _, t := range ports.BuiltinTags {
		tags = append(tags, string(t))
		seen[string(t)] = true
	}
	for _, t := range custom {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
	}

	quoted := make([]string, len(tags))
	for i, t := range tags {
		quoted[i] = regexp.QuoteMeta(t)
	}
	alt := strings.Join(quoted, "|")

	return &Grammar{
		tags: tags,
		meta: regexp.MustCompile(`\b(` + alt + `)\(([^)]*)\)`),
		bare: regexp.MustCompile(`\b(` + alt + `)\b`),
	}
}

// Tags returns the vocabulary in match-priority order.
func (g *Grammar) Tags() []string {
	out := make([]string, len(g.tags))
	copy(out, g.tags)
	return out
}

// Match is one tag occurrence on a line.
type Match struct {
	Tag      ports.Tag
	Start    int // byte offset of the tag on the line
	Author   string
	Issue    string
	Priority ports.Priority
	Message  string
}

// MatchLine applies the grammar to one comment line. If the metadata form
// matches anywhere on the line, only metadata-form occurrences are returned;
// otherwise every bare occurrence is.
func (g *Grammar) MatchLine(line string) []Match {
	if locs := g.meta.FindAllStringSubmatchIndex(line, -1); len(locs) > 0 {
		out := make([]Match, 0, len(locs))
		for _, loc := range locs {
			author, issue, prio := ParseMetadata(line[loc[4]:loc[5]])
			out = append(out, Match{
				Tag:      ports.ParseTag(line[loc[2]:loc[3]]),
				Start:    loc[0],
				Author:   author,
				Issue:    issue,
				Priority: prio,
				Message:  messageAfter(line, loc[1]),
			})
		}
		return out
	}

	locs := g.bare.FindAllStringIndex(line, -1)
	if len(locs) == 0 {
		return nil
	}
	out := make([]Match, 0, len(locs))
	for _, loc := range locs {
		out = append(out, Match{
			Tag:     ports.ParseTag(line[loc[0]:loc[1]]),
			Start:   loc[0],
			Message: messageAfter(line, loc[1]),
		})
	}
	return out
}

// ParseMetadata classifies the comma-separated tokens inside TAG(...).
// "#..." is the issue, a priority alias is the priority, and the first
// remaining token is the author. Later unclassified tokens are ignored.
func ParseMetadata(s string) (author, issue string, prio ports.Priority) {
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.HasPrefix(part, "#") {
			issue = part
			continue
		}
		if p, ok := ports.ParsePriority(part); ok {
			prio = p
			continue
		}
		if author == "" {
			author = part
		}
	}
	return author, issue, prio
}

// messageAfter returns the text following offset end, skipping one
// parenthesized group directly after it and any leading ':', '-' or space.
func messageAfter(line string, end int) string {
	rest := line[end:]
	if strings.HasPrefix(rest, "(") {
		if i := strings.IndexByte(rest, ')'); i >= 0 {
			rest = rest[i+1:]
		}
	}
	return strings.TrimLeftFunc(rest, func(r rune) bool {
		return r == ':' || r == '-' || unicode.IsSpace(r)
	})
}
