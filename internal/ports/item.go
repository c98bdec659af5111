package ports

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Tag is an annotation keyword. The five built-in tags are normalized to upper
// case; any other tag is a custom tag and keeps the case it was written in.
type Tag string

const (
	TagTodo  Tag = "TODO"
	TagFixme Tag = "FIXME"
	TagHack  Tag = "HACK"
	TagBug   Tag = "BUG"
	TagXXX   Tag = "XXX"
)

// BuiltinTags lists the fixed tag vocabulary in display order.
var BuiltinTags = []Tag{TagTodo, TagFixme, TagHack, TagBug, TagXXX}

// ParseTag normalizes s against the built-in vocabulary (case-insensitive).
// Anything else is returned verbatim as a custom tag.
func ParseTag(s string) Tag {
	switch strings.ToUpper(s) {
	case "TODO":
		return TagTodo
	case "FIXME":
		return TagFixme
	case "HACK":
		return TagHack
	case "BUG":
		return TagBug
	case "XXX":
		return TagXXX
	}
	return Tag(s)
}

// IsCustom reports whether t is outside the built-in vocabulary.
func (t Tag) IsCustom() bool {
	for _, b := range BuiltinTags {
		if t == b {
			return false
		}
	}
	return true
}

func (t Tag) String() string { return string(t) }

// Priority is the optional urgency level attached to an annotation.
// The zero value means no priority was given.
type Priority int

const (
	PriorityNone Priority = iota
	PriorityLow
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

// ParsePriority resolves a priority alias. Aliases are case-insensitive:
// low/p:low/p3, medium/med/p:medium/p:med/p2, high/p:high/p1,
// critical/crit/p:critical/p:crit/p0.
func ParsePriority(s string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "p:low", "p3":
		return PriorityLow, true
	case "medium", "med", "p:medium", "p:med", "p2":
		return PriorityMedium, true
	case "high", "p:high", "p1":
		return PriorityHigh, true
	case "critical", "crit", "p:critical", "p:crit", "p0":
		return PriorityCritical, true
	}
	return PriorityNone, false
}

// String returns the canonical lower-case name, or "" for PriorityNone.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return ""
	}
}

// MarshalJSON encodes the canonical name, or null when no priority is set.
func (p Priority) MarshalJSON() ([]byte, error) {
	if p == PriorityNone {
		return []byte("null"), nil
	}
	return json.Marshal(p.String())
}

// UnmarshalJSON accepts any alias understood by ParsePriority, or null.
// Any other string is an error.
func (p *Priority) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil {
		*p = PriorityNone
		return nil
	}
	parsed, ok := ParsePriority(*s)
	if !ok {
		return fmt.Errorf("unknown priority %q", *s)
	}
	*p = parsed
	return nil
}

// Item is one detected annotation. Items are values: the extractor builds them,
// the verifier may drop them, aggregation only copies and reorders them.
type Item struct {
	Tag      Tag      `json:"tag"`
	Message  string   `json:"message"`
	File     string   `json:"file"`
	Line     int      `json:"line"`   // 1-based
	Column   int      `json:"column"` // 1-based byte offset of the tag
	Author   string   `json:"author,omitempty"`
	Issue    string   `json:"issue,omitempty"`
	Priority Priority `json:"priority"`
	Context  string   `json:"context_line"` // raw source line
}

// CommentRange is a half-open byte interval [Start, End) of a comment node.
type CommentRange struct {
	Start uint
	End   uint
}

// Contains reports whether off lies inside the range.
func (r CommentRange) Contains(off uint) bool {
	return off >= r.Start && off < r.End
}

// Fingerprint is the unit of cache validity. Two fingerprints for the same
// path are considered equal content only when both ModTime and Size match;
// a same-second rewrite with identical size is not detected.
type Fingerprint struct {
	Path    string
	ModTime int64 // unix seconds
	Size    int64
}

// ScanStats summarizes a scan. Every count except FilesScanned and FromCache
// is derived from the returned item list.
type ScanStats struct {
	TotalItems     int            `json:"total_items"`
	FilesScanned   int            `json:"files_scanned"`
	FilesWithItems int            `json:"files_with_items"`
	ByTag          map[string]int `json:"by_tag"`
	FromCache      int            `json:"from_cache"`
}

// NewScanStats derives statistics from the final item list.
func NewScanStats(items []Item, filesScanned int) ScanStats {
	stats := ScanStats{
		TotalItems:   len(items),
		FilesScanned: filesScanned,
		ByTag:        make(map[string]int),
	}
	files := make(map[string]struct{})
	for _, it := range items {
		stats.ByTag[it.Tag.String()]++
		files[it.File] = struct{}{}
	}
	stats.FilesWithItems = len(files)
	return stats
}

// ScanMetadata records when and where a scan ran.
type ScanMetadata struct {
	Elapsed   time.Duration `json:"elapsed_ns"`
	Root      string        `json:"root_path"`
	Timestamp time.Time     `json:"timestamp"`
}

// ScanResult is the value handed to renderers and policy evaluators.
// Consumers must treat it as read-only.
type ScanResult struct {
	Items    []Item       `json:"items"`
	Stats    ScanStats    `json:"stats"`
	Metadata ScanMetadata `json:"metadata"`
}

// SortItems orders items by (file, line), keeping column order stable for
// multiple tags on one line.
func SortItems(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].File != items[j].File {
			return items[i].File < items[j].File
		}
		return items[i].Line < items[j].Line
	})
}

// Filter returns a new result containing only items for which keep returns
// true. Stats are recomputed so they always describe the returned items.
func (r ScanResult) Filter(keep func(Item) bool) ScanResult {
	out := make([]Item, 0, len(r.Items))
	for _, it := range r.Items {
		if keep(it) {
			out = append(out, it)
		}
	}
	stats := NewScanStats(out, r.Stats.FilesScanned)
	stats.FromCache = r.Stats.FromCache
	return ScanResult{Items: out, Stats: stats, Metadata: r.Metadata}
}
