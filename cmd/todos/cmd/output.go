package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/corey/todos/internal/ports"
)

const (
	maxBar       = 20
	topFiles     = 10
	contextStyle = "monokai"
)

// palette renders styled text. With color off every style is the identity,
// so plain output is byte-stable.
type palette struct {
	color bool

	path, line, meta, dim lipgloss.Style
	fail                  lipgloss.Style
	tags                  map[ports.Tag]lipgloss.Style
	custom                lipgloss.Style
}

func newPalette(w io.Writer, color bool) palette {
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return palette{
		color: color,
		path:  r.NewStyle().Bold(true),
		line:  r.NewStyle().Foreground(lipgloss.Color("6")).Faint(true),
		meta:  r.NewStyle().Faint(true),
		dim:   r.NewStyle().Foreground(lipgloss.Color("8")),
		fail:  r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		tags: map[ports.Tag]lipgloss.Style{
			ports.TagTodo:  r.NewStyle().Foreground(lipgloss.Color("3")),
			ports.TagFixme: r.NewStyle().Foreground(lipgloss.Color("1")),
			ports.TagHack:  r.NewStyle().Foreground(lipgloss.Color("5")),
			ports.TagBug:   r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
			ports.TagXXX:   r.NewStyle().Foreground(lipgloss.Color("5")).Bold(true),
		},
		custom: r.NewStyle().Foreground(lipgloss.Color("7")),
	}
}

func (p palette) render(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

func (p palette) tag(t ports.Tag, text string) string {
	s, ok := p.tags[t]
	if !ok {
		s = p.custom
	}
	return p.render(s, text)
}

// highlight renders a source line with chroma, picking the lexer from the
// file name.
func (p palette) highlight(file, src string) string {
	if !p.color {
		return src
	}
	name := "plaintext"
	if l := lexers.Match(filepath.Base(file)); l != nil {
		name = l.Config().Name
	}
	var buf bytes.Buffer
	if err := quick.Highlight(&buf, src, name, "terminal256", contextStyle); err != nil {
		return src
	}
	return buf.String()
}

// textOptions tune the text renderer.
type textOptions struct {
	context bool // print the source line under each item
	summary bool
}

// writeText prints items grouped by file:
//
//	src/main.rs
//	    L12  TODO   Add error handling (alice, #123)
//
//	── Summary ──────────────────────────────
//	1 TODOs in 1 files (scanned 4 files in 3ms)
//	  TODO: 1
func writeText(w io.Writer, res ports.ScanResult, p palette, opts textOptions) {
	var sb strings.Builder
	current := ""
	for i, it := range res.Items {
		if it.File != current {
			if i > 0 {
				sb.WriteString("\n")
			}
			current = it.File
			sb.WriteString(p.render(p.path, it.File))
			sb.WriteString("\n")
		}
		sb.WriteString("  ")
		sb.WriteString(p.render(p.line, fmt.Sprintf("%5s", fmt.Sprintf("L%d", it.Line))))
		sb.WriteString("  ")
		sb.WriteString(p.tag(it.Tag, fmt.Sprintf("%-6s", it.Tag)))
		sb.WriteString(" ")
		sb.WriteString(it.Message)
		if meta := formatMetadata(it); meta != "" {
			sb.WriteString(" ")
			sb.WriteString(p.render(p.meta, meta))
		}
		sb.WriteString("\n")
		if opts.context && strings.TrimSpace(it.Context) != "" {
			sb.WriteString("         ")
			sb.WriteString(p.highlight(it.File, strings.TrimSpace(it.Context)))
			sb.WriteString("\n")
		}
	}

	if opts.summary {
		if len(res.Items) > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(p.render(p.dim, "── Summary "+strings.Repeat("─", 30)))
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "%d TODOs in %d files (scanned %d files in %dms",
			res.Stats.TotalItems, res.Stats.FilesWithItems, res.Stats.FilesScanned,
			res.Metadata.Elapsed.Milliseconds())
		if res.Stats.FromCache > 0 {
			fmt.Fprintf(&sb, ", %d from cache", res.Stats.FromCache)
		}
		sb.WriteString(")\n")
		if breakdown := tagBreakdown(res.Stats.ByTag); breakdown != "" {
			sb.WriteString("  ")
			sb.WriteString(breakdown)
			sb.WriteString("\n")
		}
	}
	io.WriteString(w, sb.String())
}

// formatMetadata renders "(author, #issue, p:priority)", or "" when the item
// carries none.
func formatMetadata(it ports.Item) string {
	var parts []string
	if it.Author != "" {
		parts = append(parts, it.Author)
	}
	if it.Issue != "" {
		issue := it.Issue
		if !strings.HasPrefix(issue, "#") {
			issue = "#" + issue
		}
		parts = append(parts, issue)
	}
	if it.Priority != ports.PriorityNone {
		parts = append(parts, "p:"+it.Priority.String())
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// tagBreakdown lists built-in tags in vocabulary order, then custom tags
// alphabetically.
func tagBreakdown(byTag map[string]int) string {
	var parts []string
	seen := make(map[string]bool)
	for _, t := range ports.BuiltinTags {
		seen[t.String()] = true
		if n := byTag[t.String()]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s: %d", t, n))
		}
	}
	var custom []string
	for t, n := range byTag {
		if !seen[t] && n > 0 {
			custom = append(custom, t)
		}
	}
	sort.Strings(custom)
	for _, t := range custom {
		parts = append(parts, fmt.Sprintf("%s: %d", t, byTag[t]))
	}
	return strings.Join(parts, "  ")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCount(w io.Writer, res ports.ScanResult) {
	fmt.Fprintln(w, res.Stats.TotalItems)
}

// writeResult dispatches on the output format.
func writeResult(w io.Writer, res ports.ScanResult, format string, p palette, opts textOptions) error {
	switch format {
	case "json":
		return writeJSON(w, res)
	case "count":
		writeCount(w, res)
		return nil
	default:
		writeText(w, res, p, opts)
		return nil
	}
}

// =============================================================================
// Stats
// =============================================================================

type countEntry struct {
	label string
	count int
}

// sortedCounts orders by count descending, then label.
func sortedCounts(m map[string]int) []countEntry {
	out := make([]countEntry, 0, len(m))
	for k, v := range m {
		out = append(out, countEntry{k, v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].label < out[j].label
	})
	return out
}

func bar(count, peak int) string {
	n := 0
	if peak > 0 {
		n = count * maxBar / peak
	}
	if n < 1 {
		n = 1
	}
	return strings.Repeat("█", n)
}

func labelWidth(entries []countEntry) int {
	w := 0
	for _, e := range entries {
		if len(e.label) > w {
			w = len(e.label)
		}
	}
	return w
}

// writeStats prints tag distribution, top files and authors as bar charts.
func writeStats(w io.Writer, res ports.ScanResult, p palette) {
	var sb strings.Builder

	sb.WriteString(p.render(p.path, "Tag Distribution:"))
	sb.WriteString("\n")
	tags := sortedCounts(res.Stats.ByTag)
	if len(tags) == 0 {
		sb.WriteString("  (no items found)\n")
	} else {
		width := labelWidth(tags)
		for _, e := range tags {
			pct := 0
			if res.Stats.TotalItems > 0 {
				pct = e.count * 100 / res.Stats.TotalItems
			}
			fmt.Fprintf(&sb, "  %s %-20s %3d (%2d%%)\n",
				p.tag(ports.ParseTag(e.label), fmt.Sprintf("%-*s", width, e.label)),
				bar(e.count, tags[0].count), e.count, pct)
		}
	}

	files := make(map[string]int)
	authors := make(map[string]int)
	for _, it := range res.Items {
		files[it.File]++
		if it.Author != "" {
			authors[it.Author]++
		}
	}

	sb.WriteString("\n")
	sb.WriteString(p.render(p.path, "Top Files (by TODO count):"))
	sb.WriteString("\n")
	writeBars(&sb, sortedCounts(files), topFiles, "  (no items found)")

	sb.WriteString("\n")
	sb.WriteString(p.render(p.path, "Authors:"))
	sb.WriteString("\n")
	writeBars(&sb, sortedCounts(authors), 0, "  (no authors found)")

	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Total: %d items in %d files (%d files scanned)\n",
		res.Stats.TotalItems, res.Stats.FilesWithItems, res.Stats.FilesScanned)
	io.WriteString(w, sb.String())
}

// writeBars prints one bar per entry; limit 0 means all.
func writeBars(sb *strings.Builder, entries []countEntry, limit int, empty string) {
	if len(entries) == 0 {
		sb.WriteString(empty)
		sb.WriteString("\n")
		return
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	width := labelWidth(entries)
	for _, e := range entries {
		fmt.Fprintf(sb, "  %-*s %-20s %d\n", width, e.label, bar(e.count, entries[0].count), e.count)
	}
}
