package app

import (
	"bufio"
	"os"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ignoreRule is one gitignore-style line compiled to a doublestar glob.
type ignoreRule struct {
	glob    string
	negate  bool
	dirOnly bool
}

// IgnoreRules matches slash-separated paths relative to the scan root. The
// last matching rule wins, so a later "!pattern" re-includes a path.
type IgnoreRules struct {
	rules []ignoreRule
}

// parseIgnorePattern compiles one pattern. Blank lines and '#' comments yield
// false. A pattern with no inner '/' matches at any depth; a leading '/'
// anchors it to the root; a trailing '/' restricts it to directories.
func parseIgnorePattern(line string) (ignoreRule, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return ignoreRule{}, false
	}
	var r ignoreRule
	if strings.HasPrefix(line, "!") {
		r.negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		r.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}
	anchored := strings.HasPrefix(line, "/") || strings.Contains(line, "/")
	line = strings.TrimPrefix(line, "/")
	if line == "" {
		return ignoreRule{}, false
	}
	if anchored || strings.HasPrefix(line, "**") {
		r.glob = line
	} else {
		r.glob = "**/" + line
	}
	return r, true
}

// Add appends patterns in order.
func (ig *IgnoreRules) Add(patterns ...string) {
	for _, p := range patterns {
		if r, ok := parseIgnorePattern(p); ok {
			ig.rules = append(ig.rules, r)
		}
	}
}

// AddFile appends the patterns of an ignore file. A missing file is not an
// error.
func (ig *IgnoreRules) AddFile(name string) error {
	f, err := os.Open(name)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	for s.Scan() {
		ig.Add(s.Text())
	}
	return s.Err()
}

// Len returns the number of compiled rules.
func (ig *IgnoreRules) Len() int {
	return len(ig.rules)
}

// Match reports whether rel (slash-separated, relative to the root) is
// ignored.
func (ig *IgnoreRules) Match(rel string, isDir bool) bool {
	rel = path.Clean(strings.TrimPrefix(rel, "./"))
	ignored := false
	for _, r := range ig.rules {
		if r.dirOnly && !isDir {
			continue
		}
		if ok, err := doublestar.Match(r.glob, rel); err == nil && ok {
			ignored = !r.negate
		}
	}
	return ignored
}
