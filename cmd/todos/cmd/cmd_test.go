package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corey/todos/internal/config"
	"github.com/corey/todos/internal/ports"
)

// isolate keeps user-level config and grammar dirs out of the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("NO_COLOR", "1")
	for _, k := range []string{"TODOS_OUTPUT_FORMAT", "TODOS_SCAN_PRECISE", "TODOS_CACHE_ENABLED"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func sampleTree(t *testing.T) string {
	return writeTree(t, map[string]string{
		"src/main.go": "package main\n\n// TODO(alice, #12): wire flags\nfunc main() {}\n",
		"src/lib.go":  "package main\n\n// FIXME(p:high): leaks\n// HACK: retry twice\n",
		"app.py":      "# BUG: off by one\nx = 1\n",
		"README.txt":  "nothing to see\n",
	})
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	c := NewRootCmd()
	var out, errb bytes.Buffer
	c.SetOut(&out)
	c.SetErr(&errb)
	c.SetArgs(args)
	err := c.Execute()
	return out.String(), errb.String(), err
}

// =============================================================================
// scan / list
// =============================================================================

func TestScan_DefaultCommandText(t *testing.T) {
	isolate(t)
	root := sampleTree(t)

	out, _, err := run(t, root, "--no-precise", "--cache=false")
	require.NoError(t, err)

	assert.Contains(t, out, filepath.Join(root, "src", "main.go")+"\n")
	assert.Contains(t, out, "     L3  TODO   wire flags (alice, #12)\n")
	assert.Contains(t, out, "     L3  FIXME  leaks (p:high)\n")
	assert.Contains(t, out, "     L1  BUG    off by one\n")
	assert.Contains(t, out, "4 TODOs in 3 files (scanned 4 files in ")
}

func TestScan_ListSubcommandJSON(t *testing.T) {
	isolate(t)
	root := sampleTree(t)

	out, _, err := run(t, "list", root, "--no-precise", "--cache=false", "--format", "json")
	require.NoError(t, err)

	var res ports.ScanResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 4, res.Stats.TotalItems)
	require.Len(t, res.Items, 4)
	assert.Equal(t, ports.TagBug, res.Items[0].Tag, "app.py sorts first")
}

func TestScan_PathFlag(t *testing.T) {
	isolate(t)
	root := sampleTree(t)

	out, _, err := run(t, "scan", "--path", root, "--no-precise", "--cache=false", "--format", "count")
	require.NoError(t, err)
	assert.Equal(t, "4\n", out)
}

func TestScan_Filters(t *testing.T) {
	isolate(t)
	root := sampleTree(t)
	base := []string{"scan", root, "--no-precise", "--cache=false", "--format", "count"}

	tests := []struct {
		name  string
		extra []string
		want  string
	}{
		{"tag", []string{"--tag", "fixme,hack"}, "2\n"},
		{"author", []string{"--author", "ALICE"}, "1\n"},
		{"file", []string{"--file", "*.py"}, "1\n"},
		{"priority", []string{"--priority", "p1"}, "1\n"},
		{"has issue", []string{"--has-issue"}, "1\n"},
		{"combined", []string{"--tag", "TODO", "--priority", "high"}, "0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := run(t, append(append([]string{}, base...), tt.extra...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestScan_BadPriority(t *testing.T) {
	isolate(t)
	_, _, err := run(t, "scan", t.TempDir(), "--priority", "urgent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown priority")
}

func TestScan_BadFormat(t *testing.T) {
	isolate(t)
	_, _, err := run(t, "scan", t.TempDir(), "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output.format")
}

func TestScan_ConfigFileApplies(t *testing.T) {
	isolate(t)
	root := sampleTree(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, config.FileName),
		[]byte("[scan]\nprecise = false\nexclude = [\"*.py\"]\n[cache]\nenabled = false\n[output]\nformat = \"count\"\n"), 0o644))

	out, _, err := run(t, root)
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)
}

func TestScan_CacheAndClearCache(t *testing.T) {
	isolate(t)
	root := sampleTree(t)

	first, _, err := run(t, root, "--no-precise")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, ".todo-tracker", "cache.db"))

	second, _, err := run(t, root, "--no-precise")
	require.NoError(t, err)
	assert.Contains(t, second, "4 from cache")
	assert.NotContains(t, first, "from cache")

	third, _, err := run(t, root, "--no-precise", "--clear-cache")
	require.NoError(t, err)
	assert.NotContains(t, third, "from cache")
}

func TestScan_Precise(t *testing.T) {
	isolate(t)
	root := writeTree(t, map[string]string{
		"main.go": "package main\n\nvar s = `\n// TODO: inside a raw string\n`\n\n// TODO: real one\n",
	})

	out, _, err := run(t, root, "--cache=false", "--format", "count")
	require.NoError(t, err)
	if out != "1\n" {
		// Lean builds have no compiled-in grammars and keep both.
		assert.Equal(t, "2\n", out)
	}

	out, _, err = run(t, root, "--cache=false", "--format", "count", "--no-precise")
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)
}

// =============================================================================
// stats / check
// =============================================================================

func TestStats_Text(t *testing.T) {
	isolate(t)
	root := sampleTree(t)

	out, _, err := run(t, "stats", root, "--no-precise", "--cache=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Tag Distribution:")
	assert.Contains(t, out, "Authors:\n  alice ")
	assert.Contains(t, out, "Total: 4 items in 3 files (4 files scanned)")
}

func TestStats_JSON(t *testing.T) {
	isolate(t)
	root := sampleTree(t)

	out, _, err := run(t, "stats", root, "--no-precise", "--cache=false", "--format", "json")
	require.NoError(t, err)
	var stats ports.ScanStats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 4, stats.TotalItems)
	assert.Equal(t, 1, stats.ByTag["HACK"])
}

func TestCheck_Passes(t *testing.T) {
	isolate(t)
	root := sampleTree(t)

	out, _, err := run(t, "check", root, "--no-precise", "--cache=false", "--max", "10")
	require.NoError(t, err)
	assert.Equal(t, "All checks passed.\n", out)
}

func TestCheck_Violations(t *testing.T) {
	isolate(t)
	root := sampleTree(t)

	_, errOut, err := run(t, "check", root, "--no-precise", "--cache=false",
		"--max", "2", "--require-issue", "fixme", "--deny", "HACK")
	require.Error(t, err)
	assert.Equal(t, 1, ExitCode(err))

	assert.Contains(t, errOut, "[error] max_todos: found 4 items, maximum allowed is 2\n")
	assert.Contains(t, errOut, "[error] require_issue: FIXME at ")
	assert.Contains(t, errOut, "[error] deny_tags: denied tag HACK found at ")
	assert.Contains(t, errOut, "3 policy violation(s) found.")
}

func TestCheck_ConfigPolicy(t *testing.T) {
	isolate(t)
	root := sampleTree(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, config.FileName),
		[]byte("[policy]\ndeny_tags = [\"BUG\"]\n"), 0o644))

	_, errOut, err := run(t, "check", root, "--no-precise", "--cache=false")
	assert.Equal(t, 1, ExitCode(err))
	assert.Contains(t, errOut, "denied tag BUG")
}

func TestCheck_JSON(t *testing.T) {
	isolate(t)
	root := sampleTree(t)

	out, _, err := run(t, "check", root, "--no-precise", "--cache=false", "--format", "json")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

// =============================================================================
// init / cache / languages
// =============================================================================

func TestInit(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	out, _, err := run(t, "init", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Created ")
	assert.FileExists(t, filepath.Join(dir, config.FileName))

	_, _, err = run(t, "init", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestCacheClearAndInfo(t *testing.T) {
	isolate(t)
	root := sampleTree(t)

	_, _, err := run(t, root, "--no-precise")
	require.NoError(t, err)

	out, _, err := run(t, "cache", "info", root, "--no-precise")
	require.NoError(t, err)
	assert.Contains(t, out, "Files:  4\n")

	out, _, err = run(t, "cache", "clear", root, "--no-precise")
	require.NoError(t, err)
	assert.Contains(t, out, "Cache cleared: ")

	out, _, err = run(t, "cache", "info", root, "--no-precise")
	require.NoError(t, err)
	assert.Contains(t, out, "Files:  0\n")
}

func TestCacheDirFlag(t *testing.T) {
	isolate(t)
	root := sampleTree(t)
	shared := t.TempDir()

	_, _, err := run(t, root, "--no-precise", "--cache-dir", shared)
	require.NoError(t, err)
	assert.NoDirExists(t, filepath.Join(root, ".todo-tracker"))

	entries, err := os.ReadDir(shared)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLanguages(t *testing.T) {
	isolate(t)
	out, _, err := run(t, "languages", "--path", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "LANGUAGE")
	assert.Contains(t, out, "Rust")
	assert.Contains(t, out, ".py .pyi")
	assert.Contains(t, out, "C#")
}

// =============================================================================
// helpers
// =============================================================================

func TestExitCode(t *testing.T) {
	assert.Equal(t, 1, ExitCode(exitError{code: 1}))
	assert.Equal(t, -1, ExitCode(errors.New("boom")))
	assert.Equal(t, -1, ExitCode(nil))
}

func TestIsDBLockError(t *testing.T) {
	assert.False(t, isDBLockError(nil))
	assert.False(t, isDBLockError(errors.New("permission denied")))
	assert.True(t, isDBLockError(errors.New("bbolt open: timeout")))
	assert.Contains(t, diagnoseDBLock("/x/cache.db"), "/x/cache.db")
}

func TestResolveColor(t *testing.T) {
	var buf bytes.Buffer
	assert.True(t, resolveColor("always", &buf))
	assert.False(t, resolveColor("never", &buf))
	assert.False(t, resolveColor("auto", &buf), "a buffer is not a terminal")
	assert.False(t, isTTY(&buf))
}
