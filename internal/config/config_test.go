package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the user config dir at an empty temp dir so a developer's
// own config never leaks into a test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	cfg, path, err := Load(Options{StartDir: t.TempDir()})
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, int64(1<<20), cfg.Scan.MaxFileSize)
	assert.True(t, cfg.Scan.Precise)
	assert.True(t, cfg.Scan.RespectGitignore)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, "auto", cfg.Output.Color)
	assert.Empty(t, cfg.Scan.Tags)
}

func TestLoad_ProjectFile(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, FileName), `
[scan]
tags = ["PERF", "SAFETY"]
max_file_size = 2048
precise = false
exclude = ["vendor/**", "*.min.js"]

[cache]
enabled = false

[output]
format = "json"

[policy]
max_todos = 10
deny_tags = ["XXX"]
`)
	cfg, path, err := Load(Options{StartDir: root})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, FileName), path)
	assert.Equal(t, []string{"PERF", "SAFETY"}, cfg.Scan.Tags)
	assert.Equal(t, int64(2048), cfg.Scan.MaxFileSize)
	assert.False(t, cfg.Scan.Precise)
	assert.Equal(t, []string{"vendor/**", "*.min.js"}, cfg.Scan.Exclude)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, 10, cfg.Policy.MaxTodos)
	assert.Equal(t, []string{"XXX"}, cfg.Policy.DenyTags)
	// Unset keys keep their defaults.
	assert.True(t, cfg.Scan.RespectGitignore)
}

func TestFind_SearchesUpward(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, FileName), "")
	deep := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(deep, 0o755))

	assert.Equal(t, filepath.Join(root, FileName), Find(deep))
}

func TestFind_FromFile(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, FileName), "")
	file := filepath.Join(root, "main.go")
	writeFile(t, file, "package main\n")

	assert.Equal(t, filepath.Join(root, FileName), Find(file))
}

func TestFind_GlobalFallback(t *testing.T) {
	isolate(t)
	global := GlobalFile()
	require.NotEmpty(t, global)
	writeFile(t, global, "[output]\nformat = \"count\"\n")

	assert.Equal(t, global, Find(t.TempDir()))

	cfg, path, err := Load(Options{StartDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, global, path)
	assert.Equal(t, "count", cfg.Output.Format)
}

func TestLoad_ExplicitFile(t *testing.T) {
	isolate(t)
	file := filepath.Join(t.TempDir(), "custom.toml")
	writeFile(t, file, "[scan]\nworkers = 3\n")

	cfg, path, err := Load(Options{File: file})
	require.NoError(t, err)
	assert.Equal(t, file, path)
	assert.Equal(t, 3, cfg.Scan.Workers)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)
	_, _, err := Load(Options{File: filepath.Join(t.TempDir(), "nope.toml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoad_BadToml(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, FileName), "[scan\nprecise = ")
	_, _, err := Load(Options{StartDir: root})
	require.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, FileName), "[scan]\nprecise = true\n[output]\nformat = \"json\"\n")
	t.Setenv("TODOS_SCAN_PRECISE", "false")
	t.Setenv("TODOS_OUTPUT_FORMAT", "count")

	cfg, _, err := Load(Options{StartDir: root})
	require.NoError(t, err)
	assert.False(t, cfg.Scan.Precise)
	assert.Equal(t, "count", cfg.Output.Format)
}

func TestLoad_FlagsOverrideEverything(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, FileName), "[output]\nformat = \"json\"\n[policy]\nmax_todos = 5\n")
	t.Setenv("TODOS_OUTPUT_FORMAT", "count")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("format", "text", "")
	fs.Int("max", 0, "")
	fs.Bool("unrelated", false, "")
	require.NoError(t, fs.Parse([]string{"--format", "text", "--max", "7"}))

	cfg, _, err := Load(Options{StartDir: root, Flags: fs})
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, 7, cfg.Policy.MaxTodos)
}

func TestLoad_UnchangedFlagsDoNotOverride(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, FileName), "[output]\nformat = \"json\"\n")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("format", "text", "")
	require.NoError(t, fs.Parse(nil))

	cfg, _, err := Load(Options{StartDir: root, Flags: fs})
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Output.Format)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"bad format", func(c *Config) { c.Output.Format = "xml" }, false},
		{"bad color", func(c *Config) { c.Output.Color = "sometimes" }, false},
		{"negative size", func(c *Config) { c.Scan.MaxFileSize = -1 }, false},
		{"negative workers", func(c *Config) { c.Scan.Workers = -2 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if tt.ok {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}

// =============================================================================
// Starter file
// =============================================================================

func TestWriteStarter_RoundTrips(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	path := filepath.Join(root, FileName)
	require.NoError(t, WriteStarter(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# todo-tracker configuration.")
	assert.Contains(t, string(data), "[scan]")

	cfg, found, err := Load(Options{StartDir: root})
	require.NoError(t, err)
	assert.Equal(t, path, found)
	assert.Equal(t, Default().Scan.MaxFileSize, cfg.Scan.MaxFileSize)
	assert.Equal(t, Default().Output, cfg.Output)
}

func TestWriteStarter_RefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	writeFile(t, path, "# mine\n")

	err := WriteStarter(path)
	require.ErrorIs(t, err, ErrExists)

	data, _ := os.ReadFile(path)
	assert.Equal(t, "# mine\n", string(data))
}
