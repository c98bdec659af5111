// Package config loads scanner settings from, in increasing precedence:
// built-in defaults, a TOML config file, TODOS_* environment variables and
// command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// FileName is the per-project config file searched upward from the scan path.
const FileName = ".todo-tracker.toml"

// EnvPrefix prefixes environment overrides, e.g. TODOS_SCAN_PRECISE=false.
const EnvPrefix = "TODOS"

// Config is the full settings tree.
type Config struct {
	Scan     ScanConfig     `mapstructure:"scan" toml:"scan"`
	Cache    CacheConfig    `mapstructure:"cache" toml:"cache"`
	Output   OutputConfig   `mapstructure:"output" toml:"output"`
	Policy   PolicyConfig   `mapstructure:"policy" toml:"policy"`
	Grammars GrammarsConfig `mapstructure:"grammars" toml:"grammars"`
}

type ScanConfig struct {
	MaxFileSize      int64    `mapstructure:"max_file_size" toml:"max_file_size"`
	Tags             []string `mapstructure:"tags" toml:"tags"`
	Precise          bool     `mapstructure:"precise" toml:"precise"`
	Workers          int      `mapstructure:"workers" toml:"workers"`
	Exclude          []string `mapstructure:"exclude" toml:"exclude"`
	RespectGitignore bool     `mapstructure:"respect_gitignore" toml:"respect_gitignore"`
}

type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled" toml:"enabled"`
	Dir     string `mapstructure:"dir" toml:"dir"`
}

type OutputConfig struct {
	Format string `mapstructure:"format" toml:"format"` // text | json | count
	Color  string `mapstructure:"color" toml:"color"`   // auto | always | never
}

type PolicyConfig struct {
	MaxTodos     int      `mapstructure:"max_todos" toml:"max_todos"`
	RequireIssue []string `mapstructure:"require_issue" toml:"require_issue"`
	DenyTags     []string `mapstructure:"deny_tags" toml:"deny_tags"`
}

type GrammarsConfig struct {
	Paths []string `mapstructure:"paths" toml:"paths"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Scan: ScanConfig{
			MaxFileSize:      1 << 20,
			Tags:             []string{},
			Precise:          true,
			Exclude:          []string{},
			RespectGitignore: true,
		},
		Cache:    CacheConfig{Enabled: true},
		Output:   OutputConfig{Format: "text", Color: "auto"},
		Policy:   PolicyConfig{RequireIssue: []string{}, DenyTags: []string{}},
		Grammars: GrammarsConfig{Paths: []string{}},
	}
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"max-file-size": "scan.max_file_size",
	"precise":       "scan.precise",
	"workers":       "scan.workers",
	"exclude":       "scan.exclude",
	"cache":         "cache.enabled",
	"cache-dir":     "cache.dir",
	"format":        "output.format",
	"color":         "output.color",
	"max":           "policy.max_todos",
	"require-issue": "policy.require_issue",
	"deny":          "policy.deny_tags",
}

// Options control where Load looks.
type Options struct {
	File     string         // explicit config file; skips the search
	StartDir string         // where the upward search begins (default ".")
	Flags    *pflag.FlagSet // flags to bind; names without a config key are ignored
}

// Load resolves the configuration. It returns the settings and the config
// file used ("" when none was found).
func Load(opts Options) (Config, string, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := opts.File
	if path == "" {
		start := opts.StartDir
		if start == "" {
			start = "."
		}
		path = Find(start)
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, path, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if opts.Flags != nil {
		for name, key := range flagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, path, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, path, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, path, err
	}
	return cfg, path, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("scan.max_file_size", d.Scan.MaxFileSize)
	v.SetDefault("scan.tags", d.Scan.Tags)
	v.SetDefault("scan.precise", d.Scan.Precise)
	v.SetDefault("scan.workers", d.Scan.Workers)
	v.SetDefault("scan.exclude", d.Scan.Exclude)
	v.SetDefault("scan.respect_gitignore", d.Scan.RespectGitignore)
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.dir", d.Cache.Dir)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.color", d.Output.Color)
	v.SetDefault("policy.max_todos", d.Policy.MaxTodos)
	v.SetDefault("policy.require_issue", d.Policy.RequireIssue)
	v.SetDefault("policy.deny_tags", d.Policy.DenyTags)
	v.SetDefault("grammars.paths", d.Grammars.Paths)
}

// Validate rejects values no command can act on.
func (c Config) Validate() error {
	switch c.Output.Format {
	case "text", "json", "count":
	default:
		return fmt.Errorf("output.format %q: want text, json or count", c.Output.Format)
	}
	switch c.Output.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("output.color %q: want auto, always or never", c.Output.Color)
	}
	if c.Scan.MaxFileSize < 0 {
		return errors.New("scan.max_file_size must not be negative")
	}
	if c.Scan.Workers < 0 {
		return errors.New("scan.workers must not be negative")
	}
	return nil
}

// Find searches for FileName in start and its parents, then falls back to
// <user config dir>/todo-tracker/config.toml. Returns "" if neither exists.
func Find(start string) string {
	dir, err := filepath.Abs(start)
	if err == nil {
		if fi, statErr := os.Stat(dir); statErr == nil && !fi.IsDir() {
			dir = filepath.Dir(dir)
		}
		for {
			candidate := filepath.Join(dir, FileName)
			if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
				return candidate
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}
	if global := GlobalFile(); global != "" {
		if fi, err := os.Stat(global); err == nil && !fi.IsDir() {
			return global
		}
	}
	return ""
}

// GlobalFile returns the user-level config path, or "" if the platform has
// no config directory.
func GlobalFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "todo-tracker", "config.toml")
}
