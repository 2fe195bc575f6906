// Package config loads .plumbline.toml project files.
package config

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/match"

	"github.com/jward/plumbline/internal/source"
)

// FileName is the project file looked up from the target directory upwards.
const FileName = ".plumbline.toml"

// DefaultCache is the cache path used when the file does not set one,
// relative to the project root.
const DefaultCache = ".plumbline/cache.db"

// Config is a decoded project file.
type Config struct {
	// Path is the file the config was read from; empty for Default.
	Path string `toml:"-"`
	// Root is the directory containing Path.
	Root string `toml:"-"`

	Languages  []string `toml:"languages"`
	ColumnMode string   `toml:"column_mode"`
	TabWidth   int      `toml:"tab_width"`
	Exclude    []string `toml:"exclude"`
	// Cache is the database path; "" disables caching. nil means DefaultCache.
	Cache *string `toml:"cache"`

	Rules   map[string]RuleConfig `toml:"rules"`
	Scripts []ScriptConfig        `toml:"script"`
}

// RuleConfig overrides a rule's defaults, keyed by rule ID.
type RuleConfig struct {
	Enabled  *bool  `toml:"enabled"`
	Severity string `toml:"severity"`
	Message  string `toml:"message"`
}

// ScriptConfig declares a rule implemented by a Risor script.
type ScriptConfig struct {
	ID        string   `toml:"id"`
	Name      string   `toml:"name"`
	Path      string   `toml:"path"`
	Languages []string `toml:"languages"`
	Slots     int      `toml:"slots"`
	Message   string   `toml:"message"`
	Severity  string   `toml:"severity"`
}

// Default returns the configuration used when no project file exists.
func Default() *Config {
	return &Config{}
}

// Find walks up from startDir looking for FileName.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("config: resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("config: stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover loads the nearest project file above startDir, or Default when
// there is none.
func Discover(startDir string) (*Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Load decodes and validates the project file at path. Unknown keys are
// errors.
func Load(path string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg := &Config{}
	meta, err := toml.DecodeFile(abs, cfg)
	if err != nil {
		return nil, fmt.Errorf("config: %s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config: %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.Path = abs
	cfg.Root = filepath.Dir(abs)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	if _, err := c.Mode(); err != nil {
		return err
	}
	if c.TabWidth < 0 {
		return fmt.Errorf("tab_width must be positive, got %d", c.TabWidth)
	}
	seen := make(map[string]bool)
	for i, s := range c.Scripts {
		switch {
		case strings.TrimSpace(s.ID) == "":
			return fmt.Errorf("[[script]] #%d: missing id", i+1)
		case strings.TrimSpace(s.Path) == "":
			return fmt.Errorf("[[script]] %s: missing path", s.ID)
		case s.Slots < 0:
			return fmt.Errorf("[[script]] %s: slots must be positive", s.ID)
		case seen[s.ID]:
			return fmt.Errorf("[[script]] %s: duplicate id", s.ID)
		}
		seen[s.ID] = true
	}
	return nil
}

// Mode returns the configured column mode, defaulting to runes.
func (c *Config) Mode() (source.ColumnMode, error) {
	if c.ColumnMode == "" {
		return source.Runes, nil
	}
	return source.ParseColumnMode(c.ColumnMode)
}

// Tab returns the configured tab width, defaulting to source.DefaultTabWidth.
func (c *Config) Tab() int {
	if c.TabWidth == 0 {
		return source.DefaultTabWidth
	}
	return c.TabWidth
}

// CachePath returns the cache database path resolved against base (the
// project root when the config was loaded from a file), or "" when caching
// is disabled.
func (c *Config) CachePath(base string) string {
	p := DefaultCache
	if c.Cache != nil {
		p = *c.Cache
	}
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	if c.Root != "" {
		base = c.Root
	}
	return filepath.Join(base, p)
}

// ScriptPath resolves a script path against the config's directory.
func (c *Config) ScriptPath(s ScriptConfig) string {
	if filepath.IsAbs(s.Path) || c.Root == "" {
		return s.Path
	}
	return filepath.Join(c.Root, s.Path)
}

// RuleEnabled reports whether the rule with id is enabled. Rules are
// enabled unless configured otherwise.
func (c *Config) RuleEnabled(id string) bool {
	rc, ok := c.Rules[id]
	return !ok || rc.Enabled == nil || *rc.Enabled
}

// LanguageEnabled reports whether files of lang should be checked.
func (c *Config) LanguageEnabled(lang string) bool {
	return len(c.Languages) == 0 || slices.Contains(c.Languages, lang)
}

// Excluded reports whether path matches an exclude pattern. Patterns are
// matched against the slash-separated path relative to the config root;
// '*' matches across directories.
func (c *Config) Excluded(path string) bool {
	if len(c.Exclude) == 0 {
		return false
	}
	rel := path
	if c.Root != "" && filepath.IsAbs(path) {
		if r, err := filepath.Rel(c.Root, path); err == nil {
			rel = r
		}
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range c.Exclude {
		if match.Match(rel, pattern) {
			return true
		}
	}
	return false
}

// Hash fingerprints everything that affects lint results: the settings
// and the content of every script. Cached results computed under another
// hash are stale. load reads a script by its configured path; nil reads
// it from disk relative to Root.
func (c *Config) Hash(load func(path string) (string, error)) (string, error) {
	h := sha256.New()
	fmt.Fprintf(h, "languages:%s\n", strings.Join(c.Languages, ","))
	fmt.Fprintf(h, "column_mode:%s\n", c.ColumnMode)
	fmt.Fprintf(h, "tab_width:%d\n", c.Tab())

	ids := make([]string, 0, len(c.Rules))
	for id := range c.Rules {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		rc := c.Rules[id]
		fmt.Fprintf(h, "rule:%s:%v:%s:%s\n", id, c.RuleEnabled(id), rc.Severity, rc.Message)
	}
	for _, s := range c.Scripts {
		fmt.Fprintf(h, "script:%s:%s:%s:%d:%s:%s\n", s.ID, s.Name, strings.Join(s.Languages, ","), s.Slots, s.Message, s.Severity)
		var data string
		var err error
		if load != nil {
			data, err = load(s.Path)
		} else {
			var b []byte
			b, err = os.ReadFile(c.ScriptPath(s))
			data = string(b)
		}
		if err != nil {
			return "", fmt.Errorf("config: hash script %s: %w", s.ID, err)
		}
		fmt.Fprintf(h, "%d:%s\n", len(data), data)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
