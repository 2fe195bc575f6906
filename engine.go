package plumbline

import (
	"bytes"
	"cmp"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"log/slog"
	"os/exec"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/jward/plumbline/internal/config"
	"github.com/jward/plumbline/internal/rules"
	"github.com/jward/plumbline/internal/runtime"
	"github.com/jward/plumbline/internal/source"
	"github.com/jward/plumbline/internal/store"
	"github.com/jward/plumbline/scripts"
)

// configHashKey is the metadata key holding the hash the cached results
// were computed under.
const configHashKey = "config_hash"

// defaultScriptMessage is used by configured scripts that set no message.
const defaultScriptMessage = "elements should be aligned"

// Engine orchestrates the plumbline pipeline: file discovery, change
// detection, rule execution, fixing and cache queries.
type Engine struct {
	store     *store.Store // nil when caching is disabled
	cfg       *config.Config
	runtime   *runtime.Runtime // configured scripts
	bundled   *runtime.Runtime // scripts shipped in package scripts
	scriptsFS fs.FS
	logger    *slog.Logger
	languages map[string]bool // nil means all languages
	only      []string
	mode      source.ColumnMode
	modeSet   bool

	rules []rules.Rule
	hash  string

	// useParallel enables the worker pool for linting and fixing.
	useParallel bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLanguages restricts which languages the Engine will process. It
// takes precedence over the languages of the project file.
func WithLanguages(languages ...string) Option {
	return func(e *Engine) {
		e.languages = make(map[string]bool, len(languages))
		for _, lang := range languages {
			e.languages[lang] = true
		}
	}
}

// WithParallel controls the worker pool. When true (default), files are
// parsed and checked concurrently while cache writes stay on one
// goroutine. Set to false for serial mode.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.useParallel = parallel
	}
}

// WithRules restricts the Engine to the rules with the given IDs or names.
func WithRules(ids ...string) Option {
	return func(e *Engine) {
		e.only = ids
	}
}

// WithColumnMode overrides the column mode of the project file.
func WithColumnMode(mode ColumnMode) Option {
	return func(e *Engine) {
		e.mode = mode
		e.modeSet = true
	}
}

// WithConfig sets the project configuration. Without it the Engine runs
// with config.Default().
func WithConfig(cfg *Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithScriptsFS loads the scripts named by [[script]] entries from fsys
// instead of from disk relative to the project root.
func WithScriptsFS(fsys fs.FS) Option {
	return func(e *Engine) {
		e.scriptsFS = fsys
	}
}

// WithLogger sets the logger for per-file events and script output.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// DiscoverConfig loads the .plumbline.toml governing dir, searching parent
// directories, or returns the default configuration when there is none.
func DiscoverConfig(dir string) (*Config, error) {
	return config.Discover(dir)
}

// New creates an Engine caching results in a SQLite database at dbPath.
// An empty dbPath disables the cache. Cached results computed under a
// different configuration are dropped.
func New(dbPath string, opts ...Option) (*Engine, error) {
	e := &Engine{
		cfg:         config.Default(),
		logger:      slog.New(slog.DiscardHandler),
		useParallel: true,
	}
	for _, opt := range opts {
		opt(e)
	}

	if !e.modeSet {
		mode, err := e.cfg.Mode()
		if err != nil {
			return nil, fmt.Errorf("plumbline: %w", err)
		}
		e.mode = mode
	}
	if e.languages == nil && len(e.cfg.Languages) > 0 {
		WithLanguages(e.cfg.Languages...)(e)
	}

	rtOpts := []runtime.RuntimeOption{runtime.WithRuntimeLogger(e.logger)}
	if e.scriptsFS != nil {
		rtOpts = append(rtOpts, runtime.WithRuntimeFS(e.scriptsFS))
	}
	e.runtime = runtime.NewRuntime(e.cfg.Root, rtOpts...)
	e.bundled = runtime.NewRuntime("",
		runtime.WithRuntimeFS(scripts.FS),
		runtime.WithRuntimeLogger(e.logger),
	)

	if err := e.buildRules(); err != nil {
		return nil, err
	}
	hash, err := e.resultsHash()
	if err != nil {
		return nil, fmt.Errorf("plumbline: %w", err)
	}
	e.hash = hash

	if dbPath == "" {
		return e, nil
	}
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("plumbline: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("plumbline: migrate: %w", err)
	}
	e.store = s
	if err := e.syncCache(); err != nil {
		s.Close()
		return nil, fmt.Errorf("plumbline: %w", err)
	}
	return e, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// Store returns the underlying Store, or nil when caching is disabled.
func (e *Engine) Store() *Store {
	return e.store
}

// Rules returns the descriptors of the active rules.
func (e *Engine) Rules() []Descriptor {
	out := make([]Descriptor, 0, len(e.rules))
	for _, r := range e.rules {
		out = append(out, r.Descriptor())
	}
	return out
}

// Query returns a new QueryBuilder over the cache.
func (e *Engine) Query() *QueryBuilder {
	return &QueryBuilder{store: e.store}
}

// buildRules assembles the built-in, bundled and configured rules and
// applies per-rule overrides.
func (e *Engine) buildRules() error {
	all := rules.Builtins()
	for _, b := range scripts.Rules {
		all = append(all, rules.NewScriptRule(rules.Descriptor{
			ID:       b.ID,
			Name:     b.Name,
			Title:    b.Title,
			Message:  b.Message,
			Severity: rules.SevInfo,
			HelpURI:  fmt.Sprintf(rules.HelpURITemplate, b.ID),
		}, b.Path, b.Languages, e.bundled))
	}
	for _, s := range e.cfg.Scripts {
		sev := rules.SevInfo
		if s.Severity != "" {
			var err error
			if sev, err = rules.ParseSeverity(s.Severity); err != nil {
				return fmt.Errorf("plumbline: script %s: %w", s.ID, err)
			}
		}
		name := cmp.Or(s.Name, s.ID)
		all = append(all, rules.NewScriptRule(rules.Descriptor{
			ID:       s.ID,
			Name:     name,
			Title:    name,
			Message:  cmp.Or(s.Message, defaultScriptMessage),
			Severity: sev,
			Slots:    s.Slots,
		}, s.Path, s.Languages, e.runtime))
	}

	seen := make(map[string]bool, len(all))
	for _, r := range all {
		id := r.Descriptor().ID
		if seen[id] {
			return fmt.Errorf("plumbline: duplicate rule id %s", id)
		}
		seen[id] = true
		if !e.cfg.RuleEnabled(id) {
			continue
		}
		configured, err := configure(r, e.cfg.Rules[id])
		if err != nil {
			return fmt.Errorf("plumbline: rule %s: %w", id, err)
		}
		e.rules = append(e.rules, configured)
	}

	if len(e.only) > 0 {
		e.rules = rules.Select(e.rules, e.only)
		if len(e.rules) == 0 {
			return fmt.Errorf("plumbline: no enabled rule matches %s", strings.Join(e.only, ", "))
		}
	}
	return nil
}

// configure applies a [rules.<ID>] section to r.
func configure(r rules.Rule, rc config.RuleConfig) (rules.Rule, error) {
	if rc.Severity == "" && rc.Message == "" {
		return r, nil
	}
	desc := r.Descriptor()
	if rc.Severity != "" {
		sev, err := rules.ParseSeverity(rc.Severity)
		if err != nil {
			return nil, err
		}
		desc.Severity = sev
	}
	if rc.Message != "" {
		desc.Message = rc.Message
	}
	return rules.Configured{Rule: r, Desc: desc}, nil
}

// rulesFor returns the active rules supporting lang.
func (e *Engine) rulesFor(lang string) []rules.Rule {
	var out []rules.Rule
	for _, r := range e.rules {
		if r.Supports(lang) {
			out = append(out, r)
		}
	}
	return out
}

// resultsHash fingerprints everything cached diagnostics depend on: the
// project configuration and its scripts, the column mode, the active rules
// and the bundled scripts.
func (e *Engine) resultsHash() (string, error) {
	cfgHash, err := e.cfg.Hash(e.runtime.LoadScript)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	fmt.Fprintf(h, "config:%s\nmode:%s\n", cfgHash, e.mode)
	for _, r := range e.rules {
		fmt.Fprintf(h, "rule:%s\n", r.Descriptor().ID)
	}

	var paths []string
	fs.WalkDir(scripts.FS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && strings.HasSuffix(path, ".risor") {
			paths = append(paths, path)
		}
		return nil
	})
	sort.Strings(paths)
	for _, p := range paths {
		src, err := e.bundled.LoadScript(p)
		if err != nil {
			continue
		}
		h.Write([]byte(p))
		h.Write([]byte(src))
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// syncCache drops cached results computed under another hash.
func (e *Engine) syncCache() error {
	stored, err := e.store.GetMetadata(configHashKey)
	if err != nil {
		return fmt.Errorf("read config hash: %w", err)
	}
	if stored == e.hash {
		return nil
	}
	if stored != "" {
		e.logger.Info("configuration changed, clearing cache")
	}
	if err := e.store.Clear(); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return e.store.SetMetadata(configHashKey, e.hash)
}

// detect returns the language of a file, or false when it should not be
// checked at all.
func (e *Engine) detect(path string, content []byte) (string, bool) {
	lang, ok := runtime.DetectLanguage(path, content)
	if !ok {
		return "", false
	}
	if e.languages != nil && !e.languages[lang] {
		return "", false
	}
	if e.cfg.Excluded(path) || runtime.SkipPath(path, content) {
		return "", false
	}
	return lang, len(e.rulesFor(lang)) > 0
}

// skipDirs are directories never descended into by the filesystem walk.
var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
	"target":       true,
}

// ListFiles returns the files under root the Engine would check. Inside a
// git repository it uses git ls-files to respect .gitignore; otherwise it
// walks the filesystem, skipping hidden and dependency directories.
func (e *Engine) ListFiles(root string) ([]string, error) {
	paths, err := gitListFiles(root)
	if err != nil {
		e.logger.Debug("git ls-files unavailable, walking", "root", root, "err", err)
		paths, err = walkListFiles(root)
		if err != nil {
			return nil, err
		}
	}
	paths = slices.DeleteFunc(paths, func(p string) bool {
		return e.cfg.Excluded(p) || runtime.SkipPath(p, nil)
	})
	sort.Strings(paths)
	return paths, nil
}

// gitListFiles uses git ls-files to discover tracked and untracked (but not
// ignored) files under root, filtered to supported languages.
func gitListFiles(root string) ([]string, error) {
	// --cached: tracked files, --others: untracked files,
	// --exclude-standard: respect .gitignore, .git/info/exclude, global excludes.
	cmd := exec.Command("git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		path := filepath.Join(root, line)
		if _, ok := runtime.LanguageForFile(path); ok {
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// walkListFiles discovers files by walking the filesystem, used as a
// fallback when git is not available.
func walkListFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := runtime.LanguageForFile(path); ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	return paths, nil
}
