package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jward/plumbline"
	"github.com/jward/plumbline/internal/config"
)

var (
	flagDB      string
	flagFormat  string
	flagConfig  string
	flagColor   string
	flagVerbose bool
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

// errFindings makes check exit with status 1 without printing an error.
var errFindings = errors.New("misaligned code found")

// logger receives engine warnings; --verbose lowers its level to debug.
var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled && !errors.Is(err, errFindings) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "plumbline",
	Short:         "Find and fix vertically misaligned code",
	Long:          "Plumbline parses source files with tree-sitter and reports runs of consecutive declarations, enum members and fields whose names or values do not line up. Fixes only insert spaces.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFormat(flagFormat); err != nil {
			return err
		}
		if err := validateColor(flagColor); err != nil {
			return err
		}
		color.NoColor = !useColor(flagColor, os.Stdout)

		level := slog.LevelWarn
		if flagVerbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		return nil
	},
	// No Run: prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "cache database path (default: the config's cache, .plumbline/cache.db under the project root)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: nearest .plumbline.toml)")
	rootCmd.PersistentFlags().StringVar(&flagColor, "color", "auto", "colorize output: auto|always|never")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log debug output to stderr")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(rulesCmd)
}

// validColors lists accepted values for --color.
var validColors = []string{"auto", "always", "never"}

// validateColor checks that the --color flag value is recognized.
func validateColor(mode string) error {
	for _, c := range validColors {
		if mode == c {
			return nil
		}
	}
	return fmt.Errorf("invalid color mode %q: must be %s", mode, strings.Join(validColors, ", "))
}

// useColor resolves a --color value for output written to f.
func useColor(mode string, f *os.File) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	return os.Getenv("NO_COLOR") == "" && isTerminal(f)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// project is the configuration and root directory a command works in.
type project struct {
	cfg  *plumbline.Config
	root string
}

// loadProject reads the --config file, or discovers the nearest one above
// startDir. The project root is the config's directory, else the enclosing
// git repository, else startDir.
func loadProject(startDir string) (*project, error) {
	var (
		cfg *plumbline.Config
		err error
	)
	if flagConfig != "" {
		cfg, err = config.Load(flagConfig)
	} else {
		cfg, err = plumbline.DiscoverConfig(startDir)
	}
	if err != nil {
		return nil, err
	}

	root := cfg.Root
	if root == "" {
		root = findRepoRoot(startDir)
	}
	return &project{cfg: cfg, root: root}, nil
}

// openEngine creates an Engine for p. With cache set, the cache database is
// created under the project root when missing.
func (p *project) openEngine(cache bool, opts ...plumbline.Option) (*plumbline.Engine, error) {
	opts = append([]plumbline.Option{
		plumbline.WithConfig(p.cfg),
		plumbline.WithLogger(logger),
	}, opts...)

	dbPath := ""
	if cache {
		dbPath = resolveDBPath(p.root, p.cfg)
	}
	if dbPath != "" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err)
		}
	}

	engine, err := plumbline.New(dbPath, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	return engine, nil
}

// resolveTargets turns path arguments into absolute paths, defaulting to
// the current directory. The first target's directory is returned as the
// directory to discover the project from.
func resolveTargets(args []string) ([]string, string, error) {
	if len(args) == 0 {
		args = []string{"."}
	}
	targets := make([]string, 0, len(args))
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, "", fmt.Errorf("resolving path %q: %w", arg, err)
		}
		if _, err := os.Stat(abs); err != nil {
			return nil, "", fmt.Errorf("path not found: %s", abs)
		}
		targets = append(targets, abs)
	}

	start := targets[0]
	if info, err := os.Stat(start); err == nil && !info.IsDir() {
		start = filepath.Dir(start)
	}
	return targets, start, nil
}

// expandTargets lists the files of directory targets; file targets are kept
// as given.
func expandTargets(engine *plumbline.Engine, targets []string) ([]string, error) {
	var files []string
	for _, t := range targets {
		info, err := os.Stat(t)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, t)
			continue
		}
		listed, err := engine.ListFiles(t)
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", t, err)
		}
		files = append(files, listed...)
	}
	return files, nil
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root without finding .git.
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath returns the database path from the --db flag or the
// config. An empty result disables the cache.
func resolveDBPath(repoRoot string, cfg *plumbline.Config) string {
	if flagDB != "" {
		if filepath.IsAbs(flagDB) {
			return flagDB
		}
		return filepath.Join(repoRoot, flagDB)
	}
	return cfg.CachePath(repoRoot)
}

// displayPath shortens path relative to the working directory when it lies
// below it.
func displayPath(path string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(cwd, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// parseLanguages splits a comma-separated --languages value.
func parseLanguages(s string) []string {
	if s == "" {
		return nil
	}
	langs := strings.Split(s, ",")
	for i := range langs {
		langs[i] = strings.TrimSpace(langs[i])
	}
	return langs
}
