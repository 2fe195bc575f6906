package runtime

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"
	sitter "github.com/smacker/go-tree-sitter"
)

// Runtime embeds a Risor VM and exposes tree-sitter host functions to
// alignment rule scripts. A Runtime may be shared by concurrent callers.
type Runtime struct {
	scriptsDir string
	fsys       fs.FS
	sources    *sourceStore
	logger     *slog.Logger
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeFS configures the Runtime to load scripts from an fs.FS
// instead of from disk. Also configures the Risor importer to use
// FSImporter for import statement resolution.
func WithRuntimeFS(fsys fs.FS) RuntimeOption {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// WithRuntimeLogger routes the scripts' log.info/warn/error calls to logger.
func WithRuntimeLogger(logger *slog.Logger) RuntimeOption {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// NewRuntime creates a Runtime loading scripts relative to scriptsDir.
func NewRuntime(scriptsDir string, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		scriptsDir: scriptsDir,
		sources:    newSourceStore(),
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Input is the parsed file a rule script runs against.
type Input struct {
	Path     string
	Language string
	Source   []byte
	Root     *sitter.Node
}

// RunRule loads the script at scriptPath, runs it against in and returns
// the groups it reported through align_group, in call order.
func (r *Runtime) RunRule(ctx context.Context, scriptPath string, in Input) ([]Group, error) {
	src, err := r.LoadScript(scriptPath)
	if err != nil {
		return nil, err
	}
	return r.runRule(ctx, src, scriptPath, in)
}

// RunRuleSource is RunRule for inline script source.
func (r *Runtime) RunRuleSource(ctx context.Context, source string, in Input) ([]Group, error) {
	return r.runRule(ctx, source, "<inline>", in)
}

func (r *Runtime) runRule(ctx context.Context, source, label string, in Input) ([]Group, error) {
	lang, ok := ParserForLanguage(in.Language)
	if !ok {
		return nil, fmt.Errorf("runtime: script %s: %w %q", label, ErrUnsupportedLanguage, in.Language)
	}
	r.sources.storeRoot(in.Root, in.Source, lang)
	defer r.sources.forget(in.Root)

	root, err := object.NewProxy(in.Root)
	if err != nil {
		return nil, fmt.Errorf("runtime: script %s: proxy root: %w", label, err)
	}

	c := &groupCollector{}
	extras := map[string]any{
		"root":        root,
		"language":    in.Language,
		"file_path":   in.Path,
		"align_group": makeAlignGroupFn(c),
		"log":         mustProxy(&logObject{logger: r.logger, script: label, path: in.Path}),
	}
	if err := r.eval(ctx, source, label, extras); err != nil {
		return nil, err
	}
	return c.groups, nil
}

// RunScript loads and executes a Risor script with all standard globals
// plus any extra globals provided by the caller.
func (r *Runtime) RunScript(ctx context.Context, scriptPath string, extraGlobals map[string]any) error {
	src, err := r.LoadScript(scriptPath)
	if err != nil {
		return err
	}
	return r.eval(ctx, src, scriptPath, extraGlobals)
}

// RunSource executes Risor source code directly with all standard globals
// plus any extra globals. Useful for testing without script files.
func (r *Runtime) RunSource(ctx context.Context, source string, extraGlobals map[string]any) error {
	return r.eval(ctx, source, "<inline>", extraGlobals)
}

func (r *Runtime) eval(ctx context.Context, source, label string, extraGlobals map[string]any) error {
	globals := r.buildGlobals(label, extraGlobals)

	var opts []risor.Option
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}

	// Wire importer so Risor import statements resolve correctly.
	if imp := r.buildImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	_, err := risor.Eval(ctx, source, opts...)
	if err != nil {
		return fmt.Errorf("runtime: script %s: %w", label, err)
	}
	return nil
}

// buildImporter returns a Risor importer configured for the Runtime's script source.
// Returns nil if neither fs.FS nor scriptsDir is configured.
func (r *Runtime) buildImporter(globals map[string]any) importer.Importer {
	globalNames := make([]string, 0, len(globals))
	for name := range globals {
		globalNames = append(globalNames, name)
	}

	if r.fsys != nil {
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: globalNames,
			SourceFS:    r.fsys,
			Extensions:  []string{".risor"},
		})
	}
	if r.scriptsDir != "" {
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: globalNames,
			SourceDir:   r.scriptsDir,
			Extensions:  []string{".risor"},
		})
	}
	return nil
}

// LoadScript reads a .risor file and returns its source code.
// When an fs.FS is configured, uses fs.ReadFile on the embedded filesystem.
// Otherwise, uses os.ReadFile with scriptsDir as the base directory.
func (r *Runtime) LoadScript(path string) (string, error) {
	if r.fsys != nil {
		fsPath := strings.TrimPrefix(filepath.ToSlash(path), "/")
		data, err := fs.ReadFile(r.fsys, fsPath)
		if err != nil {
			return "", fmt.Errorf("runtime: loading script %s from fs: %w", fsPath, err)
		}
		return string(data), nil
	}

	fullPath := path
	if !filepath.IsAbs(path) {
		fullPath = filepath.Join(r.scriptsDir, path)
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("runtime: loading script %s: %w", fullPath, err)
	}
	return string(data), nil
}

// buildGlobals constructs the full set of globals exposed to Risor scripts.
func (r *Runtime) buildGlobals(label string, extra map[string]any) map[string]any {
	globals := map[string]any{
		"parse_src":  makeParseSrcFn(r.sources),
		"node_text":  makeNodeTextFn(r.sources),
		"node_child": makeNodeChildFn(),
		"find_token": makeFindTokenFn(),
		"query":      makeQueryFn(r.sources),
		"log":        mustProxy(&logObject{logger: r.logger, script: label}),
	}
	for k, v := range extra {
		globals[k] = v
	}
	return globals
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}
