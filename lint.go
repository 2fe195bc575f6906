package plumbline

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/jward/plumbline/internal/rules"
	"github.com/jward/plumbline/internal/runtime"
	"github.com/jward/plumbline/internal/source"
	"github.com/jward/plumbline/internal/store"
)

// Report is the outcome of a lint run.
type Report struct {
	// Diagnostics are ordered by path, then position, then rule ID.
	Diagnostics []Diagnostic
	// Checked counts files that were parsed and checked.
	Checked int
	// Cached counts files answered from the cache.
	Cached int
	// Skipped counts files of unsupported or filtered languages.
	Skipped int
}

// workItem holds everything a lint worker needs for one file.
type workItem struct {
	path    string
	lang    string
	content []byte

	diags []Diagnostic
	batch *store.BatchedStore
	err   error
}

// LintDirectory lints every file ListFiles returns for root.
func (e *Engine) LintDirectory(ctx context.Context, root string) (*Report, error) {
	paths, err := e.ListFiles(root)
	if err != nil {
		return nil, fmt.Errorf("plumbline: %w", err)
	}
	return e.LintFiles(ctx, paths)
}

// LintFiles checks the given files in three phases:
//
//	Phase A (serial):   read, detect the language, answer from the cache.
//	Phase B (parallel): parse and run the rules on a worker pool.
//	Phase C (serial):   commit fresh results to the cache.
//
// Errors on individual files are collected and processing continues; the
// returned Report holds the results of every file that succeeded, even
// when the error is non-nil.
func (e *Engine) LintFiles(ctx context.Context, paths []string) (*Report, error) {
	report := &Report{}
	var errs []error

	// ---- Phase A: Serial preparation ----
	var items []*workItem
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item, cached, err := e.prepareFile(path)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("prepare %s: %w", path, err))
		case cached != nil:
			report.Cached++
			report.Diagnostics = append(report.Diagnostics, cached...)
		case item == nil:
			report.Skipped++
		default:
			items = append(items, item)
		}
	}

	// ---- Phase B: Parallel checking ----
	err := e.forEach(ctx, len(items), func(ctx context.Context, i int) {
		items[i].err = e.lintItem(ctx, items[i])
	})
	if err != nil {
		return nil, err
	}

	// ---- Phase C: Serial commit ----
	for _, item := range items {
		if item.err != nil {
			errs = append(errs, fmt.Errorf("lint %s: %w", item.path, item.err))
			continue
		}
		report.Checked++
		report.Diagnostics = append(report.Diagnostics, item.diags...)
		if item.batch == nil {
			continue
		}
		if err := e.store.CommitBatch(item.batch); err != nil {
			errs = append(errs, fmt.Errorf("commit %s: %w", item.path, err))
		}
	}

	sortDiagnostics(report.Diagnostics)
	if len(errs) > 0 {
		for _, err := range errs {
			e.logger.Warn("lint failed", "err", err)
		}
		return report, fmt.Errorf("linting had %d error(s): %w", len(errs), errs[0])
	}
	return report, nil
}

// prepareFile does the Phase A work for one file. It returns a work item
// for files that need checking, the cached diagnostics (non-nil, possibly
// empty) when the cache is current, or neither for skipped files.
func (e *Engine) prepareFile(path string) (*workItem, []Diagnostic, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read file: %w", err)
	}
	lang, ok := e.detect(path, content)
	if !ok {
		e.logger.Debug("skip", "path", path)
		return nil, nil, nil
	}

	if e.store != nil {
		existing, err := e.store.FileByPath(path)
		if err != nil {
			return nil, nil, fmt.Errorf("lookup file: %w", err)
		}
		if existing != nil && existing.Hash == source.HashContent(content) {
			stored, err := e.store.DiagnosticsByFile(existing.ID)
			if err != nil {
				return nil, nil, fmt.Errorf("cached diagnostics: %w", err)
			}
			e.logger.Debug("cache hit", "path", path)
			return nil, convertStored(stored), nil
		}
	}
	return &workItem{path: path, lang: lang, content: content}, nil, nil
}

// lintItem parses one file and runs the rules for its language, buffering
// the results for Phase C when caching is enabled.
func (e *Engine) lintItem(ctx context.Context, item *workItem) error {
	f, done, err := e.parse(ctx, item.path, item.content, item.lang)
	if err != nil {
		return err
	}
	defer done()

	diags, err := rules.Check(ctx, f, e.rulesFor(item.lang))
	if err != nil {
		return err
	}
	item.diags = diags
	if e.store != nil {
		item.batch, err = e.record(f.Source, f.Language, diags)
	}
	return err
}

// parse wraps content for the rules. The returned func releases the tree.
func (e *Engine) parse(ctx context.Context, path string, content []byte, lang string) (*rules.File, func(), error) {
	tree, err := runtime.Parse(ctx, content, lang)
	if err != nil {
		return nil, nil, err
	}
	src := source.New(path, content,
		source.WithColumnMode(e.mode),
		source.WithTabWidth(e.cfg.Tab()),
	)
	return &rules.File{Source: src, Language: lang, Root: tree.RootNode()}, tree.Close, nil
}

// record buffers a file and its diagnostics for a later CommitBatch.
func (e *Engine) record(src *source.File, lang string, diags []Diagnostic) (*store.BatchedStore, error) {
	batch := store.NewBatchedStore(e.store)
	fileID := batch.SetFile(&store.File{
		Path:        src.Path,
		Language:    lang,
		Hash:        src.Hash,
		LineCount:   src.LineCount(),
		LastChecked: time.Now(),
	})
	if err := insertDiagnostics(batch, fileID, diags); err != nil {
		return nil, err
	}
	return batch, nil
}

func insertDiagnostics(ds store.DataStore, fileID int64, diags []Diagnostic) error {
	for _, d := range diags {
		if _, err := ds.InsertDiagnostic(toStored(fileID, d)); err != nil {
			return fmt.Errorf("insert diagnostic: %w", err)
		}
	}
	return nil
}

func sortDiagnostics(diags []Diagnostic) {
	slices.SortStableFunc(diags, func(a, b Diagnostic) int {
		return cmp.Or(
			cmp.Compare(a.Primary.Path, b.Primary.Path),
			cmp.Compare(a.Primary.Start.Offset, b.Primary.Start.Offset),
			cmp.Compare(a.RuleID, b.RuleID),
		)
	})
}
