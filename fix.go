package plumbline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jward/plumbline/internal/align"
	"github.com/jward/plumbline/internal/rules"
	"github.com/jward/plumbline/internal/source"
	"github.com/jward/plumbline/internal/textdiff"
)

var (
	// ErrNoChanges is returned by FixDiagnostic when the finding needs no edits.
	ErrNoChanges = errors.New("plumbline: no changes")
	// ErrUnstableFix is returned when planning again on fixed content keeps
	// producing edits. Nothing is written.
	ErrUnstableFix = errors.New("plumbline: fix does not settle")
)

// maxFixPasses bounds how often a fix is planned again on its own output.
// With tabs between anchors a display column can move by less than the
// spaces inserted before it, so one pass may leave a later slot misaligned.
const maxFixPasses = 4

// replanFunc plans the edits still needed on already fixed content.
type replanFunc func(ctx context.Context, f *rules.File) ([]align.Edit, error)

// FixOptions controls FixFiles.
type FixOptions struct {
	// Write replaces the files on disk. Without it fixes are only planned.
	Write bool
	// Rules restricts fixing to rules with these IDs or names.
	Rules []string
}

// FileFix is the planned or applied fix of one file.
type FileFix struct {
	Path  string
	Edits []Edit
	// Diff is a unified diff from the original to the fixed content.
	Diff string
	// Remaining holds the diagnostics the fixed content still has.
	Remaining []Diagnostic
	Written   bool
}

// FixResult is the outcome of FixFiles. Files lists only files with edits.
type FixResult struct {
	Files   []FileFix
	Checked int
}

// fixItem holds everything a fix worker needs for one file.
type fixItem struct {
	path    string
	lang    string
	content []byte

	fix *FileFix
	out []byte
	err error
}

// FixDirectory fixes every file ListFiles returns for root.
func (e *Engine) FixDirectory(ctx context.Context, root string, opts FixOptions) (*FixResult, error) {
	paths, err := e.ListFiles(root)
	if err != nil {
		return nil, fmt.Errorf("plumbline: %w", err)
	}
	return e.FixFiles(ctx, paths, opts)
}

// FixFiles aligns every misaligned run in the given files. All edits for a
// file are planned against its original content and applied as one batch.
// The fixed content is checked again and anything left is reported in
// FileFix.Remaining. With opts.Write the files are replaced atomically and
// the cache is refreshed.
func (e *Engine) FixFiles(ctx context.Context, paths []string, opts FixOptions) (*FixResult, error) {
	selected := rules.Select(e.rules, opts.Rules)
	if len(opts.Rules) > 0 && len(selected) == 0 {
		return nil, fmt.Errorf("plumbline: no enabled rule matches %s", strings.Join(opts.Rules, ", "))
	}

	result := &FixResult{}
	var errs []error

	var items []*fixItem
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("read %s: %w", path, err))
			continue
		}
		if lang, ok := e.detect(path, content); ok {
			items = append(items, &fixItem{path: path, lang: lang, content: content})
		}
	}

	err := e.forEach(ctx, len(items), func(ctx context.Context, i int) {
		item := items[i]
		item.fix, item.out, item.err = e.planFix(ctx, item.path, item.lang, item.content, selected)
	})
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		if item.err != nil {
			errs = append(errs, fmt.Errorf("fix %s: %w", item.path, item.err))
			continue
		}
		result.Checked++
		if item.fix == nil {
			continue
		}
		if opts.Write {
			if err := e.writeFix(item.fix, item.lang, item.out); err != nil {
				errs = append(errs, fmt.Errorf("write %s: %w", item.path, err))
				continue
			}
		}
		result.Files = append(result.Files, *item.fix)
	}

	if len(errs) > 0 {
		for _, err := range errs {
			e.logger.Warn("fix failed", "err", err)
		}
		return result, fmt.Errorf("fixing had %d error(s): %w", len(errs), errs[0])
	}
	return result, nil
}

// planFix computes the fix for one file. It returns a nil FileFix when the
// file is already aligned.
func (e *Engine) planFix(ctx context.Context, path, lang string, content []byte, rs []rules.Rule) (*FileFix, []byte, error) {
	f, done, err := e.parse(ctx, path, content, lang)
	if err != nil {
		return nil, nil, err
	}
	defer done()

	edits, err := rules.Fix(ctx, f, rs)
	if err != nil {
		return nil, nil, err
	}
	if len(edits) == 0 {
		return nil, nil, nil
	}
	return e.finish(ctx, f, edits, func(ctx context.Context, nf *rules.File) ([]align.Edit, error) {
		return rules.Fix(ctx, nf, rs)
	})
}

// finish applies edits to f and plans again on the result until replan
// finds nothing left, then checks the fixed content with every rule. The
// returned FileFix.Edits apply to f's original content.
func (e *Engine) finish(ctx context.Context, f *rules.File, edits []align.Edit, replan replanFunc) (*FileFix, []byte, error) {
	src := f.Source
	out, err := e.settle(ctx, f, edits, replan)
	if err != nil {
		return nil, nil, err
	}

	nf, done, err := e.parse(ctx, src.Path, out.content, f.Language)
	if err != nil {
		return nil, nil, err
	}
	defer done()
	remaining, err := rules.Check(ctx, nf, e.rulesFor(f.Language))
	if err != nil {
		return nil, nil, err
	}

	return &FileFix{
		Path:      src.Path,
		Edits:     out.edits,
		Diff:      textdiff.Unified(src.Path, src.Path, string(src.Content), string(out.content), textdiff.DefaultContext),
		Remaining: remaining,
	}, out.content, nil
}

// settled is fixed content together with the edits producing it from the
// original.
type settled struct {
	content []byte
	edits   []align.Edit
}

// settle applies edits and replans on the output for at most maxFixPasses
// passes. It returns ErrUnstableFix when the last pass still had edits.
func (e *Engine) settle(ctx context.Context, f *rules.File, edits []align.Edit, replan replanFunc) (settled, error) {
	src := f.Source
	total := edits
	for pass := 1; ; pass++ {
		out, err := align.Apply(src.Content, total)
		if err != nil {
			return settled{}, err
		}
		nf, done, err := e.parse(ctx, src.Path, out, f.Language)
		if err != nil {
			return settled{}, err
		}
		next, err := replan(ctx, nf)
		done()
		if err != nil {
			return settled{}, err
		}
		if len(next) == 0 {
			return settled{content: out, edits: total}, nil
		}
		if pass == maxFixPasses {
			return settled{}, fmt.Errorf("%w after %d passes: %s", ErrUnstableFix, pass, src.Path)
		}
		e.logger.Debug("fix needs another pass", "path", src.Path, "pass", pass, "edits", len(next))
		total = align.Rebase(total, next, src.Position)
	}
}

// FixDiagnostic fixes the single run d was reported for. The run is found
// again in the current content of d's file; rules.ErrFindingNotFound is
// returned when the file changed so that d no longer matches, and
// ErrNoChanges when the run needs no edits.
func (e *Engine) FixDiagnostic(ctx context.Context, d Diagnostic, write bool) (*FileFix, error) {
	path := d.Primary.Path
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("plumbline: read file: %w", err)
	}
	lang, ok := e.detect(path, content)
	if !ok {
		return nil, fmt.Errorf("plumbline: %s: %w", path, rules.ErrFindingNotFound)
	}

	f, done, err := e.parse(ctx, path, content, lang)
	if err != nil {
		return nil, fmt.Errorf("plumbline: %w", err)
	}
	defer done()

	edits, err := rules.FixDiagnostic(ctx, f, e.rules, d)
	if err != nil {
		return nil, fmt.Errorf("plumbline: %s: %w", path, err)
	}
	if len(edits) == 0 {
		return nil, ErrNoChanges
	}

	fix, out, err := e.finish(ctx, f, edits, func(ctx context.Context, nf *rules.File) ([]align.Edit, error) {
		return replanDiagnostic(ctx, nf, e.rules, d)
	})
	if err != nil {
		return nil, fmt.Errorf("plumbline: %w", err)
	}
	if write {
		if err := e.writeFix(fix, lang, out); err != nil {
			return nil, fmt.Errorf("plumbline: write %s: %w", path, err)
		}
	}
	return fix, nil
}

// replanDiagnostic returns the edits for the run of d's rule that still
// covers d's lines in f. Fixes only insert spaces, so line numbers hold.
func replanDiagnostic(ctx context.Context, f *rules.File, rs []rules.Rule, d Diagnostic) ([]align.Edit, error) {
	diags, err := rules.Check(ctx, f, rules.Select(rs, []string{d.RuleID}))
	if err != nil {
		return nil, err
	}
	first, last := lineRange(d)
	for _, rd := range diags {
		if rf, rl := lineRange(rd); rf <= last && rl >= first {
			return rules.FixDiagnostic(ctx, f, rs, rd)
		}
	}
	return nil, nil
}

// lineRange returns the first and last 0-based line d covers.
func lineRange(d Diagnostic) (int, int) {
	first, last := d.Primary.Start.Line, d.Primary.End.Line
	for _, l := range d.Additional {
		first = min(first, l.Start.Line)
		last = max(last, l.End.Line)
	}
	return first, last
}

// writeFix replaces the file and stores its remaining diagnostics so the
// next lint run is answered from the cache.
func (e *Engine) writeFix(fix *FileFix, lang string, out []byte) error {
	if err := writeFileAtomic(fix.Path, out); err != nil {
		return err
	}
	fix.Written = true
	if e.store == nil {
		return nil
	}

	batch, err := e.record(source.New(fix.Path, out), lang, fix.Remaining)
	if err != nil {
		return err
	}
	return e.store.CommitBatch(batch)
}

// writeFileAtomic replaces path with data through a temporary file in the
// same directory, keeping the original permissions.
func writeFileAtomic(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".plumbline-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
