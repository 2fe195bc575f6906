package plumbline

import (
	"errors"
	"fmt"

	"github.com/jward/plumbline/internal/store"
)

// ErrNoCache is returned by queries on an Engine created without a cache.
var ErrNoCache = errors.New("plumbline: cache disabled")

// QueryBuilder reads the results of earlier lint runs from the cache.
type QueryBuilder struct {
	store *store.Store
}

// Summary aggregates the cached results.
type Summary struct {
	Files       int
	Diagnostics int
	// ByRule counts diagnostics per rule and severity, ordered by rule ID.
	ByRule []RuleCount
}

// Diagnostics returns the cached diagnostics of path, or of every file
// when path is empty.
func (q *QueryBuilder) Diagnostics(path string) ([]Diagnostic, error) {
	if q.store == nil {
		return nil, ErrNoCache
	}
	var (
		stored []*store.Diagnostic
		err    error
	)
	if path == "" {
		stored, err = q.store.DiagnosticsByRule()
	} else {
		stored, err = q.store.DiagnosticsByPath(path)
	}
	if err != nil {
		return nil, fmt.Errorf("diagnostics: %w", err)
	}
	return convertStored(stored), nil
}

// DiagnosticsByRule returns the cached diagnostics of the given rule IDs.
func (q *QueryBuilder) DiagnosticsByRule(ids ...string) ([]Diagnostic, error) {
	if q.store == nil {
		return nil, ErrNoCache
	}
	stored, err := q.store.DiagnosticsByRule(ids...)
	if err != nil {
		return nil, fmt.Errorf("diagnostics by rule: %w", err)
	}
	return convertStored(stored), nil
}

// Files returns the cached file records ordered by path.
func (q *QueryBuilder) Files() ([]*File, error) {
	if q.store == nil {
		return nil, ErrNoCache
	}
	files, err := q.store.Files()
	if err != nil {
		return nil, fmt.Errorf("files: %w", err)
	}
	return files, nil
}

// Summary counts the cached files and diagnostics.
func (q *QueryBuilder) Summary() (*Summary, error) {
	files, err := q.Files()
	if err != nil {
		return nil, err
	}
	counts, err := q.store.RuleCounts()
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	s := &Summary{Files: len(files), ByRule: counts}
	for _, c := range counts {
		s.Diagnostics += c.Count
	}
	return s, nil
}

func convertStored(stored []*store.Diagnostic) []Diagnostic {
	out := make([]Diagnostic, 0, len(stored))
	for _, sd := range stored {
		out = append(out, fromStored(sd))
	}
	return out
}
