package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchedStore_FakeIDs(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	batch := NewBatchedStore(s)

	fileID := batch.SetFile(&File{Path: "/main.go", Language: "go", Hash: "h"})
	assert.Negative(t, fileID, "batched IDs should be negative")

	id1, err := batch.InsertDiagnostic(&Diagnostic{FileID: fileID, RuleID: "AL1000", Severity: "info", Message: "m"})
	require.NoError(t, err)
	assert.Negative(t, id1)

	id2, err := batch.InsertDiagnostic(&Diagnostic{FileID: fileID, RuleID: "AL1002", Severity: "info", Message: "m"})
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	// Buffered diagnostics are visible before commit.
	diags, err := batch.DiagnosticsByFile(fileID)
	require.NoError(t, err)
	assert.Len(t, diags, 2)

	// Nothing reached SQLite yet.
	files, err := s.Files()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestBatchedStore_DiagnosticsByFile_MergesWithDatabase(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/main.go", "go")
	insertTestDiagnostic(t, s, f.ID, "AL1000", 1)

	batch := NewBatchedStore(s)
	_, err := batch.InsertDiagnostic(&Diagnostic{FileID: f.ID, RuleID: "AL1002", Severity: "info", Message: "m"})
	require.NoError(t, err)

	diags, err := batch.DiagnosticsByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, diags, 2)
	rules := []string{diags[0].RuleID, diags[1].RuleID}
	assert.Contains(t, rules, "AL1000")
	assert.Contains(t, rules, "AL1002")
}

func TestCommitBatch(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	batch := NewBatchedStore(s)
	fileID := batch.SetFile(&File{Path: "/enum.c", Language: "c", Hash: "h1", LastChecked: time.Now()})
	_, err := batch.InsertDiagnostic(&Diagnostic{
		FileID:     fileID,
		RuleID:     "AL1002",
		Severity:   "info",
		Message:    "values of enum 'E' should be aligned",
		Primary:    Span{StartLine: 1, StartCol: 4},
		Additional: []Span{{StartLine: 2, StartCol: 6}},
	})
	require.NoError(t, err)

	require.NoError(t, s.CommitBatch(batch))
	assert.Positive(t, batch.File.ID)

	f, err := s.FileByPath("/enum.c")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, batch.File.ID, f.ID)

	diags, err := s.DiagnosticsByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, []Span{{StartLine: 2, StartCol: 6}}, diags[0].Additional)
}

func TestCommitBatch_ReplacesFile(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	old := insertTestFile(t, s, "/enum.c", "c")
	insertTestDiagnostic(t, s, old.ID, "AL1002", 1)

	batch := NewBatchedStore(s)
	batch.SetFile(&File{Path: "/enum.c", Language: "c", Hash: "new", LastChecked: time.Now()})
	require.NoError(t, s.CommitBatch(batch))

	f, err := s.FileByPath("/enum.c")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, "new", f.Hash)

	all, err := s.DiagnosticsByRule()
	require.NoError(t, err)
	assert.Empty(t, all, "diagnostics of the replaced file are dropped")
}

func TestCommitBatch_UnknownFakeFile(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	batch := NewBatchedStore(s)
	_, err := batch.InsertDiagnostic(&Diagnostic{FileID: -42, RuleID: "AL1000", Severity: "info", Message: "m"})
	require.NoError(t, err)

	err = s.CommitBatch(batch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown file id")
}
