package store

import (
	"database/sql"
	"fmt"
)

// --- File operations ---

func (s *Store) InsertFile(f *File) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO files (path, language, hash, line_count, last_checked) VALUES (?, ?, ?, ?, ?)",
		f.Path, f.Language, f.Hash, f.LineCount, f.LastChecked,
	)
	if err != nil {
		return 0, fmt.Errorf("insert file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	f.ID = id
	return id, nil
}

const fileColumns = "id, path, language, hash, line_count, last_checked"

func scanFile(scanner interface{ Scan(...any) error }) (*File, error) {
	f := &File{}
	if err := scanner.Scan(&f.ID, &f.Path, &f.Language, &f.Hash, &f.LineCount, &f.LastChecked); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Store) FileByPath(path string) (*File, error) {
	f, err := scanFile(s.db.QueryRow("SELECT "+fileColumns+" FROM files WHERE path = ?", path))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by path: %w", err)
	}
	return f, nil
}

func (s *Store) queryFiles(query string, args ...any) ([]*File, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// Files returns every cached file ordered by path.
func (s *Store) Files() ([]*File, error) {
	return s.queryFiles("SELECT " + fileColumns + " FROM files ORDER BY path")
}

func (s *Store) FilesByLanguage(language string) ([]*File, error) {
	return s.queryFiles("SELECT "+fileColumns+" FROM files WHERE language = ? ORDER BY path", language)
}

// DeleteFile removes the cached results of path. Unknown paths are ignored.
func (s *Store) DeleteFile(path string) error {
	f, err := s.FileByPath(path)
	if err != nil || f == nil {
		return err
	}
	return s.DeleteFileData(f.ID)
}

// --- Diagnostic operations ---

func (s *Store) InsertDiagnostic(d *Diagnostic) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("insert diagnostic: begin: %w", err)
	}
	defer tx.Rollback()

	id, err := insertDiagnosticTx(tx, d)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("insert diagnostic: commit: %w", err)
	}
	d.ID = id
	return id, nil
}

const diagnosticColumns = `d.id, d.file_id, d.rule_id, d.severity, d.message, d.slot,
  d.start_offset, d.start_line, d.start_col, d.end_offset, d.end_line, d.end_col,
  d.additional, f.path`

func scanDiagnostic(scanner interface{ Scan(...any) error }) (*Diagnostic, error) {
	d := &Diagnostic{}
	var extra []byte
	err := scanner.Scan(&d.ID, &d.FileID, &d.RuleID, &d.Severity, &d.Message, &d.Slot,
		&d.Primary.StartOffset, &d.Primary.StartLine, &d.Primary.StartCol,
		&d.Primary.EndOffset, &d.Primary.EndLine, &d.Primary.EndCol,
		&extra, &d.Path)
	if err != nil {
		return nil, err
	}
	if d.Additional, err = unmarshalSpans(extra); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Store) queryDiagnostics(where string, args ...any) ([]*Diagnostic, error) {
	query := "SELECT " + diagnosticColumns + " FROM diagnostics d JOIN files f ON f.id = d.file_id"
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY f.path, d.start_offset, d.rule_id"
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query diagnostics: %w", err)
	}
	defer rows.Close()
	var diags []*Diagnostic
	for rows.Next() {
		d, err := scanDiagnostic(rows)
		if err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		diags = append(diags, d)
	}
	return diags, rows.Err()
}

func (s *Store) DiagnosticsByFile(fileID int64) ([]*Diagnostic, error) {
	return s.queryDiagnostics("d.file_id = ?", fileID)
}

func (s *Store) DiagnosticsByPath(path string) ([]*Diagnostic, error) {
	return s.queryDiagnostics("f.path = ?", path)
}

// DiagnosticsByRule returns diagnostics of the given rule IDs, or all of
// them when ruleIDs is empty.
func (s *Store) DiagnosticsByRule(ruleIDs ...string) ([]*Diagnostic, error) {
	if len(ruleIDs) == 0 {
		return s.queryDiagnostics("")
	}
	return s.queryDiagnostics("d.rule_id IN ("+placeholderList(len(ruleIDs))+")", stringsToArgs(ruleIDs)...)
}

// RuleCounts returns diagnostic counts grouped by rule and severity.
func (s *Store) RuleCounts() ([]RuleCount, error) {
	rows, err := s.db.Query(
		"SELECT rule_id, severity, COUNT(*) FROM diagnostics GROUP BY rule_id, severity ORDER BY rule_id, severity",
	)
	if err != nil {
		return nil, fmt.Errorf("rule counts: %w", err)
	}
	defer rows.Close()
	var counts []RuleCount
	for rows.Next() {
		var c RuleCount
		if err := rows.Scan(&c.RuleID, &c.Severity, &c.Count); err != nil {
			return nil, fmt.Errorf("scan rule count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
