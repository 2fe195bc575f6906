package store

import (
	"database/sql"
	"fmt"
)

// CommitBatch writes a BatchedStore to SQLite within a single transaction.
// A buffered file replaces the cached record with the same path, and fake
// (negative) file IDs on diagnostics are rewritten to the real ID.
func (s *Store) CommitBatch(batch *BatchedStore) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	fakeToReal := make(map[int64]int64)

	if f := batch.File; f != nil {
		var oldID int64
		err := tx.QueryRow("SELECT id FROM files WHERE path = ?", f.Path).Scan(&oldID)
		switch {
		case err == sql.ErrNoRows:
		case err != nil:
			return fmt.Errorf("commit batch: lookup %s: %w", f.Path, err)
		default:
			if err := deleteFileTx(tx, oldID); err != nil {
				return fmt.Errorf("commit batch: %w", err)
			}
		}

		realID, err := insertFileTx(tx, f)
		if err != nil {
			return fmt.Errorf("commit batch: file %q: %w", f.Path, err)
		}
		fakeToReal[f.ID] = realID
	}

	for _, d := range batch.Diagnostics {
		if d.FileID < 0 {
			realID, ok := fakeToReal[d.FileID]
			if !ok {
				return fmt.Errorf("commit batch: diagnostic %s: unknown file id %d", d.RuleID, d.FileID)
			}
			d.FileID = realID
		}
		if _, err := insertDiagnosticTx(tx, &d); err != nil {
			return fmt.Errorf("commit batch: diagnostic %s: %w", d.RuleID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	if batch.File != nil {
		batch.File.ID = fakeToReal[batch.File.ID]
	}
	return nil
}

func insertFileTx(tx *sql.Tx, f *File) (int64, error) {
	res, err := tx.Exec(
		"INSERT INTO files (path, language, hash, line_count, last_checked) VALUES (?, ?, ?, ?, ?)",
		f.Path, f.Language, f.Hash, f.LineCount, f.LastChecked,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertDiagnosticTx(tx *sql.Tx, d *Diagnostic) (int64, error) {
	extra, err := marshalSpans(d.Additional)
	if err != nil {
		return 0, err
	}
	res, err := tx.Exec(
		`INSERT INTO diagnostics (file_id, rule_id, severity, message, slot,
		  start_offset, start_line, start_col, end_offset, end_line, end_col, additional)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.FileID, d.RuleID, d.Severity, d.Message, d.Slot,
		d.Primary.StartOffset, d.Primary.StartLine, d.Primary.StartCol,
		d.Primary.EndOffset, d.Primary.EndLine, d.Primary.EndCol, extra,
	)
	if err != nil {
		return 0, fmt.Errorf("insert diagnostic: %w", err)
	}
	return res.LastInsertId()
}
