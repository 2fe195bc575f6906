package store

// DataStore is the interface lint workers write results through. Both Store
// (direct SQLite) and BatchedStore (in-memory buffering for parallel
// linting) implement it.
type DataStore interface {
	InsertDiagnostic(d *Diagnostic) (int64, error)
	DiagnosticsByFile(fileID int64) ([]*Diagnostic, error)
}

// Compile-time check: *Store satisfies DataStore.
var _ DataStore = (*Store)(nil)
