package store

import "sync"

// BatchedStore buffers one file's lint results in memory using fake
// (negative) IDs. It implements DataStore so a lint worker can write to it
// without knowing whether it's hitting SQLite or an in-memory buffer.
//
// Thread safety: the mutex protects fake ID allocation and slice appends.
// Read queries pass through to the underlying Store, which is safe for
// concurrent reads.
type BatchedStore struct {
	store *Store // for read passthrough
	mu    sync.Mutex

	// File replaces any cached record with the same path on commit.
	File        *File
	Diagnostics []Diagnostic

	nextFakeID int64 // starts at -1, decrements
}

// Compile-time check: *BatchedStore satisfies DataStore.
var _ DataStore = (*BatchedStore)(nil)

// NewBatchedStore creates a BatchedStore backed by the given Store for read queries.
func NewBatchedStore(s *Store) *BatchedStore {
	return &BatchedStore{
		store:      s,
		nextFakeID: -1,
	}
}

func (b *BatchedStore) allocFakeID() int64 {
	id := b.nextFakeID
	b.nextFakeID--
	return id
}

// SetFile buffers the file record and returns its fake ID.
func (b *BatchedStore) SetFile(f *File) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	f.ID = b.allocFakeID()
	b.File = f
	return f.ID
}

func (b *BatchedStore) InsertDiagnostic(d *Diagnostic) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	d.ID = fakeID
	b.Diagnostics = append(b.Diagnostics, *d)
	return fakeID, nil
}

// DiagnosticsByFile returns diagnostics for a file, merging any buffered
// (not yet committed) diagnostics with those already in the database.
func (b *BatchedStore) DiagnosticsByFile(fileID int64) ([]*Diagnostic, error) {
	var diags []*Diagnostic
	if fileID > 0 {
		var err error
		diags, err = b.store.DiagnosticsByFile(fileID)
		if err != nil {
			return nil, err
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.Diagnostics {
		if b.Diagnostics[i].FileID == fileID {
			diags = append(diags, &b.Diagnostics[i])
		}
	}
	return diags, nil
}
