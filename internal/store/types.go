package store

import "time"

type File struct {
	ID          int64
	Path        string
	Language    string
	Hash        string
	LineCount   int
	LastChecked time.Time
}

// Span is a stored source range. Lines and columns are zero-based.
type Span struct {
	StartOffset int `msgpack:"so"`
	StartLine   int `msgpack:"sl"`
	StartCol    int `msgpack:"sc"`
	EndOffset   int `msgpack:"eo"`
	EndLine     int `msgpack:"el"`
	EndCol      int `msgpack:"ec"`
}

type Diagnostic struct {
	ID       int64
	FileID   int64
	RuleID   string
	Severity string
	Message  string
	Slot     int
	Primary  Span
	// Additional is stored as a msgpack blob.
	Additional []Span

	// Path is filled by queries that join files.
	Path string
}

// RuleCount is the number of cached diagnostics for one rule and severity.
type RuleCount struct {
	RuleID   string
	Severity string
	Count    int
}
