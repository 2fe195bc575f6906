package plumbline

import (
	"github.com/jward/plumbline/internal/align"
	"github.com/jward/plumbline/internal/config"
	"github.com/jward/plumbline/internal/rules"
	"github.com/jward/plumbline/internal/source"
	"github.com/jward/plumbline/internal/store"
)

// Public aliases for the internal types that appear in the Engine and
// QueryBuilder APIs. No conversion is needed between the two names.

type Diagnostic = rules.Diagnostic
type Location = rules.Location
type Severity = rules.Severity
type Descriptor = rules.Descriptor
type Edit = align.Edit
type Position = align.Position
type ColumnMode = source.ColumnMode
type Config = config.Config
type Store = store.Store
type File = store.File
type RuleCount = store.RuleCount

const (
	SevInfo    = rules.SevInfo
	SevWarning = rules.SevWarning
	SevError   = rules.SevError
)

const (
	Runes     = source.Runes
	Graphemes = source.Graphemes
	Display   = source.Display
)

// toStored converts a diagnostic for the cache.
func toStored(fileID int64, d Diagnostic) *store.Diagnostic {
	sd := &store.Diagnostic{
		FileID:   fileID,
		RuleID:   d.RuleID,
		Severity: d.Severity.String(),
		Message:  d.Message,
		Slot:     d.Slot,
		Primary:  toSpan(d.Primary),
	}
	for _, l := range d.Additional {
		sd.Additional = append(sd.Additional, toSpan(l))
	}
	return sd
}

func toSpan(l Location) store.Span {
	return store.Span{
		StartOffset: l.Start.Offset,
		StartLine:   l.Start.Line,
		StartCol:    l.Start.Column,
		EndOffset:   l.End.Offset,
		EndLine:     l.End.Line,
		EndCol:      l.End.Column,
	}
}

// fromStored converts a cached diagnostic back. Unknown severities read
// as info.
func fromStored(sd *store.Diagnostic) Diagnostic {
	sev, err := rules.ParseSeverity(sd.Severity)
	if err != nil {
		sev = rules.SevInfo
	}
	d := Diagnostic{
		RuleID:   sd.RuleID,
		Severity: sev,
		Message:  sd.Message,
		Slot:     sd.Slot,
		Primary:  fromSpan(sd.Path, sd.Primary),
	}
	for _, s := range sd.Additional {
		d.Additional = append(d.Additional, fromSpan(sd.Path, s))
	}
	return d
}

func fromSpan(path string, s store.Span) Location {
	return Location{
		Path:  path,
		Start: align.Position{Offset: s.StartOffset, Line: s.StartLine, Column: s.StartCol},
		End:   align.Position{Offset: s.EndOffset, Line: s.EndLine, Column: s.EndCol},
	}
}
