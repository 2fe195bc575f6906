package rules

import (
	"cmp"
	"context"
	"errors"
	"slices"

	"github.com/jward/plumbline/internal/align"
)

// ErrFindingNotFound is returned by FixDiagnostic when the diagnostic no
// longer matches a misaligned run of the file.
var ErrFindingNotFound = errors.New("rules: finding not found")

// Location is a span in a named file.
type Location struct {
	Path  string
	Start align.Position
	End   align.Position
}

func locate(path string, s align.Span) Location {
	return Location{Path: path, Start: s.Start, End: s.End}
}

// Diagnostic reports one misaligned run.
type Diagnostic struct {
	RuleID   string
	Severity Severity
	Message  string
	// Slot is the first misaligned anchor slot.
	Slot       int
	Primary    Location
	Additional []Location
}

// Select returns the rules whose ID or name is in ids. An empty ids
// returns rules unchanged.
func Select(rules []Rule, ids []string) []Rule {
	if len(ids) == 0 {
		return rules
	}
	var out []Rule
	for _, r := range rules {
		d := r.Descriptor()
		if slices.Contains(ids, d.ID) || slices.Contains(ids, d.Name) {
			out = append(out, r)
		}
	}
	return out
}

// Check runs rules against f and returns their diagnostics ordered by
// primary location.
func Check(ctx context.Context, f *File, rules []Rule) ([]Diagnostic, error) {
	var diags []Diagnostic
	for _, r := range rules {
		if !r.Supports(f.Language) {
			continue
		}
		desc := r.Descriptor()
		groups, err := r.Groups(ctx, f)
		if err != nil {
			return nil, err
		}
		al := aligner(desc.Slots)
		for _, g := range groups {
			for finding := range al.FindMisalignments(g.Elements) {
				d := Diagnostic{
					RuleID:   desc.ID,
					Severity: desc.Severity,
					Message:  desc.Format(g.Name),
					Slot:     finding.Slot,
					Primary:  locate(f.Source.Path, finding.Primary()),
				}
				for _, s := range finding.Additional() {
					d.Additional = append(d.Additional, locate(f.Source.Path, s))
				}
				diags = append(diags, d)
			}
		}
	}
	slices.SortStableFunc(diags, func(a, b Diagnostic) int {
		return cmp.Or(
			cmp.Compare(a.Primary.Start.Offset, b.Primary.Start.Offset),
			cmp.Compare(a.RuleID, b.RuleID),
		)
	})
	return diags, nil
}

// Fix returns the edits aligning every misaligned run rules find in f,
// ordered by offset and ready for align.Apply.
func Fix(ctx context.Context, f *File, rules []Rule) ([]align.Edit, error) {
	var edits []align.Edit
	for _, r := range rules {
		if !r.Supports(f.Language) {
			continue
		}
		groups, err := r.Groups(ctx, f)
		if err != nil {
			return nil, err
		}
		al := aligner(r.Descriptor().Slots)
		for _, g := range groups {
			edits = append(edits, al.PlanAll(g.Elements)...)
		}
	}
	slices.SortStableFunc(edits, func(a, b align.Edit) int {
		return cmp.Compare(a.At.Offset, b.At.Offset)
	})
	return edits, nil
}

// FixDiagnostic returns the edits aligning the run d was reported for. The
// run is re-derived from f, so d must come from the same content.
func FixDiagnostic(ctx context.Context, f *File, rules []Rule, d Diagnostic) ([]align.Edit, error) {
	for _, r := range rules {
		if r.Descriptor().ID != d.RuleID || !r.Supports(f.Language) {
			continue
		}
		groups, err := r.Groups(ctx, f)
		if err != nil {
			return nil, err
		}
		al := aligner(r.Descriptor().Slots)
		for _, g := range groups {
			for finding := range al.FindMisalignments(g.Elements) {
				if !matches(finding, d) {
					continue
				}
				first := g.Elements[finding.Elements[0]]
				last := g.Elements[finding.Elements[len(finding.Elements)-1]]
				return al.PlanFix(g.Elements, first, last), nil
			}
		}
	}
	return nil, ErrFindingNotFound
}

func matches(f align.Finding, d Diagnostic) bool {
	if f.Primary().Start.Offset != d.Primary.Start.Offset {
		return false
	}
	extra := f.Additional()
	if len(extra) != len(d.Additional) {
		return false
	}
	return len(extra) == 0 || extra[len(extra)-1].Start.Offset == d.Additional[len(extra)-1].Start.Offset
}
