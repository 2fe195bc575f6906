package align

import (
	"iter"
	"slices"
)

// Aligner finds and fixes misaligned anchors in a sequence of elements.
// It holds no state between calls and is safe for concurrent use as long
// as its span and selector functions are.
type Aligner[E comparable] struct {
	slots int
	span  SpanFunc[E]
	sel   Selector[E]
}

// New returns an Aligner that aligns the first slots anchors returned by
// sel. slots must be at least 1.
func New[E comparable](slots int, span SpanFunc[E], sel Selector[E]) *Aligner[E] {
	if slots < 1 {
		slots = 1
	}
	return &Aligner[E]{slots: slots, span: span, sel: sel}
}

// Runs yields the alignable runs of elems. An element is alignable when its
// primary anchor is present.
func (a *Aligner[E]) Runs(elems []E) iter.Seq[Run] {
	return Segment(elems, a.span, func(e E) bool {
		return slot(a.sel(e), 0).Present()
	})
}

// FindMisalignments yields one Finding for every misaligned run of elems.
func (a *Aligner[E]) FindMisalignments(elems []E) iter.Seq[Finding] {
	return func(yield func(Finding) bool) {
		anchors := a.anchors(elems)
		for run := range a.Runs(elems) {
			if run.Len < 2 {
				continue
			}
			ra := anchors[run.Start:run.End()]
			f, ok := Measure(ra, a.slots).Finding(run, ra)
			if !ok {
				continue
			}
			if !yield(f) {
				return
			}
		}
	}
}

// PlanRun returns the edits aligning one run of elems.
func (a *Aligner[E]) PlanRun(elems []E, run Run) []Edit {
	if run.Start < 0 || run.Len < 2 || run.End() > len(elems) {
		return nil
	}
	return Plan(a.anchors(elems[run.Start:run.End()]), a.slots)
}

// PlanAll returns the edits aligning every run of elems.
func (a *Aligner[E]) PlanAll(elems []E) []Edit {
	anchors := a.anchors(elems)
	var edits []Edit
	for run := range a.Runs(elems) {
		if run.Len < 2 {
			continue
		}
		edits = append(edits, Plan(anchors[run.Start:run.End()], a.slots)...)
	}
	slices.SortStableFunc(edits, func(x, y Edit) int {
		return x.At.Offset - y.At.Offset
	})
	return edits
}

// PlanFix returns the edits aligning the inclusive range of elems between
// first and last, typically the first and last elements flagged by a
// Finding. last is searched for from first onwards. When either element
// cannot be found the result is empty.
func (a *Aligner[E]) PlanFix(elems []E, first, last E) []Edit {
	lo := slices.Index(elems, first)
	if lo < 0 {
		return nil
	}
	n := slices.Index(elems[lo:], last)
	if n < 0 {
		return nil
	}
	return Plan(a.anchors(elems[lo:lo+n+1]), a.slots)
}

func (a *Aligner[E]) anchors(elems []E) [][]Anchor {
	out := make([][]Anchor, len(elems))
	for i, e := range elems {
		as := make([]Anchor, a.slots)
		copy(as, a.sel(e))
		out[i] = as
	}
	return out
}
