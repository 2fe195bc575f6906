package align

import "iter"

// Segment yields the maximal runs of elems in which every element is
// single-line, alignable, starts at the same column as its predecessor and
// sits on the line immediately after it. A blank line, a change of
// indentation or a non-alignable element always ends the current run.
//
// Runs of length one are yielded too; they never produce findings.
func Segment[E any](elems []E, span SpanFunc[E], alignable func(E) bool) iter.Seq[Run] {
	return func(yield func(Run) bool) {
		open := -1
		var prev Span
		for i, e := range elems {
			cur := span(e)
			ok := !cur.MultiLine() && alignable(e)
			next := i == 0 ||
				(prev.Start.Column == cur.Start.Column && prev.Start.Line+1 == cur.Start.Line)

			if !ok || !next {
				if open >= 0 && i-open >= 1 {
					if !yield(Run{Start: open, Len: i - open}) {
						return
					}
				}
				open = -1
				if ok {
					open = i
				}
			} else if open < 0 {
				open = i
			}
			prev = cur
		}
		if open >= 0 && len(elems)-open >= 1 {
			yield(Run{Start: open, Len: len(elems) - open})
		}
	}
}
