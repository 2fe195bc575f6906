package align

import (
	"sort"
	"strings"
)

// Plan returns the insertions that align every slot of a run. Slots are
// handled left to right. Padding inserted before an earlier slot of an
// element shifts all of its later slots, so each slot's target is the
// maximum of the shifted columns and each element only receives the
// difference between that target and its own shifted column.
//
// The result is sorted by offset and holds at most one edit per anchor.
// An empty result means the run is already aligned.
func Plan(anchors [][]Anchor, slots int) []Edit {
	shift := make([]int, len(anchors))
	var edits []Edit
	for k := range slots {
		target := Absent
		for i, as := range anchors {
			if a := slot(as, k); a.Present() {
				target = max(target, a.Column()+shift[i])
			}
		}
		if target == Absent {
			continue
		}
		for i, as := range anchors {
			a := slot(as, k)
			if !a.Present() {
				continue
			}
			d := target - (a.Column() + shift[i])
			if d <= 0 {
				continue
			}
			edits = append(edits, Edit{At: a.Span().Start, Text: strings.Repeat(" ", d)})
			shift[i] += d
		}
	}
	sort.SliceStable(edits, func(i, j int) bool {
		return edits[i].At.Offset < edits[j].At.Offset
	})
	return edits
}
