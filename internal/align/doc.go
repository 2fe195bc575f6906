// Package align implements syntax-independent vertical alignment.
//
// Callers hand the package an ordered sequence of elements (enum members,
// variable declarations, anything that occupies one line) together with a
// span function and a selector returning each element's anchors. The
// package then
//
//   - splits the sequence into runs of consecutive lines sharing a start
//     column ([Segment]),
//   - measures the anchor columns of each run ([Measure]) and reports the
//     first misaligned slot ([Measurement.Finding]),
//   - plans whitespace insertions that line the anchors up ([Plan]), and
//   - applies the insertions to the original buffer ([Apply]).
//
// Anchors are numbered by slot. Slot 0 is the primary anchor: an element
// without one cannot be part of a run. Later slots are only reported once
// every earlier slot of the run is aligned, and when planning, the padding
// added in front of an earlier slot moves every later slot of the same
// element along with it.
//
// Only spaces are ever inserted. Nothing is removed, so a column can grow
// but never shrink.
package align
