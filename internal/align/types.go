package align

// Absent is the column reported for an anchor that is not present.
const Absent = -1

// Position locates a point in a buffer. Offset is a byte offset; Line and
// Column are zero-based. The unit of Column is chosen by whoever builds the
// Position (runes, grapheme clusters or display cells), but it must be the
// same unit for every element handed to one Aligner.
type Position struct {
	Offset int
	Line   int
	Column int
}

// Span is a half-open range of text [Start, End).
type Span struct {
	Start Position
	End   Position
}

// MultiLine reports whether the span crosses a line boundary.
func (s Span) MultiLine() bool {
	return s.Start.Line != s.End.Line
}

// Cover returns the smallest span containing both s and o.
func (s Span) Cover(o Span) Span {
	out := s
	if o.Start.Offset < out.Start.Offset {
		out.Start = o.Start
	}
	if o.End.Offset > out.End.Offset {
		out.End = o.End
	}
	return out
}

// Anchor is an optional span inside an element whose start column should
// line up across a run. The zero value is an absent anchor.
type Anchor struct {
	span    Span
	present bool
}

// AnchorAt returns a present anchor covering span.
func AnchorAt(span Span) Anchor {
	return Anchor{span: span, present: true}
}

// Present reports whether the element has this anchor.
func (a Anchor) Present() bool { return a.present }

// Span returns the anchor's span. It is the zero Span when absent.
func (a Anchor) Span() Span { return a.span }

// Column returns the anchor's start column, or Absent.
func (a Anchor) Column() int {
	if !a.present {
		return Absent
	}
	return a.span.Start.Column
}

// Selector returns the anchor slots of an element, left to right. Slot 0 is
// the primary anchor. Missing trailing slots are treated as absent.
type Selector[E any] func(E) []Anchor

// SpanFunc returns the span an element occupies in the buffer.
type SpanFunc[E any] func(E) Span

// Run is a contiguous range [Start, Start+Len) of an element sequence whose
// elements are expected to share anchor columns.
type Run struct {
	Start int
	Len   int
}

// End returns the exclusive end index of the run.
func (r Run) End() int { return r.Start + r.Len }

// Edit inserts Text immediately before At.Offset. Text is made of spaces
// only; an Edit never replaces or removes existing text.
type Edit struct {
	At   Position
	Text string
}

// Finding describes one misaligned run.
type Finding struct {
	// Slot is the first anchor slot found misaligned.
	Slot int
	Run  Run
	// Elements holds absolute indices of flagged elements, in order.
	Elements []int
	// Locations is parallel to Elements.
	Locations []Span
}

// Primary returns the location reported first: the lowest-index flagged
// element.
func (f Finding) Primary() Span {
	return f.Locations[0]
}

// Additional returns the locations after the primary one.
func (f Finding) Additional() []Span {
	return f.Locations[1:]
}
