package align

// Measurement holds the anchor columns of one run, slot by slot.
type Measurement struct {
	// Columns[k][i] is the column of slot k for the i-th element of the
	// run, or Absent.
	Columns [][]int
	// Aligned[k] reports whether every present column of slot k is equal.
	Aligned []bool
}

// Measure computes columns and alignment for the anchors of a run.
// anchors[i] holds the slots of the i-th element of the run.
func Measure(anchors [][]Anchor, slots int) Measurement {
	m := Measurement{
		Columns: make([][]int, slots),
		Aligned: make([]bool, slots),
	}
	for k := range slots {
		cols := make([]int, len(anchors))
		first := Absent
		aligned := true
		for i, as := range anchors {
			c := slot(as, k).Column()
			cols[i] = c
			if c == Absent {
				continue
			}
			if first == Absent {
				first = c
			} else if c != first {
				aligned = false
			}
		}
		m.Columns[k] = cols
		m.Aligned[k] = aligned
	}
	return m
}

// FirstMisaligned returns the lowest misaligned slot. Later slots are
// not considered once an earlier one is misaligned.
func (m Measurement) FirstMisaligned() (int, bool) {
	for k, ok := range m.Aligned {
		if !ok {
			return k, true
		}
	}
	return 0, false
}

// Finding turns the measurement of run into a Finding. anchors holds the
// slots of the run's elements only (anchors[0] belongs to elems[run.Start]).
// Runs shorter than two elements and fully aligned runs yield no finding.
func (m Measurement) Finding(run Run, anchors [][]Anchor) (Finding, bool) {
	if run.Len < 2 {
		return Finding{}, false
	}
	k, ok := m.FirstMisaligned()
	if !ok {
		return Finding{}, false
	}

	f := Finding{Slot: k, Run: run}
	for i, as := range anchors {
		primary := slot(as, 0)
		if !primary.Present() {
			continue
		}
		loc := primary.Span()
		if k > 0 {
			if a := slot(as, k); a.Present() {
				loc = loc.Cover(a.Span())
			}
		}
		f.Elements = append(f.Elements, run.Start+i)
		f.Locations = append(f.Locations, loc)
	}
	if len(f.Locations) == 0 {
		return Finding{}, false
	}
	return f, true
}

func slot(as []Anchor, k int) Anchor {
	if k < len(as) {
		return as[k]
	}
	return Anchor{}
}
