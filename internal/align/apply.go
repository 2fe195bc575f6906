package align

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrEditOutOfRange is returned when an edit points outside the buffer.
	ErrEditOutOfRange = errors.New("align: edit offset out of range")
	// ErrNotWhitespace is returned when an edit would insert anything but spaces.
	ErrNotWhitespace = errors.New("align: edit inserts non-space text")
)

// Apply inserts every edit into src and returns the new buffer. Offsets
// refer to src, never to a partially edited buffer. Edits at the same
// offset are applied in the order given. src is not modified, and nothing
// is applied when an error is returned.
func Apply(src []byte, edits []Edit) ([]byte, error) {
	if len(edits) == 0 {
		return src, nil
	}
	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].At.Offset < sorted[j].At.Offset
	})

	grow := 0
	for _, e := range sorted {
		if e.At.Offset < 0 || e.At.Offset > len(src) {
			return nil, fmt.Errorf("%w: %d not in [0, %d]", ErrEditOutOfRange, e.At.Offset, len(src))
		}
		if strings.Trim(e.Text, " ") != "" {
			return nil, fmt.Errorf("%w: %q at %d", ErrNotWhitespace, e.Text, e.At.Offset)
		}
		grow += len(e.Text)
	}

	out := make([]byte, 0, len(src)+grow)
	last := 0
	for _, e := range sorted {
		out = append(out, src[last:e.At.Offset]...)
		out = append(out, e.Text...)
		last = e.At.Offset
	}
	return append(out, src[last:]...), nil
}

// Rebase maps next, planned against Apply(src, base), back onto src and
// merges it with base. An edit landing inside or at the end of a base
// insertion moves to that insertion's offset. pos positions an offset of
// src. The result holds one edit per offset, ordered by offset, and
// Apply(src, result) equals Apply(Apply(src, base), next).
func Rebase(base, next []Edit, pos func(offset int) Position) []Edit {
	sorted := make([]Edit, len(base))
	copy(sorted, base)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].At.Offset < sorted[j].At.Offset
	})

	texts := map[int]string{}
	for _, e := range sorted {
		texts[e.At.Offset] += e.Text
	}
	for _, e := range next {
		off := unshift(sorted, e.At.Offset)
		texts[off] += e.Text
	}

	out := make([]Edit, 0, len(texts))
	for off, text := range texts {
		if text == "" {
			continue
		}
		out = append(out, Edit{At: pos(off), Text: text})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].At.Offset < out[j].At.Offset
	})
	return out
}

// unshift maps an offset of the edited buffer to the offset of the source
// buffer. sorted must be ordered by offset.
func unshift(sorted []Edit, off int) int {
	shift := 0
	for _, e := range sorted {
		start := e.At.Offset + shift
		if off < start {
			break
		}
		if off <= start+len(e.Text) {
			return e.At.Offset
		}
		shift += len(e.Text)
	}
	return off - shift
}
