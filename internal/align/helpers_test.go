package align

import (
	"iter"
	"strings"
)

type elem struct {
	span    Span
	anchors []Anchor
}

type marker func(line string) int

// eq marks the first '='.
func eq(line string) int { return strings.Index(line, "=") }

// name marks the start of the second word.
func name(line string) int {
	i := len(line) - len(strings.TrimLeft(line, " "))
	sp := strings.IndexByte(line[i:], ' ')
	if sp < 0 {
		return -1
	}
	j := i + sp
	for j < len(line) && line[j] == ' ' {
		j++
	}
	if j == len(line) || line[j] == '=' {
		return -1
	}
	return j
}

// parse builds one element per non-blank line of src. Columns are byte
// columns, which is fine for the ASCII inputs used here.
func parse(src string, marks ...marker) []*elem {
	var out []*elem
	off := 0
	for n, line := range strings.Split(src, "\n") {
		start := off
		off += len(line) + 1
		trimmed := strings.TrimLeft(line, " ")
		if trimmed == "" {
			continue
		}
		indent := len(line) - len(trimmed)
		pos := func(col int) Position {
			return Position{Offset: start + col, Line: n, Column: col}
		}
		e := &elem{span: Span{Start: pos(indent), End: pos(len(line))}}
		for _, m := range marks {
			c := m(line)
			if c < 0 {
				e.anchors = append(e.anchors, Anchor{})
				continue
			}
			e.anchors = append(e.anchors, AnchorAt(Span{Start: pos(c), End: pos(c + 1)}))
		}
		out = append(out, e)
	}
	return out
}

func spanOf(e *elem) Span        { return e.span }
func anchorsOf(e *elem) []Anchor { return e.anchors }

func single() *Aligner[*elem] { return New(1, spanOf, anchorsOf) }
func dual() *Aligner[*elem]   { return New(2, spanOf, anchorsOf) }

func collect[T any](seq iter.Seq[T]) []T {
	var out []T
	for v := range seq {
		out = append(out, v)
	}
	return out
}
