// Package textdiff renders line-oriented unified diffs for fix previews.
package textdiff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DefaultContext is the number of unchanged lines shown around a change.
const DefaultContext = 3

type op struct {
	kind diffmatchpatch.Operation
	text string
}

// lines diffs old and new line by line.
func lines(old, new string) []op {
	dmp := diffmatchpatch.New()
	a, b, index := dmp.DiffLinesToChars(old, new)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), index)

	var ops []op
	for _, d := range diffs {
		for _, l := range strings.SplitAfter(d.Text, "\n") {
			if l != "" {
				ops = append(ops, op{kind: d.Type, text: l})
			}
		}
	}
	return ops
}

// Unified returns a unified diff between old and new labelled with the
// given file names, or "" when they are equal. context < 0 selects
// DefaultContext.
func Unified(oldName, newName, old, new string, context int) string {
	if old == new {
		return ""
	}
	if context < 0 {
		context = DefaultContext
	}
	ops := lines(old, new)

	var b strings.Builder
	fmt.Fprintf(&b, "--- %s\n+++ %s\n", oldName, newName)

	// Line numbers (1-based) before each op.
	oldAt := make([]int, len(ops)+1)
	newAt := make([]int, len(ops)+1)
	oldAt[0], newAt[0] = 1, 1
	for i, o := range ops {
		oldAt[i+1], newAt[i+1] = oldAt[i], newAt[i]
		if o.kind != diffmatchpatch.DiffInsert {
			oldAt[i+1]++
		}
		if o.kind != diffmatchpatch.DiffDelete {
			newAt[i+1]++
		}
	}

	for i := 0; i < len(ops); {
		if ops[i].kind == diffmatchpatch.DiffEqual {
			i++
			continue
		}
		// Extend the hunk while the next change is within 2*context lines.
		start := max(0, i-context)
		end := i
		for j := i; j < len(ops); j++ {
			if ops[j].kind == diffmatchpatch.DiffEqual {
				continue
			}
			if j-end > 2*context {
				break
			}
			end = j + 1
		}
		end = min(len(ops), end+context)

		oldCount := oldAt[end] - oldAt[start]
		newCount := newAt[end] - newAt[start]
		fmt.Fprintf(&b, "@@ -%s +%s @@\n", hunkRange(oldAt[start], oldCount), hunkRange(newAt[start], newCount))
		for _, o := range ops[start:end] {
			switch o.kind {
			case diffmatchpatch.DiffEqual:
				b.WriteByte(' ')
			case diffmatchpatch.DiffDelete:
				b.WriteByte('-')
			case diffmatchpatch.DiffInsert:
				b.WriteByte('+')
			}
			b.WriteString(o.text)
			if !strings.HasSuffix(o.text, "\n") {
				b.WriteString("\n\\ No newline at end of file\n")
			}
		}
		i = end
	}
	return b.String()
}

func hunkRange(start, count int) string {
	if count == 0 {
		return fmt.Sprintf("%d,0", start-1)
	}
	if count == 1 {
		return fmt.Sprintf("%d", start)
	}
	return fmt.Sprintf("%d,%d", start, count)
}

// Stats counts added and removed lines between old and new.
func Stats(old, new string) (added, removed int) {
	for _, o := range lines(old, new) {
		switch o.kind {
		case diffmatchpatch.DiffInsert:
			added++
		case diffmatchpatch.DiffDelete:
			removed++
		}
	}
	return added, removed
}
