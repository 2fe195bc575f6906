package align

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fix plans and applies every run of src, returning the new text.
func fix(t *testing.T, a *Aligner[*elem], src string, marks ...marker) string {
	t.Helper()
	out, err := Apply([]byte(src), a.PlanAll(parse(src, marks...)))
	require.NoError(t, err)
	return string(out)
}

func TestPlan_Single(t *testing.T) {
	t.Parallel()
	elems := parse("AAAA= 1\nBBBBBBB= 2\nCCCC= 3", eq)

	edits := single().PlanRun(elems, Run{0, 3})
	require.Len(t, edits, 2)
	assert.Equal(t, "   ", edits[0].Text)
	assert.Equal(t, elems[0].anchors[0].Span().Start, edits[0].At)
	assert.Equal(t, "   ", edits[1].Text)
	assert.Equal(t, elems[2].anchors[0].Span().Start, edits[1].At)
}

func TestPlan_Fix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		dual  bool
		input string
		want  string
	}{
		{
			name:  "enum values",
			input: "A = 1\nBBB = 2\nCC = 3",
			want:  "A   = 1\nBBB = 2\nCC  = 3",
		},
		{
			name:  "runs are fixed independently",
			input: "A = 1\nBB = 2\n\nCCCC = 3\nD = 4",
			want:  "A  = 1\nBB = 2\n\nCCCC = 3\nD    = 4",
		},
		{
			name:  "member without value is left alone",
			input: "A = 1\nNone\nBB = 2\nC = 3",
			want:  "A = 1\nNone\nBB = 2\nC  = 3",
		},
		{
			name:  "declarations",
			dual:  true,
			input: "int assignedFirst = 0;\nlong assignedSecond = 0;",
			want:  "int  assignedFirst  = 0;\nlong assignedSecond = 0;",
		},
		{
			name:  "cascade keeps padding minimal",
			dual:  true,
			input: "int xxx = 1;\nshort yyyy = 2;",
			want:  "int   xxx  = 1;\nshort yyyy = 2;",
		},
		{
			name:  "secondary only",
			dual:  true,
			input: "int  a = 1;\nlong bb = 2;",
			want:  "int  a  = 1;\nlong bb = 2;",
		},
		{
			name:  "declaration without initializer",
			dual:  true,
			input: "int a = 1;\nlong b;\nlong cc = 2;",
			want:  "int  a  = 1;\nlong b;\nlong cc = 2;",
		},
		{
			name:  "shifted element sets the secondary target",
			dual:  true,
			input: "i xxxxxxx = 1;\nlong y = 2;",
			want:  "i    xxxxxxx = 1;\nlong y       = 2;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var got string
			if tt.dual {
				got = fix(t, dual(), tt.input, name, eq)
			} else {
				got = fix(t, single(), tt.input, eq)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlan_Cascade(t *testing.T) {
	t.Parallel()
	// The first element needs 2 spaces before its name, which already
	// covers 2 of the 3 columns its '=' is short by.
	elems := parse("int xxx = 1;\nshort yyyy = 2;", name, eq)

	edits := dual().PlanRun(elems, Run{0, 2})
	require.Len(t, edits, 2)
	assert.Equal(t, 4, edits[0].At.Column)
	assert.Equal(t, "  ", edits[0].Text)
	assert.Equal(t, 8, edits[1].At.Column)
	assert.Equal(t, " ", edits[1].Text)
}

func TestPlan_AlignedIsNoop(t *testing.T) {
	t.Parallel()
	for _, src := range []string{
		"A   = 1\nBBB = 2",
		"A = 1",
		"",
	} {
		assert.Empty(t, single().PlanAll(parse(src, eq)), src)
	}
	assert.Empty(t, dual().PlanAll(parse("int  a  = 1;\nlong bb = 2;", name, eq)))
}

func TestPlan_Idempotent(t *testing.T) {
	t.Parallel()
	inputs := []string{
		"int xxx = 1;\nshort yyyy = 2;\nchar z = 3;",
		"i xxxxxxx = 1;\nlong y = 2;\nint zz;",
		"a b = 1;\naaaaa bbbbbbbbb = 2;\n\naa b = 3;\na bbbbb = 4;",
	}
	for _, src := range inputs {
		once := fix(t, dual(), src, name, eq)
		assert.Empty(t, dual().PlanAll(parse(once, name, eq)), once)
		assert.Empty(t, collect(dual().FindMisalignments(parse(once, name, eq))), once)
	}
}

func TestPlan_InsertionOnly(t *testing.T) {
	t.Parallel()
	src := "int xxx = 1;\nshort yyyy = 2;\nchar z = 3;"
	got := fix(t, dual(), src, name, eq)

	squash := func(s string) string { return strings.ReplaceAll(s, " ", "") }
	assert.Equal(t, squash(src), squash(got))
	assert.Greater(t, len(got), len(src))
}

func TestPlanFix(t *testing.T) {
	t.Parallel()
	elems := parse("A = 1\nBBB = 2\nCC = 3", eq)

	edits := single().PlanFix(elems, elems[0], elems[2])
	require.Len(t, edits, 2)
	assert.Equal(t, "  ", edits[0].Text)
	assert.Equal(t, " ", edits[1].Text)
}

func TestPlanFix_UnknownDelimiters(t *testing.T) {
	t.Parallel()
	elems := parse("A = 1\nBBB = 2", eq)
	stranger := parse("X = 1", eq)[0]

	assert.Empty(t, single().PlanFix(elems, stranger, elems[1]))
	assert.Empty(t, single().PlanFix(elems, elems[0], stranger))
	// last before first is not found either
	assert.Empty(t, single().PlanFix(elems, elems[1], elems[0]))
}
