package rules

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/plumbline/internal/align"
	"github.com/jward/plumbline/internal/runtime"
	"github.com/jward/plumbline/internal/source"
)

func parseFile(t *testing.T, lang, path, src string) *File {
	t.Helper()
	tree, err := runtime.Parse(context.Background(), []byte(src), lang)
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return &File{
		Source:   source.New(path, []byte(src)),
		Language: lang,
		Root:     tree.RootNode(),
	}
}

// fixed applies every fix rules produce for src.
func fixed(t *testing.T, f *File, rules []Rule) string {
	t.Helper()
	edits, err := Fix(context.Background(), f, rules)
	require.NoError(t, err)
	out, err := align.Apply(f.Source.Content, edits)
	require.NoError(t, err)
	return string(out)
}

func TestFix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		lang string
		path string
		src  string
		want string
	}{
		{
			name: "c enum",
			lang: "c",
			path: "color.c",
			src:  "enum Color {\n    Red = 1,\n    Green = 2,\n    Blue = 3\n};\n",
			want: "enum Color {\n    Red   = 1,\n    Green = 2,\n    Blue  = 3\n};\n",
		},
		{
			name: "c declarations cascade",
			lang: "c",
			path: "f.c",
			src:  "void f(void) {\n    int x = 1;\n    char yyyy = 2;\n}\n",
			want: "void f(void) {\n    int  x    = 1;\n    char yyyy = 2;\n}\n",
		},
		{
			name: "go const block",
			lang: "go",
			path: "k.go",
			src:  "package p\n\nconst (\n\tA = 1\n\tBBB = 2\n)\n",
			want: "package p\n\nconst (\n\tA   = 1\n\tBBB = 2\n)\n",
		},
		{
			name: "go short declarations",
			lang: "go",
			path: "f.go",
			src:  "package p\n\nfunc f() {\n\ta := 1\n\tbbb := 2\n\t_, _ = a, bbb\n}\n",
			want: "package p\n\nfunc f() {\n\ta   := 1\n\tbbb := 2\n\t_, _ = a, bbb\n}\n",
		},
		{
			name: "python module",
			lang: "python",
			path: "m.py",
			src:  "x = 1\nlong_name = 2\n",
			want: "x         = 1\nlong_name = 2\n",
		},
		{
			name: "typescript enum",
			lang: "typescript",
			path: "e.ts",
			src:  "enum E {\n  A = 1,\n  BB = 2,\n}\n",
			want: "enum E {\n  A  = 1,\n  BB = 2,\n}\n",
		},
		{
			name: "cpp enum class",
			lang: "cpp",
			path: "mode.cpp",
			src:  "enum class Mode {\n    Off = 0,\n    Standby = 1\n};\n",
			want: "enum class Mode {\n    Off     = 0,\n    Standby = 1\n};\n",
		},
		{
			name: "cpp declarations",
			lang: "cpp",
			path: "f.cpp",
			src:  "void f() {\n    int x = 1;\n    bool yy = true;\n}\n",
			want: "void f() {\n    int  x  = 1;\n    bool yy = true;\n}\n",
		},
		{
			name: "javascript let and const",
			lang: "javascript",
			path: "m.js",
			src:  "let a = 1;\nconst bbb = 2;\n",
			want: "let   a   = 1;\nconst bbb = 2;\n",
		},
		{
			name: "blank line splits runs",
			lang: "c",
			path: "split.c",
			src:  "enum S {\n  A = 1,\n  BB = 2,\n\n  CCCC = 3,\n  D = 4\n};\n",
			want: "enum S {\n  A  = 1,\n  BB = 2,\n\n  CCCC = 3,\n  D    = 4\n};\n",
		},
		{
			name: "comment line breaks run",
			lang: "c",
			path: "comment.c",
			src:  "enum S {\n  A = 1,\n  // gap\n  BB = 2\n};\n",
			want: "enum S {\n  A = 1,\n  // gap\n  BB = 2\n};\n",
		},
		{
			name: "several declarators break run",
			lang: "c",
			path: "multi.c",
			src:  "void f(void) {\n    int a = 1;\n    int b = 2, c = 3;\n    int ddd = 4;\n}\n",
			want: "void f(void) {\n    int a = 1;\n    int b = 2, c = 3;\n    int ddd = 4;\n}\n",
		},
		{
			name: "aligned input unchanged",
			lang: "c",
			path: "ok.c",
			src:  "enum OK {\n  A   = 1,\n  BBB = 2\n};\n",
			want: "enum OK {\n  A   = 1,\n  BBB = 2\n};\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := parseFile(t, tt.lang, tt.path, tt.src)
			got := fixed(t, f, Builtins())
			assert.Equal(t, tt.want, got)

			// A second pass finds nothing left to do.
			again := parseFile(t, tt.lang, tt.path, got)
			diags, err := Check(context.Background(), again, Builtins())
			require.NoError(t, err)
			assert.Empty(t, diags)
		})
	}
}

func TestCheck_EnumDiagnostic(t *testing.T) {
	t.Parallel()
	src := "enum Color {\n    Red = 1,\n    Green = 2,\n    Blue = 3\n};\n"
	f := parseFile(t, "c", "color.c", src)

	diags, err := Check(context.Background(), f, Builtins())
	require.NoError(t, err)
	require.Len(t, diags, 1)

	d := diags[0]
	assert.Equal(t, AlignEnumValues, d.RuleID)
	assert.Equal(t, SevInfo, d.Severity)
	assert.Equal(t, "values of enum 'Color' should be aligned", d.Message)
	assert.Equal(t, 0, d.Slot)
	assert.Equal(t, "color.c", d.Primary.Path)
	assert.Equal(t, 1, d.Primary.Start.Line)
	assert.Equal(t, 8, d.Primary.Start.Column)
	assert.Equal(t, 11, d.Primary.End.Column)
	require.Len(t, d.Additional, 2)
	assert.Equal(t, 2, d.Additional[0].Start.Line)
	assert.Equal(t, 10, d.Additional[0].Start.Column)
	assert.Equal(t, 3, d.Additional[1].Start.Line)
}

func TestCheck_DeclarationSecondarySlot(t *testing.T) {
	t.Parallel()
	f := parseFile(t, "python", "m.py", "x = 1\nlong_name = 2\n")

	diags, err := Check(context.Background(), f, Builtins())
	require.NoError(t, err)
	require.Len(t, diags, 1)

	d := diags[0]
	assert.Equal(t, AlignVariableAssignments, d.RuleID)
	assert.Equal(t, "variable assignments should be aligned", d.Message)
	assert.Equal(t, 1, d.Slot)
	// Secondary findings cover the name through the initializer.
	assert.Equal(t, 0, d.Primary.Start.Offset)
	assert.Equal(t, 5, d.Primary.End.Offset)
	require.Len(t, d.Additional, 1)
	assert.Equal(t, 1, d.Additional[0].Start.Line)
}

func TestCheck_SingleElementRuns(t *testing.T) {
	t.Parallel()
	f := parseFile(t, "c", "one.c", "enum One { A = 1 };\nvoid f(void) { int x = 1; }\n")

	diags, err := Check(context.Background(), f, Builtins())
	require.NoError(t, err)
	assert.Empty(t, diags)
}

func TestFixDiagnostic(t *testing.T) {
	t.Parallel()
	src := "enum A {\n  X = 1,\n  YY = 2\n};\n\nenum B {\n  P = 1,\n  QQQ = 2\n};\n"
	f := parseFile(t, "c", "two.c", src)
	ctx := context.Background()

	diags, err := Check(ctx, f, Builtins())
	require.NoError(t, err)
	require.Len(t, diags, 2)
	assert.Equal(t, "values of enum 'B' should be aligned", diags[1].Message)

	edits, err := FixDiagnostic(ctx, f, Builtins(), diags[1])
	require.NoError(t, err)
	out, err := align.Apply(f.Source.Content, edits)
	require.NoError(t, err)
	assert.Equal(t, "enum A {\n  X = 1,\n  YY = 2\n};\n\nenum B {\n  P   = 1,\n  QQQ = 2\n};\n", string(out))
}

func TestFixDiagnostic_Stale(t *testing.T) {
	t.Parallel()
	f := parseFile(t, "c", "s.c", "enum A {\n  X = 1,\n  YY = 2\n};\n")

	stale := Diagnostic{RuleID: AlignEnumValues, Primary: Location{Start: align.Position{Offset: 3}}}
	_, err := FixDiagnostic(context.Background(), f, Builtins(), stale)
	require.ErrorIs(t, err, ErrFindingNotFound)

	other := Diagnostic{RuleID: "AL9999"}
	_, err = FixDiagnostic(context.Background(), f, Builtins(), other)
	require.ErrorIs(t, err, ErrFindingNotFound)
}

func TestSelect(t *testing.T) {
	t.Parallel()
	all := Builtins()

	assert.Len(t, Select(all, nil), 2)

	got := Select(all, []string{"align-enum-values"})
	require.Len(t, got, 1)
	assert.Equal(t, AlignEnumValues, got[0].Descriptor().ID)

	got = Select(all, []string{AlignVariableAssignments})
	require.Len(t, got, 1)
	assert.Equal(t, "align-variable-assignments", got[0].Descriptor().Name)

	assert.Empty(t, Select(all, []string{"nope"}))
}

func TestBuiltins_Descriptors(t *testing.T) {
	t.Parallel()
	for _, r := range Builtins() {
		d := r.Descriptor()
		assert.Equal(t, "readability", d.Category)
		assert.Equal(t, SevInfo, d.Severity)
		assert.Equal(t, "https://github.com/jward/plumbline/blob/main/docs/rules/"+d.ID+".md", d.HelpURI)
	}
	assert.True(t, Builtins()[1].Supports("rust"))
	assert.False(t, Builtins()[1].Supports("python"))
}

func TestSeverity(t *testing.T) {
	t.Parallel()
	for _, s := range []Severity{SevInfo, SevWarning, SevError} {
		got, err := ParseSeverity(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	got, err := ParseSeverity("WARN")
	require.NoError(t, err)
	assert.Equal(t, SevWarning, got)

	_, err = ParseSeverity("fatal")
	require.Error(t, err)
}

func TestConfigured(t *testing.T) {
	t.Parallel()
	base := Builtins()[1]
	desc := base.Descriptor()
	desc.Severity = SevError
	r := Configured{Rule: base, Desc: desc}

	f := parseFile(t, "c", "c.c", "enum A {\n  X = 1,\n  YY = 2\n};\n")
	diags, err := Check(context.Background(), f, []Rule{r})
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, SevError, diags[0].Severity)
}

const tagsScript = `
items := []
matches := query("(const_spec) @spec", root)
for i := 0; i < len(matches); i++ {
    spec := matches[i]["spec"]
    items.append({"node": spec, "anchors": [find_token(spec, "=")]})
}
align_group(items, "consts")
`

func TestScriptRule(t *testing.T) {
	t.Parallel()
	rt := runtime.NewRuntime("", runtime.WithRuntimeFS(fstest.MapFS{
		"rules/consts.risor": {Data: []byte(tagsScript)},
	}))
	r := NewScriptRule(Descriptor{
		ID:      "X100",
		Name:    "consts",
		Message: "constants in {name} should be aligned",
	}, "rules/consts.risor", []string{"go"}, rt)

	assert.True(t, r.Supports("go"))
	assert.False(t, r.Supports("c"))
	assert.Equal(t, 1, r.Descriptor().Slots)

	f := parseFile(t, "go", "k.go", "package p\n\nconst (\n\tA = 1\n\tBBB = 2\n)\n")
	diags, err := Check(context.Background(), f, []Rule{r})
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, "X100", diags[0].RuleID)
	assert.Equal(t, "constants in consts should be aligned", diags[0].Message)

	assert.Equal(t, "package p\n\nconst (\n\tA   = 1\n\tBBB = 2\n)\n", fixed(t, f, []Rule{r}))
}

func TestScriptRule_MissingScript(t *testing.T) {
	t.Parallel()
	rt := runtime.NewRuntime("", runtime.WithRuntimeFS(fstest.MapFS{}))
	r := NewScriptRule(Descriptor{ID: "X1"}, "missing.risor", nil, rt)

	f := parseFile(t, "go", "k.go", "package p\n")
	_, err := Check(context.Background(), f, []Rule{r})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "X1")
}
