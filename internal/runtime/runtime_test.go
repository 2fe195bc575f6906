package runtime

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goConstSource = `package main

const (
	A = 1
	BBB = 2
	C
)

func f() {
	x := 1
	yy := 2
}
`

// parseInput parses src and returns it as a script Input.
func parseInput(t *testing.T, lang, src string) Input {
	t.Helper()
	tree, err := Parse(context.Background(), []byte(src), lang)
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return Input{Path: "test." + lang, Language: lang, Source: []byte(src), Root: tree.RootNode()}
}

// --- Language detection tests ---

func TestLanguageForFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"main.go", "go", true},
		{"app.ts", "typescript", true},
		{"app.tsx", "typescript", true},
		{"app.js", "javascript", true},
		{"script.py", "python", true},
		{"lib.rs", "rust", true},
		{"main.c", "c", true},
		{"util.h", "c", true},
		{"main.cpp", "cpp", true},
		{"Program.cs", "csharp", true},
		{"App.java", "java", true},
		{"index.php", "php", true},
		{"app.rb", "ruby", true},
		{"file.txt", "", false},
		{"Makefile", "", false},
		{"path/to/file.GO", "go", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			got, ok := LanguageForFile(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParserForLanguage(t *testing.T) {
	t.Parallel()

	for _, lang := range Languages() {
		t.Run(lang, func(t *testing.T) {
			t.Parallel()
			l, ok := ParserForLanguage(lang)
			assert.True(t, ok)
			assert.NotNil(t, l)
		})
	}

	_, ok := ParserForLanguage("cobol")
	assert.False(t, ok)
}

func TestDetectLanguage(t *testing.T) {
	t.Parallel()

	lang, ok := DetectLanguage("main.go", []byte("package main\n"))
	require.True(t, ok)
	assert.Equal(t, "go", lang)

	// Without content a header stays C.
	lang, ok = DetectLanguage("util.h", nil)
	require.True(t, ok)
	assert.Equal(t, "c", lang)

	_, ok = DetectLanguage("notes.txt", nil)
	assert.False(t, ok)
}

func TestSkipPath(t *testing.T) {
	t.Parallel()
	assert.True(t, SkipPath("vendor/github.com/x/y.go", nil))
	assert.True(t, SkipPath("web/node_modules/lib/index.js", nil))
	assert.False(t, SkipPath("internal/align/plan.go", nil))
}

// --- Parsing ---

func TestParse(t *testing.T) {
	t.Parallel()
	in := parseInput(t, "go", goConstSource)
	assert.Equal(t, "source_file", in.Root.Type())
	assert.False(t, in.Root.HasError())
}

func TestParse_UnsupportedLanguage(t *testing.T) {
	t.Parallel()
	_, err := Parse(context.Background(), []byte("x"), "cobol")
	require.ErrorIs(t, err, ErrUnsupportedLanguage)
}

func TestParse_InvalidSourceStillReturnsTree(t *testing.T) {
	t.Parallel()
	in := parseInput(t, "go", "this is not valid go code }{}{")
	require.NotNil(t, in.Root)
	assert.True(t, in.Root.HasError())
}

func TestFindToken(t *testing.T) {
	t.Parallel()
	in := parseInput(t, "go", goConstSource)

	var specs []*sitter.Node
	walk(in.Root, func(n *sitter.Node) {
		if n.Type() == "const_spec" {
			specs = append(specs, n)
		}
	})
	require.Len(t, specs, 3)

	eq := FindToken(specs[1], "=")
	require.NotNil(t, eq)
	assert.Equal(t, "=", eq.Content(in.Source))
	assert.Nil(t, FindToken(specs[2], "="))
}

func walk(n *sitter.Node, fn func(*sitter.Node)) {
	fn(n)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		walk(n.NamedChild(i), fn)
	}
}

// --- Rule scripts ---

const constRule = `
items := []
matches := query("(const_spec) @spec", root)
for i := 0; i < len(matches); i++ {
    spec := matches[i]["spec"]
    items.append({"node": spec, "anchors": [find_token(spec, "=")]})
}
align_group(items)
`

func TestRunRuleSource_AlignGroup(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("")
	in := parseInput(t, "go", goConstSource)

	groups, err := rt.RunRuleSource(context.Background(), constRule, in)
	require.NoError(t, err)
	require.Len(t, groups, 1)

	g := groups[0]
	require.Len(t, g.Nodes, 3)
	require.Len(t, g.Anchors, 3)
	assert.Equal(t, "A = 1", g.Nodes[0].Content(in.Source))
	require.Len(t, g.Anchors[1], 1)
	assert.Equal(t, "=", g.Anchors[1][0].Type())
	assert.Equal(t, []*sitter.Node{nil}, g.Anchors[2])
}

func TestRunRuleSource_AlignGroupName(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("")
	in := parseInput(t, "go", goConstSource)

	script := `
matches := query("(const_spec) @spec", root)
align_group([{"node": matches[0]["spec"], "anchors": []}], "consts")
`
	groups, err := rt.RunRuleSource(context.Background(), script, in)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "consts", groups[0].Name)
	assert.Equal(t, [][]*sitter.Node{nil}, groups[0].Anchors)
}

func TestRunRuleSource_AlignGroupBadName(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("")
	in := parseInput(t, "go", goConstSource)

	_, err := rt.RunRuleSource(context.Background(), `align_group([], 42)`, in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected string name")
}

func TestRunRuleSource_Globals(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("")
	in := parseInput(t, "go", goConstSource)

	script := `
assert(language == "go", 'unexpected language {language}')
assert(file_path == "test.go", 'unexpected path {file_path}')
assert(root.Type() == "source_file", "expected source_file")
first := root.NamedChild(0)
assert(node_text(first) == "package main", 'got {node_text(first)}')
assert(node_child(first, "nope") == nil, "missing field should be nil")
`
	groups, err := rt.RunRuleSource(context.Background(), script, in)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestRunRuleSource_ShortVarDeclarations(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("")
	in := parseInput(t, "go", goConstSource)

	script := `
items := []
matches := query("(short_var_declaration left: (expression_list) @left) @decl", root)
for i := 0; i < len(matches); i++ {
    decl := matches[i]["decl"]
    items.append({"node": decl, "anchors": [matches[i]["left"], find_token(decl, ":=")]})
}
align_group(items)
`
	groups, err := rt.RunRuleSource(context.Background(), script, in)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Nodes, 2)
	assert.Equal(t, ":=", groups[0].Anchors[1][1].Type())
}

func TestRunRuleSource_BadItems(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("")
	in := parseInput(t, "go", goConstSource)

	for _, script := range []string{
		`align_group("nope")`,
		`align_group([1])`,
		`align_group([{"anchors": []}])`,
		`query("(not_a_real_node_type @x)", root)`,
	} {
		_, err := rt.RunRuleSource(context.Background(), script, in)
		assert.Error(t, err, script)
	}
}

func TestRunRuleSource_UnsupportedLanguage(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("")
	in := parseInput(t, "go", goConstSource)
	in.Language = "cobol"

	_, err := rt.RunRuleSource(context.Background(), constRule, in)
	require.ErrorIs(t, err, ErrUnsupportedLanguage)
}

func TestRunRuleSource_ForgetsSource(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("")
	in := parseInput(t, "go", goConstSource)

	_, err := rt.RunRuleSource(context.Background(), constRule, in)
	require.NoError(t, err)
	_, ok := rt.sources.sourceForNode(in.Root)
	assert.False(t, ok)
}

func TestRunRule_FromFS(t *testing.T) {
	t.Parallel()
	mapFS := fstest.MapFS{
		"rules/consts.risor": &fstest.MapFile{Data: []byte(constRule)},
	}
	rt := NewRuntime("", WithRuntimeFS(mapFS))
	in := parseInput(t, "go", goConstSource)

	groups, err := rt.RunRule(context.Background(), "rules/consts.risor", in)
	require.NoError(t, err)
	assert.Len(t, groups, 1)
}

func TestRunSource_ParseSrc(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("")

	script := `
tree := parse_src("enum E { A = 1, B = 2 };", "c")
root := tree.RootNode()
matches := query("(enumerator name: (identifier) @name)", root)
assert(len(matches) == 2, 'expected 2 enumerators, got {len(matches)}')
assert(node_text(matches[1]["name"]) == "B", "expected B")
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

// --- Script loading ---

func TestRunScript_LoadsFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.risor"), []byte(`result := 1 + 1`), 0o644))

	rt := NewRuntime(dir)
	require.NoError(t, rt.RunScript(context.Background(), "test.risor", nil))
}

func TestRunScript_MissingFile(t *testing.T) {
	t.Parallel()
	rt := NewRuntime(t.TempDir())
	require.Error(t, rt.RunScript(context.Background(), "nonexistent.risor", nil))
}

func TestLoadScript_FromFS(t *testing.T) {
	t.Parallel()

	content := `x := 42`
	mapFS := fstest.MapFS{
		"rules/go.risor": &fstest.MapFile{Data: []byte(content)},
	}
	rt := NewRuntime("", WithRuntimeFS(mapFS))

	got, err := rt.LoadScript("rules/go.risor")
	require.NoError(t, err)
	assert.Equal(t, content, got)

	// Absolute-style path should be resolved within the FS.
	got, err = rt.LoadScript("/rules/go.risor")
	require.NoError(t, err)
	assert.Equal(t, content, got)

	_, err = rt.LoadScript("nonexistent.risor")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "from fs")
}

func TestLoadScript_FallsBackToDisk(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	content := `z := 7`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.risor"), []byte(content), 0o644))

	rt := NewRuntime(dir)
	got, err := rt.LoadScript("test.risor")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}
