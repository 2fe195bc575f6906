package rules

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/plumbline/internal/align"
	"github.com/jward/plumbline/internal/runtime"
	"github.com/jward/plumbline/internal/source"
)

// syntax describes where a rule finds its groups in one language.
type syntax struct {
	// containers are the node types whose named children form a group.
	containers []string
	// accept further filters containers. nil accepts all.
	accept func(n *sitter.Node) bool
	// anchors returns the slots of one element, or nil.
	anchors func(f *source.File, n *sitter.Node) []align.Anchor
	// name returns the container name used in messages.
	name func(f *source.File, n *sitter.Node) string
}

// wrappers are grammar nodes that only group statements or specs. Their
// children are spliced into the enclosing group.
var wrappers = map[string]bool{
	"statement_list":  true,
	"var_spec_list":   true,
	"const_spec_list": true,
}

func isTrivia(n *sitter.Node) bool {
	return strings.Contains(n.Type(), "comment")
}

// span returns the span of n.
func span(f *source.File, n *sitter.Node) align.Span {
	return f.Span(n.StartByte(), n.EndByte())
}

// anchor returns an anchor starting at from and ending at the end of to.
// A nil from is an absent anchor; a nil to ends the anchor at from.
func anchor(f *source.File, from, to *sitter.Node) align.Anchor {
	if from == nil {
		return align.Anchor{}
	}
	s := span(f, from)
	if to != nil {
		s = s.Cover(span(f, to))
	}
	return align.AnchorAt(s)
}

func hasToken(n *sitter.Node, typ string) bool {
	return runtime.FindToken(n, typ) != nil
}

func namedChildOfType(n *sitter.Node, types ...string) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		for _, t := range types {
			if c.Type() == t {
				return c
			}
		}
	}
	return nil
}

// parentName reads the "name" field of the container's parent, as in
// enum_specifier { enumerator_list }.
func parentName(f *source.File, n *sitter.Node) string {
	if p := n.Parent(); p != nil {
		if name := p.ChildByFieldName("name"); name != nil {
			return name.Content(f.Content)
		}
	}
	return "anonymous"
}

func fixedName(name string) func(*source.File, *sitter.Node) string {
	return func(*source.File, *sitter.Node) string { return name }
}

// equalsValue returns the "=" token of n and the node its value ends with.
// Grammars either place "=" directly in n or wrap it in equals_value_clause.
func equalsValue(n *sitter.Node) (eq, end *sitter.Node) {
	if clause := namedChildOfType(n, "equals_value_clause"); clause != nil {
		return runtime.FindToken(clause, "="), clause
	}
	eq = runtime.FindToken(n, "=")
	if eq == nil {
		return nil, nil
	}
	return eq, n.ChildByFieldName("value")
}

// enumValue is the AL1002 selector: the "= value" part of a member.
func enumValue(f *source.File, n *sitter.Node) []align.Anchor {
	eq, end := equalsValue(n)
	return []align.Anchor{anchor(f, eq, end)}
}

// declaration returns the dual AL1000 anchors of a single declarator:
// its name and its "= value" part.
func declaration(f *source.File, name, decl *sitter.Node) []align.Anchor {
	if name == nil {
		return nil
	}
	eq, end := equalsValue(decl)
	return []align.Anchor{anchor(f, name, nil), anchor(f, eq, end)}
}

// cDeclaration handles C and C++ declarations: int x = 1;
func cDeclaration(f *source.File, n *sitter.Node) []align.Anchor {
	if n.Type() != "declaration" || hasToken(n, ",") {
		return nil
	}
	d := n.ChildByFieldName("declarator")
	if d == nil {
		return nil
	}
	if d.Type() != "init_declarator" {
		if d.Type() == "function_declarator" {
			return nil
		}
		return []align.Anchor{anchor(f, d, nil), {}}
	}
	return declaration(f, d.ChildByFieldName("declarator"), d)
}

// goDeclaration handles x := 1, var x = 1 and the specs of var (...) blocks.
func goDeclaration(f *source.File, n *sitter.Node) []align.Anchor {
	switch n.Type() {
	case "short_var_declaration":
		left := n.ChildByFieldName("left")
		if left == nil || left.NamedChildCount() != 1 {
			return nil
		}
		tok := runtime.FindToken(n, ":=")
		return []align.Anchor{anchor(f, left, nil), anchor(f, tok, n.ChildByFieldName("right"))}
	case "var_declaration":
		if hasToken(n, "(") || n.NamedChildCount() != 1 {
			return nil
		}
		return goDeclaration(f, n.NamedChild(0))
	case "var_spec":
		if hasToken(n, ",") {
			return nil
		}
		return declaration(f, n.ChildByFieldName("name"), n)
	}
	return nil
}

// jsDeclaration handles let, const and var declarations.
func jsDeclaration(f *source.File, n *sitter.Node) []align.Anchor {
	switch n.Type() {
	case "lexical_declaration", "variable_declaration":
	default:
		return nil
	}
	if hasToken(n, ",") {
		return nil
	}
	d := namedChildOfType(n, "variable_declarator")
	if d == nil {
		return nil
	}
	return declaration(f, d.ChildByFieldName("name"), d)
}

func javaDeclaration(f *source.File, n *sitter.Node) []align.Anchor {
	if n.Type() != "local_variable_declaration" || hasToken(n, ",") {
		return nil
	}
	d := n.ChildByFieldName("declarator")
	if d == nil {
		return nil
	}
	return declaration(f, d.ChildByFieldName("name"), d)
}

func csharpDeclaration(f *source.File, n *sitter.Node) []align.Anchor {
	if n.Type() != "local_declaration_statement" {
		return nil
	}
	v := namedChildOfType(n, "variable_declaration")
	if v == nil || hasToken(v, ",") {
		return nil
	}
	d := namedChildOfType(v, "variable_declarator")
	if d == nil {
		return nil
	}
	name := d.ChildByFieldName("name")
	if name == nil {
		name = namedChildOfType(d, "identifier")
	}
	return declaration(f, name, d)
}

func rustDeclaration(f *source.File, n *sitter.Node) []align.Anchor {
	if n.Type() != "let_declaration" {
		return nil
	}
	pattern := n.ChildByFieldName("pattern")
	if pattern == nil || pattern.Type() != "identifier" {
		return nil
	}
	start := pattern
	if m := namedChildOfType(n, "mutable_specifier"); m != nil {
		start = m
	}
	return declaration(f, start, n)
}

func pythonAssignment(f *source.File, n *sitter.Node) []align.Anchor {
	if n.Type() != "expression_statement" || n.NamedChildCount() != 1 {
		return nil
	}
	a := n.NamedChild(0)
	if a.Type() != "assignment" {
		return nil
	}
	left := a.ChildByFieldName("left")
	if left == nil {
		return nil
	}
	switch left.Type() {
	case "pattern_list", "tuple_pattern", "list_pattern", "list_splat_pattern":
		return nil
	}
	eq := runtime.FindToken(a, "=")
	return []align.Anchor{anchor(f, left, nil), anchor(f, eq, a.ChildByFieldName("right"))}
}

// enumSyntax is where AL1002 looks for members.
var enumSyntax = map[string]syntax{
	"c":          {containers: []string{"enumerator_list"}, anchors: enumValue, name: parentName},
	"cpp":        {containers: []string{"enumerator_list"}, anchors: enumValue, name: parentName},
	"csharp":     {containers: []string{"enum_member_declaration_list"}, anchors: enumValue, name: parentName},
	"typescript": {containers: []string{"enum_body"}, anchors: enumValue, name: parentName},
	"rust":       {containers: []string{"enum_variant_list"}, anchors: enumValue, name: parentName},
	"go": {
		containers: []string{"const_declaration"},
		anchors: func(f *source.File, n *sitter.Node) []align.Anchor {
			if n.Type() != "const_spec" || hasToken(n, ",") {
				return nil
			}
			return enumValue(f, n)
		},
		name: fixedName("const"),
	},
}

// declarationSyntax is where AL1000 looks for declarations.
var declarationSyntax = map[string]syntax{
	"c":   {containers: []string{"compound_statement"}, anchors: cDeclaration},
	"cpp": {containers: []string{"compound_statement"}, anchors: cDeclaration},
	"go": {
		containers: []string{"block", "var_declaration"},
		accept: func(n *sitter.Node) bool {
			return n.Type() == "block" || hasToken(n, "(")
		},
		anchors: goDeclaration,
	},
	"typescript": {containers: []string{"program", "statement_block"}, anchors: jsDeclaration},
	"javascript": {containers: []string{"program", "statement_block"}, anchors: jsDeclaration},
	"java":       {containers: []string{"block"}, anchors: javaDeclaration},
	"csharp":     {containers: []string{"block"}, anchors: csharpDeclaration},
	"rust":       {containers: []string{"block"}, anchors: rustDeclaration},
	"python":     {containers: []string{"module", "block"}, anchors: pythonAssignment},
}
