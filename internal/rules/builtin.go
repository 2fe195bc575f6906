package rules

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

const (
	categoryReadability = "readability"

	// AlignVariableAssignments is the ID of the declaration rule.
	AlignVariableAssignments = "AL1000"
	// AlignEnumValues is the ID of the enum rule.
	AlignEnumValues = "AL1002"
)

// builtin is a rule driven by a per-language syntax table.
type builtin struct {
	desc   Descriptor
	syntax map[string]syntax
}

func (r *builtin) Descriptor() Descriptor { return r.desc }

func (r *builtin) Supports(language string) bool {
	_, ok := r.syntax[language]
	return ok
}

// Groups walks the tree and returns one group per container node.
func (r *builtin) Groups(ctx context.Context, f *File) ([]Group, error) {
	syn, ok := r.syntax[f.Language]
	if !ok || f.Root == nil {
		return nil, nil
	}
	containers := make(map[string]bool, len(syn.containers))
	for _, c := range syn.containers {
		containers[c] = true
	}

	var groups []Group
	var walk func(n *sitter.Node) error
	walk = func(n *sitter.Node) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if containers[n.Type()] && (syn.accept == nil || syn.accept(n)) {
			g := Group{}
			if syn.name != nil {
				g.Name = syn.name(f.Source, n)
			}
			for _, c := range flatten(n) {
				g.Elements = append(g.Elements, &Element{
					Node:    c,
					Span:    span(f.Source, c),
					Anchors: syn.anchors(f.Source, c),
				})
			}
			if len(g.Elements) > 0 {
				groups = append(groups, g)
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if err := walk(n.NamedChild(i)); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(f.Root); err != nil {
		return nil, fmt.Errorf("rules: %s: %w", r.desc.ID, err)
	}
	return groups, nil
}

// flatten returns the element nodes of a container in source order,
// skipping comments and splicing in the children of wrapper nodes.
func flatten(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch {
		case isTrivia(c):
		case wrappers[c.Type()]:
			out = append(out, flatten(c)...)
		default:
			out = append(out, c)
		}
	}
	return out
}

// Builtins returns the built-in rules with their default descriptors.
func Builtins() []Rule {
	return []Rule{
		&builtin{
			desc: Descriptor{
				ID:       AlignVariableAssignments,
				Name:     "align-variable-assignments",
				Title:    "Variable assignments should be aligned",
				Message:  "variable assignments should be aligned",
				Category: categoryReadability,
				Severity: SevInfo,
				HelpURI:  fmt.Sprintf(HelpURITemplate, AlignVariableAssignments),
				Slots:    2,
			},
			syntax: declarationSyntax,
		},
		&builtin{
			desc: Descriptor{
				ID:       AlignEnumValues,
				Name:     "align-enum-values",
				Title:    "Enum values should be aligned",
				Message:  "values of enum '{name}' should be aligned",
				Category: categoryReadability,
				Severity: SevInfo,
				HelpURI:  fmt.Sprintf(HelpURITemplate, AlignEnumValues),
				Slots:    1,
			},
			syntax: enumSyntax,
		},
	}
}
