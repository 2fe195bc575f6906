package rules

import (
	"context"
	"fmt"
	"slices"

	"github.com/jward/plumbline/internal/runtime"
)

// ScriptRule is a rule whose groups come from a Risor script calling
// align_group.
type ScriptRule struct {
	desc      Descriptor
	path      string
	languages []string
	rt        *runtime.Runtime
}

// NewScriptRule returns a rule running the script at path. An empty
// languages list accepts every supported language.
func NewScriptRule(desc Descriptor, path string, languages []string, rt *runtime.Runtime) *ScriptRule {
	if desc.Slots < 1 {
		desc.Slots = 1
	}
	if desc.Category == "" {
		desc.Category = categoryReadability
	}
	return &ScriptRule{desc: desc, path: path, languages: languages, rt: rt}
}

func (r *ScriptRule) Descriptor() Descriptor { return r.desc }

// Path returns the script path.
func (r *ScriptRule) Path() string { return r.path }

func (r *ScriptRule) Supports(language string) bool {
	if _, ok := runtime.ParserForLanguage(language); !ok {
		return false
	}
	return len(r.languages) == 0 || slices.Contains(r.languages, language)
}

func (r *ScriptRule) Groups(ctx context.Context, f *File) ([]Group, error) {
	raw, err := r.rt.RunRule(ctx, r.path, runtime.Input{
		Path:     f.Source.Path,
		Language: f.Language,
		Source:   f.Source.Content,
		Root:     f.Root,
	})
	if err != nil {
		return nil, fmt.Errorf("rules: %s: %w", r.desc.ID, err)
	}

	groups := make([]Group, 0, len(raw))
	for _, rg := range raw {
		g := Group{Name: rg.Name}
		for i, n := range rg.Nodes {
			e := &Element{Node: n, Span: span(f.Source, n)}
			for _, a := range rg.Anchors[i] {
				e.Anchors = append(e.Anchors, anchor(f.Source, a, nil))
			}
			g.Elements = append(g.Elements, e)
		}
		groups = append(groups, g)
	}
	return groups, nil
}

var _ Rule = (*ScriptRule)(nil)
var _ Rule = (*builtin)(nil)
