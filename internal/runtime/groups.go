package runtime

import (
	"context"
	"fmt"

	"github.com/risor-io/risor/object"
	sitter "github.com/smacker/go-tree-sitter"
)

// Group is one ordered element sequence reported by a rule script.
// Anchors[i] holds the anchor slots of Nodes[i]; a nil entry is an absent
// anchor.
type Group struct {
	Name    string
	Nodes   []*sitter.Node
	Anchors [][]*sitter.Node
}

type groupCollector struct {
	groups []Group
}

// makeAlignGroupFn creates "align_group", through which a rule script
// reports the elements of one container in source order.
//
// align_group([{"node": n, "anchors": [a0, a1, ...]}, ...], name?) → nil
func makeAlignGroupFn(c *groupCollector) *object.Builtin {
	return object.NewBuiltin("align_group", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) < 1 || len(args) > 2 {
			return object.Errorf("align_group: expected 1 or 2 arguments, got %d", len(args))
		}
		items, ok := args[0].(*object.List)
		if !ok {
			return object.Errorf("align_group: expected list, got %s", args[0].Type())
		}

		var g Group
		if len(args) == 2 {
			name, ok := args[1].(*object.String)
			if !ok {
				return object.Errorf("align_group: expected string name, got %s", args[1].Type())
			}
			g.Name = name.Value()
		}
		for i, item := range items.Value() {
			m, err := extractMap(item)
			if err != nil {
				return object.Errorf("align_group: item %d: %v", i, err)
			}
			node, errObj := nodeArg("align_group", m["node"])
			if errObj != nil {
				return errObj
			}
			var anchors []*sitter.Node
			if raw, ok := m["anchors"].(*object.List); ok {
				for _, a := range raw.Value() {
					if isNil(a) {
						anchors = append(anchors, nil)
						continue
					}
					an, errObj := nodeArg("align_group", a)
					if errObj != nil {
						return errObj
					}
					anchors = append(anchors, an)
				}
			}
			g.Nodes = append(g.Nodes, node)
			g.Anchors = append(g.Anchors, anchors)
		}
		if len(g.Nodes) > 0 {
			c.groups = append(c.groups, g)
		}
		return object.Nil
	})
}

func extractMap(obj object.Object) (map[string]object.Object, error) {
	m, ok := obj.(*object.Map)
	if !ok {
		return nil, fmt.Errorf("expected map, got %s", obj.Type())
	}
	return m.Value(), nil
}

func isNil(obj object.Object) bool {
	if obj == nil {
		return true
	}
	_, ok := obj.(*object.NilType)
	return ok
}
