// Package scripts bundles the Risor rule scripts shipped with plumbline.
package scripts

import (
	"embed"
	"io/fs"
)

//go:embed rules/*.risor
var embedded embed.FS

// FS holds the bundled rule scripts, rooted so that paths look like
// "struct_fields.risor".
var FS fs.FS = mustSub(embedded, "rules")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// Rule describes a bundled rule script. Bundled rules are enabled by
// default and configured through [rules.<ID>] like the built-in ones.
type Rule struct {
	ID        string
	Name      string
	Title     string
	Path      string
	Message   string
	Languages []string
}

// Rules lists the bundled rule scripts.
var Rules = []Rule{
	{
		ID:        "AL1001",
		Name:      "align-struct-fields",
		Title:     "Align struct fields",
		Path:      "struct_fields.risor",
		Message:   "fields of '{name}' should be aligned",
		Languages: []string{"c", "cpp"},
	},
	{
		ID:        "AL1003",
		Name:      "align-object-values",
		Title:     "Align object literal values",
		Path:      "object_values.risor",
		Message:   "object literal values should be aligned",
		Languages: []string{"javascript", "typescript", "python"},
	},
}
