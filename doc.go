// Package plumbline finds and fixes vertical misalignment in source code.
// It parses files with tree-sitter, collects consecutive one-line elements
// such as variable declarations, enum members or struct fields, and reports
// runs whose anchors (the variable name, the "=" of an initializer) do not
// start in the same column. Fixes only insert spaces.
//
// # Pipeline
//
// For each file the Engine:
//
//  1. Detects the language and skips vendored, generated or excluded files.
//  2. Answers from the SQLite cache when the content and configuration are
//     unchanged.
//  3. Parses the file and asks every rule for its groups: the ordered
//     elements of one container, each with one anchor per rule slot.
//  4. Splits groups into runs of elements on consecutive lines with all
//     anchors present, and reports each run whose anchors disagree.
//
// # Usage
//
//	cfg, err := plumbline.DiscoverConfig(".")
//	if err != nil { ... }
//	e, err := plumbline.New(cfg.CachePath("."), plumbline.WithConfig(cfg))
//	if err != nil { ... }
//	defer e.Close()
//
//	report, err := e.LintDirectory(ctx, ".")
//	result, err := e.FixFiles(ctx, paths, plumbline.FixOptions{Write: true})
//
// # Rules
//
//   - AL1000 align-variable-assignments: names and initializers of
//     single-variable declarations.
//   - AL1001 align-struct-fields: member names of C and C++ records.
//   - AL1002 align-enum-values: the "= value" part of enum members and Go
//     const blocks.
//   - AL1003 align-object-values: values of object and dictionary literals.
//
// Further rules are Risor scripts declared in .plumbline.toml. A script
// reports containers through align_group; see the internal/runtime package
// for the globals exposed to scripts.
package plumbline
