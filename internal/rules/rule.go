// Package rules turns parsed source files into alignment groups and
// reports or fixes their misaligned runs.
//
// Two rules are built in: AL1000 aligns the names and initializers of
// consecutive single-variable declarations, AL1002 aligns the values of
// consecutive enum members. Further rules can be written as Risor scripts
// (see ScriptRule).
package rules

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/plumbline/internal/align"
	"github.com/jward/plumbline/internal/source"
)

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "info"
	case SevWarning:
		return "warning"
	case SevError:
		return "error"
	}
	return "unknown"
}

// ParseSeverity parses "info", "warning" or "error".
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(s) {
	case "info":
		return SevInfo, nil
	case "warning", "warn":
		return SevWarning, nil
	case "error":
		return SevError, nil
	}
	return SevInfo, fmt.Errorf("rules: unknown severity %q", s)
}

// HelpURITemplate is formatted with a rule ID to build its help link.
const HelpURITemplate = "https://github.com/jward/plumbline/blob/main/docs/rules/%s.md"

// Descriptor describes a rule.
type Descriptor struct {
	ID    string
	Name  string
	Title string
	// Message may contain {name}, replaced by the container name.
	Message  string
	Category string
	Severity Severity
	HelpURI  string
	// Slots is the number of anchors per element.
	Slots int
}

// Format renders the diagnostic message for a container.
func (d Descriptor) Format(container string) string {
	return strings.ReplaceAll(d.Message, "{name}", container)
}

// File is a parsed source file handed to rules.
type File struct {
	Source   *source.File
	Language string
	Root     *sitter.Node
}

// Element is one line-sized item of a group, such as an enum member or a
// statement. Anchors has one entry per rule slot.
type Element struct {
	Node    *sitter.Node
	Span    align.Span
	Anchors []align.Anchor
}

// Group is the ordered element sequence of one container.
type Group struct {
	// Name identifies the container in messages, such as an enum name.
	Name     string
	Elements []*Element
}

// Rule extracts alignment groups from files of the languages it supports.
type Rule interface {
	Descriptor() Descriptor
	Supports(language string) bool
	Groups(ctx context.Context, f *File) ([]Group, error)
}

// aligner returns the Aligner for elements of a rule with the given slots.
func aligner(slots int) *align.Aligner[*Element] {
	return align.New(slots,
		func(e *Element) align.Span { return e.Span },
		func(e *Element) []align.Anchor { return e.Anchors },
	)
}

// Configured wraps a rule with a different descriptor, as produced by
// user configuration.
type Configured struct {
	Rule
	Desc Descriptor
}

// Descriptor returns the overridden descriptor.
func (c Configured) Descriptor() Descriptor { return c.Desc }
