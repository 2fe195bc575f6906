package main

import "github.com/jward/plumbline"

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command string `json:"command"`
	Results any    `json:"results"`
	Error   string `json:"error,omitempty"`
}

// CLILocation is a source range. Lines and columns are 1-based.
type CLILocation struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	EndLine int    `json:"end_line"`
	EndCol  int    `json:"end_col"`
}

// CLIDiagnostic is a JSON-friendly diagnostic. The location is the first
// misaligned anchor; Related holds the anchors of the other elements of the
// run.
type CLIDiagnostic struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Slot     int    `json:"slot"`
	CLILocation
	Related []CLILocation `json:"related,omitempty"`
}

// CLICheck is the result of the check command.
type CLICheck struct {
	Diagnostics []CLIDiagnostic `json:"diagnostics"`
	Checked     int             `json:"checked"`
	Cached      int             `json:"cached"`
	Skipped     int             `json:"skipped"`
}

// CLIFix is the planned or applied fix of one file.
type CLIFix struct {
	File      string          `json:"file"`
	Edits     int             `json:"edits"`
	Written   bool            `json:"written"`
	Diff      string          `json:"diff,omitempty"`
	Remaining []CLIDiagnostic `json:"remaining,omitempty"`
}

// CLIFixResult is the result of the fix command.
type CLIFixResult struct {
	Files   []CLIFix `json:"files"`
	Checked int      `json:"checked"`
}

// CLIRule is a JSON-friendly rule descriptor.
type CLIRule struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Title    string `json:"title"`
	Category string `json:"category,omitempty"`
	Severity string `json:"severity"`
	Slots    int    `json:"slots"`
	HelpURI  string `json:"help_uri,omitempty"`
}

// CLIRuleCount counts cached diagnostics of one rule and severity.
type CLIRuleCount struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Count    int    `json:"count"`
}

// CLIReport is the result of the report command.
type CLIReport struct {
	Files       int             `json:"files"`
	Total       int             `json:"total"`
	ByRule      []CLIRuleCount  `json:"by_rule"`
	Diagnostics []CLIDiagnostic `json:"diagnostics"`
}

func toCLILocation(l plumbline.Location) CLILocation {
	return CLILocation{
		File:    displayPath(l.Path),
		Line:    l.Start.Line + 1,
		Col:     l.Start.Column + 1,
		EndLine: l.End.Line + 1,
		EndCol:  l.End.Column + 1,
	}
}

func toCLIDiagnostic(d plumbline.Diagnostic) CLIDiagnostic {
	out := CLIDiagnostic{
		Rule:        d.RuleID,
		Severity:    d.Severity.String(),
		Message:     d.Message,
		Slot:        d.Slot,
		CLILocation: toCLILocation(d.Primary),
	}
	for _, l := range d.Additional {
		out.Related = append(out.Related, toCLILocation(l))
	}
	return out
}

func toCLIDiagnostics(diags []plumbline.Diagnostic) []CLIDiagnostic {
	out := make([]CLIDiagnostic, 0, len(diags))
	for _, d := range diags {
		out = append(out, toCLIDiagnostic(d))
	}
	return out
}

func toCLIFix(f plumbline.FileFix) CLIFix {
	out := CLIFix{
		File:    displayPath(f.Path),
		Edits:   len(f.Edits),
		Written: f.Written,
		Diff:    f.Diff,
	}
	if len(f.Remaining) > 0 {
		out.Remaining = toCLIDiagnostics(f.Remaining)
	}
	return out
}

func toCLIRule(d plumbline.Descriptor) CLIRule {
	return CLIRule{
		ID:       d.ID,
		Name:     d.Name,
		Title:    d.Title,
		Category: d.Category,
		Severity: d.Severity.String(),
		Slots:    d.Slots,
		HelpURI:  d.HelpURI,
	}
}
