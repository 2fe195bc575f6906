package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/fatih/color"
)

// excerptStyle is the chroma style used for --context excerpts.
const excerptStyle = "monokai"

// resetSeq ends every highlighted line so colors never leak into the next.
const resetSeq = "\x1b[0m"

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan, color.Bold)
	ruleColor    = color.New(color.Faint)
	addColor     = color.New(color.FgGreen)
	delColor     = color.New(color.FgRed)
	hunkColor    = color.New(color.FgCyan)
	headerColor  = color.New(color.Bold)
)

func severityColor(sev string) *color.Color {
	switch sev {
	case "error":
		return errorColor
	case "warning":
		return warningColor
	}
	return infoColor
}

// formatDiagnosticText writes "file:line:col: severity message [RULE]".
func formatDiagnosticText(w io.Writer, d CLIDiagnostic) {
	fmt.Fprintf(w, "%s:%d:%d: %s %s %s\n",
		d.File, d.Line, d.Col,
		severityColor(d.Severity).Sprint(d.Severity),
		d.Message,
		ruleColor.Sprintf("[%s]", d.Rule))
}

// formatCheckText writes one line per diagnostic followed by a count.
// When excerpt is non-nil it is called after the i-th diagnostic.
func formatCheckText(w io.Writer, check CLICheck, excerpt func(w io.Writer, i int)) {
	files := map[string]bool{}
	for i, d := range check.Diagnostics {
		formatDiagnosticText(w, d)
		if excerpt != nil {
			excerpt(w, i)
		}
		files[d.File] = true
	}
	if len(check.Diagnostics) == 0 {
		fmt.Fprintf(w, "%d file(s) checked, no problems\n", check.Checked+check.Cached)
		return
	}
	fmt.Fprintf(w, "\n%d problem(s) in %d file(s)\n", len(check.Diagnostics), len(files))
}

// formatDiffText writes a unified diff, coloring added and removed lines.
func formatDiffText(w io.Writer, diff string) {
	for _, line := range strings.SplitAfter(diff, "\n") {
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			headerColor.Fprint(w, line)
		case strings.HasPrefix(line, "@@"):
			hunkColor.Fprint(w, line)
		case strings.HasPrefix(line, "+"):
			addColor.Fprint(w, line)
		case strings.HasPrefix(line, "-"):
			delColor.Fprint(w, line)
		default:
			fmt.Fprint(w, line)
		}
	}
}

// formatFixText writes the diff of every planned fix, or one line per file
// when the fixes were written.
func formatFixText(w io.Writer, result CLIFixResult) {
	for _, f := range result.Files {
		if f.Written {
			fmt.Fprintf(w, "fixed %s (%d edit(s))\n", f.File, f.Edits)
		} else {
			formatDiffText(w, f.Diff)
		}
		for _, d := range f.Remaining {
			formatDiagnosticText(w, d)
		}
	}
	if len(result.Files) == 0 {
		fmt.Fprintf(w, "%d file(s) checked, nothing to fix\n", result.Checked)
	}
}

// formatRulesText formats CLIRule results as aligned columns.
func formatRulesText(w io.Writer, rules []CLIRule) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSEVERITY\tSLOTS\tTITLE")
	for _, r := range rules {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", r.ID, r.Name, r.Severity, r.Slots, r.Title)
	}
	tw.Flush()
}

// formatReportText formats CLIReport as readable text.
func formatReportText(w io.Writer, report CLIReport) {
	for _, d := range report.Diagnostics {
		formatDiagnosticText(w, d)
	}
	if len(report.Diagnostics) > 0 {
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Summary")
	fmt.Fprintln(w, "=======")
	fmt.Fprintf(w, "Files: %d\n", report.Files)
	fmt.Fprintf(w, "Diagnostics: %d\n", report.Total)
	if len(report.ByRule) == 0 {
		return
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RULE\tSEVERITY\tCOUNT")
	for _, c := range report.ByRule {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", c.Rule, c.Severity, c.Count)
	}
	tw.Flush()
}

// writeExcerpt writes lines [first, last] (0-based) of content with line
// numbers. With highlight the excerpt is colored by the chroma lexer
// matching path.
func writeExcerpt(w io.Writer, path string, content []byte, first, last int, highlight bool) {
	lines := strings.Split(string(content), "\n")
	if first < 0 || first >= len(lines) {
		return
	}
	last = min(last, len(lines)-1)
	excerpt := lines[first : last+1]

	if highlight {
		if out, err := highlightText(path, strings.Join(excerpt, "\n")); err == nil {
			// A trailing newline token may add one line holding only escapes.
			if hl := strings.Split(out, "\n"); len(hl) >= len(excerpt) {
				for i := range excerpt {
					excerpt[i] = hl[i] + resetSeq
				}
			}
		}
	}
	for i, line := range excerpt {
		fmt.Fprintf(w, "  %5d | %s\n", first+i+1, line)
	}
}

// highlightText colors text for a 256-color terminal.
func highlightText(path, text string) (string, error) {
	lexer := lexers.Match(path)
	if lexer == nil {
		lexer = lexers.Analyse(text)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(excerptStyle)
	formatter := formatters.Get("terminal256")

	it, err := lexer.Tokenise(nil, text)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, it); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// outputResult writes result in the selected format.
func outputResult(w io.Writer, result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(w, result)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case CLICheck:
		formatCheckText(w, v, nil)
	case CLIFixResult:
		formatFixText(w, v)
	case []CLIRule:
		formatRulesText(w, v)
	case CLIReport:
		formatReportText(w, v)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(stdout, stderr io.Writer, command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return err
	}
	result := CLIResult{
		Command: command,
		Error:   err.Error(),
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	return err
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
