package main

import (
	"context"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jward/plumbline"
)

var (
	flagExitZero  bool
	flagContext   bool
	flagLanguages string
	flagNoCache   bool
)

var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Report misaligned code",
	Long:  "Checks the given files and directories (default: the current directory). Exits with status 1 when any diagnostic is reported. Lines and columns are 1-based.",
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&flagExitZero, "exit-zero", false, "exit with status 0 even when diagnostics are reported")
	checkCmd.Flags().BoolVar(&flagContext, "context", false, "print the source lines of each finding (text format)")
	addEngineFlags(checkCmd)
}

// addEngineFlags registers the flags shared by commands that run the rules.
func addEngineFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagLanguages, "languages", "", "comma-separated language filter (e.g. c,go)")
	cmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "do not read or write the cache database")
}

// engineOptions builds the Engine options from the shared flags.
func engineOptions() []plumbline.Option {
	var opts []plumbline.Option
	if langs := parseLanguages(flagLanguages); len(langs) > 0 {
		opts = append(opts, plumbline.WithLanguages(langs...))
	}
	return opts
}

func runCheck(cmd *cobra.Command, args []string) error {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	targets, start, err := resolveTargets(args)
	if err != nil {
		return outputError(stdout, stderr, "check", err)
	}
	p, err := loadProject(start)
	if err != nil {
		return outputError(stdout, stderr, "check", err)
	}
	engine, err := p.openEngine(!flagNoCache, engineOptions()...)
	if err != nil {
		return outputError(stdout, stderr, "check", err)
	}
	defer engine.Close()

	files, err := expandTargets(engine, targets)
	if err != nil {
		return outputError(stdout, stderr, "check", err)
	}
	report, lintErr := engine.LintFiles(context.Background(), files)
	if report == nil {
		return outputError(stdout, stderr, "check", lintErr)
	}

	check := CLICheck{
		Diagnostics: toCLIDiagnostics(report.Diagnostics),
		Checked:     report.Checked,
		Cached:      report.Cached,
		Skipped:     report.Skipped,
	}
	result := CLIResult{Command: "check", Results: check}
	if lintErr != nil {
		result.Error = lintErr.Error()
	}

	if flagFormat == "text" && flagContext {
		formatCheckText(stdout, check, newExcerpter(report.Diagnostics))
	} else if err := outputResult(stdout, result); err != nil {
		return err
	}

	if lintErr != nil {
		// The JSON envelope already carries the error.
		errorHandled = flagFormat != "text"
		return lintErr
	}
	if len(report.Diagnostics) > 0 && !flagExitZero {
		return errFindings
	}
	return nil
}

// newExcerpter returns a function writing the source lines spanned by the
// i-th diagnostic of diags.
func newExcerpter(diags []plumbline.Diagnostic) func(io.Writer, int) {
	contents := map[string][]byte{}
	return func(w io.Writer, i int) {
		d := diags[i]

		path := d.Primary.Path
		content, ok := contents[path]
		if !ok {
			content, _ = os.ReadFile(path)
			contents[path] = content
		}
		first, last := diagnosticLines(d)
		writeExcerpt(w, path, content, first, last, !color.NoColor)
	}
}

// diagnosticLines returns the first and last 0-based lines a diagnostic
// covers.
func diagnosticLines(d plumbline.Diagnostic) (int, int) {
	first, last := d.Primary.Start.Line, d.Primary.End.Line
	for _, l := range d.Additional {
		first = min(first, l.Start.Line)
		last = max(last, l.End.Line)
	}
	return first, last
}
