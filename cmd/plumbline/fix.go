package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jward/plumbline"
)

var (
	flagWrite bool
	flagRules []string
	flagLine  int
)

var fixCmd = &cobra.Command{
	Use:   "fix [paths...]",
	Short: "Align misaligned code",
	Long:  "Plans fixes for the given files and directories and prints them as unified diffs. With --write the files are rewritten in place. --line fixes only the finding at one 1-based line of a single file.",
	RunE:  runFix,
}

func init() {
	fixCmd.Flags().BoolVarP(&flagWrite, "write", "w", false, "rewrite files instead of printing diffs")
	fixCmd.Flags().StringSliceVar(&flagRules, "rule", nil, "only apply these rules (IDs or names, repeatable)")
	fixCmd.Flags().IntVar(&flagLine, "line", 0, "fix only the finding covering this 1-based line (requires a single file)")
	addEngineFlags(fixCmd)
}

func runFix(cmd *cobra.Command, args []string) error {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	targets, start, err := resolveTargets(args)
	if err != nil {
		return outputError(stdout, stderr, "fix", err)
	}
	p, err := loadProject(start)
	if err != nil {
		return outputError(stdout, stderr, "fix", err)
	}
	engine, err := p.openEngine(!flagNoCache, engineOptions()...)
	if err != nil {
		return outputError(stdout, stderr, "fix", err)
	}
	defer engine.Close()
	ctx := context.Background()

	if flagLine > 0 {
		fix, err := fixLine(ctx, engine, targets, flagLine)
		if err != nil {
			return outputError(stdout, stderr, "fix", err)
		}
		result := CLIFixResult{Checked: 1}
		if fix != nil {
			result.Files = append(result.Files, toCLIFix(*fix))
		}
		return outputResult(stdout, CLIResult{Command: "fix", Results: result})
	}

	files, err := expandTargets(engine, targets)
	if err != nil {
		return outputError(stdout, stderr, "fix", err)
	}
	fixed, fixErr := engine.FixFiles(ctx, files, plumbline.FixOptions{Write: flagWrite, Rules: flagRules})
	if fixed == nil {
		return outputError(stdout, stderr, "fix", fixErr)
	}

	result := CLIFixResult{Checked: fixed.Checked, Files: make([]CLIFix, 0, len(fixed.Files))}
	for _, f := range fixed.Files {
		result.Files = append(result.Files, toCLIFix(f))
	}
	envelope := CLIResult{Command: "fix", Results: result}
	if fixErr != nil {
		envelope.Error = fixErr.Error()
	}
	if err := outputResult(stdout, envelope); err != nil {
		return err
	}
	if fixErr != nil {
		errorHandled = flagFormat != "text"
		return fixErr
	}
	return nil
}

// fixLine fixes the finding covering the 1-based line of a single file. A
// nil FileFix means there was nothing to fix at that line.
func fixLine(ctx context.Context, engine *plumbline.Engine, targets []string, line int) (*plumbline.FileFix, error) {
	if len(targets) != 1 {
		return nil, errors.New("--line requires exactly one file")
	}
	path := targets[0]
	if info, err := os.Stat(path); err != nil {
		return nil, err
	} else if info.IsDir() {
		return nil, fmt.Errorf("--line requires a file, got directory %s", path)
	}

	ids, err := selectRuleIDs(engine.Rules(), flagRules)
	if err != nil {
		return nil, err
	}
	report, err := engine.LintFiles(ctx, []string{path})
	if err != nil {
		return nil, err
	}
	d, ok := findingAtLine(report.Diagnostics, line-1, ids)
	if !ok {
		return nil, nil
	}

	fix, err := engine.FixDiagnostic(ctx, d, flagWrite)
	if errors.Is(err, plumbline.ErrNoChanges) {
		return nil, nil
	}
	return fix, err
}

// findingAtLine returns the first diagnostic whose run covers the 0-based
// line. A non-empty ruleIDs restricts the search to those rule IDs.
func findingAtLine(diags []plumbline.Diagnostic, line int, ruleIDs []string) (plumbline.Diagnostic, bool) {
	for _, d := range diags {
		if len(ruleIDs) > 0 && !slices.Contains(ruleIDs, d.RuleID) {
			continue
		}
		first, last := diagnosticLines(d)
		if line >= first && line <= last {
			return d, true
		}
	}
	return plumbline.Diagnostic{}, false
}

// selectRuleIDs maps rule IDs or names to the IDs of the active rules.
func selectRuleIDs(descs []plumbline.Descriptor, wanted []string) ([]string, error) {
	if len(wanted) == 0 {
		return nil, nil
	}
	var ids []string
	for _, d := range descs {
		if slices.Contains(wanted, d.ID) || slices.Contains(wanted, d.Name) {
			ids = append(ids, d.ID)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no enabled rule matches %s", strings.Join(wanted, ", "))
	}
	return ids, nil
}
