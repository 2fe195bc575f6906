package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jward/plumbline"
)

var flagReportRules []string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print cached results without re-checking",
	Long:  "Reads the diagnostics and counts stored by earlier check and fix runs from the cache database.",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the active rules",
	Args:  cobra.NoArgs,
	RunE:  runRules,
}

func init() {
	reportCmd.Flags().StringSliceVar(&flagReportRules, "rule", nil, "only report these rule IDs (repeatable)")
}

func runReport(cmd *cobra.Command, args []string) error {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	cwd, err := os.Getwd()
	if err != nil {
		return outputError(stdout, stderr, "report", fmt.Errorf("getting cwd: %w", err))
	}
	p, err := loadProject(cwd)
	if err != nil {
		return outputError(stdout, stderr, "report", err)
	}

	dbPath := resolveDBPath(p.root, p.cfg)
	if dbPath == "" {
		return outputError(stdout, stderr, "report", plumbline.ErrNoCache)
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return outputError(stdout, stderr, "report",
			fmt.Errorf("cache not found: %s (run 'plumbline check' first)", dbPath))
	}

	engine, err := p.openEngine(true)
	if err != nil {
		return outputError(stdout, stderr, "report", err)
	}
	defer engine.Close()

	q := engine.Query()
	var diags []plumbline.Diagnostic
	if len(flagReportRules) > 0 {
		diags, err = q.DiagnosticsByRule(flagReportRules...)
	} else {
		diags, err = q.Diagnostics("")
	}
	if err != nil {
		return outputError(stdout, stderr, "report", err)
	}
	summary, err := q.Summary()
	if err != nil {
		return outputError(stdout, stderr, "report", err)
	}

	report := CLIReport{
		Files:       summary.Files,
		Total:       summary.Diagnostics,
		ByRule:      make([]CLIRuleCount, 0, len(summary.ByRule)),
		Diagnostics: toCLIDiagnostics(diags),
	}
	for _, c := range summary.ByRule {
		report.ByRule = append(report.ByRule, CLIRuleCount{Rule: c.RuleID, Severity: c.Severity, Count: c.Count})
	}
	return outputResult(stdout, CLIResult{Command: "report", Results: report})
}

func runRules(cmd *cobra.Command, args []string) error {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	cwd, err := os.Getwd()
	if err != nil {
		return outputError(stdout, stderr, "rules", fmt.Errorf("getting cwd: %w", err))
	}
	p, err := loadProject(cwd)
	if err != nil {
		return outputError(stdout, stderr, "rules", err)
	}
	engine, err := p.openEngine(false)
	if err != nil {
		return outputError(stdout, stderr, "rules", err)
	}
	defer engine.Close()

	descs := engine.Rules()
	out := make([]CLIRule, 0, len(descs))
	for _, d := range descs {
		out = append(out, toCLIRule(d))
	}
	return outputResult(stdout, CLIResult{Command: "rules", Results: out})
}
