package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/garagon/tatu"
)

var explainCmd = &cobra.Command{
	Use:   "explain <rule-id>",
	Short: "Show detailed information about a rule or config check",
	Args:  cobra.ExactArgs(1),
	RunE:  runExplain,
}

func init() {
	rootCmd.AddCommand(explainCmd)
}

func runExplain(cmd *cobra.Command, args []string) error {
	opts := []tatu.Option{tatu.WithLogger(logger)}
	if flagRules != "" {
		opts = append(opts, tatu.WithCustomRules(flagRules))
	}
	d, err := tatu.ExplainRule(args[0], opts...)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()

	if strings.ToLower(flagFormat) == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	}

	color := func(code, text string) string {
		if flagNoColor {
			return text
		}
		return code + text + "\033[0m"
	}

	bold := "\033[1m"
	dim := "\033[2m"
	yellow := "\033[33m"
	cyan := "\033[36m"
	red := "\033[31m"
	green := "\033[32m"

	sevColor := cyan
	switch d.Severity {
	case tatu.SeverityCritical:
		sevColor = red + bold
	case tatu.SeverityHigh:
		sevColor = red
	case tatu.SeverityMedium:
		sevColor = yellow
	}

	fmt.Fprintf(w, "\n%s %s\n", color(dim, "Rule:"), color(bold, d.ID))
	fmt.Fprintf(w, "%s %s\n", color(dim, "Name:"), d.Name)
	fmt.Fprintf(w, "%s %s\n", color(dim, "Severity:"), color(sevColor, strings.ToUpper(d.Severity.String())))
	fmt.Fprintf(w, "%s %s\n", color(dim, "Category:"), d.Category)
	if d.CWE != "" {
		fmt.Fprintf(w, "%s %s\n", color(dim, "CWE:"), d.CWE)
	}
	if len(d.Languages) > 0 {
		fmt.Fprintf(w, "%s %s\n", color(dim, "Languages:"), strings.Join(d.Languages, ", "))
	}

	if d.Description != "" {
		fmt.Fprintf(w, "\n%s\n%s\n", color(bold, "Description:"), d.Description)
	}

	if d.Pattern != "" {
		fmt.Fprintf(w, "\n%s\n  %s\n", color(bold, "Pattern:"), color(dim, d.Pattern))
		if d.Exclude != "" {
			fmt.Fprintf(w, "%s\n  %s\n", color(bold, "Exclude:"), color(dim, d.Exclude))
		}
	}

	if len(d.Files) > 0 {
		fmt.Fprintf(w, "\n%s\n  %s\n", color(bold, "Files:"), strings.Join(d.Files, " "))
	}

	if len(d.TruePositives) > 0 {
		fmt.Fprintf(w, "\n%s\n", color(bold, "True Positives:"))
		for _, ex := range d.TruePositives {
			fmt.Fprintf(w, "  %s %s\n", color(red, "✖"), ex)
		}
	}

	if len(d.FalsePositives) > 0 {
		fmt.Fprintf(w, "\n%s\n", color(bold, "False Positives:"))
		for _, ex := range d.FalsePositives {
			fmt.Fprintf(w, "  %s %s\n", color(green, "✔"), ex)
		}
	}

	fmt.Fprintln(w)
	return nil
}
