package commands

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/garagon/tatu"
	"github.com/garagon/tatu/internal/types"
)

var flagCategory string

var listRulesCmd = &cobra.Command{
	Use:   "list-rules",
	Short: "List all detection rules and config checks",
	Args:  cobra.NoArgs,
	RunE:  runListRules,
}

func init() {
	listRulesCmd.Flags().StringVar(&flagCategory, "category", "", "Filter by category (secret, vulnerability, config)")
	rootCmd.AddCommand(listRulesCmd)
}

func runListRules(cmd *cobra.Command, args []string) error {
	opts := []tatu.Option{tatu.WithLogger(logger)}
	if flagRules != "" {
		opts = append(opts, tatu.WithCustomRules(flagRules))
	}
	if len(flagDisableRules) > 0 {
		opts = append(opts, tatu.WithDisabledRules(flagDisableRules...))
	}
	if flagCategory != "" {
		cat, err := types.ParseCategory(flagCategory)
		if err != nil {
			return fmt.Errorf("invalid --category: %w", err)
		}
		opts = append(opts, tatu.WithCategory(cat))
	}

	infos, err := tatu.ListRules(opts...)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()

	if strings.ToLower(flagFormat) == "json" {
		if infos == nil {
			infos = []tatu.RuleInfo{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tNAME\tSEVERITY\tCATEGORY\tCWE\n")
	fmt.Fprintf(tw, "--\t----\t--------\t--------\t---\n")
	for _, r := range infos {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Name, r.Severity, r.Category, r.CWE)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "\n%d rules loaded\n", len(infos))

	return nil
}
