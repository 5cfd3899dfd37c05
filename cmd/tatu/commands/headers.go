package commands

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/garagon/tatu"
)

var headersCmd = &cobra.Command{
	Use:   "headers",
	Short: "List the recommended HTTP security headers",
	Long: `Prints the HTTP response headers a web service should send, with the
severity of leaving each one out and a recommended value. No requests are made.`,
	Args: cobra.NoArgs,
	RunE: runHeaders,
}

func init() {
	rootCmd.AddCommand(headersCmd)
}

func runHeaders(cmd *cobra.Command, args []string) error {
	headers := tatu.SecurityHeaders()
	w := cmd.OutOrStdout()

	if strings.ToLower(flagFormat) == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(headers)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "HEADER\tSEVERITY\tRECOMMENDED\n")
	fmt.Fprintf(tw, "------\t--------\t-----------\n")
	for _, h := range headers {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", h.Name, h.Severity, h.Recommended)
	}
	return tw.Flush()
}
