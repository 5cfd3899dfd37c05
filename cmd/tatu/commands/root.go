package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garagon/tatu/internal/logging"
)

var (
	flagSeverity     string
	flagFormat       string
	flagOutput       string
	flagWorkers      int
	flagRules        string
	flagNoColor      bool
	flagDisableRules []string
	flagDebug        bool
	flagMaxFiles     int
)

// logger is built from --debug before any command runs.
var logger = zap.NewNop()

var rootCmd = &cobra.Command{
	Use:   "tatu",
	Short: "Local security scanner for source trees",
	Long: `Tatu scans a directory for hardcoded secrets, injection-prone code, risky
configuration and exposed credential files, and grades the result from A to F.
Nothing leaves the machine: every check is a local pattern or file-mode test.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(flagDebug)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagSeverity, "severity", "low", "Minimum severity to report (critical, high, medium, low)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "terminal", "Output format (terminal, json, sarif)")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "", "Output file path (default: stdout)")
	rootCmd.PersistentFlags().IntVar(&flagWorkers, "workers", 0, "Number of worker goroutines (default: NumCPU)")
	rootCmd.PersistentFlags().StringVar(&flagRules, "rules", "", "Additional rules directory")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringSliceVar(&flagDisableRules, "disable-rule", nil, "Rule IDs to disable (comma-separated, repeatable)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Log debug output to stderr")
	rootCmd.PersistentFlags().IntVar(&flagMaxFiles, "max-files", 0, "Maximum number of files to scan (default: 5000)")
}

// Execute runs the root command.
func Execute() error {
	defer func() { _ = logger.Sync() }()
	return rootCmd.Execute()
}
