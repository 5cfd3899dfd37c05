package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garagon/tatu"
	"github.com/garagon/tatu/internal/config"
	"github.com/garagon/tatu/internal/output"
	"github.com/garagon/tatu/internal/types"
)

// ErrThresholdExceeded is returned when a finding is at or above --fail-on.
// main maps it to exit code 1.
var ErrThresholdExceeded = errors.New("findings at or above the fail-on severity")

var (
	flagFailOn  string
	flagCI      bool
	flagVerbose bool
	flagChanged bool
	flagAll     bool
)

// reportFunc is one of the library's report operations.
type reportFunc func(ctx context.Context, root string, opts ...tatu.Option) (*tatu.Report, error)

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Run every scanner and print the graded report",
	Long: `Runs the secret, code, config, env and permission scanners over a directory
and prints a graded report. The top 20 findings are listed; use --all for the
full list. The score always covers every finding.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd, args, tatu.FullReport)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagFailOn, "fail-on", "", "Exit with code 1 if findings at or above this severity (critical, high, medium, low)")
	rootCmd.PersistentFlags().BoolVar(&flagCI, "ci", false, "CI mode: equivalent to --fail-on high --no-color")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Show matches and rule descriptions for every finding")
	rootCmd.PersistentFlags().BoolVar(&flagChanged, "changed", false, "Only scan git-changed files (staged, unstaged, untracked)")
	scanCmd.Flags().BoolVar(&flagAll, "all", false, "List every finding instead of the top 20")
	rootCmd.AddCommand(scanCmd)

	for _, c := range []struct {
		use, short string
		fn         reportFunc
	}{
		{"secrets [path]", "Report hardcoded credentials", tatu.ScanSecrets},
		{"code [path]", "Report injection-prone and unsafe code", tatu.ScanCode},
		{"config [path]", "Report risky configuration and exposed .env files", tatu.AuditConfig},
		{"permissions [path]", "Report sensitive files readable or writable by everyone", tatu.CheckPermissions},
	} {
		fn := c.fn
		rootCmd.AddCommand(&cobra.Command{
			Use:   c.use,
			Short: c.short,
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runReport(cmd, args, fn)
			},
		})
	}
}

func runReport(cmd *cobra.Command, args []string, fn reportFunc) error {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	cfg := loadScanConfig(cmd, root)
	applyCIDefaults()

	opts, err := scanOptions(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := contextWithInterrupt()
	defer cancel()

	report, err := fn(ctx, root, opts...)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if err := writeOutput(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	return checkFailOnThreshold(report)
}

func loadScanConfig(cmd *cobra.Command, root string) config.Config {
	cfg, err := config.Load(root)
	if err != nil {
		logger.Warn("ignoring config file", zap.Error(err))
		return config.Config{}
	}
	flags := cmd.Flags()
	if !flags.Changed("severity") && cfg.Severity != "" {
		flagSeverity = cfg.Severity
	}
	if !flags.Changed("format") && cfg.Format != "" {
		flagFormat = cfg.Format
	}
	if !flags.Changed("fail-on") && cfg.FailOn != "" {
		flagFailOn = cfg.FailOn
	}
	if !flags.Changed("rules") && cfg.Rules != "" {
		flagRules = cfg.Rules
	}
	if !flags.Changed("workers") && cfg.Workers > 0 {
		flagWorkers = cfg.Workers
	}
	if !flags.Changed("max-files") && cfg.MaxFiles > 0 {
		flagMaxFiles = cfg.MaxFiles
	}
	return cfg
}

func applyCIDefaults() {
	if flagCI {
		if flagFailOn == "" {
			flagFailOn = "high"
		}
		flagNoColor = true
	}
	if os.Getenv("NO_COLOR") != "" {
		flagNoColor = true
	}
}

func scanOptions(cfg config.Config) ([]tatu.Option, error) {
	opts := []tatu.Option{
		tatu.WithLogger(logger),
		tatu.WithWorkers(flagWorkers),
		tatu.WithMaxFiles(flagMaxFiles),
		tatu.WithMaxFileSize(cfg.MaxFileSize),
		tatu.WithIgnorePatterns(cfg.Ignore),
		tatu.WithChangedOnly(flagChanged),
		tatu.WithAllFindings(flagAll),
	}
	if flagSeverity != "" {
		sev, err := types.ParseSeverity(flagSeverity)
		if err != nil {
			return nil, fmt.Errorf("invalid --severity: %w", err)
		}
		opts = append(opts, tatu.WithMinSeverity(sev))
	}
	if flagRules != "" {
		opts = append(opts, tatu.WithCustomRules(flagRules))
	}
	if disabled := disabledRules(cfg); len(disabled) > 0 {
		opts = append(opts, tatu.WithDisabledRules(disabled...))
	}
	if len(cfg.RuleOverrides) > 0 {
		overrides := make(map[string]tatu.RuleOverride, len(cfg.RuleOverrides))
		for id, o := range cfg.RuleOverrides {
			overrides[id] = tatu.RuleOverride{Severity: o.Severity, Disabled: o.Disabled}
		}
		opts = append(opts, tatu.WithRuleOverrides(overrides))
	}
	return opts, nil
}

func disabledRules(cfg config.Config) []string {
	var ids []string
	for _, id := range append(append([]string{}, cfg.DisableRules...), flagDisableRules...) {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func contextWithInterrupt() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func writeOutput(stdout io.Writer, report *tatu.Report) error {
	output.ToolVersion = Version

	formatter, err := output.New(flagFormat, flagNoColor, flagVerbose)
	if err != nil {
		return err
	}

	w := stdout
	if flagOutput != "" {
		f, err := os.Create(flagOutput)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	return formatter.Format(w, report)
}

// checkFailOnThreshold uses the report counts, which cover findings cut from
// the listing as well.
func checkFailOnThreshold(report *tatu.Report) error {
	if flagFailOn == "" {
		return nil
	}
	threshold, err := types.ParseSeverity(flagFailOn)
	if err != nil {
		return fmt.Errorf("invalid --fail-on: %w", err)
	}
	for _, sev := range types.Severities {
		if sev >= threshold && report.Counts.Of(sev) > 0 {
			return ErrThresholdExceeded
		}
	}
	return nil
}
