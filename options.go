package tatu

import "go.uber.org/zap"

// scanConfig holds the resolved configuration for a scan.
type scanConfig struct {
	customRulesDir string
	disabledRules  []string
	ruleOverrides  map[string]RuleOverride
	minSeverity    Severity
	workers        int
	ignorePatterns []string
	maxFiles       int
	maxFileSize    int64
	changedOnly    bool
	allFindings    bool
	category       Category // only for ListRules
	logger         *zap.Logger
}

// Option configures a scan operation.
type Option func(*scanConfig)

// WithCustomRules loads additional rules from a directory. Custom rules run
// after the built-in table.
func WithCustomRules(dir string) Option {
	return func(c *scanConfig) {
		c.customRulesDir = dir
	}
}

// WithDisabledRules excludes specific rule or check IDs from scanning.
func WithDisabledRules(ids ...string) Option {
	return func(c *scanConfig) {
		c.disabledRules = append(c.disabledRules, ids...)
	}
}

// WithRuleOverrides applies severity overrides or disables rules.
func WithRuleOverrides(overrides map[string]RuleOverride) Option {
	return func(c *scanConfig) {
		c.ruleOverrides = overrides
	}
}

// WithMinSeverity hides findings below sev. The score is still computed over
// every finding.
func WithMinSeverity(sev Severity) Option {
	return func(c *scanConfig) {
		c.minSeverity = sev
	}
}

// WithWorkers sets the number of concurrent workers (default: NumCPU).
func WithWorkers(n int) Option {
	return func(c *scanConfig) {
		c.workers = n
	}
}

// WithIgnorePatterns sets file patterns to ignore during directory scanning.
func WithIgnorePatterns(patterns []string) Option {
	return func(c *scanConfig) {
		c.ignorePatterns = patterns
	}
}

// WithMaxFiles caps the number of files collected (default 5000).
func WithMaxFiles(n int) Option {
	return func(c *scanConfig) {
		c.maxFiles = n
	}
}

// WithMaxFileSize skips files larger than n bytes (default 512 KiB).
func WithMaxFileSize(n int64) Option {
	return func(c *scanConfig) {
		c.maxFileSize = n
	}
}

// WithChangedOnly restricts the scan to files modified, staged or untracked
// in the git work tree at the scan root.
func WithChangedOnly(on bool) Option {
	return func(c *scanConfig) {
		c.changedOnly = on
	}
}

// WithAllFindings makes FullReport list every finding instead of the top
// FullReportLimit.
func WithAllFindings(on bool) Option {
	return func(c *scanConfig) {
		c.allFindings = on
	}
}

// WithCategory filters rules by category (only applies to ListRules).
func WithCategory(cat Category) Option {
	return func(c *scanConfig) {
		c.category = cat
	}
}

// WithLogger sets the logger for scan progress and skipped files.
func WithLogger(l *zap.Logger) Option {
	return func(c *scanConfig) {
		c.logger = l
	}
}

func applyOpts(opts []Option) *scanConfig {
	cfg := &scanConfig{}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	return cfg
}
