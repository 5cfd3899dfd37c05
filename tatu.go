// Package tatu provides a public API for local, pattern-based security
// scanning of source trees: hardcoded secrets, injection-prone code, risky
// configuration and exposed credential files, graded into a 0-100 score.
//
// This is the library entry point. For the CLI tool, see cmd/tatu/.
package tatu

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garagon/tatu/internal/audit"
	"github.com/garagon/tatu/internal/engine/pattern"
	"github.com/garagon/tatu/internal/meta"
	"github.com/garagon/tatu/internal/rules"
	"github.com/garagon/tatu/internal/scanner"
	"github.com/garagon/tatu/internal/types"
)

// Re-export core types from internal/types so consumers don't need to
// import internal packages.
type (
	Severity       = types.Severity
	Category       = types.Category
	Finding        = types.Finding
	ScanResult     = types.ScanResult
	Report         = types.Report
	Counts         = types.Counts
	SecurityHeader = audit.SecurityHeader
)

const (
	SeverityLow      = types.SeverityLow
	SeverityMedium   = types.SeverityMedium
	SeverityHigh     = types.SeverityHigh
	SeverityCritical = types.SeverityCritical

	CategorySecret        = types.CategorySecret
	CategoryVulnerability = types.CategoryVulnerability
	CategoryConfig        = types.CategoryConfig

	PermissionsChecked       = types.PermissionsChecked
	PermissionsNotApplicable = types.PermissionsNotApplicable
	PermissionsSkipped       = types.PermissionsSkipped
)

var (
	// ErrDirectoryNotFound is returned when the scan root does not exist or
	// is not a directory.
	ErrDirectoryNotFound = scanner.ErrDirectoryNotFound
	// ErrNotGitRepository is returned by changed-only scans outside a git
	// work tree.
	ErrNotGitRepository = scanner.ErrNotGitRepository
	// ErrRuleNotFound is returned by ExplainRule for an unknown ID.
	ErrRuleNotFound = errors.New("rule not found")
)

// FullReportLimit is the number of findings listed by FullReport.
const FullReportLimit = meta.FullReportLimit

// RuleOverride allows changing the severity of a rule or disabling it.
type RuleOverride struct {
	Severity string
	Disabled bool
}

// RuleInfo provides summary metadata about a detection rule or config check.
type RuleInfo struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Severity Severity `json:"severity"`
	Category Category `json:"category"`
	CWE      string   `json:"cwe,omitempty"`
}

// RuleDetail provides full information about a rule, including its pattern
// and examples. Config checks carry file globs instead of a pattern.
type RuleDetail struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Severity       Severity `json:"severity"`
	Category       Category `json:"category"`
	CWE            string   `json:"cwe,omitempty"`
	Description    string   `json:"description"`
	Languages      []string `json:"languages,omitempty"`
	Pattern        string   `json:"pattern,omitempty"`
	Exclude        string   `json:"exclude,omitempty"`
	Files          []string `json:"files,omitempty"`
	TruePositives  []string `json:"true_positives,omitempty"`
	FalsePositives []string `json:"false_positives,omitempty"`
}

// stageSet selects which scanners a scan runs. Stages always run in the
// order of the constants below.
type stageSet uint8

const (
	stageSecrets stageSet = 1 << iota
	stageCode
	stageEnv
	stagePermissions
	stageConfig

	stageAll = stageSecrets | stageCode | stageEnv | stagePermissions | stageConfig
)

// Scan runs every scanner over the directory at root and returns the raw,
// unsorted findings.
func Scan(ctx context.Context, root string, opts ...Option) (*ScanResult, error) {
	cfg := applyOpts(opts)
	result, err := run(ctx, root, cfg, stageAll)
	if err != nil {
		return nil, err
	}
	result.Findings = meta.FilterMinSeverity(result.Findings, cfg.minSeverity)
	return result, nil
}

// FullReport runs every scanner and returns the graded report with the top
// FullReportLimit findings (all of them with WithAllFindings). The score
// covers all findings.
func FullReport(ctx context.Context, root string, opts ...Option) (*Report, error) {
	cfg := applyOpts(opts)
	limit := FullReportLimit
	if cfg.allFindings {
		limit = 0
	}
	return report(ctx, root, cfg, stageAll, limit)
}

// ScanSecrets reports hardcoded credentials under root.
func ScanSecrets(ctx context.Context, root string, opts ...Option) (*Report, error) {
	return report(ctx, root, applyOpts(opts), stageSecrets, 0)
}

// ScanCode reports injection-prone and otherwise unsafe code under root.
func ScanCode(ctx context.Context, root string, opts ...Option) (*Report, error) {
	return report(ctx, root, applyOpts(opts), stageCode, 0)
}

// AuditConfig reports risky configuration: the config checks plus dotenv
// files that are not gitignored or carry real values in templates.
func AuditConfig(ctx context.Context, root string, opts ...Option) (*Report, error) {
	return report(ctx, root, applyOpts(opts), stageEnv|stageConfig, 0)
}

// CheckPermissions reports sensitive files under root that are readable or
// writable by every local user. On platforms without POSIX permission bits
// the report is empty and Permissions is "not applicable".
func CheckPermissions(ctx context.Context, root string, opts ...Option) (*Report, error) {
	return report(ctx, root, applyOpts(opts), stagePermissions, 0)
}

// ScanContent scans inline content without writing to disk. filename is a
// hint for language and file-glob matching (e.g. "app.py", "settings.py").
// Secret, code and config checks run; project-level audits do not.
func ScanContent(ctx context.Context, content string, filename string, opts ...Option) (*ScanResult, error) {
	if filename == "" {
		filename = "content.txt"
	}
	if err := scanner.CheckText([]byte(content)); err != nil {
		return nil, err
	}
	cfg := applyOpts(opts)
	s, loaded, err := buildScanner(cfg, stageSecrets|stageCode|stageConfig)
	if err != nil {
		return nil, err
	}
	targets := []*scanner.Target{{
		RelPath: filename,
		Size:    int64(len(content)),
		Content: []byte(content),
	}}
	result, err := s.ScanTargets(ctx, "", targets)
	if err != nil {
		return nil, err
	}
	result.ScanID = uuid.NewString()
	result.RulesLoaded = loaded
	result.Permissions = types.PermissionsSkipped
	result.Findings = applyFindingOverrides(result.Findings, cfg)
	result.Findings = meta.FilterMinSeverity(result.Findings, cfg.minSeverity)
	return result, nil
}

// ListRules returns all available detection rules and config checks, sorted
// by ID. Use WithCategory to filter by category.
func ListRules(opts ...Option) ([]RuleInfo, error) {
	cfg := applyOpts(opts)
	table, err := loadRules(cfg)
	if err != nil {
		return nil, err
	}

	var infos []RuleInfo
	for _, r := range table.All() {
		infos = append(infos, RuleInfo{ID: r.ID, Name: r.Name, Severity: r.Severity, Category: r.Category, CWE: r.CWE})
	}
	for _, c := range configChecks(cfg) {
		infos = append(infos, RuleInfo{ID: c.ID, Name: c.Name, Severity: c.Severity, Category: types.CategoryConfig})
	}
	if cfg.category != "" {
		infos = slices.DeleteFunc(infos, func(i RuleInfo) bool { return i.Category != cfg.category })
	}
	slices.SortFunc(infos, func(a, b RuleInfo) int { return strings.Compare(a.ID, b.ID) })
	return infos, nil
}

// ExplainRule returns detailed information about a specific rule or config
// check.
func ExplainRule(id string, opts ...Option) (*RuleDetail, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	cfg := applyOpts(opts)
	table, err := loadRules(cfg)
	if err != nil {
		return nil, err
	}

	for _, r := range table.All() {
		if r.ID != id {
			continue
		}
		d := &RuleDetail{
			ID:             r.ID,
			Name:           r.Name,
			Severity:       r.Severity,
			Category:       r.Category,
			CWE:            r.CWE,
			Description:    r.Description,
			Languages:      r.Languages,
			Pattern:        r.Pattern.String(),
			TruePositives:  r.Examples.TruePositive,
			FalsePositives: r.Examples.FalsePositive,
		}
		if r.Exclude != nil {
			d.Exclude = r.Exclude.String()
		}
		return d, nil
	}
	for _, c := range configChecks(cfg) {
		if c.ID == id {
			return &RuleDetail{
				ID:          c.ID,
				Name:        c.Name,
				Severity:    c.Severity,
				Category:    types.CategoryConfig,
				Description: c.Description,
				Files:       c.Files,
			}, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrRuleNotFound, id)
}

// SecurityHeaders returns the recommended HTTP security headers.
func SecurityHeaders() []SecurityHeader {
	return audit.SecurityHeaders()
}

// --- internal helpers ---

func report(ctx context.Context, root string, cfg *scanConfig, stages stageSet, limit int) (*Report, error) {
	result, err := run(ctx, root, cfg, stages)
	if err != nil {
		return nil, err
	}
	r := meta.BuildReport(result, 0)
	r.Findings = meta.FilterMinSeverity(r.Findings, cfg.minSeverity)
	meta.Truncate(r, limit)
	return r, nil
}

// run collects the files under root and executes the selected stages.
func run(ctx context.Context, root string, cfg *scanConfig, stages stageSet) (*ScanResult, error) {
	start := time.Now()
	scanID := uuid.NewString()
	log := cfg.logger.With(zap.String("scan_id", scanID))

	s, loaded, err := buildScanner(cfg, stages)
	if err != nil {
		return nil, err
	}
	s.SetLogger(log)

	collector := &scanner.Collector{
		MaxFiles:       cfg.maxFiles,
		MaxFileSize:    cfg.maxFileSize,
		IgnorePatterns: cfg.ignorePatterns,
	}
	if cfg.changedOnly {
		// A missing root must surface as ErrDirectoryNotFound, not as a git error.
		if err := scanner.CheckRoot(root); err != nil {
			return nil, err
		}
		changed, err := scanner.ChangedFiles(ctx, root)
		if err != nil {
			return nil, fmt.Errorf("listing changed files: %w", err)
		}
		collector.Only = changed
	}
	s.SetCollector(collector)

	log.Debug("scan started", zap.String("root", root), zap.Int("rules", loaded))
	result, err := s.Scan(ctx, root)
	if err != nil {
		log.Debug("scan failed", zap.Error(err))
		return nil, err
	}

	result.ScanID = scanID
	result.RulesLoaded = loaded
	result.Permissions = types.PermissionsSkipped
	if stages&stagePermissions != 0 {
		result.Permissions = audit.PermissionsStatus()
	}
	result.Findings = applyFindingOverrides(result.Findings, cfg)
	result.Duration = time.Since(start)

	log.Debug("scan finished",
		zap.Int("files", result.FilesScanned),
		zap.Int("findings", len(result.Findings)),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

// buildScanner wires the selected stages in fixed order: secrets, code,
// env audit, permissions, config checks. It returns the number of rules and
// checks loaded.
func buildScanner(cfg *scanConfig, stages stageSet) (*scanner.Scanner, int, error) {
	table, err := loadRules(cfg)
	if err != nil {
		return nil, 0, err
	}

	s := scanner.New(cfg.workers)
	s.SetLogger(cfg.logger)
	loaded := 0
	if stages&stageSecrets != 0 {
		s.RegisterAnalyzer(pattern.NewMatcher(types.CategorySecret, table.Secrets))
		loaded += len(table.Secrets)
	}
	if stages&stageCode != 0 {
		s.RegisterAnalyzer(pattern.NewMatcher(types.CategoryVulnerability, table.Vulnerabilities))
		loaded += len(table.Vulnerabilities)
	}
	if stages&stageEnv != 0 {
		s.RegisterProjectAnalyzer(&audit.EnvAuditor{Logger: cfg.logger})
	}
	if stages&stagePermissions != 0 {
		s.RegisterProjectAnalyzer(audit.PermissionAuditor{})
	}
	if stages&stageConfig != 0 {
		checks := configChecks(cfg)
		ca := audit.NewConfigAuditor(checks)
		ca.SetSecretRules(table.Secrets)
		s.RegisterAnalyzer(ca)
		loaded += len(checks)
	}
	return s, loaded, nil
}

// loadRules returns the shared built-in table when no customization is
// requested. Otherwise it compiles a private copy with custom rules appended
// and overrides applied.
func loadRules(cfg *scanConfig) (rules.Table, error) {
	if cfg.customRulesDir == "" && len(cfg.ruleOverrides) == 0 && len(cfg.disabledRules) == 0 {
		return rules.Builtin()
	}

	compiled, err := rules.BuiltinRules()
	if err != nil {
		return rules.Table{}, err
	}

	if cfg.customRulesDir != "" {
		raws, err := rules.LoadFromDir(cfg.customRulesDir)
		if err != nil {
			return rules.Table{}, fmt.Errorf("loading custom rules from %s: %w", cfg.customRulesDir, err)
		}
		seen := make(map[string]bool, len(compiled))
		for _, r := range compiled {
			seen[r.ID] = true
		}
		custom, errs := rules.CompileAll(raws)
		for _, e := range errs {
			cfg.logger.Warn("skipping custom rule", zap.Error(e))
		}
		for _, r := range custom {
			if seen[r.ID] {
				cfg.logger.Warn("skipping custom rule", zap.String("rule", r.ID), zap.String("reason", "duplicate ID"))
				continue
			}
			compiled = append(compiled, r)
		}
	}

	if len(cfg.ruleOverrides) > 0 {
		var errs []error
		compiled, errs = rules.ApplyOverrides(compiled, toRuleOverrides(cfg.ruleOverrides))
		for _, e := range errs {
			cfg.logger.Warn("ignoring rule override", zap.Error(e))
		}
	}

	if disabled := disabledSet(cfg); len(disabled) > 0 {
		compiled = rules.FilterByIDs(compiled, disabled)
	}
	return rules.Split(compiled), nil
}

// configChecks returns the built-in config checks with disables and
// severity overrides applied.
func configChecks(cfg *scanConfig) []audit.ConfigCheck {
	disabled := disabledSet(cfg)
	checks := make([]audit.ConfigCheck, 0, len(audit.ConfigChecks()))
	for _, c := range audit.ConfigChecks() {
		if disabled[c.ID] {
			continue
		}
		if ovr, ok := cfg.ruleOverrides[c.ID]; ok {
			if ovr.Disabled {
				continue
			}
			if sev, err := types.ParseSeverity(ovr.Severity); err == nil {
				c.Severity = sev
			}
		}
		checks = append(checks, c)
	}
	return checks
}

// applyFindingOverrides handles disables and severity overrides for findings
// produced outside the rule table (env and permission audits).
func applyFindingOverrides(findings []Finding, cfg *scanConfig) []Finding {
	disabled := disabledSet(cfg)
	if len(disabled) == 0 && len(cfg.ruleOverrides) == 0 {
		return findings
	}
	out := findings[:0:0]
	for _, f := range findings {
		if disabled[f.ID] {
			continue
		}
		if ovr, ok := cfg.ruleOverrides[f.ID]; ok {
			if ovr.Disabled {
				continue
			}
			if sev, err := types.ParseSeverity(ovr.Severity); err == nil {
				f.Severity = sev
			}
		}
		out = append(out, f)
	}
	return out
}

func disabledSet(cfg *scanConfig) map[string]bool {
	if len(cfg.disabledRules) == 0 {
		return nil
	}
	disabled := make(map[string]bool, len(cfg.disabledRules))
	for _, id := range cfg.disabledRules {
		disabled[strings.TrimSpace(id)] = true
	}
	return disabled
}

func toRuleOverrides(in map[string]RuleOverride) map[string]rules.RuleOverride {
	out := make(map[string]rules.RuleOverride, len(in))
	for id, o := range in {
		out[id] = rules.RuleOverride{Severity: o.Severity, Disabled: o.Disabled}
	}
	return out
}
