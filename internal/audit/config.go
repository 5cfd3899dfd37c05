// Package audit holds the whole-file and filesystem checks: configuration
// predicates, dotenv exposure, sensitive file permissions, and the
// recommended security header reference list.
package audit

import (
	"context"
	"path"
	"unicode/utf8"

	"github.com/garagon/tatu/internal/engine/mask"
	"github.com/garagon/tatu/internal/engine/pattern"
	"github.com/garagon/tatu/internal/rules"
	"github.com/garagon/tatu/internal/scanner"
	"github.com/garagon/tatu/internal/types"
)

// maxDetailLen bounds the detail text stored as a config finding's match.
const maxDetailLen = 120

// CheckFunc inspects a file's content. It reports whether the problem is
// present and a short human-readable detail.
type CheckFunc func(content, filename string) (found bool, detail string)

// ConfigCheck is a whole-file predicate applied to files matching Files.
type ConfigCheck struct {
	ID          string
	Name        string
	Description string
	Severity    types.Severity
	Files       []string // globs matched against the relative path; ** supported
	Check       CheckFunc
}

// AppliesTo reports whether relPath matches one of the check's file globs.
func (c ConfigCheck) AppliesTo(relPath string) bool {
	for _, g := range c.Files {
		if scanner.MatchGlob(g, relPath) {
			return true
		}
	}
	return false
}

// ConfigChecks returns the built-in config checks in evaluation order. The
// returned slice is a copy; the table itself is never modified.
func ConfigChecks() []ConfigCheck {
	out := make([]ConfigCheck, len(configChecks))
	copy(out, configChecks)
	return out
}

// ConfigAuditor implements scanner.Analyzer over a set of config checks.
type ConfigAuditor struct {
	checks  []ConfigCheck
	secrets []*rules.CompiledRule
}

// NewConfigAuditor creates an auditor for the given checks. A nil slice
// selects the built-in table. Details are redacted with the built-in secret
// rules until SetSecretRules replaces them.
func NewConfigAuditor(checks []ConfigCheck) *ConfigAuditor {
	if checks == nil {
		checks = configChecks
	}
	a := &ConfigAuditor{checks: checks}
	if table, err := rules.Builtin(); err == nil {
		a.secrets = table.Secrets
	}
	return a
}

// SetSecretRules sets the rules whose captured credentials are redacted from
// finding details.
func (a *ConfigAuditor) SetSecretRules(secrets []*rules.CompiledRule) {
	a.secrets = secrets
}

func (a *ConfigAuditor) Name() string { return "config-checks" }

func (a *ConfigAuditor) Analyze(ctx context.Context, target *scanner.Target) ([]scanner.Finding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return a.Audit(string(target.Content), target.RelPath), nil
}

// Audit runs every applicable check against content and returns one config
// finding, at line 0, per check that fires.
func (a *ConfigAuditor) Audit(content, relPath string) []types.Finding {
	var findings []types.Finding
	base := path.Base(relPath)
	for _, c := range a.checks {
		if !c.AppliesTo(relPath) {
			continue
		}
		found, detail := c.Check(content, base)
		if !found {
			continue
		}
		findings = append(findings, types.Finding{
			ID:          c.ID,
			Name:        c.Name,
			Severity:    c.Severity,
			File:        relPath,
			Line:        0,
			Match:       clip(mask.Mask(pattern.Redact(detail, a.secrets))),
			Category:    types.CategoryConfig,
			Description: c.Description,
		})
	}
	return findings
}

func clip(s string) string {
	if utf8.RuneCountInString(s) <= maxDetailLen {
		return s
	}
	return string([]rune(s)[:maxDetailLen])
}
