package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/garagon/tatu/internal/types"
)

// Compile converts a RawRule into a CompiledRule ready for execution.
// Patterns use Go's RE2 engine, so matching time is linear in the input and
// no rule can hang on pathological lines.
func Compile(raw RawRule) (*CompiledRule, error) {
	if raw.ID == "" {
		return nil, fmt.Errorf("rule missing ID")
	}
	if raw.Pattern == "" {
		return nil, fmt.Errorf("rule %s: no pattern defined", raw.ID)
	}

	sev, err := types.ParseSeverity(raw.Severity)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", raw.ID, err)
	}

	cat, err := types.ParseCategory(raw.Category)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", raw.ID, err)
	}
	if cat == types.CategoryConfig {
		return nil, fmt.Errorf("rule %s: config checks cannot be declared as patterns", raw.ID)
	}
	if cat == types.CategoryVulnerability && raw.CWE == "" {
		return nil, fmt.Errorf("rule %s: vulnerability rule missing cwe", raw.ID)
	}

	re, err := regexp.Compile(raw.Pattern)
	if err != nil {
		return nil, fmt.Errorf("rule %s: invalid regex: %w", raw.ID, err)
	}

	compiled := &CompiledRule{
		ID:          raw.ID,
		Name:        raw.Name,
		Description: strings.TrimSpace(raw.Description),
		Severity:    sev,
		Category:    cat,
		CWE:         raw.CWE,
		Pattern:     re,
		SecretGroup: re.SubexpIndex(secretGroup),
		Examples:    raw.Examples,
	}
	for _, l := range raw.Languages {
		compiled.Languages = append(compiled.Languages, strings.ToLower(strings.TrimSpace(l)))
	}

	if raw.Exclude != "" {
		ex, err := regexp.Compile(raw.Exclude)
		if err != nil {
			return nil, fmt.Errorf("rule %s: invalid exclude regex: %w", raw.ID, err)
		}
		compiled.Exclude = ex
	}

	return compiled, nil
}

// CompileAll compiles a slice of raw rules, returning compiled rules and any errors.
// Duplicate IDs are rejected; the first definition wins.
func CompileAll(raws []RawRule) ([]*CompiledRule, []error) {
	var rules []*CompiledRule
	var errs []error
	seen := make(map[string]bool, len(raws))
	for _, raw := range raws {
		if seen[raw.ID] {
			errs = append(errs, fmt.Errorf("rule %s: duplicate ID", raw.ID))
			continue
		}
		cr, err := Compile(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		seen[raw.ID] = true
		rules = append(rules, cr)
	}
	return rules, errs
}

// RuleOverride allows per-rule severity change or disable from config.
type RuleOverride struct {
	Severity string
	Disabled bool
}

// ApplyOverrides applies config-based rule overrides to compiled rules.
// Disabled rules are removed. Severity overrides produce a copy of the rule so
// the shared built-in table is never modified. Invalid severity values produce
// an error but keep the original rule.
func ApplyOverrides(compiled []*CompiledRule, overrides map[string]RuleOverride) ([]*CompiledRule, []error) {
	var result []*CompiledRule
	var errs []error
	for _, rule := range compiled {
		ovr, ok := overrides[rule.ID]
		if !ok {
			result = append(result, rule)
			continue
		}
		if ovr.Disabled {
			continue
		}
		if ovr.Severity != "" {
			sev, err := types.ParseSeverity(ovr.Severity)
			if err != nil {
				errs = append(errs, fmt.Errorf("rule %s override: %w", rule.ID, err))
				result = append(result, rule)
				continue
			}
			cp := *rule
			cp.Severity = sev
			rule = &cp
		}
		result = append(result, rule)
	}
	return result, errs
}

// FilterByIDs removes rules whose IDs are in the disabled set.
func FilterByIDs(compiled []*CompiledRule, disabled map[string]bool) []*CompiledRule {
	var result []*CompiledRule
	for _, rule := range compiled {
		if !disabled[rule.ID] {
			result = append(result, rule)
		}
	}
	return result
}
