package rules

import (
	"regexp"

	"github.com/garagon/tatu/internal/types"
)

// secretGroup names the capture group holding the credential payload in a
// secret pattern. The matcher redacts that span before a line is surfaced.
const secretGroup = "secret"

// RawExamples contains test examples for rule self-testing.
type RawExamples struct {
	TruePositive  []string `yaml:"true_positive"`
	FalsePositive []string `yaml:"false_positive"`
}

// RawRule is the YAML representation of a detection rule.
type RawRule struct {
	ID          string      `yaml:"id"`
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Severity    string      `yaml:"severity"`
	Category    string      `yaml:"category"`
	CWE         string      `yaml:"cwe"`
	Languages   []string    `yaml:"languages"`
	Pattern     string      `yaml:"pattern"`
	Exclude     string      `yaml:"exclude"`
	Examples    RawExamples `yaml:"examples"`
}

// CompiledRule is a rule compiled and ready for execution. Compiled rules are
// shared across scans and must not be mutated after loading.
type CompiledRule struct {
	ID          string
	Name        string
	Description string
	Severity    types.Severity
	Category    types.Category
	CWE         string
	Languages   []string
	Pattern     *regexp.Regexp
	Exclude     *regexp.Regexp // nil when the rule has no exclusion
	SecretGroup int            // submatch index of (?P<secret>...), -1 if absent
	Examples    RawExamples
}

// AppliesTo reports whether the rule targets the given language.
// Rules without a language list apply everywhere.
func (r *CompiledRule) AppliesTo(lang string) bool {
	if len(r.Languages) == 0 {
		return true
	}
	for _, l := range r.Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// MatchLine reports whether the rule fires on line, honoring the exclusion.
func (r *CompiledRule) MatchLine(line string) bool {
	if !r.Pattern.MatchString(line) {
		return false
	}
	return r.Exclude == nil || !r.Exclude.MatchString(line)
}

// Table is the set of compiled pattern rules, split by category and kept in
// table order. First match wins, so order is significant.
type Table struct {
	Secrets         []*CompiledRule
	Vulnerabilities []*CompiledRule
}

// All returns every rule in the table, secrets first.
func (t Table) All() []*CompiledRule {
	all := make([]*CompiledRule, 0, len(t.Secrets)+len(t.Vulnerabilities))
	all = append(all, t.Secrets...)
	return append(all, t.Vulnerabilities...)
}

// Len returns the number of rules in the table.
func (t Table) Len() int {
	return len(t.Secrets) + len(t.Vulnerabilities)
}

// Split partitions compiled rules by category, preserving relative order.
func Split(compiled []*CompiledRule) Table {
	var t Table
	for _, r := range compiled {
		switch r.Category {
		case types.CategorySecret:
			t.Secrets = append(t.Secrets, r)
		case types.CategoryVulnerability:
			t.Vulnerabilities = append(t.Vulnerabilities, r)
		}
	}
	return t
}
