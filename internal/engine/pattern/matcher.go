// Package pattern implements the line-oriented rule engine: every line of a
// file is tried against the rule table in order and the first rule that
// matches produces the line's only finding.
package pattern

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/garagon/tatu/internal/engine/mask"
	"github.com/garagon/tatu/internal/rules"
	"github.com/garagon/tatu/internal/scanner"
	"github.com/garagon/tatu/internal/types"
)

// MaxMatchLen is the longest match text, in runes, stored on a finding.
const MaxMatchLen = 120

var commentPrefixes = []string{"//", "#", "*", "/*"}

// Matcher implements the Analyzer interface for one rule category.
type Matcher struct {
	category types.Category
	rules    []*rules.CompiledRule
}

// NewMatcher creates a matcher that applies the rules of the given category,
// in slice order.
func NewMatcher(category types.Category, compiled []*rules.CompiledRule) *Matcher {
	return &Matcher{category: category, rules: compiled}
}

func (m *Matcher) Name() string { return string(m.category) + "-patterns" }

func (m *Matcher) Analyze(ctx context.Context, target *scanner.Target) ([]scanner.Finding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return matchLines(target.Lines(), target.RelPath, m.rules, m.category), nil
}

// Match scans content line by line and returns at most one finding per line.
// Only rules of the given category are applied. For vulnerability rules,
// comment lines are skipped and a rule applies only to the languages it
// lists; secret rules see every line.
func Match(content, relPath string, compiled []*rules.CompiledRule, category types.Category) []types.Finding {
	return matchLines(scanner.SplitLines(content), relPath, compiled, category)
}

func matchLines(lines []string, relPath string, compiled []*rules.CompiledRule, category types.Category) []types.Finding {
	var findings []types.Finding
	lang := rules.LanguageOf(relPath)
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if category == types.CategoryVulnerability && isComment(line) {
			continue
		}
		for _, rule := range compiled {
			if rule.Category != category || !rule.AppliesTo(lang) {
				continue
			}
			if !rule.MatchLine(line) {
				continue
			}
			findings = append(findings, types.Finding{
				ID:          rule.ID,
				Name:        rule.Name,
				Severity:    rule.Severity,
				File:        relPath,
				Line:        i + 1,
				Match:       matchText(rule, line, compiled),
				Category:    rule.Category,
				CWE:         rule.CWE,
				Description: rule.Description,
			})
			break
		}
	}
	return findings
}

func isComment(line string) bool {
	for _, p := range commentPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// matchText builds the finding text for a matched line. Secrets are redacted
// before truncation so a credential crossing the cut is never exposed.
func matchText(rule *rules.CompiledRule, line string, compiled []*rules.CompiledRule) string {
	text := line
	if rule.Category == types.CategorySecret {
		text = mask.Mask(Redact(line, compiled))
	}
	return truncate(text, MaxMatchLen)
}

// Redact masks every span captured by the secret group of any secret rule in
// compiled, not only the rule that claimed the line. Overlapping captures
// are merged into one span.
func Redact(line string, compiled []*rules.CompiledRule) string {
	var spans [][2]int
	for _, r := range compiled {
		g := r.SecretGroup
		if r.Category != types.CategorySecret || g < 0 {
			continue
		}
		for _, loc := range r.Pattern.FindAllStringSubmatchIndex(line, -1) {
			if start, end := loc[2*g], loc[2*g+1]; start >= 0 && end > start {
				spans = append(spans, [2]int{start, end})
			}
		}
	}
	return mask.Spans(line, mergeSpans(spans))
}

func mergeSpans(spans [][2]int) [][2]int {
	if len(spans) < 2 {
		return spans
	}
	slices.SortFunc(spans, func(a, b [2]int) int {
		return cmp.Or(cmp.Compare(a[0], b[0]), cmp.Compare(a[1], b[1]))
	})
	merged := make([][2]int, 0, len(spans))
	merged = append(merged, spans[0])
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s[0] < last[1] {
			last[1] = max(last[1], s[1])
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
