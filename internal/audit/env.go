package audit

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
	"go.uber.org/zap"

	"github.com/garagon/tatu/internal/engine/mask"
	"github.com/garagon/tatu/internal/scanner"
	"github.com/garagon/tatu/internal/types"
)

// Env audit finding IDs.
const (
	EnvNotGitignoredID  = "env-not-gitignored"
	EnvExampleValuesID  = "env-example-has-values"
	envNotGitignoredMsg = "Environment files usually hold live credentials. Add them to .gitignore and remove any committed copy from history."
	envExampleValuesMsg = "Template env files are meant to be committed, so they must only carry placeholders. Replace the values and rotate the credentials."
)

// IsEnvTemplate reports whether base names a committed template such as
// .env.example, .env.sample or .env.template.
func IsEnvTemplate(base string) bool {
	lower := strings.ToLower(base)
	for _, suffix := range []string{".example", ".sample", ".template"} {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// EnvAuditor implements scanner.ProjectAnalyzer. It flags dotenv files that
// the root .gitignore does not exclude, and env templates that carry real
// looking credential values.
type EnvAuditor struct {
	Logger *zap.Logger
}

func (a *EnvAuditor) Name() string { return "env-audit" }

func (a *EnvAuditor) AnalyzeProject(ctx context.Context, root string, targets []*scanner.Target) ([]scanner.Finding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	gi, err := LoadGitignore(root)
	if err != nil && a.Logger != nil {
		a.Logger.Debug("reading .gitignore", zap.String("root", root), zap.Error(err))
	}

	var findings []types.Finding
	for _, t := range targets {
		base := path.Base(t.RelPath)
		if !scanner.IsEnvFile(base) {
			continue
		}
		if IsEnvTemplate(base) {
			if f, ok := auditEnvTemplate(t); ok {
				findings = append(findings, f)
			}
			continue
		}
		if gi.Ignored(t.RelPath) {
			continue
		}
		findings = append(findings, types.Finding{
			ID:          EnvNotGitignoredID,
			Name:        "Environment file not gitignored",
			Severity:    types.SeverityCritical,
			File:        t.RelPath,
			Line:        0,
			Match:       fmt.Sprintf("%s is not excluded by .gitignore", t.RelPath),
			Category:    types.CategoryConfig,
			Description: envNotGitignoredMsg,
		})
	}
	return findings, nil
}

var (
	envAssign      = regexp.MustCompile(`^(?:export\s+)?([A-Za-z_][A-Za-z0-9_.]*)\s*=\s*["']?([^"'#\s]*)`)
	credentialKey  = regexp.MustCompile(`(?i)key|secret|token|password|passwd|pwd|auth|credential`)
	placeholderVal = regexp.MustCompile(`(?i)^(?:<.*>|\$\{.*\}|\$[A-Z_]+|x{3,}|\*+|\.\.\.|your.*|change.*|replace.*|example.*|placeholder.*|dummy.*|todo|none|null|nil|true|false|test|secret|password|\d+)$`)
)

// auditEnvTemplate returns one finding for the first credential key in an
// env template whose value is not a placeholder.
func auditEnvTemplate(t *scanner.Target) (types.Finding, bool) {
	if t.Content == nil {
		return types.Finding{}, false
	}
	first, count := 0, 0
	var sample string
	for i, line := range t.Lines() {
		m := envAssign.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil || !credentialKey.MatchString(m[1]) {
			continue
		}
		value := m[2]
		if len(value) < mask.MinSecretLen || placeholderVal.MatchString(value) {
			continue
		}
		count++
		if first == 0 {
			first = i + 1
			sample = mask.Mask(m[1] + "=" + value)
		}
	}
	if count == 0 {
		return types.Finding{}, false
	}
	noun := "keys carry"
	if count == 1 {
		noun = "key carries"
	}
	return types.Finding{
		ID:          EnvExampleValuesID,
		Name:        "Env template contains values",
		Severity:    types.SeverityMedium,
		File:        t.RelPath,
		Line:        first,
		Match:       clip(fmt.Sprintf("%d credential %s a value, e.g. %s", count, noun, sample)),
		Category:    types.CategoryConfig,
		Description: envExampleValuesMsg,
	}, true
}

// Gitignore is a parsed root .gitignore. The zero value ignores nothing.
type Gitignore struct {
	matcher *ignore.GitIgnore
}

// LoadGitignore reads root/.gitignore. A missing file yields an empty
// Gitignore and no error.
func LoadGitignore(root string) (*Gitignore, error) {
	data, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		if os.IsNotExist(err) {
			return &Gitignore{}, nil
		}
		return &Gitignore{}, err
	}
	return ParseGitignore(string(data)), nil
}

// ParseGitignore compiles .gitignore content.
func ParseGitignore(content string) *Gitignore {
	lines := scanner.SplitLines(content)
	for i, line := range lines {
		lines[i] = anchorInnerSlash(line)
	}
	return &Gitignore{matcher: ignore.CompileIgnoreLines(lines...)}
}

// anchorInnerSlash prefixes "/" to patterns with a slash before their last
// character, which git matches relative to the .gitignore directory only.
func anchorInnerSlash(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return line
	}
	neg := ""
	if strings.HasPrefix(trimmed, "!") {
		neg, trimmed = "!", trimmed[1:]
	}
	body := strings.TrimSuffix(trimmed, "/")
	if strings.HasPrefix(body, "/") || strings.HasPrefix(body, "**/") || !strings.Contains(body, "/") {
		return line
	}
	return neg + "/" + trimmed
}

// Ignored reports whether the slash-separated relPath is excluded. The last
// matching pattern wins, so a later negation re-includes a path.
func (g *Gitignore) Ignored(relPath string) bool {
	if g == nil || g.matcher == nil {
		return false
	}
	return g.matcher.MatchesPath(relPath)
}
