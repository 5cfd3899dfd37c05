package audit

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/garagon/tatu/internal/rules"
	"github.com/garagon/tatu/internal/types"
)

var (
	sourceFiles = []string{
		"*.py", "*.js", "*.mjs", "*.cjs", "*.ts", "*.go", "*.rb", "*.php", "*.java", "*.kt", "*.cs",
	}
	settingsFiles = []string{
		".env", ".env.*", "*.json", "*.yaml", "*.yml", "*.toml", "*.ini", "*.cfg", "*.conf", "*.properties",
	}
)

func globs(groups ...[]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

var configChecks = []ConfigCheck{
	{
		ID:          "debug-mode-enabled",
		Name:        "Debug mode enabled",
		Description: "Debug mode exposes stack traces, internal state and sometimes an interactive console. Disable it outside development.",
		Severity:    types.SeverityMedium,
		Files: globs(settingsFiles, []string{
			"settings*.py", "**/settings/*.py", "config*.py", "app.py", "main.py", "wsgi.py",
			"config*.js", "config*.ts", "*.config.js", "*.config.ts", "Dockerfile",
		}),
		Check: checkDebugMode,
	},
	{
		ID:          "default-secret-key",
		Name:        "Default or placeholder secret key",
		Description: "A signing secret is set to a well-known placeholder, so anyone can forge sessions or tokens. Generate a random value and load it from the environment.",
		Severity:    types.SeverityHigh,
		Files:       globs(settingsFiles, sourceFiles),
		Check:       checkDefaultSecret,
	},
	{
		ID:          "bind-all-interfaces",
		Name:        "Service bound to all interfaces",
		Description: "Listening on 0.0.0.0 or :: exposes the service on every network interface. Bind to 127.0.0.1 unless external access is intended.",
		Severity:    types.SeverityMedium,
		Files:       globs(settingsFiles, sourceFiles, []string{"Dockerfile", "Dockerfile.*", "Procfile"}),
		Check:       checkBindAll,
	},
	{
		ID:          "missing-rate-limit",
		Name:        "API routes without rate limiting",
		Description: "Route handlers are defined with no rate limiting in the file. Add a limiter to protect login, signup and other abusable endpoints.",
		Severity:    types.SeverityMedium,
		Files:       []string{"**/api/**", "**/routes/**", "*route*", "*controller*", "*Controller*"},
		Check:       checkRateLimit,
	},
	{
		ID:          "cors-wildcard",
		Name:        "Wildcard CORS origin",
		Description: "Any website can read responses from this service. Restrict allowed origins to known hosts.",
		Severity:    types.SeverityMedium,
		Files:       globs(settingsFiles, sourceFiles, []string{".htaccess", "nginx*.conf"}),
		Check:       checkCORSWildcard,
	},
}

// nonProductionName reports whether a file name suggests example, test or
// development configuration, where debug flags are expected.
func nonProductionName(filename string) bool {
	lower := strings.ToLower(filename)
	for _, marker := range []string{"example", "sample", "template", "test", "dev", ".local"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func isCommentLine(line string) bool {
	return strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") ||
		strings.HasPrefix(line, ";") || strings.HasPrefix(line, "*")
}

// firstLine returns the 1-based number and trimmed text of the first
// non-comment line matching re.
func firstLine(content string, re *regexp.Regexp) (int, string, bool) {
	for i, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || isCommentLine(line) {
			continue
		}
		if re.MatchString(line) {
			return i + 1, line, true
		}
	}
	return 0, "", false
}

var debugPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(?:export\s+)?["']?(?:DEBUG|APP_DEBUG|FLASK_DEBUG|DJANGO_DEBUG)["']?\s*[=:]\s*["']?(?:true|1|on|yes)["']?\s*,?$`),
	regexp.MustCompile(`\.run\([^)]*\bdebug\s*=\s*True\b`),
	regexp.MustCompile(`(?i)^(?:export\s+)?(?:ENV\s+)?NODE_ENV\s*[=:\s]\s*["']?development["']?$`),
}

func checkDebugMode(content, filename string) (bool, string) {
	if nonProductionName(filename) {
		return false, ""
	}
	for _, re := range debugPatterns {
		if n, line, ok := firstLine(content, re); ok {
			return true, fmt.Sprintf("line %d: %s", n, line)
		}
	}
	return false, ""
}

var secretAssign = regexp.MustCompile(`(?i)\b(secret_key_base|secret_key|jwt_secret|session_secret|app_secret|cookie_secret|secretkey|jwtsecret|sessionsecret|secret)\b["']?\s*[:=]\s*(?:"([^"]*)"|'([^']*)'|([^\s"',;#]+))`)

var placeholderSecrets = map[string]bool{
	"changeme": true, "change-me": true, "change_me": true, "changethis": true,
	"secret": true, "secretkey": true, "secret-key": true, "secret_key": true,
	"mysecret": true, "my-secret": true, "my_secret": true, "supersecret": true,
	"super-secret": true, "keyboard cat": true, "default": true, "dev": true,
	"development": true, "test": true, "password": true, "s3cr3t": true,
	"notsecret": true, "insecure": true, "replaceme": true, "replace-me": true,
	"todo": true, "xxx": true, "12345": true, "123456": true,
}

// isPlaceholderSecret reports whether value is a well-known default.
func isPlaceholderSecret(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	if placeholderSecrets[v] {
		return true
	}
	return strings.HasPrefix(v, "your") || strings.HasPrefix(v, "change") ||
		strings.HasPrefix(v, "django-insecure-")
}

func checkDefaultSecret(content, _ string) (bool, string) {
	for _, m := range secretAssign.FindAllStringSubmatch(content, -1) {
		value := m[2] + m[3] + m[4]
		if value != "" && isPlaceholderSecret(value) {
			return true, fmt.Sprintf("%s is set to the placeholder %q", m[1], value)
		}
	}
	return false, ""
}

var (
	bindAllRe  = regexp.MustCompile(`(?:^|[^\d.])0\.0\.0\.0(?:[^/\d.]|$)|["'\[]::["'\]]`)
	loopbackRe = regexp.MustCompile(`127\.0\.0\.1|\blocalhost\b`)
)

func checkBindAll(content, _ string) (bool, string) {
	n, line, ok := firstLine(content, bindAllRe)
	if !ok || loopbackRe.MatchString(content) {
		return false, ""
	}
	return true, fmt.Sprintf("line %d: %s", n, line)
}

var (
	routeRe     = regexp.MustCompile(`(?i)\b(?:app|router|server|api|route|routes|mux|r|e|g)\.(?:get|post|put|patch|delete|all|route|handle|handlefunc)\s*\(|@(?:app|router|bp|blueprint|api)\.(?:route|get|post|put|patch|delete)\b|@(?:Get|Post|Put|Patch|Delete|Request)Mapping\b|\bexport\s+(?:async\s+)?function\s+(?:GET|POST|PUT|PATCH|DELETE)\b`)
	rateLimitRe = regexp.MustCompile(`(?i)rate[-_ ]?limit|throttl|slowapi|limiter|slow-?down|bottleneck`)
)

func checkRateLimit(content, filename string) (bool, string) {
	if rules.LanguageOf(filename) == "" {
		return false, ""
	}
	routes := 0
	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line != "" && !isCommentLine(line) && routeRe.MatchString(line) {
			routes++
		}
	}
	if routes == 0 || rateLimitRe.MatchString(content) {
		return false, ""
	}
	noun := "definitions"
	if routes == 1 {
		noun = "definition"
	}
	return true, fmt.Sprintf("%d route %s and no rate limiting", routes, noun)
}

var corsWildcardRe = regexp.MustCompile(`(?i)access-control-allow-origin["']?\s*[:,=]?\s*["']?\*|\borigins?\s*[:=]\s*["']\*["']|\bCORS_ORIGIN_ALLOW_ALL\s*=\s*True\b|\bCORS_ALLOW_ALL_ORIGINS\s*=\s*True\b|\ballow_origins\s*=\s*\[\s*["']\*["']\s*\]|\bAllowAllOrigins\s*:\s*true\b|\bAllowedOrigins\s*:\s*\[\]string\{\s*"\*"\s*\}`)

func checkCORSWildcard(content, _ string) (bool, string) {
	n, line, ok := firstLine(content, corsWildcardRe)
	if !ok {
		return false, ""
	}
	return true, fmt.Sprintf("line %d: %s", n, line)
}
