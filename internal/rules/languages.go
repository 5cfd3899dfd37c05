package rules

import (
	"path/filepath"
	"strings"
)

// extLanguage maps file extensions to the short language names used in the
// `languages` field of vulnerability rules.
var extLanguage = map[string]string{
	".js":     "js",
	".mjs":    "js",
	".cjs":    "js",
	".jsx":    "js",
	".vue":    "js",
	".svelte": "js",
	".ts":     "ts",
	".tsx":    "ts",
	".mts":    "ts",
	".cts":    "ts",
	".py":     "py",
	".go":     "go",
	".java":   "java",
	".kt":     "kt",
	".php":    "php",
	".rb":     "rb",
	".cs":     "cs",
	".c":      "c",
	".h":      "c",
	".cpp":    "cpp",
	".cc":     "cpp",
	".hpp":    "cpp",
	".rs":     "rs",
	".swift":  "swift",
	".sh":     "sh",
	".bash":   "sh",
	".zsh":    "sh",
}

// LanguageOf returns the short language name for path, or "" when the file is
// not source code (config, markup, env files).
func LanguageOf(path string) string {
	return extLanguage[strings.ToLower(filepath.Ext(path))]
}
