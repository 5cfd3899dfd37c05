package scanner

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// ErrDirectoryNotFound is returned when the scan root does not exist or is
// not a directory.
var ErrDirectoryNotFound = errors.New("directory not found")

// IgnoreFile is the per-project ignore list read from the scan root.
const IgnoreFile = ".tatuignore"

// Collection limits.
const (
	DefaultMaxFiles    = 5000
	DefaultMaxFileSize = 512 * 1024
	DefaultMaxDepth    = 15
)

// errLimitReached stops the walk once MaxFiles targets are collected.
var errLimitReached = errors.New("file limit reached")

var skipDirs = map[string]bool{
	"node_modules": true, ".git": true, "dist": true, "build": true,
	"vendor": true, "__pycache__": true, ".next": true, ".nuxt": true,
	"coverage": true, "target": true, ".venv": true, "venv": true,
	".cache": true, ".idea": true, ".vscode": true, ".terraform": true,
	"bower_components": true, ".gradle": true, ".mypy_cache": true,
	".pytest_cache": true, "out": true,
}

var scannableExts = map[string]bool{
	// source
	".js": true, ".jsx": true, ".mjs": true, ".cjs": true, ".ts": true,
	".tsx": true, ".mts": true, ".cts": true, ".vue": true, ".svelte": true,
	".py": true, ".go": true, ".java": true, ".kt": true, ".kts": true,
	".scala": true, ".php": true, ".rb": true, ".cs": true, ".c": true,
	".h": true, ".cpp": true, ".cc": true, ".hpp": true, ".rs": true,
	".swift": true, ".dart": true, ".lua": true, ".pl": true, ".ex": true,
	".exs": true,
	// shell and sql
	".sh": true, ".bash": true, ".zsh": true, ".ps1": true, ".sql": true,
	// config
	".json": true, ".yaml": true, ".yml": true, ".toml": true, ".ini": true,
	".cfg": true, ".conf": true, ".config": true, ".env": true,
	".properties": true, ".tf": true, ".tfvars": true, ".gradle": true,
	".xml": true, ".plist": true,
	// markup and docs
	".html": true, ".htm": true, ".md": true, ".txt": true,
}

var knownNames = map[string]bool{
	"Dockerfile": true, "Makefile": true, "Procfile": true, "Jenkinsfile": true,
	"Vagrantfile": true, "Gemfile": true, "Rakefile": true, "Caddyfile": true,
	".gitignore": true, ".dockerignore": true, ".npmrc": true, ".yarnrc": true,
	".pypirc": true, ".netrc": true, ".htaccess": true, ".babelrc": true,
}

var excludedNames = map[string]bool{
	"package-lock.json": true, "yarn.lock": true, "pnpm-lock.yaml": true,
	"composer.lock": true, "Cargo.lock": true, "poetry.lock": true,
	"Gemfile.lock": true, "go.sum": true,
}

// IsEnvFile reports whether base names a dotenv file (.env, .env.local, ...).
func IsEnvFile(base string) bool {
	return base == ".env" || strings.HasPrefix(base, ".env.")
}

// IsScannable reports whether a file name is collected for scanning.
func IsScannable(base string) bool {
	if excludedNames[base] {
		return false
	}
	lower := strings.ToLower(base)
	if strings.HasSuffix(lower, ".min.js") || strings.HasSuffix(lower, ".min.css") || strings.HasSuffix(lower, ".map") {
		return false
	}
	if IsEnvFile(base) || knownNames[base] {
		return true
	}
	if strings.HasPrefix(base, "Dockerfile.") {
		return true
	}
	return scannableExts[strings.ToLower(filepath.Ext(base))]
}

// Collector walks a directory and returns scannable targets. The zero value
// uses the default limits.
type Collector struct {
	MaxFiles       int
	MaxFileSize    int64
	MaxDepth       int
	IgnorePatterns []string
	// Only restricts collection to these slash-separated relative paths when
	// non-nil. Used for changed-files scans.
	Only   map[string]bool
	Logger *zap.Logger
}

// CheckRoot returns an error wrapping ErrDirectoryNotFound unless root is an
// existing directory.
func CheckRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrDirectoryNotFound, root)
	}
	return nil
}

// Collect walks root depth-first in name order and returns the targets it
// finds. Two calls on an unchanged tree return identical slices.
func (c *Collector) Collect(root string) ([]*Target, error) {
	if err := CheckRoot(root); err != nil {
		return nil, err
	}

	w := &walker{
		root:     root,
		maxFiles: orDefault(c.MaxFiles, DefaultMaxFiles),
		maxSize:  int64(orDefault(int(c.MaxFileSize), DefaultMaxFileSize)),
		maxDepth: orDefault(c.MaxDepth, DefaultMaxDepth),
		only:     c.Only,
		log:      c.Logger,
	}
	if w.log == nil {
		w.log = zap.NewNop()
	}
	for _, p := range c.IgnorePatterns {
		w.ignore = append(w.ignore, strings.TrimSuffix(p, "/"))
	}
	w.ignore = append(w.ignore, loadIgnoreFile(root)...)

	if err := w.walk(root, "", 0); err != nil && !errors.Is(err, errLimitReached) {
		return nil, err
	}
	return w.targets, nil
}

type walker struct {
	root     string
	maxFiles int
	maxSize  int64
	maxDepth int
	ignore   []string
	only     map[string]bool
	log      *zap.Logger
	targets  []*Target
}

func (w *walker) walk(dir, rel string, depth int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		w.log.Debug("skipping unreadable directory", zap.String("dir", rel), zap.Error(err))
		return nil
	}
	for _, e := range entries {
		if len(w.targets) >= w.maxFiles {
			return errLimitReached
		}
		name := e.Name()
		full := filepath.Join(dir, name)
		relPath := path.Join(rel, name)

		mode := e.Type()
		if mode&os.ModeSymlink != 0 {
			// Symlinked directories are never followed; links to files are
			// scanned as the file they point to.
			fi, err := os.Stat(full)
			if err != nil || fi.IsDir() {
				continue
			}
			mode = fi.Mode().Type()
		}

		if mode.IsDir() {
			if skipDirs[name] || strings.HasPrefix(name, ".") || depth+1 > w.maxDepth {
				continue
			}
			if w.ignored(relPath) {
				continue
			}
			if err := w.walk(full, relPath, depth+1); err != nil {
				return err
			}
			continue
		}
		if !mode.IsRegular() || !IsScannable(name) || w.ignored(relPath) {
			continue
		}
		if w.only != nil && !w.only[relPath] {
			continue
		}
		fi, err := os.Stat(full)
		if err != nil {
			continue
		}
		if fi.Size() > w.maxSize {
			w.log.Debug("skipping large file", zap.String("file", relPath), zap.Int64("size", fi.Size()))
			continue
		}
		w.targets = append(w.targets, &Target{Path: full, RelPath: relPath, Size: fi.Size()})
	}
	return nil
}

func (w *walker) ignored(relPath string) bool {
	for _, pattern := range w.ignore {
		if MatchGlob(pattern, relPath) {
			return true
		}
	}
	return false
}

func loadIgnoreFile(root string) []string {
	f, err := os.Open(filepath.Join(root, IgnoreFile))
	if err != nil {
		return nil
	}
	defer f.Close()
	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, strings.TrimSuffix(line, "/"))
		}
	}
	return patterns
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// MatchGlob supports ** globs that filepath.Match does not.
// "dir/**" matches any file under dir/ at any depth.
// "**/*.yaml" matches any .yaml file at any depth.
// A pattern without a slash is also tried against the base name.
func MatchGlob(pattern, relPath string) bool {
	if !strings.Contains(pattern, "**") {
		if matched, _ := path.Match(pattern, relPath); matched {
			return true
		}
		if matched, _ := path.Match(pattern, path.Base(relPath)); matched {
			return true
		}
		return false
	}

	if strings.HasSuffix(pattern, "/**") {
		prefix := strings.TrimSuffix(pattern, "/**")
		if strings.HasPrefix(relPath, prefix+"/") || relPath == prefix {
			return true
		}
		if strings.HasPrefix(prefix, "**/") && matchSuffixes(strings.TrimPrefix(prefix, "**/"), path.Dir(relPath), true) {
			return true
		}
	}

	if strings.HasPrefix(pattern, "**/") {
		if matchSuffixes(strings.TrimPrefix(pattern, "**/"), relPath, false) {
			return true
		}
	}

	if idx := strings.Index(pattern, "/**/"); idx >= 0 {
		prefix := pattern[:idx]
		suffix := pattern[idx+4:]
		if strings.HasPrefix(relPath, prefix+"/") {
			if matchSuffixes(suffix, strings.TrimPrefix(relPath, prefix+"/"), false) {
				return true
			}
		}
	}

	return false
}

// matchSuffixes tries glob against every trailing segment run of p. With
// prefixes set it also tries every leading run, so "**/api/**" matches any
// path containing an api directory.
func matchSuffixes(glob, p string, prefixes bool) bool {
	parts := strings.Split(p, "/")
	for i := range parts {
		if matched, _ := path.Match(glob, strings.Join(parts[i:], "/")); matched {
			return true
		}
		if prefixes {
			for j := i + 1; j <= len(parts); j++ {
				if matched, _ := path.Match(glob, strings.Join(parts[i:j], "/")); matched {
					return true
				}
			}
		}
	}
	return false
}
