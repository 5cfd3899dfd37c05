package scanner

import (
	"context"
	"errors"
	"os/exec"
	"path"
	"strings"
)

// ErrNotGitRepository is returned by ChangedFiles when root is not inside a
// git work tree or git is not installed.
var ErrNotGitRepository = errors.New("not a git repository")

// ChangedFiles returns the set of scannable files that are modified, staged
// or untracked in the git work tree at root, as slash-separated paths
// relative to root. The result is meant for Collector.Only.
func ChangedFiles(ctx context.Context, root string) (map[string]bool, error) {
	if _, err := exec.LookPath("git"); err != nil {
		return nil, ErrNotGitRepository
	}
	if _, err := runGit(ctx, root, "rev-parse", "--git-dir"); err != nil {
		return nil, ErrNotGitRepository
	}

	changed := make(map[string]bool)
	add := func(out string) {
		for _, f := range splitOutput(out) {
			if IsScannable(path.Base(f)) {
				changed[f] = true
			}
		}
	}

	// Falls back to --cached for repos without any commits yet.
	out, err := runGit(ctx, root, "diff", "--name-only", "--relative", "HEAD")
	if err != nil {
		out, err = runGit(ctx, root, "diff", "--name-only", "--relative", "--cached")
		if err != nil {
			return nil, err
		}
	}
	add(out)

	if out, err := runGit(ctx, root, "ls-files", "--others", "--exclude-standard"); err == nil {
		add(out)
	}
	return changed, nil
}

func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func splitOutput(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
