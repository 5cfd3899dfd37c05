package scanner_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/garagon/tatu/internal/scanner"
	"github.com/stretchr/testify/require"
)

func skipIfNoGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not on PATH")
	}
}

func TestChangedFilesModifiedAndUntracked(t *testing.T) {
	skipIfNoGit(t)

	dir := t.TempDir()
	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test",
			"GIT_AUTHOR_EMAIL=test@test.com",
			"GIT_COMMITTER_NAME=test",
			"GIT_COMMITTER_EMAIL=test@test.com",
		)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
	}

	run("init")
	run("config", "user.email", "test@test.com")
	run("config", "user.name", "test")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "committed.js"), []byte("ok"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stable.js"), []byte("ok"), 0o644))
	run("add", "committed.js", "stable.js")
	run("commit", "-m", "init")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "committed.js"), []byte("changed"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "untracked.py"), []byte("new"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "image.png"), []byte{0x89, 0x50}, 0o644))

	files, err := scanner.ChangedFiles(context.Background(), dir)
	require.NoError(t, err)
	require.True(t, files["committed.js"])
	require.True(t, files["untracked.py"])
	require.False(t, files["stable.js"])
	require.False(t, files["image.png"], "non-scannable files are filtered")

	c := &scanner.Collector{Only: files}
	targets, err := c.Collect(dir)
	require.NoError(t, err)
	require.Equal(t, []string{"committed.js", "untracked.py"}, relPaths(targets))
}

func TestChangedFilesNotARepo(t *testing.T) {
	skipIfNoGit(t)

	_, err := scanner.ChangedFiles(context.Background(), t.TempDir())
	require.ErrorIs(t, err, scanner.ErrNotGitRepository)
}
