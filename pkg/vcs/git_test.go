package vcs

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arthur-debert/dotman/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requireGit skips the test when git is unavailable and isolates it from the
// user's git configuration.
func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	t.Setenv("GIT_CONFIG_GLOBAL", filepath.Join(t.TempDir(), "gitconfig"))
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")
	t.Setenv("GIT_AUTHOR_NAME", "Test")
	t.Setenv("GIT_AUTHOR_EMAIL", "test@test.com")
	t.Setenv("GIT_COMMITTER_NAME", "Test")
	t.Setenv("GIT_COMMITTER_EMAIL", "test@test.com")
}

func git(t *testing.T, args ...string) string {
	t.Helper()
	out, err := exec.Command("git", args...).CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
	return strings.TrimSpace(string(out))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

// newRemote returns a bare repository and a clone of it whose branch tracks it.
func newRemote(t *testing.T) (remote string, clone *Git) {
	t.Helper()
	ctx := context.Background()

	remote = filepath.Join(t.TempDir(), "remote.git")
	git(t, "init", "--bare", remote)

	clone = NewGit(filepath.Join(t.TempDir(), "dotfiles"))
	require.NoError(t, clone.Clone(ctx, remote, clone.Dir()))
	writeFile(t, clone.Dir(), "manifest.json", "{}\n")
	require.NoError(t, clone.Commit(ctx, "Initial"))
	git(t, "-C", clone.Dir(), "push", "-u", "origin", "HEAD")
	return remote, clone
}

func TestGitInitAndCommit(t *testing.T) {
	requireGit(t)
	ctx := context.Background()

	g := NewGit(filepath.Join(t.TempDir(), "dotfiles"))
	require.NoError(t, g.Init(ctx))
	assert.DirExists(t, filepath.Join(g.Dir(), ".git"))

	writeFile(t, g.Dir(), ".vimrc", "set nu")
	status, err := g.Status(ctx)
	require.NoError(t, err)
	assert.Contains(t, status, ".vimrc")

	require.NoError(t, g.Commit(ctx, "Track new file: .vimrc"))
	assert.Equal(t, "Track new file: .vimrc", git(t, "-C", g.Dir(), "log", "-1", "--format=%s"))

	status, err = g.Status(ctx)
	require.NoError(t, err)
	assert.Empty(t, status)
}

func TestGitCommitWithNothingToCommit(t *testing.T) {
	requireGit(t)
	ctx := context.Background()

	g := NewGit(filepath.Join(t.TempDir(), "dotfiles"))
	require.NoError(t, g.Init(ctx))
	writeFile(t, g.Dir(), ".vimrc", "set nu")
	require.NoError(t, g.Commit(ctx, "first"))

	assert.NoError(t, g.Commit(ctx, "second"))
	assert.Equal(t, "first", git(t, "-C", g.Dir(), "log", "-1", "--format=%s"))
}

func TestGitCommitRecordsDeletions(t *testing.T) {
	requireGit(t)
	ctx := context.Background()

	g := NewGit(filepath.Join(t.TempDir(), "dotfiles"))
	require.NoError(t, g.Init(ctx))
	writeFile(t, g.Dir(), ".vimrc", "set nu")
	require.NoError(t, g.Commit(ctx, "Track new file: .vimrc"))

	require.NoError(t, os.Remove(filepath.Join(g.Dir(), ".vimrc")))
	require.NoError(t, g.Commit(ctx, "Stop tracking file: .vimrc"))
	assert.Empty(t, git(t, "-C", g.Dir(), "ls-files"))
}

func TestGitPushPullAndDivergence(t *testing.T) {
	requireGit(t)
	ctx := context.Background()
	remote, first := newRemote(t)

	second := NewGit(filepath.Join(t.TempDir(), "laptop"))
	require.NoError(t, second.Clone(ctx, remote, second.Dir()))

	writeFile(t, first.Dir(), ".bashrc", "alias ll='ls -l'")
	require.NoError(t, first.Commit(ctx, "Track new file: .bashrc"))

	ahead, behind, err := first.Divergence(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, ahead)
	assert.Equal(t, 0, behind)

	require.NoError(t, first.Push(ctx))
	ahead, behind, err = first.Divergence(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, ahead)
	assert.Equal(t, 0, behind)

	ahead, behind, err = second.Divergence(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, ahead)
	assert.Equal(t, 1, behind)

	require.NoError(t, second.Pull(ctx))
	assert.FileExists(t, filepath.Join(second.Dir(), ".bashrc"))
}

func TestGitFailuresAreBackendErrors(t *testing.T) {
	requireGit(t)
	ctx := context.Background()

	g := NewGit(filepath.Join(t.TempDir(), "not-a-repo"))
	require.NoError(t, os.MkdirAll(g.Dir(), 0755))

	err := g.Pull(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrBackend))
	assert.Contains(t, err.Error(), "git pull failed")

	err = g.Clone(ctx, filepath.Join(t.TempDir(), "missing"), filepath.Join(t.TempDir(), "clone"))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrBackend))
}

func TestGitHonoursCancelledContext(t *testing.T) {
	requireGit(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := NewGit(filepath.Join(t.TempDir(), "dotfiles"))
	err := g.Init(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSubcommand(t *testing.T) {
	assert.Equal(t, "pull", subcommand([]string{"-C", "/repo", "pull", "--rebase"}))
	assert.Equal(t, "clone", subcommand([]string{"clone", "url", "path"}))
	assert.Equal(t, "", subcommand([]string{"-C", "/repo"}))
}
