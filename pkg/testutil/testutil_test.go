package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnv(t *testing.T) {
	env := NewEnv(t)

	assert.Equal(t, env.HomeDir, os.Getenv("HOME"))
	assert.Equal(t, filepath.Join(env.HomeDir, "dotfiles"), env.RepoDir)
	assert.DirExists(t, env.RepoDir)

	path := env.WriteHome(".config/app/settings", "x=1")
	env.RequireRegular(path, "x=1")

	env.AddEntries(".vimrc")
	assert.True(t, env.Manifest().Has(".vimrc"))
}

func TestSnapshotMarksLinks(t *testing.T) {
	env := NewEnv(t)
	repoPath := env.WriteRepo(".vimrc", "set nu")
	require.NoError(t, os.Symlink(repoPath, env.HomePath(".vimrc")))

	snap := env.Snapshot()
	assert.Equal(t, "-> "+repoPath, snap[".vimrc"])
	assert.Equal(t, "dir", snap["dotfiles"])
	assert.Equal(t, "set nu", snap["dotfiles/.vimrc"])
}

func TestFakeBackendRecordsCalls(t *testing.T) {
	ctx := context.Background()
	fake := NewFakeBackend()

	require.NoError(t, fake.Commit(ctx, "Track new file: .vimrc"))
	require.NoError(t, fake.Pull(ctx))

	fake.FailOn("Push", fmt.Errorf("remote rejected"))
	assert.EqualError(t, fake.Push(ctx), "remote rejected")

	fake.SetStatus(" M .vimrc")
	status, err := fake.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, " M .vimrc", status)

	assert.Equal(t, []string{"Commit(Track new file: .vimrc)", "Pull", "Push", "Status"}, fake.Calls())
	assert.Equal(t, []string{"Track new file: .vimrc"}, fake.Commits())
}

func TestFakeBackendCloneWritesFiles(t *testing.T) {
	fake := NewFakeBackend()
	fake.CloneFiles["manifest.json"] = "{}"
	fake.CloneFiles[".config/git/config"] = "[user]"

	dest := filepath.Join(t.TempDir(), "dotfiles")
	require.NoError(t, fake.Clone(context.Background(), "git@example.com:me/dotfiles", dest))

	assert.FileExists(t, filepath.Join(dest, "manifest.json"))
	assert.FileExists(t, filepath.Join(dest, ".config", "git", "config"))
}

func TestFakeRemoteBackend(t *testing.T) {
	fake := NewFakeRemoteBackend(2, 1)
	ahead, behind, err := fake.Divergence(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, ahead)
	assert.Equal(t, 1, behind)
}
