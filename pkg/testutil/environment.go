// pkg/testutil/environment.go
// PURPOSE: Isolated home + repository directories with wired dotman components

package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/dotman/pkg/filesystem"
	"github.com/arthur-debert/dotman/pkg/linker"
	"github.com/arthur-debert/dotman/pkg/manifest"
	"github.com/arthur-debert/dotman/pkg/paths"
	"github.com/arthur-debert/dotman/pkg/types"
	"github.com/stretchr/testify/require"
)

// TestEnvironment is a temp home directory with the repository at ~/dotfiles.
type TestEnvironment struct {
	HomeDir string
	RepoDir string

	FS       types.FS
	Paths    *paths.Paths
	Store    *manifest.Store
	Backend  *FakeBackend
	Linker   *linker.Reconciler
	StateDir string

	t *testing.T
}

// NewEnv creates a TestEnvironment and points HOME, XDG_CONFIG_HOME,
// XDG_STATE_HOME and DOTMAN_CONFIG_DIR inside it for the test's duration.
func NewEnv(t *testing.T) *TestEnvironment {
	t.Helper()

	root := t.TempDir()
	home := filepath.Join(root, "home")
	repo := filepath.Join(home, paths.DefaultRepositoryDir)
	state := filepath.Join(root, "state")
	for _, dir := range []string{home, repo, state} {
		require.NoError(t, os.MkdirAll(dir, 0755))
	}

	t.Setenv(paths.EnvHome, home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("XDG_STATE_HOME", state)
	t.Setenv(paths.EnvConfigDir, filepath.Join(home, ".config", paths.DotmanDirName))
	t.Setenv(paths.EnvRepositoryPath, "")

	p, err := paths.New(home, repo)
	require.NoError(t, err)

	fs := filesystem.NewOS()
	return &TestEnvironment{
		HomeDir:  p.Home(),
		RepoDir:  p.Repository(),
		FS:       fs,
		Paths:    p,
		Store:    manifest.NewStore(fs, p.ManifestPath()),
		Backend:  NewFakeBackend(),
		Linker:   linker.New(linker.Options{FS: fs, Paths: p}),
		StateDir: state,
		t:        t,
	}
}

// HomePath returns the absolute home path of key.
func (env *TestEnvironment) HomePath(key string) string {
	return filepath.Join(env.HomeDir, filepath.FromSlash(key))
}

// RepoPath returns the absolute repository path of source.
func (env *TestEnvironment) RepoPath(source string) string {
	return filepath.Join(env.RepoDir, filepath.FromSlash(source))
}

// WriteHome creates a regular file under home and returns its path.
func (env *TestEnvironment) WriteHome(key, content string) string {
	env.t.Helper()
	return writeFile(env.t, env.HomePath(key), content)
}

// WriteRepo creates a file in the repository and returns its path.
func (env *TestEnvironment) WriteRepo(source, content string) string {
	env.t.Helper()
	return writeFile(env.t, env.RepoPath(source), content)
}

// ReadFile returns the content at path, following links.
func (env *TestEnvironment) ReadFile(path string) string {
	env.t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(env.t, err)
	return string(data)
}

// Manifest loads the manifest from disk.
func (env *TestEnvironment) Manifest() *manifest.Manifest {
	env.t.Helper()
	m, err := env.Store.LoadOrCreate()
	require.NoError(env.t, err)
	return m
}

// AddEntries writes the given keys to the manifest with default entries.
func (env *TestEnvironment) AddEntries(keys ...string) {
	env.t.Helper()
	m := env.Manifest()
	for _, key := range keys {
		require.NoError(env.t, m.Add(key, manifest.NewEntry(key)))
	}
	require.NoError(env.t, env.Store.Save(m))
}

// RequireLinked fails the test unless key's home path is a link to its
// repository copy.
func (env *TestEnvironment) RequireLinked(key string) {
	env.t.Helper()
	target, err := os.Readlink(env.HomePath(key))
	require.NoError(env.t, err, "%s should be a link", key)
	require.Equal(env.t, env.RepoPath(key), target)
}

// RequireRegular fails the test unless path is a regular file holding content.
func (env *TestEnvironment) RequireRegular(path, content string) {
	env.t.Helper()
	info, err := os.Lstat(path)
	require.NoError(env.t, err)
	require.True(env.t, info.Mode().IsRegular(), "%s should be a regular file", path)
	require.Equal(env.t, content, env.ReadFile(path))
}

// Snapshot lists every path below home (relative, slash separated) with a
// marker for links, for before/after comparisons.
func (env *TestEnvironment) Snapshot() map[string]string {
	env.t.Helper()
	snap := make(map[string]string)
	err := filepath.Walk(env.HomeDir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(env.HomeDir, p)
		switch {
		case info.Mode()&os.ModeSymlink != 0:
			target, _ := os.Readlink(p)
			snap[filepath.ToSlash(rel)] = "-> " + target
		case info.IsDir():
			snap[filepath.ToSlash(rel)] = "dir"
		default:
			data, _ := os.ReadFile(p)
			snap[filepath.ToSlash(rel)] = string(data)
		}
		return nil
	})
	require.NoError(env.t, err)
	return snap
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
