package install

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arthur-debert/dotman/pkg/errors"
	"github.com/arthur-debert/dotman/pkg/linker"
	"github.com/arthur-debert/dotman/pkg/paths"
	"github.com/arthur-debert/dotman/pkg/testutil"
	"github.com/arthur-debert/dotman/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrchestrator(env *testutil.TestEnvironment, jobs int) *Orchestrator {
	return New(Options{
		FS:     env.FS,
		Paths:  env.Paths,
		Store:  env.Store,
		Linker: env.Linker,
		Cloner: env.Backend,
		Jobs:   jobs,
	})
}

// seed writes repository copies for keys and records them in the manifest.
func seed(env *testutil.TestEnvironment, keys ...string) {
	for _, key := range keys {
		env.WriteRepo(key, "content of "+key)
	}
	env.AddEntries(keys...)
}

func TestRunLinksEveryEntry(t *testing.T) {
	env := testutil.NewEnv(t)
	seed(env, ".vimrc", ".bashrc", ".config/git/config")
	env.WriteHome(".bashrc", "local bashrc")

	summary, err := newOrchestrator(env, 1).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, summary.OK())
	assert.Equal(t, 3, summary.Linked)
	assert.Equal(t, 0, summary.Skipped)
	assert.Empty(t, summary.Unrecoverable)

	keys := make([]string, 0, len(summary.Outcomes))
	for _, out := range summary.Outcomes {
		keys = append(keys, out.Key)
	}
	assert.Equal(t, []string{".bashrc", ".config/git/config", ".vimrc"}, keys)

	env.RequireLinked(".vimrc")
	env.RequireLinked(".bashrc")
	env.RequireLinked(".config/git/config")
	env.RequireRegular(env.HomePath(".bashrc")+paths.BackupSuffix, "local bashrc")
}

func TestRunIsIdempotent(t *testing.T) {
	env := testutil.NewEnv(t)
	seed(env, ".vimrc", ".zshrc")
	o := newOrchestrator(env, 1)

	_, err := o.Run(context.Background())
	require.NoError(t, err)
	before := env.Snapshot()

	summary, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Linked)
	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, before, env.Snapshot())
}

func TestRunContinuesPastFailures(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	env := testutil.NewEnv(t)
	seed(env, ".vimrc", ".config/locked/app.conf", ".zshrc")

	locked := env.HomePath(".config/locked")
	require.NoError(t, os.MkdirAll(locked, 0755))
	require.NoError(t, os.Chmod(locked, 0555))
	t.Cleanup(func() { _ = os.Chmod(locked, 0755) })

	summary, err := newOrchestrator(env, 1).Run(context.Background())
	require.NoError(t, err)

	assert.False(t, summary.OK())
	assert.Equal(t, 2, summary.Linked)
	assert.Equal(t, 1, summary.Failed)

	failures := summary.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, ".config/locked/app.conf", failures[0].Key)
	assert.True(t, errors.IsErrorCode(failures[0].Err, errors.ErrLinkFailed))
	assert.Contains(t, failures[0].Err.Error(), "app.conf")

	env.RequireLinked(".vimrc")
	env.RequireLinked(".zshrc")
	assert.NoFileExists(t, env.HomePath(".config/locked/app.conf"))
}

// refusingFS fails Symlink for a single link path.
type refusingFS struct {
	types.FS
	refuse string
}

func (r *refusingFS) Symlink(oldname, newname string) error {
	if newname == r.refuse {
		return fmt.Errorf("symlink refused for %s", newname)
	}
	return r.FS.Symlink(oldname, newname)
}

func TestRunContinuesPastInjectedFailure(t *testing.T) {
	env := testutil.NewEnv(t)
	seed(env, ".vimrc", ".config/app/app.conf", ".zshrc")

	fs := &refusingFS{FS: env.FS, refuse: env.HomePath(".config/app/app.conf")}
	o := New(Options{
		FS:     env.FS,
		Paths:  env.Paths,
		Store:  env.Store,
		Linker: linker.New(linker.Options{FS: fs, Paths: env.Paths}),
		Jobs:   3,
	})
	summary, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, summary.OK())
	assert.Equal(t, 2, summary.Linked)
	assert.Equal(t, 1, summary.Failed)
	assert.Empty(t, summary.Unrecoverable)

	failures := summary.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, ".config/app/app.conf", failures[0].Key)
	assert.True(t, errors.IsErrorCode(failures[0].Err, errors.ErrLinkFailed))

	env.RequireLinked(".vimrc")
	env.RequireLinked(".zshrc")
	assert.NoFileExists(t, env.HomePath(".config/app/app.conf"))
}

func TestRunWithoutManifestWritesNothing(t *testing.T) {
	env := testutil.NewEnv(t)
	require.NoError(t, os.RemoveAll(env.RepoDir))

	summary, err := newOrchestrator(env, 1).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, summary.OK())
	assert.Empty(t, summary.Outcomes)
	assert.NoDirExists(t, env.RepoDir)
}

func TestRunReportsMissingRepositoryCopy(t *testing.T) {
	env := testutil.NewEnv(t)
	seed(env, ".vimrc")
	env.AddEntries(".gone")
	env.WriteHome(".gone", "still here")

	summary, err := newOrchestrator(env, 1).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Linked)
	assert.Equal(t, 1, summary.Failed)
	assert.True(t, errors.IsErrorCode(summary.Failures()[0].Err, errors.ErrIO))
	env.RequireRegular(env.HomePath(".gone"), "still here")
}

func TestRunConcurrently(t *testing.T) {
	env := testutil.NewEnv(t)
	var keys []string
	for i := 0; i < 24; i++ {
		keys = append(keys, fmt.Sprintf(".config/app%02d/config", i))
	}
	seed(env, keys...)

	summary, err := newOrchestrator(env, 4).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 24, summary.Linked)
	for i, out := range summary.Outcomes {
		assert.Equal(t, keys[i], out.Key)
		env.RequireLinked(out.Key)
	}
}

func TestRunWithCancelledContext(t *testing.T) {
	env := testutil.NewEnv(t)
	seed(env, ".vimrc", ".zshrc")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := newOrchestrator(env, 1).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Failed)
	for _, out := range summary.Outcomes {
		assert.ErrorIs(t, out.Err, context.Canceled)
	}
	assert.NoFileExists(t, env.HomePath(".vimrc"))
}

func TestRunManifestErrorIsReturned(t *testing.T) {
	env := testutil.NewEnv(t)
	require.NoError(t, os.WriteFile(env.Paths.ManifestPath(), []byte("not json"), 0644))

	summary, err := newOrchestrator(env, 1).Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, summary)
	assert.True(t, errors.IsErrorCode(err, errors.ErrFormat))
}

// breakingFS refuses to create links and to restore backups.
type breakingFS struct {
	types.FS
}

func (b *breakingFS) Symlink(oldname, newname string) error {
	return fmt.Errorf("symlink refused")
}

func (b *breakingFS) Rename(oldpath, newpath string) error {
	if strings.HasSuffix(oldpath, paths.BackupSuffix) {
		return fmt.Errorf("rename refused")
	}
	return b.FS.Rename(oldpath, newpath)
}

func TestRunListsUnrecoverableEntries(t *testing.T) {
	env := testutil.NewEnv(t)
	seed(env, ".vimrc")
	env.WriteHome(".vimrc", "original")

	fs := &breakingFS{FS: env.FS}
	o := New(Options{
		FS:     env.FS,
		Paths:  env.Paths,
		Store:  env.Store,
		Linker: linker.New(linker.Options{FS: fs, Paths: env.Paths}),
	})
	summary, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{".vimrc"}, summary.Unrecoverable)
	env.RequireRegular(env.HomePath(".vimrc")+paths.BackupSuffix, "original")
}

func TestBootstrapClonesMissingRepository(t *testing.T) {
	env := testutil.NewEnv(t)
	require.NoError(t, os.RemoveAll(env.RepoDir))

	env.Backend.CloneFiles["manifest.json"] = `{".vimrc": {"source": ".vimrc"}}`
	env.Backend.CloneFiles[".vimrc"] = "set nu"

	summary, err := newOrchestrator(env, 1).Bootstrap(context.Background(), "git@example.com:me/dotfiles.git")
	require.NoError(t, err)

	assert.Equal(t, []string{"Clone(git@example.com:me/dotfiles.git)"}, env.Backend.Calls())
	assert.Equal(t, 1, summary.Linked)
	env.RequireLinked(".vimrc")
	assert.Equal(t, "set nu", env.ReadFile(env.HomePath(".vimrc")))
}

func TestBootstrapUsesExistingRepository(t *testing.T) {
	env := testutil.NewEnv(t)
	seed(env, ".vimrc")

	summary, err := newOrchestrator(env, 1).Bootstrap(context.Background(), "git@example.com:me/dotfiles.git")
	require.NoError(t, err)

	assert.Empty(t, env.Backend.Calls())
	assert.Equal(t, 1, summary.Linked)
}

func TestBootstrapFailures(t *testing.T) {
	t.Run("no url", func(t *testing.T) {
		env := testutil.NewEnv(t)
		require.NoError(t, os.RemoveAll(env.RepoDir))

		_, err := newOrchestrator(env, 1).Bootstrap(context.Background(), "")
		assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
	})

	t.Run("clone fails", func(t *testing.T) {
		env := testutil.NewEnv(t)
		require.NoError(t, os.RemoveAll(env.RepoDir))
		env.Backend.FailOn("Clone", errors.New(errors.ErrBackend, "git clone failed"))

		_, err := newOrchestrator(env, 1).Bootstrap(context.Background(), "https://example.com/dotfiles.git")
		assert.True(t, errors.IsErrorCode(err, errors.ErrBackend))
		assert.NoDirExists(t, filepath.Join(env.RepoDir, ".git"))
	})
}
