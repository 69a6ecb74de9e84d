package commands_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/arthur-debert/dotman/pkg/commands"
	"github.com/arthur-debert/dotman/pkg/errors"
	"github.com/arthur-debert/dotman/pkg/testutil"
	"github.com/arthur-debert/dotman/pkg/ui/display"
	"github.com/arthur-debert/dotman/pkg/vcs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func open(t *testing.T, env *testutil.TestEnvironment, backend vcs.Backend, overrides map[string]interface{}) *commands.Runtime {
	t.Helper()
	rt, err := commands.Open(commands.Options{
		Home:      env.HomeDir,
		Backend:   backend,
		Overrides: overrides,
	})
	require.NoError(t, err)
	return rt
}

func TestOpenWiresConfig(t *testing.T) {
	env := testutil.NewEnv(t)
	rt := open(t, env, env.Backend, map[string]interface{}{
		"install.jobs":        4,
		"link.case_sensitive": true,
	})

	assert.Equal(t, env.RepoDir, rt.Paths.Repository())
	assert.Equal(t, env.HomeDir, rt.Paths.Home())
	assert.Equal(t, 4, rt.Config.Install.Jobs)
	assert.True(t, rt.Config.Link.CaseSensitive)
	assert.Equal(t, env.Store.Path(), rt.Manifests.Path())
}

func TestOpenRejectsBadConfig(t *testing.T) {
	env := testutil.NewEnv(t)
	_, err := commands.Open(commands.Options{
		Home:      env.HomeDir,
		Backend:   env.Backend,
		Overrides: map[string]interface{}{"output.format": "fancy"},
	})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigValid))
}

func TestInit(t *testing.T) {
	env := testutil.NewEnv(t)
	require.NoError(t, os.RemoveAll(env.RepoDir))
	rt := open(t, env, env.Backend, nil)

	res, err := rt.Init(context.Background())
	require.NoError(t, err)

	assert.DirExists(t, env.RepoDir)
	assert.Equal(t, "{}\n", env.ReadFile(env.Store.Path()))
	assert.Equal(t, []string{"Init", "Commit(" + commands.InitCommitMessage + ")"}, env.Backend.Calls())
	assert.Contains(t, res.Message, env.RepoDir)

	// Again, keeping what is there.
	env.AddEntries(".vimrc")
	res, err = rt.Init(context.Background())
	require.NoError(t, err)
	assert.Contains(t, res.Message, "1 tracked")
	assert.True(t, env.Manifest().Has(".vimrc"))
}

func TestInitCommitDisabledAndFailures(t *testing.T) {
	env := testutil.NewEnv(t)
	rt := open(t, env, env.Backend, map[string]interface{}{"commit.enabled": false})

	_, err := rt.Init(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Init"}, env.Backend.Calls())

	env.Backend.FailOn("Init", errors.New(errors.ErrBackend, "git missing"))
	_, err = rt.Init(context.Background())
	assert.True(t, errors.IsErrorCode(err, errors.ErrBackend))
}

func TestInitCommitFailureIsAWarning(t *testing.T) {
	env := testutil.NewEnv(t)
	env.Backend.FailOn("Commit", fmt.Errorf("no identity"))
	rt := open(t, env, env.Backend, nil)

	res, err := rt.Init(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "no identity")
}

func TestTrackAndUntrack(t *testing.T) {
	env := testutil.NewEnv(t)
	rt := open(t, env, env.Backend, nil)
	vimrc := env.WriteHome(".vimrc", "set nu")
	gitconfig := env.WriteHome(".config/git/config", "[user]")

	res, err := rt.Track(context.Background(), []string{vimrc, gitconfig})
	require.NoError(t, err)
	assert.Equal(t, "2 files tracked", res.Message)
	env.RequireLinked(".vimrc")
	env.RequireLinked(".config/git/config")
	assert.Equal(t, "set nu", env.ReadFile(vimrc))
	assert.Equal(t, []string{"Track new file: .vimrc", "Track new file: .config/git/config"}, env.Backend.Commits())

	list, err := rt.List()
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	assert.Equal(t, ".config/git/config", list.Items[0].Key)

	res, err = rt.Untrack(context.Background(), []string{vimrc})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count(display.StatusUntracked))
	env.RequireRegular(vimrc, "set nu")
	assert.False(t, env.Manifest().Has(".vimrc"))
	assert.True(t, env.Manifest().Has(".config/git/config"))
}

func TestTrackStopsAtFirstFailure(t *testing.T) {
	env := testutil.NewEnv(t)
	rt := open(t, env, env.Backend, nil)
	first := env.WriteHome(".first", "1")
	last := env.WriteHome(".last", "3")

	res, err := rt.Track(context.Background(), []string{first, env.HomePath(".missing"), last})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))

	require.Len(t, res.Items, 1)
	assert.Equal(t, ".first", res.Items[0].Key)
	assert.False(t, env.Manifest().Has(".last"))
	env.RequireRegular(last, "3")
}

func TestUntrackStopsAtFirstFailure(t *testing.T) {
	env := testutil.NewEnv(t)
	rt := open(t, env, env.Backend, nil)

	res, err := rt.Untrack(context.Background(), []string{env.HomePath(".unknown")})
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotTracked))
	assert.Empty(t, res.Items)
}

func TestTrackCommitDisabled(t *testing.T) {
	env := testutil.NewEnv(t)
	rt := open(t, env, env.Backend, map[string]interface{}{"commit.enabled": false})

	_, err := rt.Track(context.Background(), []string{env.WriteHome(".vimrc", "set nu")})
	require.NoError(t, err)
	assert.Empty(t, env.Backend.Calls())
}

func TestInstall(t *testing.T) {
	env := testutil.NewEnv(t)
	env.WriteRepo(".vimrc", "set nu")
	env.WriteRepo(".zshrc", "bindkey -v")
	env.AddEntries(".vimrc", ".zshrc")
	rt := open(t, env, env.Backend, nil)

	res, err := rt.Install(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count(display.StatusLinked))
	env.RequireLinked(".vimrc")
	env.RequireLinked(".zshrc")
	assert.NotContains(t, env.Backend.Calls(), "Clone")

	// A second run changes nothing.
	res, err = rt.Install(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count(display.StatusSkipped))
}

func TestInstallReportsFailures(t *testing.T) {
	env := testutil.NewEnv(t)
	env.WriteRepo(".vimrc", "set nu")
	env.AddEntries(".vimrc", ".gone")
	rt := open(t, env, env.Backend, nil)

	res, err := rt.Install(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrLinkFailed))
	assert.Contains(t, err.Error(), "1 of 2 entries failed")

	require.NotNil(t, res)
	assert.Equal(t, 1, res.Count(display.StatusLinked))
	assert.Equal(t, 1, res.Count(display.StatusFailed))
	env.RequireLinked(".vimrc")
}

func TestInstallClonesFromConfiguredRemote(t *testing.T) {
	env := testutil.NewEnv(t)
	env.Backend.CloneFiles = map[string]string{
		"manifest.json": `{".vimrc": {"source": ".vimrc"}}`,
		".vimrc":        "set nu",
	}
	rt := open(t, env, env.Backend, map[string]interface{}{
		"repository.remote": "https://example.com/dots.git",
	})

	res, err := rt.Install(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Clone(https://example.com/dots.git)"}, env.Backend.Calls())
	assert.Equal(t, 1, res.Count(display.StatusLinked))
	env.RequireLinked(".vimrc")
}

func TestInstallArgumentWinsOverConfig(t *testing.T) {
	env := testutil.NewEnv(t)
	env.Backend.CloneFiles = map[string]string{"manifest.json": "{}"}
	rt := open(t, env, env.Backend, map[string]interface{}{
		"repository.remote": "https://example.com/config.git",
	})

	_, err := rt.Install(context.Background(), "https://example.com/arg.git")
	require.NoError(t, err)
	assert.Equal(t, []string{"Clone(https://example.com/arg.git)"}, env.Backend.Calls())
}

func TestInstallWithoutRepositoryOrRemote(t *testing.T) {
	env := testutil.NewEnv(t)
	rt := open(t, env, env.Backend, nil)

	res, err := rt.Install(context.Background(), "")
	assert.Nil(t, res)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestSync(t *testing.T) {
	env := testutil.NewEnv(t)
	rt := open(t, env, env.Backend, nil)

	res, err := rt.Sync(context.Background())
	require.NoError(t, err)
	assert.Contains(t, res.Message, "in sync")
	assert.Equal(t, []string{"Pull", "Push"}, env.Backend.Calls())

	env.Backend.FailOn("Pull", errors.New(errors.ErrBackend, "conflict"))
	_, err = rt.Sync(context.Background())
	assert.True(t, errors.IsErrorCode(err, errors.ErrBackend))
}

func TestStatus(t *testing.T) {
	env := testutil.NewEnv(t)
	backend := testutil.NewFakeRemoteBackend(0, 2)
	backend.SetStatus("?? notes.txt")
	env.WriteRepo(".vimrc", "set nu")
	env.WriteRepo(".zshrc", "bindkey -v")
	env.AddEntries(".vimrc", ".zshrc", ".gone")
	require.NoError(t, os.Symlink(env.RepoPath(".vimrc"), env.HomePath(".vimrc")))
	rt := open(t, env, backend, nil)

	res, err := rt.Status(context.Background())
	require.NoError(t, err)

	statuses := map[string]string{}
	for _, item := range res.Items {
		statuses[item.Key] = item.Status
	}
	assert.Equal(t, map[string]string{
		".vimrc": display.StatusLinked,
		".zshrc": display.StatusMissing,
		".gone":  display.StatusMissing,
	}, statuses)

	require.NotNil(t, res.Repository)
	assert.Equal(t, []string{"?? notes.txt"}, res.Repository.Changes)
	assert.Equal(t, 2, res.Repository.Behind)
	assert.False(t, res.Repository.Synced())
}

func TestStatusWithBackendFailure(t *testing.T) {
	env := testutil.NewEnv(t)
	env.Backend.FailOn("Status", errors.New(errors.ErrBackend, "not a git repository"))
	rt := open(t, env, env.Backend, nil)

	res, err := rt.Status(context.Background())
	require.NoError(t, err)
	assert.Nil(t, res.Repository)
	assert.Equal(t, "No files are tracked.", res.Message)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "not a git repository")
}

func TestStatusBadManifest(t *testing.T) {
	env := testutil.NewEnv(t)
	require.NoError(t, os.WriteFile(env.Store.Path(), []byte("[not an object]"), 0644))
	rt := open(t, env, env.Backend, nil)

	_, err := rt.Status(context.Background())
	assert.True(t, errors.IsErrorCode(err, errors.ErrFormat))

	_, err = rt.List()
	assert.True(t, errors.IsErrorCode(err, errors.ErrFormat))
}
