package tracking

import (
	"context"
	"os"
	"path/filepath"

	"github.com/arthur-debert/dotman/pkg/errors"
	"github.com/arthur-debert/dotman/pkg/filesystem"
	"github.com/arthur-debert/dotman/pkg/linker"
	"github.com/arthur-debert/dotman/pkg/logging"
	"github.com/arthur-debert/dotman/pkg/manifest"
	"github.com/arthur-debert/dotman/pkg/paths"
	"github.com/arthur-debert/dotman/pkg/types"
	"github.com/arthur-debert/dotman/pkg/vcs"
	"github.com/rs/zerolog"
)

// Commit message prefixes recorded in the repository history.
const (
	TrackCommitPrefix   = "Track new file: "
	UntrackCommitPrefix = "Stop tracking file: "
)

// Options holds the engine's collaborators.
type Options struct {
	FS      types.FS
	Paths   *paths.Paths
	Store   *manifest.Store
	Linker  *linker.Reconciler
	Backend vcs.Backend
	// SkipCommit leaves changes uncommitted.
	SkipCommit bool
	Logger     zerolog.Logger
}

// Engine implements the track and untrack operations.
type Engine struct {
	fs         types.FS
	paths      *paths.Paths
	store      *manifest.Store
	linker     *linker.Reconciler
	backend    vcs.Backend
	skipCommit bool
	logger     zerolog.Logger
}

// TrackResult describes a file that is now tracked.
type TrackResult struct {
	Key      string
	HomePath string
	RepoPath string
	Entry    manifest.Entry
	// CommitErr is set when the change is on disk but could not be committed.
	CommitErr error
}

// UntrackResult describes a file that is no longer tracked.
type UntrackResult struct {
	Key      string
	HomePath string
	// CommitErr is set when the change is on disk but could not be committed.
	CommitErr error
}

// FileState is the link state of one manifest entry.
type FileState struct {
	Key         string
	Entry       manifest.Entry
	HomePath    string
	RepoPath    string
	State       linker.LinkState
	RepoPresent bool
	Err         error
}

// New creates an Engine.
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = logging.GetLogger("tracking")
	}

	fs := opts.FS
	if fs == nil {
		fs = filesystem.NewOS()
	}

	l := opts.Linker
	if l == nil {
		l = linker.New(linker.Options{FS: fs, Paths: opts.Paths})
	}

	store := opts.Store
	if store == nil {
		store = manifest.NewStore(fs, opts.Paths.ManifestPath())
	}

	return &Engine{
		fs:         fs,
		paths:      opts.Paths,
		store:      store,
		linker:     l,
		backend:    opts.Backend,
		skipCommit: opts.SkipCommit,
		logger:     logger,
	}
}

// Track starts tracking the regular file at path.
func (e *Engine) Track(ctx context.Context, path string) (*TrackResult, error) {
	done := logging.LogOperationStart(e.logger, "track")
	defer done()

	key, homePath, err := e.paths.KeyFor(path)
	if err != nil {
		return nil, err
	}
	if e.paths.IsInRepository(homePath) {
		return nil, errors.Newf(errors.ErrInvalidInput, "%s is inside the repository %s", homePath, e.paths.Repository()).
			WithDetail("key", key)
	}
	logger := e.logger.With().Str("key", key).Str("home_path", homePath).Logger()

	m, err := e.store.LoadOrCreate()
	if err != nil {
		return nil, err
	}
	if m.Has(key) {
		return nil, errors.Newf(errors.ErrAlreadyTracked, "%s is already tracked", key).WithDetail("key", key)
	}

	info, err := e.fs.Lstat(homePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(err, errors.ErrInvalidInput, "%s does not exist", homePath).WithDetail("key", key)
		}
		return nil, errors.Wrapf(err, errors.ErrIO, "failed to stat %s", homePath).WithDetail("key", key)
	}
	if !info.Mode().IsRegular() {
		return nil, errors.Newf(errors.ErrInvalidInput, "%s is not a regular file", homePath).WithDetail("key", key)
	}

	repoPath, err := e.paths.RepoPath(key)
	if err != nil {
		return nil, err
	}
	if _, err := e.fs.Lstat(repoPath); err == nil {
		return nil, errors.Newf(errors.ErrConflict,
			"%s already exists in the repository; move it away before tracking %s", repoPath, key).
			WithDetail("key", key).
			WithDetail("repo_path", repoPath)
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, errors.ErrIO, "failed to stat %s", repoPath).WithDetail("key", key)
	}

	if err := filesystem.CopyFile(e.fs, homePath, repoPath); err != nil {
		return nil, errors.Wrapf(err, errors.ErrIO, "failed to copy %s into the repository", key).WithDetail("key", key)
	}
	logger.Debug().Str("repo_path", repoPath).Msg("Copied into repository")

	entry := manifest.NewEntry(key)
	if err := m.Add(key, entry); err != nil {
		e.discardRepoCopy(repoPath)
		return nil, err
	}

	backup, err := e.linker.ReplaceWithLink(homePath, repoPath)
	if err != nil {
		if errors.HasErrorCode(err, errors.ErrLinkUnrecoverable) {
			// The repository copy is the only other intact copy; keep it.
			logger.Error().Err(err).Str("backup", backup).Msg("Original could not be restored")
		} else {
			e.discardRepoCopy(repoPath)
		}
		return nil, err
	}

	if err := e.store.Save(m); err != nil {
		logger.Warn().Err(err).Msg("Manifest save failed, rolling back")
		if rbErr := e.rollbackLink(homePath, backup); rbErr != nil {
			return nil, errors.Wrapf(err, errors.ErrLinkUnrecoverable,
				"failed to record %s and to restore it (%v); original content now at %s", key, rbErr, backup).
				WithDetail("key", key).
				WithDetail("backup", backup)
		}
		e.discardRepoCopy(repoPath)
		return nil, errors.Wrapf(err, errors.ErrIO, "failed to record %s in the manifest; original restored", key).
			WithDetail("key", key)
	}

	if err := e.fs.Remove(backup); err != nil && !os.IsNotExist(err) {
		logger.Warn().Err(err).Str("backup", backup).Msg("Failed to remove backup")
	}

	result := &TrackResult{Key: key, HomePath: homePath, RepoPath: repoPath, Entry: entry}
	result.CommitErr = e.commit(ctx, TrackCommitPrefix+key)
	logger.Info().Msg("Tracked")
	return result, nil
}

// Untrack stops tracking path and puts its content back as a regular file.
func (e *Engine) Untrack(ctx context.Context, path string) (*UntrackResult, error) {
	done := logging.LogOperationStart(e.logger, "untrack")
	defer done()

	key, homePath, err := e.paths.KeyFor(path)
	if err != nil {
		return nil, err
	}
	logger := e.logger.With().Str("key", key).Str("home_path", homePath).Logger()

	m, err := e.store.Load()
	if err != nil {
		return nil, err
	}
	entry, ok := m.Get(key)
	if !ok {
		return nil, errors.Newf(errors.ErrNotTracked, "%s is not tracked", key).WithDetail("key", key)
	}

	repoPath, err := e.paths.RepoPath(entry.Source)
	if err != nil {
		return nil, err
	}

	var oldTarget string
	info, err := e.fs.Lstat(homePath)
	switch {
	case err == nil && info.Mode()&os.ModeSymlink != 0:
		if oldTarget, err = e.fs.Readlink(homePath); err != nil {
			return nil, errors.Wrapf(err, errors.ErrIO, "failed to read link %s", homePath).WithDetail("key", key)
		}
		if err := e.fs.Remove(homePath); err != nil {
			return nil, errors.Wrapf(err, errors.ErrIO, "failed to remove link %s", homePath).WithDetail("key", key)
		}
	case err == nil:
		return nil, errors.Newf(errors.ErrConflict,
			"%s is not a link; move it away before untracking %s", homePath, key).WithDetail("key", key)
	case !os.IsNotExist(err):
		return nil, errors.Wrapf(err, errors.ErrIO, "failed to stat %s", homePath).WithDetail("key", key)
	}

	if err := filesystem.CopyFile(e.fs, repoPath, homePath); err != nil {
		if oldTarget != "" {
			if linkErr := e.fs.Symlink(oldTarget, homePath); linkErr != nil {
				logger.Error().Err(linkErr).Msg("Failed to re-create link")
			}
		}
		return nil, errors.Wrapf(err, errors.ErrIO,
			"failed to restore %s from %s; repository copy kept", homePath, repoPath).WithDetail("key", key)
	}

	if err := e.fs.Remove(repoPath); err != nil {
		return nil, errors.Wrapf(err, errors.ErrIO,
			"restored %s but failed to delete the repository copy %s", homePath, repoPath).WithDetail("key", key)
	}
	e.pruneEmptyDirs(filepath.Dir(repoPath))

	m.Remove(key)
	if err := e.store.Save(m); err != nil {
		return nil, err
	}

	result := &UntrackResult{Key: key, HomePath: homePath}
	result.CommitErr = e.commit(ctx, UntrackCommitPrefix+key)
	logger.Info().Msg("Untracked")
	return result, nil
}

// List returns the tracked keys in sorted order.
func (e *Engine) List() ([]string, error) {
	m, err := e.store.Load()
	if err != nil {
		return nil, err
	}
	return m.Keys(), nil
}

// Entries returns the manifest entries keyed by logical key.
func (e *Engine) Entries() (map[string]manifest.Entry, error) {
	m, err := e.store.Load()
	if err != nil {
		return nil, err
	}
	return m.Entries(), nil
}

// States inspects every tracked entry without changing anything.
func (e *Engine) States() ([]FileState, error) {
	m, err := e.store.Load()
	if err != nil {
		return nil, err
	}

	states := make([]FileState, 0, m.Len())
	for _, key := range m.Keys() {
		entry, _ := m.Get(key)
		st := FileState{Key: key, Entry: entry}

		if st.HomePath, err = e.paths.HomePath(key); err != nil {
			st.Err = err
			states = append(states, st)
			continue
		}
		if st.RepoPath, err = e.paths.RepoPath(entry.Source); err != nil {
			st.Err = err
			states = append(states, st)
			continue
		}
		if _, statErr := e.fs.Stat(st.RepoPath); statErr == nil {
			st.RepoPresent = true
		}
		st.State, st.Err = e.linker.Inspect(st.HomePath, st.RepoPath)
		states = append(states, st)
	}
	return states, nil
}

func (e *Engine) commit(ctx context.Context, message string) error {
	if e.skipCommit || e.backend == nil {
		return nil
	}
	if err := e.backend.Commit(ctx, message); err != nil {
		e.logger.Warn().Err(err).Str("message", message).Msg("Commit failed")
		return err
	}
	return nil
}

// rollbackLink removes the link at homePath and moves the backup back.
func (e *Engine) rollbackLink(homePath, backup string) error {
	if err := e.fs.Remove(homePath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return e.fs.Rename(backup, homePath)
}

func (e *Engine) discardRepoCopy(repoPath string) {
	if err := e.fs.Remove(repoPath); err != nil && !os.IsNotExist(err) {
		e.logger.Warn().Err(err).Str("repo_path", repoPath).Msg("Failed to remove repository copy")
		return
	}
	e.pruneEmptyDirs(filepath.Dir(repoPath))
}

// pruneEmptyDirs removes dir and its parents while they are empty, stopping
// at the repository root.
func (e *Engine) pruneEmptyDirs(dir string) {
	root := e.paths.Repository()
	for dir != root && paths.ContainsPath(root, dir) {
		entries, err := e.fs.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := e.fs.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}
