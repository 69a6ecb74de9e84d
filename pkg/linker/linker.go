package linker

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/dotman/pkg/errors"
	"github.com/arthur-debert/dotman/pkg/filesystem"
	"github.com/arthur-debert/dotman/pkg/logging"
	"github.com/arthur-debert/dotman/pkg/manifest"
	"github.com/arthur-debert/dotman/pkg/paths"
	"github.com/arthur-debert/dotman/pkg/types"
	"github.com/rs/zerolog"
)

// LinkState classifies what currently sits at an entry's home path.
type LinkState int

const (
	// Unlinked means a regular file or directory occupies the home path.
	Unlinked LinkState = iota
	// LinkedCorrect means the home path resolves to the repository copy.
	LinkedCorrect
	// LinkedElsewhere means the home path is a link to somewhere else.
	LinkedElsewhere
	// Missing means nothing exists at the home path.
	Missing
)

func (s LinkState) String() string {
	switch s {
	case Unlinked:
		return "unlinked"
	case LinkedCorrect:
		return "linked"
	case LinkedElsewhere:
		return "linked-elsewhere"
	case Missing:
		return "missing"
	default:
		return "unknown"
	}
}

// Result is what Reconcile did for an entry.
type Result int

const (
	// Skipped means the link was already correct.
	Skipped Result = iota
	// Linked means a link was created.
	Linked
	// LinkFailed means the entry could not be linked; see Outcome.Err.
	LinkFailed
)

func (r Result) String() string {
	switch r {
	case Skipped:
		return "skipped"
	case Linked:
		return "linked"
	case LinkFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome reports the reconciliation of a single entry.
type Outcome struct {
	Key      string
	HomePath string
	RepoPath string
	// State is the state observed before any change was made.
	State  LinkState
	Result Result
	// BackupPath is set when an existing object was moved aside.
	BackupPath string
	Err        error
	// Unrecoverable is set when the original could not be put back and
	// now only exists at BackupPath.
	Unrecoverable bool
	// PrivilegeRequired is set when the platform refused to create the
	// link because the process lacks the right to do so.
	PrivilegeRequired bool
}

// Failed reports whether the outcome is a LinkFailed.
func (o Outcome) Failed() bool {
	return o.Result == LinkFailed
}

// Options configures a Reconciler.
type Options struct {
	FS    types.FS
	Paths *paths.Paths
	// CaseSensitive selects exact comparison of resolved link targets.
	// The default folds case, matching case-insensitive filesystems.
	CaseSensitive bool
	Logger        zerolog.Logger
}

// Reconciler brings home paths in line with the repository.
type Reconciler struct {
	fs            types.FS
	paths         *paths.Paths
	caseSensitive bool
	logger        zerolog.Logger
}

// New creates a Reconciler.
func New(opts Options) *Reconciler {
	logger := opts.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = logging.GetLogger("linker")
	}

	fs := opts.FS
	if fs == nil {
		fs = filesystem.NewOS()
	}

	return &Reconciler{
		fs:            fs,
		paths:         opts.Paths,
		caseSensitive: opts.CaseSensitive,
		logger:        logger,
	}
}

// Reconcile makes the home path of key a link to the entry's repository copy.
// It never returns early on the error path without filling Outcome.Err, and it
// only changes the filesystem when the repository copy exists.
func (r *Reconciler) Reconcile(key string, entry manifest.Entry) Outcome {
	out := Outcome{Key: key, Result: LinkFailed}

	source := entry.Source
	if source == "" {
		source = key
	}

	homePath, err := r.paths.HomePath(key)
	if err != nil {
		out.Err = errors.Wrapf(err, errors.ErrOutOfScope, "key %s does not resolve inside home", key).
			WithDetail("key", key)
		return out
	}
	out.HomePath = homePath
	if r.paths.IsInRepository(homePath) {
		out.Err = errors.Newf(errors.ErrOutOfScope, "key %s resolves inside the repository %s", key, r.paths.Repository()).
			WithDetail("key", key)
		return out
	}

	repoPath, err := r.paths.RepoPath(source)
	if err != nil {
		out.Err = errors.Wrapf(err, errors.ErrOutOfScope, "source %s of %s does not resolve inside the repository", source, key).
			WithDetail("key", key)
		return out
	}
	out.RepoPath = repoPath

	logger := r.logger.With().Str("key", key).Str("home_path", homePath).Str("repo_path", repoPath).Logger()

	if _, err := r.fs.Stat(repoPath); err != nil {
		out.Err = errors.Wrapf(err, errors.ErrIO, "repository copy of %s is missing at %s", key, repoPath).
			WithDetail("key", key)
		logger.Warn().Err(err).Msg("Repository copy missing")
		return out
	}

	state, err := r.Inspect(homePath, repoPath)
	if err != nil {
		out.Err = errors.Wrapf(err, errors.ErrIO, "failed to inspect %s", homePath).WithDetail("key", key)
		return out
	}
	out.State = state
	logger = logger.With().Stringer("state", state).Logger()

	switch state {
	case LinkedCorrect:
		out.Result = Skipped
		logger.Debug().Msg("Link already correct")
		return out

	case Missing:
		if err := r.fs.MkdirAll(filepath.Dir(homePath), 0755); err != nil {
			out.Err = errors.Wrapf(err, errors.ErrLinkFailed, "failed to create parent directory for %s", homePath).
				WithDetail("key", key)
			return out
		}
		if err := r.fs.Symlink(repoPath, homePath); err != nil {
			r.fail(&out, linkError(err, homePath, repoPath))
			logger.Warn().Err(err).Msg("Failed to create link")
			return out
		}

	default:
		backup, err := r.ReplaceWithLink(homePath, repoPath)
		out.BackupPath = backup
		if err != nil {
			r.fail(&out, err)
			logger.Warn().Err(err).Bool("unrecoverable", out.Unrecoverable).Msg("Failed to replace with link")
			return out
		}
	}

	out.Result = Linked
	logger.Info().Str("backup", out.BackupPath).Msg("Linked")
	return out
}

func (r *Reconciler) fail(out *Outcome, err error) {
	out.Result = LinkFailed
	out.Err = err
	out.Unrecoverable = errors.HasErrorCode(err, errors.ErrLinkUnrecoverable)
	out.PrivilegeRequired = errors.HasErrorCode(err, errors.ErrSymlinkPrivilege)
}

// Inspect classifies the object at homePath relative to repoPath.
func (r *Reconciler) Inspect(homePath, repoPath string) (LinkState, error) {
	info, err := r.fs.Lstat(homePath)
	if err != nil {
		if os.IsNotExist(err) {
			return Missing, nil
		}
		return Missing, err
	}

	if info.Mode()&os.ModeSymlink == 0 {
		return Unlinked, nil
	}

	target, err := r.fs.EvalSymlinks(homePath)
	if err != nil {
		// Dangling: compare the literal target.
		literal, readErr := r.fs.Readlink(homePath)
		if readErr != nil {
			return Missing, readErr
		}
		if !filepath.IsAbs(literal) {
			literal = filepath.Join(filepath.Dir(homePath), literal)
		}
		target = filepath.Clean(literal)
	}

	if r.samePath(target, r.canonical(repoPath)) {
		return LinkedCorrect, nil
	}
	return LinkedElsewhere, nil
}

// ReplaceWithLink moves whatever is at homePath to its backup path and puts a
// link to repoPath in its place. A stale backup is removed first. When the
// link cannot be created the original is renamed back; if that also fails the
// returned error carries ErrLinkUnrecoverable and the backup path is returned
// so callers can tell the user where the content went.
func (r *Reconciler) ReplaceWithLink(homePath, repoPath string) (string, error) {
	backup := paths.BackupPath(homePath)

	if err := r.fs.RemoveAll(backup); err != nil {
		return "", errors.Wrapf(err, errors.ErrIO, "failed to remove stale backup %s", backup).
			WithDetail("path", homePath)
	}

	if err := r.fs.Rename(homePath, backup); err != nil {
		return "", errors.Wrapf(err, errors.ErrLinkFailed, "failed to move %s aside", homePath).
			WithDetail("path", homePath)
	}
	r.logger.Debug().Str("home_path", homePath).Str("backup", backup).Msg("Moved original to backup")

	if err := r.fs.Symlink(repoPath, homePath); err != nil {
		linkErr := linkError(err, homePath, repoPath)

		if restoreErr := r.fs.Rename(backup, homePath); restoreErr != nil {
			r.logger.Error().Err(restoreErr).Str("backup", backup).Msg("Failed to restore original")
			return backup, errors.Wrapf(linkErr, errors.ErrLinkUnrecoverable,
				"could not link %s and could not restore it (%v); original content now at %s",
				homePath, restoreErr, backup).
				WithDetail("path", homePath).
				WithDetail("backup", backup)
		}
		return "", linkErr
	}

	return backup, nil
}

// canonical resolves every link in p. A path that cannot be resolved is used as is.
func (r *Reconciler) canonical(p string) string {
	resolved, err := r.fs.EvalSymlinks(p)
	if err != nil {
		return filepath.Clean(p)
	}
	return resolved
}

func (r *Reconciler) samePath(a, b string) bool {
	if r.caseSensitive {
		return a == b
	}
	return strings.EqualFold(a, b)
}

// linkError codes a failed symlink call, singling out missing privilege.
func linkError(err error, homePath, repoPath string) *errors.DotmanError {
	if isPrivilegeError(err) {
		return errors.Wrapf(err, errors.ErrSymlinkPrivilege,
			"creating the link %s -> %s requires symlink privilege", homePath, repoPath).
			WithDetail("path", homePath)
	}
	return errors.Wrapf(err, errors.ErrLinkFailed, "failed to link %s -> %s", homePath, repoPath).
		WithDetail("path", homePath)
}
