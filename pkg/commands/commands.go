package commands

import (
	"context"
	"fmt"

	"github.com/arthur-debert/dotman/pkg/errors"
	"github.com/arthur-debert/dotman/pkg/logging"
	"github.com/arthur-debert/dotman/pkg/tracking"
	"github.com/arthur-debert/dotman/pkg/ui/converter"
	"github.com/arthur-debert/dotman/pkg/ui/display"
)

// InitCommitMessage is the commit recorded by Init.
const InitCommitMessage = "Initialize dotman repository"

// Init creates the repository directory, initialises version control in it and
// writes an empty manifest when none exists. Running it again is harmless.
func (r *Runtime) Init(ctx context.Context) (*display.Result, error) {
	done := logging.LogOperationStart(r.logger, "init")
	defer done()

	repo := r.Paths.Repository()
	if err := r.FS.MkdirAll(repo, 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrIO, "failed to create repository %s", repo)
	}
	if err := r.Backend.Init(ctx); err != nil {
		return nil, err
	}

	m, err := r.Manifests.LoadOrCreate()
	if err != nil {
		return nil, err
	}

	res := display.NewResult("init")
	res.Message = fmt.Sprintf("Initialized dotman repository at %s (%d tracked)", repo, m.Len())
	if r.Config.Commit.Enabled {
		if err := r.Backend.Commit(ctx, InitCommitMessage); err != nil {
			res.Warn(fmt.Sprintf("manifest was not committed: %v", err))
		}
	}
	return res, nil
}

// Track starts tracking each file in turn and stops at the first failure.
// The result lists the files tracked before it.
func (r *Runtime) Track(ctx context.Context, files []string) (*display.Result, error) {
	results := make([]*tracking.TrackResult, 0, len(files))
	for _, file := range files {
		res, err := r.Tracker.Track(ctx, file)
		if err != nil {
			return converter.FromTrack(results), err
		}
		results = append(results, res)
	}
	return converter.FromTrack(results), nil
}

// Untrack stops tracking each file in turn and stops at the first failure.
func (r *Runtime) Untrack(ctx context.Context, files []string) (*display.Result, error) {
	results := make([]*tracking.UntrackResult, 0, len(files))
	for _, file := range files {
		res, err := r.Tracker.Untrack(ctx, file)
		if err != nil {
			return converter.FromUntrack(results), err
		}
		results = append(results, res)
	}
	return converter.FromUntrack(results), nil
}

// List returns every tracked entry.
func (r *Runtime) List() (*display.Result, error) {
	entries, err := r.Tracker.Entries()
	if err != nil {
		return nil, err
	}
	return converter.FromEntries(entries), nil
}

// Install clones the repository when it is absent and links every entry.
// An empty remoteURL falls back to repository.remote. When entries fail the
// result is still returned alongside the error.
func (r *Runtime) Install(ctx context.Context, remoteURL string) (*display.Result, error) {
	if remoteURL == "" {
		remoteURL = r.Config.Repository.Remote
	}

	summary, err := r.Installer.Bootstrap(ctx, remoteURL)
	if err != nil {
		return nil, err
	}

	res := converter.FromSummary(summary)
	if summary.OK() {
		return res, nil
	}

	code := errors.ErrLinkFailed
	if len(summary.Unrecoverable) > 0 {
		code = errors.ErrLinkUnrecoverable
	}
	return res, errors.Newf(code, "%d of %d entries failed to link", summary.Failed, len(summary.Outcomes)).
		WithDetail("failed", summary.Failed).
		WithDetail("unrecoverable", summary.Unrecoverable)
}

// Sync pulls from and pushes to the remote.
func (r *Runtime) Sync(ctx context.Context) (*display.Result, error) {
	if err := r.Syncer.Sync(ctx); err != nil {
		return nil, err
	}
	res := display.NewResult("sync")
	res.Message = fmt.Sprintf("Repository %s is in sync with its remote", r.Paths.Repository())
	return res, nil
}

// Status reports the link state of every entry and the repository status.
// A repository that cannot be queried becomes a warning.
func (r *Runtime) Status(ctx context.Context) (*display.Result, error) {
	states, err := r.Tracker.States()
	if err != nil {
		return nil, err
	}

	repoStatus, statusErr := r.Syncer.Status(ctx)
	res := converter.FromStatus(states, r.Paths.Repository(), repoStatus)
	if statusErr != nil {
		res.Warn(fmt.Sprintf("repository status unavailable: %v", statusErr))
	}
	if len(states) == 0 {
		res.Message = "No files are tracked."
	}
	return res, nil
}
