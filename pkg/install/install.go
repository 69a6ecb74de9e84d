package install

import (
	"context"
	"os"

	"github.com/arthur-debert/dotman/pkg/errors"
	"github.com/arthur-debert/dotman/pkg/filesystem"
	"github.com/arthur-debert/dotman/pkg/linker"
	"github.com/arthur-debert/dotman/pkg/logging"
	"github.com/arthur-debert/dotman/pkg/manifest"
	"github.com/arthur-debert/dotman/pkg/paths"
	"github.com/arthur-debert/dotman/pkg/types"
	"github.com/arthur-debert/dotman/pkg/vcs"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Options holds the orchestrator's collaborators.
type Options struct {
	FS     types.FS
	Paths  *paths.Paths
	Store  *manifest.Store
	Linker *linker.Reconciler
	Cloner vcs.Cloner
	// Jobs bounds how many entries are reconciled at once. Values below 1
	// mean sequential.
	Jobs   int
	Logger zerolog.Logger
}

// Orchestrator reconciles the whole manifest.
type Orchestrator struct {
	fs     types.FS
	paths  *paths.Paths
	store  *manifest.Store
	linker *linker.Reconciler
	cloner vcs.Cloner
	jobs   int
	logger zerolog.Logger
}

// Summary aggregates the outcomes of one Run.
type Summary struct {
	// Outcomes are in manifest key order.
	Outcomes []linker.Outcome
	Linked   int
	Skipped  int
	Failed   int
	// Unrecoverable lists keys whose original content now lives only in
	// their backup file.
	Unrecoverable []string
}

// OK reports whether every entry was linked or already correct.
func (s *Summary) OK() bool {
	return s.Failed == 0
}

// Failures returns the failed outcomes.
func (s *Summary) Failures() []linker.Outcome {
	var failed []linker.Outcome
	for _, out := range s.Outcomes {
		if out.Failed() {
			failed = append(failed, out)
		}
	}
	return failed
}

// New creates an Orchestrator.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = logging.GetLogger("install")
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

	jobs := opts.Jobs
	if jobs < 1 {
		jobs = 1
	}

	return &Orchestrator{
		fs:     fs,
		paths:  opts.Paths,
		store:  store,
		linker: l,
		cloner: opts.Cloner,
		jobs:   jobs,
		logger: logger,
	}
}

// Run reconciles every manifest entry. The returned error is only set when the
// manifest cannot be loaded; per-entry failures are reported in the Summary.
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	done := logging.LogOperationStart(o.logger, "install")
	defer done()

	m, err := o.store.Load()
	if err != nil {
		return nil, err
	}

	keys := m.Keys()
	outcomes := make([]linker.Outcome, len(keys))

	// Keys are unique, so concurrent reconciles never touch the same path.
	var g errgroup.Group
	g.SetLimit(o.jobs)
	for i, key := range keys {
		i, key := i, key
		entry, _ := m.Get(key)

		if ctxErr := ctx.Err(); ctxErr != nil {
			outcomes[i] = linker.Outcome{
				Key:    key,
				Result: linker.LinkFailed,
				Err: errors.Wrapf(ctxErr, errors.ErrLinkFailed,
					"install stopped before %s was reconciled", key).WithDetail("key", key),
			}
			continue
		}

		g.Go(func() error {
			outcomes[i] = o.linker.Reconcile(key, entry)
			return nil
		})
	}
	_ = g.Wait()

	summary := summarize(outcomes)
	o.logger.Info().
		Int("linked", summary.Linked).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Msg("Install finished")
	return summary, nil
}

// Bootstrap clones remoteURL into the repository path when no repository is
// there yet, then runs.
func (o *Orchestrator) Bootstrap(ctx context.Context, remoteURL string) (*Summary, error) {
	repo := o.paths.Repository()

	present, err := o.repositoryPresent()
	if err != nil {
		return nil, err
	}

	if present {
		o.logger.Info().Str("repository", repo).Msg("Repository present, skipping clone")
	} else {
		if remoteURL == "" {
			return nil, errors.Newf(errors.ErrInvalidInput,
				"no repository at %s and no remote URL to clone from", repo)
		}
		if o.cloner == nil {
			return nil, errors.New(errors.ErrInternal, "no version-control backend configured for cloning")
		}
		o.logger.Info().Str("url", remoteURL).Str("repository", repo).Msg("Cloning repository")
		if err := o.cloner.Clone(ctx, remoteURL, repo); err != nil {
			return nil, err
		}
	}

	return o.Run(ctx)
}

// repositoryPresent reports whether the repository directory exists and is
// not empty.
func (o *Orchestrator) repositoryPresent() (bool, error) {
	repo := o.paths.Repository()
	entries, err := o.fs.ReadDir(repo)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrapf(err, errors.ErrIO, "failed to read repository directory %s", repo)
	}
	return len(entries) > 0, nil
}

func summarize(outcomes []linker.Outcome) *Summary {
	s := &Summary{Outcomes: outcomes}
	for _, out := range outcomes {
		switch out.Result {
		case linker.Linked:
			s.Linked++
		case linker.Skipped:
			s.Skipped++
		default:
			s.Failed++
			if out.Unrecoverable {
				s.Unrecoverable = append(s.Unrecoverable, out.Key)
			}
		}
	}
	return s
}
