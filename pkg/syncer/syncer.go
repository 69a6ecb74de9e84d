// Package syncer exchanges commits between the local repository and its remote.
package syncer

import (
	"context"

	"github.com/arthur-debert/dotman/pkg/logging"
	"github.com/arthur-debert/dotman/pkg/vcs"
	"github.com/rs/zerolog"
)

// Coordinator runs pull/push and reports repository status.
type Coordinator struct {
	backend vcs.Backend
	logger  zerolog.Logger
}

// Status describes the repository relative to its remote.
type Status struct {
	// Raw is the backend's status text; empty means no local changes.
	Raw string
	// Compared is set when Ahead and Behind were measured against the remote.
	Compared bool
	Ahead    int
	Behind   int
	// CompareErr is why the remote comparison failed, when it did.
	CompareErr error
}

// Clean reports whether there are no uncommitted changes.
func (s *Status) Clean() bool {
	return s.Raw == ""
}

// InSync reports whether the remote comparison found no divergence.
func (s *Status) InSync() bool {
	return s.Compared && s.Ahead == 0 && s.Behind == 0
}

// New creates a Coordinator.
func New(backend vcs.Backend) *Coordinator {
	return &Coordinator{backend: backend, logger: logging.GetLogger("syncer")}
}

// Sync pulls and then pushes. A pull failure skips the push.
func (c *Coordinator) Sync(ctx context.Context) error {
	done := logging.LogOperationStart(c.logger, "sync")
	defer done()

	if err := c.backend.Pull(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("Pull failed")
		return err
	}
	if err := c.backend.Push(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("Push failed")
		return err
	}
	return nil
}

// Status returns the backend's status, with ahead/behind counts when the
// backend can compare against its remote. A failed comparison is recorded in
// the result rather than returned.
func (c *Coordinator) Status(ctx context.Context) (*Status, error) {
	raw, err := c.backend.Status(ctx)
	if err != nil {
		return nil, err
	}
	st := &Status{Raw: raw}

	comparer, ok := c.backend.(vcs.RemoteComparer)
	if !ok {
		return st, nil
	}
	ahead, behind, err := comparer.Divergence(ctx)
	if err != nil {
		c.logger.Debug().Err(err).Msg("Remote comparison unavailable")
		st.CompareErr = err
		return st, nil
	}
	st.Compared = true
	st.Ahead = ahead
	st.Behind = behind
	return st, nil
}
