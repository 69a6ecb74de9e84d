package vcs

import "context"

// Backend is the version-control surface used by the engine.
// Every call blocks until the underlying tool returns or ctx is done.
type Backend interface {
	// Init creates an empty repository at the backend's directory.
	Init(ctx context.Context) error
	// Clone copies the repository at url into path.
	Clone(ctx context.Context, url, path string) error
	// Commit stages every change and records it with message.
	// Having nothing to commit is not an error.
	Commit(ctx context.Context, message string) error
	// Pull integrates remote changes into the working tree.
	Pull(ctx context.Context) error
	// Push publishes local commits.
	Push(ctx context.Context) error
	// Status returns a human readable summary of uncommitted changes.
	Status(ctx context.Context) (string, error)
}

// Cloner is the part of Backend the bootstrap path needs.
type Cloner interface {
	Clone(ctx context.Context, url, path string) error
}

// RemoteComparer is implemented by backends that can count how far the local
// branch has moved from its upstream.
type RemoteComparer interface {
	Divergence(ctx context.Context) (ahead, behind int, err error)
}
