// Package commands provides the high-level command implementations for dotman.
//
// It is the orchestration layer between the CLI and the engine packages:
// Open reads the configuration and wires the manifest store, link
// reconciler, tracking engine, install orchestrator and sync coordinator
// into a Runtime. Each Runtime method runs one command and returns a
// display.Result ready for rendering.
package commands

import (
	"github.com/arthur-debert/dotman/pkg/config"
	"github.com/arthur-debert/dotman/pkg/filesystem"
	"github.com/arthur-debert/dotman/pkg/install"
	"github.com/arthur-debert/dotman/pkg/linker"
	"github.com/arthur-debert/dotman/pkg/logging"
	"github.com/arthur-debert/dotman/pkg/manifest"
	"github.com/arthur-debert/dotman/pkg/paths"
	"github.com/arthur-debert/dotman/pkg/syncer"
	"github.com/arthur-debert/dotman/pkg/tracking"
	"github.com/arthur-debert/dotman/pkg/types"
	"github.com/arthur-debert/dotman/pkg/vcs"
	"github.com/rs/zerolog"
)

// Options configures Open.
type Options struct {
	// Home overrides the home directory. Empty uses the user's home.
	Home string
	// ConfigPath overrides the user config file location.
	ConfigPath string
	// Overrides are configuration values set from command-line flags.
	Overrides map[string]interface{}
	// FS defaults to the OS file system.
	FS types.FS
	// Backend defaults to git in the repository directory.
	Backend vcs.Backend
}

// Runtime is the wired set of components one invocation works with.
type Runtime struct {
	Config      *config.Config
	ConfigStore *config.Store
	Paths       *paths.Paths
	FS          types.FS
	Manifests   *manifest.Store
	Linker      *linker.Reconciler
	Backend     vcs.Backend
	Tracker     *tracking.Engine
	Installer   *install.Orchestrator
	Syncer      *syncer.Coordinator

	logger zerolog.Logger
}

// Open loads the configuration and builds a Runtime from it.
func Open(opts Options) (*Runtime, error) {
	logger := logging.GetLogger("commands")

	store := config.NewStore(config.Options{Path: opts.ConfigPath, Overrides: opts.Overrides})
	cfg, err := store.Load()
	if err != nil {
		return nil, err
	}

	p, err := paths.New(opts.Home, cfg.Repository.Path)
	if err != nil {
		return nil, err
	}

	fs := opts.FS
	if fs == nil {
		fs = filesystem.NewOS()
	}

	backend := opts.Backend
	if backend == nil {
		backend = vcs.NewGit(p.Repository())
	}

	manifests := manifest.NewStore(fs, p.ManifestPath())
	reconciler := linker.New(linker.Options{
		FS:            fs,
		Paths:         p,
		CaseSensitive: cfg.Link.CaseSensitive,
	})

	rt := &Runtime{
		Config:      cfg,
		ConfigStore: store,
		Paths:       p,
		FS:          fs,
		Manifests:   manifests,
		Linker:      reconciler,
		Backend:     backend,
		Tracker: tracking.New(tracking.Options{
			FS:         fs,
			Paths:      p,
			Store:      manifests,
			Linker:     reconciler,
			Backend:    backend,
			SkipCommit: !cfg.Commit.Enabled,
		}),
		Installer: install.New(install.Options{
			FS:     fs,
			Paths:  p,
			Store:  manifests,
			Linker: reconciler,
			Cloner: backend,
			Jobs:   cfg.Install.Jobs,
		}),
		Syncer: syncer.New(backend),
		logger: logger,
	}

	logger.Debug().
		Str("home", p.Home()).
		Str("repository", p.Repository()).
		Bool("case_sensitive", cfg.Link.CaseSensitive).
		Msg("Runtime ready")
	return rt, nil
}
