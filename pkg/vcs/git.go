package vcs

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/arthur-debert/dotman/pkg/errors"
	"github.com/arthur-debert/dotman/pkg/logging"
	"github.com/rs/zerolog"
)

// Git implements Backend and RemoteComparer by running the git binary
// against a single repository directory.
type Git struct {
	dir    string
	binary string
	logger zerolog.Logger
}

var (
	_ Backend        = (*Git)(nil)
	_ RemoteComparer = (*Git)(nil)
)

// NewGit returns a Git backend for the repository at dir.
func NewGit(dir string) *Git {
	return &Git{
		dir:    dir,
		binary: "git",
		logger: logging.GetLogger("vcs"),
	}
}

// Dir returns the repository directory.
func (g *Git) Dir() string {
	return g.dir
}

// Init runs git init, creating the directory if needed.
func (g *Git) Init(ctx context.Context) error {
	if err := os.MkdirAll(g.dir, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrIO, "failed to create repository directory %s", g.dir)
	}
	_, err := g.run(ctx, "init", g.dir)
	return err
}

// Clone runs git clone url path.
func (g *Git) Clone(ctx context.Context, url, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrIO, "failed to create parent directory for %s", path)
	}
	_, err := g.run(ctx, "clone", url, path)
	return err
}

// Commit stages all changes and commits them.
func (g *Git) Commit(ctx context.Context, message string) error {
	if _, err := g.runIn(ctx, "add", "-A"); err != nil {
		return err
	}

	out, err := g.runIn(ctx, "commit", "-m", message)
	if err != nil {
		if nothingToCommit(out) {
			g.logger.Debug().Str("message", message).Msg("Nothing to commit")
			return nil
		}
		return err
	}
	return nil
}

// Pull runs git pull --rebase.
func (g *Git) Pull(ctx context.Context) error {
	_, err := g.runIn(ctx, "pull", "--rebase")
	return err
}

// Push runs git push.
func (g *Git) Push(ctx context.Context) error {
	_, err := g.runIn(ctx, "push")
	return err
}

// Status returns git status --porcelain. An empty string means a clean tree.
func (g *Git) Status(ctx context.Context) (string, error) {
	out, err := g.runIn(ctx, "status", "--porcelain")
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n"), nil
}

// Divergence fetches the upstream and counts commits that are only local
// (ahead) and only upstream (behind).
func (g *Git) Divergence(ctx context.Context) (int, int, error) {
	if _, err := g.runIn(ctx, "fetch", "--quiet"); err != nil {
		return 0, 0, err
	}

	out, err := g.runIn(ctx, "rev-list", "--left-right", "--count", "HEAD...@{upstream}")
	if err != nil {
		return 0, 0, err
	}

	fields := strings.Fields(out)
	if len(fields) != 2 {
		return 0, 0, errors.Newf(errors.ErrBackend, "unexpected rev-list output %q", out)
	}
	ahead, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, errors.Wrapf(err, errors.ErrBackend, "unexpected rev-list output %q", out)
	}
	behind, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, errors.Wrapf(err, errors.ErrBackend, "unexpected rev-list output %q", out)
	}
	return ahead, behind, nil
}

// runIn runs a git subcommand inside the repository.
func (g *Git) runIn(ctx context.Context, args ...string) (string, error) {
	return g.run(ctx, append([]string{"-C", g.dir}, args...)...)
}

// run executes git with args and returns the combined output. Failures are
// BACKEND errors carrying that output.
func (g *Git) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, g.binary, args...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	g.logger.Debug().Strs("args", args).Msg("Running git")
	output, err := cmd.CombinedOutput()
	out := string(output)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return out, errors.Wrapf(err, errors.ErrBackend, "git %s failed: %s",
			subcommand(args), strings.TrimSpace(out)).
			WithDetail("args", args)
	}
	return out, nil
}

func subcommand(args []string) string {
	for i := 0; i < len(args); i++ {
		if args[i] == "-C" {
			i++
			continue
		}
		return args[i]
	}
	return ""
}

func nothingToCommit(output string) bool {
	return strings.Contains(output, "nothing to commit") ||
		strings.Contains(output, "nothing added to commit")
}
