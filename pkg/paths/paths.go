package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/dotman/pkg/errors"
)

// Environment variable names
const (
	// EnvRepositoryPath overrides the configured repository location
	EnvRepositoryPath = "DOTMAN_REPOSITORY_PATH"

	// EnvConfigDir overrides the XDG config directory for dotman
	EnvConfigDir = "DOTMAN_CONFIG_DIR"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

// Fixed names inside the repository and the XDG directories.
// These are part of the on-disk format and are not user-configurable.
const (
	// DefaultRepositoryDir is the default directory name under $HOME
	DefaultRepositoryDir = "dotfiles"

	// DotmanDirName is the directory name for dotman-specific files
	DotmanDirName = "dotman"

	// ManifestFile is the name of the manifest inside the repository
	ManifestFile = "manifest.json"

	// ConfigFile is the name of the user configuration file
	ConfigFile = "config.toml"

	// BackupSuffix is appended to a home path when it is moved aside
	BackupSuffix = ".dotman-backup"
)

// Paths resolves every location dotman works with.
type Paths struct {
	home       string
	repository string
	configDir  string
}

// New creates a Paths instance. An empty home falls back to the user's home
// directory; an empty repository falls back to $DOTMAN_REPOSITORY_PATH and
// then to ~/dotfiles. Both roots are made absolute and cleaned.
func New(home, repository string) (*Paths, error) {
	if home == "" {
		h, err := GetHomeDirectory()
		if err != nil {
			return nil, err
		}
		home = h
	}
	absHome, err := filepath.Abs(home)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrIO, "failed to get absolute path for home %s", home)
	}

	if repository == "" {
		repository = os.Getenv(EnvRepositoryPath)
	}
	if repository == "" {
		repository = filepath.Join(absHome, DefaultRepositoryDir)
	}
	absRepo, err := filepath.Abs(expandHomeWith(repository, absHome))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrIO, "failed to get absolute path for repository %s", repository)
	}

	return &Paths{
		home:       filepath.Clean(absHome),
		repository: filepath.Clean(absRepo),
		configDir:  ConfigDir(),
	}, nil
}

// Home returns the home directory all logical keys are relative to.
func (p *Paths) Home() string {
	return p.home
}

// Repository returns the dotfiles repository root.
func (p *Paths) Repository() string {
	return p.repository
}

// ManifestPath returns the location of the manifest file.
func (p *Paths) ManifestPath() string {
	return filepath.Join(p.repository, ManifestFile)
}

// ConfigDir returns the directory holding dotman's config.toml.
func (p *Paths) ConfigDir() string {
	return p.configDir
}

// HomePath maps a logical key to its absolute path under home.
func (p *Paths) HomePath(key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(p.home, filepath.FromSlash(key)), nil
}

// RepoPath maps an entry source to its absolute path in the repository.
// Sources naming the manifest or version-control metadata are rejected.
func (p *Paths) RepoPath(source string) (string, error) {
	if err := ValidateSource(source); err != nil {
		return "", err
	}
	return filepath.Join(p.repository, filepath.FromSlash(source)), nil
}

// KeyFor resolves path (which may start with ~ or be relative to the working
// directory) and returns its logical key and absolute form. Paths that are not
// strictly below home fail with ErrOutOfScope.
func (p *Paths) KeyFor(path string) (key string, abs string, err error) {
	abs, err = NormalizePath(path, p.home)
	if err != nil {
		return "", "", err
	}

	rel, relErr := filepath.Rel(p.home, abs)
	if relErr != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", abs, errors.Newf(errors.ErrOutOfScope,
			"%s is not inside the home directory %s", abs, p.home).
			WithDetail("path", abs)
	}

	key = filepath.ToSlash(rel)
	if err := ValidateKey(key); err != nil {
		return "", abs, err
	}
	return key, abs, nil
}

// IsInRepository reports whether path lies inside the repository root.
func (p *Paths) IsInRepository(path string) bool {
	return ContainsPath(p.repository, path)
}

// BackupPath returns the sibling path a home object is moved to before it is
// replaced by a link.
func BackupPath(homePath string) string {
	return homePath + BackupSuffix
}

// ConfigDir returns dotman's config directory, honouring DOTMAN_CONFIG_DIR.
func ConfigDir() string {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return ExpandHome(dir)
	}
	return filepath.Join(xdg.ConfigHome, DotmanDirName)
}

// ConfigFilePath returns the path of the user configuration file.
func ConfigFilePath() string {
	return filepath.Join(ConfigDir(), ConfigFile)
}

// NormalizePath expands ~ against home, makes path absolute and cleans it.
func NormalizePath(path, home string) (string, error) {
	if err := ValidatePath(path); err != nil {
		return "", err
	}

	abs, err := filepath.Abs(expandHomeWith(path, home))
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrIO, "failed to get absolute path for %s", path)
	}
	return filepath.Clean(abs), nil
}

// ExpandHome is a utility function that expands ~ in paths
func ExpandHome(path string) string {
	home, err := GetHomeDirectory()
	if err != nil {
		return path
	}
	return expandHomeWith(path, home)
}

// expandHomeWith expands a leading ~ or ~/ to home. ~user forms are left alone.
func expandHomeWith(path, home string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	if len(path) == 1 {
		return home
	}
	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(home, path[2:])
	}
	return path
}

// GetHomeDirectory returns the user's home directory with proper error handling
func GetHomeDirectory() (string, error) {
	if home := os.Getenv(EnvHome); home != "" {
		return home, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrIO, "failed to get home directory")
	}
	return homeDir, nil
}
