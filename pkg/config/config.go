package config

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/arthur-debert/dotman/pkg/errors"
)

// Config is the effective configuration.
type Config struct {
	Repository Repository `koanf:"repository"`
	Link       Link       `koanf:"link"`
	Install    Install    `koanf:"install"`
	Commit     Commit     `koanf:"commit"`
	Output     Output     `koanf:"output"`
}

// Repository locates the dotfiles repository.
type Repository struct {
	// Path is expanded (~) after loading.
	Path   string `koanf:"path"`
	Remote string `koanf:"remote"`
}

// Link controls how home paths are compared and replaced.
type Link struct {
	CaseSensitive bool `koanf:"case_sensitive"`
	// BackupSuffix is fixed; it is exposed for display only.
	BackupSuffix string `koanf:"backup_suffix"`
}

// Install controls manifest replay.
type Install struct {
	Jobs int `koanf:"jobs"`
}

// Commit controls automatic commits after track/untrack.
type Commit struct {
	Enabled bool `koanf:"enabled"`
}

// Output selects the renderer.
type Output struct {
	Format string `koanf:"format"`
}

// Output formats accepted by output.format.
var Formats = []string{"auto", "term", "text", "json"}

type valueKind int

const (
	kindString valueKind = iota
	kindBool
	kindInt
	kindFormat
)

type keySpec struct {
	kind     valueKind
	readOnly bool
	help     string
}

var knownKeys = map[string]keySpec{
	"repository.path":     {kind: kindString, help: "dotfiles repository location"},
	"repository.remote":   {kind: kindString, help: "remote URL used by install"},
	"link.case_sensitive": {kind: kindBool, help: "compare link targets case-sensitively"},
	"link.backup_suffix":  {kind: kindString, readOnly: true, help: "suffix of backups made before linking"},
	"install.jobs":        {kind: kindInt, help: "entries linked concurrently by install"},
	"commit.enabled":      {kind: kindBool, help: "commit after add and remove"},
	"output.format":       {kind: kindFormat, help: "auto, term, text or json"},
}

// Keys returns every configuration key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(knownKeys))
	for k := range knownKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Help returns the one-line description of key.
func Help(key string) string {
	return knownKeys[key].help
}

func lookupKey(key string) (keySpec, error) {
	spec, ok := knownKeys[key]
	if !ok {
		return keySpec{}, errors.Newf(errors.ErrConfigValid, "unknown configuration key %q", key).
			WithDetail("key", key)
	}
	return spec, nil
}

// parseValue converts the textual value given to Set into its TOML type.
func parseValue(key string, spec keySpec, value string) (interface{}, error) {
	switch spec.kind {
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigValid, "%s expects true or false, got %q", key, value)
		}
		return b, nil
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigValid, "%s expects a number, got %q", key, value)
		}
		if n < 1 {
			return nil, errors.Newf(errors.ErrConfigValid, "%s must be at least 1, got %d", key, n)
		}
		return int64(n), nil
	case kindFormat:
		if !validFormat(value) {
			return nil, errors.Newf(errors.ErrConfigValid, "%s must be one of %v, got %q", key, Formats, value)
		}
		return value, nil
	default:
		return value, nil
	}
}

func validFormat(f string) bool {
	for _, v := range Formats {
		if v == f {
			return true
		}
	}
	return false
}

// validate checks values that decoding alone cannot reject.
func (c *Config) validate() error {
	if c.Install.Jobs < 1 {
		return errors.Newf(errors.ErrConfigValid, "install.jobs must be at least 1, got %d", c.Install.Jobs)
	}
	if !validFormat(c.Output.Format) {
		return errors.Newf(errors.ErrConfigValid, "output.format must be one of %v, got %q", Formats, c.Output.Format)
	}
	if c.Repository.Path == "" {
		return errors.New(errors.ErrConfigValid, "repository.path cannot be empty")
	}
	return nil
}

func (c *Config) String() string {
	return fmt.Sprintf("repository=%s case_sensitive=%t jobs=%d commit=%t format=%s",
		c.Repository.Path, c.Link.CaseSensitive, c.Install.Jobs, c.Commit.Enabled, c.Output.Format)
}
