package config

import (
	"fmt"
	"os"

	"github.com/arthur-debert/dotman/pkg/errors"
	"github.com/arthur-debert/dotman/pkg/filesystem"
	"github.com/arthur-debert/dotman/pkg/logging"
	"github.com/arthur-debert/dotman/pkg/paths"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	gotoml "github.com/pelletier/go-toml/v2"
)

// Options configures a Store.
type Options struct {
	// Path of the user config file. Defaults to paths.ConfigFilePath().
	Path string
	// Overrides are applied above every other layer.
	Overrides map[string]interface{}
}

// Store reads the layered configuration and writes the user file.
type Store struct {
	path      string
	overrides map[string]interface{}
	k         *koanf.Koanf
	cfg       *Config
}

// NewStore creates a Store. Nothing is read until Load.
func NewStore(opts Options) *Store {
	path := opts.Path
	if path == "" {
		path = paths.ConfigFilePath()
	}
	return &Store{path: path, overrides: opts.Overrides}
}

// Load reads every layer and returns the effective configuration.
func Load() (*Config, error) {
	return NewStore(Options{}).Load()
}

// Path returns the user config file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads every layer and returns the effective configuration.
func (s *Store) Load() (*Config, error) {
	k, err := load(s.path, s.overrides)
	if err != nil {
		return nil, err
	}
	cfg, err := decode(k)
	if err != nil {
		return nil, err
	}
	s.k = k
	s.cfg = cfg

	logger := logging.GetLogger("config")
	logger.Debug().Str("path", s.path).Stringer("config", cfg).Msg("Configuration loaded")
	return cfg, nil
}

// Config returns the configuration from the last Load, loading if needed.
func (s *Store) Config() (*Config, error) {
	if s.cfg != nil {
		return s.cfg, nil
	}
	return s.Load()
}

// Get returns the effective value of key as text.
func (s *Store) Get(key string) (string, error) {
	if _, err := lookupKey(key); err != nil {
		return "", err
	}
	if key == "link.backup_suffix" {
		return paths.BackupSuffix, nil
	}
	if s.k == nil {
		if _, err := s.Load(); err != nil {
			return "", err
		}
	}
	v := s.k.Get(key)
	if v == nil {
		return "", nil
	}
	return fmt.Sprint(v), nil
}

// Set validates value for key, writes it to the user file and reloads.
// Other settings in the file are preserved.
func (s *Store) Set(key, value string) error {
	spec, err := lookupKey(key)
	if err != nil {
		return err
	}
	if spec.readOnly {
		return errors.Newf(errors.ErrConfigValid, "%s is read-only", key).WithDetail("key", key)
	}
	typed, err := parseValue(key, spec, value)
	if err != nil {
		return err
	}

	user := koanf.New(".")
	if _, statErr := os.Stat(s.path); statErr == nil {
		if err := user.Load(file.Provider(s.path), toml.Parser()); err != nil {
			return errors.Wrapf(err, errors.ErrConfigParse, "failed to parse %s", s.path).
				WithDetail("path", s.path)
		}
	}
	if err := user.Set(key, typed); err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "failed to set %s", key)
	}

	data, err := gotoml.Marshal(user.Raw())
	if err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "failed to encode %s", s.path)
	}
	if err := filesystem.WriteFileAtomic(filesystem.NewOS(), s.path, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrIO, "failed to write %s", s.path).WithDetail("path", s.path)
	}

	_, err = s.Load()
	return err
}
