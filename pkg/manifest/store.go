package manifest

import (
	"encoding/json"
	"os"

	"github.com/arthur-debert/dotman/pkg/errors"
	"github.com/arthur-debert/dotman/pkg/filesystem"
	"github.com/arthur-debert/dotman/pkg/logging"
	"github.com/arthur-debert/dotman/pkg/paths"
	"github.com/arthur-debert/dotman/pkg/types"
)

// Store loads and saves the manifest file of one repository.
type Store struct {
	fs   types.FS
	path string
}

// NewStore returns a Store for the manifest at manifestPath.
func NewStore(fs types.FS, manifestPath string) *Store {
	return &Store{fs: fs, path: manifestPath}
}

// Path returns the manifest file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the manifest without touching the filesystem. A missing file
// yields an empty manifest.
func (s *Store) Load() (*Manifest, error) {
	m, err := s.read()
	if err != nil {
		return nil, err
	}
	if m == nil {
		return New(), nil
	}
	return m, nil
}

// LoadOrCreate reads the manifest. When the file does not exist an empty
// manifest is written immediately and returned.
func (s *Store) LoadOrCreate() (*Manifest, error) {
	m, err := s.read()
	if err != nil || m != nil {
		return m, err
	}

	m = New()
	if err := s.Save(m); err != nil {
		return nil, err
	}
	logger := logging.GetLogger("manifest")
	logger.Info().Str("path", s.path).Msg("Created empty manifest")
	return m, nil
}

// read returns nil without error when the manifest file does not exist.
func (s *Store) read() (*Manifest, error) {
	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, errors.ErrIO, "cannot read manifest %s", s.path).
			WithDetail("path", s.path)
	}

	m, err := Decode(data)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFormat, "cannot parse manifest %s", s.path).
			WithDetail("path", s.path)
	}

	logger := logging.GetLogger("manifest")
	logger.Debug().Str("path", s.path).Int("entries", m.Len()).Msg("Loaded manifest")
	return m, nil
}

// Save writes the manifest atomically.
func (s *Store) Save(m *Manifest) error {
	data, err := Encode(m)
	if err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "cannot encode manifest")
	}

	if err := filesystem.WriteFileAtomic(s.fs, s.path, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrIO, "cannot write manifest %s", s.path).
			WithDetail("path", s.path)
	}

	logger := logging.GetLogger("manifest")
	logger.Debug().
		Str("path", s.path).
		Int("entries", m.Len()).
		Msg("Saved manifest")
	return nil
}

// Encode serialises m as indented JSON with every entry field present.
func Encode(m *Manifest) ([]byte, error) {
	data, err := json.MarshalIndent(m.entries, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Decode parses a manifest document and validates every key and source.
func Decode(data []byte) (*Manifest, error) {
	m := New()
	if err := json.Unmarshal(data, m); err != nil {
		return nil, err
	}
	for key, entry := range m.entries {
		if err := paths.ValidateKey(key); err != nil {
			return nil, err
		}
		if err := paths.ValidateSource(entry.Source); err != nil {
			return nil, errors.Wrapf(err, errors.ErrInvalidInput, "entry %q has an invalid source", key)
		}
	}
	return m, nil
}
