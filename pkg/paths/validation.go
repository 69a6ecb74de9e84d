package paths

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/dotman/pkg/errors"
)

// ValidatePath performs basic validation on a user supplied path.
func ValidatePath(p string) error {
	if p == "" {
		return errors.New(errors.ErrInvalidInput, "path cannot be empty")
	}

	if strings.Contains(p, "\x00") {
		return errors.New(errors.ErrInvalidInput, "path contains null bytes")
	}

	if len(p) > 4096 {
		return errors.New(errors.ErrInvalidInput, "path exceeds maximum length")
	}

	return nil
}

// ValidateKey checks that key is usable as a manifest key or entry source:
// relative, slash separated, clean, and never escaping the root it is joined to.
func ValidateKey(key string) error {
	if err := ValidatePath(key); err != nil {
		return errors.Wrapf(err, errors.ErrInvalidInput, "invalid key %q", key)
	}

	slashed := filepath.ToSlash(key)
	if path.IsAbs(slashed) || filepath.IsAbs(key) || filepath.VolumeName(key) != "" {
		return errors.Newf(errors.ErrInvalidInput, "key %q must be relative", key)
	}

	for _, part := range strings.Split(slashed, "/") {
		if part == ".." {
			return errors.Newf(errors.ErrInvalidInput, "key %q must not contain '..'", key)
		}
	}

	cleaned := path.Clean(slashed)
	if cleaned == "." {
		return errors.Newf(errors.ErrInvalidInput, "key %q does not name a file", key)
	}
	if cleaned != slashed {
		return errors.Newf(errors.ErrInvalidInput, "key %q is not in canonical form (%s)", key, cleaned)
	}

	return nil
}

// Names the repository keeps for itself. Compared case-insensitively so a
// case-folding filesystem cannot alias them.
const (
	gitDirName = ".git"
	tempMarker = ".dotman-tmp-"
)

// ValidateSource is ValidateKey plus a check that source does not land on a
// path the repository reserves: the manifest, its temporary files, or
// anything under .git.
func ValidateSource(source string) error {
	if err := ValidateKey(source); err != nil {
		return err
	}

	slashed := filepath.ToSlash(source)
	first := strings.SplitN(slashed, "/", 2)[0]
	base := path.Base(slashed)
	switch {
	case strings.EqualFold(slashed, ManifestFile):
		return reservedError(source, "it is the manifest")
	case strings.EqualFold(first, gitDirName):
		return reservedError(source, "it is version-control metadata")
	case strings.Contains(strings.ToLower(base), tempMarker):
		return reservedError(source, "it is a temporary file name")
	}
	return nil
}

func reservedError(source, why string) error {
	return errors.Newf(errors.ErrInvalidInput, "%s cannot be stored in the repository: %s", source, why).
		WithDetail("source", source)
}

// ContainsPath checks if child is contained within parent.
// Both paths are cleaned before comparison.
func ContainsPath(parent, child string) bool {
	rel, err := filepath.Rel(filepath.Clean(parent), filepath.Clean(child))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
