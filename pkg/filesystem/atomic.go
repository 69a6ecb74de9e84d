package filesystem

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/arthur-debert/dotman/pkg/types"
)

var tempCounter atomic.Uint64

// tempName returns a sibling path of target that is unique within this process.
func tempName(target string) string {
	n := tempCounter.Add(1)
	return filepath.Join(filepath.Dir(target),
		fmt.Sprintf(".%s.dotman-tmp-%d-%d", filepath.Base(target), os.Getpid(), n))
}

// WriteFileAtomic writes data next to path and renames it into place, so a
// reader sees either the old content or the new one, never a partial file.
func WriteFileAtomic(fsys types.FS, path string, data []byte, perm fs.FileMode) error {
	if err := fsys.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tmp := tempName(path)
	if err := fsys.WriteFile(tmp, data, perm); err != nil {
		_ = fsys.Remove(tmp)
		return err
	}
	// WriteFile does not change the mode of a file that already exists.
	if err := fsys.Chmod(tmp, perm); err != nil {
		_ = fsys.Remove(tmp)
		return err
	}
	if err := fsys.Rename(tmp, path); err != nil {
		_ = fsys.Remove(tmp)
		return err
	}
	return nil
}

// CopyFile copies the regular file src to dst with the same permission bits.
// Parent directories of dst are created; an existing dst is replaced atomically.
func CopyFile(fsys types.FS, src, dst string) error {
	info, err := fsys.Stat(src)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return &fs.PathError{Op: "copy", Path: src, Err: fs.ErrInvalid}
	}

	data, err := fsys.ReadFile(src)
	if err != nil {
		return err
	}

	return WriteFileAtomic(fsys, dst, data, info.Mode().Perm())
}
