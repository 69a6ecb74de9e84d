//go:build !windows

package linker

import (
	stderrors "errors"
	"syscall"
)

func isPrivilegeError(err error) bool {
	return stderrors.Is(err, syscall.EPERM)
}
