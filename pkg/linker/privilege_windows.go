//go:build windows

package linker

import (
	stderrors "errors"
	"syscall"
)

// errPrivilegeNotHeld is ERROR_PRIVILEGE_NOT_HELD, returned by CreateSymbolicLink
// when neither Developer Mode nor SeCreateSymbolicLinkPrivilege is available.
const errPrivilegeNotHeld = syscall.Errno(1314)

func isPrivilegeError(err error) bool {
	return stderrors.Is(err, errPrivilegeNotHeld)
}
