//go:build windows

package archive

import "syscall"

// ERROR_SHARING_VIOLATION and ERROR_LOCK_VIOLATION.
var platformTransientErrnos = []syscall.Errno{32, 33}
