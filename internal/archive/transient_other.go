//go:build !windows

package archive

import "syscall"

var platformTransientErrnos = []syscall.Errno{syscall.ETXTBSY}
