package archive

import (
	"errors"
	"io/fs"
	"syscall"
)

// IsTransient reports whether err looks like lock or sharing contention
// that may clear on its own, as when a spreadsheet is still open in another
// program.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, fs.ErrPermission) {
		return true
	}
	for _, errno := range transientErrnos {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}

var transientErrnos = append([]syscall.Errno{
	syscall.EBUSY,
	syscall.EAGAIN,
}, platformTransientErrnos...)
