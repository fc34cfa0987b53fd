package pipeline

import (
	"errors"
	"fmt"

	"github.com/roach88/orderingest/internal/archive"
)

// ErrorCode categorizes pipeline errors.
type ErrorCode string

const (
	// CodeConfigMissing: a resource the whole run depends on is absent.
	// Fatal before any file is touched.
	CodeConfigMissing ErrorCode = "CONFIG_MISSING"

	// CodeRowShopUnresolved: a row's shop is not in the directory. The row
	// is kept.
	CodeRowShopUnresolved ErrorCode = "ROW_SHOP_UNRESOLVED"

	// CodeRowShopMissing: a row has no shop identifier anywhere. The row is
	// dropped.
	CodeRowShopMissing ErrorCode = "ROW_SHOP_MISSING"

	// CodeFileLocked: the archive move stayed blocked through every retry.
	CodeFileLocked ErrorCode = "FILE_LOCKED"

	// CodeFileError: the file could not be read, converted or written.
	CodeFileError ErrorCode = "FILE_ERROR"

	// CodeDuplicateContent: the content was seen before. Not a failure.
	CodeDuplicateContent ErrorCode = "DUPLICATE_CONTENT"
)

// Error is a pipeline error with a code and the file it concerns.
type Error struct {
	Code    ErrorCode
	Message string

	// File is the inbound file name, empty for run-level errors.
	File string

	// Stage names the step that failed (read, extract, write, archive).
	Stage string

	Err error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.File != "" {
		return fmt.Sprintf("%s: %s (file=%s)", e.Code, msg, e.File)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewConfigMissing reports that resource could not be loaded.
func NewConfigMissing(resource string, err error) *Error {
	return &Error{
		Code:    CodeConfigMissing,
		Message: resource + " unavailable",
		Err:     err,
	}
}

func newFileError(file, stage string, err error) *Error {
	code := CodeFileError
	if errors.Is(err, archive.ErrLocked) {
		code = CodeFileLocked
	}
	return &Error{
		Code:    code,
		Message: stage + " failed",
		File:    file,
		Stage:   stage,
		Err:     err,
	}
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// IsConfigMissing reports whether err aborts the whole run.
func IsConfigMissing(err error) bool {
	return CodeOf(err) == CodeConfigMissing
}

// IsFileLocked reports whether err is an exhausted archive retry.
func IsFileLocked(err error) bool {
	return CodeOf(err) == CodeFileLocked
}

// IsFileError reports whether err is scoped to a single file. Lock
// exhaustion escalates to a file error.
func IsFileError(err error) bool {
	code := CodeOf(err)
	return code == CodeFileError || code == CodeFileLocked
}
