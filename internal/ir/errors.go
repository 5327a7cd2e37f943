package ir

import (
	"fmt"
	"path/filepath"
	"runtime"
)

// Error is a construction-time contract violation: a mismatched input count,
// an unsupported lane width, an empty dataset, a module built twice.
//
// The object that reported it must be discarded and rebuilt; nothing is
// retried. File and Line point at the code that detected the violation.
type Error struct {
	Msg  string
	File string
	Line int
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.File == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s (%s:%d)", e.Msg, filepath.Base(e.File), e.Line)
}

// Errorf formats a message and records the location of its caller.
func Errorf(format string, args ...any) *Error {
	e := &Error{Msg: fmt.Sprintf(format, args...)}
	if _, file, line, ok := runtime.Caller(1); ok {
		e.File = file
		e.Line = line
	}
	return e
}
