package apperr

import (
	"errors"
	"fmt"
)

// Code identifies the kind of failure a planning operation reported.
type Code string

const (
	NotFound               Code = "NotFound"
	InvalidStateTransition Code = "InvalidStateTransition"
	DueDateRequired        Code = "DueDateRequired"
	BoardIDRequired        Code = "BoardIdRequired"
	InvalidInput           Code = "InvalidInput"
	PathOutsideVault       Code = "PathOutsideVault"
	SymlinkNotAllowed      Code = "SymlinkNotAllowed"
	DatabaseError          Code = "DatabaseError"
	FileReadError          Code = "FileReadError"
	FileWriteError         Code = "FileWriteError"
)

// Sentinels for errors.Is. Matching is by code, so any *Error with the same
// code satisfies errors.Is(err, ErrNotFound).
var (
	ErrNotFound               = &Error{Code: NotFound}
	ErrInvalidStateTransition = &Error{Code: InvalidStateTransition}
	ErrDueDateRequired        = &Error{Code: DueDateRequired}
	ErrBoardIDRequired        = &Error{Code: BoardIDRequired}
	ErrInvalidInput           = &Error{Code: InvalidInput}
	ErrPathOutsideVault       = &Error{Code: PathOutsideVault}
	ErrSymlinkNotAllowed      = &Error{Code: SymlinkNotAllowed}
	ErrDatabase               = &Error{Code: DatabaseError}
	ErrFileRead               = &Error{Code: FileReadError}
	ErrFileWrite              = &Error{Code: FileWriteError}
)

// Error is the typed error returned by the store, mirror and engine.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("[%s] %v", e.Code, e.Err)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error carrying the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New returns an error of the given kind.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error. A nil err yields nil.
func Wrap(code Code, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf extracts the kind of err. Errors that carry no kind report
// DatabaseError, since only the store produces untyped failures.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return DatabaseError
}

// MessageOf returns the human readable part of err without the code prefix.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}
