package provider

import (
	"errors"
	"fmt"
)

// ResultCode is a store status code. Values follow the usual KV server numbering so
// they read naturally in logs.
type ResultCode int

const (
	OK             ResultCode = 0
	ServerError    ResultCode = 1
	KeyNotFound    ResultCode = 2
	ParameterError ResultCode = 4
	KeyExists      ResultCode = 5
	ClientClosed   ResultCode = -1
)

func (c ResultCode) String() string {
	switch c {
	case OK:
		return "ok"
	case ServerError:
		return "server error"
	case KeyNotFound:
		return "record not found"
	case ParameterError:
		return "parameter error"
	case KeyExists:
		return "record exists"
	case ClientClosed:
		return "client closed"
	default:
		return fmt.Sprintf("result code %d", int(c))
	}
}

// Error is a store error carrying a ResultCode. Two *Error values match with
// errors.Is when their codes are equal, so callers compare against the sentinels
// below rather than inspecting messages.
type Error struct {
	Code ResultCode
	Err  error // optional cause
}

var (
	ErrRecordNotFound = &Error{Code: KeyNotFound}
	ErrRecordExists   = &Error{Code: KeyExists}
	ErrClosed         = &Error{Code: ClientClosed}
	ErrParameter      = &Error{Code: ParameterError}
)

// NewError wraps cause with code.
func NewError(code ResultCode, cause error) *Error {
	return &Error{Code: code, Err: cause}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider: %s: %v", e.Code, e.Err)
	}
	return "provider: " + e.Code.String()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// CodeOf extracts the ResultCode from err. nil => OK, foreign errors => ServerError.
func CodeOf(err error) ResultCode {
	if err == nil {
		return OK
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ServerError
}

// IsNotFound is shorthand for errors.Is(err, ErrRecordNotFound).
func IsNotFound(err error) bool { return errors.Is(err, ErrRecordNotFound) }
