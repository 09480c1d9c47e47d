// Package apperr defines the error values shared by stores, services and
// handlers. Each error carries a Code that handlers translate into an HTTP
// status, plus optional per-field detail for validation failures.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

const (
	EInternal     = "internal error"
	EInvalid      = "invalid"
	EConflict     = "conflict"
	ENotFound     = "not found"
	EUnauthorized = "unauthorized"
	EForbidden    = "forbidden"
)

// Error is the error type returned across package boundaries.
//
// Msg is safe to show to API clients. Err is the underlying cause and is
// only logged. Fields maps a payload field (e.g. "items[1].quantity") to
// what is wrong with it.
type Error struct {
	Code   string
	Msg    string
	Op     string
	Err    error
	Fields map[string]string
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch {
	case e.Msg != "" && e.Err != nil:
		b.WriteString(e.Msg)
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	case e.Msg != "":
		b.WriteString(e.Msg)
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	default:
		fmt.Fprintf(&b, "<%s>", e.Code)
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(k)
			b.WriteString(": ")
			b.WriteString(e.Fields[k])
		}
		b.WriteString(")")
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Code returns the code of the first *Error in err's chain, or EInternal.
func Code(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Code != "" {
		return e.Code
	}
	return EInternal
}

// HTTPStatus maps an error code to a response status.
func HTTPStatus(code string) int {
	switch code {
	case EInvalid, EConflict:
		return http.StatusBadRequest
	case EUnauthorized:
		return http.StatusUnauthorized
	case EForbidden:
		return http.StatusForbidden
	case ENotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return Code(err) == code
}

func NotFound(msg string) *Error {
	return &Error{Code: ENotFound, Msg: msg}
}

func Unauthorized(msg string) *Error {
	return &Error{Code: EUnauthorized, Msg: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Code: EForbidden, Msg: msg}
}

// Invalid builds a validation error for a single field.
func Invalid(field, msg string) *Error {
	return &Error{
		Code:   EInvalid,
		Msg:    "validation failed",
		Fields: map[string]string{field: msg},
	}
}

// Conflict builds a uniqueness violation on field.
func Conflict(field, msg string) *Error {
	return &Error{
		Code:   EConflict,
		Msg:    msg,
		Fields: map[string]string{field: msg},
	}
}

// Internal wraps a persistence or other unexpected failure.
func Internal(op string, err error) *Error {
	return &Error{Code: EInternal, Op: op, Msg: "internal error", Err: err}
}
