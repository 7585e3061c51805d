// Package domainerrors carries coded errors from services out to transports.
// Services fail with a code from the taxonomy below; handlers translate the
// code to an HTTP status without inspecting error strings.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code enumerates every failure kind a service can return. The registration
// taxonomy is closed: callers match on codes, so adding one is an API change.
type Code string

const (
	// Registration core taxonomy.
	CodeUnauthorized       Code = "unauthorized"
	CodeInvalidRange       Code = "invalid_range"
	CodeAlreadyActive      Code = "already_active"
	CodeNotDraft           Code = "not_draft"
	CodeNotActive          Code = "not_active"
	CodeNoActiveSeason     Code = "no_active_season"
	CodeSeasonNotOpen      Code = "season_not_open"
	CodeInvalidNameLength  Code = "invalid_name_length"
	CodeNameTaken          Code = "name_taken"
	CodeAlreadyRegistered  Code = "already_registered"
	CodeReplayedPayment    Code = "replayed_payment"
	CodePaymentNotVerified Code = "payment_not_verified"
	CodeLastAdmin          Code = "last_admin"

	// Ambient codes shared by every module.
	CodeBadRequest Code = "bad_request"
	CodeNotFound   Code = "not_found"
	CodeConflict   Code = "conflict"
	CodeInternal   Code = "internal"
)

// Error is the concrete coded error. Wrapped causes stay reachable through
// errors.Is / errors.As.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New builds a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.Unwrap()
		if err == nil {
			return false
		}
	}
	return false
}

// Is is shorthand for HasCode, matching how call sites read in conditionals.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf extracts the outermost code, defaulting to CodeInternal for plain
// errors so transports always have something to map.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
