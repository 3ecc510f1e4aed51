// Package apperr defines the closed set of failures the service reports to callers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind names a failure class. The string value is what API clients see.
type Kind string

const (
	Unauthenticated       Kind = "UNAUTHENTICATED"
	UserNotInitialized    Kind = "USER_NOT_INITIALIZED"
	Forbidden             Kind = "FORBIDDEN"
	NotFound              Kind = "NOT_FOUND"
	InvalidTitle          Kind = "INVALID_TITLE"
	InvalidNickname       Kind = "INVALID_NICKNAME"
	InvalidExpiration     Kind = "INVALID_EXPIRATION"
	Expired               Kind = "EXPIRED"
	CodeGenerationFailed  Kind = "CODE_GENERATION_FAILED"
	CannotChangeOwnerRole Kind = "CANNOT_CHANGE_OWNER_ROLE"
	InvalidRoleTransition Kind = "INVALID_ROLE_TRANSITION"
	CannotRemoveOwner     Kind = "CANNOT_REMOVE_OWNER"
	InvalidTimetable      Kind = "INVALID_TIMETABLE"
	WeeksNotInSameClass   Kind = "WEEKS_NOT_IN_SAME_CLASS"
	InvalidColor          Kind = "INVALID_COLOR"
	InvalidTeacher        Kind = "INVALID_TEACHER"
	InvalidInput          Kind = "INVALID_INPUT"
	ExtractionFailed      Kind = "EXTRACTION_FAILED"
	Internal              Kind = "INTERNAL"
)

// Error carries a Kind plus an optional human message and cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind, so that
// errors.Is(err, apperr.E(apperr.Forbidden)) works regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// E builds an error of the given kind without further detail.
func E(kind Kind) *Error {
	return &Error{Kind: kind}
}

// New builds an error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an underlying error.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or Internal for anything that is not an *Error.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// HTTPStatus maps a kind onto the status code the API answers with.
func HTTPStatus(kind Kind) int {
	switch kind {
	case Unauthenticated, UserNotInitialized:
		return http.StatusUnauthorized
	case Forbidden, CannotRemoveOwner:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Expired:
		return http.StatusGone
	case CannotChangeOwnerRole, InvalidRoleTransition:
		return http.StatusConflict
	case InvalidTitle, InvalidNickname, InvalidExpiration, InvalidTimetable,
		WeeksNotInSameClass, InvalidColor, InvalidTeacher, InvalidInput:
		return http.StatusBadRequest
	case ExtractionFailed:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
