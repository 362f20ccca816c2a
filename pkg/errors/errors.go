package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind groups error codes by how callers should react to them.
type Kind string

// Error kinds surfaced to API consumers.
const (
	KindNotFound         Kind = "NOT_FOUND"
	KindPolicyViolation  Kind = "POLICY_VIOLATION"
	KindCapacityExceeded Kind = "CAPACITY_EXCEEDED"
	KindValidation       Kind = "VALIDATION"
	KindUnexpected       Kind = "UNEXPECTED"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Kind    Kind   `json:"kind,omitempty"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code so cloned errors compare equal to their template.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Kind: kindForStatus(status)}
}

// NewKind creates an Error with an explicit kind.
func NewKind(code string, kind Kind, status int, message string) *Error {
	return &Error{Code: code, Kind: kind, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err, Kind: kindForStatus(status)}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrPreconditionFailed = New("PRECONDITION_FAILED", http.StatusPreconditionFailed, "precondition failed")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Enrollment workflow errors.
var (
	ErrStudentNotFound        = NewKind("STUDENT_NOT_FOUND", KindNotFound, http.StatusNotFound, "student not found")
	ErrCareerNotActive        = NewKind("CAREER_NOT_ACTIVE", KindPolicyViolation, http.StatusUnprocessableEntity, "student is not active in career")
	ErrPeriodNotFound         = NewKind("PERIOD_NOT_FOUND", KindNotFound, http.StatusNotFound, "academic period not found")
	ErrNoActivePeriod         = NewKind("NO_ACTIVE_PERIOD", KindNotFound, http.StatusNotFound, "no active academic period")
	ErrMultipleActivePeriods  = NewKind("MULTIPLE_ACTIVE_PERIODS", KindPolicyViolation, http.StatusConflict, "more than one academic period is active")
	ErrEnrollmentClosed       = NewKind("ENROLLMENT_CLOSED", KindPolicyViolation, http.StatusUnprocessableEntity, "enrollment is not open for the period")
	ErrStudentBlocked         = NewKind("STUDENT_BLOCKED", KindPolicyViolation, http.StatusForbidden, "student is blocked")
	ErrOfferingsNotFound      = NewKind("OFFERINGS_NOT_FOUND", KindNotFound, http.StatusNotFound, "some offerings were not found")
	ErrOfferingsOutsidePeriod = NewKind("OFFERINGS_OUTSIDE_PERIOD", KindPolicyViolation, http.StatusUnprocessableEntity, "some offerings do not belong to the period")
	ErrEnrollmentCancelled    = NewKind("ENROLLMENT_CANCELLED", KindPolicyViolation, http.StatusConflict, "enrollment has been cancelled")
	ErrNoSeatsAvailable       = NewKind("NO_SEATS_AVAILABLE", KindCapacityExceeded, http.StatusConflict, "no seats available")
	ErrConcurrencyConflict    = NewKind("CONCURRENCY_CONFLICT", KindCapacityExceeded, http.StatusConflict, "a concurrent confirmation changed seats, please retry")
	ErrEnrollmentNotFound     = NewKind("ENROLLMENT_NOT_FOUND", KindNotFound, http.StatusNotFound, "enrollment not found")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Clonef is Clone with a formatted message.
func Clonef(err *Error, format string, args ...interface{}) *Error {
	return Clone(err, fmt.Sprintf(format, args...))
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusBadRequest:
		return KindValidation
	case status >= http.StatusInternalServerError:
		return KindUnexpected
	default:
		return ""
	}
}
