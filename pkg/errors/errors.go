package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeRateLimit     Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"

	// Cart and checkout domain codes.
	CodeLimitExceeded      Code = "LIMIT_EXCEEDED"
	CodeStockInsufficient  Code = "STOCK_INSUFFICIENT"
	CodeProductUnavailable Code = "PRODUCT_UNAVAILABLE"
)

// Metadata drives how a code is rendered over HTTP. Retryable tells clients
// the same request may succeed later without changes.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

const (
	final     = false
	retryable = true

	hideDetails = false
	showDetails = true
)

var metadataByCode = map[Code]Metadata{
	CodeValidation:    {http.StatusBadRequest, final, "validation failed", showDetails},
	CodeUnauthorized:  {http.StatusUnauthorized, final, "authentication required", hideDetails},
	CodeForbidden:     {http.StatusForbidden, final, "access denied", hideDetails},
	CodeNotFound:      {http.StatusNotFound, final, "resource not found", hideDetails},
	CodeConflict:      {http.StatusConflict, retryable, "conflict detected", hideDetails},
	CodeStateConflict: {http.StatusUnprocessableEntity, final, "state transition disallowed", showDetails},
	CodeRateLimit:     {http.StatusTooManyRequests, retryable, "rate limit exceeded", hideDetails},
	CodeInternal:      {http.StatusInternalServerError, retryable, "internal server error", hideDetails},
	CodeDependency:    {http.StatusServiceUnavailable, retryable, "dependency unavailable", showDetails},

	CodeLimitExceeded:      {http.StatusBadRequest, final, "cart limit exceeded", showDetails},
	CodeStockInsufficient:  {http.StatusConflict, final, "insufficient stock", showDetails},
	CodeProductUnavailable: {http.StatusBadRequest, final, "product unavailable", showDetails},
}

// MetadataFor falls back to INTERNAL_ERROR for codes it does not know.
func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is lets errors.Is match on code, so New(CodeNotFound, "") works as a
// sentinel for any not-found error.
func (e *Error) Is(target error) bool {
	var other *Error
	if e == nil || !stdErrors.As(target, &other) || other == nil {
		return false
	}
	return e.code == other.code
}

// Is reports whether err carries a typed error with the given code.
func Is(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.code == code
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// CodeOf returns the code carried by err, or INTERNAL_ERROR when err is not
// typed. A nil error has no code.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	if typed := As(err); typed != nil {
		return typed.code
	}
	return CodeInternal
}

// IsRetryable reports whether err maps to a retryable code.
func IsRetryable(err error) bool {
	return err != nil && MetadataFor(CodeOf(err)).Retryable
}
