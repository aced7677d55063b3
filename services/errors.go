package services

import (
	"errors"
	"fmt"

	"github.com/DianaTao/solace/repositories"
)

// ErrorType classifies a DomainError; handlers map it to a status code
type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeRateLimit    ErrorType = "rate_limit"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeInternal     ErrorType = "internal"
	ErrorTypeExternal     ErrorType = "external"
)

// DomainError is returned by every case-management service. Message is
// safe to show to the caller; Err is for logs only.
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

func (e *DomainError) Error() string {
	if e.Err == nil {
		return string(e.Type) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

// Is matches any DomainError of the same type
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && e.Type == t.Type
}

// WithDetail sets one detail key and returns e
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = map[string]interface{}{}
	}
	e.Details[key] = value
	return e
}

// NewDomainError builds an error of the given type
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{Type: errType, Message: message, Err: err}
}

// Sentinels are compared with errors.Is and never mutated; build a fresh
// error with NewDomainError to attach details.
var (
	ErrClientNotFound   = NewDomainError(ErrorTypeNotFound, "client not found", nil)
	ErrCaseNoteNotFound = NewDomainError(ErrorTypeNotFound, "case note not found", nil)
	ErrTaskNotFound     = NewDomainError(ErrorTypeNotFound, "task not found", nil)

	ErrInvalidPeriod = NewDomainError(ErrorTypeValidation, "invalid reporting period", nil)

	ErrUnauthorized            = NewDomainError(ErrorTypeUnauthorized, "unauthorized", nil)
	ErrForbidden               = NewDomainError(ErrorTypeForbidden, "access forbidden", nil)
	ErrInsufficientPermissions = NewDomainError(ErrorTypeForbidden, "insufficient permissions", nil)
	ErrRateLimitExceeded       = NewDomainError(ErrorTypeRateLimit, "rate limit exceeded", nil)
	ErrDuplicateCaseNumber     = NewDomainError(ErrorTypeConflict, "case number already exists", nil)
)

func asDomain(err error) (*DomainError, bool) {
	var de *DomainError
	ok := errors.As(err, &de)
	return de, ok
}

func hasType(err error, t ErrorType) bool {
	de, ok := asDomain(err)
	return ok && de.Type == t
}

func IsNotFoundError(err error) bool     { return hasType(err, ErrorTypeNotFound) }
func IsValidationError(err error) bool   { return hasType(err, ErrorTypeValidation) }
func IsUnauthorizedError(err error) bool { return hasType(err, ErrorTypeUnauthorized) }
func IsForbiddenError(err error) bool    { return hasType(err, ErrorTypeForbidden) }
func IsRateLimitError(err error) bool    { return hasType(err, ErrorTypeRateLimit) }
func IsConflictError(err error) bool     { return hasType(err, ErrorTypeConflict) }
func IsInternalError(err error) bool     { return hasType(err, ErrorTypeInternal) }
func IsExternalError(err error) bool     { return hasType(err, ErrorTypeExternal) }

// GetErrorType returns "" for errors that are not DomainErrors
func GetErrorType(err error) ErrorType {
	if de, ok := asDomain(err); ok {
		return de.Type
	}
	return ""
}

// GetErrorDetails returns nil for errors that are not DomainErrors
func GetErrorDetails(err error) map[string]interface{} {
	if de, ok := asDomain(err); ok {
		return de.Details
	}
	return nil
}

// WrapInternal hides err behind a generic message
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}

// WrapExternal marks a failure of an upstream dependency
func WrapExternal(message string, err error) error {
	return NewDomainError(ErrorTypeExternal, message, err)
}

// Validation builds a validation error naming the offending field
func Validation(field, message string) *DomainError {
	return NewDomainError(ErrorTypeValidation, message, nil).WithDetail("field", field)
}

// FromRepository maps repository errors into domain errors. notFound is
// returned when the record does not exist; unique violations become
// conflicts.
func FromRepository(err error, notFound *DomainError, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repositories.ErrNotFound) {
		return notFound
	}
	if errors.Is(err, repositories.ErrConflict) {
		return NewDomainError(ErrorTypeConflict, "record already exists", err)
	}
	if GetErrorType(err) != "" {
		return err
	}
	return WrapInternal(op, err)
}
