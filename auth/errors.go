package auth

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an authentication or authorization failure.
type Kind string

const (
	KindUnauthenticated     Kind = "unauthenticated"
	KindInvalidToken        Kind = "invalid_token"
	KindTokenExpired        Kind = "token_expired"
	KindForbidden           Kind = "forbidden"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
)

// Error is a rejection produced by the gateway. Reason is safe to show to
// callers; Err carries the underlying cause for logs only.
type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

// Unwrap implements errors.Unwrap
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// PublicKind is the kind reported to callers. Dependency outages are
// reported as Unauthenticated.
func (e *Error) PublicKind() Kind {
	if e.Kind == KindUpstreamUnavailable {
		return KindUnauthenticated
	}
	return e.Kind
}

// PublicReason is the message reported to callers alongside PublicKind.
func (e *Error) PublicReason() string {
	if e.Kind == KindUpstreamUnavailable {
		return reasonGeneric
	}
	return e.Reason
}

// StatusCode maps the error to an HTTP status.
func (e *Error) StatusCode() int {
	if e.Kind == KindForbidden {
		return http.StatusForbidden
	}
	return http.StatusUnauthorized
}

func newError(kind Kind, reason string, err error) *Error {
	return &Error{Kind: kind, Reason: reason, Err: err}
}

// Sentinel values for errors.Is checks.
var (
	ErrUnauthenticated     = newError(KindUnauthenticated, "authentication required", nil)
	ErrInvalidToken        = newError(KindInvalidToken, "invalid token", nil)
	ErrTokenExpired        = newError(KindTokenExpired, "token has expired", nil)
	ErrForbidden           = newError(KindForbidden, "insufficient permissions", nil)
	ErrUpstreamUnavailable = newError(KindUpstreamUnavailable, "authentication service unavailable", nil)
)

const (
	reasonMissingCredential = "missing credential"
	reasonAnonymousKey      = "anonymous credential cannot authenticate a user"
	reasonMissingSubject    = "missing subject"
	reasonUserNotFound      = "user not found"
	reasonGeneric           = "authentication failed"
)

// AsError converts any error into an *Error. Errors that are not already
// gateway errors become a generic Unauthenticated rejection.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr
	}
	return newError(KindUnauthenticated, reasonGeneric, err)
}

// KindOf returns the kind of err, treating unknown errors as Unauthenticated.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return AsError(err).Kind
}
