// Package auth resolves bearer tokens to principals.
//
// A Gateway picks a verification strategy on every call from the current
// Settings: local HS256 verification when a usable signing secret is
// configured, otherwise a call to the identity provider's user endpoint.
// The verified subject is then joined with its stored profile to build a
// Principal. Authorize applies the role hierarchy on top.
//
// All failures are *Error values. Callers should render PublicKind and
// PublicReason; Kind and Err are for logs.
package auth
