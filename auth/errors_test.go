package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", newError(KindTokenExpired, "custom reason", errors.New("cause")))

	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.NotErrorIs(t, err, ErrInvalidToken)
	assert.Equal(t, KindTokenExpired, KindOf(err))
}

func TestAsError(t *testing.T) {
	assert.Nil(t, AsError(nil))
	assert.Equal(t, Kind(""), KindOf(nil))

	plain := AsError(errors.New("boom"))
	assert.Equal(t, KindUnauthenticated, plain.Kind)
	assert.Equal(t, reasonGeneric, plain.Reason)
	assert.EqualError(t, errors.Unwrap(plain), "boom")
}

func TestErrorPublicView(t *testing.T) {
	tests := []struct {
		err        *Error
		kind       Kind
		reason     string
		statusCode int
	}{
		{ErrUnauthenticated, KindUnauthenticated, "authentication required", http.StatusUnauthorized},
		{ErrInvalidToken, KindInvalidToken, "invalid token", http.StatusUnauthorized},
		{ErrTokenExpired, KindTokenExpired, "token has expired", http.StatusUnauthorized},
		{ErrForbidden, KindForbidden, "insufficient permissions", http.StatusForbidden},
		{ErrUpstreamUnavailable, KindUnauthenticated, reasonGeneric, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(string(tt.err.Kind), func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.err.PublicKind())
			assert.Equal(t, tt.reason, tt.err.PublicReason())
			assert.Equal(t, tt.statusCode, tt.err.StatusCode())
		})
	}
}

func TestProviderReason(t *testing.T) {
	token := "eyJhbGciOiJIUzI1NiJ9.payload.sig"

	tests := []struct {
		name string
		body string
		want string
	}{
		{"msg field", `{"msg":"invalid JWT"}`, "identity provider rejected the token: invalid JWT"},
		{"oauth error", `{"error":"invalid_grant","error_description":"token is expired"}`, "identity provider rejected the token: token is expired"},
		{"not json", `<html>`, "identity provider rejected the token"},
		{"token echoed", `{"message":"bad token ` + token + `"}`, "identity provider rejected the token: bad token [redacted]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, providerReason([]byte(tt.body), token))
		})
	}

	long := providerReason([]byte(`{"msg":"`+strings.Repeat("x", 500)+`"}`), token)
	assert.Len(t, long, len("identity provider rejected the token: ")+maxProviderMessage)

	multibyte := providerReason([]byte(`{"msg":"`+strings.Repeat("é", 300)+`"}`), token)
	assert.True(t, utf8.ValidString(multibyte))
	assert.Equal(t, "identity provider rejected the token: "+strings.Repeat("é", maxProviderMessage), multibyte)
}

func TestSettingsMode(t *testing.T) {
	tests := []struct {
		secret string
		want   Mode
	}{
		{"a-real-secret", ModeLocal},
		{"", ModeRemote},
		{"   ", ModeRemote},
		{"your_supabase_jwt_secret_here", ModeRemote},
		{"CHANGEME", ModeRemote},
		{"your-secret", ModeRemote},
	}
	for _, tt := range tests {
		t.Run(tt.secret, func(t *testing.T) {
			assert.Equal(t, tt.want, Settings{SigningSecret: tt.secret}.Mode())
		})
	}
}
