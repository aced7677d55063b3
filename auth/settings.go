package auth

import (
	"strings"
	"time"
)

// Mode identifies which verification strategy is in effect.
type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
)

// DefaultProviderTimeout bounds a remote identity-provider call.
const DefaultProviderTimeout = 5 * time.Second

// Settings is the auth configuration surface. It is read on every call so
// changes apply to the next request.
type Settings struct {
	// SigningSecret enables local HS256 verification when set to a real value.
	SigningSecret string
	// AnonKey is the application's public key. It is only ever compared
	// against presented tokens, never used to decode them.
	AnonKey string
	// ProviderURL is the identity provider's base URL for remote verification.
	ProviderURL     string
	ProviderTimeout time.Duration
}

// Mode returns ModeLocal when a usable signing secret is configured.
func (s Settings) Mode() Mode {
	if IsPlaceholder(s.SigningSecret) {
		return ModeRemote
	}
	return ModeLocal
}

// SettingsSource supplies the current auth settings.
type SettingsSource interface {
	AuthSettings() Settings
}

// StaticSettings is a SettingsSource with fixed values.
type StaticSettings Settings

// AuthSettings implements SettingsSource
func (s StaticSettings) AuthSettings() Settings {
	return Settings(s)
}

var placeholderSecrets = map[string]bool{
	"your_supabase_jwt_secret_here": true,
	"changeme":                      true,
	"change-me":                     true,
}

// IsPlaceholder reports whether a configured secret is empty or a template value.
func IsPlaceholder(secret string) bool {
	v := strings.ToLower(strings.TrimSpace(secret))
	if v == "" || placeholderSecrets[v] {
		return true
	}
	return strings.HasPrefix(v, "your_") || strings.HasPrefix(v, "your-")
}
