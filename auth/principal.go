package auth

import (
	"strings"

	"github.com/DianaTao/solace/models"
)

// Principal is the authenticated caller for a single request.
// It is built fresh on every request and never persisted.
type Principal struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
}

// HasRole reports whether the principal is at or above the required role.
func (p *Principal) HasRole(required Role) bool {
	if p == nil {
		return false
	}
	return p.Role.Satisfies(required)
}

// Identity is what a verifier learns from a token before the profile lookup.
type Identity struct {
	Subject string
	Email   string
}

// newPrincipal merges a verified identity with its profile record.
func newPrincipal(id Identity, profile *models.Profile, fallback Role) *Principal {
	p := &Principal{
		ID:          id.Subject,
		Email:       id.Email,
		DisplayName: profile.Name,
		Role:        ParseRole(profile.Role, fallback),
	}
	if p.Email == "" {
		p.Email = profile.Email
	}
	if p.DisplayName == "" {
		p.DisplayName = DisplayNameFromEmail(p.Email)
	}
	return p
}

// DefaultProfile builds the in-memory profile used when an authenticated
// identity has no stored profile row.
func DefaultProfile(id Identity) *models.Profile {
	return &models.Profile{
		ID:    id.Subject,
		Email: id.Email,
		Name:  DisplayNameFromEmail(id.Email),
		Role:  string(RoleSocialWorker),
	}
}

// DisplayNameFromEmail returns the local part of an email address.
func DisplayNameFromEmail(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found {
		return email
	}
	return local
}
