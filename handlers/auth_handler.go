package handlers

import (
	"net/http"

	"github.com/DianaTao/solace/auth"
	"github.com/DianaTao/solace/middleware"
	"go.uber.org/zap"
)

// SessionResponse describes the caller's authentication state
type SessionResponse struct {
	Authenticated bool            `json:"authenticated"`
	Principal     *auth.Principal `json:"principal,omitempty"`
}

// ModeResponse reports the active verification mode
type ModeResponse struct {
	Mode string `json:"mode"`
}

// AuthHandler exposes the resolved principal
type AuthHandler struct {
	modes  ModeReporter
	logger *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(modes ModeReporter, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{modes: modes, logger: logger}
}

// HandleMe handles GET /api/auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	writeOK(w, p, h.logger)
}

// HandleSession handles GET /api/auth/session behind OptionalAuth
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipalFromContext(r.Context())
	writeOK(w, SessionResponse{Authenticated: p != nil, Principal: p}, h.logger)
}

// HandleMode handles GET /api/auth/mode
func (h *AuthHandler) HandleMode(w http.ResponseWriter, r *http.Request) {
	writeOK(w, ModeResponse{Mode: string(h.modes.Mode())}, h.logger)
}
