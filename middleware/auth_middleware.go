package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/DianaTao/solace/auth"
	"github.com/DianaTao/solace/utils"
	"go.uber.org/zap"
)

// Authenticator resolves a bearer token to a principal
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Principal, error)
	Mode() auth.Mode
}

// AuthMiddleware gates protected routes on a resolved principal
type AuthMiddleware struct {
	authenticator Authenticator
	logger        *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(authenticator Authenticator, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authenticator: authenticator,
		logger:        logger,
	}
}

// RequireAuth rejects requests without a valid bearer token. The principal
// is placed in the request context for handlers.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := m.authenticate(w, r)
		if !ok {
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

// OptionalAuth resolves a principal when a credential is present and lets
// anonymous requests through. A credential that fails verification is
// still rejected.
func (m *AuthMiddleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			next.ServeHTTP(w, r)
			return
		}
		principal, ok := m.authenticate(w, r)
		if !ok {
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

// RequireRole rejects principals below the required role.
// It must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(role auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := GetPrincipalFromContext(r.Context())
			if err := auth.Authorize(principal, role); err != nil {
				authErr := auth.AsError(err)
				fields := []zap.Field{
					zap.String("request_id", GetRequestIDFromContext(r.Context())),
					zap.String("kind", string(authErr.Kind)),
					zap.String("required_role", string(role)),
				}
				if principal != nil {
					fields = append(fields, zap.String("sub", principal.ID), zap.String("role", string(principal.Role)))
				}
				m.logger.Warn("insufficient permissions", fields...)
				m.reject(w, r, authErr)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m *AuthMiddleware) authenticate(w http.ResponseWriter, r *http.Request) (*auth.Principal, bool) {
	ctx := r.Context()
	requestID := GetRequestIDFromContext(ctx)

	principal, err := m.authenticator.Authenticate(ctx, extractBearerToken(r))
	if err != nil {
		authErr := auth.AsError(err)
		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("mode", string(m.authenticator.Mode())),
			zap.String("kind", string(authErr.Kind)),
			zap.String("path", r.URL.Path),
		}
		if authErr.Err != nil {
			fields = append(fields, zap.Error(authErr.Err))
		}
		if authErr.Kind == auth.KindUpstreamUnavailable {
			m.logger.Error("authentication dependency unavailable", fields...)
		} else {
			m.logger.Warn("authentication rejected", fields...)
		}
		m.reject(w, r, authErr)
		return nil, false
	}

	m.logger.Debug("authentication successful",
		zap.String("request_id", requestID),
		zap.String("sub", principal.ID),
		zap.String("role", string(principal.Role)))
	return principal, true
}

func (m *AuthMiddleware) reject(w http.ResponseWriter, r *http.Request, authErr *auth.Error) {
	if authErr.StatusCode() == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="solace"`)
	}
	if err := utils.WriteRequestError(w, r, authErr.StatusCode(), string(authErr.PublicKind()), authErr.PublicReason()); err != nil {
		m.logger.Error("failed to write auth rejection", zap.Error(err))
	}
}

// extractBearerToken extracts the Bearer token from the Authorization header.
// Any other scheme is treated as no credential.
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
