package handlers

import (
	"net/http"

	"github.com/DianaTao/solace/auth"
	"github.com/DianaTao/solace/middleware"
	"github.com/DianaTao/solace/services"
	"github.com/DianaTao/solace/utils"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// principal returns the caller resolved by RequireAuth. Handlers mounted
// behind RequireAuth always have one; the 401 covers mis-wired routes.
func principal(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (*auth.Principal, bool) {
	p := middleware.GetPrincipalFromContext(r.Context())
	if p == nil {
		logger.Error("principal missing from context",
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
			zap.String("path", r.URL.Path))
		HandleServiceError(w, services.ErrUnauthorized, logger)
		return nil, false
	}
	return p, true
}

// pathID parses the {id} URL parameter
func pathID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	id, err := utils.ParseUUID(chi.URLParam(r, "id"), "id")
	if err != nil {
		HandleServiceError(w, services.Validation("id", err.Error()), logger)
		return uuid.Nil, false
	}
	return id, true
}

// page reads skip and limit query parameters
func page(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (services.Page, bool) {
	skip, err := utils.QueryInt(r, "skip", 0)
	if err != nil {
		HandleServiceError(w, services.Validation("skip", err.Error()), logger)
		return services.Page{}, false
	}
	limit, err := utils.QueryInt(r, "limit", services.DefaultPageLimit)
	if err != nil {
		HandleServiceError(w, services.Validation("limit", err.Error()), logger)
		return services.Page{}, false
	}
	p, err := services.NormalizePage(skip, limit)
	if err != nil {
		HandleServiceError(w, err, logger)
		return services.Page{}, false
	}
	return p, true
}

// optionalUUIDQuery parses an optional UUID query parameter
func optionalUUIDQuery(w http.ResponseWriter, r *http.Request, name string, logger *zap.Logger) (*uuid.UUID, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	id, err := utils.ParseUUID(raw, name)
	if err != nil {
		HandleServiceError(w, services.Validation(name, err.Error()), logger)
		return nil, false
	}
	return &id, true
}

// decodeAndValidate reads a JSON body into dst and validates it
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}, logger *zap.Logger) bool {
	if err := utils.DecodeJSON(w, r, dst); err != nil {
		if werr := utils.WriteBadRequest(w, err.Error(), nil); werr != nil {
			logger.Error("failed to write bad request response", zap.Error(werr))
		}
		return false
	}
	if err := utils.ValidateStruct(dst); err != nil {
		HandleValidationError(w, err, logger)
		return false
	}
	return true
}

func writeOK(w http.ResponseWriter, data interface{}, logger *zap.Logger) {
	if err := utils.WriteOK(w, data); err != nil {
		logger.Error("failed to write response", zap.Error(err))
	}
}

func writeCreated(w http.ResponseWriter, data interface{}, logger *zap.Logger) {
	if err := utils.WriteCreated(w, data); err != nil {
		logger.Error("failed to write response", zap.Error(err))
	}
}
