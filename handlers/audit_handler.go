package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/DianaTao/solace/models"
	"github.com/DianaTao/solace/services"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuditReader reads the audit trail
type AuditReader interface {
	Trail(ctx context.Context, resourceType string, resourceID uuid.UUID, limit, offset int) ([]*models.AuditLog, error)
	ActorHistory(ctx context.Context, actorID string, limit, offset int) ([]*models.AuditLog, error)
}

// auditResourceTypes are the record kinds that carry a trail
var auditResourceTypes = map[string]bool{
	"client":    true,
	"case_note": true,
	"task":      true,
	"report":    true,
}

// AuditHandler handles /api/audit, mounted for supervisors and above
type AuditHandler struct {
	reader AuditReader
	logger *zap.Logger
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(reader AuditReader, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{reader: reader, logger: logger}
}

// HandleResourceTrail handles GET /api/audit/{resourceType}/{id}
func (h *AuditHandler) HandleResourceTrail(w http.ResponseWriter, r *http.Request) {
	resourceType := chi.URLParam(r, "resourceType")
	if !auditResourceTypes[resourceType] {
		HandleServiceError(w, services.Validation("resource_type", "unknown resource type"), h.logger)
		return
	}
	id, ok := pathID(w, r, h.logger)
	if !ok {
		return
	}
	pg, ok := page(w, r, h.logger)
	if !ok {
		return
	}

	logs, err := h.reader.Trail(r.Context(), resourceType, id, pg.Limit, pg.Skip)
	if err != nil {
		HandleServiceError(w, services.WrapInternal("failed to read audit trail", err), h.logger)
		return
	}
	writeOK(w, logs, h.logger)
}

// HandleActorHistory handles GET /api/audit/actors/{actorID}
func (h *AuditHandler) HandleActorHistory(w http.ResponseWriter, r *http.Request) {
	actorID := strings.TrimSpace(chi.URLParam(r, "actorID"))
	if actorID == "" {
		HandleServiceError(w, services.Validation("actor_id", "actor_id is required"), h.logger)
		return
	}
	pg, ok := page(w, r, h.logger)
	if !ok {
		return
	}

	logs, err := h.reader.ActorHistory(r.Context(), actorID, pg.Limit, pg.Skip)
	if err != nil {
		HandleServiceError(w, services.WrapInternal("failed to read audit history", err), h.logger)
		return
	}
	writeOK(w, logs, h.logger)
}
