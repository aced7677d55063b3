package handlers

import (
	"context"
	"net/http"

	"github.com/DianaTao/solace/auth"
	"github.com/DianaTao/solace/models"
	"github.com/DianaTao/solace/services/casenotes"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CaseNoteService is the case-record API for notes
type CaseNoteService interface {
	List(ctx context.Context, actor *auth.Principal, req casenotes.ListRequest) ([]*models.CaseNote, error)
	Get(ctx context.Context, actor *auth.Principal, id uuid.UUID) (*models.CaseNote, error)
	Create(ctx context.Context, actor *auth.Principal, req casenotes.CreateRequest) (*models.CaseNote, error)
	Update(ctx context.Context, actor *auth.Principal, id uuid.UUID, req casenotes.UpdateRequest) (*models.CaseNote, error)
	Delete(ctx context.Context, actor *auth.Principal, id uuid.UUID) error
}

// CaseNoteHandler handles /api/case-notes
type CaseNoteHandler struct {
	service CaseNoteService
	logger  *zap.Logger
}

// NewCaseNoteHandler creates a new CaseNoteHandler
func NewCaseNoteHandler(service CaseNoteService, logger *zap.Logger) *CaseNoteHandler {
	return &CaseNoteHandler{service: service, logger: logger}
}

// HandleList handles GET /api/case-notes
func (h *CaseNoteHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	pg, ok := page(w, r, h.logger)
	if !ok {
		return
	}
	clientID, ok := optionalUUIDQuery(w, r, "client_id", h.logger)
	if !ok {
		return
	}
	notes, err := h.service.List(r.Context(), actor, casenotes.ListRequest{
		ClientID: clientID,
		Category: r.URL.Query().Get("category"),
		Skip:     pg.Skip,
		Limit:    pg.Limit,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, notes, h.logger)
}

// HandleGet handles GET /api/case-notes/{id}
func (h *CaseNoteHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, h.logger)
	if !ok {
		return
	}
	note, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, note, h.logger)
}

// HandleCreate handles POST /api/case-notes
func (h *CaseNoteHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	var req casenotes.CreateRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}
	note, err := h.service.Create(r.Context(), actor, req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeCreated(w, note, h.logger)
}

// HandleUpdate handles PUT /api/case-notes/{id}
func (h *CaseNoteHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, h.logger)
	if !ok {
		return
	}
	var req casenotes.UpdateRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}
	note, err := h.service.Update(r.Context(), actor, id, req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, note, h.logger)
}

// HandleDelete handles DELETE /api/case-notes/{id}
func (h *CaseNoteHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, map[string]string{"message": "case note deleted"}, h.logger)
}
