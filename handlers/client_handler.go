package handlers

import (
	"context"
	"net/http"

	"github.com/DianaTao/solace/auth"
	"github.com/DianaTao/solace/models"
	"github.com/DianaTao/solace/services/clients"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ClientService is the case-record API for clients
type ClientService interface {
	List(ctx context.Context, req clients.ListRequest) ([]*models.Client, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Client, error)
	Create(ctx context.Context, actor *auth.Principal, req clients.CreateRequest) (*models.Client, error)
	Update(ctx context.Context, actor *auth.Principal, id uuid.UUID, req clients.UpdateRequest) (*models.Client, error)
	Delete(ctx context.Context, actor *auth.Principal, id uuid.UUID) error
	Summary(ctx context.Context, id uuid.UUID) (*models.ClientSummary, error)
}

// ClientHandler handles /api/clients
type ClientHandler struct {
	service ClientService
	logger  *zap.Logger
}

// NewClientHandler creates a new ClientHandler
func NewClientHandler(service ClientService, logger *zap.Logger) *ClientHandler {
	return &ClientHandler{service: service, logger: logger}
}

// HandleList handles GET /api/clients
func (h *ClientHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	pg, ok := page(w, r, h.logger)
	if !ok {
		return
	}
	q := r.URL.Query()
	list, err := h.service.List(r.Context(), clients.ListRequest{
		Skip:     pg.Skip,
		Limit:    pg.Limit,
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
		Search:   q.Get("search"),
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, list, h.logger)
}

// HandleGet handles GET /api/clients/{id}
func (h *ClientHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, h.logger)
	if !ok {
		return
	}
	client, err := h.service.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, client, h.logger)
}

// HandleCreate handles POST /api/clients
func (h *ClientHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	var req clients.CreateRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}
	client, err := h.service.Create(r.Context(), actor, req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeCreated(w, client, h.logger)
}

// HandleUpdate handles PUT /api/clients/{id}
func (h *ClientHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, h.logger)
	if !ok {
		return
	}
	var req clients.UpdateRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}
	client, err := h.service.Update(r.Context(), actor, id, req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, client, h.logger)
}

// HandleDelete handles DELETE /api/clients/{id}
func (h *ClientHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
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
	writeOK(w, map[string]string{"message": "client deleted"}, h.logger)
}

// HandleSummary handles GET /api/clients/{id}/summary
func (h *ClientHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, h.logger)
	if !ok {
		return
	}
	summary, err := h.service.Summary(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, summary, h.logger)
}
