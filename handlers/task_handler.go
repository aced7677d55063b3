package handlers

import (
	"context"
	"net/http"

	"github.com/DianaTao/solace/auth"
	"github.com/DianaTao/solace/models"
	"github.com/DianaTao/solace/services"
	"github.com/DianaTao/solace/services/tasks"
	"github.com/DianaTao/solace/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TaskService is the case-record API for tasks
type TaskService interface {
	List(ctx context.Context, actor *auth.Principal, req tasks.ListRequest) ([]*models.Task, error)
	Get(ctx context.Context, actor *auth.Principal, id uuid.UUID) (*models.Task, error)
	Create(ctx context.Context, actor *auth.Principal, req tasks.CreateRequest) (*models.Task, error)
	Update(ctx context.Context, actor *auth.Principal, id uuid.UUID, req tasks.UpdateRequest) (*models.Task, error)
	Complete(ctx context.Context, actor *auth.Principal, id uuid.UUID) (*models.Task, error)
	Delete(ctx context.Context, actor *auth.Principal, id uuid.UUID) error
	CalendarEvent(ctx context.Context, actor *auth.Principal, id uuid.UUID) (*models.CalendarEvent, error)
}

// TaskHandler handles /api/tasks
type TaskHandler struct {
	service TaskService
	logger  *zap.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(service TaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{service: service, logger: logger}
}

// HandleList handles GET /api/tasks
func (h *TaskHandler) HandleList(w http.ResponseWriter, r *http.Request) {
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
	overdue, err := utils.QueryBool(r, "overdue")
	if err != nil {
		HandleServiceError(w, services.Validation("overdue", err.Error()), h.logger)
		return
	}
	q := r.URL.Query()
	list, err := h.service.List(r.Context(), actor, tasks.ListRequest{
		ClientID:    clientID,
		Status:      q.Get("status"),
		Priority:    q.Get("priority"),
		OverdueOnly: overdue,
		Skip:        pg.Skip,
		Limit:       pg.Limit,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, list, h.logger)
}

// HandleGet handles GET /api/tasks/{id}
func (h *TaskHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	h.withTask(w, r, h.service.Get)
}

// HandleComplete handles POST /api/tasks/{id}/complete
func (h *TaskHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	h.withTask(w, r, h.service.Complete)
}

func (h *TaskHandler) withTask(w http.ResponseWriter, r *http.Request,
	fn func(context.Context, *auth.Principal, uuid.UUID) (*models.Task, error)) {
	actor, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, h.logger)
	if !ok {
		return
	}
	task, err := fn(r.Context(), actor, id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, task, h.logger)
}

// HandleCreate handles POST /api/tasks
func (h *TaskHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	var req tasks.CreateRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}
	task, err := h.service.Create(r.Context(), actor, req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeCreated(w, task, h.logger)
}

// HandleUpdate handles PUT /api/tasks/{id}
func (h *TaskHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, h.logger)
	if !ok {
		return
	}
	var req tasks.UpdateRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}
	task, err := h.service.Update(r.Context(), actor, id, req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, task, h.logger)
}

// HandleDelete handles DELETE /api/tasks/{id}
func (h *TaskHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
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
	writeOK(w, map[string]string{"message": "task deleted"}, h.logger)
}

// HandleCalendarEvent handles GET /api/tasks/{id}/calendar-event
func (h *TaskHandler) HandleCalendarEvent(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, h.logger)
	if !ok {
		return
	}
	event, err := h.service.CalendarEvent(r.Context(), actor, id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, event, h.logger)
}
