package tasks

import (
	"context"
	"strings"
	"time"

	"github.com/DianaTao/solace/auth"
	"github.com/DianaTao/solace/models"
	"github.com/DianaTao/solace/repositories"
	"github.com/DianaTao/solace/services"
	"github.com/DianaTao/solace/services/audit"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const resourceType = "task"

// ListRequest is a task listing query
type ListRequest struct {
	ClientID    *uuid.UUID
	Status      string
	Priority    string
	OverdueOnly bool
	Skip        int
	Limit       int
}

// CreateRequest holds the fields of a new task
type CreateRequest struct {
	Title                    string            `json:"title" validate:"required,max=200"`
	Description              string            `json:"description"`
	ClientID                 *uuid.UUID        `json:"client_id"`
	AssignedTo               string            `json:"assigned_to" validate:"omitempty,max=100"`
	DueDate                  *time.Time        `json:"due_date"`
	StartTime                *time.Time        `json:"start_time"`
	EndTime                  *time.Time        `json:"end_time"`
	Priority                 models.Priority   `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Recurrence               models.Recurrence `json:"recurrence" validate:"omitempty,oneof=none daily weekly monthly yearly"`
	Tags                     []string          `json:"tags" validate:"omitempty,dive,max=50"`
	Location                 string            `json:"location" validate:"omitempty,max=300"`
	Notes                    string            `json:"notes"`
	EstimatedDurationMinutes *int              `json:"estimated_duration_minutes" validate:"omitempty,gt=0,lte=1440"`
}

// UpdateRequest is a partial update; nil fields are left unchanged
type UpdateRequest struct {
	Title                    *string            `json:"title" validate:"omitempty,min=1,max=200"`
	Description              *string            `json:"description"`
	AssignedTo               *string            `json:"assigned_to" validate:"omitempty,max=100"`
	DueDate                  *time.Time         `json:"due_date"`
	StartTime                *time.Time         `json:"start_time"`
	EndTime                  *time.Time         `json:"end_time"`
	Priority                 *models.Priority   `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Status                   *models.TaskStatus `json:"status" validate:"omitempty,oneof=pending in_progress completed cancelled overdue"`
	Recurrence               *models.Recurrence `json:"recurrence" validate:"omitempty,oneof=none daily weekly monthly yearly"`
	Tags                     []string           `json:"tags" validate:"omitempty,dive,max=50"`
	Location                 *string            `json:"location" validate:"omitempty,max=300"`
	Notes                    *string            `json:"notes"`
	EstimatedDurationMinutes *int               `json:"estimated_duration_minutes" validate:"omitempty,gt=0,lte=1440"`
	CalendarEventID          *string            `json:"calendar_event_id" validate:"omitempty,max=200"`
}

// Service implements task rules. Social workers see the tasks they created
// or were assigned; supervisors and above see every task.
type Service struct {
	tasks   repositories.TaskRepository
	clients repositories.ClientRepository
	audit   audit.Recorder
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates a task service
func NewService(repos *repositories.Repositories, recorder audit.Recorder, logger *zap.Logger) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Service{
		tasks:   repos.Tasks,
		clients: repos.Clients,
		audit:   recorder,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func canSeeAll(actor *auth.Principal) bool {
	return actor.HasRole(auth.RoleSupervisor)
}

func owns(actor *auth.Principal, t *models.Task) bool {
	return t.CreatedBy == actor.ID || t.AssignedTo == actor.ID
}

// List returns the tasks visible to actor, soonest due first
func (s *Service) List(ctx context.Context, actor *auth.Principal, req ListRequest) ([]*models.Task, error) {
	page, err := services.NormalizePage(req.Skip, req.Limit)
	if err != nil {
		return nil, err
	}

	filter := models.TaskFilter{
		ClientID:    req.ClientID,
		OverdueOnly: req.OverdueOnly,
		Skip:        page.Skip,
		Limit:       page.Limit,
	}
	if req.Status != "" {
		filter.Status = models.TaskStatus(req.Status)
		if !filter.Status.Valid() {
			return nil, services.Validation("status", "status must be one of: pending in_progress completed cancelled overdue")
		}
	}
	if req.Priority != "" {
		filter.Priority = models.Priority(req.Priority)
		if !filter.Priority.Valid() {
			return nil, services.Validation("priority", "priority must be one of: low medium high urgent")
		}
	}
	if !canSeeAll(actor) {
		filter.Owner = actor.ID
	}

	list, err := s.tasks.List(ctx, filter, s.now())
	if err != nil {
		return nil, services.WrapInternal("failed to list tasks", err)
	}
	return list, nil
}

// Get returns a task visible to actor
func (s *Service) Get(ctx context.Context, actor *auth.Principal, id uuid.UUID) (*models.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, services.FromRepository(err, services.ErrTaskNotFound, "failed to get task")
	}
	if !owns(actor, task) && !canSeeAll(actor) {
		return nil, services.ErrTaskNotFound
	}
	return task, nil
}

func validateSchedule(start, end *time.Time) error {
	if (start == nil) != (end == nil) {
		return services.Validation("end_time", "start_time and end_time must be set together")
	}
	if start != nil && !end.After(*start) {
		return services.Validation("end_time", "end_time must be after start_time")
	}
	return nil
}

// Create adds a task created by actor, assigned to actor unless stated
func (s *Service) Create(ctx context.Context, actor *auth.Principal, req CreateRequest) (*models.Task, error) {
	task := models.NewTask(req.Title, actor.ID)
	if task.Title == "" {
		return nil, services.Validation("title", "title is required")
	}
	if err := validateSchedule(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}
	if req.ClientID != nil {
		if _, err := s.clients.GetByID(ctx, *req.ClientID); err != nil {
			return nil, services.FromRepository(err, services.ErrClientNotFound, "failed to look up client")
		}
	}

	task.Description = req.Description
	task.ClientID = req.ClientID
	task.AssignedTo = actor.ID
	if a := strings.TrimSpace(req.AssignedTo); a != "" {
		task.AssignedTo = a
	}
	task.DueDate = req.DueDate
	task.StartTime = req.StartTime
	task.EndTime = req.EndTime
	if req.Priority != "" {
		task.Priority = req.Priority
	}
	if req.Recurrence != "" {
		task.Recurrence = req.Recurrence
	}
	if req.Tags != nil {
		task.Tags = req.Tags
	}
	task.Location = req.Location
	task.Notes = req.Notes
	task.EstimatedDurationMinutes = req.EstimatedDurationMinutes

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, services.WrapInternal("failed to create task", err)
	}

	s.audit.Record(ctx, audit.Entry{
		Actor:        actor,
		Action:       models.AuditActionTaskCreated,
		ResourceType: resourceType,
		ResourceID:   task.ID,
		Details:      map[string]interface{}{"assigned_to": task.AssignedTo},
	})
	return task, nil
}

// Update applies the non-nil fields of req. Setting status to completed
// stamps completed_at.
func (s *Service) Update(ctx context.Context, actor *auth.Principal, id uuid.UUID, req UpdateRequest) (*models.Task, error) {
	task, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	now := s.now()

	var changed []string
	setString := func(field string, dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
			changed = append(changed, field)
		}
	}
	setTime := func(field string, dst **time.Time, v *time.Time) {
		if v != nil {
			*dst = v
			changed = append(changed, field)
		}
	}

	setString("title", &task.Title, req.Title)
	setString("description", &task.Description, req.Description)
	setString("assigned_to", &task.AssignedTo, req.AssignedTo)
	setString("location", &task.Location, req.Location)
	setString("notes", &task.Notes, req.Notes)
	setString("calendar_event_id", &task.CalendarEventID, req.CalendarEventID)
	setTime("due_date", &task.DueDate, req.DueDate)
	setTime("start_time", &task.StartTime, req.StartTime)
	setTime("end_time", &task.EndTime, req.EndTime)
	if req.Priority != nil {
		task.Priority = *req.Priority
		changed = append(changed, "priority")
	}
	if req.Recurrence != nil {
		task.Recurrence = *req.Recurrence
		changed = append(changed, "recurrence")
	}
	if req.Tags != nil {
		task.Tags = req.Tags
		changed = append(changed, "tags")
	}
	if req.EstimatedDurationMinutes != nil {
		task.EstimatedDurationMinutes = req.EstimatedDurationMinutes
		changed = append(changed, "estimated_duration_minutes")
	}
	if req.Status != nil && *req.Status != task.Status {
		if *req.Status == models.TaskStatusCompleted {
			task.Complete(now)
		} else {
			task.Status = *req.Status
			task.CompletedAt = nil
		}
		changed = append(changed, "status")
	}

	if task.Title == "" {
		return nil, services.Validation("title", "title must not be blank")
	}
	if err := validateSchedule(task.StartTime, task.EndTime); err != nil {
		return nil, err
	}
	if len(changed) == 0 {
		return task, nil
	}
	task.UpdatedAt = now

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, services.FromRepository(err, services.ErrTaskNotFound, "failed to update task")
	}

	s.audit.Record(ctx, audit.Entry{
		Actor:        actor,
		Action:       models.AuditActionTaskUpdated,
		ResourceType: resourceType,
		ResourceID:   task.ID,
		Details:      map[string]interface{}{"fields": changed},
	})
	return task, nil
}

// Complete marks a task completed. Completing an already completed task
// is a no-op.
func (s *Service) Complete(ctx context.Context, actor *auth.Principal, id uuid.UUID) (*models.Task, error) {
	task, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if task.Status == models.TaskStatusCompleted {
		return task, nil
	}
	if task.Status == models.TaskStatusCancelled {
		return nil, services.Validation("status", "a cancelled task cannot be completed")
	}

	task.Complete(s.now())
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, services.FromRepository(err, services.ErrTaskNotFound, "failed to complete task")
	}

	s.audit.Record(ctx, audit.Entry{
		Actor:        actor,
		Action:       models.AuditActionTaskCompleted,
		ResourceType: resourceType,
		ResourceID:   task.ID,
	})
	return task, nil
}

// Delete removes a task
func (s *Service) Delete(ctx context.Context, actor *auth.Principal, id uuid.UUID) error {
	task, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if task.CreatedBy != actor.ID && !canSeeAll(actor) {
		return services.ErrForbidden
	}

	if err := s.tasks.Delete(ctx, task.ID); err != nil {
		return services.FromRepository(err, services.ErrTaskNotFound, "failed to delete task")
	}

	s.audit.Record(ctx, audit.Entry{
		Actor:        actor,
		Action:       models.AuditActionTaskDeleted,
		ResourceType: resourceType,
		ResourceID:   task.ID,
	})
	return nil
}

// CalendarEvent returns the calendar export of a task
func (s *Service) CalendarEvent(ctx context.Context, actor *auth.Principal, id uuid.UUID) (*models.CalendarEvent, error) {
	task, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if task.DueDate == nil && task.StartTime == nil {
		return nil, services.Validation("due_date", "task has no due date or scheduled time")
	}
	event := task.ToCalendarEvent()
	return &event, nil
}
