package casenotes

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

const resourceType = "case_note"

// ListRequest is a case note listing query
type ListRequest struct {
	ClientID *uuid.UUID
	Category string
	Skip     int
	Limit    int
}

// CreateRequest holds the fields of a new note
type CreateRequest struct {
	ClientID         uuid.UUID           `json:"client_id" validate:"required"`
	Title            string              `json:"title" validate:"required,max=200"`
	Content          string              `json:"content" validate:"required"`
	Category         string              `json:"category" validate:"omitempty,max=100"`
	Priority         models.Priority     `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Tags             []string            `json:"tags" validate:"omitempty,dive,max=50"`
	IsConfidential   bool                `json:"is_confidential"`
	FollowUpRequired bool                `json:"follow_up_required"`
	FollowUpDate     *time.Time          `json:"follow_up_date"`
	IntakeMethod     models.IntakeMethod `json:"intake_method" validate:"omitempty,oneof=manual voice phone web_form"`
}

// UpdateRequest is a partial update; nil fields are left unchanged
type UpdateRequest struct {
	Title            *string            `json:"title" validate:"omitempty,min=1,max=200"`
	Content          *string            `json:"content" validate:"omitempty,min=1"`
	Category         *string            `json:"category" validate:"omitempty,max=100"`
	Priority         *models.Priority   `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Tags             []string           `json:"tags" validate:"omitempty,dive,max=50"`
	IsConfidential   *bool              `json:"is_confidential"`
	FollowUpRequired *bool              `json:"follow_up_required"`
	FollowUpDate     *time.Time         `json:"follow_up_date"`
	Status           *models.NoteStatus `json:"status" validate:"omitempty,oneof=active archived"`
}

// Service implements case note rules. Confidential notes are visible only
// to their author and to supervisors and above.
type Service struct {
	notes   repositories.CaseNoteRepository
	clients repositories.ClientRepository
	audit   audit.Recorder
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates a case note service
func NewService(repos *repositories.Repositories, recorder audit.Recorder, logger *zap.Logger) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Service{
		notes:   repos.CaseNotes,
		clients: repos.Clients,
		audit:   recorder,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func privileged(actor *auth.Principal) bool {
	return actor.HasRole(auth.RoleSupervisor)
}

// List returns the notes actor may read
func (s *Service) List(ctx context.Context, actor *auth.Principal, req ListRequest) ([]*models.CaseNote, error) {
	page, err := services.NormalizePage(req.Skip, req.Limit)
	if err != nil {
		return nil, err
	}

	filter := models.CaseNoteFilter{
		ClientID: req.ClientID,
		Category: strings.TrimSpace(req.Category),
		Skip:     page.Skip,
		Limit:    page.Limit,
	}
	// Visibility is applied in the query so skip and limit count only
	// readable notes.
	if !privileged(actor) {
		filter.Viewer = actor.ID
	}

	notes, err := s.notes.List(ctx, filter)
	if err != nil {
		return nil, services.WrapInternal("failed to list case notes", err)
	}
	return notes, nil
}

// Get returns a note. Confidential notes the actor may not read are
// reported as missing.
func (s *Service) Get(ctx context.Context, actor *auth.Principal, id uuid.UUID) (*models.CaseNote, error) {
	note, err := s.notes.GetByID(ctx, id)
	if err != nil {
		return nil, services.FromRepository(err, services.ErrCaseNoteNotFound, "failed to get case note")
	}
	if !note.VisibleTo(actor.ID, privileged(actor)) {
		return nil, services.ErrCaseNoteNotFound
	}
	return note, nil
}

// Create adds a note to an existing client's file
func (s *Service) Create(ctx context.Context, actor *auth.Principal, req CreateRequest) (*models.CaseNote, error) {
	if _, err := s.clients.GetByID(ctx, req.ClientID); err != nil {
		return nil, services.FromRepository(err, services.ErrClientNotFound, "failed to look up client")
	}

	note := models.NewCaseNote(req.ClientID, actor.ID, req.Title, req.Content)
	if note.Title == "" {
		return nil, services.Validation("title", "title is required")
	}
	if note.Content == "" {
		return nil, services.Validation("content", "content is required")
	}
	if req.Category != "" {
		note.Category = strings.TrimSpace(req.Category)
	}
	if req.Priority != "" {
		note.Priority = req.Priority
	}
	if req.Tags != nil {
		note.Tags = req.Tags
	}
	if req.IntakeMethod != "" {
		note.IntakeMethod = req.IntakeMethod
	}
	note.IsConfidential = req.IsConfidential
	note.FollowUpRequired = req.FollowUpRequired || req.FollowUpDate != nil
	note.FollowUpDate = req.FollowUpDate

	if err := s.notes.Create(ctx, note); err != nil {
		return nil, services.WrapInternal("failed to create case note", err)
	}

	s.audit.Record(ctx, audit.Entry{
		Actor:        actor,
		Action:       models.AuditActionNoteCreated,
		ResourceType: resourceType,
		ResourceID:   note.ID,
		Details: map[string]interface{}{
			"client_id":       note.ClientID.String(),
			"is_confidential": note.IsConfidential,
		},
	})
	return note, nil
}

// editable loads a note the actor is allowed to change
func (s *Service) editable(ctx context.Context, actor *auth.Principal, id uuid.UUID) (*models.CaseNote, error) {
	note, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if note.SocialWorkerID != actor.ID && !privileged(actor) {
		return nil, services.ErrForbidden
	}
	return note, nil
}

// Update applies the non-nil fields of req. Only the author or a
// supervisor may edit a note.
func (s *Service) Update(ctx context.Context, actor *auth.Principal, id uuid.UUID, req UpdateRequest) (*models.CaseNote, error) {
	note, err := s.editable(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	var changed []string
	if req.Title != nil {
		note.Title = strings.TrimSpace(*req.Title)
		changed = append(changed, "title")
	}
	if req.Content != nil {
		note.Content = strings.TrimSpace(*req.Content)
		changed = append(changed, "content")
	}
	if req.Category != nil {
		note.Category = strings.TrimSpace(*req.Category)
		changed = append(changed, "category")
	}
	if req.Priority != nil {
		note.Priority = *req.Priority
		changed = append(changed, "priority")
	}
	if req.Tags != nil {
		note.Tags = req.Tags
		changed = append(changed, "tags")
	}
	if req.IsConfidential != nil {
		note.IsConfidential = *req.IsConfidential
		changed = append(changed, "is_confidential")
	}
	if req.FollowUpRequired != nil {
		note.FollowUpRequired = *req.FollowUpRequired
		changed = append(changed, "follow_up_required")
	}
	if req.FollowUpDate != nil {
		note.FollowUpDate = req.FollowUpDate
		changed = append(changed, "follow_up_date")
	}
	if req.Status != nil {
		note.Status = *req.Status
		changed = append(changed, "status")
	}

	if note.Title == "" || note.Content == "" {
		return nil, services.Validation("title", "title and content must not be blank")
	}
	if len(changed) == 0 {
		return note, nil
	}
	note.UpdatedAt = s.now()

	if err := s.notes.Update(ctx, note); err != nil {
		return nil, services.FromRepository(err, services.ErrCaseNoteNotFound, "failed to update case note")
	}

	s.audit.Record(ctx, audit.Entry{
		Actor:        actor,
		Action:       models.AuditActionNoteUpdated,
		ResourceType: resourceType,
		ResourceID:   note.ID,
		Details:      map[string]interface{}{"fields": changed},
	})
	return note, nil
}

// Delete soft-deletes a note; the row is kept with status deleted
func (s *Service) Delete(ctx context.Context, actor *auth.Principal, id uuid.UUID) error {
	note, err := s.editable(ctx, actor, id)
	if err != nil {
		return err
	}

	if err := s.notes.SoftDelete(ctx, note.ID); err != nil {
		return services.FromRepository(err, services.ErrCaseNoteNotFound, "failed to delete case note")
	}

	s.logger.Info("case note deleted",
		zap.String("note_id", note.ID.String()),
		zap.String("actor_id", actor.ID))

	s.audit.Record(ctx, audit.Entry{
		Actor:        actor,
		Action:       models.AuditActionNoteDeleted,
		ResourceType: resourceType,
		ResourceID:   note.ID,
		Details:      map[string]interface{}{"client_id": note.ClientID.String()},
	})
	return nil
}
