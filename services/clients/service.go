package clients

import (
	"context"
	"errors"
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

const resourceType = "client"

// ListRequest is a client listing query
type ListRequest struct {
	Skip     int
	Limit    int
	Status   string
	Priority string
	Search   string
}

// CreateRequest holds the fields accepted when opening a case
type CreateRequest struct {
	Name             string          `json:"name" validate:"required,max=200"`
	Email            string          `json:"email" validate:"omitempty,email"`
	Phone            string          `json:"phone" validate:"omitempty,max=40"`
	DateOfBirth      *time.Time      `json:"date_of_birth"`
	Address          string          `json:"address" validate:"omitempty,max=500"`
	EmergencyContact string          `json:"emergency_contact" validate:"omitempty,max=200"`
	EmergencyPhone   string          `json:"emergency_phone" validate:"omitempty,max=40"`
	CaseType         string          `json:"case_type" validate:"omitempty,max=100"`
	Priority         models.Priority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Notes            string          `json:"notes"`
	Tags             []string        `json:"tags" validate:"omitempty,dive,max=50"`
	CaseNumber       string          `json:"case_number" validate:"omitempty,max=50"`
}

// UpdateRequest is a partial update; nil fields are left unchanged
type UpdateRequest struct {
	Name             *string              `json:"name" validate:"omitempty,min=1,max=200"`
	Email            *string              `json:"email" validate:"omitempty,email"`
	Phone            *string              `json:"phone" validate:"omitempty,max=40"`
	DateOfBirth      *time.Time           `json:"date_of_birth"`
	Address          *string              `json:"address" validate:"omitempty,max=500"`
	EmergencyContact *string              `json:"emergency_contact" validate:"omitempty,max=200"`
	EmergencyPhone   *string              `json:"emergency_phone" validate:"omitempty,max=40"`
	CaseType         *string              `json:"case_type" validate:"omitempty,max=100"`
	Status           *models.ClientStatus `json:"status" validate:"omitempty,oneof=active inactive closed"`
	Priority         *models.Priority     `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Notes            *string              `json:"notes"`
	Tags             []string             `json:"tags" validate:"omitempty,dive,max=50"`
}

// Service implements the client caseload rules
type Service struct {
	clients repositories.ClientRepository
	notes   repositories.CaseNoteRepository
	tasks   repositories.TaskRepository
	txMgr   repositories.TransactionManager
	audit   audit.Recorder
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates a client service
func NewService(repos *repositories.Repositories, txMgr repositories.TransactionManager, recorder audit.Recorder, logger *zap.Logger) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Service{
		clients: repos.Clients,
		notes:   repos.CaseNotes,
		tasks:   repos.Tasks,
		txMgr:   txMgr,
		audit:   recorder,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// List returns clients newest first
func (s *Service) List(ctx context.Context, req ListRequest) ([]*models.Client, error) {
	page, err := services.NormalizePage(req.Skip, req.Limit)
	if err != nil {
		return nil, err
	}

	filter := models.ClientFilter{
		Skip:   page.Skip,
		Limit:  page.Limit,
		Search: strings.TrimSpace(req.Search),
	}
	if req.Status != "" {
		filter.Status = models.ClientStatus(req.Status)
		if !filter.Status.Valid() {
			return nil, services.Validation("status", "status must be one of: active inactive closed")
		}
	}
	if req.Priority != "" {
		filter.Priority = models.Priority(req.Priority)
		if !filter.Priority.Valid() {
			return nil, services.Validation("priority", "priority must be one of: low medium high urgent")
		}
	}

	list, err := s.clients.List(ctx, filter)
	if err != nil {
		return nil, services.WrapInternal("failed to list clients", err)
	}
	return list, nil
}

// Get returns a single client
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	client, err := s.clients.GetByID(ctx, id)
	if err != nil {
		return nil, services.FromRepository(err, services.ErrClientNotFound, "failed to get client")
	}
	return client, nil
}

// Create opens a case for a new client owned by actor
func (s *Service) Create(ctx context.Context, actor *auth.Principal, req CreateRequest) (*models.Client, error) {
	client := models.NewClient(req.Name, actor.ID)
	if client.Name == "" {
		return nil, services.Validation("name", "name is required")
	}

	client.Email = strings.TrimSpace(req.Email)
	client.Phone = strings.TrimSpace(req.Phone)
	client.DateOfBirth = req.DateOfBirth
	client.Address = req.Address
	client.EmergencyContact = req.EmergencyContact
	client.EmergencyPhone = req.EmergencyPhone
	client.Notes = req.Notes
	if req.CaseType != "" {
		client.CaseType = req.CaseType
	}
	if req.Priority != "" {
		client.Priority = req.Priority
	}
	if req.Tags != nil {
		client.Tags = req.Tags
	}
	if cn := strings.TrimSpace(req.CaseNumber); cn != "" {
		client.CaseNumber = cn
	}

	if err := s.clients.Create(ctx, client); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return nil, services.ErrDuplicateCaseNumber
		}
		return nil, services.WrapInternal("failed to create client", err)
	}

	s.logger.Info("client created",
		zap.String("client_id", client.ID.String()),
		zap.String("case_number", client.CaseNumber),
		zap.String("social_worker_id", actor.ID))

	s.audit.Record(ctx, audit.Entry{
		Actor:        actor,
		Action:       models.AuditActionClientCreated,
		ResourceType: resourceType,
		ResourceID:   client.ID,
		Details:      map[string]interface{}{"case_number": client.CaseNumber},
	})
	return client, nil
}

// Update applies the non-nil fields of req
func (s *Service) Update(ctx context.Context, actor *auth.Principal, id uuid.UUID, req UpdateRequest) (*models.Client, error) {
	client, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	changed := applyUpdate(client, req)
	if client.Name == "" {
		return nil, services.Validation("name", "name must not be blank")
	}
	if len(changed) == 0 {
		return client, nil
	}
	client.UpdatedAt = s.now()

	if err := s.clients.Update(ctx, client); err != nil {
		return nil, services.FromRepository(err, services.ErrClientNotFound, "failed to update client")
	}

	s.audit.Record(ctx, audit.Entry{
		Actor:        actor,
		Action:       models.AuditActionClientUpdated,
		ResourceType: resourceType,
		ResourceID:   client.ID,
		Details:      map[string]interface{}{"fields": changed},
	})
	return client, nil
}

func applyUpdate(c *models.Client, req UpdateRequest) []string {
	var changed []string
	setString := func(field string, dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
			changed = append(changed, field)
		}
	}

	setString("name", &c.Name, req.Name)
	setString("email", &c.Email, req.Email)
	setString("phone", &c.Phone, req.Phone)
	setString("address", &c.Address, req.Address)
	setString("emergency_contact", &c.EmergencyContact, req.EmergencyContact)
	setString("emergency_phone", &c.EmergencyPhone, req.EmergencyPhone)
	setString("case_type", &c.CaseType, req.CaseType)
	setString("notes", &c.Notes, req.Notes)
	if req.DateOfBirth != nil {
		c.DateOfBirth = req.DateOfBirth
		changed = append(changed, "date_of_birth")
	}
	if req.Status != nil {
		c.Status = *req.Status
		changed = append(changed, "status")
	}
	if req.Priority != nil {
		c.Priority = *req.Priority
		changed = append(changed, "priority")
	}
	if req.Tags != nil {
		c.Tags = req.Tags
		changed = append(changed, "tags")
	}
	return changed
}

// Delete removes a client with its notes and tasks in one transaction.
// Only supervisors and above may delete.
func (s *Service) Delete(ctx context.Context, actor *auth.Principal, id uuid.UUID) error {
	if !actor.HasRole(auth.RoleSupervisor) {
		return services.ErrInsufficientPermissions
	}

	client, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	err = services.WithTransaction(ctx, s.txMgr, func(ctx context.Context) error {
		if err := s.notes.DeleteByClient(ctx, id); err != nil {
			return err
		}
		if err := s.tasks.DeleteByClient(ctx, id); err != nil {
			return err
		}
		return s.clients.Delete(ctx, id)
	})
	if err != nil {
		return services.FromRepository(err, services.ErrClientNotFound, "failed to delete client")
	}

	s.logger.Info("client deleted",
		zap.String("client_id", id.String()),
		zap.String("actor_id", actor.ID))

	s.audit.Record(ctx, audit.Entry{
		Actor:        actor,
		Action:       models.AuditActionClientDeleted,
		ResourceType: resourceType,
		ResourceID:   id,
		Details:      map[string]interface{}{"case_number": client.CaseNumber},
	})
	return nil
}

// Summary returns note and task activity for a client
func (s *Service) Summary(ctx context.Context, id uuid.UUID) (*models.ClientSummary, error) {
	summary, err := s.clients.Summary(ctx, id, s.now())
	if err != nil {
		return nil, services.FromRepository(err, services.ErrClientNotFound, "failed to summarize client")
	}
	return summary, nil
}
