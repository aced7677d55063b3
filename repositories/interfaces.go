package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/DianaTao/solace/models"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when a write collides with a unique constraint
var ErrConflict = errors.New("record already exists")

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	Commit() error
	Rollback() error
	Context() context.Context
}

// ProfileRepository handles caseworker profile lookups
type ProfileRepository interface {
	// GetByID retrieves a profile by identity-provider subject
	GetByID(ctx context.Context, id string) (*models.Profile, error)

	// Upsert creates or updates a profile
	Upsert(ctx context.Context, profile *models.Profile) error
}

// ClientRepository handles client data operations
type ClientRepository interface {
	Create(ctx context.Context, client *models.Client) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error)

	// List returns clients matching the filter, newest first
	List(ctx context.Context, filter models.ClientFilter) ([]*models.Client, error)

	Update(ctx context.Context, client *models.Client) error
	Delete(ctx context.Context, id uuid.UUID) error

	// Summary aggregates note and task counts for a client
	Summary(ctx context.Context, id uuid.UUID, now time.Time) (*models.ClientSummary, error)
}

// CaseNoteRepository handles case note data operations
type CaseNoteRepository interface {
	Create(ctx context.Context, note *models.CaseNote) error

	// GetByID excludes soft-deleted notes
	GetByID(ctx context.Context, id uuid.UUID) (*models.CaseNote, error)

	// List excludes soft-deleted notes unless the filter asks for them
	List(ctx context.Context, filter models.CaseNoteFilter) ([]*models.CaseNote, error)

	Update(ctx context.Context, note *models.CaseNote) error

	// SoftDelete marks a note deleted without removing the row
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// DeleteByClient removes every note for a client
	DeleteByClient(ctx context.Context, clientID uuid.UUID) error
}

// TaskRepository handles task data operations
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	List(ctx context.Context, filter models.TaskFilter, now time.Time) ([]*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByClient(ctx context.Context, clientID uuid.UUID) error
}

// AuditRepository handles audit log data operations
type AuditRepository interface {
	Insert(ctx context.Context, log *models.AuditLog) error

	// GetByResource retrieves the audit trail for a single record
	GetByResource(ctx context.Context, resourceType string, resourceID uuid.UUID, limit, offset int) ([]*models.AuditLog, error)

	// GetByActor retrieves audit logs for a caseworker with pagination
	GetByActor(ctx context.Context, actorID string, limit, offset int) ([]*models.AuditLog, error)
}

// ReportRepository aggregates case activity over a period
type ReportRepository interface {
	// PeriodStats counts activity between start (inclusive) and end (exclusive).
	// An empty socialWorkerID aggregates across every caseworker.
	PeriodStats(ctx context.Context, socialWorkerID string, start, end time.Time) (*PeriodStats, error)

	// RecentNoteExcerpts returns the newest non-confidential note bodies in the period
	RecentNoteExcerpts(ctx context.Context, socialWorkerID string, start, end time.Time, limit int) ([]string, error)
}

// PeriodStats represents aggregated case activity
type PeriodStats struct {
	TotalClients      int            `json:"total_clients"`
	NewClients        int            `json:"new_clients"`
	ActiveClients     int            `json:"active_clients"`
	ClosedClients     int            `json:"closed_clients"`
	NotesWritten      int            `json:"notes_written"`
	FollowUpsFlagged  int            `json:"follow_ups_flagged"`
	TasksCreated      int            `json:"tasks_created"`
	TasksCompleted    int            `json:"tasks_completed"`
	TasksOverdue      int            `json:"tasks_overdue"`
	NotesByCategory   map[string]int `json:"notes_by_category"`
	ClientsByPriority map[string]int `json:"clients_by_priority"`
}

// Empty reports whether there is nothing to report on
func (s *PeriodStats) Empty() bool {
	return s.TotalClients == 0
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Profiles  ProfileRepository
	Clients   ClientRepository
	CaseNotes CaseNoteRepository
	Tasks     TaskRepository
	AuditLogs AuditRepository
	Reports   ReportRepository
}
