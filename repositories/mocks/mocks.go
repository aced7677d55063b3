// Package mocks provides testify doubles for the repository interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/DianaTao/solace/models"
	"github.com/DianaTao/solace/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// ProfileRepository is a mock implementation of repositories.ProfileRepository
type ProfileRepository struct {
	mock.Mock
}

func (m *ProfileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*models.Profile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProfileRepository) Upsert(ctx context.Context, profile *models.Profile) error {
	return m.Called(ctx, profile).Error(0)
}

// ClientRepository is a mock implementation of repositories.ClientRepository
type ClientRepository struct {
	mock.Mock
}

func (m *ClientRepository) Create(ctx context.Context, client *models.Client) error {
	return m.Called(ctx, client).Error(0)
}

func (m *ClientRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	args := m.Called(ctx, id)
	if c := args.Get(0); c != nil {
		return c.(*models.Client), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ClientRepository) List(ctx context.Context, filter models.ClientFilter) ([]*models.Client, error) {
	args := m.Called(ctx, filter)
	if list := args.Get(0); list != nil {
		return list.([]*models.Client), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ClientRepository) Update(ctx context.Context, client *models.Client) error {
	return m.Called(ctx, client).Error(0)
}

func (m *ClientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *ClientRepository) Summary(ctx context.Context, id uuid.UUID, now time.Time) (*models.ClientSummary, error) {
	args := m.Called(ctx, id, now)
	if s := args.Get(0); s != nil {
		return s.(*models.ClientSummary), args.Error(1)
	}
	return nil, args.Error(1)
}

// CaseNoteRepository is a mock implementation of repositories.CaseNoteRepository
type CaseNoteRepository struct {
	mock.Mock
}

func (m *CaseNoteRepository) Create(ctx context.Context, note *models.CaseNote) error {
	return m.Called(ctx, note).Error(0)
}

func (m *CaseNoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CaseNote, error) {
	args := m.Called(ctx, id)
	if n := args.Get(0); n != nil {
		return n.(*models.CaseNote), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CaseNoteRepository) List(ctx context.Context, filter models.CaseNoteFilter) ([]*models.CaseNote, error) {
	args := m.Called(ctx, filter)
	if list := args.Get(0); list != nil {
		return list.([]*models.CaseNote), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CaseNoteRepository) Update(ctx context.Context, note *models.CaseNote) error {
	return m.Called(ctx, note).Error(0)
}

func (m *CaseNoteRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *CaseNoteRepository) DeleteByClient(ctx context.Context, clientID uuid.UUID) error {
	return m.Called(ctx, clientID).Error(0)
}

// TaskRepository is a mock implementation of repositories.TaskRepository
type TaskRepository struct {
	mock.Mock
}

func (m *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	return m.Called(ctx, task).Error(0)
}

func (m *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	args := m.Called(ctx, id)
	if t := args.Get(0); t != nil {
		return t.(*models.Task), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TaskRepository) List(ctx context.Context, filter models.TaskFilter, now time.Time) ([]*models.Task, error) {
	args := m.Called(ctx, filter, now)
	if list := args.Get(0); list != nil {
		return list.([]*models.Task), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	return m.Called(ctx, task).Error(0)
}

func (m *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *TaskRepository) DeleteByClient(ctx context.Context, clientID uuid.UUID) error {
	return m.Called(ctx, clientID).Error(0)
}

// ReportRepository is a mock implementation of repositories.ReportRepository
type ReportRepository struct {
	mock.Mock
}

func (m *ReportRepository) PeriodStats(ctx context.Context, socialWorkerID string, start, end time.Time) (*repositories.PeriodStats, error) {
	args := m.Called(ctx, socialWorkerID, start, end)
	if s := args.Get(0); s != nil {
		return s.(*repositories.PeriodStats), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ReportRepository) RecentNoteExcerpts(ctx context.Context, socialWorkerID string, start, end time.Time, limit int) ([]string, error) {
	args := m.Called(ctx, socialWorkerID, start, end, limit)
	if s := args.Get(0); s != nil {
		return s.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

// AuditRepository is a mock implementation of repositories.AuditRepository
type AuditRepository struct {
	mock.Mock
}

func (m *AuditRepository) Insert(ctx context.Context, log *models.AuditLog) error {
	return m.Called(ctx, log).Error(0)
}

func (m *AuditRepository) GetByResource(ctx context.Context, resourceType string, resourceID uuid.UUID, limit, offset int) ([]*models.AuditLog, error) {
	args := m.Called(ctx, resourceType, resourceID, limit, offset)
	if logs := args.Get(0); logs != nil {
		return logs.([]*models.AuditLog), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AuditRepository) GetByActor(ctx context.Context, actorID string, limit, offset int) ([]*models.AuditLog, error) {
	args := m.Called(ctx, actorID, limit, offset)
	if logs := args.Get(0); logs != nil {
		return logs.([]*models.AuditLog), args.Error(1)
	}
	return nil, args.Error(1)
}

type txKey struct{}

// TransactionManager runs the unit of work inline and records whether it
// committed or rolled back.
type TransactionManager struct {
	mock.Mock
	Committed  bool
	RolledBack bool
}

func (m *TransactionManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	args := m.Called(ctx)
	if tx := args.Get(0); tx != nil {
		return tx.(repositories.Transaction), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TransactionManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	tx := &Transaction{ctx: context.WithValue(ctx, txKey{}, true)}
	if err := fn(tx.ctx, tx); err != nil {
		m.RolledBack = true
		return err
	}
	m.Committed = true
	return nil
}

// InTx reports whether ctx was produced by TransactionManager.InTransaction
func InTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// Transaction is the no-op transaction handed out by TransactionManager
type Transaction struct {
	ctx context.Context
}

func (t *Transaction) Commit() error            { return nil }
func (t *Transaction) Rollback() error          { return nil }
func (t *Transaction) Context() context.Context { return t.ctx }
