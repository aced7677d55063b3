package handlers

import (
	"context"
	"net/http"

	"github.com/DianaTao/solace/auth"
	"github.com/DianaTao/solace/models"
	"github.com/DianaTao/solace/services/casenotes"
	"github.com/DianaTao/solace/services/clients"
	"github.com/DianaTao/solace/services/reports"
	"github.com/DianaTao/solace/services/tasks"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

var (
	worker     = &auth.Principal{ID: "worker-1", Email: "ana@example.org", DisplayName: "ana", Role: auth.RoleSocialWorker}
	supervisor = &auth.Principal{ID: "super-1", Email: "lee@example.org", DisplayName: "lee", Role: auth.RoleSupervisor}
)

// withURLParams sets chi route parameters on a request built outside a router
func withURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

type MockClientService struct {
	mock.Mock
}

func (m *MockClientService) List(ctx context.Context, req clients.ListRequest) ([]*models.Client, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Client), args.Error(1)
}

func (m *MockClientService) Get(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *MockClientService) Create(ctx context.Context, actor *auth.Principal, req clients.CreateRequest) (*models.Client, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *MockClientService) Update(ctx context.Context, actor *auth.Principal, id uuid.UUID, req clients.UpdateRequest) (*models.Client, error) {
	args := m.Called(ctx, actor, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *MockClientService) Delete(ctx context.Context, actor *auth.Principal, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockClientService) Summary(ctx context.Context, id uuid.UUID) (*models.ClientSummary, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ClientSummary), args.Error(1)
}

type MockCaseNoteService struct {
	mock.Mock
}

func (m *MockCaseNoteService) List(ctx context.Context, actor *auth.Principal, req casenotes.ListRequest) ([]*models.CaseNote, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CaseNote), args.Error(1)
}

func (m *MockCaseNoteService) Get(ctx context.Context, actor *auth.Principal, id uuid.UUID) (*models.CaseNote, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CaseNote), args.Error(1)
}

func (m *MockCaseNoteService) Create(ctx context.Context, actor *auth.Principal, req casenotes.CreateRequest) (*models.CaseNote, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CaseNote), args.Error(1)
}

func (m *MockCaseNoteService) Update(ctx context.Context, actor *auth.Principal, id uuid.UUID, req casenotes.UpdateRequest) (*models.CaseNote, error) {
	args := m.Called(ctx, actor, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CaseNote), args.Error(1)
}

func (m *MockCaseNoteService) Delete(ctx context.Context, actor *auth.Principal, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) List(ctx context.Context, actor *auth.Principal, req tasks.ListRequest) ([]*models.Task, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Task), args.Error(1)
}

func (m *MockTaskService) task(args mock.Arguments) (*models.Task, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

func (m *MockTaskService) Get(ctx context.Context, actor *auth.Principal, id uuid.UUID) (*models.Task, error) {
	return m.task(m.Called(ctx, actor, id))
}

func (m *MockTaskService) Create(ctx context.Context, actor *auth.Principal, req tasks.CreateRequest) (*models.Task, error) {
	return m.task(m.Called(ctx, actor, req))
}

func (m *MockTaskService) Update(ctx context.Context, actor *auth.Principal, id uuid.UUID, req tasks.UpdateRequest) (*models.Task, error) {
	return m.task(m.Called(ctx, actor, id, req))
}

func (m *MockTaskService) Complete(ctx context.Context, actor *auth.Principal, id uuid.UUID) (*models.Task, error) {
	return m.task(m.Called(ctx, actor, id))
}

func (m *MockTaskService) Delete(ctx context.Context, actor *auth.Principal, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockTaskService) CalendarEvent(ctx context.Context, actor *auth.Principal, id uuid.UUID) (*models.CalendarEvent, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CalendarEvent), args.Error(1)
}

type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) MonthlySummary(ctx context.Context, actor *auth.Principal, month, year int) (*reports.Report, error) {
	args := m.Called(ctx, actor, month, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reports.Report), args.Error(1)
}

func (m *MockReportService) QuarterlyOutcome(ctx context.Context, actor *auth.Principal, quarter, year int) (*reports.Report, error) {
	args := m.Called(ctx, actor, quarter, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reports.Report), args.Error(1)
}

func (m *MockReportService) Status() reports.ServiceStatus {
	return m.Called().Get(0).(reports.ServiceStatus)
}

func (m *MockReportService) Catalog(actor *auth.Principal) reports.Catalog {
	return m.Called(actor).Get(0).(reports.Catalog)
}

type MockAuditReader struct {
	mock.Mock
}

func (m *MockAuditReader) Trail(ctx context.Context, resourceType string, resourceID uuid.UUID, limit, offset int) ([]*models.AuditLog, error) {
	args := m.Called(ctx, resourceType, resourceID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AuditLog), args.Error(1)
}

func (m *MockAuditReader) ActorHistory(ctx context.Context, actorID string, limit, offset int) ([]*models.AuditLog, error) {
	args := m.Called(ctx, actorID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AuditLog), args.Error(1)
}
