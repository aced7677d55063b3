package audit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DianaTao/solace/auth"
	"github.com/DianaTao/solace/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockAuditRepository is a mock implementation of AuditRepository
type MockAuditRepository struct {
	mock.Mock
	mu           sync.Mutex
	insertedLogs []*models.AuditLog
}

func (m *MockAuditRepository) Insert(ctx context.Context, log *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	args := m.Called(ctx, log)
	m.insertedLogs = append(m.insertedLogs, log)
	return args.Error(0)
}

func (m *MockAuditRepository) GetByResource(ctx context.Context, resourceType string, resourceID uuid.UUID, limit, offset int) ([]*models.AuditLog, error) {
	args := m.Called(ctx, resourceType, resourceID, limit, offset)
	if logs := args.Get(0); logs != nil {
		return logs.([]*models.AuditLog), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuditRepository) GetByActor(ctx context.Context, actorID string, limit, offset int) ([]*models.AuditLog, error) {
	args := m.Called(ctx, actorID, limit, offset)
	if logs := args.Get(0); logs != nil {
		return logs.([]*models.AuditLog), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuditRepository) GetInsertedLogs() []*models.AuditLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.AuditLog(nil), m.insertedLogs...)
}

func newStartedService(t *testing.T, repo *MockAuditRepository, cfg Config) *AuditService {
	t.Helper()
	service := NewAuditService(repo, zap.NewNop(), cfg)
	require.NoError(t, service.Start())
	return service
}

func TestAuditService_StartStop(t *testing.T) {
	mockRepo := new(MockAuditRepository)
	service := NewAuditService(mockRepo, zap.NewNop(), Config{BufferSize: 10, WorkerCount: 2})

	require.NoError(t, service.Start())

	stats := service.Stats()
	assert.True(t, stats.Running)
	assert.Equal(t, 2, stats.Workers)
	assert.Equal(t, 10, stats.Buffer)

	assert.Error(t, service.Start(), "cannot start twice")

	require.NoError(t, service.Stop(5*time.Second))
	assert.False(t, service.Stats().Running)
	assert.ErrorIs(t, service.Stop(time.Second), ErrNotRunning, "cannot stop twice")
	assert.Error(t, service.Start(), "cannot restart after stop")
}

func TestAuditService_EnqueueBeforeStart(t *testing.T) {
	service := NewAuditService(new(MockAuditRepository), zap.NewNop(), DefaultConfig())

	err := service.Enqueue(models.NewAuditLog("u1", models.AuditActionClientCreated, "client"))
	assert.ErrorIs(t, err, ErrNotRunning)
}

func TestAuditService_StopFlushesQueuedEvents(t *testing.T) {
	mockRepo := new(MockAuditRepository)
	mockRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)
	service := newStartedService(t, mockRepo, Config{BufferSize: 100, WorkerCount: 3})

	for i := 0; i < 50; i++ {
		log := models.NewAuditLog("worker-1", models.AuditActionNoteCreated, "case_note")
		require.NoError(t, service.Enqueue(log))
	}

	require.NoError(t, service.Stop(5*time.Second))
	assert.Len(t, mockRepo.GetInsertedLogs(), 50)

	err := service.Enqueue(models.NewAuditLog("worker-1", models.AuditActionNoteCreated, "case_note"))
	assert.Error(t, err, "events after stop are rejected")
}

func TestNewAuditService_Defaults(t *testing.T) {
	service := NewAuditService(new(MockAuditRepository), zap.NewNop(), Config{})

	stats := service.Stats()
	assert.False(t, stats.Running)
	assert.Equal(t, 2, stats.Workers)
	assert.Equal(t, 1000, stats.Buffer)
	assert.Equal(t, 5*time.Second, service.cfg.WriteTimeout)
}

func TestAuditService_ConcurrentLogging(t *testing.T) {
	mockRepo := new(MockAuditRepository)
	mockRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)
	service := newStartedService(t, mockRepo, Config{BufferSize: 1000, WorkerCount: 5})

	goroutineCount := 10
	eventsPerGoroutine := 10
	var wg sync.WaitGroup

	for i := 0; i < goroutineCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < eventsPerGoroutine; j++ {
				log := models.NewAuditLog("worker-1", models.AuditActionClientUpdated, "client")
				_ = service.Enqueue(log)
			}
		}()
	}
	wg.Wait()

	require.NoError(t, service.Stop(5*time.Second))
	assert.Len(t, mockRepo.GetInsertedLogs(), goroutineCount*eventsPerGoroutine)
}

func TestAuditService_InsertErrorDoesNotStopWorkers(t *testing.T) {
	mockRepo := new(MockAuditRepository)
	mockRepo.On("Insert", mock.Anything, mock.Anything).Return(errors.New("connection reset")).Once()
	mockRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)
	service := newStartedService(t, mockRepo, Config{BufferSize: 10, WorkerCount: 1})

	for i := 0; i < 3; i++ {
		require.NoError(t, service.Enqueue(models.NewAuditLog("w", models.AuditActionTaskDeleted, "task")))
	}

	require.NoError(t, service.Stop(5*time.Second))
	assert.Len(t, mockRepo.GetInsertedLogs(), 3)
}

func TestAuditService_Record(t *testing.T) {
	mockRepo := new(MockAuditRepository)
	mockRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)
	service := newStartedService(t, mockRepo, DefaultConfig())

	clientID := uuid.New()
	ctx := WithRequestMeta(context.Background(), RequestMeta{
		RequestID: "req-42",
		IPAddress: "10.0.0.7",
		UserAgent: "curl/8.0",
	})
	service.Record(ctx, Entry{
		Actor:        &auth.Principal{ID: "worker-1", Role: auth.RoleSupervisor},
		Action:       models.AuditActionClientDeleted,
		ResourceType: "client",
		ResourceID:   clientID,
		Details:      map[string]interface{}{"case_number": "CASE-20240115-ABCD"},
	})

	require.NoError(t, service.Stop(5*time.Second))
	inserted := mockRepo.GetInsertedLogs()
	require.Len(t, inserted, 1)

	log := inserted[0]
	assert.Equal(t, "worker-1", log.ActorID)
	assert.Equal(t, "supervisor", log.ActorRole)
	assert.Equal(t, models.AuditActionClientDeleted, log.Action)
	require.NotNil(t, log.ResourceID)
	assert.Equal(t, clientID, *log.ResourceID)
	assert.Equal(t, "req-42", log.RequestID)
	assert.Equal(t, "10.0.0.7", log.IPAddress)
	assert.Equal(t, "curl/8.0", log.UserAgent)

	var details map[string]string
	require.NoError(t, json.Unmarshal(log.Details, &details))
	assert.Equal(t, "CASE-20240115-ABCD", details["case_number"])
}

func TestAuditService_RecordWhenStoppedIsSilent(t *testing.T) {
	service := NewAuditService(new(MockAuditRepository), zap.NewNop(), DefaultConfig())

	assert.NotPanics(t, func() {
		service.Record(context.Background(), Entry{Action: models.AuditActionTaskCreated, ResourceType: "task"})
	})
}

func TestAuditService_BufferFull(t *testing.T) {
	mockRepo := new(MockAuditRepository)
	release := make(chan struct{})
	mockRepo.On("Insert", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		<-release
	})
	service := newStartedService(t, mockRepo, Config{BufferSize: 2, WorkerCount: 1})

	var rejected int64
	for i := 0; i < 10; i++ {
		if err := service.Enqueue(models.NewAuditLog("w", models.AuditActionNoteUpdated, "case_note")); err != nil {
			rejected++
		}
	}
	assert.Equal(t, rejected, service.Stats().Dropped)
	close(release)

	assert.Greater(t, rejected, int64(0))
	require.NoError(t, service.Stop(5*time.Second))
}

func TestAuditService_Trail(t *testing.T) {
	mockRepo := new(MockAuditRepository)
	service := NewAuditService(mockRepo, zap.NewNop(), DefaultConfig())
	clientID := uuid.New()
	logs := []*models.AuditLog{models.NewAuditLog("w", models.AuditActionClientUpdated, "client")}

	mockRepo.On("GetByResource", mock.Anything, "client", clientID, 20, 0).Return(logs, nil)
	mockRepo.On("GetByActor", mock.Anything, "w", 10, 5).Return(logs, nil)

	got, err := service.Trail(context.Background(), "client", clientID, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, logs, got)

	got, err = service.ActorHistory(context.Background(), "w", 10, 5)
	require.NoError(t, err)
	assert.Equal(t, logs, got)
	mockRepo.AssertExpectations(t)
}
