package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DianaTao/solace/auth"
	"github.com/DianaTao/solace/models"
	"github.com/DianaTao/solace/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNotRunning = errors.New("audit service not running")
	ErrBufferFull = errors.New("audit buffer full")
)

// Recorder is what case-record services use to leave an audit trail.
// Recording never fails the caller's operation.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

// Entry describes one mutation of a case record
type Entry struct {
	Actor        *auth.Principal
	Action       models.AuditAction
	ResourceType string
	ResourceID   uuid.UUID
	Details      map[string]interface{}
}

// Config sizes the write-behind queue
type Config struct {
	BufferSize   int
	WorkerCount  int
	WriteTimeout time.Duration
}

// DefaultConfig returns the queue sizing used in production
func DefaultConfig() Config {
	return Config{BufferSize: 1000, WorkerCount: 2, WriteTimeout: 5 * time.Second}
}

// AuditService persists audit logs off the request path. Entries are
// queued on a bounded channel and written by a fixed set of workers; when
// the queue is full the entry is dropped and counted.
type AuditService struct {
	repo   repositories.AuditRepository
	logger *zap.Logger
	cfg    Config

	queue   chan *models.AuditLog
	wg      sync.WaitGroup
	dropped atomic.Int64

	mu      sync.RWMutex
	running bool
	closed  bool
}

// NewAuditService creates a stopped service; call Start before Record
func NewAuditService(repo repositories.AuditRepository, logger *zap.Logger, cfg Config) *AuditService {
	def := DefaultConfig()
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = def.WorkerCount
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	return &AuditService{
		repo:   repo,
		logger: logger,
		cfg:    cfg,
		queue:  make(chan *models.AuditLog, cfg.BufferSize),
	}
}

// Start launches the writers
func (s *AuditService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running || s.closed {
		return errors.New("audit service already started")
	}

	s.wg.Add(s.cfg.WorkerCount)
	for i := 0; i < s.cfg.WorkerCount; i++ {
		go s.drain(i)
	}
	s.running = true

	s.logger.Info("audit writers started",
		zap.Int("workers", s.cfg.WorkerCount),
		zap.Int("buffer", s.cfg.BufferSize))
	return nil
}

// Stop closes the queue and waits up to timeout for pending logs to be
// written. A stopped service cannot be restarted.
func (s *AuditService) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrNotRunning
	}
	s.running = false
	s.closed = true
	pending := len(s.queue)
	close(s.queue)
	s.mu.Unlock()

	s.logger.Info("draining audit queue", zap.Int("pending", pending))

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		s.logger.Info("audit writers stopped", zap.Int64("dropped", s.dropped.Load()))
		return nil
	case <-timer.C:
		return fmt.Errorf("audit queue not drained after %v", timeout)
	}
}

// Enqueue hands log to the writers without blocking
func (s *AuditService) Enqueue(log *models.AuditLog) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return ErrNotRunning
	}

	select {
	case s.queue <- log:
		return nil
	default:
		s.dropped.Add(1)
		return ErrBufferFull
	}
}

// Record builds an audit log for entry, stamps it with the request
// metadata carried by ctx and queues it.
func (s *AuditService) Record(ctx context.Context, entry Entry) {
	log := models.NewAuditLog("", entry.Action, entry.ResourceType)
	if entry.Actor != nil {
		log.ActorID = entry.Actor.ID
		log.WithRole(entry.Actor.Role.String())
	}
	if entry.ResourceID != uuid.Nil {
		log.WithResource(entry.ResourceID)
	}
	if len(entry.Details) > 0 {
		log.WithDetails(entry.Details)
	}
	meta := RequestMetaFrom(ctx)
	log.WithRequest(meta.RequestID, meta.IPAddress, meta.UserAgent)

	if err := s.Enqueue(log); err != nil {
		s.logger.Warn("audit entry not recorded",
			zap.String("action", string(entry.Action)),
			zap.String("resource_type", entry.ResourceType),
			zap.String("actor_id", log.ActorID),
			zap.Error(err))
	}
}

// Trail returns the audit history of one record, newest first
func (s *AuditService) Trail(ctx context.Context, resourceType string, resourceID uuid.UUID, limit, offset int) ([]*models.AuditLog, error) {
	return s.repo.GetByResource(ctx, resourceType, resourceID, limit, offset)
}

// ActorHistory returns the actions performed by one caseworker
func (s *AuditService) ActorHistory(ctx context.Context, actorID string, limit, offset int) ([]*models.AuditLog, error) {
	return s.repo.GetByActor(ctx, actorID, limit, offset)
}

func (s *AuditService) drain(worker int) {
	defer s.wg.Done()
	for log := range s.queue {
		if err := s.write(log); err != nil {
			s.logger.Error("failed to persist audit log",
				zap.Int("worker", worker),
				zap.String("action", string(log.Action)),
				zap.String("actor_id", log.ActorID),
				zap.Error(err))
		}
	}
}

// write uses its own deadline; the request that produced log may be gone
func (s *AuditService) write(log *models.AuditLog) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.WriteTimeout)
	defer cancel()
	return s.repo.Insert(ctx, log)
}

// Stats is a snapshot of the queue
type Stats struct {
	Running bool
	Workers int
	Buffer  int
	Pending int
	Dropped int64
}

// Stats reports queue depth and drop count
func (s *AuditService) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Running: s.running,
		Workers: s.cfg.WorkerCount,
		Buffer:  s.cfg.BufferSize,
		Pending: len(s.queue),
		Dropped: s.dropped.Load(),
	}
}

// Nop discards every entry
type Nop struct{}

// Record implements Recorder
func (Nop) Record(context.Context, Entry) {}
