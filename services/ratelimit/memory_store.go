package ratelimit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MemoryStore is the single-process fallback when Redis is not configured
type MemoryStore struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	logger *zap.Logger
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		hits:   make(map[string][]time.Time),
		logger: logger,
	}
}

// Hit records a hit and returns the count inside the window
func (s *MemoryStore) Hit(_ context.Context, key string, now time.Time, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := prune(s.hits[key], now.Add(-window))
	kept = append(kept, now)
	s.hits[key] = kept
	return len(kept), nil
}

// prune drops hits at or before cutoff; hits are appended in time order
func prune(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	return hits[i:]
}

// Ping always succeeds
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// Name returns "memory"
func (s *MemoryStore) Name() string {
	return "memory"
}

// Cleanup forgets keys with no hits inside the window and returns how many
// were removed
func (s *MemoryStore) Cleanup(now time.Time, window time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-window)
	removed := 0
	for key, hits := range s.hits {
		if kept := prune(hits, cutoff); len(kept) == 0 {
			delete(s.hits, key)
			removed++
		} else {
			s.hits[key] = kept
		}
	}
	return removed
}

// Len returns the number of tracked keys
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hits)
}

// StartCleanupWorker periodically drops idle keys until ctx is done
func (s *MemoryStore) StartCleanupWorker(ctx context.Context, interval, window time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("started rate limit cleanup worker",
		zap.Duration("interval", interval),
		zap.Duration("window", window))

	for {
		select {
		case <-ticker.C:
			if n := s.Cleanup(time.Now(), window); n > 0 {
				s.logger.Debug("cleaned up idle rate limit keys", zap.Int("removed", n))
			}
		case <-ctx.Done():
			s.logger.Info("stopping rate limit cleanup worker")
			return
		}
	}
}
