package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/DianaTao/solace/repositories"
	"go.uber.org/zap"
)

// ReportRepository implements the repositories.ReportRepository interface
type ReportRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *DB, logger *zap.Logger) repositories.ReportRepository {
	return &ReportRepository{
		db:     db,
		logger: logger,
	}
}

// PeriodStats counts activity between start (inclusive) and end (exclusive)
func (r *ReportRepository) PeriodStats(ctx context.Context, socialWorkerID string, start, end time.Time) (*repositories.PeriodStats, error) {
	query := `
		SELECT
		  (SELECT COUNT(*) FROM clients
		     WHERE ($1 = '' OR social_worker_id = $1) AND created_at < $3),
		  (SELECT COUNT(*) FROM clients
		     WHERE ($1 = '' OR social_worker_id = $1) AND created_at >= $2 AND created_at < $3),
		  (SELECT COUNT(*) FROM clients
		     WHERE ($1 = '' OR social_worker_id = $1) AND status = 'active' AND created_at < $3),
		  (SELECT COUNT(*) FROM clients
		     WHERE ($1 = '' OR social_worker_id = $1) AND status = 'closed' AND updated_at >= $2 AND updated_at < $3),
		  (SELECT COUNT(*) FROM case_notes
		     WHERE ($1 = '' OR social_worker_id = $1) AND status <> 'deleted' AND created_at >= $2 AND created_at < $3),
		  (SELECT COUNT(*) FROM case_notes
		     WHERE ($1 = '' OR social_worker_id = $1) AND status <> 'deleted' AND follow_up_required
		       AND created_at >= $2 AND created_at < $3),
		  (SELECT COUNT(*) FROM tasks
		     WHERE ($1 = '' OR created_by = $1) AND created_at >= $2 AND created_at < $3),
		  (SELECT COUNT(*) FROM tasks
		     WHERE ($1 = '' OR created_by = $1) AND completed_at >= $2 AND completed_at < $3),
		  (SELECT COUNT(*) FROM tasks
		     WHERE ($1 = '' OR created_by = $1) AND status NOT IN ('completed', 'cancelled')
		       AND due_date IS NOT NULL AND due_date < $3)
	`

	executor := GetExecutor(ctx, r.db)
	stats := &repositories.PeriodStats{
		NotesByCategory:   map[string]int{},
		ClientsByPriority: map[string]int{},
	}

	err := executor.QueryRowContext(ctx, query, socialWorkerID, start, end).Scan(
		&stats.TotalClients,
		&stats.NewClients,
		&stats.ActiveClients,
		&stats.ClosedClients,
		&stats.NotesWritten,
		&stats.FollowUpsFlagged,
		&stats.TasksCreated,
		&stats.TasksCompleted,
		&stats.TasksOverdue,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute period stats: %w", err)
	}

	categoryQuery := `
		SELECT category, COUNT(*) FROM case_notes
		WHERE ($1 = '' OR social_worker_id = $1) AND status <> 'deleted' AND created_at >= $2 AND created_at < $3
		GROUP BY category
	`
	if err := r.countBy(ctx, categoryQuery, stats.NotesByCategory, socialWorkerID, start, end); err != nil {
		return nil, err
	}

	priorityQuery := `
		SELECT priority, COUNT(*) FROM clients
		WHERE ($1 = '' OR social_worker_id = $1) AND created_at < $2
		GROUP BY priority
	`
	if err := r.countBy(ctx, priorityQuery, stats.ClientsByPriority, socialWorkerID, end); err != nil {
		return nil, err
	}

	return stats, nil
}

func (r *ReportRepository) countBy(ctx context.Context, query string, into map[string]int, args ...interface{}) error {
	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query breakdown: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key   string
			count int
		)
		if err := rows.Scan(&key, &count); err != nil {
			return fmt.Errorf("failed to scan breakdown: %w", err)
		}
		into[key] = count
	}
	return rows.Err()
}

// RecentNoteExcerpts returns the newest non-confidential note bodies in the period
func (r *ReportRepository) RecentNoteExcerpts(ctx context.Context, socialWorkerID string, start, end time.Time, limit int) ([]string, error) {
	query := `
		SELECT content FROM case_notes
		WHERE ($1 = '' OR social_worker_id = $1)
		  AND status <> 'deleted' AND NOT is_confidential
		  AND created_at >= $2 AND created_at < $3
		ORDER BY created_at DESC
		LIMIT $4
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, socialWorkerID, start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query note excerpts: %w", err)
	}
	defer rows.Close()

	var excerpts []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, fmt.Errorf("failed to scan note excerpt: %w", err)
		}
		excerpts = append(excerpts, content)
	}

	return excerpts, rows.Err()
}
