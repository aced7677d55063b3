package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DianaTao/solace/models"
	"github.com/DianaTao/solace/repositories"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const taskColumns = `id, title, description, client_id, assigned_to, due_date, start_time, end_time,
		       priority, status, recurrence, tags, location, notes, estimated_duration_minutes,
		       calendar_event_id, created_by, completed_at, created_at, updated_at`

// TaskRepository implements the repositories.TaskRepository interface
type TaskRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB, logger *zap.Logger) repositories.TaskRepository {
	return &TaskRepository{
		db:     db,
		logger: logger,
	}
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func scanTask(row rowScanner) (*models.Task, error) {
	t := &models.Task{}
	var (
		clientID                   uuid.NullUUID
		due, start, end, completed sql.NullTime
		estimatedMinutes           sql.NullInt64
	)
	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&clientID,
		&t.AssignedTo,
		&due,
		&start,
		&end,
		&t.Priority,
		&t.Status,
		&t.Recurrence,
		pq.Array(&t.Tags),
		&t.Location,
		&t.Notes,
		&estimatedMinutes,
		&t.CalendarEventID,
		&t.CreatedBy,
		&completed,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if clientID.Valid {
		id := clientID.UUID
		t.ClientID = &id
	}
	t.DueDate = nullTimePtr(due)
	t.StartTime = nullTimePtr(start)
	t.EndTime = nullTimePtr(end)
	t.CompletedAt = nullTimePtr(completed)
	if estimatedMinutes.Valid {
		m := int(estimatedMinutes.Int64)
		t.EstimatedDurationMinutes = &m
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	return t, nil
}

// Create creates a new task
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.ClientID,
		task.AssignedTo,
		task.DueDate,
		task.StartTime,
		task.EndTime,
		task.Priority,
		task.Status,
		task.Recurrence,
		pq.Array(task.Tags),
		task.Location,
		task.Notes,
		task.EstimatedDurationMinutes,
		task.CalendarEventID,
		task.CreatedBy,
		task.CompletedAt,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	r.logger.Debug("task created", zap.String("id", task.ID.String()))
	return nil
}

// GetByID retrieves a task by ID
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	task, err := scanTask(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return task, nil
}

// List retrieves tasks ordered by due date, undated tasks last
func (r *TaskRepository) List(ctx context.Context, filter models.TaskFilter, now time.Time) ([]*models.Task, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		conds = append(conds, fmt.Sprintf("client_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		conds = append(conds, fmt.Sprintf("priority = $%d", len(args)))
	}
	if filter.Owner != "" {
		args = append(args, filter.Owner)
		conds = append(conds, fmt.Sprintf("(created_by = $%d OR assigned_to = $%d)", len(args), len(args)))
	}
	if filter.OverdueOnly {
		args = append(args, now)
		conds = append(conds, fmt.Sprintf(
			"status NOT IN ('completed', 'cancelled') AND due_date IS NOT NULL AND due_date < $%d", len(args)))
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, filter.Limit, filter.Skip)
	query += fmt.Sprintf(" ORDER BY due_date ASC NULLS LAST, created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}

	return tasks, nil
}

// Update updates a task
func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	query := `
		UPDATE tasks
		SET title = $2,
		    description = $3,
		    client_id = $4,
		    assigned_to = $5,
		    due_date = $6,
		    start_time = $7,
		    end_time = $8,
		    priority = $9,
		    status = $10,
		    recurrence = $11,
		    tags = $12,
		    location = $13,
		    notes = $14,
		    estimated_duration_minutes = $15,
		    calendar_event_id = $16,
		    completed_at = $17,
		    updated_at = $18
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.ClientID,
		task.AssignedTo,
		task.DueDate,
		task.StartTime,
		task.EndTime,
		task.Priority,
		task.Status,
		task.Recurrence,
		pq.Array(task.Tags),
		task.Location,
		task.Notes,
		task.EstimatedDurationMinutes,
		task.CalendarEventID,
		task.CompletedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	return requireAffected(result, "task")
}

// Delete deletes a task
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return requireAffected(result, "task")
}

// DeleteByClient removes every task for a client
func (r *TaskRepository) DeleteByClient(ctx context.Context, clientID uuid.UUID) error {
	executor := GetExecutor(ctx, r.db)
	if _, err := executor.ExecContext(ctx, `DELETE FROM tasks WHERE client_id = $1`, clientID); err != nil {
		return fmt.Errorf("failed to delete tasks for client: %w", err)
	}
	return nil
}
