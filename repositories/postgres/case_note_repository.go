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

const noteColumns = `id, client_id, social_worker_id, title, content, category, priority, tags,
		       is_confidential, follow_up_required, follow_up_date, intake_method, status,
		       created_at, updated_at`

// CaseNoteRepository implements the repositories.CaseNoteRepository interface
type CaseNoteRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewCaseNoteRepository creates a new case note repository
func NewCaseNoteRepository(db *DB, logger *zap.Logger) repositories.CaseNoteRepository {
	return &CaseNoteRepository{
		db:     db,
		logger: logger,
	}
}

func scanCaseNote(row rowScanner) (*models.CaseNote, error) {
	n := &models.CaseNote{}
	var followUp sql.NullTime
	err := row.Scan(
		&n.ID,
		&n.ClientID,
		&n.SocialWorkerID,
		&n.Title,
		&n.Content,
		&n.Category,
		&n.Priority,
		pq.Array(&n.Tags),
		&n.IsConfidential,
		&n.FollowUpRequired,
		&followUp,
		&n.IntakeMethod,
		&n.Status,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if followUp.Valid {
		n.FollowUpDate = &followUp.Time
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}
	return n, nil
}

// Create creates a new case note
func (r *CaseNoteRepository) Create(ctx context.Context, note *models.CaseNote) error {
	query := `
		INSERT INTO case_notes (` + noteColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		note.ID,
		note.ClientID,
		note.SocialWorkerID,
		note.Title,
		note.Content,
		note.Category,
		note.Priority,
		pq.Array(note.Tags),
		note.IsConfidential,
		note.FollowUpRequired,
		note.FollowUpDate,
		note.IntakeMethod,
		note.Status,
		note.CreatedAt,
		note.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create case note: %w", err)
	}

	r.logger.Debug("case note created", zap.String("id", note.ID.String()), zap.String("client_id", note.ClientID.String()))
	return nil
}

// GetByID retrieves a case note by ID, excluding soft-deleted notes
func (r *CaseNoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CaseNote, error) {
	query := `SELECT ` + noteColumns + ` FROM case_notes WHERE id = $1 AND status <> 'deleted'`

	executor := GetExecutor(ctx, r.db)
	note, err := scanCaseNote(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get case note: %w", err)
	}

	return note, nil
}

// List retrieves case notes newest first
func (r *CaseNoteRepository) List(ctx context.Context, filter models.CaseNoteFilter) ([]*models.CaseNote, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	} else {
		conds = append(conds, "status <> 'deleted'")
	}
	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		conds = append(conds, fmt.Sprintf("client_id = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Viewer != "" {
		args = append(args, filter.Viewer)
		conds = append(conds, fmt.Sprintf("(NOT is_confidential OR social_worker_id = $%d)", len(args)))
	}

	args = append(args, filter.Limit, filter.Skip)
	query := `SELECT ` + noteColumns + ` FROM case_notes WHERE ` + strings.Join(conds, " AND ") +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query case notes: %w", err)
	}
	defer rows.Close()

	notes := []*models.CaseNote{}
	for rows.Next() {
		note, err := scanCaseNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan case note: %w", err)
		}
		notes = append(notes, note)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating case note rows: %w", err)
	}

	return notes, nil
}

// Update updates a case note
func (r *CaseNoteRepository) Update(ctx context.Context, note *models.CaseNote) error {
	query := `
		UPDATE case_notes
		SET title = $2,
		    content = $3,
		    category = $4,
		    priority = $5,
		    tags = $6,
		    is_confidential = $7,
		    follow_up_required = $8,
		    follow_up_date = $9,
		    status = $10,
		    updated_at = $11
		WHERE id = $1 AND status <> 'deleted'
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		note.ID,
		note.Title,
		note.Content,
		note.Category,
		note.Priority,
		pq.Array(note.Tags),
		note.IsConfidential,
		note.FollowUpRequired,
		note.FollowUpDate,
		note.Status,
		note.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update case note: %w", err)
	}

	return requireAffected(result, "case note")
}

// SoftDelete marks a note deleted
func (r *CaseNoteRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE case_notes
		SET status = 'deleted', updated_at = $2
		WHERE id = $1 AND status <> 'deleted'
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to delete case note: %w", err)
	}

	return requireAffected(result, "case note")
}

// DeleteByClient removes every note for a client
func (r *CaseNoteRepository) DeleteByClient(ctx context.Context, clientID uuid.UUID) error {
	executor := GetExecutor(ctx, r.db)
	if _, err := executor.ExecContext(ctx, `DELETE FROM case_notes WHERE client_id = $1`, clientID); err != nil {
		return fmt.Errorf("failed to delete case notes for client: %w", err)
	}
	return nil
}
