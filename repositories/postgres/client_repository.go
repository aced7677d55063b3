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

const clientColumns = `id, name, email, phone, date_of_birth, address, emergency_contact,
		       emergency_phone, case_type, status, priority, notes, tags, case_number,
		       social_worker_id, created_at, updated_at`

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure
const uniqueViolation = pq.ErrorCode("23505")

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// ClientRepository implements the repositories.ClientRepository interface
type ClientRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewClientRepository creates a new client repository
func NewClientRepository(db *DB, logger *zap.Logger) repositories.ClientRepository {
	return &ClientRepository{
		db:     db,
		logger: logger,
	}
}

func scanClient(row rowScanner) (*models.Client, error) {
	c := &models.Client{}
	var dob sql.NullTime
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Email,
		&c.Phone,
		&dob,
		&c.Address,
		&c.EmergencyContact,
		&c.EmergencyPhone,
		&c.CaseType,
		&c.Status,
		&c.Priority,
		&c.Notes,
		pq.Array(&c.Tags),
		&c.CaseNumber,
		&c.SocialWorkerID,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if dob.Valid {
		c.DateOfBirth = &dob.Time
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return c, nil
}

// Create creates a new client
func (r *ClientRepository) Create(ctx context.Context, client *models.Client) error {
	query := `
		INSERT INTO clients (` + clientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		client.ID,
		client.Name,
		client.Email,
		client.Phone,
		client.DateOfBirth,
		client.Address,
		client.EmergencyContact,
		client.EmergencyPhone,
		client.CaseType,
		client.Status,
		client.Priority,
		client.Notes,
		pq.Array(client.Tags),
		client.CaseNumber,
		client.SocialWorkerID,
		client.CreatedAt,
		client.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("case number %s: %w", client.CaseNumber, repositories.ErrConflict)
		}
		return fmt.Errorf("failed to create client: %w", err)
	}

	r.logger.Debug("client created", zap.String("id", client.ID.String()), zap.String("case_number", client.CaseNumber))
	return nil
}

// GetByID retrieves a client by ID
func (r *ClientRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	client, err := scanClient(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}

	return client, nil
}

// List returns clients matching the filter, newest first
func (r *ClientRepository) List(ctx context.Context, filter models.ClientFilter) ([]*models.Client, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		conds = append(conds, fmt.Sprintf("priority = $%d", len(args)))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		conds = append(conds, fmt.Sprintf("name ILIKE $%d", len(args)))
	}

	query := `SELECT ` + clientColumns + ` FROM clients`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, filter.Limit, filter.Skip)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	clients := []*models.Client{}
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, client)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating client rows: %w", err)
	}

	return clients, nil
}

// Update updates a client
func (r *ClientRepository) Update(ctx context.Context, client *models.Client) error {
	query := `
		UPDATE clients
		SET name = $2,
		    email = $3,
		    phone = $4,
		    date_of_birth = $5,
		    address = $6,
		    emergency_contact = $7,
		    emergency_phone = $8,
		    case_type = $9,
		    status = $10,
		    priority = $11,
		    notes = $12,
		    tags = $13,
		    updated_at = $14
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		client.ID,
		client.Name,
		client.Email,
		client.Phone,
		client.DateOfBirth,
		client.Address,
		client.EmergencyContact,
		client.EmergencyPhone,
		client.CaseType,
		client.Status,
		client.Priority,
		client.Notes,
		pq.Array(client.Tags),
		client.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}

	return requireAffected(result, "client")
}

// Delete removes a client row. Notes and tasks must be removed first
// inside the same transaction.
func (r *ClientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}

	if err := requireAffected(result, "client"); err != nil {
		return err
	}

	r.logger.Debug("client deleted", zap.String("id", id.String()))
	return nil
}

// Summary aggregates note and task counts for a client
func (r *ClientRepository) Summary(ctx context.Context, id uuid.UUID, now time.Time) (*models.ClientSummary, error) {
	query := `
		SELECT c.id, c.name, c.case_number, c.status, c.priority,
		       (SELECT COUNT(*) FROM case_notes n WHERE n.client_id = c.id AND n.status <> 'deleted'),
		       (SELECT MAX(n.created_at) FROM case_notes n WHERE n.client_id = c.id AND n.status <> 'deleted'),
		       (SELECT COUNT(*) FROM tasks t WHERE t.client_id = c.id),
		       (SELECT COUNT(*) FROM tasks t WHERE t.client_id = c.id AND t.status NOT IN ('completed', 'cancelled')),
		       (SELECT COUNT(*) FROM tasks t WHERE t.client_id = c.id AND t.status NOT IN ('completed', 'cancelled')
		            AND t.due_date IS NOT NULL AND t.due_date < $2)
		FROM clients c
		WHERE c.id = $1
	`

	executor := GetExecutor(ctx, r.db)
	s := &models.ClientSummary{}
	var lastContact sql.NullTime

	err := executor.QueryRowContext(ctx, query, id, now).Scan(
		&s.ClientID,
		&s.Name,
		&s.CaseNumber,
		&s.Status,
		&s.Priority,
		&s.NotesCount,
		&lastContact,
		&s.TasksCount,
		&s.OpenTasks,
		&s.OverdueTasks,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to summarize client: %w", err)
	}
	if lastContact.Valid {
		s.LastContact = &lastContact.Time
	}

	return s, nil
}

// requireAffected maps a zero-row update or delete to ErrNotFound
func requireAffected(result sql.Result, what string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", what, repositories.ErrNotFound)
	}
	return nil
}
