package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jkromann/virkdata/internal/domain"
)

// ErrLeadNotFound is returned when a lead id has no row.
var ErrLeadNotFound = errors.New("lead not found")

// leadRepository implements LeadRepository
type leadRepository struct {
	pool *pgxpool.Pool
}

// NewLeadRepository creates a new lead repository
func NewLeadRepository(pool *pgxpool.Pool) LeadRepository {
	return &leadRepository{pool: pool}
}

// Create inserts a new lead
func (r *leadRepository) Create(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (id, name, email, phone, cvr_number, note, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, name, email, phone, cvr_number, note, status, created_at, updated_at`,
		lead.ID, lead.Name, lead.Email, lead.Phone, lead.CVRNumber, lead.Note, lead.Status,
		lead.CreatedAt, lead.UpdatedAt)

	created, err := scanLead(row)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("failed to create lead: %w", err)
	}
	return created, nil
}

// GetByID retrieves a lead by ID
func (r *leadRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, phone, cvr_number, note, status, created_at, updated_at
		FROM leads WHERE id = $1`, id)

	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Lead{}, ErrLeadNotFound
		}
		return domain.Lead{}, fmt.Errorf("failed to get lead: %w", err)
	}
	return lead, nil
}

// List retrieves leads, optionally filtered by status, newest first.
func (r *leadRepository) List(ctx context.Context, status *domain.LeadStatus, limit, offset int) ([]domain.Lead, int, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `
		SELECT id, name, email, phone, cvr_number, note, status, created_at, updated_at,
			COUNT(*) OVER () AS total_count
		FROM leads`
	args := []any{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	var leads []domain.Lead
	totalCount := 0
	for rows.Next() {
		var lead domain.Lead
		if err := rows.Scan(&lead.ID, &lead.Name, &lead.Email, &lead.Phone, &lead.CVRNumber,
			&lead.Note, &lead.Status, &lead.CreatedAt, &lead.UpdatedAt, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	return leads, totalCount, rows.Err()
}

// UpdateStatus moves a lead to a new pipeline state.
func (r *leadRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.LeadStatus) (domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE leads SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING id, name, email, phone, cvr_number, note, status, created_at, updated_at`,
		id, status, time.Now().UTC())

	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Lead{}, ErrLeadNotFound
		}
		return domain.Lead{}, fmt.Errorf("failed to update lead status: %w", err)
	}
	return lead, nil
}

// Delete removes a lead
func (r *leadRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

// CountByStatus returns lead counts per pipeline state.
func (r *leadRepository) CountByStatus(ctx context.Context) (map[domain.LeadStatus]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM leads GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count leads: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.LeadStatus]int64)
	for rows.Next() {
		var status domain.LeadStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan lead count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func scanLead(row pgx.Row) (domain.Lead, error) {
	var lead domain.Lead
	err := row.Scan(&lead.ID, &lead.Name, &lead.Email, &lead.Phone, &lead.CVRNumber,
		&lead.Note, &lead.Status, &lead.CreatedAt, &lead.UpdatedAt)
	return lead, err
}
