package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrSnapshotNotFound is returned when a company has no stored snapshots.
var ErrSnapshotNotFound = errors.New("no snapshot stored for company")

// companySnapshotRepository implements CompanySnapshotRepository
type companySnapshotRepository struct {
	pool *pgxpool.Pool
}

// NewCompanySnapshotRepository creates a new snapshot repository
func NewCompanySnapshotRepository(pool *pgxpool.Pool) CompanySnapshotRepository {
	return &companySnapshotRepository{pool: pool}
}

// Save stores one fetched payload as a new snapshot row.
func (r *companySnapshotRepository) Save(ctx context.Context, record CompanySnapshotRecord) (CompanySnapshotRecord, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.FetchedAt.IsZero() {
		record.FetchedAt = time.Now().UTC()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO company_snapshots (id, cvr_number, company_name, payload, fetched_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, cvr_number, company_name, payload, fetched_at`,
		record.ID, record.CVRNumber, record.CompanyName, record.Payload, record.FetchedAt)

	saved, err := scanSnapshot(row)
	if err != nil {
		return CompanySnapshotRecord{}, fmt.Errorf("failed to save snapshot: %w", err)
	}
	return saved, nil
}

// Latest returns the most recent snapshot for a CVR number.
func (r *companySnapshotRepository) Latest(ctx context.Context, cvrNumber int64) (CompanySnapshotRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, cvr_number, company_name, payload, fetched_at
		FROM company_snapshots
		WHERE cvr_number = $1
		ORDER BY fetched_at DESC
		LIMIT 1`, cvrNumber)

	record, err := scanSnapshot(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CompanySnapshotRecord{}, ErrSnapshotNotFound
		}
		return CompanySnapshotRecord{}, fmt.Errorf("failed to get latest snapshot: %w", err)
	}
	return record, nil
}

// LatestTwo returns the two most recent snapshots, newest first. A company
// with a single stored fetch yields a one element slice.
func (r *companySnapshotRepository) LatestTwo(ctx context.Context, cvrNumber int64) ([]CompanySnapshotRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, cvr_number, company_name, payload, fetched_at
		FROM company_snapshots
		WHERE cvr_number = $1
		ORDER BY fetched_at DESC
		LIMIT 2`, cvrNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var records []CompanySnapshotRecord
	for rows.Next() {
		record, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		records = append(records, record)
	}
	if len(records) == 0 {
		return nil, ErrSnapshotNotFound
	}
	return records, rows.Err()
}

// ListCompanies returns the distinct stored companies, most recently
// fetched first, for the sitemap style index.
func (r *companySnapshotRepository) ListCompanies(ctx context.Context, limit, offset int) ([]CompanyListing, int, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT cvr_number, company_name, fetched_at, total_count FROM (
			SELECT DISTINCT ON (cvr_number) cvr_number, company_name, fetched_at,
				COUNT(DISTINCT cvr_number) OVER () AS total_count
			FROM company_snapshots
			ORDER BY cvr_number, fetched_at DESC
		) latest
		ORDER BY fetched_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	var listings []CompanyListing
	totalCount := 0
	for rows.Next() {
		var listing CompanyListing
		if err := rows.Scan(&listing.CVRNumber, &listing.CompanyName, &listing.FetchedAt, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("failed to scan company listing: %w", err)
		}
		listings = append(listings, listing)
	}
	return listings, totalCount, rows.Err()
}

// Count returns the number of distinct stored companies.
func (r *companySnapshotRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(DISTINCT cvr_number) FROM company_snapshots`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count companies: %w", err)
	}
	return count, nil
}

func scanSnapshot(row pgx.Row) (CompanySnapshotRecord, error) {
	var record CompanySnapshotRecord
	err := row.Scan(&record.ID, &record.CVRNumber, &record.CompanyName, &record.Payload, &record.FetchedAt)
	return record, err
}
