package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jkromann/virkdata/internal/domain"
)

// CompanySnapshotRecord is one stored fetch of a company's raw payload.
type CompanySnapshotRecord struct {
	ID          uuid.UUID
	CVRNumber   int64
	CompanyName string
	Payload     []byte
	FetchedAt   time.Time
}

// Snapshot decodes the stored payload into the domain snapshot form used by
// the diff view.
func (r CompanySnapshotRecord) Snapshot() (domain.CompanySnapshot, error) {
	var payload map[string]any
	if len(r.Payload) > 0 {
		if err := json.Unmarshal(r.Payload, &payload); err != nil {
			return domain.CompanySnapshot{}, fmt.Errorf("failed to decode snapshot payload: %w", err)
		}
	}
	return domain.CompanySnapshot{
		CVRNumber: r.CVRNumber,
		FetchedAt: r.FetchedAt,
		Payload:   payload,
	}, nil
}

// CompanyListing is one row of the stored company index.
type CompanyListing struct {
	CVRNumber   int64     `json:"cvrNumber"`
	CompanyName string    `json:"name"`
	FetchedAt   time.Time `json:"fetchedAt"`
}

// CompanySnapshotRepository defines the interface for snapshot storage.
type CompanySnapshotRepository interface {
	Save(ctx context.Context, record CompanySnapshotRecord) (CompanySnapshotRecord, error)
	Latest(ctx context.Context, cvrNumber int64) (CompanySnapshotRecord, error)
	LatestTwo(ctx context.Context, cvrNumber int64) ([]CompanySnapshotRecord, error)
	ListCompanies(ctx context.Context, limit, offset int) ([]CompanyListing, int, error)
	Count(ctx context.Context) (int64, error)
}

// LeadRepository defines the interface for lead operations.
type LeadRepository interface {
	Create(ctx context.Context, lead domain.Lead) (domain.Lead, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Lead, error)
	List(ctx context.Context, status *domain.LeadStatus, limit, offset int) ([]domain.Lead, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.LeadStatus) (domain.Lead, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountByStatus(ctx context.Context) (map[domain.LeadStatus]int64, error)
}
