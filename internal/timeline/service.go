package timeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jkromann/virkdata/internal/domain"
	"github.com/jkromann/virkdata/internal/metrics"
	"github.com/jkromann/virkdata/internal/repository"
)

// PayloadSource fetches the raw registry payload for one company. The
// registry client implements this; tests use stubs.
type PayloadSource interface {
	Company(ctx context.Context, cvrNumber int64) (*domain.CompanyData, []byte, error)
}

// FinancialSource provides the parsed annual report companion feed. It is
// optional; without one the financial category simply has no history.
type FinancialSource interface {
	Reports(ctx context.Context, cvrNumber int64) (domain.FinancialHistory, error)
}

// Result is the assembled timeline response: the flat list, the
// year-grouped view and the data quality counters, all plain serializable
// data.
type Result struct {
	CVRNumber     int64                           `json:"cvrNumber"`
	CompanyName   string                          `json:"companyName"`
	Events        []domain.ChangeEvent            `json:"events"`
	Years         map[string][]domain.ChangeEvent `json:"years"`
	YearKeys      []string                        `json:"yearKeys"`
	ExcludedCount int                             `json:"excludedCount"`
}

// Service reconstructs company timelines from fetched registry payloads and
// records each fetch as a stored snapshot.
type Service struct {
	source     PayloadSource
	financials FinancialSource
	snapshots  repository.CompanySnapshotRepository
	metrics    *metrics.Metrics
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithFinancialSource wires the annual report companion feed.
func WithFinancialSource(source FinancialSource) Option {
	return func(s *Service) { s.financials = source }
}

// WithSnapshots enables snapshot persistence for the diff view.
func WithSnapshots(repo repository.CompanySnapshotRepository) Option {
	return func(s *Service) { s.snapshots = repo }
}

// WithMetrics enables reconstruction counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a timeline service around a payload source.
func NewService(source PayloadSource, opts ...Option) *Service {
	service := &Service{source: source}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CompanyTimeline fetches the company's raw payload, reconstructs its
// change history and applies the category filters. The filters only select
// from the assembled events; nothing is re-derived.
func (s *Service) CompanyTimeline(ctx context.Context, cvrNumber int64, filters domain.TimelineFilters) (Result, error) {
	company, payload, err := s.source.Company(ctx, cvrNumber)
	if err != nil {
		return Result{}, fmt.Errorf("failed to fetch company %d: %w", cvrNumber, err)
	}

	s.storeSnapshot(ctx, cvrNumber, company, payload)

	var reports domain.FinancialHistory
	if s.financials != nil {
		reports, err = s.financials.Reports(ctx, cvrNumber)
		if err != nil {
			// annual reports are an enrichment; the registry history must
			// still render without them
			log.Printf("failed to fetch financial reports for %d: %v", cvrNumber, err)
			reports = nil
		}
	}

	return s.assemble(cvrNumber, company, reports, filters), nil
}

// StoredTimeline reconstructs the timeline from the most recent stored
// snapshot without touching the upstream registry.
func (s *Service) StoredTimeline(ctx context.Context, cvrNumber int64, filters domain.TimelineFilters) (Result, error) {
	if s.snapshots == nil {
		return Result{}, errors.New("snapshot storage not configured")
	}
	record, err := s.snapshots.Latest(ctx, cvrNumber)
	if err != nil {
		return Result{}, err
	}

	company, err := decodeStored(record.Payload)
	if err != nil {
		return Result{}, err
	}
	return s.assemble(cvrNumber, company, nil, filters), nil
}

// SnapshotDiff renders a unified diff between the two most recent stored
// snapshots. With a single stored fetch the whole record shows as added.
func (s *Service) SnapshotDiff(ctx context.Context, cvrNumber int64) (string, error) {
	if s.snapshots == nil {
		return "", errors.New("snapshot storage not configured")
	}
	records, err := s.snapshots.LatestTwo(ctx, cvrNumber)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", repository.ErrSnapshotNotFound
	}

	target, err := records[0].Snapshot()
	if err != nil {
		return "", err
	}
	targetLabel := records[0].FetchedAt.Format(time.RFC3339)

	var base *domain.CompanySnapshot
	baseLabel := "none"
	if len(records) > 1 {
		decoded, err := records[1].Snapshot()
		if err != nil {
			return "", err
		}
		base = &decoded
		baseLabel = records[1].FetchedAt.Format(time.RFC3339)
	}

	return domain.DiffSnapshots(baseLabel, base, targetLabel, &target)
}

func (s *Service) assemble(cvrNumber int64, company *domain.CompanyData, reports domain.FinancialHistory, filters domain.TimelineFilters) Result {
	start := time.Now()
	timeline := domain.BuildTimeline(company, reports)
	if s.metrics != nil {
		s.metrics.ObserveBuild(start, len(timeline.Events), timeline.ExcludedCount)
	}

	events := domain.FilterEvents(timeline.Events, filters)
	groups := domain.GroupByYear(events)

	return Result{
		CVRNumber:     cvrNumber,
		CompanyName:   company.CurrentName(),
		Events:        events,
		Years:         groups,
		YearKeys:      domain.YearKeys(groups),
		ExcludedCount: timeline.ExcludedCount,
	}
}

func (s *Service) storeSnapshot(ctx context.Context, cvrNumber int64, company *domain.CompanyData, payload []byte) {
	if s.snapshots == nil || len(payload) == 0 {
		return
	}
	record := repository.CompanySnapshotRecord{
		CVRNumber:   cvrNumber,
		CompanyName: company.CurrentName(),
		Payload:     payload,
	}
	if _, err := s.snapshots.Save(ctx, record); err != nil {
		// storage is best effort; the timeline must still render
		log.Printf("failed to store snapshot for %d: %v", cvrNumber, err)
	}
}

func decodeStored(payload []byte) (*domain.CompanyData, error) {
	var company domain.CompanyData
	if err := json.Unmarshal(payload, &company); err != nil {
		return nil, fmt.Errorf("failed to decode stored payload: %w", err)
	}
	return &company, nil
}
