package tests

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/jkromann/virkdata/internal/auth"
	"github.com/jkromann/virkdata/internal/domain"
	"github.com/jkromann/virkdata/internal/export"
	"github.com/jkromann/virkdata/internal/ingestion"
	"github.com/jkromann/virkdata/internal/leads"
	"github.com/jkromann/virkdata/internal/middleware"
	"github.com/jkromann/virkdata/internal/repository"
	"github.com/jkromann/virkdata/internal/timeline"
)

const testAdminKey = "test-admin-key"

// memorySnapshotRepo is an in-memory CompanySnapshotRepository for API tests.
type memorySnapshotRepo struct {
	mu      sync.Mutex
	records []repository.CompanySnapshotRecord
}

func (m *memorySnapshotRepo) Save(_ context.Context, record repository.CompanySnapshotRecord) (repository.CompanySnapshotRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	m.records = append(m.records, record)
	return record, nil
}

func (m *memorySnapshotRepo) Latest(_ context.Context, cvrNumber int64) (repository.CompanySnapshotRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].CVRNumber == cvrNumber {
			return m.records[i], nil
		}
	}
	return repository.CompanySnapshotRecord{}, repository.ErrSnapshotNotFound
}

func (m *memorySnapshotRepo) LatestTwo(_ context.Context, cvrNumber int64) ([]repository.CompanySnapshotRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repository.CompanySnapshotRecord
	for i := len(m.records) - 1; i >= 0 && len(out) < 2; i-- {
		if m.records[i].CVRNumber == cvrNumber {
			out = append(out, m.records[i])
		}
	}
	return out, nil
}

func (m *memorySnapshotRepo) ListCompanies(_ context.Context, limit, offset int) ([]repository.CompanyListing, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	latest := map[int64]repository.CompanyListing{}
	for _, record := range m.records {
		latest[record.CVRNumber] = repository.CompanyListing{
			CVRNumber:   record.CVRNumber,
			CompanyName: record.CompanyName,
			FetchedAt:   record.FetchedAt,
		}
	}
	listings := make([]repository.CompanyListing, 0, len(latest))
	for _, listing := range latest {
		listings = append(listings, listing)
	}
	sort.Slice(listings, func(i, j int) bool { return listings[i].CVRNumber < listings[j].CVRNumber })
	total := len(listings)
	if offset >= len(listings) {
		return nil, total, nil
	}
	listings = listings[offset:]
	if limit > 0 && limit < len(listings) {
		listings = listings[:limit]
	}
	return listings, total, nil
}

func (m *memorySnapshotRepo) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.records)), nil
}

// memoryLeadRepo is an in-memory LeadRepository for API tests.
type memoryLeadRepo struct {
	mu    sync.Mutex
	leads map[uuid.UUID]domain.Lead
}

func newMemoryLeadRepo() *memoryLeadRepo {
	return &memoryLeadRepo{leads: map[uuid.UUID]domain.Lead{}}
}

func (m *memoryLeadRepo) Create(_ context.Context, lead domain.Lead) (domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leads[lead.ID] = lead
	return lead, nil
}

func (m *memoryLeadRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead, ok := m.leads[id]
	if !ok {
		return domain.Lead{}, repository.ErrLeadNotFound
	}
	return lead, nil
}

func (m *memoryLeadRepo) List(_ context.Context, status *domain.LeadStatus, limit, offset int) ([]domain.Lead, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Lead
	for _, lead := range m.leads {
		if status == nil || lead.Status == *status {
			out = append(out, lead)
		}
	}
	return out, len(out), nil
}

func (m *memoryLeadRepo) UpdateStatus(_ context.Context, id uuid.UUID, status domain.LeadStatus) (domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead, ok := m.leads[id]
	if !ok {
		return domain.Lead{}, repository.ErrLeadNotFound
	}
	lead.Status = status
	m.leads[id] = lead
	return lead, nil
}

func (m *memoryLeadRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.leads[id]; !ok {
		return repository.ErrLeadNotFound
	}
	delete(m.leads, id)
	return nil
}

func (m *memoryLeadRepo) CountByStatus(context.Context) (map[domain.LeadStatus]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[domain.LeadStatus]int64{}
	for _, lead := range m.leads {
		counts[lead.Status]++
	}
	return counts, nil
}

// payloadSource serves canned raw payloads keyed by CVR number.
type payloadSource struct {
	payloads map[int64][]byte
}

func (p *payloadSource) Company(_ context.Context, cvrNumber int64) (*domain.CompanyData, []byte, error) {
	raw, ok := p.payloads[cvrNumber]
	if !ok {
		return nil, nil, fmt.Errorf("company %d not found in registry", cvrNumber)
	}
	var company domain.CompanyData
	if err := json.Unmarshal(raw, &company); err != nil {
		return nil, nil, err
	}
	return &company, raw, nil
}

// newTestServer wires the API the way cmd/server does, backed by in-memory
// stores and a canned payload source.
func newTestServer(source *payloadSource, snapshots *memorySnapshotRepo, leadRepo *memoryLeadRepo) *httptest.Server {
	timelineService := timeline.NewService(source, timeline.WithSnapshots(snapshots))
	ingestService := ingestion.NewService(snapshots)

	timelineHandler := timeline.NewHTTPHandler(timelineService, snapshots)
	exportHandler := export.NewHTTPHandler(timelineService, export.NewService())
	ingestHandler := ingestion.NewHTTPHandler(ingestService)
	leadsHandler := leads.NewHTTPHandler(leadRepo, snapshots)
	adminOnly := func(next http.Handler) http.Handler {
		return auth.RequireAdminKey(testAdminKey, next)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/companies", timelineHandler)
	mux.Handle("/api/companies/", timelineHandler)
	mux.Handle("/api/export/", exportHandler)
	mux.Handle("/api/ingest", adminOnly(ingestHandler))
	mux.Handle("/api/admin/", adminOnly(leadsHandler))
	mux.Handle("/api/leads/", adminOnly(leadsHandler))
	adminLeads := adminOnly(leadsHandler)
	mux.Handle("/api/leads", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			leadsHandler.ServeHTTP(w, r)
			return
		}
		adminLeads.ServeHTTP(w, r)
	}))

	return httptest.NewServer(middleware.LoggingMiddleware(mux))
}
