package leads

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/jkromann/virkdata/internal/domain"
	"github.com/jkromann/virkdata/internal/repository"
)

type stubLeadRepo struct {
	leads map[uuid.UUID]domain.Lead
}

func newStubLeadRepo() *stubLeadRepo {
	return &stubLeadRepo{leads: map[uuid.UUID]domain.Lead{}}
}

func (s *stubLeadRepo) Create(_ context.Context, lead domain.Lead) (domain.Lead, error) {
	s.leads[lead.ID] = lead
	return lead, nil
}

func (s *stubLeadRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Lead, error) {
	lead, ok := s.leads[id]
	if !ok {
		return domain.Lead{}, repository.ErrLeadNotFound
	}
	return lead, nil
}

func (s *stubLeadRepo) List(_ context.Context, status *domain.LeadStatus, limit, offset int) ([]domain.Lead, int, error) {
	var out []domain.Lead
	for _, lead := range s.leads {
		if status == nil || lead.Status == *status {
			out = append(out, lead)
		}
	}
	return out, len(out), nil
}

func (s *stubLeadRepo) UpdateStatus(_ context.Context, id uuid.UUID, status domain.LeadStatus) (domain.Lead, error) {
	lead, ok := s.leads[id]
	if !ok {
		return domain.Lead{}, repository.ErrLeadNotFound
	}
	lead.Status = status
	s.leads[id] = lead
	return lead, nil
}

func (s *stubLeadRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := s.leads[id]; !ok {
		return repository.ErrLeadNotFound
	}
	delete(s.leads, id)
	return nil
}

func (s *stubLeadRepo) CountByStatus(context.Context) (map[domain.LeadStatus]int64, error) {
	counts := map[domain.LeadStatus]int64{}
	for _, lead := range s.leads {
		counts[lead.Status]++
	}
	return counts, nil
}

type stubSnapshotCounter struct {
	count int64
}

func (s *stubSnapshotCounter) Save(_ context.Context, record repository.CompanySnapshotRecord) (repository.CompanySnapshotRecord, error) {
	return record, nil
}

func (s *stubSnapshotCounter) Latest(context.Context, int64) (repository.CompanySnapshotRecord, error) {
	return repository.CompanySnapshotRecord{}, repository.ErrSnapshotNotFound
}

func (s *stubSnapshotCounter) LatestTwo(context.Context, int64) ([]repository.CompanySnapshotRecord, error) {
	return nil, nil
}

func (s *stubSnapshotCounter) ListCompanies(context.Context, int, int) ([]repository.CompanyListing, int, error) {
	return nil, 0, nil
}

func (s *stubSnapshotCounter) Count(context.Context) (int64, error) {
	return s.count, nil
}

func TestCreateLead(t *testing.T) {
	repo := newStubLeadRepo()
	handler := NewHTTPHandler(repo, &stubSnapshotCounter{})

	body := `{"name": "Jens Hansen", "email": "jens@example.dk", "phone": "12345678", "note": "Ring om Acme", "cvrNumber": 12345678}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/leads", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created domain.Lead
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if created.Status != domain.LeadStatusNew {
		t.Errorf("expected new lead status, got %s", created.Status)
	}
	if created.CVRNumber == nil || *created.CVRNumber != 12345678 {
		t.Errorf("expected cvr number on lead, got %v", created.CVRNumber)
	}
	if len(repo.leads) != 1 {
		t.Fatalf("expected lead stored, got %d", len(repo.leads))
	}
}

func TestCreateLeadRequiresEmail(t *testing.T) {
	handler := NewHTTPHandler(newStubLeadRepo(), &stubSnapshotCounter{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/leads", strings.NewReader(`{"name": "Jens"}`)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListLeadsRejectsUnknownStatus(t *testing.T) {
	handler := NewHTTPHandler(newStubLeadRepo(), &stubSnapshotCounter{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/leads?status=stale", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", rec.Code)
	}
}

func TestUpdateLeadStatus(t *testing.T) {
	repo := newStubLeadRepo()
	lead := domain.NewLead("Jens Hansen", "jens@example.dk", "", "", nil)
	repo.leads[lead.ID] = lead
	handler := NewHTTPHandler(repo, &stubSnapshotCounter{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/leads/"+lead.ID.String()+"/status", strings.NewReader(`{"status": "contacted"}`))
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if repo.leads[lead.ID].Status != domain.LeadStatusContacted {
		t.Errorf("expected status contacted, got %s", repo.leads[lead.ID].Status)
	}
}

func TestGetLeadNotFound(t *testing.T) {
	handler := NewHTTPHandler(newStubLeadRepo(), &stubSnapshotCounter{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/leads/"+uuid.NewString(), nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDeleteLead(t *testing.T) {
	repo := newStubLeadRepo()
	lead := domain.NewLead("Jens Hansen", "jens@example.dk", "", "", nil)
	repo.leads[lead.ID] = lead
	handler := NewHTTPHandler(repo, &stubSnapshotCounter{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/leads/"+lead.ID.String(), nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(repo.leads) != 0 {
		t.Fatal("expected lead removed")
	}
}

func TestAdminStats(t *testing.T) {
	repo := newStubLeadRepo()
	first := domain.NewLead("A", "a@example.dk", "", "", nil)
	second := domain.NewLead("B", "b@example.dk", "", "", nil)
	second.Status = domain.LeadStatusConverted
	repo.leads[first.ID] = first
	repo.leads[second.ID] = second
	handler := NewHTTPHandler(repo, &stubSnapshotCounter{count: 7})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var stats struct {
		Leads struct {
			Total    int64            `json:"total"`
			ByStatus map[string]int64 `json:"byStatus"`
		} `json:"leads"`
		Snapshots int64 `json:"snapshots"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("failed to decode stats: %v", err)
	}
	if stats.Leads.Total != 2 {
		t.Errorf("expected 2 leads, got %d", stats.Leads.Total)
	}
	if stats.Leads.ByStatus["new"] != 1 || stats.Leads.ByStatus["converted"] != 1 {
		t.Errorf("unexpected status counts: %v", stats.Leads.ByStatus)
	}
	if stats.Snapshots != 7 {
		t.Errorf("expected 7 snapshots, got %d", stats.Snapshots)
	}
}
