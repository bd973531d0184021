package leads

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/jkromann/virkdata/internal/domain"
	"github.com/jkromann/virkdata/internal/repository"
)

// Handler exposes lead capture and the admin pipeline views.
type Handler struct {
	leads     repository.LeadRepository
	snapshots repository.CompanySnapshotRepository
}

// NewHTTPHandler creates the handler for /api/leads and /api/admin/stats.
func NewHTTPHandler(leads repository.LeadRepository, snapshots repository.CompanySnapshotRepository) *Handler {
	return &Handler{leads: leads, snapshots: snapshots}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api"), "/")

	switch {
	case path == "admin/stats":
		h.handleStats(w, r)
	case path == "leads" && r.Method == http.MethodPost:
		h.handleCreate(w, r)
	case path == "leads" && r.Method == http.MethodGet:
		h.handleList(w, r)
	case strings.HasPrefix(path, "leads/"):
		h.handleLead(w, r, strings.TrimPrefix(path, "leads/"))
	default:
		http.NotFound(w, r)
	}
}

type createLeadRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Note      string `json:"note"`
	CVRNumber *int64 `json:"cvrNumber"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		http.Error(w, "a valid email is required", http.StatusBadRequest)
		return
	}

	lead := domain.NewLead(req.Name, req.Email, strings.TrimSpace(req.Phone), strings.TrimSpace(req.Note), req.CVRNumber)
	created, err := h.leads.Create(r.Context(), lead)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to store lead: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	var status *domain.LeadStatus
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		candidate := domain.LeadStatus(raw)
		if !domain.ValidLeadStatus(candidate) {
			http.Error(w, fmt.Sprintf("unknown status %q", raw), http.StatusBadRequest)
			return
		}
		status = &candidate
	}

	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	items, total, err := h.leads.List(r.Context(), status, limit, offset)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to list leads: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"leads": items,
		"total": total,
	})
}

func (h *Handler) handleLead(w http.ResponseWriter, r *http.Request, rest string) {
	idPart, action, _ := strings.Cut(rest, "/")
	id, err := uuid.Parse(idPart)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid lead id: %v", err), http.StatusBadRequest)
		return
	}

	switch {
	case action == "status" && (r.Method == http.MethodPatch || r.Method == http.MethodPut):
		h.handleStatusUpdate(w, r, id)
	case action == "" && r.Method == http.MethodGet:
		h.handleGet(w, r, id)
	case action == "" && r.Method == http.MethodDelete:
		h.handleDelete(w, r, id)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	lead, err := h.leads.GetByID(r.Context(), id)
	if errors.Is(err, repository.ErrLeadNotFound) {
		http.Error(w, "lead not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to load lead: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (h *Handler) handleStatusUpdate(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req struct {
		Status domain.LeadStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if !domain.ValidLeadStatus(req.Status) {
		http.Error(w, fmt.Sprintf("unknown status %q", req.Status), http.StatusBadRequest)
		return
	}

	lead, err := h.leads.UpdateStatus(r.Context(), id, req.Status)
	if errors.Is(err, repository.ErrLeadNotFound) {
		http.Error(w, "lead not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to update lead: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	err := h.leads.Delete(r.Context(), id)
	if errors.Is(err, repository.ErrLeadNotFound) {
		http.Error(w, "lead not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to delete lead: %v", err), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	byStatus, err := h.leads.CountByStatus(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to count leads: %v", err), http.StatusInternalServerError)
		return
	}
	snapshotCount, err := h.snapshots.Count(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to count snapshots: %v", err), http.StatusInternalServerError)
		return
	}

	counts := map[string]int64{}
	var total int64
	for _, status := range []domain.LeadStatus{domain.LeadStatusNew, domain.LeadStatusContacted, domain.LeadStatusConverted, domain.LeadStatusClosed} {
		counts[string(status)] = byStatus[status]
		total += byStatus[status]
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"leads": map[string]any{
			"total":    total,
			"byStatus": counts,
		},
		"snapshots": snapshotCount,
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
