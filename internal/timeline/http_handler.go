package timeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/jkromann/virkdata/internal/domain"
	"github.com/jkromann/virkdata/internal/repository"
)

// Handler exposes the timeline service over HTTP.
type Handler struct {
	service  *Service
	listings repository.CompanySnapshotRepository
}

// NewHTTPHandler wraps the service with the company endpoints.
func NewHTTPHandler(service *Service, listings repository.CompanySnapshotRepository) http.Handler {
	return &Handler{service: service, listings: listings}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/companies")
	rest = strings.Trim(rest, "/")

	if rest == "" {
		h.handleList(w, r)
		return
	}

	segments := strings.Split(rest, "/")
	cvrNumber, err := strconv.ParseInt(segments[0], 10, 64)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid cvr number: %v", err), http.StatusBadRequest)
		return
	}

	action := "timeline"
	if len(segments) > 1 {
		action = strings.Join(segments[1:], "/")
	}

	switch action {
	case "timeline":
		h.handleTimeline(w, r, cvrNumber)
	case "timeline/stored":
		h.handleStoredTimeline(w, r, cvrNumber)
	case "snapshot-diff":
		h.handleSnapshotDiff(w, r, cvrNumber)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request, cvrNumber int64) {
	result, err := h.service.CompanyTimeline(r.Context(), cvrNumber, parseFilters(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleStoredTimeline(w http.ResponseWriter, r *http.Request, cvrNumber int64) {
	result, err := h.service.StoredTimeline(r.Context(), cvrNumber, parseFilters(r))
	if err != nil {
		if errors.Is(err, repository.ErrSnapshotNotFound) {
			http.Error(w, "no stored snapshot for company", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleSnapshotDiff(w http.ResponseWriter, r *http.Request, cvrNumber int64) {
	diff, err := h.service.SnapshotDiff(r.Context(), cvrNumber)
	if err != nil {
		if errors.Is(err, repository.ErrSnapshotNotFound) {
			http.Error(w, "no stored snapshot for company", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(diff))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	if h.listings == nil {
		http.Error(w, "snapshot storage not configured", http.StatusNotFound)
		return
	}
	limit := queryInt(r, "limit", 100)
	offset := queryInt(r, "offset", 0)

	listings, total, err := h.listings.ListCompanies(r.Context(), limit, offset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"companies":  listings,
		"totalCount": total,
	})
}

// parseFilters builds the category filter set from the request. Without a
// categories parameter every category is shown; with one, only the listed
// categories pass. Unknown names are ignored rather than rejected.
func parseFilters(r *http.Request) domain.TimelineFilters {
	raw := strings.TrimSpace(r.URL.Query().Get("categories"))
	if raw == "" {
		return nil
	}
	filters := make(domain.TimelineFilters, len(domain.AllCategories))
	for _, category := range domain.AllCategories {
		filters[category] = false
	}
	for _, name := range strings.Split(raw, ",") {
		category := domain.Category(strings.ToLower(strings.TrimSpace(name)))
		if domain.IsValidCategory(category) {
			filters[category] = true
		}
	}
	return filters
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
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
