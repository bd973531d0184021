package export

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/jkromann/virkdata/internal/domain"
	"github.com/jkromann/virkdata/internal/timeline"
)

// TimelineProvider supplies the assembled timeline for a company.
type TimelineProvider interface {
	CompanyTimeline(ctx context.Context, cvrNumber int64, filters domain.TimelineFilters) (timeline.Result, error)
}

// Handler serves timeline workbooks for download.
type Handler struct {
	timelines TimelineProvider
	service   *Service
}

// NewHTTPHandler wraps the export service with a download endpoint at
// /api/export/{cvr}.xlsx.
func NewHTTPHandler(timelines TimelineProvider, service *Service) http.Handler {
	return &Handler{timelines: timelines, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/export"), "/")
	rest = strings.TrimSuffix(rest, ".xlsx")
	cvrNumber, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid cvr number: %v", err), http.StatusBadRequest)
		return
	}

	result, err := h.timelines.CompanyTimeline(r.Context(), cvrNumber, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	var buf bytes.Buffer
	if err := h.service.WriteWorkbook(&buf, result.CompanyName, cvrNumber, result.Events); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	fileName := fmt.Sprintf("virkdata-%d.xlsx", cvrNumber)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}
