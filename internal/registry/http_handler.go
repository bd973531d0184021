package registry

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// SearchHandler proxies free text company searches to the registry index.
type SearchHandler struct {
	client *Client
}

// NewSearchHandler wraps the client with a GET endpoint.
func NewSearchHandler(client *Client) http.Handler {
	return &SearchHandler{client: client}
}

func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		http.Error(w, "q is required", http.StatusBadRequest)
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	summaries, err := h.client.Search(r.Context(), query, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]any{"results": summaries}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
