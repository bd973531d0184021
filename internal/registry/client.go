package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/jkromann/virkdata/internal/config"
	"github.com/jkromann/virkdata/internal/domain"
	"github.com/jkromann/virkdata/internal/metrics"
)

// CompanySummary is one search hit, trimmed to what the result list shows.
type CompanySummary struct {
	CVRNumber int64  `json:"cvrNummer"`
	Name      string `json:"navn"`
	Status    string `json:"status"`
	City      string `json:"by"`
}

// Client queries the external CVR search index. It plays the server-side
// proxy role: the browser never talks to the registry directly.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cache      *Cache
	metrics    *metrics.Metrics
}

// NewClient builds a registry client. The cache and metrics may be nil.
func NewClient(cfg config.RegistryConfig, cache *Cache, m *metrics.Metrics) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		cache:      cache,
		metrics:    m,
	}
}

type searchEnvelope struct {
	Hits struct {
		Hits []struct {
			Source struct {
				Company json.RawMessage `json:"Vrvirksomhed"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Company fetches the raw registry payload for one CVR number, serving from
// the Redis cache when possible. The returned bytes are the registry's own
// JSON object, suitable for storage and for domain.CompanyData decoding.
func (c *Client) Company(ctx context.Context, cvr int64) (*domain.CompanyData, []byte, error) {
	if cached, err := c.cache.GetPayload(ctx, cvr); err == nil && cached != nil {
		if c.metrics != nil {
			c.metrics.CacheHits.Inc()
		}
		company, err := decodeCompany(cached)
		if err == nil {
			return company, cached, nil
		}
		// stale or corrupt cache entry, fall through to the upstream fetch
	}

	query := map[string]any{
		"query": map[string]any{
			"term": map[string]any{"Vrvirksomhed.cvrNummer": cvr},
		},
	}

	payload, err := c.search(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	if payload == nil {
		return nil, nil, fmt.Errorf("company %d not found in registry", cvr)
	}

	company, err := decodeCompany(payload)
	if err != nil {
		return nil, nil, err
	}

	if err := c.cache.SetPayload(ctx, cvr, payload); err != nil {
		// cache failures must not fail the request
		log.Printf("failed to cache payload for %d: %v", cvr, err)
	}

	return company, payload, nil
}

// Search runs a free text company search against the registry index.
func (c *Client) Search(ctx context.Context, text string, limit int) ([]CompanySummary, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	query := map[string]any{
		"size": limit,
		"query": map[string]any{
			"bool": map[string]any{
				"should": []any{
					map[string]any{"match": map[string]any{"Vrvirksomhed.virksomhedMetadata.nyesteNavn.navn": text}},
					map[string]any{"term": map[string]any{"Vrvirksomhed.cvrNummer": text}},
				},
			},
		},
	}

	envelope, err := c.rawSearch(ctx, query)
	if err != nil {
		return nil, err
	}

	summaries := make([]CompanySummary, 0, len(envelope.Hits.Hits))
	for _, hit := range envelope.Hits.Hits {
		company, err := decodeCompany(hit.Source.Company)
		if err != nil {
			continue
		}
		summaries = append(summaries, summarize(company))
	}
	return summaries, nil
}

// search returns the raw payload of the first hit, or nil when there are no
// hits.
func (c *Client) search(ctx context.Context, query map[string]any) ([]byte, error) {
	envelope, err := c.rawSearch(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(envelope.Hits.Hits) == 0 {
		return nil, nil
	}
	return envelope.Hits.Hits[0].Source.Company, nil
}

func (c *Client) rawSearch(ctx context.Context, query map[string]any) (*searchEnvelope, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal registry query: %w", err)
	}

	url := c.baseURL + "/cvr-permanent/virksomhed/_search"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build registry request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Basic "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry request failed: %w", err)
	}
	defer resp.Body.Close()
	if c.metrics != nil {
		c.metrics.ObserveRegistryFetch(start)
	}

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("registry returned %d: %s", resp.StatusCode, snippet)
	}

	var envelope searchEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode registry response: %w", err)
	}
	return &envelope, nil
}

func decodeCompany(payload []byte) (*domain.CompanyData, error) {
	var company domain.CompanyData
	if err := json.Unmarshal(payload, &company); err != nil {
		return nil, fmt.Errorf("failed to decode company payload: %w", err)
	}
	return &company, nil
}

func summarize(company *domain.CompanyData) CompanySummary {
	summary := CompanySummary{
		CVRNumber: company.CVRNumber,
		Name:      company.CurrentName(),
	}
	if history := domain.StatusHistory(company); len(history) > 0 {
		summary.Status = history[len(history)-1].Value
	}
	if history := domain.AddressHistory(company); len(history) > 0 {
		summary.City = history[len(history)-1].Value.City
	}
	return summary
}
