package ingestion

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/jkromann/virkdata/internal/domain"
	"github.com/jkromann/virkdata/internal/repository"
	"github.com/jkromann/virkdata/pkg/cvrcheck"
)

// ErrUnsupportedFormat is returned when an uploaded file is not supported.
var ErrUnsupportedFormat = errors.New("unsupported file format")

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// Service imports raw registry payloads in bulk and stores each valid one as
// a company snapshot. Uploads are either a JSON array of payloads or one
// payload per line (JSONL).
type Service struct {
	snapshots repository.CompanySnapshotRepository
	checker   *cvrcheck.Checker
}

// NewService creates a new ingestion service.
func NewService(snapshots repository.CompanySnapshotRepository) *Service {
	return &Service{
		snapshots: snapshots,
		checker:   cvrcheck.NewChecker(),
	}
}

// Request describes the ingestion input.
type Request struct {
	FileName string
	Data     io.Reader
}

// RowError reports why one payload in the upload was rejected.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// Summary returns ingestion level metrics.
type Summary struct {
	TotalRows   int        `json:"totalRows"`
	ValidRows   int        `json:"validRows"`
	InvalidRows int        `json:"invalidRows"`
	Warnings    int        `json:"warnings"`
	RowErrors   []RowError `json:"rowErrors"`
}

// Ingest reads the uploaded file, validates each payload, and persists a
// snapshot per valid company. Invalid rows are reported but do not abort the
// import.
func (s *Service) Ingest(ctx context.Context, req Request) (Summary, error) {
	summary := Summary{RowErrors: []RowError{}}

	if req.Data == nil {
		return summary, errors.New("data reader is required")
	}

	payload, err := io.ReadAll(req.Data)
	if err != nil {
		return summary, fmt.Errorf("failed to read upload: %w", err)
	}
	payload = bytes.TrimPrefix(payload, byteOrderMark)
	if len(bytes.TrimSpace(payload)) == 0 {
		return summary, errors.New("file is empty")
	}

	rows, err := splitPayloads(req.FileName, payload)
	if err != nil {
		return summary, err
	}

	summary.TotalRows = len(rows)
	fetchedAt := time.Now().UTC()

	for idx, raw := range rows {
		check := s.checker.CheckRaw(raw)
		summary.Warnings += len(check.Warnings)
		if !check.IsValid {
			summary.InvalidRows++
			summary.RowErrors = append(summary.RowErrors, RowError{
				Row:     idx + 1,
				Message: joinIssues(check.Errors),
			})
			continue
		}

		var company domain.CompanyData
		if err := json.Unmarshal(raw, &company); err != nil {
			summary.InvalidRows++
			summary.RowErrors = append(summary.RowErrors, RowError{
				Row:     idx + 1,
				Message: fmt.Sprintf("failed to decode company: %v", err),
			})
			continue
		}

		record := repository.CompanySnapshotRecord{
			CVRNumber:   company.CVRNumber,
			CompanyName: company.CurrentName(),
			Payload:     raw,
			FetchedAt:   fetchedAt,
		}
		if _, err := s.snapshots.Save(ctx, record); err != nil {
			summary.InvalidRows++
			summary.RowErrors = append(summary.RowErrors, RowError{
				Row:     idx + 1,
				Message: fmt.Sprintf("failed to store snapshot: %v", err),
			})
			continue
		}

		summary.ValidRows++
	}

	return summary, nil
}

// splitPayloads turns the upload into one raw JSON document per company. A
// top level array is unpacked; anything else is treated as JSONL.
func splitPayloads(fileName string, payload []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(payload)

	if ext := strings.ToLower(filepath.Ext(fileName)); ext != "" && ext != ".json" && ext != ".jsonl" && ext != ".ndjson" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	if trimmed[0] == '[' {
		var rows []json.RawMessage
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, fmt.Errorf("failed to parse json array: %w", err)
		}
		return rows, nil
	}

	var rows []json.RawMessage
	scanner := bufio.NewScanner(bytes.NewReader(trimmed))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		rows = append(rows, json.RawMessage(append([]byte(nil), line...)))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan upload: %w", err)
	}
	return rows, nil
}

func joinIssues(issues []cvrcheck.Issue) string {
	parts := make([]string, 0, len(issues))
	for _, issue := range issues {
		parts = append(parts, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return strings.Join(parts, "; ")
}
