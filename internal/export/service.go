package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/jkromann/virkdata/internal/domain"
)

const (
	eventsSheet  = "Ændringer"
	summarySheet = "Oversigt"
)

var eventHeaders = []string{"Dato", "Kategori", "Alvorlighed", "Type", "Titel", "Fra", "Til", "Beskrivelse"}

// Service renders an assembled timeline as an XLSX workbook: one sheet with
// every event, one with per category and per year counts.
type Service struct{}

// NewService creates an export service.
func NewService() *Service {
	return &Service{}
}

// WriteWorkbook streams the workbook for a company's events to w. The
// events are written in the order given, which is the timeline's display
// order.
func (s *Service) WriteWorkbook(w io.Writer, companyName string, cvrNumber int64, events []domain.ChangeEvent) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", eventsSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	if err := s.writeEvents(f, events); err != nil {
		return err
	}
	if err := s.writeSummary(f, companyName, cvrNumber, events); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func (s *Service) writeEvents(f *excelize.File, events []domain.ChangeEvent) error {
	for col, header := range eventHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to compute header cell: %w", err)
		}
		if err := f.SetCellValue(eventsSheet, cell, header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for rowIdx, event := range events {
		values := []any{
			domain.FormatDate(event.Date),
			domain.LabelFor(event.Category),
			string(event.Severity),
			string(event.Kind),
			event.Title,
			event.OldValue,
			event.NewValue,
			event.Description,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err != nil {
				return fmt.Errorf("failed to compute cell: %w", err)
			}
			if err := f.SetCellValue(eventsSheet, cell, value); err != nil {
				return fmt.Errorf("failed to write event row: %w", err)
			}
		}
	}
	return nil
}

func (s *Service) writeSummary(f *excelize.File, companyName string, cvrNumber int64, events []domain.ChangeEvent) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	rows := [][]any{
		{"Virksomhed", companyName},
		{"CVR-nummer", cvrNumber},
		{"Antal ændringer", len(events)},
		{},
		{"Kategori", "Antal"},
	}

	byCategory := map[domain.Category]int{}
	for _, event := range events {
		byCategory[event.Category]++
	}
	categories := make([]domain.Category, 0, len(byCategory))
	for category := range byCategory {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })
	for _, category := range categories {
		rows = append(rows, []any{domain.LabelFor(category), byCategory[category]})
	}

	rows = append(rows, []any{}, []any{"År", "Antal"})
	groups := domain.GroupByYear(events)
	for _, year := range domain.YearKeys(groups) {
		rows = append(rows, []any{year, len(groups[year])})
	}

	for rowIdx, row := range rows {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+1)
			if err != nil {
				return fmt.Errorf("failed to compute summary cell: %w", err)
			}
			if err := f.SetCellValue(summarySheet, cell, value); err != nil {
				return fmt.Errorf("failed to write summary row: %w", err)
			}
		}
	}
	return nil
}
