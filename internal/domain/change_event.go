package domain

import "time"

// ChangeEvent is the reconstructed unit of company history: one transition
// in one category, dated by when the new value took hold. Events are plain
// serializable data with no references back into the raw payload.
type ChangeEvent struct {
	ID          string            `json:"id"`
	Category    Category          `json:"category"`
	Kind        EventKind         `json:"kind"`
	Severity    Severity          `json:"severity"`
	Date        time.Time         `json:"date"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	OldValue    string            `json:"oldValue,omitempty"`
	NewValue    string            `json:"newValue,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Year returns the calendar year bucket key for the event.
func (e ChangeEvent) Year() string {
	return e.Date.Format("2006")
}

// TimelineFilters maps each category to a show flag. A missing key means
// the category is shown, so the zero value shows everything.
type TimelineFilters map[Category]bool

// DefaultFilters returns a filter set with every category enabled.
func DefaultFilters() TimelineFilters {
	filters := make(TimelineFilters, len(AllCategories))
	for _, category := range AllCategories {
		filters[category] = true
	}
	return filters
}

// Show reports whether events of the category pass the filter.
func (f TimelineFilters) Show(category Category) bool {
	if f == nil {
		return true
	}
	show, ok := f[category]
	if !ok {
		return true
	}
	return show
}
