package domain

import (
	"sort"
	"strings"
	"time"
)

// Period is a validity interval from the registry. A nil ValidFrom means the
// start is unknown; a nil ValidTo means the value is still in effect.
type Period struct {
	ValidFrom *time.Time
	ValidTo   *time.Time
}

// Open reports whether the period has no recorded end.
func (p Period) Open() bool {
	return p.ValidTo == nil
}

// PeriodValue pairs a value with the interval during which it applied.
type PeriodValue[T any] struct {
	Value  T
	Period Period
}

// History is an ordered sequence of period stamped values for one category.
// Entries sort ascending by ValidFrom; an unknown ValidFrom sorts first.
type History[T any] []PeriodValue[T]

// SortHistory orders entries ascending by ValidFrom. Entries with an unknown
// start are treated as earliest. The sort is stable so records that share a
// start date keep their payload order.
func SortHistory[T any](history History[T]) History[T] {
	sorted := make(History[T], len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Period.ValidFrom, sorted[j].Period.ValidFrom
		switch {
		case a == nil && b == nil:
			return false
		case a == nil:
			return true
		case b == nil:
			return false
		default:
			return a.Before(*b)
		}
	})
	return sorted
}

// registry dates arrive as plain dates, occasionally with a time component
var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"}

// ParseRegistryDate converts a registry date string to a time. Empty, "null"
// and unparsable strings yield nil, which downstream stages treat as unknown.
func ParseRegistryDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "null") {
		return nil
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			normalized := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
			return &normalized
		}
	}
	return nil
}

// ParsePeriod converts the registry's periode object into a Period.
func ParsePeriod(raw RawPeriod) Period {
	return Period{
		ValidFrom: ParseRegistryDate(raw.GyldigFra),
		ValidTo:   ParseRegistryDate(raw.GyldigTil),
	}
}

// FormatDate renders a date in the registry's own YYYY-MM-DD form.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
