package domain

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Timeline is the assembled change history for one company: the flat event
// list sorted most recent first, plus the count of transitions excluded
// because their date could not be determined.
type Timeline struct {
	Events        []ChangeEvent `json:"events"`
	ExcludedCount int           `json:"excludedCount"`
}

// BuildTimeline reconstructs the full change history from a raw registry
// payload and an optional financial companion feed. A nil payload yields an
// empty timeline, never an error; the caller distinguishes "no data" from
// "fetch failed" with its own signal.
//
// The result is deterministic: events sort descending by date, ties break
// on category name ascending and then on per-category extraction order.
func BuildTimeline(c *CompanyData, reports FinancialHistory) Timeline {
	b := &timelineBuilder{ids: map[string]int{}}

	b.stringCategory(CategoryName, NameHistory(c), "Navneændring",
		func(t Transition[string]) string {
			return fmt.Sprintf("Virksomheden skiftede navn fra %q til %q", t.Old, t.New)
		}, nil)

	b.addressEvents(AddressHistory(c))

	b.stringCategory(CategoryStatus, StatusHistory(c), "Statusændring",
		func(t Transition[string]) string {
			return fmt.Sprintf("Status ændret fra %s til %s", t.Old, t.New)
		}, nil)

	b.stringCategory(CategoryLegal, LegalFormHistory(c), "Ændring af virksomhedsform",
		func(t Transition[string]) string {
			return fmt.Sprintf("Virksomhedsform ændret fra %s til %s", t.Old, t.New)
		}, nil)

	b.industryEvents(IndustryHistory(c))
	b.capitalEvents(CapitalHistory(c))

	b.stringCategory(CategoryPurpose, PurposeHistory(c), "Nyt formål",
		func(t Transition[string]) string {
			return fmt.Sprintf("Virksomhedens formål blev ændret til: %s", t.New)
		}, nil)

	for _, channel := range ContactHistories(c) {
		b.stringCategory(CategoryContact, channel.History, "Nye kontaktoplysninger",
			func(t Transition[string]) string {
				return fmt.Sprintf("Kontaktoplysning ændret fra %s til %s", t.Old, t.New)
			}, map[string]string{"kanal": channel.Name})
	}

	for _, holder := range RoleHolders(c) {
		b.tenureEvents(holder)
	}

	b.financialEvents(FinancialFigureHistory(reports))

	sort.SliceStable(b.events, func(i, j int) bool {
		a, z := b.events[i], b.events[j]
		if !a.Date.Equal(z.Date) {
			return a.Date.After(z.Date)
		}
		return a.Category < z.Category
	})

	return Timeline{Events: b.events, ExcludedCount: b.excluded}
}

// GroupByYear buckets events by calendar year. Each bucket keeps the flat
// list's descending order, so re-flattening the buckets in descending year
// order reproduces the flat list exactly.
func GroupByYear(events []ChangeEvent) map[string][]ChangeEvent {
	groups := make(map[string][]ChangeEvent)
	for _, event := range events {
		year := event.Year()
		groups[year] = append(groups[year], event)
	}
	return groups
}

// YearKeys returns the year bucket keys sorted descending.
func YearKeys(groups map[string][]ChangeEvent) []string {
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys
}

// FilterEvents returns the subsequence of events whose category passes the
// filter, preserving relative order. Filtering is idempotent.
func FilterEvents(events []ChangeEvent, filters TimelineFilters) []ChangeEvent {
	filtered := make([]ChangeEvent, 0, len(events))
	for _, event := range events {
		if filters.Show(event.Category) {
			filtered = append(filtered, event)
		}
	}
	return filtered
}

// FilterGrouped applies the filter inside each year bucket and drops buckets
// that end up empty, so filter-then-group equals group-then-filter.
func FilterGrouped(groups map[string][]ChangeEvent, filters TimelineFilters) map[string][]ChangeEvent {
	filtered := make(map[string][]ChangeEvent, len(groups))
	for year, events := range groups {
		kept := FilterEvents(events, filters)
		if len(kept) > 0 {
			filtered[year] = kept
		}
	}
	return filtered
}

type timelineBuilder struct {
	events   []ChangeEvent
	excluded int
	ids      map[string]int
}

func (b *timelineBuilder) add(category Category, kind EventKind, date time.Time, title, description, oldValue, newValue string, metadata map[string]string) {
	key := string(category) + "-" + FormatDate(date)
	index := b.ids[key]
	b.ids[key] = index + 1
	b.events = append(b.events, ChangeEvent{
		ID:          fmt.Sprintf("%s-%d", key, index),
		Category:    category,
		Kind:        kind,
		Severity:    SeverityFor(category),
		Date:        date,
		Title:       title,
		Description: description,
		OldValue:    oldValue,
		NewValue:    newValue,
		Metadata:    metadata,
	})
}

func (b *timelineBuilder) stringCategory(category Category, history History[string], title string, describe func(Transition[string]) string, metadata map[string]string) {
	result := ExtractChanges(history, func(a, b string) bool { return a == b })
	b.excluded += result.Excluded
	for _, transition := range result.Transitions {
		b.add(category, KindChanged, transition.Date, title, describe(transition), transition.Old, transition.New, metadata)
	}
}

func (b *timelineBuilder) addressEvents(history History[Address]) {
	result := ExtractChanges(history, Address.Equal)
	b.excluded += result.Excluded
	for _, transition := range result.Transitions {
		b.add(CategoryAddress, KindChanged, transition.Date, "Adresseændring",
			fmt.Sprintf("Virksomheden flyttede fra %s til %s", transition.Old, transition.New),
			transition.Old.String(), transition.New.String(), nil)
	}
}

func (b *timelineBuilder) industryEvents(history History[Industry]) {
	result := ExtractChanges(history, Industry.Equal)
	b.excluded += result.Excluded
	for _, transition := range result.Transitions {
		b.add(CategoryIndustry, KindChanged, transition.Date, "Brancheskift",
			fmt.Sprintf("Hovedbranche ændret fra %s til %s", transition.Old, transition.New),
			transition.Old.String(), transition.New.String(),
			map[string]string{"branchekode": transition.New.Code})
	}
}

func (b *timelineBuilder) capitalEvents(history History[CapitalAmount]) {
	result := ExtractChanges(history, CapitalAmount.Equal)
	b.excluded += result.Excluded
	for _, transition := range result.Transitions {
		title := "Kapitalforhøjelse"
		if transition.New.Amount < transition.Old.Amount {
			title = "Kapitalnedsættelse"
		}
		b.add(CategoryCapital, KindChanged, transition.Date, title,
			fmt.Sprintf("Selskabskapitalen blev ændret fra %s til %s", transition.Old, transition.New),
			transition.Old.String(), transition.New.String(), nil)
	}
}

func (b *timelineBuilder) tenureEvents(holder RoleHolder) {
	result := ExtractTenure(holder.Values)
	b.excluded += result.Excluded

	organ := LabelFor(holder.Category)
	metadata := map[string]string{"person": holder.PersonName}
	if holder.OrganName != "" {
		metadata["organ"] = holder.OrganName
	}

	for _, event := range result.Events {
		switch {
		case event.Kind == KindAppointed && holder.Category == CategoryOwnership:
			b.add(holder.Category, KindAppointed, event.Date, "Ny ejer",
				fmt.Sprintf("%s indtrådte i ejerkredsen med %s", holder.PersonName, formatShare(event.Value)),
				"", event.Value, cloneMeta(metadata))
		case event.Kind == KindAppointed:
			b.add(holder.Category, KindAppointed, event.Date, fmt.Sprintf("Tiltrædelse i %s", organ),
				fmt.Sprintf("%s tiltrådte som %s", holder.PersonName, event.Value),
				"", event.Value, cloneMeta(metadata))
		case event.Kind == KindDeparted && holder.Category == CategoryOwnership:
			b.add(holder.Category, KindDeparted, event.Date, "Ejer udtrådt",
				fmt.Sprintf("%s udtrådte af ejerkredsen", holder.PersonName),
				event.Value, "", cloneMeta(metadata))
		case event.Kind == KindDeparted:
			b.add(holder.Category, KindDeparted, event.Date, fmt.Sprintf("Fratrædelse i %s", organ),
				fmt.Sprintf("%s fratrådte som %s", holder.PersonName, event.Value),
				event.Value, "", cloneMeta(metadata))
		case holder.Category == CategoryOwnership:
			b.add(holder.Category, KindChanged, event.Date, "Ændret ejerandel",
				fmt.Sprintf("%s ændrede ejerandel fra %s til %s", holder.PersonName, formatShare(event.Old), formatShare(event.New)),
				event.Old, event.New, cloneMeta(metadata))
		default:
			b.add(holder.Category, KindChanged, event.Date, "Funktionsændring",
				fmt.Sprintf("%s skiftede funktion fra %s til %s", holder.PersonName, event.Old, event.New),
				event.Old, event.New, cloneMeta(metadata))
		}
	}
}

func (b *timelineBuilder) financialEvents(history History[FinancialFigures]) {
	result := ExtractChanges(history, FinancialFigures.Equal)
	b.excluded += result.Excluded
	for _, transition := range result.Transitions {
		metadata := map[string]string{"periode": transition.New.Period}
		if transition.New.NetResult != nil {
			metadata["aaretsResultat"] = strconv.FormatFloat(*transition.New.NetResult, 'f', 2, 64)
		}
		if transition.New.Equity != nil {
			metadata["egenkapital"] = strconv.FormatFloat(*transition.New.Equity, 'f', 2, 64)
		}
		b.add(CategoryFinancial, KindChanged, transition.Date, "Nyt regnskab",
			fmt.Sprintf("Årsrapport for %s blev offentliggjort", transition.New.Period),
			transition.Old.Period, transition.New.Period, metadata)
	}
}

func formatShare(raw string) string {
	if raw == "" {
		return "ukendt andel"
	}
	if value, err := strconv.ParseFloat(raw, 64); err == nil && value <= 1 {
		return fmt.Sprintf("%.1f%%", value*100)
	}
	return raw + "%"
}

func cloneMeta(metadata map[string]string) map[string]string {
	clone := make(map[string]string, len(metadata))
	for key, value := range metadata {
		clone[key] = value
	}
	return clone
}
