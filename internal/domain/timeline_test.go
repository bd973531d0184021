package domain

import (
	"reflect"
	"testing"
)

const sampleCompanyJSON = `{
	"cvrNummer": 12345678,
	"navne": [
		{"navn": "Acme ApS", "periode": {"gyldigFra": "2018-01-01", "gyldigTil": "2021-06-01"}},
		{"navn": "Acme A/S", "periode": {"gyldigFra": "2021-06-01", "gyldigTil": null}}
	],
	"beliggenhedsadresse": [
		{"vejnavn": "Gammel Vej", "husnummerFra": 1, "postnummer": 8000, "postdistrikt": "Aarhus C", "periode": {"gyldigFra": "2018-01-01", "gyldigTil": "2020-02-01"}},
		{"vejnavn": "Ny Allé", "husnummerFra": 7, "postnummer": 8200, "postdistrikt": "Aarhus N", "periode": {"gyldigFra": "2020-02-01", "gyldigTil": null}}
	],
	"virksomhedsstatus": [
		{"status": "NORMAL", "periode": {"gyldigFra": "2018-01-01", "gyldigTil": "2023-04-01"}},
		{"status": "UNDER KONKURS", "periode": {"gyldigFra": "2023-04-01", "gyldigTil": null}}
	],
	"hovedbranche": [
		{"branchekode": "620100", "branchetekst": "Computerprogrammering", "periode": {"gyldigFra": "2018-01-01", "gyldigTil": null}}
	],
	"deltagerRelation": [
		{
			"deltager": {"enhedsNummer": 1, "enhedstype": "PERSON", "navne": [{"navn": "Jens Jensen", "periode": {"gyldigFra": "2018-01-01"}}]},
			"organisationer": [
				{
					"hovedtype": "LEDELSESORGAN",
					"organisationsNavn": [{"navn": "Direktion", "periode": {"gyldigFra": "2018-01-01"}}],
					"medlemsData": [{"attributter": [{"type": "FUNKTION", "vaerdier": [
						{"vaerdi": "DIREKTØR", "periode": {"gyldigFra": "2022-03-01", "gyldigTil": null}}
					]}]}]
				}
			]
		}
	]
}`

func sampleTimeline(t *testing.T) Timeline {
	t.Helper()
	return BuildTimeline(decodeCompany(t, sampleCompanyJSON), nil)
}

func TestBuildTimelineDeterminism(t *testing.T) {
	first := sampleTimeline(t)
	second := sampleTimeline(t)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated builds over the same payload must be deep equal")
	}
	if !reflect.DeepEqual(GroupByYear(first.Events), GroupByYear(second.Events)) {
		t.Fatalf("grouped views must be deep equal across builds")
	}
}

func TestBuildTimelineSortsDescendingWithStableTieBreak(t *testing.T) {
	timeline := sampleTimeline(t)
	events := timeline.Events
	if len(events) == 0 {
		t.Fatal("expected events from the sample payload")
	}
	for i := 1; i < len(events); i++ {
		prev, curr := events[i-1], events[i]
		if prev.Date.Before(curr.Date) {
			t.Fatalf("events out of order at %d: %s before %s", i, prev.Date, curr.Date)
		}
		if prev.Date.Equal(curr.Date) && prev.Category > curr.Category {
			t.Fatalf("tie-break violated at %d: %s after %s", i, prev.Category, curr.Category)
		}
	}
}

func TestBuildTimelineNilPayload(t *testing.T) {
	timeline := BuildTimeline(nil, nil)
	if len(timeline.Events) != 0 {
		t.Fatalf("nil payload must yield an empty timeline, got %d events", len(timeline.Events))
	}
	if timeline.ExcludedCount != 0 {
		t.Fatalf("nil payload must not count exclusions, got %d", timeline.ExcludedCount)
	}
}

func TestBuildTimelineNameChangeScenario(t *testing.T) {
	company := decodeCompany(t, `{
		"navne": [
			{"navn": "Acme ApS", "periode": {"gyldigFra": "2018-01-01", "gyldigTil": "2021-06-01"}},
			{"navn": "Acme A/S", "periode": {"gyldigFra": "2021-06-01", "gyldigTil": null}}
		]
	}`)

	timeline := BuildTimeline(company, nil)
	if len(timeline.Events) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(timeline.Events))
	}
	event := timeline.Events[0]
	if event.Category != CategoryName {
		t.Errorf("expected name category, got %s", event.Category)
	}
	if got := FormatDate(event.Date); got != "2021-06-01" {
		t.Errorf("expected date 2021-06-01, got %s", got)
	}
	if event.OldValue != "Acme ApS" || event.NewValue != "Acme A/S" {
		t.Errorf("unexpected values: old=%q new=%q", event.OldValue, event.NewValue)
	}
	if event.Severity != SeverityMedium {
		t.Errorf("name changes are medium severity, got %s", event.Severity)
	}
}

func TestBuildTimelineMissingCategories(t *testing.T) {
	company := decodeCompany(t, `{
		"navne": [
			{"navn": "Solo ApS", "periode": {"gyldigFra": "2019-01-01", "gyldigTil": "2020-01-01"}},
			{"navn": "Solo A/S", "periode": {"gyldigFra": "2020-01-01", "gyldigTil": null}}
		]
	}`)

	timeline := BuildTimeline(company, nil)
	for _, event := range timeline.Events {
		if event.Category != CategoryName {
			t.Fatalf("no events may be fabricated for absent categories, got %s", event.Category)
		}
	}
	if len(timeline.Events) != 1 {
		t.Fatalf("expected one name event, got %d", len(timeline.Events))
	}
}

func TestBuildTimelineAppointmentScenario(t *testing.T) {
	timeline := sampleTimeline(t)

	var appointed *ChangeEvent
	for i := range timeline.Events {
		if timeline.Events[i].Kind == KindAppointed {
			appointed = &timeline.Events[i]
			break
		}
	}
	if appointed == nil {
		t.Fatal("expected an appointment event")
	}
	if appointed.Category != CategoryManagement {
		t.Errorf("expected management category, got %s", appointed.Category)
	}
	if got := FormatDate(appointed.Date); got != "2022-03-01" {
		t.Errorf("expected appointment date 2022-03-01, got %s", got)
	}
	if appointed.OldValue != "" {
		t.Errorf("appointment must have no old value, got %q", appointed.OldValue)
	}
	if appointed.Metadata["person"] != "Jens Jensen" {
		t.Errorf("expected person metadata, got %v", appointed.Metadata)
	}
}

func TestBuildTimelineAmbiguousDateExclusion(t *testing.T) {
	company := decodeCompany(t, `{
		"navne": [
			{"navn": "First", "periode": {"gyldigFra": null, "gyldigTil": null}},
			{"navn": "Second", "periode": {"gyldigFra": null, "gyldigTil": null}}
		],
		"virksomhedsstatus": [
			{"status": "NORMAL", "periode": {"gyldigFra": "2018-01-01", "gyldigTil": "2023-04-01"}},
			{"status": "OPLØST", "periode": {"gyldigFra": "2023-04-01", "gyldigTil": null}}
		]
	}`)

	timeline := BuildTimeline(company, nil)
	if timeline.ExcludedCount != 1 {
		t.Fatalf("expected one excluded transition, got %d", timeline.ExcludedCount)
	}
	if len(timeline.Events) != 1 || timeline.Events[0].Category != CategoryStatus {
		t.Fatalf("status events must be unaffected by the exclusion, got %+v", timeline.Events)
	}
}

func TestGroupByYearRoundTrip(t *testing.T) {
	timeline := sampleTimeline(t)
	groups := GroupByYear(timeline.Events)

	var flattened []ChangeEvent
	for _, year := range YearKeys(groups) {
		flattened = append(flattened, groups[year]...)
	}

	if !reflect.DeepEqual(flattened, timeline.Events) {
		t.Fatalf("flattening year buckets in descending order must reproduce the flat list")
	}
}

func TestYearKeysSortedDescending(t *testing.T) {
	timeline := sampleTimeline(t)
	keys := YearKeys(GroupByYear(timeline.Events))
	for i := 1; i < len(keys); i++ {
		if keys[i-1] < keys[i] {
			t.Fatalf("year keys not descending: %v", keys)
		}
	}
}

func TestFilterEventsIdempotence(t *testing.T) {
	timeline := sampleTimeline(t)
	filters := TimelineFilters{
		CategoryName:    true,
		CategoryAddress: false,
		CategoryStatus:  true,
	}

	once := FilterEvents(timeline.Events, filters)
	twice := FilterEvents(once, filters)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("filtering twice must equal filtering once")
	}
}

func TestFilterEventsPreservesOrder(t *testing.T) {
	timeline := sampleTimeline(t)
	filtered := FilterEvents(timeline.Events, TimelineFilters{CategoryAddress: false})

	index := 0
	for _, event := range timeline.Events {
		if event.Category == CategoryAddress {
			continue
		}
		if !reflect.DeepEqual(filtered[index], event) {
			t.Fatalf("filter must preserve relative order at %d", index)
		}
		index++
	}
	if index != len(filtered) {
		t.Fatalf("filtered list has %d extra events", len(filtered)-index)
	}
}

func TestFilterGroupComposability(t *testing.T) {
	timeline := sampleTimeline(t)
	filters := TimelineFilters{CategoryManagement: false, CategoryStatus: false}

	filterThenGroup := GroupByYear(FilterEvents(timeline.Events, filters))
	groupThenFilter := FilterGrouped(GroupByYear(timeline.Events), filters)

	if !reflect.DeepEqual(filterThenGroup, groupThenFilter) {
		t.Fatalf("filter-then-group must equal group-then-filter-per-bucket")
	}
}

func TestNilFiltersShowEverything(t *testing.T) {
	timeline := sampleTimeline(t)
	filtered := FilterEvents(timeline.Events, nil)
	if !reflect.DeepEqual(filtered, timeline.Events) {
		t.Fatalf("nil filters must show all events")
	}
}

func TestEventIDsAreUnique(t *testing.T) {
	timeline := sampleTimeline(t)
	seen := map[string]bool{}
	for _, event := range timeline.Events {
		if seen[event.ID] {
			t.Fatalf("duplicate event id %s", event.ID)
		}
		seen[event.ID] = true
	}
}
