package domain

import "time"

// Transition is one detected value substitution in a history.
type Transition[T any] struct {
	Date time.Time
	Old  T
	New  T
}

// ExtractResult carries the detected transitions plus the count of
// transitions that had to be excluded because no date could be determined.
// The count makes data quality problems observable without logging from
// inside the pure pipeline.
type ExtractResult[T any] struct {
	Transitions []Transition[T]
	Excluded    int
}

// ExtractChanges walks a sorted history and emits one transition per
// adjacent pair of distinct values. Re-published identical values are
// deduplicated by value equality, not adjacency. The event date is the new
// entry's ValidFrom, falling back to the prior entry's ValidTo; when both
// are unknown the transition is excluded and counted.
//
// A history with zero or one entries yields no transitions: the first
// recorded value is an origination, not a change.
func ExtractChanges[T any](history History[T], equal func(a, b T) bool) ExtractResult[T] {
	var result ExtractResult[T]
	if len(history) < 2 {
		return result
	}
	current := history[0]
	for _, next := range history[1:] {
		if equal(current.Value, next.Value) {
			// duplicate record; the later end date supersedes the earlier
			// one, including an open end, so a re-publish that is still in
			// force never donates a stale fallback date
			current.Period.ValidTo = next.Period.ValidTo
			continue
		}
		date := next.Period.ValidFrom
		if date == nil {
			date = current.Period.ValidTo
		}
		if date == nil {
			result.Excluded++
			current = next
			continue
		}
		result.Transitions = append(result.Transitions, Transition[T]{
			Date: *date,
			Old:  current.Value,
			New:  next.Value,
		})
		current = next
	}
	return result
}

// TenureEvent is one appearance, change or departure in a role holder's
// history. Appearances and departures have no counterpart value.
type TenureEvent struct {
	Kind  EventKind
	Date  time.Time
	Old   string
	New   string
	Value string
}

// TenureResult carries a holder's events and the excluded count.
type TenureResult struct {
	Events   []TenureEvent
	Excluded int
}

// ExtractTenure derives events from one role holder's value history. The
// first recorded period is an appointment, value substitutions across
// touching periods are changes, a gap between periods is a departure
// followed by a fresh appointment, and a closed final period is a
// departure. This is the one place where a first appearance is itself an
// event: a new director or owner entering the register is a change to the
// company even though there is no prior holder to diff against.
func ExtractTenure(values History[string]) TenureResult {
	var result TenureResult
	if len(values) == 0 {
		return result
	}

	appoint := func(entry PeriodValue[string]) {
		if entry.Period.ValidFrom != nil {
			result.Events = append(result.Events, TenureEvent{
				Kind:  KindAppointed,
				Date:  *entry.Period.ValidFrom,
				Value: entry.Value,
			})
		} else {
			result.Excluded++
		}
	}

	current := values[0]
	appoint(current)

	for _, next := range values[1:] {
		// a known start after the prior period closed is a gap in the
		// register: the holder left and came back, so both ends are
		// events. An open prior period always touches, so ValidTo is set
		// here.
		if next.Period.ValidFrom != nil && !periodsTouch(current.Period, next.Period) {
			result.Events = append(result.Events, TenureEvent{
				Kind:  KindDeparted,
				Date:  *current.Period.ValidTo,
				Value: current.Value,
			})
			appoint(next)
			current = next
			continue
		}

		if current.Value == next.Value {
			current.Period.ValidTo = next.Period.ValidTo
			continue
		}

		date := next.Period.ValidFrom
		if date == nil {
			date = current.Period.ValidTo
		}
		if date == nil {
			result.Excluded++
		} else {
			result.Events = append(result.Events, TenureEvent{
				Kind:  KindChanged,
				Date:  *date,
				Old:   current.Value,
				New:   next.Value,
				Value: next.Value,
			})
		}
		current = next
	}

	if current.Period.ValidTo != nil {
		result.Events = append(result.Events, TenureEvent{
			Kind:  KindDeparted,
			Date:  *current.Period.ValidTo,
			Value: current.Value,
		})
	}

	return result
}
