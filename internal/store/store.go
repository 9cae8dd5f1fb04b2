// Package store holds the in-memory date-key to event-list mapping and
// enforces its ordering and dedup invariants. It is the sole mutator
// of that mapping; everything handed out is a defensive copy.
package store

import (
	"sort"
	"time"

	"sugarcal/internal/datekey"
	"sugarcal/internal/event"
)

// Store maps YYYY-MM-DD keys to ordered event lists. Dates with no
// events carry no entry at all.
type Store struct {
	byDate map[string][]event.Instance
}

func New() *Store {
	return &Store{byDate: make(map[string][]event.Instance)}
}

// UpsertRecurring inserts recurring instances, skipping any whose
// (origin, id) pair already exists on their date. Calling it twice
// with the same input leaves the store unchanged.
func (s *Store) UpsertRecurring(events []event.Instance) {
	touched := make(map[string]bool)
	for _, in := range events {
		if in.Origin != event.OriginRecurring {
			continue
		}
		key := datekey.ToKey(in.Date)
		if s.contains(key, in) {
			continue
		}
		s.byDate[key] = append(s.byDate[key], in.Clone())
		touched[key] = true
	}
	for key := range touched {
		s.sortDay(key)
	}
}

// ReplaceExternalForWindow removes every external entry dated inside
// [start, end] and inserts the given instances. The full replace,
// scoped to the window, is what keeps refetches from accumulating
// duplicates.
func (s *Store) ReplaceExternalForWindow(start, end time.Time, events []event.Instance) {
	startKey := datekey.ToKey(start)
	endKey := datekey.ToKey(end)

	for key, list := range s.byDate {
		if key < startKey || key > endKey {
			continue
		}
		kept := list[:0]
		for _, in := range list {
			if in.Origin != event.OriginExternal {
				kept = append(kept, in)
			}
		}
		if len(kept) == 0 {
			delete(s.byDate, key)
		} else {
			s.byDate[key] = kept
		}
	}

	touched := make(map[string]bool)
	for _, in := range events {
		if in.Origin != event.OriginExternal {
			continue
		}
		key := datekey.ToKey(in.Date)
		if key < startKey || key > endKey {
			continue
		}
		s.byDate[key] = append(s.byDate[key], in.Clone())
		touched[key] = true
	}
	for key := range touched {
		s.sortDay(key)
	}
}

// Get returns a copy of the event list for a date; never nil aliasing
// internal state.
func (s *Store) Get(date time.Time) []event.Instance {
	return s.GetByKey(datekey.ToKey(date))
}

// GetByKey is Get addressed by a date key.
func (s *Store) GetByKey(key string) []event.Instance {
	list := s.byDate[key]
	if len(list) == 0 {
		return []event.Instance{}
	}
	out := make([]event.Instance, len(list))
	for i, in := range list {
		out[i] = in.Clone()
	}
	return out
}

// HasEvents reports whether any events exist on the keyed date.
func (s *Store) HasEvents(key string) bool {
	return len(s.byDate[key]) > 0
}

// Len returns the number of dates carrying at least one event.
func (s *Store) Len() int {
	return len(s.byDate)
}

// ExternalByDate returns a copy of all external entries grouped by
// date key, the shape the cache persists.
func (s *Store) ExternalByDate() map[string][]event.Instance {
	out := make(map[string][]event.Instance)
	for key, list := range s.byDate {
		for _, in := range list {
			if in.Origin == event.OriginExternal {
				out[key] = append(out[key], in.Clone())
			}
		}
	}
	return out
}

// Upcoming scans forward day by day from `from`, flattening each day's
// events in store order, until `limit` results are collected or the
// lookahead is exhausted. Each returned instance carries its resolved
// date.
func (s *Store) Upcoming(from time.Time, limit, maxLookaheadDays int) []event.Instance {
	out := make([]event.Instance, 0, limit)
	for ahead := 0; ahead < maxLookaheadDays && len(out) < limit; ahead++ {
		day := from.AddDate(0, 0, ahead)
		for _, in := range s.byDate[datekey.ToKey(day)] {
			if len(out) >= limit {
				break
			}
			out = append(out, in.Clone())
		}
	}
	return out
}

func (s *Store) contains(key string, candidate event.Instance) bool {
	for _, in := range s.byDate[key] {
		if in.Origin == candidate.Origin && in.ID == candidate.ID {
			return true
		}
	}
	return false
}

func (s *Store) sortDay(key string) {
	list := s.byDate[key]
	sort.SliceStable(list, func(i, j int) bool {
		return event.Less(list[i], list[j])
	})
}
