package store

import (
	"testing"
	"time"

	"sugarcal/internal/datekey"
	"sugarcal/internal/event"
)

func day(d int) time.Time {
	return time.Date(2025, time.June, d, 0, 0, 0, 0, time.Local)
}

func recurringBingo(d int) event.Instance {
	return event.Instance{
		ID:        event.RecurringID(time.Wednesday, "Bingo Night"),
		Date:      day(d),
		Title:     "Bingo Night",
		TimeRange: "7:00 PM - 9:00 PM",
		Origin:    event.OriginRecurring,
	}
}

func externalBand(id string, d, hour int) event.Instance {
	start := time.Date(2025, time.June, d, hour, 0, 0, 0, time.Local)
	end := start.Add(2 * time.Hour)
	return event.Instance{
		ID:        id,
		Date:      day(d),
		Title:     "Live Band",
		TimeRange: event.FormatRange(start, end),
		Origin:    event.OriginExternal,
		Start:     &start,
		End:       &end,
	}
}

func TestUpsertRecurringIdempotent(t *testing.T) {
	s := New()
	batch := []event.Instance{recurringBingo(4), recurringBingo(11)}

	s.UpsertRecurring(batch)
	s.UpsertRecurring(batch)

	for _, d := range []int{4, 11} {
		got := s.Get(day(d))
		if len(got) != 1 {
			t.Fatalf("date %d has %d entries after double upsert, want 1", d, len(got))
		}
	}
	if s.Len() != 2 {
		t.Fatalf("store has %d dates, want 2", s.Len())
	}
}

func TestReplaceExternalForWindowNoDuplication(t *testing.T) {
	s := New()
	start, end := day(1), day(30)
	batch := []event.Instance{externalBand("band-1", 7, 21)}

	s.ReplaceExternalForWindow(start, end, batch)
	s.ReplaceExternalForWindow(start, end, batch)

	got := s.Get(day(7))
	if len(got) != 1 {
		t.Fatalf("date has %d entries after double replace, want 1", len(got))
	}
	if got[0].Title != "Live Band" {
		t.Fatalf("unexpected entry %q", got[0].Title)
	}
}

func TestReplaceExternalPreservesRecurring(t *testing.T) {
	s := New()
	s.UpsertRecurring([]event.Instance{recurringBingo(4)})
	s.ReplaceExternalForWindow(day(1), day(30), []event.Instance{externalBand("b1", 4, 21)})

	// A refetch returning nothing must clear externals but keep the
	// recurring entry.
	s.ReplaceExternalForWindow(day(1), day(30), nil)

	got := s.Get(day(4))
	if len(got) != 1 || got[0].Origin != event.OriginRecurring {
		t.Fatalf("expected only the recurring entry, got %v", got)
	}
}

func TestReplaceExternalScopedToWindow(t *testing.T) {
	s := New()
	s.ReplaceExternalForWindow(day(1), day(30), []event.Instance{externalBand("june", 7, 21)})

	// A later replace for July must not disturb June's data.
	july := time.Date(2025, time.July, 1, 0, 0, 0, 0, time.Local)
	julyEnd := time.Date(2025, time.July, 31, 0, 0, 0, 0, time.Local)
	s.ReplaceExternalForWindow(july, julyEnd, nil)

	if got := s.Get(day(7)); len(got) != 1 {
		t.Fatalf("June entry lost by July replace: %d entries", len(got))
	}
}

func TestReplaceExternalDropsOutOfWindowInput(t *testing.T) {
	s := New()
	s.ReplaceExternalForWindow(day(1), day(15), []event.Instance{externalBand("late", 20, 21)})
	if s.HasEvents(datekey.ToKey(day(20))) {
		t.Fatal("instance outside the replace window was inserted")
	}
}

func TestGetOrderingRecurringBeforeExternal(t *testing.T) {
	s := New()
	s.ReplaceExternalForWindow(day(1), day(30), []event.Instance{
		externalBand("late", 4, 22),
		externalBand("early", 4, 18),
	})
	s.UpsertRecurring([]event.Instance{recurringBingo(4)})

	got := s.Get(day(4))
	if len(got) != 3 {
		t.Fatalf("got %d entries, want 3", len(got))
	}
	if got[0].Origin != event.OriginRecurring {
		t.Fatalf("first entry origin = %q, want recurring", got[0].Origin)
	}
	if got[1].ID != "early" || got[2].ID != "late" {
		t.Fatalf("external entries not ordered by start: %q, %q", got[1].ID, got[2].ID)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	s := New()
	s.UpsertRecurring([]event.Instance{recurringBingo(4)})

	got := s.Get(day(4))
	got[0].Title = "mutated"

	if fresh := s.Get(day(4)); fresh[0].Title != "Bingo Night" {
		t.Fatal("Get returned a mutable alias of store state")
	}
}

func TestGetEmptyDate(t *testing.T) {
	s := New()
	if got := s.Get(day(1)); got == nil || len(got) != 0 {
		t.Fatalf("empty date returned %v", got)
	}
}

func TestUpcomingRespectsLookahead(t *testing.T) {
	s := New()
	today := day(1)
	s.ReplaceExternalForWindow(day(1), day(30), []event.Instance{
		externalBand("ten-out", 11, 21), // 10 days ahead
	})
	far := time.Date(2025, time.July, 11, 0, 0, 0, 0, time.Local) // 40 days ahead
	s.ReplaceExternalForWindow(far, far, []event.Instance{{
		ID: "forty-out", Date: far, Title: "Far Event", Origin: event.OriginExternal,
	}})

	got := s.Upcoming(today, 2, 30)
	if len(got) != 1 {
		t.Fatalf("Upcoming returned %d events, want 1", len(got))
	}
	if got[0].ID != "ten-out" {
		t.Fatalf("Upcoming returned %q", got[0].ID)
	}
}

func TestUpcomingStopsAtLimit(t *testing.T) {
	s := New()
	s.UpsertRecurring([]event.Instance{recurringBingo(4), recurringBingo(11), recurringBingo(18)})

	got := s.Upcoming(day(1), 2, 30)
	if len(got) != 2 {
		t.Fatalf("Upcoming returned %d events, want 2", len(got))
	}
}

func TestUpcomingCarriesResolvedDate(t *testing.T) {
	s := New()
	s.UpsertRecurring([]event.Instance{recurringBingo(11)})

	got := s.Upcoming(day(1), 1, 30)
	if len(got) != 1 {
		t.Fatalf("Upcoming returned %d events", len(got))
	}
	if !datekey.SameDay(got[0].Date, day(11)) {
		t.Fatalf("resolved date = %v, want June 11", got[0].Date)
	}
}
