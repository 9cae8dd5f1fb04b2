package view

import (
	"strings"
	"testing"
	"time"

	"sugarcal/internal/event"
	"sugarcal/internal/store"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func seeded(t *testing.T) *store.Store {
	t.Helper()
	s := store.New()
	s.UpsertRecurring([]event.Instance{
		{
			ID:        event.RecurringID(time.Wednesday, "Bingo Night"),
			Date:      day(2025, time.June, 4),
			Title:     "Bingo Night",
			TimeRange: "7:00 PM - 9:00 PM",
			Origin:    event.OriginRecurring,
		},
	})
	return s
}

func TestRenderMonthShape(t *testing.T) {
	grid := RenderMonth(seeded(t), 2025, time.June, day(2025, time.June, 10))

	if grid.Title != "June 2025" {
		t.Fatalf("title = %q", grid.Title)
	}
	// June 1 2025 is a Sunday.
	if grid.LeadingBlanks != 0 {
		t.Fatalf("leading blanks = %d, want 0", grid.LeadingBlanks)
	}
	if len(grid.Cells) != 30 {
		t.Fatalf("cells = %d, want 30", len(grid.Cells))
	}
	c := grid.Cells[3]
	if c.Day != 4 || c.Key != "2025-06-04" || !c.HasEvents {
		t.Fatalf("June 4 cell = %+v", c)
	}
	if grid.Cells[2].HasEvents {
		t.Fatalf("June 3 should have no events")
	}
	if !grid.Cells[9].IsToday {
		t.Fatalf("June 10 should be marked today")
	}
}

func TestRenderMonthLeadingBlanks(t *testing.T) {
	// July 1 2025 is a Tuesday.
	grid := RenderMonth(store.New(), 2025, time.July, day(2025, time.June, 10))
	if grid.LeadingBlanks != 2 {
		t.Fatalf("leading blanks = %d, want 2", grid.LeadingBlanks)
	}
	if len(grid.Cells) != 31 {
		t.Fatalf("cells = %d, want 31", len(grid.Cells))
	}
	weeks := grid.Weeks()
	if len(weeks) != 5 {
		t.Fatalf("weeks = %d, want 5", len(weeks))
	}
	if weeks[0][0] != nil || weeks[0][2] == nil || weeks[0][2].Day != 1 {
		t.Fatalf("first week layout wrong: %v", weeks[0])
	}
	last := weeks[4]
	if last[6] != nil {
		t.Fatalf("trailing cells should be blank")
	}
}

func TestDateLabel(t *testing.T) {
	today := day(2025, time.June, 3)
	cases := []struct {
		date time.Time
		want string
	}{
		{day(2025, time.June, 3), "Today"},
		{day(2025, time.June, 4), "Tomorrow"},
		{day(2025, time.June, 6), "Fri, Jun 6"},
		{day(2025, time.December, 25), "Thu, Dec 25"},
	}
	for _, tc := range cases {
		if got := DateLabel(tc.date, today); got != tc.want {
			t.Errorf("DateLabel(%s) = %q, want %q", tc.date.Format("2006-01-02"), got, tc.want)
		}
	}
}

func TestRenderUpcomingLabels(t *testing.T) {
	s := seeded(t)
	items := RenderUpcoming(s, day(2025, time.June, 3), 5, 30)
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	if items[0].DateLabel != "Tomorrow" {
		t.Fatalf("label = %q, want Tomorrow", items[0].DateLabel)
	}
	if items[0].IsToday {
		t.Fatalf("June 4 is not today")
	}

	items = RenderUpcoming(s, day(2025, time.June, 4), 5, 30)
	if len(items) != 1 || items[0].DateLabel != "Today" || !items[0].IsToday {
		t.Fatalf("same-day item = %+v", items)
	}
}

func TestRenderDay(t *testing.T) {
	s := seeded(t)

	detail := RenderDay(s, "2025-06-04")
	if detail.Empty {
		t.Fatalf("June 4 should have events")
	}
	if detail.Title != "Wednesday, June 4" {
		t.Fatalf("title = %q", detail.Title)
	}
	if len(detail.Events) != 1 || detail.Events[0].Title != "Bingo Night" {
		t.Fatalf("events = %+v", detail.Events)
	}

	empty := RenderDay(s, "2025-06-05")
	if !empty.Empty || empty.EmptyMessage != NoEventsMessage {
		t.Fatalf("empty detail = %+v", empty)
	}
	if empty.Events == nil {
		t.Fatalf("events slice should be non-nil even when empty")
	}
}

func TestRenderDayBadKeyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on malformed key")
		}
	}()
	RenderDay(store.New(), "not-a-key")
}

func TestPlainMonth(t *testing.T) {
	out := PlainMonth(RenderMonth(seeded(t), 2025, time.June, day(2025, time.June, 10)))
	if !strings.Contains(out, "June 2025") {
		t.Fatalf("missing title:\n%s", out)
	}
	if !strings.Contains(out, "4*") {
		t.Fatalf("event day not marked:\n%s", out)
	}
	if strings.Contains(out, "3*") {
		t.Fatalf("eventless day marked:\n%s", out)
	}
}

func TestPlainUpcomingEmpty(t *testing.T) {
	if got := PlainUpcoming(nil); !strings.Contains(got, NoUpcomingMessage) {
		t.Fatalf("got %q", got)
	}
}

func TestPlainDayEmptyState(t *testing.T) {
	out := PlainDay(RenderDay(store.New(), "2025-06-05"))
	if !strings.Contains(out, NoEventsMessage) {
		t.Fatalf("missing empty state:\n%s", out)
	}
}
