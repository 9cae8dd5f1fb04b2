// Package view projects EventStore contents into renderable shapes: a
// month grid, an upcoming-events list and a day-detail panel. It owns
// no event data and never mutates the store.
package view

import (
	"fmt"
	"time"

	"sugarcal/internal/datekey"
	"sugarcal/internal/event"
	"sugarcal/internal/store"
)

// User-visible fallback copy. The grid and lists must always render
// something; these fill the zero-events and total-failure cases.
const (
	NoEventsMessage   = "No events scheduled for this date"
	NoUpcomingMessage = "No upcoming events scheduled"
	LoadFailedMessage = "Unable to load calendar events. Please try again later."
)

// Cell is one day of the month grid.
type Cell struct {
	Day       int
	Key       string
	HasEvents bool
	IsToday   bool
}

// MonthGrid is a 7-column month layout: LeadingBlanks empty cells for
// the offset before the first weekday (Sunday-first), then one Cell
// per day of the month.
type MonthGrid struct {
	Year          int
	Month         time.Month
	Title         string
	LeadingBlanks int
	Cells         []Cell
}

// Weeks lays the grid out into rows of seven; blank leading and
// trailing positions are nil.
func (g MonthGrid) Weeks() [][]*Cell {
	var weeks [][]*Cell
	row := make([]*Cell, 0, 7)
	for i := 0; i < g.LeadingBlanks; i++ {
		row = append(row, nil)
	}
	for i := range g.Cells {
		row = append(row, &g.Cells[i])
		if len(row) == 7 {
			weeks = append(weeks, row)
			row = make([]*Cell, 0, 7)
		}
	}
	if len(row) > 0 {
		for len(row) < 7 {
			row = append(row, nil)
		}
		weeks = append(weeks, row)
	}
	return weeks
}

// RenderMonth builds the grid for a month from store contents.
func RenderMonth(s *store.Store, year int, month time.Month, today time.Time) MonthGrid {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, time.Local).Day()

	grid := MonthGrid{
		Year:          year,
		Month:         month,
		Title:         fmt.Sprintf("%s %d", month, year),
		LeadingBlanks: int(first.Weekday()),
		Cells:         make([]Cell, 0, lastDay),
	}
	for day := 1; day <= lastDay; day++ {
		date := time.Date(year, month, day, 0, 0, 0, 0, time.Local)
		key := datekey.ToKey(date)
		grid.Cells = append(grid.Cells, Cell{
			Day:       day,
			Key:       key,
			HasEvents: s.HasEvents(key),
			IsToday:   datekey.SameDay(date, today),
		})
	}
	return grid
}

// UpcomingItem is an event instance paired with its relative display
// label.
type UpcomingItem struct {
	event.Instance
	DateLabel string
	IsToday   bool
}

// RenderUpcoming projects the store's forward scan into labeled items.
func RenderUpcoming(s *store.Store, today time.Time, count, lookaheadDays int) []UpcomingItem {
	events := s.Upcoming(today, count, lookaheadDays)
	out := make([]UpcomingItem, 0, len(events))
	for _, in := range events {
		out = append(out, UpcomingItem{
			Instance:  in,
			DateLabel: DateLabel(in.Date, today),
			IsToday:   datekey.SameDay(in.Date, today),
		})
	}
	return out
}

// DateLabel renders a date relative to today: "Today", "Tomorrow",
// else short weekday+date ("Wed, Jun 4").
func DateLabel(date, today time.Time) string {
	switch datekey.Compare(date, today) {
	case 0:
		return "Today"
	default:
		if datekey.SameDay(date, today.AddDate(0, 0, 1)) {
			return "Tomorrow"
		}
	}
	return fmt.Sprintf("%s, %s %d",
		date.Weekday().String()[:3],
		date.Month().String()[:3],
		date.Day(),
	)
}

// DayDetail is the day-selection panel: either the date's events or
// an explicit empty state, never a blank panel.
type DayDetail struct {
	Title        string
	Events       []event.Instance
	Empty        bool
	EmptyMessage string
}

// RenderDay builds the detail panel for a date key. An invalid key
// is a programmer error and panics, matching the fail-fast contract
// for date keys.
func RenderDay(s *store.Store, key string) DayDetail {
	date, err := datekey.FromKey(key)
	if err != nil {
		panic(err)
	}
	detail := DayDetail{
		Title:  fmt.Sprintf("%s, %s %d", date.Weekday(), date.Month(), date.Day()),
		Events: s.GetByKey(key),
	}
	if len(detail.Events) == 0 {
		detail.Empty = true
		detail.EmptyMessage = NoEventsMessage
	}
	return detail
}
