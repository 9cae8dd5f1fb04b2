package view

import (
	"fmt"
	"strings"
)

// PlainMonth renders the grid as fixed-width text for one-shot mode
// and piped output. Event days are marked with a trailing asterisk.
func PlainMonth(grid MonthGrid) string {
	var b strings.Builder
	width := 7 * 5
	pad := (width - len(grid.Title)) / 2
	if pad < 0 {
		pad = 0
	}
	b.WriteString(strings.Repeat(" ", pad))
	b.WriteString(grid.Title)
	b.WriteByte('\n')
	b.WriteString(" Sun  Mon  Tue  Wed  Thu  Fri  Sat\n")
	for _, week := range grid.Weeks() {
		for _, cell := range week {
			if cell == nil {
				b.WriteString("     ")
				continue
			}
			mark := ' '
			if cell.HasEvents {
				mark = '*'
			}
			fmt.Fprintf(&b, "%3d%c ", cell.Day, mark)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// PlainUpcoming renders the upcoming list one event per line.
func PlainUpcoming(items []UpcomingItem) string {
	if len(items) == 0 {
		return NoUpcomingMessage + "\n"
	}
	var b strings.Builder
	for _, it := range items {
		fmt.Fprintf(&b, "%-14s %-9s %s\n", it.DateLabel, it.TimeRange, it.Title)
	}
	return b.String()
}

// PlainDay renders the day-detail panel as text.
func PlainDay(detail DayDetail) string {
	var b strings.Builder
	b.WriteString(detail.Title)
	b.WriteByte('\n')
	if detail.Empty {
		b.WriteString(detail.EmptyMessage)
		b.WriteByte('\n')
		return b.String()
	}
	for _, ev := range detail.Events {
		fmt.Fprintf(&b, "  %-9s %s\n", ev.TimeRange, ev.Title)
		if ev.Description != "" {
			fmt.Fprintf(&b, "            %s\n", ev.Description)
		}
	}
	return b.String()
}
