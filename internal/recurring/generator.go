// Package recurring expands the weekly house-event table into concrete
// dated instances over a rolling window.
package recurring

import (
	"time"

	"github.com/teambition/rrule-go"

	"sugarcal/internal/datekey"
	"sugarcal/internal/event"
)

// Template describes one event that repeats on a fixed weekday.
type Template struct {
	Title       string
	TimeRange   string
	Description string
	ImageRef    string
}

// Table maps a weekday to the templates repeating on it.
type Table map[time.Weekday][]Template

// Generator is a pure expander: the same window and table always yield
// the same instances, in weekday-then-template order. Callers merge
// results into the store; the generator itself never emits two entries
// for the same date+title within one invocation.
type Generator struct {
	table Table
}

func NewGenerator(table Table) *Generator {
	return &Generator{table: table}
}

// Generate produces recurring-origin instances for every table entry
// falling inside [start, end] inclusive (date precision). A window
// with start after end yields no instances.
func (g *Generator) Generate(start, end time.Time) []event.Instance {
	if datekey.Compare(start, end) > 0 {
		return nil
	}

	windowStart := midnight(start)
	windowEnd := midnight(end)

	var out []event.Instance
	seen := make(map[string]bool)

	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		templates := g.table[wd]
		if len(templates) == 0 {
			continue
		}

		dates, err := weekdayDates(wd, windowStart, windowEnd)
		if err != nil {
			// A malformed rule here is a programming error; the table
			// only ever produces plain weekly rules.
			continue
		}

		for _, tpl := range templates {
			for _, date := range dates {
				key := datekey.ToKey(date) + "|" + tpl.Title
				if seen[key] {
					continue
				}
				seen[key] = true
				out = append(out, event.Instance{
					ID:          event.RecurringID(wd, tpl.Title),
					Date:        date,
					Title:       tpl.Title,
					TimeRange:   tpl.TimeRange,
					Description: tpl.Description,
					ImageRef:    tpl.ImageRef,
					Origin:      event.OriginRecurring,
				})
			}
		}
	}

	return out
}

// weekdayDates expands a plain weekly rule for one weekday across the
// inclusive window.
func weekdayDates(wd time.Weekday, start, end time.Time) ([]time.Time, error) {
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   start,
		Byweekday: []rrule.Weekday{rruleWeekday(wd)},
	})
	if err != nil {
		return nil, err
	}
	return r.Between(start, end, true), nil
}

func rruleWeekday(wd time.Weekday) rrule.Weekday {
	switch wd {
	case time.Monday:
		return rrule.MO
	case time.Tuesday:
		return rrule.TU
	case time.Wednesday:
		return rrule.WE
	case time.Thursday:
		return rrule.TH
	case time.Friday:
		return rrule.FR
	case time.Saturday:
		return rrule.SA
	default:
		return rrule.SU
	}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
