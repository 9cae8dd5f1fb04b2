// Package event defines the event instance model shared by the
// recurring generator, the gateway, the store and the view layer.
package event

import (
	"fmt"
	"strings"
	"time"
)

// Origin tags where an instance came from. It participates in the
// per-date dedup key and in list ordering.
type Origin string

const (
	OriginRecurring Origin = "recurring"
	OriginExternal  Origin = "external"
)

// Instance is a single occurrence on a specific date.
//
// ID is stable: synthesized for recurring events (see RecurringID),
// provider-supplied for external ones. Within one date's list no two
// instances may share the same (Origin, ID) pair.
type Instance struct {
	ID          string     `json:"id"`
	Date        time.Time  `json:"date"` // date-only precision
	Title       string     `json:"title"`
	TimeRange   string     `json:"time_range"`
	Description string     `json:"description"`
	Location    string     `json:"location,omitempty"`
	ImageRef    string     `json:"image_ref,omitempty"`
	SourceLink  string     `json:"source_link,omitempty"`
	Origin      Origin     `json:"origin"`
	AllDay      bool       `json:"all_day,omitempty"`
	Start       *time.Time `json:"start,omitempty"` // set for timed external events
	End         *time.Time `json:"end,omitempty"`
}

// DedupKey is the identity used by the per-date dedup invariant.
func (in Instance) DedupKey() string {
	return string(in.Origin) + ":" + in.ID
}

// Clone returns a copy that shares no mutable state with the receiver.
func (in Instance) Clone() Instance {
	out := in
	if in.Start != nil {
		s := *in.Start
		out.Start = &s
	}
	if in.End != nil {
		e := *in.End
		out.End = &e
	}
	return out
}

// RecurringID synthesizes the stable identifier for a weekly recurring
// event: recurring:<weekday>:<slug(title)>.
func RecurringID(weekday time.Weekday, title string) string {
	return fmt.Sprintf("recurring:%d:%s", int(weekday), Slug(title))
}

// Slug lowercases a title and collapses runs of non-alphanumerics into
// single hyphens.
func Slug(s string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Less implements the per-date ordering invariant: recurring entries
// sort before external ones; within external, ascending by start time
// when both sides carry one. Everything else compares equal so a
// stable sort preserves insertion order.
func Less(a, b Instance) bool {
	if a.Origin != b.Origin {
		return a.Origin == OriginRecurring
	}
	if a.Origin == OriginExternal && a.Start != nil && b.Start != nil {
		return a.Start.Before(*b.Start)
	}
	return false
}

// FormatClock renders a time of day in the site's 12-hour style,
// e.g. "7:00 PM".
func FormatClock(t time.Time) string {
	hours := t.Hour()
	ampm := "AM"
	if hours >= 12 {
		ampm = "PM"
	}
	hours = hours % 12
	if hours == 0 {
		hours = 12
	}
	return fmt.Sprintf("%d:%02d %s", hours, t.Minute(), ampm)
}

// FormatRange renders a start/end pair as a display string,
// e.g. "7:00 PM - 9:00 PM".
func FormatRange(start, end time.Time) string {
	return FormatClock(start) + " - " + FormatClock(end)
}
