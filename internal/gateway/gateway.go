// Package gateway fetches a time-bounded window of events from an
// external calendar provider and normalizes them into the internal
// event shape. Two providers exist: Google Calendar (REST) and a
// plain ICS feed.
package gateway

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"time"

	"sugarcal/internal/event"
)

// Cause classifies a gateway failure.
type Cause string

const (
	CauseNetwork           Cause = "network"
	CauseMalformedResponse Cause = "malformed-response"
	CauseProviderError     Cause = "provider-error"
)

// Error is the only failure shape a Gateway returns. A fetch either
// yields a fully normalized event set or fails with one of these;
// partial data is never returned silently.
type Error struct {
	Cause Cause
	Op    string
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway %s: %s: %v", e.Op, e.Cause, e.Err)
	}
	return fmt.Sprintf("gateway %s: %s", e.Op, e.Cause)
}

func (e *Error) Unwrap() error { return e.Err }

// Gateway is the injectable fetch capability the controller drives.
type Gateway interface {
	// FetchWindow returns normalized external-origin events dated
	// inside [start, end], sorted by start time. Failures are *Error.
	FetchWindow(ctx context.Context, start, end time.Time) ([]event.Instance, error)
}

// Window returns the month-aligned fetch range for a visible month:
// the first day of (month - span) through the last day of
// (month + span).
func Window(year int, month time.Month, spanMonths int) (start, end time.Time) {
	start = time.Date(year, month-time.Month(spanMonths), 1, 0, 0, 0, 0, time.Local)
	// Day zero of the following month is the window's last day.
	end = time.Date(year, month+time.Month(spanMonths)+1, 0, 0, 0, 0, 0, time.Local)
	return start, end
}

// Placeholders applied during normalization when the provider omits a
// field. The image extraction below exists because event images are
// embedded as HTML in provider descriptions; display code depends on
// an image reference always being present.
const (
	UntitledTitle          = "Untitled Event"
	PlaceholderDescription = "No description available."
	DefaultImageRef        = "img/events/default.jpg"
)

var imgSrcPattern = regexp.MustCompile(`<img[^>]*src=["']([^"']+)["']`)

// extractImageRef pulls the first <img src=...> out of an HTML
// description, falling back to the default reference.
func extractImageRef(description string) string {
	if m := imgSrcPattern.FindStringSubmatch(description); m != nil {
		return m[1]
	}
	return DefaultImageRef
}

// sortByStart orders instances ascending by start time; undated
// (all-day without a timestamp) entries keep their relative order at
// the position their date dictates.
func sortByStart(list []event.Instance) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Start != nil && b.Start != nil {
			return a.Start.Before(*b.Start)
		}
		return a.Date.Before(b.Date)
	})
}
