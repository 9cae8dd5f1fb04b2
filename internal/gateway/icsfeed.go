package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"sugarcal/internal/event"
	appLog "sugarcal/internal/log"
)

// ICSFeed consumes a published ICS subscription URL. Recurring
// VEVENTs are expanded in-window via their RRULE; EXDATEs are
// honored.
type ICSFeed struct {
	url    string
	client *http.Client
}

func NewICSFeed(url string, client *http.Client) (*ICSFeed, error) {
	if url == "" {
		return nil, errors.New("gateway: ics url is empty")
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &ICSFeed{url: url, client: client}, nil
}

func (f *ICSFeed) FetchWindow(ctx context.Context, start, end time.Time) ([]event.Instance, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, &Error{Cause: CauseNetwork, Op: "ics.get", Err: err}
	}

	appLog.Info("ics fetch start", "url", redactURL(f.url))

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &Error{Cause: CauseNetwork, Op: "ics.get", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Cause: CauseProviderError, Op: "ics.get", Err: errors.New(resp.Status)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Cause: CauseNetwork, Op: "ics.get", Err: err}
	}

	cal, err := ical.ParseCalendar(strings.NewReader(string(body)))
	if err != nil {
		return nil, &Error{Cause: CauseMalformedResponse, Op: "ics.parse", Err: err}
	}

	windowStart := midnight(start)
	windowEnd := midnight(end).AddDate(0, 0, 1).Add(-time.Nanosecond)

	var out []event.Instance
	for _, ve := range cal.Events() {
		instances, err := expandVEvent(ve, windowStart, windowEnd)
		if err != nil {
			return nil, &Error{Cause: CauseMalformedResponse, Op: "ics.parse", Err: err}
		}
		out = append(out, instances...)
	}
	sortByStart(out)

	appLog.Info("ics fetch success", "url", redactURL(f.url), "event_count", len(out))
	return out, nil
}

// expandVEvent yields zero or more instances for one VEVENT within
// the window: one for a plain event, one per in-window occurrence for
// an RRULE event.
func expandVEvent(ve *ical.VEvent, windowStart, windowEnd time.Time) ([]event.Instance, error) {
	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return nil, errors.New("vevent missing UID")
	}
	uid := uidProp.Value

	dtStartProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStartProp == nil || dtStartProp.Value == "" {
		return nil, fmt.Errorf("vevent %s missing DTSTART", uid)
	}

	allDay := isAllDayProp(dtStartProp)
	start, err := parseICSTime(dtStartProp.Value)
	if err != nil {
		return nil, fmt.Errorf("vevent %s: bad DTSTART: %w", uid, err)
	}

	end := start
	if dtEndProp := ve.GetProperty(ical.ComponentPropertyDtEnd); dtEndProp != nil && dtEndProp.Value != "" {
		if e, err := parseICSTime(dtEndProp.Value); err == nil {
			end = e
		}
	}
	duration := end.Sub(start)

	var summary, description, location string
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		location = p.Value
	}

	rawRRule := ""
	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		rawRRule = p.Value
	}

	// Plain event: include when any part of [start, end] overlaps
	// the window, so multi-day events straddling a window edge are
	// kept the way the Google provider's TimeMin/TimeMax query keeps
	// them.
	if rawRRule == "" {
		if start.After(windowEnd) || start.Add(duration).Before(windowStart) {
			return nil, nil
		}
		return []event.Instance{makeICSInstance(uid, summary, description, location, start, duration, allDay, false)}, nil
	}

	r, err := rrule.StrToRRule(rawRRule)
	if err != nil {
		return nil, fmt.Errorf("vevent %s: bad RRULE: %w", uid, err)
	}
	r.DTStart(start)

	var set rrule.Set
	set.RRule(r)
	for _, exProp := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(exProp.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if ex, err := parseICSTime(part); err == nil {
				set.ExDate(ex.In(start.Location()))
			}
		}
	}

	var out []event.Instance
	for _, occ := range set.Between(windowStart.In(start.Location()), windowEnd.In(start.Location()), true) {
		out = append(out, makeICSInstance(uid, summary, description, location, occ, duration, allDay, true))
	}
	return out, nil
}

func makeICSInstance(uid, summary, description, location string, start time.Time, duration time.Duration, allDay, occurrence bool) event.Instance {
	start = start.Local()

	title := summary
	if title == "" {
		title = UntitledTitle
	}
	desc := description
	if desc == "" {
		desc = PlaceholderDescription
	}

	// Occurrences of a recurring VEVENT share a UID; suffix the start
	// so the per-date (origin, id) dedup key stays unique even when a
	// rule fires twice on one date.
	id := uid
	if occurrence {
		id = uid + ":" + start.Format(time.RFC3339)
	}

	in := event.Instance{
		ID:          id,
		Date:        midnight(start),
		Title:       title,
		TimeRange:   "All Day",
		Description: desc,
		Location:    location,
		ImageRef:    extractImageRef(description),
		Origin:      event.OriginExternal,
		AllDay:      allDay,
	}
	if !allDay {
		end := start.Add(duration)
		in.TimeRange = event.FormatRange(start, end)
		s, e := start, end
		in.Start, in.End = &s, &e
	}
	return in
}

func isAllDayProp(p *ical.IANAProperty) bool {
	if p.ICalParameters != nil {
		if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			return true
		}
	}
	return !strings.Contains(p.Value, "T")
}

// parseICSTime handles the basic DATE / DATE-TIME / UTC forms.
func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, time.Local)
	default:
		return time.ParseInLocation("20060102", v, time.Local)
	}
}

// redactURL hides path and query of a feed URL in logs; subscription
// URLs often embed access tokens.
func redactURL(u string) string {
	i := strings.Index(u, "://")
	if i == -1 {
		return "ics://...(redacted)"
	}
	rest := u[i+3:]
	if j := strings.IndexByte(rest, '/'); j != -1 {
		return u[:i+3+j] + "/...(redacted)"
	}
	return u
}
