package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"sugarcal/internal/event"
	appLog "sugarcal/internal/log"
)

// Google reads a public calendar through the Calendar v3 events.list
// endpoint with an API key (no user OAuth).
type Google struct {
	svc        *calendar.Service
	calendarID string
	maxResults int64
}

// NewGoogle builds the Google provider. Extra options are mainly for
// tests (custom endpoint/client).
func NewGoogle(ctx context.Context, calendarID, apiKey string, maxResults int64, extra ...option.ClientOption) (*Google, error) {
	if calendarID == "" {
		return nil, errors.New("gateway: google calendar id is empty")
	}
	if maxResults <= 0 {
		maxResults = 100
	}
	opts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, extra...)
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gateway: init google client: %w", err)
	}
	return &Google{svc: svc, calendarID: calendarID, maxResults: maxResults}, nil
}

func (g *Google) FetchWindow(ctx context.Context, start, end time.Time) ([]event.Instance, error) {
	timeMin := midnight(start)
	timeMax := midnight(end).AddDate(0, 0, 1) // exclusive upper bound

	appLog.Info("google fetch start",
		"calendar", g.calendarID,
		"time_min", timeMin.Format(time.RFC3339),
		"time_max", timeMax.Format(time.RFC3339),
	)

	resp, err := g.svc.Events.List(g.calendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		MaxResults(g.maxResults).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return nil, &Error{Cause: CauseProviderError, Op: "google.list", Err: err}
		}
		return nil, &Error{Cause: CauseNetwork, Op: "google.list", Err: err}
	}

	out := make([]event.Instance, 0, len(resp.Items))
	for _, item := range resp.Items {
		in, err := normalizeGoogleEvent(item)
		if err != nil {
			return nil, &Error{Cause: CauseMalformedResponse, Op: "google.list", Err: err}
		}
		out = append(out, in)
	}
	sortByStart(out)

	appLog.Info("google fetch success", "calendar", g.calendarID, "event_count", len(out))
	return out, nil
}

// normalizeGoogleEvent maps one raw provider event into the internal
// shape: all-day detection from the date-only start form, placeholder
// title/description, image extraction from the HTML description.
func normalizeGoogleEvent(item *calendar.Event) (event.Instance, error) {
	if item == nil || item.Start == nil {
		return event.Instance{}, errors.New("event missing start")
	}

	var (
		start  time.Time
		end    time.Time
		allDay bool
		err    error
	)
	switch {
	case item.Start.DateTime != "":
		start, err = time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			return event.Instance{}, fmt.Errorf("bad start %q: %w", item.Start.DateTime, err)
		}
		start = start.Local()
		if item.End != nil && item.End.DateTime != "" {
			end, err = time.Parse(time.RFC3339, item.End.DateTime)
			if err != nil {
				return event.Instance{}, fmt.Errorf("bad end %q: %w", item.End.DateTime, err)
			}
			end = end.Local()
		} else {
			end = start
		}
	case item.Start.Date != "":
		start, err = time.ParseInLocation("2006-01-02", item.Start.Date, time.Local)
		if err != nil {
			return event.Instance{}, fmt.Errorf("bad all-day start %q: %w", item.Start.Date, err)
		}
		end = start.AddDate(0, 0, 1)
		allDay = true
	default:
		return event.Instance{}, errors.New("event start has neither dateTime nor date")
	}

	timeRange := "All Day"
	if !allDay {
		timeRange = event.FormatRange(start, end)
	}

	title := item.Summary
	if title == "" {
		title = UntitledTitle
	}
	description := item.Description
	if description == "" {
		description = PlaceholderDescription
	}

	id := item.Id
	if id == "" {
		id = uuid.NewString()
	}

	in := event.Instance{
		ID:          id,
		Date:        midnight(start),
		Title:       title,
		TimeRange:   timeRange,
		Description: description,
		Location:    item.Location,
		ImageRef:    extractImageRef(item.Description),
		SourceLink:  item.HtmlLink,
		Origin:      event.OriginExternal,
		AllDay:      allDay,
	}
	if !allDay {
		s, e := start, end
		in.Start, in.End = &s, &e
	}
	return in, nil
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
