// Package controller drives the calendar lifecycle: it owns the event
// store, the visible month, the selection and the load state, and
// decides when an external fetch is needed. Fetch execution is split
// out: state transitions return a *FetchRequest the caller runs (as a
// tea.Cmd in the TUI, inline in one-shot mode) and completes with
// ApplyFetch. The controller itself never blocks.
package controller

import (
	"context"
	"time"

	"sugarcal/internal/cache"
	"sugarcal/internal/datekey"
	"sugarcal/internal/event"
	"sugarcal/internal/gateway"
	"sugarcal/internal/recurring"
	"sugarcal/internal/store"
	"sugarcal/internal/view"
)

// State is the load lifecycle. Exactly one fetch may be pending;
// while loading, navigation and refresh are rejected.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading-external"
	StateReady   State = "ready"
	StateError   State = "error"
)

// FetchRequest is one pending external fetch over a month-aligned
// window.
type FetchRequest struct {
	Start time.Time
	End   time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithNow injects the clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithSpanMonths sets how many months either side of the visible
// month the fetch window covers.
func WithSpanMonths(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.spanMonths = n
		}
	}
}

// WithUpcoming sets the upcoming-list size and lookahead.
func WithUpcoming(limit, lookaheadDays int) Option {
	return func(c *Controller) {
		if limit > 0 {
			c.upcomingLimit = limit
		}
		if lookaheadDays > 0 {
			c.lookaheadDays = lookaheadDays
		}
	}
}

// Controller coordinates generator, store, gateway and cache. It is
// not safe for concurrent use; the TUI event loop serializes access.
type Controller struct {
	gen   *recurring.Generator
	store *store.Store
	gw    gateway.Gateway
	cache *cache.Cache

	spanMonths    int
	upcomingLimit int
	lookaheadDays int

	state    State
	year     int
	month    time.Month
	selected string
	lastErr  error

	// window already covered by a successful fetch or cache hit
	coveredStart time.Time
	coveredEnd   time.Time
	covered      bool

	now func() time.Time
}

// New builds an idle controller. gw may be nil, in which case only
// recurring events are shown and the controller goes straight to
// ready.
func New(gen *recurring.Generator, st *store.Store, gw gateway.Gateway, ca *cache.Cache, opts ...Option) *Controller {
	c := &Controller{
		gen:           gen,
		store:         st,
		gw:            gw,
		cache:         ca,
		spanMonths:    3,
		upcomingLimit: 3,
		lookaheadDays: 30,
		state:         StateIdle,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Activate initializes the visible month from the clock, seeds
// recurring events and serves external events from cache when fresh.
// It returns a non-nil request when an external fetch is needed.
func (c *Controller) Activate() *FetchRequest {
	today := c.now()
	c.year, c.month = today.Year(), today.Month()
	c.selected = datekey.ToKey(today)

	start, end := c.window()
	c.store.UpsertRecurring(c.gen.Generate(start, end))

	if c.gw == nil {
		c.state = StateReady
		return nil
	}

	if c.cache != nil {
		if payload := c.cache.Read(); payload != nil {
			c.mergeCached(payload, start, end)
			c.state = StateReady
			return nil
		}
	}

	c.state = StateLoading
	return &FetchRequest{Start: start, End: end}
}

// Fetch executes a request against the gateway. Callers run this off
// the main loop and feed the result back through ApplyFetch.
func (c *Controller) Fetch(ctx context.Context, req *FetchRequest) ([]event.Instance, error) {
	return c.gw.FetchWindow(ctx, req.Start, req.End)
}

// ApplyFetch completes the pending fetch. On success external events
// inside the window are replaced and the cache rewritten; on failure
// the store keeps whatever it has and the controller enters the error
// state.
func (c *Controller) ApplyFetch(req *FetchRequest, events []event.Instance, err error) {
	if err != nil {
		c.lastErr = err
		c.state = StateError
		return
	}
	c.store.ReplaceExternalForWindow(req.Start, req.End, events)
	c.coveredStart, c.coveredEnd, c.covered = req.Start, req.End, true
	if c.cache != nil {
		c.cache.Write(c.store.ExternalByDate())
	}
	c.lastErr = nil
	c.state = StateReady
}

// NextMonth moves the visible month forward. The returned request is
// non-nil when the new window needs an external fetch; ok is false
// when the move was rejected because a fetch is pending.
func (c *Controller) NextMonth() (*FetchRequest, bool) {
	return c.GoToMonth(c.year, c.month+1)
}

// PrevMonth moves the visible month back.
func (c *Controller) PrevMonth() (*FetchRequest, bool) {
	return c.GoToMonth(c.year, c.month-1)
}

// GoToToday jumps back to the clock's current month and selects
// today.
func (c *Controller) GoToToday() (*FetchRequest, bool) {
	today := c.now()
	req, ok := c.GoToMonth(today.Year(), today.Month())
	if ok {
		c.selected = datekey.ToKey(today)
	}
	return req, ok
}

// GoToMonth shows an arbitrary month. Out-of-range month values are
// normalized the way time.Date normalizes them, so callers can pass
// month+1 across a year boundary.
func (c *Controller) GoToMonth(year int, month time.Month) (*FetchRequest, bool) {
	if c.state == StateLoading {
		return nil, false
	}
	norm := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	c.year, c.month = norm.Year(), norm.Month()
	c.selected = datekey.ToKey(norm)

	start, end := c.window()
	c.store.UpsertRecurring(c.gen.Generate(start, end))

	// A fetch covers months either side of the one that triggered it;
	// navigation refetches only once the visible month leaves that
	// span.
	monthEnd := time.Date(c.year, c.month+1, 0, 0, 0, 0, 0, time.Local)
	if c.gw == nil || c.windowCovered(norm, monthEnd) {
		if c.state != StateError {
			c.state = StateReady
		}
		return nil, true
	}
	c.state = StateLoading
	return &FetchRequest{Start: start, End: end}, true
}

// ForceRefresh drops the cache and refetches the current window.
// Rejected while a fetch is already pending.
func (c *Controller) ForceRefresh() (*FetchRequest, bool) {
	if c.state == StateLoading {
		return nil, false
	}
	if c.cache != nil {
		c.cache.Invalidate()
	}
	start, end := c.window()
	c.store.UpsertRecurring(c.gen.Generate(start, end))
	if c.gw == nil {
		c.state = StateReady
		return nil, true
	}
	c.covered = false
	c.state = StateLoading
	return &FetchRequest{Start: start, End: end}, true
}

// SelectDay moves the detail selection. Malformed keys are ignored.
func (c *Controller) SelectDay(key string) {
	if _, err := datekey.FromKey(key); err != nil {
		return
	}
	c.selected = key
}

// SelectOffset moves the selection by a number of days, following
// the visible month if the selection crosses into another one. A
// cross-month move goes through the same transition as GoToMonth, so
// it regenerates recurring events, fetches when the new window is
// uncovered and is rejected while a fetch is pending.
func (c *Controller) SelectOffset(days int) (*FetchRequest, bool) {
	date, err := datekey.FromKey(c.selected)
	if err != nil {
		return nil, true
	}
	moved := date.AddDate(0, 0, days)
	if moved.Year() == c.year && moved.Month() == c.month {
		c.selected = datekey.ToKey(moved)
		return nil, true
	}
	req, ok := c.GoToMonth(moved.Year(), moved.Month())
	if !ok {
		return nil, false
	}
	c.selected = datekey.ToKey(moved)
	return req, ok
}

func (c *Controller) State() State      { return c.state }
func (c *Controller) Err() error        { return c.lastErr }
func (c *Controller) Year() int         { return c.year }
func (c *Controller) Month() time.Month { return c.month }
func (c *Controller) Selected() string  { return c.selected }

// Grid projects the visible month.
func (c *Controller) Grid() view.MonthGrid {
	return view.RenderMonth(c.store, c.year, c.month, c.now())
}

// Upcoming projects the forward-looking event list.
func (c *Controller) Upcoming() []view.UpcomingItem {
	return view.RenderUpcoming(c.store, c.now(), c.upcomingLimit, c.lookaheadDays)
}

// DayDetail projects the selected day.
func (c *Controller) DayDetail() view.DayDetail {
	return view.RenderDay(c.store, c.selected)
}

func (c *Controller) window() (time.Time, time.Time) {
	return gateway.Window(c.year, c.month, c.spanMonths)
}

func (c *Controller) windowCovered(start, end time.Time) bool {
	return c.covered && !start.Before(c.coveredStart) && !end.After(c.coveredEnd)
}

// mergeCached replays a cached payload into the store. The payload
// was written from a full-window fetch, so a fresh hit covers the
// whole active window; dates outside it are dropped on replay.
func (c *Controller) mergeCached(payload map[string][]event.Instance, start, end time.Time) {
	flat := make([]event.Instance, 0, len(payload))
	for _, events := range payload {
		flat = append(flat, events...)
	}
	c.store.ReplaceExternalForWindow(start, end, flat)
	c.coveredStart, c.coveredEnd, c.covered = start, end, true
}
