package cache

import (
	"errors"
	"testing"
	"time"

	"sugarcal/internal/event"
	"sugarcal/internal/kvstore"
)

func newFileKV(t *testing.T) kvstore.Store {
	t.Helper()
	kv, err := kvstore.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return kv
}

func samplePayload() map[string][]event.Instance {
	return map[string][]event.Instance{
		"2025-06-07": {{
			ID:     "band-1",
			Date:   time.Date(2025, time.June, 7, 0, 0, 0, 0, time.Local),
			Title:  "Live Band",
			Origin: event.OriginExternal,
		}},
	}
}

func TestWriteThenReadFresh(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.Local)
	c := New(newFileKV(t), 30*time.Minute, WithClock(func() time.Time { return now }))

	c.Write(samplePayload())
	got := c.Read()
	if got == nil {
		t.Fatal("Read returned nil for a fresh envelope")
	}
	if len(got["2025-06-07"]) != 1 || got["2025-06-07"][0].Title != "Live Band" {
		t.Fatalf("payload round trip mangled: %v", got)
	}
}

func TestReadExpiredAtBoundary(t *testing.T) {
	// Written at T, read at T+TTL+1ms: expired by one millisecond.
	base := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.Local)
	now := base
	c := New(newFileKV(t), 1800*time.Second, WithClock(func() time.Time { return now }))

	c.Write(samplePayload())

	now = base.Add(1800*time.Second + time.Millisecond)
	if got := c.Read(); got != nil {
		t.Fatal("Read returned payload past the TTL")
	}
}

func TestReadExpiredExactlyAtTTL(t *testing.T) {
	base := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.Local)
	now := base
	c := New(newFileKV(t), 1800*time.Second, WithClock(func() time.Time { return now }))

	c.Write(samplePayload())

	// Age equal to the TTL already counts as expired.
	now = base.Add(1800 * time.Second)
	if got := c.Read(); got != nil {
		t.Fatal("envelope aged exactly TTL must be expired")
	}
}

func TestReadJustInsideTTL(t *testing.T) {
	base := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.Local)
	now := base
	c := New(newFileKV(t), 1800*time.Second, WithClock(func() time.Time { return now }))

	c.Write(samplePayload())

	now = base.Add(1800*time.Second - time.Millisecond)
	if got := c.Read(); got == nil {
		t.Fatal("envelope one millisecond inside the TTL must be valid")
	}
}

func TestReadAbsent(t *testing.T) {
	c := New(newFileKV(t), time.Minute)
	if got := c.Read(); got != nil {
		t.Fatal("Read of absent slot returned payload")
	}
}

func TestReadUnparseable(t *testing.T) {
	kv := newFileKV(t)
	if err := kv.Set(DefaultKey, "{not json"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	c := New(kv, time.Minute)
	if got := c.Read(); got != nil {
		t.Fatal("Read of corrupt envelope returned payload")
	}
}

func TestWriteFiltersNonExternal(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.Local)
	c := New(newFileKV(t), time.Hour, WithClock(func() time.Time { return now }))

	payload := samplePayload()
	payload["2025-06-04"] = []event.Instance{{
		ID:     event.RecurringID(time.Wednesday, "Bingo Night"),
		Title:  "Bingo Night",
		Origin: event.OriginRecurring,
	}}
	c.Write(payload)

	got := c.Read()
	if got == nil {
		t.Fatal("Read returned nil")
	}
	if _, present := got["2025-06-04"]; present {
		t.Fatal("recurring entries leaked into the cache payload")
	}
}

func TestInvalidate(t *testing.T) {
	c := New(newFileKV(t), time.Hour)
	c.Write(samplePayload())
	c.Invalidate()
	if got := c.Read(); got != nil {
		t.Fatal("Read returned payload after Invalidate")
	}
}

// failingKV simulates disabled or full storage: every call errors.
type failingKV struct{}

func (failingKV) Get(string) (string, bool, error) { return "", false, errors.New("storage disabled") }
func (failingKV) Set(string, string) error         { return errors.New("quota exceeded") }
func (failingKV) Delete(string) error              { return errors.New("storage disabled") }
func (failingKV) Close() error                     { return nil }

func TestPersistenceFailuresNeverPropagate(t *testing.T) {
	c := New(failingKV{}, time.Hour)
	// None of these may panic or surface an error.
	c.Write(samplePayload())
	c.Invalidate()
	if got := c.Read(); got != nil {
		t.Fatal("Read returned payload from failing storage")
	}
}
