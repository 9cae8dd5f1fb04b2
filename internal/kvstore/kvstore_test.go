package kvstore

import (
	"path/filepath"
	"testing"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	fileBacked, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	sqliteBacked, err := NewSQLiteStore(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	return map[string]Store{"file": fileBacked, "sqlite": sqliteBacked}
}

func TestSetGetDelete(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			defer s.Close()

			if _, ok, err := s.Get("missing"); err != nil || ok {
				t.Fatalf("Get(missing) = ok=%v err=%v, want absent", ok, err)
			}

			if err := s.Set("events_cache", `{"timestamp":1}`); err != nil {
				t.Fatalf("Set: %v", err)
			}
			got, ok, err := s.Get("events_cache")
			if err != nil || !ok {
				t.Fatalf("Get after Set = ok=%v err=%v", ok, err)
			}
			if got != `{"timestamp":1}` {
				t.Fatalf("Get returned %q", got)
			}

			// Overwrite replaces, never appends.
			if err := s.Set("events_cache", `{"timestamp":2}`); err != nil {
				t.Fatalf("Set overwrite: %v", err)
			}
			got, _, _ = s.Get("events_cache")
			if got != `{"timestamp":2}` {
				t.Fatalf("overwritten value = %q", got)
			}

			if err := s.Delete("events_cache"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, ok, _ := s.Get("events_cache"); ok {
				t.Fatal("value still present after Delete")
			}
			// Deleting an absent key is a no-op.
			if err := s.Delete("events_cache"); err != nil {
				t.Fatalf("Delete of absent key: %v", err)
			}
		})
	}
}

func TestFileStoreSanitizesKeys(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := s.Set("../escape/attempt", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := s.Get("../escape/attempt")
	if err != nil || !ok || got != "v" {
		t.Fatalf("Get after Set = %q ok=%v err=%v", got, ok, err)
	}
	// Nothing may land outside the store directory.
	outside, err := filepath.Glob(filepath.Join(dir, "..", "escape*"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(outside) != 0 {
		t.Fatalf("key escaped the store directory: %v", outside)
	}
}
