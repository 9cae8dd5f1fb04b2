// Package datekey provides the canonical YYYY-MM-DD date-key used to
// index event lists and the cache payload. Keys are calendar-local:
// they are built from a time's own year/month/day fields, never from
// its UTC projection.
package datekey

import (
	"fmt"
	"time"
)

// InvalidKeyError reports a string that is not a well-formed date key
// or does not name a real calendar date. It indicates a logic bug in
// the caller, not an environmental failure.
type InvalidKeyError struct {
	Key string
}

func (e *InvalidKeyError) Error() string {
	return fmt.Sprintf("invalid date key %q", e.Key)
}

// ToKey formats a date as YYYY-MM-DD using the time's own calendar
// fields, zero-padded.
func ToKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}

// FromKey parses a YYYY-MM-DD key back into a local-midnight time.
// Keys must be exactly ten characters with numeric fields; impossible
// dates (e.g. 2025-02-30) are rejected.
func FromKey(key string) (time.Time, error) {
	if !wellFormed(key) {
		return time.Time{}, &InvalidKeyError{Key: key}
	}
	t, err := time.ParseInLocation("2006-01-02", key, time.Local)
	if err != nil {
		return time.Time{}, &InvalidKeyError{Key: key}
	}
	// ParseInLocation tolerates non-padded fields; the round trip
	// catches anything that survived the shape check.
	if ToKey(t) != key {
		return time.Time{}, &InvalidKeyError{Key: key}
	}
	return t, nil
}

// Compare orders two times by their (year, month, day) triple alone.
// It returns -1, 0 or 1.
func Compare(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	switch {
	case ay != by:
		return sign(ay - by)
	case am != bm:
		return sign(int(am) - int(bm))
	default:
		return sign(ad - bd)
	}
}

// SameDay reports whether two times fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	return Compare(a, b) == 0
}

func wellFormed(key string) bool {
	if len(key) != 10 || key[4] != '-' || key[7] != '-' {
		return false
	}
	for i, c := range key {
		if i == 4 || i == 7 {
			continue
		}
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}
