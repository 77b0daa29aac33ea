package attendance

import (
	"strconv"
	"time"
)

const dayKeyLayout = "2006-01-02"

// DayKey identifies one UTC calendar day in YYYY-MM-DD form.
// It is the only key type used for attendance map lookups and day-range
// iteration; time of day and zone information are deliberately dropped.
// Keys compare chronologically with plain string comparison.
type DayKey string

// DayKeyOf converts a point in time to the key of its UTC calendar day.
// The zero time reports ok=false and must be skipped by callers.
func DayKeyOf(t time.Time) (DayKey, bool) {
	if t.IsZero() {
		return "", false
	}
	return DayKey(t.UTC().Format(dayKeyLayout)), true
}

// ParseTimestamp normalizes a raw date-like string coming from
// check-in sources: a plain YYYY-MM-DD date (midnight UTC), an RFC3339
// timestamp, or a unix timestamp in seconds or milliseconds.
// Unparseable input reports ok=false instead of an error - a malformed
// record must never abort a whole dashboard computation.
func ParseTimestamp(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(dayKeyLayout, raw); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	if unix, err := strconv.ParseInt(raw, 10, 64); err == nil {
		// values this large can only be milliseconds
		if unix > 1_000_000_000_000 {
			return time.UnixMilli(unix), true
		}
		return time.Unix(unix, 0), true
	}
	return time.Time{}, false
}

// ParseDayKey is ParseTimestamp collapsed to the UTC calendar day.
func ParseDayKey(raw string) (DayKey, bool) {
	t, ok := ParseTimestamp(raw)
	if !ok {
		return "", false
	}
	return DayKeyOf(t)
}

// Time gives back the midnight UTC instant of the day the key stands for.
func (k DayKey) Time() (time.Time, bool) {
	t, err := time.Parse(dayKeyLayout, string(k))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Next returns the key of the following calendar day,
// or the empty key if k itself is not a valid key.
func (k DayKey) Next() DayKey {
	t, ok := k.Time()
	if !ok {
		return ""
	}
	next, _ := DayKeyOf(t.AddDate(0, 0, 1))
	return next
}

// Prev returns the key of the preceding calendar day,
// or the empty key if k itself is not a valid key.
func (k DayKey) Prev() DayKey {
	t, ok := k.Time()
	if !ok {
		return ""
	}
	prev, _ := DayKeyOf(t.AddDate(0, 0, -1))
	return prev
}
