package dateutil

import (
	"fmt"
	"time"
)

const DayLayout = "2006-01-02"

func BeginningOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last nanosecond of the day of t.
func EndOfDay(t time.Time) time.Time {
	return BeginningOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func NextDay(t time.Time) time.Time {
	return BeginningOfDay(t).AddDate(0, 0, 1)
}

// ParseDay parses a YYYY-MM-DD string as the beginning of that day in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DayLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q: %w", s, err)
	}

	return t, nil
}

// DayRange returns the half-open interval [start, end) covering the day s in
// loc.
func DayRange(s string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := ParseDay(s, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	return start, start.AddDate(0, 0, 1), nil
}

func FormatDay(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DayLayout)
}
