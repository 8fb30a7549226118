package domain

import (
	"fmt"
	"time"
)

// DayLayout is the calendar-day format used for activity dates and summaries.
const DayLayout = "2006-01-02"

const (
	kmToMeters    = 1000.0
	milesToMeters = 1609.344
)

// ConvertDistanceToMeters converts a distance value from the given unit to
// meters. Returns v unchanged if the unit is already meters or unrecognised.
func ConvertDistanceToMeters(v float64, unit string) float64 {
	switch unit {
	case "km":
		return v * kmToMeters
	case "mi":
		return v * milesToMeters
	}
	return v
}

// MillisToTime converts an epoch-milliseconds timestamp to a UTC instant.
func MillisToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// DurationMinutes returns the whole minutes between start and end, floored.
func DurationMinutes(start, end time.Time) int {
	return int(end.Sub(start) / time.Minute)
}

// DayOf returns the UTC calendar day containing t.
func DayOf(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// NormalizeDay strips any time-of-day component from s, accepting either a
// plain calendar day or an RFC 3339 timestamp.
func NormalizeDay(s string) (string, error) {
	if t, err := time.Parse(DayLayout, s); err == nil {
		return t.Format(DayLayout), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DayOf(t), nil
	}
	return "", fmt.Errorf("%w: invalid date %q", ErrValidation, s)
}

// DayBounds returns the UTC [start, end) window for a calendar day.
func DayBounds(day string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(DayLayout, day, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid date %q", ErrValidation, day)
	}
	return start, start.Add(24 * time.Hour), nil
}
