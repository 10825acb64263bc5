package utils

import (
	"time"

	"sensor-etl/src/helpers"
)

// DayLayout is the only accepted calendar date form.
const DayLayout = "2006-01-02"

// ParseDay parses a YYYY-MM-DD date as midnight UTC.
func ParseDay(s string) (time.Time, error) {
	day, err := time.ParseInLocation(DayLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, helpers.NewValidationError("invalid date, use the YYYY-MM-DD format", err)
	}
	return day, nil
}

// -----------------------------------------------------------------------------

// DayBounds returns the first and the last representable instant of day.
func DayBounds(day time.Time) (time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24*time.Hour - time.Nanosecond)
}

// SameDay reports whether t falls on the UTC calendar date of day.
func SameDay(t, day time.Time) bool {
	ty, tm, td := t.UTC().Date()
	dy, dm, dd := day.UTC().Date()
	return ty == dy && tm == dm && td == dd
}

// -----------------------------------------------------------------------------

// DaysBetween lists every day from from to to inclusive.
func DaysBetween(from, to time.Time) ([]time.Time, error) {
	if to.Before(from) {
		return nil, helpers.NewValidationError("end date is before start date", nil)
	}
	var days []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days, nil
}
