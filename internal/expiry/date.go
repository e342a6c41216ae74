package expiry

import (
	"errors"
	"strings"
	"time"
)

const (
	// DateLayout is the wire and storage layout for calendar dates.
	DateLayout = "2006-01-02"
	// DisplayLayout renders dates for people, e.g. "Jan 05, 2025".
	DisplayLayout = "Jan 02, 2006"
)

const secondsPerDay = 24 * 60 * 60

var ErrInvalidDate = errors.New("invalid date")

// DateOnly drops the time-of-day and location, keeping the calendar date as UTC midnight.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrInvalidDate
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// FormatDate renders a calendar date in DateLayout.
func FormatDate(t time.Time) string {
	return DateOnly(t).Format(DateLayout)
}

// FormatForDisplay renders a date for presentation only; never compare or store the result.
func FormatForDisplay(t time.Time) string {
	return DateOnly(t).Format(DisplayLayout)
}

// DaysUntil returns the signed number of calendar days from today (now in loc) to expiryDate.
// Negative values mean the date has passed.
func DaysUntil(expiryDate, now time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	today := DateOnly(now.In(loc))
	target := DateOnly(expiryDate)
	return int((target.Unix() - today.Unix()) / secondsPerDay)
}
