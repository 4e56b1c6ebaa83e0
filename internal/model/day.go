package model

import (
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// DateKey formats t as a calendar-day key in t's own location.
func DateKey(t time.Time) string { return t.Format(DateLayout) }

// ParseDateKey parses a YYYY-MM-DD key as midnight in loc.
func ParseDateKey(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// AddDays shifts a date key by n calendar days. Invalid keys come back unchanged.
func AddDays(key string, n int) string {
	t, err := time.Parse(DateLayout, key)
	if err != nil {
		return key
	}
	return t.AddDate(0, 0, n).Format(DateLayout)
}

// NormalizeTime accepts "9:05", "09:05" and returns "09:05".
func NormalizeTime(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return "", fmt.Errorf("parse time %q: want HH:MM", s)
	}
	return t.Format(TimeLayout), nil
}

// NormalizeDate accepts YYYY-MM-DD plus "today" and "tomorrow" relative to now.
func NormalizeDate(s string, now time.Time) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return "", nil
	case "today":
		return DateKey(now), nil
	case "tomorrow":
		return DateKey(now.AddDate(0, 0, 1)), nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("parse date %q: want YYYY-MM-DD", s)
	}
	return t.Format(DateLayout), nil
}
