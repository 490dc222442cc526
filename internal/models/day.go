package models

import (
	"fmt"
	"time"
)

// DayLayout is the wire format for calendar days. Days are UTC-naive; no
// timezone conversion happens inside this backend.
const DayLayout = "2006-01-02"

// ParseDay parses a YYYY-MM-DD string into a midnight-UTC time.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// FormatDay renders a time as its YYYY-MM-DD calendar day.
func FormatDay(t time.Time) string {
	return t.Format(DayLayout)
}

// Day truncates a time to midnight UTC of the same calendar day.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
