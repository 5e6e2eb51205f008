package model

import "time"

const dayLayout = "2006-01-02"

// Day truncates t to its UTC calendar day
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatDay renders a nullable date at day granularity, "none" for nil
func FormatDay(t *time.Time) string {
	if t == nil {
		return "none"
	}
	return t.UTC().Format(dayLayout)
}

// SameDay compares two nullable dates at day granularity. A nil date only
// equals another nil date.
func SameDay(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return Day(*a).Equal(Day(*b))
}
