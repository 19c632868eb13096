// Package timeutil provides timezone utilities for Cairo time (UTC+2).
// Visit timestamps arrive in whatever zone the device reports; cooldown
// windows and "visited today" style displays are anchored to Cairo days.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// CairoTZ is the Cairo timezone pinned to standard time (UTC+2). Egypt's
// on-again-off-again DST is deliberately ignored so that cooldown windows
// never jump by an hour between app updates.
var CairoTZ = time.FixedZone("Africa/Cairo", 2*60*60)

// Now returns the current time in Cairo timezone.
func Now() time.Time {
	return time.Now().In(CairoTZ)
}

// ToCairo converts a time to Cairo timezone.
func ToCairo(t time.Time) time.Time {
	return t.In(CairoTZ)
}

// ToUTC converts a time to UTC.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// Date creates a time in Cairo timezone with the given date.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, CairoTZ)
}

// DateTime creates a time in Cairo timezone with the given date and time.
func DateTime(year, month, day, hour, min, sec int) time.Time {
	return time.Date(year, time.Month(month), day, hour, min, sec, 0, CairoTZ)
}

// StartOfDay returns the start of the day (00:00:00) in Cairo timezone.
func StartOfDay(t time.Time) time.Time {
	cairo := ToCairo(t)
	return time.Date(cairo.Year(), cairo.Month(), cairo.Day(), 0, 0, 0, 0, CairoTZ)
}

// EndOfDay returns the end of the day (23:59:59.999999999) in Cairo timezone.
func EndOfDay(t time.Time) time.Time {
	cairo := ToCairo(t)
	return time.Date(cairo.Year(), cairo.Month(), cairo.Day(), 23, 59, 59, 999999999, CairoTZ)
}

// IsToday checks if the given time is today in Cairo timezone.
func IsToday(t time.Time) bool {
	return IsSameDay(t, Now())
}

// IsSameDay checks if two times are on the same day in Cairo timezone.
func IsSameDay(t1, t2 time.Time) bool {
	c1, c2 := ToCairo(t1), ToCairo(t2)
	return c1.Year() == c2.Year() && c1.YearDay() == c2.YearDay()
}

// DaysSince calculates the number of calendar days since the given time.
func DaysSince(t time.Time) int {
	now := StartOfDay(Now())
	then := StartOfDay(t)
	return int(now.Sub(then).Hours() / 24)
}

// DaysBetween calculates the number of calendar days between two times.
func DaysBetween(t1, t2 time.Time) int {
	c1 := StartOfDay(t1)
	c2 := StartOfDay(t2)
	days := int(c2.Sub(c1).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}

// Common date/time formats.
const (
	// FormatDate is the standard date format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatTime is the standard time format (HH:MM).
	FormatTime = "15:04"
	// FormatDateTime is the standard datetime format.
	FormatDateTime = "2006-01-02 15:04"
	// FormatDateTimeSeconds includes seconds.
	FormatDateTimeSeconds = "2006-01-02 15:04:05"
	// FormatHumanDate is a human-readable format.
	FormatHumanDate = "2 January 2006"
)

// FormatCairo formats a time in Cairo timezone with the given layout.
func FormatCairo(t time.Time, layout string) string {
	return ToCairo(t).Format(layout)
}

// FormatDateStr formats a time as a date string (YYYY-MM-DD) in Cairo timezone.
func FormatDateStr(t time.Time) string {
	return FormatCairo(t, FormatDate)
}

// FormatDateTimeStr formats a time as a datetime string in Cairo timezone.
func FormatDateTimeStr(t time.Time) string {
	return FormatCairo(t, FormatDateTime)
}

// FormatRelative returns a human-readable relative time string.
func FormatRelative(t time.Time) string {
	now := Now()
	cairo := ToCairo(t)
	duration := now.Sub(cairo)

	if duration < 0 {
		return formatFutureDuration(-duration)
	}
	return formatPastDuration(duration)
}

func formatPastDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "yesterday"
		}
		return fmt.Sprintf("%dd ago", days)
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dw ago", int(d.Hours()/24/7))
	default:
		months := int(d.Hours() / 24 / 30)
		if months < 12 {
			return fmt.Sprintf("%dmo ago", months)
		}
		return fmt.Sprintf("%dy ago", months/12)
	}
}

func formatFutureDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("in %dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("in %dh", int(d.Hours()))
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "tomorrow"
		}
		return fmt.Sprintf("in %dd", days)
	}
}

// ParseCairo parses a time string in Cairo timezone.
func ParseCairo(layout, value string) (time.Time, error) {
	return time.ParseInLocation(layout, value, CairoTZ)
}

// ParseDateCairo parses a date string (YYYY-MM-DD) in Cairo timezone.
func ParseDateCairo(value string) (time.Time, error) {
	return ParseCairo(FormatDate, value)
}
