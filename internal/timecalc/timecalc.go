// Package timecalc holds the calendar and duration helpers shared by the
// renderers and the command line.
package timecalc

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var secondsPerHour = decimal.NewFromInt(3600)

// FormatDuration formats seconds as a human-readable string like "1h 40m" or "45m" or "30s".
func FormatDuration(seconds int64) string {
	sign := ""
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%s%dh %dm", sign, h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%s%dm", sign, m)
	}
	return fmt.Sprintf("%s%ds", sign, s)
}

// FormatDurationHHMMSS formats seconds as HH:MM:SS.
func FormatDurationHHMMSS(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Hours converts seconds to hours.
func Hours(seconds decimal.Decimal) decimal.Decimal {
	return seconds.Div(secondsPerHour)
}

// FormatHours renders seconds as hours with the given number of decimal
// places, e.g. "83.70h".
func FormatHours(seconds decimal.Decimal, places int32) string {
	return Hours(seconds).StringFixed(places) + "h"
}

// FormatClock renders a Unix timestamp as HH:MM in loc.
func FormatClock(unix int64, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(unix, 0).In(loc).Format("15:04")
}

// ParseMonth accepts "2012-09", "2012/9" or "9.2012".
func ParseMonth(s string) (int, time.Month, error) {
	s = strings.TrimSpace(s)
	var ys, ms string
	switch {
	case strings.Contains(s, "-"):
		ys, ms, _ = strings.Cut(s, "-")
	case strings.Contains(s, "/"):
		ys, ms, _ = strings.Cut(s, "/")
	case strings.Contains(s, "."):
		ms, ys, _ = strings.Cut(s, ".")
	default:
		return 0, 0, fmt.Errorf("invalid month %q: want YYYY-MM", s)
	}
	year, err := strconv.Atoi(ys)
	if err != nil || year < 1 {
		return 0, 0, fmt.Errorf("invalid year in %q", s)
	}
	month, err := strconv.Atoi(ms)
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("invalid month in %q", s)
	}
	return year, time.Month(month), nil
}

// MonthRange returns the first and the last second of a month in loc.
func MonthRange(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return first, first.AddDate(0, 1, 0).Add(-time.Second)
}

// ISOWeekLabel returns a label like "2026-W09".
func ISOWeekLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// StartOfDay returns 00:00:00 of the same day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59 of the same day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
