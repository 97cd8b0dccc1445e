package timecalc

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	minutesPerDay  = 24 * 60
	minutesPerHalf = 12 * 60
)

// ParseClock converts a portal time string like "4:03:30 PM" into minutes
// since midnight. Anything it cannot read yields 0.
func ParseClock(s string) int {
	fields := strings.Fields(cleanClock(s))
	if len(fields) < 2 {
		return 0
	}
	clock, period := fields[0], fields[1]

	parts := strings.Split(clock, ":")
	if len(parts) < 2 {
		return 0
	}
	hours, ok := clockPart(parts[0])
	if !ok {
		return 0
	}
	minutes, ok := clockPart(parts[1])
	if !ok {
		return 0
	}

	total := hours*60 + minutes
	switch {
	case period == "PM" && hours != 12:
		total += minutesPerHalf
	case period == "AM" && hours == 12:
		total = minutes
	}
	return total
}

// cleanClock drops every rune other than digits, ':', 'A', 'P', 'M' and
// whitespace.
func cleanClock(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == ':', r == 'A', r == 'P', r == 'M':
			return r
		case r == ' ', r == '\t', r == '\n', r == '\r', r == '\f', r == '\v':
			return r
		}
		return -1
	}, s)
}

// clockPart reads one ':'-separated component. An empty component counts as 0.
func clockPart(s string) (int, bool) {
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Duration returns the minutes between clockIn and clockOut. A clock-out
// earlier than the clock-in is taken to be after midnight.
func Duration(clockIn, clockOut string) int {
	d := ParseClock(clockOut) - ParseClock(clockIn)
	if d < 0 {
		d += minutesPerDay
	}
	return d
}

// MinutesOfDay returns the wall-clock minutes since midnight of t.
func MinutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// FormatMinutes formats minutes as "7h 5m".
func FormatMinutes(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// FormatClock formats t as a 12-hour clock time, e.g. "04:30 PM".
func FormatClock(t time.Time) string {
	return t.Format("03:04 PM")
}

// FormatDate formats t like "Friday, February 27, 2026".
func FormatDate(t time.Time) string {
	return t.Format("Monday, January 2, 2006")
}

// FormatDuration formats seconds as a human-readable string like "1h 40m" or "45m" or "30s".
func FormatDuration(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%ds", s)
}
