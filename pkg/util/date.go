package util

import (
	"strconv"
	"time"
)

// Layouts accepted by ParseTime, in the order they are tried.
var timeLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime tries RFC3339, SQL-style datetimes, plain dates and unix
// seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// FormatShortDate renders s as "Jan 2". Unparseable input is returned as is.
func FormatShortDate(s string) string {
	t, ok := ParseTime(s)
	if !ok {
		return s
	}
	return t.Format("Jan 2")
}

// ClockTime renders t as a 12-hour wall clock, e.g. "3:04:05 PM".
func ClockTime(t time.Time) string {
	return t.Format("3:04:05 PM")
}
