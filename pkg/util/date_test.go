package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2024-10-10T10:10:10Z", time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC), true},
		{"2024-10-10T10:10:10.25Z", time.Date(2024, 10, 10, 10, 10, 10, 250_000_000, time.UTC), true},
		{"2025-01-05 16:00:00", time.Date(2025, 1, 5, 16, 0, 0, 0, time.UTC), true},
		{"2025-01-05", time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), true},
		{"1728555010", time.Unix(1728555010, 0), true},
		{"", time.Time{}, false},
		{"-5", time.Time{}, false},
		{"soon", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseTime(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.True(t, tt.want.Equal(got), "%q parsed as %v", tt.in, got)
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	assert.Equal(t, def, ParseTimeDefault("", def))
	assert.Equal(t, def, ParseTimeDefault("garbage", def))
	assert.NotEqual(t, def, ParseTimeDefault("2025-01-05", def))
}

func TestFormatShortDate(t *testing.T) {
	for in, want := range map[string]string{
		"2025-01-05":           "Jan 5",
		"2025-12-24 09:30:00":  "Dec 24",
		"2024-10-10T10:10:10Z": "Oct 10",
		"":                     "",
		"yesterday":            "yesterday",
	} {
		assert.Equal(t, want, FormatShortDate(in), in)
	}
}

func TestClockTime(t *testing.T) {
	assert.Equal(t, "3:04:05 PM", ClockTime(time.Date(2025, 1, 5, 15, 4, 5, 0, time.UTC)))
	assert.Equal(t, "12:00:00 AM", ClockTime(time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)))
}

func TestSplitSymbols(t *testing.T) {
	assert.Equal(t, []string{"AAPL", "BRK.B", "TSLA"}, SplitSymbols(" aapl, brk.b,,TSLA ,"))
	assert.Empty(t, SplitSymbols(" , "))
}
