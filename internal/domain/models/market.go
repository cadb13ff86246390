package models

import "strings"

// MarketStats is the market section of a strategy snapshot.
type MarketStats struct {
	Price      float64 `json:"price"`
	ChangePct  float64 `json:"change_pct"`
	DayHigh    float64 `json:"day_high"`
	DayLow     float64 `json:"day_low"`
	Volume     int64   `json:"volume"`
	PanicScore float64 `json:"panic_score"` // 0..1
	VIX        float64 `json:"vix,omitempty"`
	SPYTrend   string  `json:"spy_trend,omitempty"`
}

// PanicLevel buckets a panic score. The zero value is PanicCalm, used
// before any market stats have been observed.
type PanicLevel int

const (
	PanicCalm PanicLevel = iota
	PanicLow
	PanicNormal
	PanicHigh
	PanicExtreme
)

const (
	panicNormalFrom  = 0.30
	panicHighFrom    = 0.50
	panicExtremeOver = 0.80
)

// ClassifyPanic maps a panic score to its level:
// [0,0.30) LOW, [0.30,0.50) NORMAL, [0.50,0.80] HIGH, (0.80,1] EXTREME.
func ClassifyPanic(score float64) PanicLevel {
	switch {
	case score > panicExtremeOver:
		return PanicExtreme
	case score >= panicHighFrom:
		return PanicHigh
	case score >= panicNormalFrom:
		return PanicNormal
	default:
		return PanicLow
	}
}

// Label returns the human readable panic meter label.
func (l PanicLevel) Label() string {
	switch l {
	case PanicLow:
		return "LOW (Complacent)"
	case PanicNormal:
		return "NORMAL"
	case PanicHigh:
		return "HIGH (Fear)"
	case PanicExtreme:
		return "EXTREME (Crash Risk)"
	default:
		return "CALM"
	}
}

func (l PanicLevel) String() string { return l.Label() }

// ColorClass returns the CSS class used to paint the panic meter.
func (l PanicLevel) ColorClass() string {
	switch l {
	case PanicExtreme:
		return "text-red-500 animate-pulse"
	case PanicHigh:
		return "text-orange-400"
	case PanicLow:
		return "text-blue-400"
	default:
		return "text-green-400"
	}
}

// ParsePanicLabel recovers a level from a free-text label. Matching is by
// substring, EXTREME first, then HIGH, then LOW; anything else is calm.
func ParsePanicLabel(label string) PanicLevel {
	switch {
	case strings.Contains(label, "EXTREME"):
		return PanicExtreme
	case strings.Contains(label, "HIGH"):
		return PanicHigh
	case strings.Contains(label, "LOW"):
		return PanicLow
	case strings.Contains(label, "NORMAL"):
		return PanicNormal
	default:
		return PanicCalm
	}
}
