package usecase

import (
	"fmt"
	"math"
	"strconv"

	"FinDash/internal/domain/models"
	"FinDash/pkg/util"
)

// FormatVol abbreviates a share volume: 1500000 is "1.5M", 2500 is "2.5K",
// 500 is "500" and 0 is "0".
func FormatVol(v int64) string {
	switch {
	case v <= 0:
		return "0"
	case v > 1_000_000:
		return fmt.Sprintf("%.1fM", float64(v)/1_000_000)
	case v > 1_000:
		return fmt.Sprintf("%.1fK", float64(v)/1_000)
	default:
		return strconv.FormatInt(v, 10)
	}
}

// FormatChange renders a percentage change with an explicit sign for
// non-negative values, e.g. "+1.23%" or "-0.5%". Non-finite input is "0.00%".
func FormatChange(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0.00%"
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if v >= 0 {
		s = "+" + s
	}
	return s + "%"
}

// FormatDate renders a backtest timestamp as "Jan 2".
func FormatDate(ts string) string {
	return util.FormatShortDate(ts)
}

// PanicColor maps a panic label to its CSS class.
func PanicColor(label string) string {
	return models.ParsePanicLabel(label).ColorClass()
}
