package usecase

import (
	"math"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatVol(t *testing.T) {
	assert.Equal(t, "1.5M", FormatVol(1_500_000))
	assert.Equal(t, "2.5K", FormatVol(2_500))
	assert.Equal(t, "500", FormatVol(500))
	assert.Equal(t, "0", FormatVol(0))
	assert.Equal(t, "1000.0K", FormatVol(1_000_000))
	assert.Equal(t, "1000", FormatVol(1_000))

	shape := regexp.MustCompile(`^\d+(\.\d)?[MK]?$`)
	for _, v := range []int64{1, 999, 1001, 45_678, 999_999, 1_000_001, 48_250_000, 7_000_000_000} {
		assert.Regexp(t, shape, FormatVol(v), "volume %d", v)
	}
}

func TestFormatChange(t *testing.T) {
	assert.Equal(t, "0.00%", FormatChange(math.NaN()))
	assert.Equal(t, "0.00%", FormatChange(math.Inf(1)))
	assert.Equal(t, "+1.23%", FormatChange(1.23))
	assert.Equal(t, "-0.5%", FormatChange(-0.5))
	assert.Equal(t, "+0%", FormatChange(0))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "Jan 5", FormatDate("2025-01-05 16:00:00"))
	assert.Equal(t, "", FormatDate(""))
}

func TestPanicColorBySubstring(t *testing.T) {
	assert.Equal(t, "text-red-500 animate-pulse", PanicColor("EXTREME (Crash Risk)"))
	assert.Equal(t, "text-orange-400", PanicColor("HIGH (Fear)"))
	assert.Equal(t, "text-blue-400", PanicColor("LOW (Complacent)"))
	assert.Equal(t, "text-green-400", PanicColor("NORMAL"))
	assert.Equal(t, "text-green-400", PanicColor("CALM"))
	// EXTREME wins over HIGH when both appear.
	assert.Equal(t, "text-red-500 animate-pulse", PanicColor("HIGH then EXTREME"))
}
