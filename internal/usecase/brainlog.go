package usecase

import (
	"strconv"
	"time"

	"FinDash/internal/domain/models"
	"FinDash/pkg/util"
)

const (
	colorScan     = "text-gray-500"
	colorShield   = "text-red-500 font-bold"
	colorBlocked  = "text-red-400"
	colorValid    = "text-green-500"
	colorJudge    = "text-blue-300"
	colorSelected = "text-yellow-400"
)

// GenerateLogs synthesizes the BRAIN tab narrative for one cycle. Every
// entry carries the same timestamp, taken from now.
func GenerateLogs(v models.Verdict, bet *models.StrategyBet, now time.Time) []models.LogEntry {
	at := util.ClockTime(now)
	entry := func(msg, color string) models.LogEntry {
		return models.LogEntry{Time: at, Msg: msg, ColorClass: color}
	}

	logs := make([]models.LogEntry, 0, 5)
	logs = append(logs, entry("⚡ Scanning Market Protocols...", colorScan))

	if v.Blocked {
		return append(logs,
			entry("⚠️ SAFETY SHIELD ACTIVATED", colorShield),
			entry(v.Text, colorBlocked),
		)
	}

	logs = append(logs,
		entry("✅ Market Regime Validated", colorValid),
		entry("⚖️ Judge: "+v.Text, colorJudge),
	)
	if bet != nil {
		conf := strconv.FormatFloat(bet.Prediction.Confidence, 'f', -1, 64)
		logs = append(logs,
			entry("🎯 Selected: "+bet.StrategyName, colorSelected),
			entry("📊 Confidence: "+conf+"%", colorSelected),
		)
	}
	return logs
}
