package usecase

import (
	"time"

	"FinDash/internal/domain/models"
)

// InitialVerdict is shown before the first snapshot has been applied.
const InitialVerdict = "Initializing Connection to Brain..."

// InitialState is the dashboard before any snapshot was loaded.
func InitialState(now time.Time) models.DashboardState {
	return models.DashboardState{
		BuiltAt:    now,
		Market:     marketView(nil),
		Consultant: models.ConsultantView{Verdict: InitialVerdict},
		Brain:      models.BrainView{Logs: []models.LogEntry{}},
		Portfolio: models.PortfolioView{
			Portfolio:       models.EmptyPortfolio(),
			BacktestHistory: []models.BacktestRecord{},
			BacktestStats:   models.EmptyBacktestStats(),
		},
	}
}

// Reduce builds the next dashboard state from a snapshot. Nothing carries
// over from prev except the revision counter; absent sections take their
// defaults.
func Reduce(prev models.DashboardState, snap *models.Snapshot, now time.Time) models.DashboardState {
	if snap == nil {
		snap = &models.Snapshot{}
	}

	verdict := models.Verdict{Text: models.DefaultVerdict}
	if snap.Verdict != nil {
		verdict = *snap.Verdict
	}

	next := models.DashboardState{
		Revision:   prev.Revision + 1,
		Symbol:     snap.Symbol,
		SnapshotAt: snap.Timestamp,
		BuiltAt:    now,
		Market:     marketView(snap.MarketStats),
		Consultant: models.ConsultantView{
			Verdict:        verdict.Text,
			VerdictBlocked: verdict.Blocked,
			BestBet:        snap.BestBet,
		},
		Brain: models.BrainView{Logs: GenerateLogs(verdict, snap.BestBet, now)},
		Portfolio: models.PortfolioView{
			Portfolio:       models.EmptyPortfolio(),
			BacktestHistory: backtestRows(snap.BacktestHistory),
			BacktestStats:   models.EmptyBacktestStats(),
		},
	}
	if p := snap.Portfolio; p != nil {
		next.Portfolio.Portfolio = *p
		if next.Portfolio.Portfolio.OpenTrades == nil {
			next.Portfolio.Portfolio.OpenTrades = []models.Trade{}
		}
		if next.Portfolio.Portfolio.History == nil {
			next.Portfolio.Portfolio.History = []models.ClosedTrade{}
		}
	}
	if s := snap.BacktestStats; s != nil {
		next.Portfolio.BacktestStats = *s
		if next.Portfolio.BacktestStats.Strategies == nil {
			next.Portfolio.BacktestStats.Strategies = []models.StrategyPerformance{}
		}
		if next.Portfolio.BacktestStats.Regimes == nil {
			next.Portfolio.BacktestStats.Regimes = map[string]float64{}
		}
	}
	return next
}

func marketView(m *models.MarketStats) models.MarketView {
	if m == nil {
		return models.MarketView{
			Change:     FormatChange(0),
			Volume:     FormatVol(0),
			PanicLevel: models.PanicCalm.Label(),
			PanicColor: models.PanicCalm.ColorClass(),
		}
	}
	level := models.ClassifyPanic(m.PanicScore)
	return models.MarketView{
		Price:      m.Price,
		Change:     FormatChange(m.ChangePct),
		ChangePct:  m.ChangePct,
		DayHigh:    m.DayHigh,
		DayLow:     m.DayLow,
		Volume:     FormatVol(m.Volume),
		PanicScore: m.PanicScore,
		PanicLevel: level.Label(),
		PanicColor: level.ColorClass(),
		VIX:        m.VIX,
		SPYTrend:   m.SPYTrend,
	}
}

// backtestRows copies the rows and fills the short display date.
func backtestRows(in []models.BacktestRecord) []models.BacktestRecord {
	out := make([]models.BacktestRecord, len(in))
	for i, r := range in {
		r.Date = FormatDate(r.Timestamp)
		out[i] = r
	}
	return out
}
