package models

import "time"

// LogEntry is one synthesized line of the BRAIN tab.
type LogEntry struct {
	Time       string `json:"time"`
	Msg        string `json:"msg"`
	ColorClass string `json:"color"`
}

// Tab names the dashboard sections.
type Tab string

const (
	TabConsultant Tab = "CONSULTANT"
	TabBrain      Tab = "BRAIN"
	TabPortfolio  Tab = "PORTFOLIO"
	TabAll        Tab = "ALL"
)

// MarketView is the formatted market header.
type MarketView struct {
	Price      float64 `json:"price"`
	Change     string  `json:"change"`
	ChangePct  float64 `json:"change_pct"`
	DayHigh    float64 `json:"day_high"`
	DayLow     float64 `json:"day_low"`
	Volume     string  `json:"volume"`
	PanicScore float64 `json:"panic_score"`
	PanicLevel string  `json:"panic_level"`
	PanicColor string  `json:"panic_color"`
	VIX        float64 `json:"vix,omitempty"`
	SPYTrend   string  `json:"spy_trend,omitempty"`
}

// ConsultantView is the CONSULTANT tab.
type ConsultantView struct {
	Verdict        string       `json:"verdict"`
	VerdictBlocked bool         `json:"verdict_blocked"`
	BestBet        *StrategyBet `json:"best_bet"`
}

// BrainView is the BRAIN tab.
type BrainView struct {
	Logs []LogEntry `json:"logs"`
}

// PortfolioView is the PORTFOLIO tab.
type PortfolioView struct {
	Portfolio       PortfolioSnapshot `json:"portfolio"`
	BacktestHistory []BacktestRecord  `json:"backtest_history"`
	BacktestStats   BacktestStats     `json:"backtest_stats"`
}

// DashboardState is the complete UI-ready state derived from one snapshot.
type DashboardState struct {
	Revision   uint64         `json:"revision"`
	Symbol     string         `json:"symbol,omitempty"`
	SnapshotAt string         `json:"snapshot_at,omitempty"`
	BuiltAt    time.Time      `json:"built_at"`
	Market     MarketView     `json:"market"`
	Consultant ConsultantView `json:"consultant"`
	Brain      BrainView      `json:"brain"`
	Portfolio  PortfolioView  `json:"portfolio"`
}

// Tab projects the state onto a single dashboard section.
func (s *DashboardState) Tab(tab Tab) any {
	switch tab {
	case TabConsultant:
		return struct {
			Market     MarketView     `json:"market"`
			Consultant ConsultantView `json:"consultant"`
		}{s.Market, s.Consultant}
	case TabBrain:
		return s.Brain
	case TabPortfolio:
		return s.Portfolio
	default:
		return s
	}
}
