package models

import "time"

// Snapshot is one decoded strategy export. Every section is optional and a
// new snapshot always replaces the previous one whole.
type Snapshot struct {
	Timestamp       string             `json:"timestamp,omitempty"`
	Symbol          string             `json:"symbol,omitempty"`
	MarketStats     *MarketStats       `json:"market_stats,omitempty"`
	BestBet         *StrategyBet       `json:"best_bet,omitempty"`
	Verdict         *Verdict           `json:"judge_verdict,omitempty"`
	Portfolio       *PortfolioSnapshot `json:"portfolio,omitempty"`
	BacktestHistory []BacktestRecord   `json:"backtest_history,omitempty"`
	BacktestStats   *BacktestStats     `json:"backtest_stats,omitempty"`
}

// ArchivedMarket is one market stats row read back from the archive.
type ArchivedMarket struct {
	At         time.Time `json:"at"`
	Symbol     string    `json:"symbol"`
	Price      float64   `json:"price"`
	ChangePct  float64   `json:"change_pct"`
	Volume     int64     `json:"volume"`
	PanicScore float64   `json:"panic_score"`
	PanicLevel string    `json:"panic_level"`
	Verdict    string    `json:"verdict"`
	Blocked    bool      `json:"blocked"`
}
