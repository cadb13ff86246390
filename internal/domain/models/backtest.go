package models

// StrategyPerformance aggregates backtest outcomes per strategy.
// Older exports only carry the name.
type StrategyPerformance struct {
	Name       string  `json:"name"`
	Count      int     `json:"count,omitempty"`
	AvgOutcome float64 `json:"avg_outcome,omitempty"`
	WinRate    float64 `json:"win_rate,omitempty"`
}

// BacktestStats summarises the backtest history table.
type BacktestStats struct {
	TotalDecisions int                   `json:"total_decisions"`
	Strategies     []StrategyPerformance `json:"strategies"`
	Regimes        map[string]float64    `json:"regimes"`
}

// EmptyBacktestStats is the default used when a snapshot carries no stats.
func EmptyBacktestStats() BacktestStats {
	return BacktestStats{Strategies: []StrategyPerformance{}, Regimes: map[string]float64{}}
}

// BacktestRecord is one historical judge decision with its outcomes.
type BacktestRecord struct {
	Timestamp           string   `json:"timestamp"`
	Date                string   `json:"date,omitempty"` // short display date
	Symbol              string   `json:"symbol"`
	Price               float64  `json:"price"`
	IV                  float64  `json:"iv,omitempty"`
	VIX                 float64  `json:"vix,omitempty"`
	Verdict             string   `json:"verdict"`
	RecommendedStrategy string   `json:"recommended_strategy,omitempty"`
	StrategyDirection   string   `json:"strategy_direction,omitempty"`
	Confidence          float64  `json:"confidence,omitempty"`
	Outcome1D           *float64 `json:"outcome_1d,omitempty"`
	Outcome3D           *float64 `json:"outcome_3d,omitempty"`
	Outcome7D           *float64 `json:"outcome_7d,omitempty"`
	MarketRegime        string   `json:"market_regime,omitempty"`
}
