package models

// Trade is an open paper trade.
type Trade struct {
	ID         int64   `json:"id"`
	Symbol     string  `json:"symbol"`
	EntryPrice float64 `json:"entry_price"`
	StrategyID string  `json:"strategy_id"`
	Direction  string  `json:"direction,omitempty"`
	EntryDate  string  `json:"entry_date,omitempty"`
}

// ClosedTrade is a closed paper trade together with its lesson.
type ClosedTrade struct {
	ID         int64   `json:"id"`
	StrategyID string  `json:"strategy_id"`
	PnL        float64 `json:"pnl"`
	Lesson     string  `json:"lesson,omitempty"`
	ExitDate   string  `json:"exit_date,omitempty"`
}

// PortfolioSnapshot summarises paper trading results.
type PortfolioSnapshot struct {
	TotalPnL    float64       `json:"total_pnl"`
	WinRate     float64       `json:"win_rate"`
	TotalTrades int           `json:"total_trades"`
	OpenTrades  []Trade       `json:"open_trades"`
	History     []ClosedTrade `json:"history"`
}

// EmptyPortfolio is the default used when a snapshot carries no portfolio.
func EmptyPortfolio() PortfolioSnapshot {
	return PortfolioSnapshot{OpenTrades: []Trade{}, History: []ClosedTrade{}}
}
