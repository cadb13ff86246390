package models

// Rating classifies a stock's guidance.
type Rating string

const (
	RatingSafe  Rating = "Safe"
	RatingWatch Rating = "Watch"
	RatingAvoid Rating = "Avoid"
)

// BadgeClass returns the watchlist card badge class.
func (r Rating) BadgeClass() string {
	switch r {
	case RatingSafe:
		return "safe"
	case RatingAvoid:
		return "avoid"
	default:
		return "caution"
	}
}

// ChartColor returns the sparkline stroke color.
func (r Rating) ChartColor() string {
	switch r {
	case RatingSafe:
		return "#10b981"
	case RatingWatch:
		return "#f59e0b"
	case RatingAvoid:
		return "#ef4444"
	default:
		return "#64748b"
	}
}

// Guidance is the rating plus a one-line suggestion.
type Guidance struct {
	Rating Rating `json:"rating"`
	Action string `json:"action"`
}

// StockQuote is one watchlist card. History is chronological, oldest first.
type StockQuote struct {
	Symbol      string    `json:"symbol"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	LongTermAvg float64   `json:"longTermAvg"`
	Guidance    Guidance  `json:"guidance"`
	History     []float64 `json:"history"`
}
