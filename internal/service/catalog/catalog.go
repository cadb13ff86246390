// Package catalog maps ticker symbols to display names.
package catalog

// UnknownName is returned for symbols missing from the catalog.
const UnknownName = "Unknown Company"

var names = map[string]string{
	"AAPL":  "Apple Inc.",
	"VOO":   "Vanguard S&P 500",
	"MSFT":  "Microsoft Corp.",
	"TSLA":  "Tesla Inc.",
	"GOOGL": "Alphabet Inc.",
}

// DefaultWatchlist is used when no watchlist is configured.
var DefaultWatchlist = []string{"AAPL", "VOO", "MSFT", "TSLA", "GOOGL"}

// Name resolves a symbol's display name.
func Name(symbol string) string {
	if n, ok := names[symbol]; ok {
		return n
	}
	return UnknownName
}
