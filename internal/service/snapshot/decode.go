package snapshot

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/tidwall/gjson"

	"FinDash/internal/domain/models"
)

// ErrNoPayload is returned when the input holds no JSON object at all.
var ErrNoPayload = errors.New("snapshot: no JSON object in payload")

// Decode parses a strategy export. Both the bare JSON object and the script
// form `window.STRATEGY_DATA = {...};` are accepted. Every section is
// optional; missing sections stay nil.
func Decode(raw []byte) (*models.Snapshot, error) {
	body, err := extractObject(raw)
	if err != nil {
		return nil, err
	}
	if !gjson.Valid(body) {
		return nil, fmt.Errorf("snapshot: malformed JSON")
	}
	root := gjson.Parse(body)

	snap := &models.Snapshot{
		Timestamp: root.Get("timestamp").String(),
		Symbol:    root.Get("symbol").String(),
	}
	if r := root.Get("market_stats"); r.IsObject() {
		snap.MarketStats = decodeMarket(r)
	}
	if r := root.Get("best_bet"); r.IsObject() {
		snap.BestBet = decodeBet(r)
	}
	snap.Verdict = decodeVerdict(root.Get("judge_verdict"))
	if r := root.Get("portfolio"); r.IsObject() {
		snap.Portfolio = decodePortfolio(r)
	}
	if r := root.Get("backtest_history"); r.IsArray() {
		snap.BacktestHistory = decodeHistory(r)
	}
	if r := root.Get("backtest_stats"); r.IsObject() {
		snap.BacktestStats = decodeStats(r)
	}
	return snap, nil
}

func extractObject(raw []byte) (string, error) {
	s := string(raw)
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return "", ErrNoPayload
	}
	return s[start : end+1], nil
}

func decodeMarket(r gjson.Result) *models.MarketStats {
	return &models.MarketStats{
		Price:      r.Get("price").Float(),
		ChangePct:  r.Get("change_pct").Float(),
		DayHigh:    r.Get("day_high").Float(),
		DayLow:     r.Get("day_low").Float(),
		Volume:     r.Get("volume").Int(),
		PanicScore: clamp(r.Get("panic_score").Float(), 0, 1),
		VIX:        r.Get("vix").Float(),
		SPYTrend:   r.Get("spy_trend").String(),
	}
}

func decodeBet(r gjson.Result) *models.StrategyBet {
	p := r.Get("prediction")
	return &models.StrategyBet{
		StrategyName: r.Get("strategy_name").String(),
		Direction:    r.Get("direction").String(),
		Prediction: models.Prediction{
			Confidence:  clamp(p.Get("confidence").Float(), 0, 100),
			MovePct:     p.Get("move_pct").Float(),
			TargetPrice: p.Get("target_price").Float(),
		},
	}
}

// decodeVerdict accepts the legacy free-text verdict or a structured
// {blocked, reason} object. Absent or null yields nil.
func decodeVerdict(r gjson.Result) *models.Verdict {
	switch {
	case r.Type == gjson.String:
		v := models.ParseVerdict(r.String())
		return &v
	case r.IsObject():
		text := r.Get("reason").String()
		if text == "" {
			text = r.Get("text").String()
		}
		blocked := r.Get("blocked").Bool()
		if text == "" {
			if blocked {
				text = "BLOCKED"
			} else {
				text = models.DefaultVerdict
			}
		}
		return &models.Verdict{Text: text, Blocked: blocked}
	default:
		return nil
	}
}

func decodePortfolio(r gjson.Result) *models.PortfolioSnapshot {
	p := models.EmptyPortfolio()
	p.TotalPnL = r.Get("total_pnl").Float()
	p.WinRate = r.Get("win_rate").Float()
	p.TotalTrades = int(r.Get("total_trades").Int())

	r.Get("open_trades").ForEach(func(_, t gjson.Result) bool {
		p.OpenTrades = append(p.OpenTrades, models.Trade{
			ID:         t.Get("id").Int(),
			Symbol:     t.Get("symbol").String(),
			EntryPrice: t.Get("entry_price").Float(),
			StrategyID: t.Get("strategy_id").String(),
			Direction:  t.Get("direction").String(),
			EntryDate:  t.Get("entry_date").String(),
		})
		return true
	})
	r.Get("history").ForEach(func(_, t gjson.Result) bool {
		p.History = append(p.History, models.ClosedTrade{
			ID:         t.Get("id").Int(),
			StrategyID: t.Get("strategy_id").String(),
			PnL:        t.Get("pnl").Float(),
			Lesson:     t.Get("lesson").String(),
			ExitDate:   t.Get("exit_date").String(),
		})
		return true
	})
	return &p
}

func decodeHistory(r gjson.Result) []models.BacktestRecord {
	out := make([]models.BacktestRecord, 0, len(r.Array()))
	r.ForEach(func(_, row gjson.Result) bool {
		if !row.IsObject() {
			return true
		}
		out = append(out, models.BacktestRecord{
			Timestamp:           row.Get("timestamp").String(),
			Symbol:              row.Get("symbol").String(),
			Price:               row.Get("price").Float(),
			IV:                  row.Get("iv").Float(),
			VIX:                 row.Get("vix").Float(),
			Verdict:             row.Get("verdict").String(),
			RecommendedStrategy: row.Get("recommended_strategy").String(),
			StrategyDirection:   row.Get("strategy_direction").String(),
			Confidence:          clamp(row.Get("confidence").Float(), 0, 100),
			Outcome1D:           optionalFloat(row.Get("outcome_1d")),
			Outcome3D:           optionalFloat(row.Get("outcome_3d")),
			Outcome7D:           optionalFloat(row.Get("outcome_7d")),
			MarketRegime:        row.Get("market_regime").String(),
		})
		return true
	})
	return out
}

func decodeStats(r gjson.Result) *models.BacktestStats {
	s := models.EmptyBacktestStats()
	s.TotalDecisions = int(r.Get("total_decisions").Int())

	r.Get("strategies").ForEach(func(_, v gjson.Result) bool {
		switch {
		case v.Type == gjson.String:
			s.Strategies = append(s.Strategies, models.StrategyPerformance{Name: v.String()})
		case v.IsObject():
			s.Strategies = append(s.Strategies, models.StrategyPerformance{
				Name:       v.Get("name").String(),
				Count:      int(v.Get("count").Int()),
				AvgOutcome: v.Get("avg_outcome").Float(),
				WinRate:    v.Get("win_rate").Float(),
			})
		}
		return true
	})
	r.Get("regimes").ForEach(func(k, v gjson.Result) bool {
		s.Regimes[k.String()] = v.Float()
		return true
	})
	return &s
}

func optionalFloat(r gjson.Result) *float64 {
	if r.Type != gjson.Number {
		return nil
	}
	v := r.Float()
	return &v
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case math.IsNaN(v):
		return lo
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}
