package models

import "strings"

// DefaultVerdict is shown until the judge has produced anything.
const DefaultVerdict = "Waiting for Judge..."

// blockedMarker is the legacy free-text convention for a safety rejection.
const blockedMarker = "BLOCKED"

// Prediction is the forecast attached to the selected strategy.
type Prediction struct {
	Confidence  float64 `json:"confidence"` // 0..100
	MovePct     float64 `json:"move_pct,omitempty"`
	TargetPrice float64 `json:"target_price,omitempty"`
}

// StrategyBet is the strategy picked for the current cycle.
type StrategyBet struct {
	StrategyName string     `json:"strategy_name"`
	Direction    string     `json:"direction,omitempty"`
	Prediction   Prediction `json:"prediction"`
}

// Verdict is the judge's decision for the current cycle.
type Verdict struct {
	Text    string `json:"text"`
	Blocked bool   `json:"blocked"`
}

// ParseVerdict builds a Verdict from the judge's free-text output.
func ParseVerdict(text string) Verdict {
	if text == "" {
		return Verdict{Text: DefaultVerdict}
	}
	return Verdict{Text: text, Blocked: strings.Contains(text, blockedMarker)}
}
