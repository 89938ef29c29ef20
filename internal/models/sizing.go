package models

// Cap names recorded on a SizingDecision to explain which limit bound the
// final size.
const (
	// CapKelly means the fractional-Kelly budget itself was the limit.
	CapKelly = "kelly"
	// CapPerTrade is the per-trade max-loss cap.
	CapPerTrade = "per_trade"
	// CapPortfolio is the aggregate portfolio max-loss cap.
	CapPortfolio = "portfolio"
	// CapLeverage is the margin-vs-equity leverage cap.
	CapLeverage = "leverage"
)

// SizingDecision is the risk sizer's output for one candidate: how many
// contracts to trade, the dollar risk committed, which cap bound the size,
// and the Greeks the trade adds to the portfolio.
//
// Contracts == 0 is the valid "no trade recommended" terminal outcome
// (zero edge, an experience gate, or a cap-forced zero size); Reason then
// explains why. It is data, never an error.
type SizingDecision struct {
	CandidateID string `json:"candidate_id"`
	Contracts   int    `json:"contracts"`
	// DollarRisk is Contracts * candidate MaxLoss: the worst-case dollars
	// committed. Never exceeds the tightest applicable cap.
	DollarRisk float64 `json:"dollar_risk"`
	// AppliedCap names the binding limit (CapKelly, CapPerTrade,
	// CapPortfolio, or CapLeverage).
	AppliedCap string `json:"applied_cap"`
	// KellyFull is the unscaled Kelly fraction; KellyApplied is after the
	// fractional multiplier.
	KellyFull    float64 `json:"kelly_full"`
	KellyApplied float64 `json:"kelly_applied"`
	// GreeksDelta is the change to portfolio Greeks if the trade is opened
	// at the recommended size.
	GreeksDelta Greeks `json:"greeks_delta"`
	// Reason is set on zero-contract decisions ("no_edge",
	// "experience_gate", "min_equity", or the binding cap name).
	Reason string `json:"reason,omitempty"`
}

// NoTrade reports whether the decision is the zero-size terminal outcome.
func (d SizingDecision) NoTrade() bool {
	return d.Contracts == 0
}
