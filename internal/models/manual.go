package models

// RiskReward is the flight manual's numeric block. Every field is copied
// verbatim from the SizingDecision / StrategyCandidate it was built from,
// never re-derived, so UI text and sizing math cannot drift apart.
type RiskReward struct {
	MaxProfit  float64 `json:"max_profit"`
	MaxLoss    float64 `json:"max_loss"`
	DollarRisk float64 `json:"dollar_risk"`
	ProbProfit float64 `json:"prob_profit"`
	Contracts  int     `json:"contracts"`
	AppliedCap string  `json:"applied_cap"`
}

// FlightManual is the structured, human-readable trade plan rendered from a
// {regime, candidate, sizing} triple. Pure presentation: all numbers are
// sourced from the upstream objects.
type FlightManual struct {
	Headline string `json:"headline"`
	// Thesis is the "why now" paragraph referencing the regime and its
	// confidence.
	Thesis string `json:"thesis"`
	// Setup is the ordered per-leg entry checklist.
	Setup []string `json:"setup"`
	// RiskBlock is the formatted risk/reward text; RiskReward carries the
	// same values numerically.
	RiskBlock  string     `json:"risk_block"`
	RiskReward RiskReward `json:"risk_reward"`
	// Timing holds entry/exit timing rules.
	Timing []string `json:"timing"`
	// Contingency is the escape rule for when the trade gaps against the
	// position.
	Contingency string `json:"contingency"`
}

// Recommendation is one element of the pipeline output: the regime that
// drove routing, the ranked candidate, its sizing, and the rendered manual.
type Recommendation struct {
	ID        string               `json:"id"`
	Regime    RegimeClassification `json:"regime"`
	Candidate StrategyCandidate    `json:"candidate"`
	Sizing    SizingDecision       `json:"sizing"`
	Manual    FlightManual         `json:"flight_manual"`
}
