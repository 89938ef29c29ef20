package models

import "time"

// Regime is a discrete classification of current market behavior. It drives
// which strategy templates are eligible for routing.
type Regime string

const (
	// TrendUp is a sustained uptrend with contained realized volatility.
	TrendUp Regime = "TREND_UP"
	// TrendDown is a sustained downtrend with contained realized volatility.
	TrendDown Regime = "TREND_DOWN"
	// MeanReversion is choppy, range-bound action around a short-term mean.
	MeanReversion Regime = "MEAN_REVERSION"
	// HighVolExpansion is a realized-volatility spike that overrides trend
	// signals.
	HighVolExpansion Regime = "HIGH_VOL_EXPANSION"
	// LowVolCompression is quiet, directionless tape with compressed vol.
	LowVolCompression Regime = "LOW_VOL_COMPRESSION"
)

// Valid returns true if the Regime is one of the defined constants.
func (r Regime) Valid() bool {
	switch r {
	case TrendUp, TrendDown, MeanReversion, HighVolExpansion, LowVolCompression:
		return true
	default:
		return false
	}
}

// RegimeClassification is the detector's output for one underlying:
// the regime, a confidence in [0,1], and the indicator values that drove
// the decision (keyed by indicator name, for explainability).
type RegimeClassification struct {
	Regime     Regime             `json:"regime"`
	Confidence float64            `json:"confidence"`
	Indicators map[string]float64 `json:"indicators"`
	ComputedAt time.Time          `json:"computed_at"`
}
