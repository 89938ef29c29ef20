package models

// ExperienceLevel gates which strategy complexity tiers a caller may be
// sized into.
type ExperienceLevel string

const (
	// ExperienceBasic is a new options trader.
	ExperienceBasic ExperienceLevel = "basic"
	// ExperienceIntermediate has traded spreads before.
	ExperienceIntermediate ExperienceLevel = "intermediate"
	// ExperiencePro manages multi-leg positions actively.
	ExperiencePro ExperienceLevel = "pro"
)

// Valid returns true if the ExperienceLevel is one of the defined
// constants.
func (e ExperienceLevel) Valid() bool {
	return e == ExperienceBasic || e == ExperienceIntermediate || e == ExperiencePro
}

// Rank orders experience levels for gate comparisons. Unknown levels rank
// lowest.
func (e ExperienceLevel) Rank() int {
	switch e {
	case ExperienceBasic:
		return 1
	case ExperienceIntermediate:
		return 2
	case ExperiencePro:
		return 3
	default:
		return 0
	}
}

// OpenPosition is an existing position in the caller's portfolio, reduced
// to what the sizer needs: its aggregate Greeks, notional exposure, and
// remaining defined max loss.
type OpenPosition struct {
	Symbol   string  `json:"symbol"`
	Greeks   Greeks  `json:"greeks"`
	Notional float64 `json:"notional"`
	MaxLoss  float64 `json:"max_loss"`
}

// PortfolioState is the caller-owned account view consumed by the sizer.
// The core never substitutes defaults for a missing state; callers must
// supply it explicitly.
type PortfolioState struct {
	AccountEquity float64         `json:"account_equity"`
	Positions     []OpenPosition  `json:"positions"`
	Experience    ExperienceLevel `json:"experience_level"`
	// RiskAppetite in [0,1] scales the fractional-Kelly multiplier within
	// its configured bounds. 0 is most conservative.
	RiskAppetite float64 `json:"risk_appetite"`
}

// OpenMaxLoss returns the summed defined max loss across open positions.
func (p *PortfolioState) OpenMaxLoss() float64 {
	var total float64
	for _, pos := range p.Positions {
		total += pos.MaxLoss
	}
	return total
}

// AggregateGreeks returns the summed Greeks across open positions.
func (p *PortfolioState) AggregateGreeks() Greeks {
	var g Greeks
	for _, pos := range p.Positions {
		g = g.Add(pos.Greeks)
	}
	return g
}
