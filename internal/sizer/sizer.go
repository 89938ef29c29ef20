// Package sizer converts a strategy candidate plus portfolio state into a
// bounded position size under a fractional-Kelly discipline and a single
// policy table of hard caps.
package sizer

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/halpertlabs/flightdeck/internal/config"
	"github.com/halpertlabs/flightdeck/internal/models"
)

// Zero-contract reasons.
const (
	ReasonNoEdge         = "no_edge"
	ReasonExperienceGate = "experience_gate"
	ReasonMinEquity      = "min_equity"
)

// Sizer applies the policy table: Kelly fraction, per-trade cap, portfolio
// cap, leverage cap, experience gates, and the minimum-equity floor.
// Stateless; safe for concurrent use.
type Sizer struct {
	kelly  config.KellyConfig
	caps   config.CapsConfig
	tiers  map[models.StrategyTemplate]models.ExperienceLevel
	logger *logrus.Logger
}

// New returns a Sizer bound to the given policy. A nil logger falls back
// to the standard logrus logger.
func New(cfg *config.Config, logger *logrus.Logger) *Sizer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Sizer{
		kelly:  cfg.Kelly,
		caps:   cfg.Caps,
		tiers:  cfg.Experience.Tiers,
		logger: logger,
	}
}

// Size returns the sizing decision for one candidate. A zero-contract
// decision is a valid terminal outcome carried as data, never an error:
// the candidate had no positive edge, the caller failed a gate, or the
// tightest cap rounds to zero whole contracts.
//
// The caps are applied as the minimum of: fractional-Kelly budget,
// per-trade max loss, remaining portfolio max-loss budget, and the
// leverage budget (margin of a defined-risk structure is its max loss).
// The binding cap is recorded on the decision.
func (s *Sizer) Size(candidate models.StrategyCandidate, portfolio models.PortfolioState) models.SizingDecision {
	decision := models.SizingDecision{CandidateID: candidate.ID}

	if required, ok := s.tiers[candidate.Template]; ok && portfolio.Experience.Rank() < required.Rank() {
		decision.Reason = ReasonExperienceGate
		return decision
	}
	if portfolio.AccountEquity < s.caps.MinEquity {
		decision.Reason = ReasonMinEquity
		return decision
	}

	// Full Kelly: f* = p - (1-p)/b with b the profit/loss odds.
	b := candidate.MaxProfit / candidate.MaxLoss
	p := candidate.ProbProfit
	kellyFull := p - (1-p)/b
	decision.KellyFull = kellyFull
	if kellyFull <= 0 {
		decision.Reason = ReasonNoEdge
		decision.AppliedCap = models.CapKelly
		return decision
	}

	// Risk appetite scales the fractional multiplier between half and full.
	appetite := clamp01(portfolio.RiskAppetite)
	kellyApplied := kellyFull * s.kelly.Fraction * (0.5 + 0.5*appetite)
	decision.KellyApplied = kellyApplied

	// The tightest dollar budget wins; comparing budgets rather than
	// floored contract counts keeps the binding-cap name meaningful when
	// several caps round to the same count.
	budget := kellyApplied * portfolio.AccountEquity
	decision.AppliedCap = models.CapKelly

	apply := func(name string, b float64) {
		if b < budget {
			budget = b
			decision.AppliedCap = name
		}
	}
	apply(models.CapPerTrade, s.caps.PerTradePct*portfolio.AccountEquity)
	apply(models.CapPortfolio, s.caps.PortfolioPct*portfolio.AccountEquity-portfolio.OpenMaxLoss())
	apply(models.CapLeverage, s.caps.LeveragePct*portfolio.AccountEquity)

	contracts := floor(budget / candidate.MaxLoss)

	if contracts <= 0 {
		decision.Contracts = 0
		decision.Reason = decision.AppliedCap
		s.logger.WithFields(logrus.Fields{
			"candidate": candidate.ID,
			"template":  candidate.Template,
			"cap":       decision.AppliedCap,
		}).Debug("sizing produced zero contracts")
		return decision
	}

	decision.Contracts = contracts
	decision.DollarRisk = float64(contracts) * candidate.MaxLoss
	decision.GreeksDelta = candidate.Greeks.Scale(float64(contracts))
	return decision
}

// floor rounds a contract count down to whole contracts, never below zero.
func floor(x float64) int {
	if x < 0 {
		return 0
	}
	return int(math.Floor(x))
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
