// Package manual renders a {regime, candidate, sizing} triple into the
// flight manual trade plan. Pure presentation: every number in the output
// is formatted from its upstream field in a single call and never
// re-derived, so the text cannot drift from the sizing math.
package manual

import (
	"fmt"
	"strings"

	"github.com/halpertlabs/flightdeck/internal/config"
	"github.com/halpertlabs/flightdeck/internal/models"
)

// Engine formats flight manuals. Stateless beyond its policy knobs; safe
// for concurrent use.
type Engine struct {
	gapClosePct float64
}

// New returns an Engine with the given rendering policy.
func New(cfg config.ManualConfig) *Engine {
	return &Engine{gapClosePct: cfg.GapClosePct}
}

var templateNames = map[models.StrategyTemplate]string{
	models.IronCondor:       "iron condor",
	models.IronButterfly:    "iron butterfly",
	models.DebitCallSpread:  "debit call spread",
	models.DebitPutSpread:   "debit put spread",
	models.CallCreditSpread: "call credit spread",
	models.CashSecuredPut:   "cash-secured put",
	models.LongStraddle:     "long straddle",
	models.CalendarSpread:   "calendar spread",
}

// Explain renders the flight manual for one sized candidate. The RiskReward
// block carries the source values verbatim; the prose around them formats
// each value exactly once.
func (e *Engine) Explain(regime models.RegimeClassification, candidate models.StrategyCandidate, sizing models.SizingDecision) models.FlightManual {
	name := templateNames[candidate.Template]
	if name == "" {
		name = string(candidate.Template)
	}

	return models.FlightManual{
		Headline:  fmt.Sprintf("%s: %d x %s", candidate.Symbol, sizing.Contracts, name),
		Thesis:    e.thesis(regime, candidate, name),
		Setup:     e.setup(candidate, sizing),
		RiskBlock: e.riskBlock(candidate, sizing),
		RiskReward: models.RiskReward{
			MaxProfit:  candidate.MaxProfit,
			MaxLoss:    candidate.MaxLoss,
			DollarRisk: sizing.DollarRisk,
			ProbProfit: candidate.ProbProfit,
			Contracts:  sizing.Contracts,
			AppliedCap: sizing.AppliedCap,
		},
		Timing:      e.timing(regime, candidate),
		Contingency: fmt.Sprintf("Close immediately if %s gaps more than %.1f%% against the position.", candidate.Symbol, e.gapClosePct*100),
	}
}

func (e *Engine) thesis(regime models.RegimeClassification, candidate models.StrategyCandidate, name string) string {
	var b strings.Builder
	switch regime.Regime {
	case models.TrendUp:
		b.WriteString("The tape is in a confirmed uptrend: the 50-bar average holds above the 200-bar and price trades above both. ")
	case models.TrendDown:
		b.WriteString("The tape is in a confirmed downtrend: the 50-bar average holds below the 200-bar and price trades below both. ")
	case models.MeanReversion:
		b.WriteString("Price keeps oscillating around its 20-bar mean with no sustained trend cross. ")
	case models.HighVolExpansion:
		b.WriteString("Realized volatility has expanded into the top of its recent range. ")
	case models.LowVolCompression:
		b.WriteString("Volatility is compressed and the tape lacks direction. ")
	default:
		b.WriteString("Market regime is unclassified. ")
	}

	if candidate.NetCredit > 0 {
		fmt.Fprintf(&b, "The %s collects premium that is kept while price behaves as classified. ", name)
	} else {
		fmt.Fprintf(&b, "The %s pays a known debit for a position that profits if the classification plays out. ", name)
	}
	fmt.Fprintf(&b, "Classifier confidence %.0f%%.", regime.Confidence*100)
	return b.String()
}

func (e *Engine) setup(candidate models.StrategyCandidate, sizing models.SizingDecision) []string {
	steps := make([]string, 0, len(candidate.Legs)+1)
	for i, l := range candidate.Legs {
		steps = append(steps, fmt.Sprintf("Leg %d: %s %d x %s at %.2f.",
			i+1, l.Side, l.Quantity*sizing.Contracts, l.Contract.Symbol(), l.Price))
	}
	steps = append(steps, "Work all legs as a single order; do not leg in.")
	return steps
}

func (e *Engine) riskBlock(candidate models.StrategyCandidate, sizing models.SizingDecision) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Max profit $%.2f, max loss $%.2f per contract set. ", candidate.MaxProfit, candidate.MaxLoss)
	fmt.Fprintf(&b, "At %d contract(s) the position risks $%.2f; the binding limit was the %s cap. ",
		sizing.Contracts, sizing.DollarRisk, sizing.AppliedCap)
	fmt.Fprintf(&b, "Model probability of the max-profit outcome: %.1f%% (risk-neutral, not a win rate).",
		candidate.ProbProfit*100)
	return b.String()
}

func (e *Engine) timing(regime models.RegimeClassification, candidate models.StrategyCandidate) []string {
	rules := []string{
		fmt.Sprintf("Enter only while the %s classification holds; re-check the regime before working the order.", regime.Regime),
	}
	switch len(candidate.Breakevens) {
	case 1:
		rules = append(rules, fmt.Sprintf("Reassess if the underlying trades through the %.2f breakeven.", candidate.Breakevens[0]))
	case 2:
		rules = append(rules, fmt.Sprintf("Reassess if the underlying trades outside the %.2f to %.2f breakeven range.",
			candidate.Breakevens[0], candidate.Breakevens[1]))
	}
	if candidate.NetCredit > 0 {
		rules = append(rules, "Take the trade off early once most of the credit has decayed.")
	} else {
		rules = append(rules, "Do not hold through the final week before expiration; theta decay accelerates against debit structures.")
	}
	return rules
}
