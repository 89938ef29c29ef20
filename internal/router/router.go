// Package router enumerates defined-risk multi-leg strategy candidates for
// a market regime, prices them off the valuation engine, and ranks them by
// risk-adjusted expected value.
package router

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/halpertlabs/flightdeck/internal/config"
	"github.com/halpertlabs/flightdeck/internal/models"
	"github.com/halpertlabs/flightdeck/internal/util"
	"github.com/halpertlabs/flightdeck/internal/valuation"
)

// templatesByRegime is the fixed regime to eligible-template mapping.
var templatesByRegime = map[models.Regime][]models.StrategyTemplate{
	models.TrendUp:           {models.DebitCallSpread, models.CashSecuredPut},
	models.TrendDown:         {models.DebitPutSpread, models.CallCreditSpread},
	models.MeanReversion:     {models.IronCondor, models.IronButterfly},
	models.HighVolExpansion:  {models.LongStraddle, models.CalendarSpread},
	models.LowVolCompression: {models.CalendarSpread, models.DebitCallSpread},
}

// Router builds and ranks strategy candidates. Stateless; safe for
// concurrent use.
type Router struct {
	cfg    config.RouterConfig
	logger *logrus.Logger
}

// New returns a Router with the given enumeration policy. A nil logger
// falls back to the standard logrus logger.
func New(cfg config.RouterConfig, logger *logrus.Logger) *Router {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Router{cfg: cfg, logger: logger}
}

// Route returns up to TopN candidates for the regime, ordered by efficiency
// (EV / max loss) descending. An empty slice is a valid result: it means
// nothing in the chain fit any eligible template's delta bands.
//
// riskAppetite in [0,1] steers short-strike selection within each
// template's delta band: higher appetite targets the higher-delta end.
//
// The caller's deadline is honored between templates; an expired context
// aborts enumeration and returns the context error with no partial result.
func (r *Router) Route(ctx context.Context, regime models.Regime, snap *models.MarketSnapshot, riskAppetite float64) ([]models.StrategyCandidate, error) {
	riskAppetite = clamp(riskAppetite, 0, 1)

	var candidates []models.StrategyCandidate
	for _, template := range templatesByRegime[regime] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		c, ok := r.build(template, snap, riskAppetite)
		if !ok {
			r.logger.WithFields(logrus.Fields{
				"symbol":   snap.Symbol,
				"template": template,
			}).Debug("template skipped: no usable strikes")
			continue
		}
		candidates = append(candidates, c)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Efficiency != candidates[j].Efficiency {
			return candidates[i].Efficiency > candidates[j].Efficiency
		}
		return candidates[i].EV > candidates[j].EV
	})
	if len(candidates) > r.cfg.TopN {
		candidates = candidates[:r.cfg.TopN]
	}
	return candidates, nil
}

func (r *Router) build(template models.StrategyTemplate, snap *models.MarketSnapshot, appetite float64) (models.StrategyCandidate, bool) {
	band := r.cfg.DeltaBands[template]

	switch template {
	case models.IronCondor:
		return r.ironCondor(snap, band, appetite)
	case models.IronButterfly:
		return r.ironButterfly(snap, band)
	case models.DebitCallSpread:
		return r.debitVertical(snap, band, appetite, models.Call)
	case models.DebitPutSpread:
		return r.debitVertical(snap, band, appetite, models.Put)
	case models.CallCreditSpread:
		return r.callCreditSpread(snap, band, appetite)
	case models.CashSecuredPut:
		return r.cashSecuredPut(snap, band, appetite)
	case models.LongStraddle:
		return r.longStraddle(snap)
	case models.CalendarSpread:
		return r.calendar(snap)
	}
	return models.StrategyCandidate{}, false
}

// ironCondor sells an OTM put and call inside the short band and buys
// further-OTM wings inside the long band.
func (r *Router) ironCondor(snap *models.MarketSnapshot, band config.DeltaBandConfig, appetite float64) (models.StrategyCandidate, bool) {
	expiry, ok := r.pickExpiry(snap, r.cfg.TargetDTE)
	if !ok {
		return models.StrategyCandidate{}, false
	}
	puts := usableQuotes(snap, models.Put, expiry)
	calls := usableQuotes(snap, models.Call, expiry)

	shortTarget := band.ShortMin + appetite*(band.ShortMax-band.ShortMin)
	shortPut, ok := r.findByDelta(snap, puts, band.ShortMin, band.ShortMax, shortTarget, nil)
	if !ok {
		return models.StrategyCandidate{}, false
	}
	shortCall, ok := r.findByDelta(snap, calls, band.ShortMin, band.ShortMax, shortTarget, nil)
	if !ok {
		return models.StrategyCandidate{}, false
	}

	longTarget := (band.LongMin + band.LongMax) / 2
	longPut, ok := r.findByDelta(snap, puts, band.LongMin, band.LongMax, longTarget,
		func(q models.OptionQuote) bool { return q.Contract.Strike < shortPut.Contract.Strike })
	if !ok {
		return models.StrategyCandidate{}, false
	}
	longCall, ok := r.findByDelta(snap, calls, band.LongMin, band.LongMax, longTarget,
		func(q models.OptionQuote) bool { return q.Contract.Strike > shortCall.Contract.Strike })
	if !ok {
		return models.StrategyCandidate{}, false
	}

	credit := limitPrice(shortPut) + limitPrice(shortCall) - limitPrice(longPut) - limitPrice(longCall)
	widthPut := shortPut.Contract.Strike - longPut.Contract.Strike
	widthCall := longCall.Contract.Strike - shortCall.Contract.Strike
	maxLossPts := math.Max(widthPut, widthCall) - credit
	if credit <= 0 || maxLossPts <= 0 {
		return models.StrategyCandidate{}, false
	}

	p := 1 - r.probITM(snap, shortCall) - r.probITM(snap, shortPut)
	legs := []models.StrategyLeg{
		leg(longPut, models.Buy),
		leg(shortPut, models.Sell),
		leg(shortCall, models.Sell),
		leg(longCall, models.Buy),
	}
	return r.finish(models.IronCondor, snap, legs, payoff{
		maxProfitPts: credit,
		maxLossPts:   maxLossPts,
		netCreditPts: credit,
		breakevens:   []float64{shortPut.Contract.Strike - credit, shortCall.Contract.Strike + credit},
		probProfit:   p,
	})
}

// ironButterfly sells the straddle at the strike nearest spot and buys
// protective wings inside the long band. Profit probability uses the ITM
// probabilities at the breakevens since both short strikes coincide.
func (r *Router) ironButterfly(snap *models.MarketSnapshot, band config.DeltaBandConfig) (models.StrategyCandidate, bool) {
	expiry, ok := r.pickExpiry(snap, r.cfg.TargetDTE)
	if !ok {
		return models.StrategyCandidate{}, false
	}
	puts := usableQuotes(snap, models.Put, expiry)
	calls := usableQuotes(snap, models.Call, expiry)

	shortCall, ok := nearestStrike(calls, snap.Spot)
	if !ok {
		return models.StrategyCandidate{}, false
	}
	shortPut, ok := quoteAtStrike(puts, shortCall.Contract.Strike)
	if !ok {
		return models.StrategyCandidate{}, false
	}

	longTarget := (band.LongMin + band.LongMax) / 2
	longPut, ok := r.findByDelta(snap, puts, band.LongMin, band.LongMax, longTarget,
		func(q models.OptionQuote) bool { return q.Contract.Strike < shortPut.Contract.Strike })
	if !ok {
		return models.StrategyCandidate{}, false
	}
	longCall, ok := r.findByDelta(snap, calls, band.LongMin, band.LongMax, longTarget,
		func(q models.OptionQuote) bool { return q.Contract.Strike > shortCall.Contract.Strike })
	if !ok {
		return models.StrategyCandidate{}, false
	}

	credit := limitPrice(shortPut) + limitPrice(shortCall) - limitPrice(longPut) - limitPrice(longCall)
	widthPut := shortPut.Contract.Strike - longPut.Contract.Strike
	widthCall := longCall.Contract.Strike - shortCall.Contract.Strike
	maxLossPts := math.Max(widthPut, widthCall) - credit
	if credit <= 0 || maxLossPts <= 0 {
		return models.StrategyCandidate{}, false
	}

	k := shortCall.Contract.Strike
	upperBE := k + credit
	lowerBE := k - credit
	t := shortCall.Contract.YearsToExpiry(snap.AsOf)
	p := 1 -
		valuation.ProbITM(r.params(snap, upperBE, t), shortCall.IV, models.Call) -
		valuation.ProbITM(r.params(snap, lowerBE, t), shortPut.IV, models.Put)

	legs := []models.StrategyLeg{
		leg(longPut, models.Buy),
		leg(shortPut, models.Sell),
		leg(shortCall, models.Sell),
		leg(longCall, models.Buy),
	}
	return r.finish(models.IronButterfly, snap, legs, payoff{
		maxProfitPts: credit,
		maxLossPts:   maxLossPts,
		netCreditPts: credit,
		breakevens:   []float64{lowerBE, upperBE},
		probProfit:   p,
	})
}

// debitVertical buys the long-band leg and sells the short-band leg further
// OTM. The profit probability is the ITM probability of the short strike,
// the max-profit outcome.
func (r *Router) debitVertical(snap *models.MarketSnapshot, band config.DeltaBandConfig, appetite float64, right models.OptionRight) (models.StrategyCandidate, bool) {
	expiry, ok := r.pickExpiry(snap, r.cfg.TargetDTE)
	if !ok {
		return models.StrategyCandidate{}, false
	}
	quotes := usableQuotes(snap, right, expiry)

	longTarget := (band.LongMin + band.LongMax) / 2
	long, ok := r.findByDelta(snap, quotes, band.LongMin, band.LongMax, longTarget, nil)
	if !ok {
		return models.StrategyCandidate{}, false
	}

	// The short leg sits further OTM: above the long strike for calls,
	// below it for puts.
	beyond := func(q models.OptionQuote) bool { return q.Contract.Strike > long.Contract.Strike }
	if right == models.Put {
		beyond = func(q models.OptionQuote) bool { return q.Contract.Strike < long.Contract.Strike }
	}
	shortTarget := band.ShortMin + appetite*(band.ShortMax-band.ShortMin)
	short, ok := r.findByDelta(snap, quotes, band.ShortMin, band.ShortMax, shortTarget, beyond)
	if !ok {
		return models.StrategyCandidate{}, false
	}

	debit := limitPrice(long) - limitPrice(short)
	width := math.Abs(short.Contract.Strike - long.Contract.Strike)
	if debit <= 0 || width-debit <= 0 {
		return models.StrategyCandidate{}, false
	}

	breakeven := long.Contract.Strike + debit
	if right == models.Put {
		breakeven = long.Contract.Strike - debit
	}

	template := models.DebitCallSpread
	if right == models.Put {
		template = models.DebitPutSpread
	}
	legs := []models.StrategyLeg{leg(long, models.Buy), leg(short, models.Sell)}
	return r.finish(template, snap, legs, payoff{
		maxProfitPts: width - debit,
		maxLossPts:   debit,
		netCreditPts: -debit,
		breakevens:   []float64{breakeven},
		probProfit:   r.probITM(snap, short),
	})
}

// callCreditSpread sells a call in the short band and buys a higher strike
// in the long band.
func (r *Router) callCreditSpread(snap *models.MarketSnapshot, band config.DeltaBandConfig, appetite float64) (models.StrategyCandidate, bool) {
	expiry, ok := r.pickExpiry(snap, r.cfg.TargetDTE)
	if !ok {
		return models.StrategyCandidate{}, false
	}
	calls := usableQuotes(snap, models.Call, expiry)

	shortTarget := band.ShortMin + appetite*(band.ShortMax-band.ShortMin)
	short, ok := r.findByDelta(snap, calls, band.ShortMin, band.ShortMax, shortTarget, nil)
	if !ok {
		return models.StrategyCandidate{}, false
	}
	longTarget := (band.LongMin + band.LongMax) / 2
	long, ok := r.findByDelta(snap, calls, band.LongMin, band.LongMax, longTarget,
		func(q models.OptionQuote) bool { return q.Contract.Strike > short.Contract.Strike })
	if !ok {
		return models.StrategyCandidate{}, false
	}

	credit := limitPrice(short) - limitPrice(long)
	width := long.Contract.Strike - short.Contract.Strike
	if credit <= 0 || width-credit <= 0 {
		return models.StrategyCandidate{}, false
	}

	legs := []models.StrategyLeg{leg(short, models.Sell), leg(long, models.Buy)}
	return r.finish(models.CallCreditSpread, snap, legs, payoff{
		maxProfitPts: credit,
		maxLossPts:   width - credit,
		netCreditPts: credit,
		breakevens:   []float64{short.Contract.Strike + credit},
		probProfit:   1 - r.probITM(snap, short),
	})
}

// cashSecuredPut sells a put inside the short band, collateralized by cash.
// Defined risk: the loss is bounded by the strike less the credit.
func (r *Router) cashSecuredPut(snap *models.MarketSnapshot, band config.DeltaBandConfig, appetite float64) (models.StrategyCandidate, bool) {
	expiry, ok := r.pickExpiry(snap, r.cfg.TargetDTE)
	if !ok {
		return models.StrategyCandidate{}, false
	}
	puts := usableQuotes(snap, models.Put, expiry)

	shortTarget := band.ShortMin + appetite*(band.ShortMax-band.ShortMin)
	short, ok := r.findByDelta(snap, puts, band.ShortMin, band.ShortMax, shortTarget, nil)
	if !ok {
		return models.StrategyCandidate{}, false
	}

	credit := limitPrice(short)
	if credit <= 0 || short.Contract.Strike-credit <= 0 {
		return models.StrategyCandidate{}, false
	}

	legs := []models.StrategyLeg{leg(short, models.Sell)}
	return r.finish(models.CashSecuredPut, snap, legs, payoff{
		maxProfitPts: credit,
		maxLossPts:   short.Contract.Strike - credit,
		netCreditPts: credit,
		breakevens:   []float64{short.Contract.Strike - credit},
		probProfit:   1 - r.probITM(snap, short),
	})
}

// longStraddle buys the call and put at the strike nearest spot. Max profit
// for scoring is the payoff of a two-sigma move over the holding period;
// the true payoff is uncapped.
func (r *Router) longStraddle(snap *models.MarketSnapshot) (models.StrategyCandidate, bool) {
	expiry, ok := r.pickExpiry(snap, r.cfg.TargetDTE)
	if !ok {
		return models.StrategyCandidate{}, false
	}
	calls := usableQuotes(snap, models.Call, expiry)
	puts := usableQuotes(snap, models.Put, expiry)

	call, ok := nearestStrike(calls, snap.Spot)
	if !ok {
		return models.StrategyCandidate{}, false
	}
	put, ok := quoteAtStrike(puts, call.Contract.Strike)
	if !ok {
		return models.StrategyCandidate{}, false
	}

	debit := limitPrice(call) + limitPrice(put)
	if debit <= 0 {
		return models.StrategyCandidate{}, false
	}

	k := call.Contract.Strike
	t := call.Contract.YearsToExpiry(snap.AsOf)
	sigma := (call.IV + put.IV) / 2
	move := 2 * sigma * math.Sqrt(t) * snap.Spot
	if move-debit <= 0 {
		return models.StrategyCandidate{}, false
	}

	// Profit needs a move beyond either breakeven.
	p := valuation.ProbITM(r.params(snap, k+debit, t), call.IV, models.Call) +
		valuation.ProbITM(r.params(snap, k-debit, t), put.IV, models.Put)

	legs := []models.StrategyLeg{leg(call, models.Buy), leg(put, models.Buy)}
	return r.finish(models.LongStraddle, snap, legs, payoff{
		maxProfitPts: move - debit,
		maxLossPts:   debit,
		netCreditPts: -debit,
		breakevens:   []float64{k - debit, k + debit},
		probProfit:   p,
	})
}

// calendar sells the near-dated call at the strike nearest spot and buys
// the far-dated call at the same strike. Max profit for scoring is the
// model value of the far leg at near expiry with spot pinned at the strike,
// less the debit paid.
func (r *Router) calendar(snap *models.MarketSnapshot) (models.StrategyCandidate, bool) {
	nearExpiry, ok := r.pickExpiry(snap, r.cfg.TargetDTE)
	if !ok {
		return models.StrategyCandidate{}, false
	}
	farExpiry, ok := r.pickExpiryAfter(snap, r.cfg.CalendarFarDTE, nearExpiry)
	if !ok {
		return models.StrategyCandidate{}, false
	}

	nearCalls := usableQuotes(snap, models.Call, nearExpiry)
	near, ok := nearestStrike(nearCalls, snap.Spot)
	if !ok {
		return models.StrategyCandidate{}, false
	}
	far, ok := quoteAtStrike(usableQuotes(snap, models.Call, farExpiry), near.Contract.Strike)
	if !ok {
		return models.StrategyCandidate{}, false
	}

	debit := limitPrice(far) - limitPrice(near)
	if debit <= 0 {
		return models.StrategyCandidate{}, false
	}

	k := near.Contract.Strike
	tNear := near.Contract.YearsToExpiry(snap.AsOf)
	tFar := far.Contract.YearsToExpiry(snap.AsOf)
	pinned := valuation.Price(valuation.Params{
		Spot:     k,
		Strike:   k,
		T:        tFar - tNear,
		Rate:     snap.RiskFreeRate,
		Dividend: snap.DividendYield,
	}, far.IV, models.Call)
	if pinned-debit <= 0 {
		return models.StrategyCandidate{}, false
	}

	// Profit zone approximated as one near-horizon sigma around the strike.
	width := snap.Spot * near.IV * math.Sqrt(tNear)
	p := 1 -
		valuation.ProbITM(r.params(snap, k+width, tNear), near.IV, models.Call) -
		valuation.ProbITM(r.params(snap, k-width, tNear), near.IV, models.Put)

	legs := []models.StrategyLeg{leg(near, models.Sell), leg(far, models.Buy)}
	return r.finish(models.CalendarSpread, snap, legs, payoff{
		maxProfitPts: pinned - debit,
		maxLossPts:   debit,
		netCreditPts: -debit,
		breakevens:   []float64{k - width, k + width},
		probProfit:   p,
	})
}

// payoff carries a builder's per-share arithmetic into finish, which
// converts to per-contract-set dollars.
type payoff struct {
	maxProfitPts float64
	maxLossPts   float64
	netCreditPts float64
	breakevens   []float64
	probProfit   float64
}

func (r *Router) finish(template models.StrategyTemplate, snap *models.MarketSnapshot, legs []models.StrategyLeg, pay payoff) (models.StrategyCandidate, bool) {
	mult := models.DefaultMultiplier
	if legs[0].Contract.Multiplier > 0 {
		mult = legs[0].Contract.Multiplier
	}

	var greeks models.Greeks
	for _, l := range legs {
		g := valuation.Greeks(r.params(snap, l.Contract.Strike, l.Contract.YearsToExpiry(snap.AsOf)), legIV(snap, l), l.Contract.Right)
		scale := float64(l.Quantity) * mult
		if l.Side == models.Sell {
			scale = -scale
		}
		greeks = greeks.Add(g.Scale(scale))
	}

	p := clamp(pay.probProfit, 0, 1)
	maxProfit := pay.maxProfitPts * mult
	maxLoss := pay.maxLossPts * mult
	ev := p*maxProfit - (1-p)*maxLoss

	sort.Float64s(pay.breakevens)
	return models.StrategyCandidate{
		ID:         uuid.NewString(),
		Template:   template,
		Symbol:     snap.Symbol,
		Legs:       legs,
		Greeks:     greeks,
		MaxProfit:  maxProfit,
		MaxLoss:    maxLoss,
		Breakevens: pay.breakevens,
		NetCredit:  pay.netCreditPts * mult,
		ProbProfit: p,
		EV:         ev,
		Efficiency: ev / maxLoss,
	}, true
}

// findByDelta scans quotes for the one whose valuation-engine |delta| falls
// inside [lo, hi] and lands closest to target. An extra filter narrows the
// strike universe; nil means no constraint. Returns false when the band is
// empty, which skips the template.
func (r *Router) findByDelta(snap *models.MarketSnapshot, quotes []models.OptionQuote, lo, hi, target float64, filter func(models.OptionQuote) bool) (models.OptionQuote, bool) {
	var (
		best     models.OptionQuote
		bestDist = math.MaxFloat64
		found    bool
	)
	for _, q := range quotes {
		if filter != nil && !filter(q) {
			continue
		}
		delta := math.Abs(r.delta(snap, q))
		if delta < lo || delta > hi {
			continue
		}
		if dist := math.Abs(delta - target); dist < bestDist {
			best, bestDist, found = q, dist, true
		}
	}
	return best, found
}

func (r *Router) delta(snap *models.MarketSnapshot, q models.OptionQuote) float64 {
	p := r.params(snap, q.Contract.Strike, q.Contract.YearsToExpiry(snap.AsOf))
	return valuation.Greeks(p, q.IV, q.Contract.Right).Delta
}

func (r *Router) probITM(snap *models.MarketSnapshot, q models.OptionQuote) float64 {
	p := r.params(snap, q.Contract.Strike, q.Contract.YearsToExpiry(snap.AsOf))
	return valuation.ProbITM(p, q.IV, q.Contract.Right)
}

func (r *Router) params(snap *models.MarketSnapshot, strike, t float64) valuation.Params {
	return valuation.Params{
		Spot:     snap.Spot,
		Strike:   strike,
		T:        t,
		Rate:     snap.RiskFreeRate,
		Dividend: snap.DividendYield,
	}
}

// pickExpiry returns the chain expiration closest to targetDTE days out.
func (r *Router) pickExpiry(snap *models.MarketSnapshot, targetDTE int) (time.Time, bool) {
	return closestExpiry(expirations(snap), snap.AsOf, targetDTE, time.Time{})
}

// pickExpiryAfter returns the expiration closest to targetDTE that is
// strictly later than after.
func (r *Router) pickExpiryAfter(snap *models.MarketSnapshot, targetDTE int, after time.Time) (time.Time, bool) {
	return closestExpiry(expirations(snap), snap.AsOf, targetDTE, after)
}

func closestExpiry(expiries []time.Time, asOf time.Time, targetDTE int, after time.Time) (time.Time, bool) {
	var (
		best     time.Time
		bestDist = math.MaxFloat64
		found    bool
	)
	for _, e := range expiries {
		if !e.After(asOf) {
			continue
		}
		if !after.IsZero() && !e.After(after) {
			continue
		}
		dte := e.Sub(asOf).Hours() / 24
		if dist := math.Abs(dte - float64(targetDTE)); dist < bestDist {
			best, bestDist, found = e, dist, true
		}
	}
	return best, found
}

func expirations(snap *models.MarketSnapshot) []time.Time {
	seen := make(map[time.Time]struct{})
	var out []time.Time
	for _, q := range snap.Chain {
		if _, ok := seen[q.Contract.Expiration]; ok {
			continue
		}
		seen[q.Contract.Expiration] = struct{}{}
		out = append(out, q.Contract.Expiration)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// usableQuotes filters the chain down to quotes the router can price: the
// requested right and expiry, a two-sided market, and a positive quote IV.
func usableQuotes(snap *models.MarketSnapshot, right models.OptionRight, expiry time.Time) []models.OptionQuote {
	var out []models.OptionQuote
	for _, q := range snap.Chain {
		if q.Contract.Right != right || !q.Contract.Expiration.Equal(expiry) {
			continue
		}
		if q.Bid <= 0 || q.Ask < q.Bid || q.IV <= 0 {
			continue
		}
		out = append(out, q)
	}
	return out
}

func nearestStrike(quotes []models.OptionQuote, spot float64) (models.OptionQuote, bool) {
	var (
		best     models.OptionQuote
		bestDist = math.MaxFloat64
		found    bool
	)
	for _, q := range quotes {
		if dist := math.Abs(q.Contract.Strike - spot); dist < bestDist {
			best, bestDist, found = q, dist, true
		}
	}
	return best, found
}

func quoteAtStrike(quotes []models.OptionQuote, strike float64) (models.OptionQuote, bool) {
	for _, q := range quotes {
		if q.Contract.Strike == strike {
			return q, true
		}
	}
	return models.OptionQuote{}, false
}

func leg(q models.OptionQuote, side models.LegSide) models.StrategyLeg {
	return models.StrategyLeg{Contract: q.Contract, Side: side, Quantity: 1, Price: limitPrice(q)}
}

// limitPrice is the workable limit for a quote: the bid/ask midpoint
// rounded to the standard option tick. All payoff arithmetic uses it, so
// credits, breakevens, and the per-leg setup steps agree.
func limitPrice(q models.OptionQuote) float64 {
	return util.RoundToOptionTick(q.Mid())
}

func legIV(snap *models.MarketSnapshot, l models.StrategyLeg) float64 {
	for _, q := range snap.Chain {
		if q.Contract == l.Contract {
			return q.IV
		}
	}
	return 0
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
