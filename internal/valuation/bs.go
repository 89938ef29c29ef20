// Package valuation implements the option math the pipeline is built on:
// Black-Scholes-Merton pricing with continuous dividend yield, Greeks,
// ITM probabilities, and implied-volatility solving.
package valuation

import (
	"math"

	"github.com/halpertlabs/flightdeck/internal/models"
)

const sqrt2Pi = 2.5066282746310002

// Params are the market inputs for pricing a single European option.
type Params struct {
	Spot     float64 // underlying price
	Strike   float64
	T        float64 // time to expiry in years
	Rate     float64 // continuously-compounded risk-free rate
	Dividend float64 // continuous dividend yield
}

// d1 and d2 from the Black-Scholes-Merton model. Callers guarantee
// T > 0 and sigma > 0.
func d1d2(p Params, sigma float64) (float64, float64) {
	sqrtT := math.Sqrt(p.T)
	d1 := (math.Log(p.Spot/p.Strike) + (p.Rate-p.Dividend+0.5*sigma*sigma)*p.T) /
		(sigma * sqrtT)
	return d1, d1 - sigma*sqrtT
}

// discountedIntrinsic is the exact price when sigma == 0 (a deterministic
// forward): max(0, S*e^{-qT} - K*e^{-rT}) for calls, mirrored for puts.
// At T == 0 the discount factors are 1 and it reduces to plain intrinsic.
func discountedIntrinsic(p Params, right models.OptionRight) float64 {
	fwd := p.Spot*math.Exp(-p.Dividend*p.T) - p.Strike*math.Exp(-p.Rate*p.T)
	if right == models.Call {
		return math.Max(0, fwd)
	}
	return math.Max(0, -fwd)
}

// Price returns the Black-Scholes-Merton value of a European option.
//
// The put price is always derived from the call via put-call parity
// (C - P = S*e^{-qT} - K*e^{-rT}), so parity holds exactly by
// construction rather than within formula round-off.
func Price(p Params, sigma float64, right models.OptionRight) float64 {
	if p.T <= 0 || sigma <= 0 {
		return discountedIntrinsic(p, right)
	}

	d1, d2 := d1d2(p, sigma)
	call := p.Spot*math.Exp(-p.Dividend*p.T)*normCDF(d1) -
		p.Strike*math.Exp(-p.Rate*p.T)*normCDF(d2)
	if right == models.Call {
		return call
	}
	// Parity: P = C - S*e^{-qT} + K*e^{-rT}
	return call - p.Spot*math.Exp(-p.Dividend*p.T) + p.Strike*math.Exp(-p.Rate*p.T)
}

// Greeks returns the option sensitivities. Theta is per calendar day; vega
// and rho are per full point of volatility / rate (divide by 100 for the
// per-percentage-point convention used in chain displays).
func Greeks(p Params, sigma float64, right models.OptionRight) models.Greeks {
	if p.T <= 0 || sigma <= 0 {
		// Expired or deterministic: delta is the ITM indicator, the rest decay
		// to zero.
		var delta float64
		switch {
		case right == models.Call && p.Spot > p.Strike:
			delta = 1
		case right == models.Put && p.Spot < p.Strike:
			delta = -1
		}
		return models.Greeks{Delta: delta}
	}

	d1, d2 := d1d2(p, sigma)
	sqrtT := math.Sqrt(p.T)
	divDisc := math.Exp(-p.Dividend * p.T)
	rateDisc := math.Exp(-p.Rate * p.T)
	pdf := normPDF(d1)

	g := models.Greeks{
		Gamma: divDisc * pdf / (p.Spot * sigma * sqrtT),
		Vega:  p.Spot * divDisc * pdf * sqrtT,
	}

	if right == models.Call {
		g.Delta = divDisc * normCDF(d1)
		g.Theta = (-p.Spot*divDisc*pdf*sigma/(2*sqrtT) -
			p.Rate*p.Strike*rateDisc*normCDF(d2) +
			p.Dividend*p.Spot*divDisc*normCDF(d1)) / 365
		g.Rho = p.Strike * p.T * rateDisc * normCDF(d2)
	} else {
		g.Delta = divDisc * (normCDF(d1) - 1)
		g.Theta = (-p.Spot*divDisc*pdf*sigma/(2*sqrtT) +
			p.Rate*p.Strike*rateDisc*normCDF(-d2) -
			p.Dividend*p.Spot*divDisc*normCDF(-d1)) / 365
		g.Rho = -p.Strike * p.T * rateDisc * normCDF(-d2)
	}
	return g
}

// ProbITM returns the risk-neutral probability that the option expires
// in-the-money: N(d2) for calls, N(-d2) for puts. This is a model
// probability under the risk-neutral measure, not a trading win rate, and
// callers must not present it as one.
func ProbITM(p Params, sigma float64, right models.OptionRight) float64 {
	if p.T <= 0 || sigma <= 0 {
		if right == models.Call {
			if p.Spot > p.Strike {
				return 1
			}
			return 0
		}
		if p.Spot < p.Strike {
			return 1
		}
		return 0
	}

	_, d2 := d1d2(p, sigma)
	if right == models.Call {
		return normCDF(d2)
	}
	return normCDF(-d2)
}

// normPDF is the standard normal density.
func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / sqrt2Pi
}

// normCDF is the standard normal CDF via the error function. Error is
// bounded below 1e-12 across the real line, which is what the parity and
// probability invariants in the tests rely on.
func normCDF(x float64) float64 {
	return 0.5 * (1.0 + math.Erf(x/math.Sqrt2))
}
