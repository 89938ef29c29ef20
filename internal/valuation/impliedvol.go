package valuation

import (
	"errors"
	"fmt"
	"math"

	"github.com/halpertlabs/flightdeck/internal/models"
)

// ErrNoArbitrage is returned by ImpliedVol when the observed price sits
// outside the no-arbitrage bounds for the contract, so no volatility can
// reproduce it. It is a "no solution" signal worth logging as a
// data-quality event, not a solver failure.
var ErrNoArbitrage = errors.New("observed price violates no-arbitrage bounds")

// ConvergenceError is returned when the implied-vol solver exhausts its
// iteration budget on an otherwise valid price. Retryable with a different
// seed.
type ConvergenceError struct {
	Iterations int
	LastSigma  float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("implied vol did not converge after %d iterations (last sigma %.6f)",
		e.Iterations, e.LastSigma)
}

const (
	ivMin     = 1e-4
	ivMax     = 5.0
	ivTol     = 1e-8
	ivMaxIter = 100
	// vegaFloor guards Newton steps against division blow-ups as sigma -> 0.
	vegaFloor = 1e-8
)

// ImpliedVol solves for the volatility that reprices the contract to the
// observed price. The root-find is a bisection bracket on [1e-4, 5] seeded
// by the Brenner-Subrahmanyam closed-form estimate and refined by guarded
// Newton steps; any Newton step leaving the bracket falls back to bisection.
//
// Returns ErrNoArbitrage when the price is outside [discounted intrinsic,
// discounted underlying] for the right, and *ConvergenceError when the
// iteration budget runs out.
func ImpliedVol(p Params, right models.OptionRight, observed float64) (float64, error) {
	if p.T <= 0 {
		return 0, ErrNoArbitrage
	}

	lowerBound := discountedIntrinsic(p, right)
	var upperBound float64
	if right == models.Call {
		upperBound = p.Spot * math.Exp(-p.Dividend*p.T)
	} else {
		upperBound = p.Strike * math.Exp(-p.Rate*p.T)
	}
	if observed < lowerBound-1e-12 || observed > upperBound+1e-12 {
		return 0, ErrNoArbitrage
	}

	// Bracket the root. Price is monotone in sigma, so the bracket is valid
	// whenever the observed price sits between the bound prices.
	lo, hi := ivMin, ivMax
	fLo := Price(p, lo, right) - observed
	fHi := Price(p, hi, right) - observed
	if fLo > 0 {
		// Observed is below even the minimum-vol price: effectively intrinsic.
		return lo, nil
	}
	if fHi < 0 {
		// Above the maximum-vol price; treat as unresolvable within bounds.
		return 0, &ConvergenceError{Iterations: 0, LastSigma: hi}
	}

	// Brenner-Subrahmanyam ATM estimate as the starting point.
	sigma := clamp(observed/p.Spot*math.Sqrt(2*math.Pi/p.T), lo, hi)

	for i := 0; i < ivMaxIter; i++ {
		price := Price(p, sigma, right)
		diff := price - observed
		if math.Abs(diff) < ivTol {
			return sigma, nil
		}

		// Shrink the bracket around the root.
		if diff > 0 {
			hi = sigma
		} else {
			lo = sigma
		}

		vega := Greeks(p, sigma, right).Vega
		next := sigma - diff/math.Max(vega, vegaFloor)
		if next <= lo || next >= hi || math.IsNaN(next) {
			// Newton left the bracket; bisect instead.
			next = (lo + hi) / 2
		}
		sigma = next

		if hi-lo < ivTol {
			return sigma, nil
		}
	}

	return 0, &ConvergenceError{Iterations: ivMaxIter, LastSigma: sigma}
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
