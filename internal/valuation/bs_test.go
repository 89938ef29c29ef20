package valuation

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halpertlabs/flightdeck/internal/models"
)

func TestPutCallParity(t *testing.T) {
	spots := []float64{50, 100, 250}
	strikes := []float64{40, 100, 180}
	ts := []float64{7.0 / 365, 30.0 / 365, 1.0, 2.5}
	sigmas := []float64{0.05, 0.2, 0.8, 2.0}

	for _, s := range spots {
		for _, k := range strikes {
			for _, tt := range ts {
				for _, sig := range sigmas {
					p := Params{Spot: s, Strike: k, T: tt, Rate: 0.045, Dividend: 0.012}
					call := Price(p, sig, models.Call)
					put := Price(p, sig, models.Put)
					lhs := call - put
					rhs := s*math.Exp(-p.Dividend*tt) - k*math.Exp(-p.Rate*tt)
					if math.Abs(lhs-rhs) > 1e-10 {
						t.Fatalf("parity violated for S=%v K=%v T=%v sigma=%v: %.12f vs %.12f",
							s, k, tt, sig, lhs, rhs)
					}
				}
			}
		}
	}
}

func TestZeroVolCollapsesToDiscountedIntrinsic(t *testing.T) {
	p := Params{Spot: 110, Strike: 100, T: 0.5, Rate: 0.03, Dividend: 0.01}
	want := 110*math.Exp(-0.01*0.5) - 100*math.Exp(-0.03*0.5)
	got := Price(p, 0, models.Call)
	require.InDelta(t, want, got, 1e-10)

	// OTM side is exactly zero.
	require.Equal(t, 0.0, Price(p, 0, models.Put))
}

func TestZeroExpiryCollapsesToIntrinsic(t *testing.T) {
	p := Params{Spot: 95, Strike: 100, T: 0, Rate: 0.05}
	require.Equal(t, 0.0, Price(p, 0.3, models.Call))
	require.InDelta(t, 5.0, Price(p, 0.3, models.Put), 1e-10)
}

func TestProbITMMonotoneInStrike(t *testing.T) {
	p := Params{Spot: 100, T: 45.0 / 365, Rate: 0.045}
	prev := -1.0
	for strike := 140.0; strike >= 60; strike -= 5 {
		p.Strike = strike
		prob := ProbITM(p, 0.25, models.Call)
		assert.Greater(t, prob, 0.0)
		assert.Less(t, prob, 1.0)
		// Lower strike => higher chance the call finishes ITM.
		assert.Greater(t, prob, prev, "strike %v", strike)
		prev = prob
	}
}

func TestProbITMDeepContracts(t *testing.T) {
	p := Params{Spot: 100, Strike: 50, T: 30.0 / 365, Rate: 0.02}
	require.Greater(t, ProbITM(p, 0.3, models.Call), 0.99)

	p.Strike = 150
	require.Less(t, ProbITM(p, 0.3, models.Put), 0.01)
}

func TestGreeksSigns(t *testing.T) {
	p := Params{Spot: 100, Strike: 100, T: 90.0 / 365, Rate: 0.045, Dividend: 0.01}
	call := Greeks(p, 0.25, models.Call)
	put := Greeks(p, 0.25, models.Put)

	assert.Greater(t, call.Delta, 0.0)
	assert.Less(t, put.Delta, 0.0)
	assert.InDelta(t, call.Gamma, put.Gamma, 1e-12, "gamma identical for calls and puts")
	assert.InDelta(t, call.Vega, put.Vega, 1e-12)
	assert.Less(t, call.Theta, 0.0)
	assert.Greater(t, call.Vega, 0.0)
}

func TestImpliedVolRoundTrip(t *testing.T) {
	p := Params{Spot: 100, Strike: 105, T: 60.0 / 365, Rate: 0.045, Dividend: 0.005}
	for _, right := range []models.OptionRight{models.Call, models.Put} {
		for sigma := 0.05; sigma <= 3.0; sigma += 0.05 {
			price := Price(p, sigma, right)
			got, err := ImpliedVol(p, right, price)
			require.NoError(t, err, "sigma=%v right=%v", sigma, right)
			require.InDelta(t, sigma, got, 1e-4, "sigma=%v right=%v", sigma, right)
		}
	}
}

func TestImpliedVolNoArbitrage(t *testing.T) {
	p := Params{Spot: 100, Strike: 100, T: 30.0 / 365, Rate: 0.045}

	// Below intrinsic for an ITM call.
	itm := Params{Spot: 120, Strike: 100, T: 30.0 / 365, Rate: 0.045}
	_, err := ImpliedVol(itm, models.Call, 5)
	require.ErrorIs(t, err, ErrNoArbitrage)

	// Above the discounted-underlying upper bound.
	_, err = ImpliedVol(p, models.Call, 101)
	require.ErrorIs(t, err, ErrNoArbitrage)

	// Expired contract has no vol surface at all.
	_, err = ImpliedVol(Params{Spot: 100, Strike: 100, T: 0}, models.Call, 1)
	require.ErrorIs(t, err, ErrNoArbitrage)
}

func TestImpliedVolErrorTypes(t *testing.T) {
	// A ConvergenceError must be matchable with errors.As so callers can
	// distinguish retryable solver failures from data-quality signals.
	var convErr *ConvergenceError
	require.False(t, errors.As(ErrNoArbitrage, &convErr))
	require.NotEmpty(t, (&ConvergenceError{Iterations: 100, LastSigma: 0.2}).Error())
}
