package router

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halpertlabs/flightdeck/internal/config"
	"github.com/halpertlabs/flightdeck/internal/models"
	"github.com/halpertlabs/flightdeck/internal/valuation"
)

var asOf = time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC)

// snapshotWithChain builds a snapshot whose quote mids sit exactly on the
// model price at a flat 25% vol, so strike selection is deterministic.
func snapshotWithChain(t *testing.T, spot float64, strikes []float64, expiries []time.Time) *models.MarketSnapshot {
	t.Helper()
	const iv = 0.25

	snap := &models.MarketSnapshot{
		Symbol:       "SPY",
		Spot:         spot,
		RiskFreeRate: 0.02,
		IVRank:       0.5,
		AsOf:         asOf,
	}
	for _, expiry := range expiries {
		for _, strike := range strikes {
			for _, right := range []models.OptionRight{models.Call, models.Put} {
				contract := models.OptionContract{
					Underlying: "SPY",
					Strike:     strike,
					Expiration: expiry,
					Right:      right,
					Multiplier: models.DefaultMultiplier,
				}
				mid := valuation.Price(valuation.Params{
					Spot:   spot,
					Strike: strike,
					T:      contract.YearsToExpiry(asOf),
					Rate:   snap.RiskFreeRate,
				}, iv, right)
				snap.Chain = append(snap.Chain, models.OptionQuote{
					Contract:     contract,
					Bid:          mid * 0.9,
					Ask:          mid * 1.1,
					OpenInterest: 500,
					IV:           iv,
				})
			}
		}
	}
	return snap
}

func denseStrikes() []float64 {
	var strikes []float64
	for s := 60.0; s <= 140; s += 2.5 {
		strikes = append(strikes, s)
	}
	return strikes
}

func twoExpiries() []time.Time {
	return []time.Time{asOf.AddDate(0, 0, 35), asOf.AddDate(0, 0, 65)}
}

func newTestRouter(topN int) *Router {
	cfg := config.Default().Router
	cfg.TopN = topN
	return New(cfg, nil)
}

func assertDefinedRisk(t *testing.T, candidates []models.StrategyCandidate) {
	t.Helper()
	for _, c := range candidates {
		assert.Greater(t, c.MaxLoss, 0.0, "template %s", c.Template)
		assert.Greater(t, c.MaxProfit, 0.0, "template %s", c.Template)
		assert.GreaterOrEqual(t, c.ProbProfit, 0.0)
		assert.LessOrEqual(t, c.ProbProfit, 1.0)
		assert.InDelta(t, c.EV/c.MaxLoss, c.Efficiency, 1e-12)
		assert.NotEmpty(t, c.ID)
	}
}

func TestRouteMeanReversion(t *testing.T) {
	snap := snapshotWithChain(t, 100, denseStrikes(), twoExpiries())
	r := newTestRouter(3)

	candidates, err := r.Route(context.Background(), models.MeanReversion, snap, 0.5)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	for _, c := range candidates {
		assert.Contains(t, []models.StrategyTemplate{models.IronCondor, models.IronButterfly}, c.Template)
		assert.Len(t, c.Legs, 4)
		assert.Greater(t, c.NetCredit, 0.0)
		require.Len(t, c.Breakevens, 2)
		assert.Less(t, c.Breakevens[0], c.Breakevens[1])
	}
	assertDefinedRisk(t, candidates)
	assert.GreaterOrEqual(t, candidates[0].Efficiency, candidates[1].Efficiency)
}

func TestRouteTrendUp(t *testing.T) {
	snap := snapshotWithChain(t, 100, denseStrikes(), twoExpiries())
	r := newTestRouter(3)

	candidates, err := r.Route(context.Background(), models.TrendUp, snap, 0.5)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	templates := []models.StrategyTemplate{candidates[0].Template, candidates[1].Template}
	assert.Contains(t, templates, models.DebitCallSpread)
	assert.Contains(t, templates, models.CashSecuredPut)
	assertDefinedRisk(t, candidates)

	for _, c := range candidates {
		if c.Template != models.DebitCallSpread {
			continue
		}
		require.Len(t, c.Legs, 2)
		width := c.Legs[1].Contract.Strike - c.Legs[0].Contract.Strike
		assert.Greater(t, width, 0.0)
		// Max profit and max loss partition the spread width.
		assert.InDelta(t, width*models.DefaultMultiplier, c.MaxProfit+c.MaxLoss, 1e-9)
		assert.Less(t, c.NetCredit, 0.0)
	}
}

func TestRouteHighVolExpansion(t *testing.T) {
	snap := snapshotWithChain(t, 100, denseStrikes(), twoExpiries())
	r := newTestRouter(3)

	candidates, err := r.Route(context.Background(), models.HighVolExpansion, snap, 0.5)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	templates := []models.StrategyTemplate{candidates[0].Template, candidates[1].Template}
	assert.Contains(t, templates, models.LongStraddle)
	assert.Contains(t, templates, models.CalendarSpread)
	assertDefinedRisk(t, candidates)

	for _, c := range candidates {
		// Both are debit structures.
		assert.Less(t, c.NetCredit, 0.0)
		assert.InDelta(t, -c.NetCredit, c.MaxLoss, 1e-9)
	}
}

func TestRouteEmptyWhenNoStrikesInBand(t *testing.T) {
	// A chain of nothing but far-OTM calls and deep-ITM puts leaves every
	// template's delta band empty.
	snap := snapshotWithChain(t, 100, []float64{130, 135, 140}, twoExpiries())
	r := newTestRouter(3)

	candidates, err := r.Route(context.Background(), models.TrendUp, snap, 0.5)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestRouteTopNTruncates(t *testing.T) {
	snap := snapshotWithChain(t, 100, denseStrikes(), twoExpiries())
	r := newTestRouter(1)

	candidates, err := r.Route(context.Background(), models.MeanReversion, snap, 0.5)
	require.NoError(t, err)
	assert.Len(t, candidates, 1)
}

func TestRouteHonorsCancelledContext(t *testing.T) {
	snap := snapshotWithChain(t, 100, denseStrikes(), twoExpiries())
	r := newTestRouter(3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	candidates, err := r.Route(ctx, models.MeanReversion, snap, 0.5)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, candidates)
}

func TestRiskAppetiteShiftsShortStrikes(t *testing.T) {
	snap := snapshotWithChain(t, 100, denseStrikes(), twoExpiries())
	r := newTestRouter(3)

	conservative, err := r.Route(context.Background(), models.MeanReversion, snap, 0)
	require.NoError(t, err)
	aggressive, err := r.Route(context.Background(), models.MeanReversion, snap, 1)
	require.NoError(t, err)

	shortCallStrike := func(candidates []models.StrategyCandidate) float64 {
		for _, c := range candidates {
			if c.Template != models.IronCondor {
				continue
			}
			for _, l := range c.Legs {
				if l.Side == models.Sell && l.Contract.Right == models.Call {
					return l.Contract.Strike
				}
			}
		}
		t.Fatal("no iron condor in candidates")
		return 0
	}

	// Higher appetite targets the higher-delta end of the short band, which
	// pulls the short call closer to spot.
	assert.Less(t, shortCallStrike(aggressive), shortCallStrike(conservative))
}

func TestRouteUnknownRegimeYieldsNothing(t *testing.T) {
	snap := snapshotWithChain(t, 100, denseStrikes(), twoExpiries())
	r := newTestRouter(3)

	candidates, err := r.Route(context.Background(), models.Regime("SIDEWAYS"), snap, 0.5)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}
