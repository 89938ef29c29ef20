package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halpertlabs/flightdeck/internal/models"
)

type flakyMarket struct {
	failures int
	calls    int
}

func (f *flakyMarket) Snapshot(context.Context, string) (*models.MarketSnapshot, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("feed down")
	}
	return &models.MarketSnapshot{Symbol: "SPY"}, nil
}

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	inner := &flakyMarket{failures: 100}
	cb := NewCircuitBreakerMarketDataWithSettings(inner, CircuitBreakerSettings{
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		MinRequests:  2,
		FailureRatio: 0.5,
	}, nil)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := cb.Snapshot(ctx, "SPY")
		require.Error(t, err)
	}

	// Third call trips without reaching the provider.
	callsBefore := inner.calls
	_, err := cb.Snapshot(ctx, "SPY")
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, callsBefore, inner.calls)
}

func TestCircuitBreakerPassesThroughSuccess(t *testing.T) {
	inner := &flakyMarket{}
	cb := NewCircuitBreakerMarketData(inner, nil)

	snap, err := cb.Snapshot(context.Background(), "SPY")
	require.NoError(t, err)
	assert.Equal(t, "SPY", snap.Symbol)
}

func TestRetryRecoversFromTransientFailures(t *testing.T) {
	inner := &flakyMarket{failures: 2}
	r := NewRetryMarketData(inner, nil, RetryConfig{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	})

	snap, err := r.Snapshot(context.Background(), "SPY")
	require.NoError(t, err)
	assert.Equal(t, "SPY", snap.Symbol)
	assert.Equal(t, 3, inner.calls)
}

func TestRetryGivesUpAfterBudget(t *testing.T) {
	inner := &flakyMarket{failures: 100}
	r := NewRetryMarketData(inner, nil, RetryConfig{
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	})

	_, err := r.Snapshot(context.Background(), "SPY")
	require.Error(t, err)
	assert.Equal(t, 3, inner.calls)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestRetryStopsOnCancelledContext(t *testing.T) {
	inner := &flakyMarket{failures: 100}
	r := NewRetryMarketData(inner, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Snapshot(ctx, "SPY")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, inner.calls)
}

func TestCircuitBreakerPortfolioPassesThrough(t *testing.T) {
	providers := &stubProviders{portfolio: testPortfolio()}
	cb := NewCircuitBreakerPortfolio(providers, nil)

	pf, err := cb.Portfolio(context.Background(), "acct-1")
	require.NoError(t, err)
	assert.Equal(t, testPortfolio().AccountEquity, pf.AccountEquity)
}
