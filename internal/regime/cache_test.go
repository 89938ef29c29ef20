package regime

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halpertlabs/flightdeck/internal/models"
)

func TestCacheServesFreshEntry(t *testing.T) {
	c := NewCache(10 * time.Minute)

	var calls int
	compute := func() (models.RegimeClassification, error) {
		calls++
		return models.RegimeClassification{Regime: models.TrendUp, Confidence: 0.8}, nil
	}

	first, err := c.GetOrCompute("SPY", compute)
	require.NoError(t, err)
	second, err := c.GetOrCompute("SPY", compute)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestCacheExpiresAfterTTL(t *testing.T) {
	c := NewCache(10 * time.Minute)
	clock := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	var calls int
	compute := func() (models.RegimeClassification, error) {
		calls++
		return models.RegimeClassification{Regime: models.MeanReversion}, nil
	}

	_, err := c.GetOrCompute("SPY", compute)
	require.NoError(t, err)

	clock = clock.Add(9 * time.Minute)
	_, err = c.GetOrCompute("SPY", compute)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	clock = clock.Add(2 * time.Minute)
	_, err = c.GetOrCompute("SPY", compute)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestCacheClampsTTL(t *testing.T) {
	assert.Equal(t, DefaultTTL, NewCache(0).ttl)
	assert.Equal(t, DefaultTTL, NewCache(4*time.Hour).ttl)
	assert.Equal(t, time.Minute, NewCache(time.Minute).ttl)
}

func TestCacheErrorsAreNotCached(t *testing.T) {
	c := NewCache(10 * time.Minute)
	boom := errors.New("feed down")

	var calls int
	_, err := c.GetOrCompute("QQQ", func() (models.RegimeClassification, error) {
		calls++
		return models.RegimeClassification{}, boom
	})
	require.ErrorIs(t, err, boom)

	rc, err := c.GetOrCompute("QQQ", func() (models.RegimeClassification, error) {
		calls++
		return models.RegimeClassification{Regime: models.LowVolCompression}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, models.LowVolCompression, rc.Regime)
	assert.Equal(t, 2, calls)
}

func TestCacheInvalidateForcesRecompute(t *testing.T) {
	c := NewCache(10 * time.Minute)

	var calls int
	compute := func() (models.RegimeClassification, error) {
		calls++
		return models.RegimeClassification{Regime: models.TrendDown}, nil
	}

	_, err := c.GetOrCompute("IWM", compute)
	require.NoError(t, err)
	c.Invalidate("IWM")
	_, err = c.GetOrCompute("IWM", compute)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestCacheConcurrentCallersComputeOnce(t *testing.T) {
	c := NewCache(10 * time.Minute)

	var calls atomic.Int64
	compute := func() (models.RegimeClassification, error) {
		calls.Add(1)
		time.Sleep(50 * time.Millisecond)
		return models.RegimeClassification{Regime: models.HighVolExpansion}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rc, err := c.GetOrCompute("TSLA", compute)
			assert.NoError(t, err)
			assert.Equal(t, models.HighVolExpansion, rc.Regime)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load())
}

func TestCacheKeysDoNotShareFlights(t *testing.T) {
	c := NewCache(10 * time.Minute)

	var wg sync.WaitGroup
	regimes := map[string]models.Regime{
		"SPY": models.TrendUp,
		"GLD": models.MeanReversion,
	}
	for symbol, want := range regimes {
		wg.Add(1)
		go func(symbol string, want models.Regime) {
			defer wg.Done()
			rc, err := c.GetOrCompute(symbol, func() (models.RegimeClassification, error) {
				return models.RegimeClassification{Regime: want}, nil
			})
			assert.NoError(t, err)
			assert.Equal(t, want, rc.Regime)
		}(symbol, want)
	}
	wg.Wait()
}
