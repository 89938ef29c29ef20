package regime

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halpertlabs/flightdeck/internal/models"
)

func barsFromCloses(closes []float64) []models.Bar {
	bars := make([]models.Bar, len(closes))
	start := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = models.Bar{
			Time:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c * 1.002,
			Low:    c * 0.998,
			Close:  c,
			Volume: 1_000_000,
		}
	}
	return bars
}

func TestClassifyInsufficientHistory(t *testing.T) {
	d := NewDetector(nil)
	closes := make([]float64, MinBars-1)
	for i := range closes {
		closes[i] = 100
	}

	_, err := d.Classify(barsFromCloses(closes), 0.5)
	var insufficient *InsufficientHistoryError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, MinBars-1, insufficient.Got)
	assert.Equal(t, MinBars, insufficient.Required)
}

func TestClassifyTrendUp(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 * math.Pow(1.003, float64(i))
	}

	rc, err := NewDetector(nil).Classify(barsFromCloses(closes), 0.3)
	require.NoError(t, err)
	assert.Equal(t, models.TrendUp, rc.Regime)
	assert.GreaterOrEqual(t, rc.Confidence, 0.5)
	assert.LessOrEqual(t, rc.Confidence, 1.0)
	assert.Contains(t, rc.Indicators, "sma50")
	assert.Contains(t, rc.Indicators, "rv_percentile")
}

func TestClassifyTrendDown(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 * math.Pow(0.997, float64(i))
	}

	rc, err := NewDetector(nil).Classify(barsFromCloses(closes), 0.3)
	require.NoError(t, err)
	assert.Equal(t, models.TrendDown, rc.Regime)
}

func TestClassifyHighVolExpansionOverridesTrend(t *testing.T) {
	// Quiet tape followed by violent two-sided swings: the realized-vol
	// percentile override must win even though prices end above the SMAs.
	closes := make([]float64, 0, 61)
	for i := 0; i < 40; i++ {
		if i%2 == 0 {
			closes = append(closes, 100.1)
		} else {
			closes = append(closes, 99.9)
		}
	}
	level := 100.0
	for i := 0; i < 21; i++ {
		if i%2 == 0 {
			level *= 1.05
		} else {
			level *= 0.95
		}
		closes = append(closes, level)
	}

	rc, err := NewDetector(nil).Classify(barsFromCloses(closes), 0.9)
	require.NoError(t, err)
	assert.Equal(t, models.HighVolExpansion, rc.Regime)
	assert.Greater(t, rc.Indicators["rv_percentile"], 80.0)
}

func TestClassifyMeanReversionBand(t *testing.T) {
	// Symmetric oscillation around 100 ending back at the mean: price sits
	// inside the realized-vol band with no trend and no SMA cross.
	closes := make([]float64, 0, 61)
	for i := 0; i < 60; i++ {
		if i%2 == 0 {
			closes = append(closes, 100.8)
		} else {
			closes = append(closes, 99.2)
		}
	}
	closes = append(closes, 100)

	rc, err := NewDetector(nil).Classify(barsFromCloses(closes), 0.5)
	require.NoError(t, err)
	assert.Equal(t, models.MeanReversion, rc.Regime)
}

func TestClassifyTieDefaultsToMeanReversion(t *testing.T) {
	// A perfectly flat series makes SMA50 and SMA200 identical: the tie
	// defaults to MEAN_REVERSION at confidence 0.5 (documented behavior).
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100
	}

	rc, err := NewDetector(nil).Classify(barsFromCloses(closes), 0.5)
	require.NoError(t, err)
	assert.Equal(t, models.MeanReversion, rc.Regime)
	assert.Equal(t, 0.5, rc.Confidence)
}

func TestConfidenceAlwaysInUnitInterval(t *testing.T) {
	series := [][]float64{}

	up := make([]float64, 80)
	for i := range up {
		up[i] = 50 * math.Pow(1.01, float64(i))
	}
	series = append(series, up)

	flat := make([]float64, 45)
	for i := range flat {
		flat[i] = 250
	}
	series = append(series, flat)

	d := NewDetector(nil)
	for _, closes := range series {
		rc, err := d.Classify(barsFromCloses(closes), 0.5)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, rc.Confidence, 0.0)
		assert.LessOrEqual(t, rc.Confidence, 1.0)
	}
}
