// Package regime classifies market state from price/volume history and IV
// rank, and caches classifications per underlying with a TTL and per-key
// single-flight so concurrent requests for one symbol collapse to a single
// computation.
package regime

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"github.com/sirupsen/logrus"

	"github.com/halpertlabs/flightdeck/internal/models"
)

// MinBars is the minimum OHLCV history required for a classification.
const MinBars = 40

// rvWindow is the rolling window for realized volatility, in bars.
const rvWindow = 20

// tradingDaysPerYear annualizes the realized-vol stdev.
const tradingDaysPerYear = 252.0

// InsufficientHistoryError is returned when fewer than MinBars bars are
// supplied. Non-retryable until the caller provides more history.
type InsufficientHistoryError struct {
	Got      int
	Required int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("insufficient history: %d bars, need %d", e.Got, e.Required)
}

// Detector classifies market regimes with a fixed decision table over
// SMA50/SMA200/EMA12, annualized realized volatility, and IV rank.
type Detector struct {
	logger *logrus.Logger
}

// NewDetector returns a Detector. A nil logger falls back to the standard
// logrus logger.
func NewDetector(logger *logrus.Logger) *Detector {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Detector{logger: logger}
}

// Classify maps OHLCV history plus the current IV-rank percentile to a
// regime.
//
// Decision table, first match wins:
//  1. realized-vol percentile > 80 overrides everything: HIGH_VOL_EXPANSION
//  2. SMA50 > SMA200, price above both, rv percentile < 50: TREND_UP
//     (mirrored for TREND_DOWN)
//  3. price within one realized-vol band of its 20-bar mean with no
//     sustained SMA cross in the recent window: MEAN_REVERSION
//  4. otherwise LOW_VOL_COMPRESSION
//
// An exact SMA50/SMA200 tie defaults to MEAN_REVERSION at confidence 0.5.
// Confidence is a clipped monotonic function of how far the deciding
// indicator clears its threshold, measured in realized-vol units.
func (d *Detector) Classify(bars []models.Bar, ivRank float64) (models.RegimeClassification, error) {
	if len(bars) < MinBars {
		return models.RegimeClassification{}, &InsufficientHistoryError{Got: len(bars), Required: MinBars}
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	price := closes[len(closes)-1]

	sma50Series := smaSeries(closes, 50)
	sma200Series := smaSeries(closes, 200)
	sma50 := last(sma50Series)
	sma200 := last(sma200Series)
	ema12 := last(emaSeries(closes, 12))
	mean20 := last(smaSeries(closes, rvWindow))

	rvSeries := rollingRealizedVol(closes, rvWindow)
	rv := last(rvSeries)
	rvPct := percentileRank(rvSeries, rv)

	// Daily vol in price terms: the yardstick for "realized-vol units".
	dailyVol := price * rv / math.Sqrt(tradingDaysPerYear)
	band := mean20 * rv * math.Sqrt(float64(rvWindow)/tradingDaysPerYear)

	ind := map[string]float64{
		"sma50":         sma50,
		"sma200":        sma200,
		"ema12":         ema12,
		"mean20":        mean20,
		"realized_vol":  rv,
		"rv_percentile": rvPct,
		"iv_rank":       ivRank,
		"spot":          price,
		"band":          band,
	}
	now := time.Now().UTC()

	cls := func(regime models.Regime, confidence float64) (models.RegimeClassification, error) {
		d.logger.WithFields(logrus.Fields{
			"regime":        regime,
			"confidence":    confidence,
			"rv_percentile": rvPct,
		}).Debug("regime classified")
		return models.RegimeClassification{
			Regime:     regime,
			Confidence: confidence,
			Indicators: ind,
			ComputedAt: now,
		}, nil
	}

	// Vol expansion overrides trend signals.
	if rvPct > 80 {
		return cls(models.HighVolExpansion, clip01(0.5+(rvPct-80)/40))
	}

	// Exact moving-average tie: no trend direction exists.
	if sma50 == sma200 {
		return cls(models.MeanReversion, 0.5)
	}

	if sma50 > sma200 && price > sma50 && price > sma200 && rvPct < 50 {
		excess := (price - sma50) / math.Max(dailyVol, 1e-9)
		return cls(models.TrendUp, clip01(0.5+excess/4))
	}
	if sma50 < sma200 && price < sma50 && price < sma200 && rvPct < 50 {
		excess := (sma50 - price) / math.Max(dailyVol, 1e-9)
		return cls(models.TrendDown, clip01(0.5+excess/4))
	}

	if math.Abs(price-mean20) <= band && !sustainedCross(sma50Series, sma200Series) {
		slack := (band - math.Abs(price-mean20)) / math.Max(band, 1e-9)
		return cls(models.MeanReversion, clip01(0.5+slack/2))
	}

	return cls(models.LowVolCompression, clip01(0.5+(50-rvPct)/100))
}

// smaSeries computes a simple moving average, clamping the period to the
// available history so short inputs still produce a value.
func smaSeries(values []float64, period int) []float64 {
	if period > len(values) {
		period = len(values)
	}
	sma := trend.NewSmaWithPeriod[float64](period)
	return helper.ChanToSlice(sma.Compute(helper.SliceToChan(values)))
}

func emaSeries(values []float64, period int) []float64 {
	if period > len(values) {
		period = len(values)
	}
	ema := trend.NewEmaWithPeriod[float64](period)
	return helper.ChanToSlice(ema.Compute(helper.SliceToChan(values)))
}

func last(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return values[len(values)-1]
}

// rollingRealizedVol returns the annualized stdev of log returns over each
// trailing window of the input.
func rollingRealizedVol(closes []float64, window int) []float64 {
	rets := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		rets = append(rets, math.Log(closes[i]/closes[i-1]))
	}

	out := make([]float64, 0, len(rets))
	for i := window; i <= len(rets); i++ {
		out = append(out, stdev(rets[i-window:i])*math.Sqrt(tradingDaysPerYear))
	}
	return out
}

func stdev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))

	var ss float64
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

// percentileRank returns the percentage of series values strictly below x.
func percentileRank(series []float64, x float64) float64 {
	if len(series) == 0 {
		return 50
	}
	sorted := append([]float64(nil), series...)
	sort.Float64s(sorted)
	below := sort.SearchFloat64s(sorted, x)
	return 100 * float64(below) / float64(len(sorted))
}

// sustainedCross reports whether the SMA50/SMA200 relation flipped within
// the last few bars of the overlapping tails, which disqualifies a
// mean-reversion read.
func sustainedCross(fast, slow []float64) bool {
	n := len(fast)
	if len(slow) < n {
		n = len(slow)
	}
	const lookback = 10
	start := n - lookback
	if start < 1 {
		start = 1
	}

	ft := fast[len(fast)-n:]
	st := slow[len(slow)-n:]
	for i := start; i < n; i++ {
		prev := ft[i-1] - st[i-1]
		cur := ft[i] - st[i]
		if prev*cur < 0 {
			return true
		}
	}
	return false
}

func clip01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
