// Package models defines the data objects that flow through the
// recommendation pipeline: option contracts and quotes, market snapshots,
// regime classifications, strategy candidates, sizing decisions, and the
// flight manual trade plan.
package models

import (
	"fmt"
	"time"
)

// DefaultMultiplier is the standard equity option contract multiplier.
const DefaultMultiplier = 100.0

// OptionRight identifies a contract as a call or a put.
type OptionRight string

const (
	// Call is the right to buy the underlying at the strike.
	Call OptionRight = "call"
	// Put is the right to sell the underlying at the strike.
	Put OptionRight = "put"
)

// Valid returns true if the OptionRight is one of the defined constants.
func (r OptionRight) Valid() bool {
	switch r {
	case Call, Put:
		return true
	default:
		return false
	}
}

// OptionContract describes a single listed option. Immutable once quoted.
type OptionContract struct {
	Underlying string      `json:"underlying"`
	Strike     float64     `json:"strike"`
	Expiration time.Time   `json:"expiration"`
	Right      OptionRight `json:"right"`
	Multiplier float64     `json:"multiplier"`
}

// Symbol returns a human-readable identifier for the contract,
// e.g. "SPY 2026-03-20 450 CALL".
func (c OptionContract) Symbol() string {
	return fmt.Sprintf("%s %s %g %s",
		c.Underlying, c.Expiration.Format("2006-01-02"), c.Strike, c.Right)
}

// YearsToExpiry returns the time to expiration in years from the given
// reference time. Never negative.
func (c OptionContract) YearsToExpiry(from time.Time) float64 {
	t := c.Expiration.Sub(from).Hours() / 24 / 365
	if t < 0 {
		return 0
	}
	return t
}

// OptionQuote is one row of an option chain: a contract plus its market.
type OptionQuote struct {
	Contract     OptionContract `json:"contract"`
	Bid          float64        `json:"bid"`
	Ask          float64        `json:"ask"`
	OpenInterest int64          `json:"open_interest"`
	// IV is the feed's implied volatility for the quote, as a decimal
	// (0.20 = 20%). Deltas are not trusted from the feed; the valuation
	// engine recomputes them from this IV.
	IV float64 `json:"iv"`
}

// Mid returns the bid/ask midpoint.
func (q OptionQuote) Mid() float64 {
	return (q.Bid + q.Ask) / 2
}

// Bar is a single OHLCV bar of underlying price history.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// MarketSnapshot is the read-only market state injected by the caller for
// one underlying: spot, rates, price history, IV rank, and the option chain.
// Refreshed per request; the core never fetches data itself.
type MarketSnapshot struct {
	Symbol        string        `json:"symbol"`
	Spot          float64       `json:"spot"`
	RiskFreeRate  float64       `json:"risk_free_rate"`
	DividendYield float64       `json:"dividend_yield"`
	// IVRank is the current IV's percentile within its 52-week range, 0..1.
	IVRank float64       `json:"iv_rank"`
	Bars   []Bar         `json:"bars"`
	Chain  []OptionQuote `json:"chain"`
	AsOf   time.Time     `json:"as_of"`
}

// ChainByRight splits the snapshot's chain into quotes of the given right,
// preserving chain order.
func (s *MarketSnapshot) ChainByRight(right OptionRight) []OptionQuote {
	out := make([]OptionQuote, 0, len(s.Chain)/2)
	for _, q := range s.Chain {
		if q.Contract.Right == right {
			out = append(out, q)
		}
	}
	return out
}
