// Package util provides price helpers shared by the strategy router and
// the CLI output.
package util

import "math"

// Standard listed-option tick sizes under the penny interval program.
const (
	tickBelowThree = 0.01
	tickAboveThree = 0.05
	tickBoundary   = 3.0
)

// RoundToTick rounds x to the nearest tick increment. Non-positive ticks
// return x unchanged.
func RoundToTick(x, tick float64) float64 {
	if tick <= 0 {
		return x
	}
	return math.Round(x/tick) * tick
}

// OptionTick returns the minimum quoting increment for an option price:
// a penny below $3.00, a nickel at or above.
func OptionTick(price float64) float64 {
	if price < tickBoundary {
		return tickBelowThree
	}
	return tickAboveThree
}

// RoundToOptionTick rounds an option price to its standard quoting
// increment. Used to turn a raw bid/ask midpoint into a workable limit
// price.
func RoundToOptionTick(price float64) float64 {
	return RoundToTick(price, OptionTick(price))
}
