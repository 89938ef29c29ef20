package models

// Greeks are the sensitivities of an option (or aggregate position) price:
// delta to spot, gamma to delta, theta per calendar day, vega per
// volatility point, rho per rate point.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

// Add returns the element-wise sum of g and other.
func (g Greeks) Add(other Greeks) Greeks {
	return Greeks{
		Delta: g.Delta + other.Delta,
		Gamma: g.Gamma + other.Gamma,
		Theta: g.Theta + other.Theta,
		Vega:  g.Vega + other.Vega,
		Rho:   g.Rho + other.Rho,
	}
}

// Scale returns g with every component multiplied by k.
func (g Greeks) Scale(k float64) Greeks {
	return Greeks{
		Delta: g.Delta * k,
		Gamma: g.Gamma * k,
		Theta: g.Theta * k,
		Vega:  g.Vega * k,
		Rho:   g.Rho * k,
	}
}
