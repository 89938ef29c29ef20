package models

// LegSide is the direction of a strategy leg.
type LegSide string

const (
	// Buy opens a long leg.
	Buy LegSide = "BUY"
	// Sell opens a short leg.
	Sell LegSide = "SELL"
)

// Valid returns true if the LegSide is one of the defined constants.
func (s LegSide) Valid() bool {
	return s == Buy || s == Sell
}

// StrategyTemplate names a defined-risk multi-leg structure the router
// knows how to build.
type StrategyTemplate string

const (
	// IronCondor sells an OTM put spread and an OTM call spread.
	IronCondor StrategyTemplate = "IRON_CONDOR"
	// IronButterfly sells an ATM straddle wrapped in protective wings.
	IronButterfly StrategyTemplate = "IRON_BUTTERFLY"
	// DebitCallSpread buys a call and sells a higher-strike call.
	DebitCallSpread StrategyTemplate = "DEBIT_CALL_SPREAD"
	// DebitPutSpread buys a put and sells a lower-strike put.
	DebitPutSpread StrategyTemplate = "DEBIT_PUT_SPREAD"
	// CallCreditSpread sells a call and buys a higher-strike call.
	CallCreditSpread StrategyTemplate = "CALL_CREDIT_SPREAD"
	// CashSecuredPut sells a put fully collateralized by cash.
	CashSecuredPut StrategyTemplate = "CASH_SECURED_PUT"
	// LongStraddle buys the ATM call and put.
	LongStraddle StrategyTemplate = "LONG_STRADDLE"
	// CalendarSpread sells a near-dated option and buys a far-dated one at
	// the same strike.
	CalendarSpread StrategyTemplate = "CALENDAR_SPREAD"
)

// Valid returns true if the StrategyTemplate is one of the defined
// constants.
func (t StrategyTemplate) Valid() bool {
	switch t {
	case IronCondor, IronButterfly, DebitCallSpread, DebitPutSpread,
		CallCreditSpread, CashSecuredPut, LongStraddle, CalendarSpread:
		return true
	default:
		return false
	}
}

// StrategyLeg is one leg of a candidate: a contract, a side, a contract
// count, and the price it was quoted at (mid) when the candidate was built.
type StrategyLeg struct {
	Contract OptionContract `json:"contract"`
	Side     LegSide        `json:"side"`
	Quantity int            `json:"quantity"`
	Price    float64        `json:"price"`
}

// StrategyCandidate is a fully-specified defined-risk structure with its
// aggregated Greeks and payoff arithmetic. MaxLoss is always a positive,
// finite dollar figure per contract set: undefined-risk structures are
// filtered out before a candidate is ever constructed.
type StrategyCandidate struct {
	ID       string           `json:"id"`
	Template StrategyTemplate `json:"template"`
	Symbol   string           `json:"symbol"`
	Legs     []StrategyLeg    `json:"legs"`
	Greeks   Greeks           `json:"greeks"`

	// Dollar figures are per one contract set (multiplier applied).
	MaxProfit  float64   `json:"max_profit"`
	MaxLoss    float64   `json:"max_loss"`
	Breakevens []float64 `json:"breakevens"`
	// NetCredit is positive for credit structures, negative for debits.
	NetCredit float64 `json:"net_credit"`

	// ProbProfit is the model (risk-neutral) probability assigned to the
	// max-profit outcome, from the valuation engine's ITM probabilities of
	// the short strikes. It is not a real-world win rate.
	ProbProfit float64 `json:"prob_profit"`
	// EV is p*max_profit - (1-p)*max_loss.
	EV float64 `json:"ev"`
	// Efficiency is EV / MaxLoss, the router's primary sort key.
	Efficiency float64 `json:"efficiency"`
}
