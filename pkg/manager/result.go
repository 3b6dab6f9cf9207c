package manager

import (
	"time"

	"bithumb-llm-trader/pkg/decision"
	"bithumb-llm-trader/pkg/exchange"
	"bithumb-llm-trader/pkg/market"
)

// StrategyCycleResult is one strategy's outcome within a cycle.
type StrategyCycleResult struct {
	Name          string                  `json:"name"`
	Pair          exchange.Pair           `json:"pair"`
	Market        market.MarketSnapshot   `json:"market_state"`
	Account       market.AccountSnapshot  `json:"account_state"`
	LLMDecision   decision.TradeDecision  `json:"llm_decision"`
	FinalDecision decision.TradeDecision  `json:"final_decision"`
	OrderResponse *exchange.OrderResponse `json:"order_response,omitempty"`
	// Error is set when the strategy degraded to HOLD because of a failure.
	Error string `json:"error,omitempty"`
}

// PortfolioCycleResult aggregates every strategy of one cycle.
type PortfolioCycleResult struct {
	ID                   string                `json:"id"`
	Timestamp            time.Time             `json:"timestamp"`
	StrategyResults      []StrategyCycleResult `json:"strategy_results"`
	CashByCurrency       map[string]float64    `json:"cash_by_currency"`
	PositionsByPair      map[string]float64    `json:"positions_by_pair"`
	PositionValuesByPair map[string]float64    `json:"position_values_by_pair"`
	TotalCash            float64               `json:"total_cash"`
	TotalPositionsValue  float64               `json:"total_positions_value"`
	NetExposureChange    float64               `json:"net_exposure_change"`
}

// aggregate folds strategy results, in order, into portfolio totals.
// Cash is counted once per quote currency: the first strategy to report a
// currency wins since all strategies on that currency share one balance.
func aggregate(id string, ts time.Time, results []StrategyCycleResult) *PortfolioCycleResult {
	out := &PortfolioCycleResult{
		ID:                   id,
		Timestamp:            ts.UTC(),
		StrategyResults:      results,
		CashByCurrency:       make(map[string]float64),
		PositionsByPair:      make(map[string]float64, len(results)),
		PositionValuesByPair: make(map[string]float64, len(results)),
	}
	for _, r := range results {
		quote := r.Pair.PaymentCurrency
		if _, seen := out.CashByCurrency[quote]; !seen {
			out.CashByCurrency[quote] = r.Account.AvailableQuote
		}
		closing := r.Market.Ticker.ClosingPrice()
		out.PositionsByPair[r.Name] = r.Account.AvailableAsset
		out.PositionValuesByPair[r.Name] = r.Account.AvailableAsset * closing
		out.NetExposureChange += Exposure(r.FinalDecision, closing)
	}
	for _, v := range out.CashByCurrency {
		out.TotalCash += v
	}
	for _, v := range out.PositionValuesByPair {
		out.TotalPositionsValue += v
	}
	return out
}

// Exposure is the signed notional of an executed decision: positive for
// buys, negative for sells. The decision's target price is used when set,
// otherwise reference; a non-positive price contributes nothing.
func Exposure(d decision.TradeDecision, reference float64) float64 {
	if !d.IsTrade() {
		return 0
	}
	price := reference
	if target, ok := d.TargetPrice(); ok {
		price = target
	}
	if !(price > 0) {
		return 0
	}
	return d.Action().Sign() * price * d.Amount()
}
