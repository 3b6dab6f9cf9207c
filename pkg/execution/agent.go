package execution

import (
	"context"
	"strconv"

	"github.com/zeromicro/go-zero/core/logx"

	"bithumb-llm-trader/pkg/decision"
	"bithumb-llm-trader/pkg/exchange"
	"bithumb-llm-trader/pkg/market"
)

const (
	invalidPriceReason = "Execution aborted due to invalid price."
	dustAmountReason   = "Execution aborted: amount is below order precision."
)

// Target names the strategy an execution is performed for.
type Target struct {
	Name   string
	Pair   exchange.Pair
	DryRun bool
}

// Agent turns risk-approved decisions into orders, or simulates them in dry-run.
type Agent struct {
	client exchange.Client
}

// NewAgent returns an Agent submitting orders through client.
func NewAgent(client exchange.Client) *Agent {
	return &Agent{client: client}
}

// Execute pins the execution price onto d and, unless target is dry-run,
// submits a limit order. Boundary failures degrade to HOLD and are never
// returned; the order response is non-nil only for an accepted live order.
func (a *Agent) Execute(ctx context.Context, target Target, d decision.TradeDecision, ms market.MarketSnapshot) (decision.TradeDecision, *exchange.OrderResponse) {
	log := logx.WithContext(ctx)
	if !d.IsTrade() {
		log.Infof("execution: %s skipping trade: %s", target.Name, d.Reasoning())
		return d, nil
	}

	price, ok := d.TargetPrice()
	if !ok {
		price = ms.Ticker.ClosingPrice()
	}
	if !(price > 0) {
		log.Slowf("execution: %s aborted, invalid price derived from market data", target.Name)
		return decision.Hold(d.Confidence(), invalidPriceReason, d.RawResponse()), nil
	}
	units := exchange.FormatOrderUnits(d.Amount())
	amount, err := strconv.ParseFloat(units, 64)
	if err != nil || !(amount > 0) {
		log.Slowf("execution: %s aborted, amount %g truncates to zero units", target.Name, d.Amount())
		return decision.Hold(d.Confidence(), dustAmountReason, d.RawResponse()), nil
	}
	pinned := d.WithTargetPrice(price).WithAmount(amount)

	if target.DryRun {
		log.Infof("execution: %s dry-run %s %s units at %s", target.Name, d.Action(),
			units, exchange.FormatUnits(price))
		return pinned, nil
	}

	side := exchange.SideBid
	if d.Action() == decision.ActionSell {
		side = exchange.SideAsk
	}
	order := exchange.Order{
		Pair:  target.Pair,
		Side:  side,
		Units: units,
		Price: exchange.FormatUnits(price),
	}
	resp, err := a.client.PlaceOrder(ctx, order)
	if err != nil {
		log.Errorf("execution: %s order placement failed side=%s units=%s price=%s err=%v",
			target.Name, order.Side, order.Units, order.Price, err)
		return decision.Hold(d.Confidence(), "Order rejected by exchange: "+err.Error(), d.RawResponse()), nil
	}
	if resp == nil {
		log.Errorf("execution: %s order placement returned no response side=%s units=%s price=%s",
			target.Name, order.Side, order.Units, order.Price)
		return decision.Hold(d.Confidence(), "Order rejected by exchange: empty order response", d.RawResponse()), nil
	}
	log.Infof("execution: %s order accepted id=%s side=%s units=%s price=%s",
		target.Name, resp.OrderID, order.Side, order.Units, order.Price)
	return pinned, resp
}
