package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bithumb-llm-trader/pkg/exchange"
)

const (
	defaultQuoteBalance = 10_000_000.0
	defaultQuote        = "KRW"
	bookSpread          = 0.001
	bookDepth           = 5
)

// Provider is a paper spot exchange that keeps balances and prices in memory
// and fills limit orders immediately at their limit price.
type Provider struct {
	mu sync.Mutex

	balances map[string]decimal.Decimal // currency -> available units
	prices   map[string]float64         // asset -> last price
	orders   []exchange.Order
}

// New constructs a simulator seeded with the given balances and prices.
// Nil maps seed a default quote balance and no prices.
func New(balances, prices map[string]float64) *Provider {
	p := &Provider{
		balances: make(map[string]decimal.Decimal),
		prices:   make(map[string]float64),
	}
	if balances == nil {
		balances = map[string]float64{defaultQuote: defaultQuoteBalance}
	}
	for ccy, v := range balances {
		p.balances[canonical(ccy)] = decimal.NewFromFloat(v)
	}
	for asset, v := range prices {
		p.prices[canonical(asset)] = v
	}
	return p
}

func canonical(coin string) string { return strings.ToUpper(strings.TrimSpace(coin)) }

// SetPrice updates the last traded price reported for an asset.
func (p *Provider) SetPrice(asset string, price float64) error {
	if price <= 0 {
		return fmt.Errorf("sim: price must be positive")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices[canonical(asset)] = price
	return nil
}

// SetBalance overrides the available balance of a currency.
func (p *Provider) SetBalance(currency string, units float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balances[canonical(currency)] = decimal.NewFromFloat(units)
}

// Available returns the available balance of a currency.
func (p *Provider) Available(currency string) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.balances[canonical(currency)].InexactFloat64()
}

// Orders returns a copy of every accepted order, oldest first.
func (p *Provider) Orders() []exchange.Order {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]exchange.Order, len(p.orders))
	copy(out, p.orders)
	return out
}

// Ticker reports the current price in the venue's string-number shape.
func (p *Provider) Ticker(ctx context.Context, pair exchange.Pair) (json.RawMessage, error) {
	p.mu.Lock()
	price, ok := p.prices[canonical(pair.OrderCurrency)]
	p.mu.Unlock()
	if !ok {
		return nil, &exchange.Error{Code: "5500", Message: "unknown currency " + pair.OrderCurrency}
	}
	px := exchange.FormatUnits(price)
	return json.Marshal(map[string]string{
		"opening_price":       px,
		"closing_price":       px,
		"min_price":           px,
		"max_price":           px,
		"fluctate_rate_24H":   "0",
		"acc_trade_value_24H": "0",
	})
}

type level struct {
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
}

// OrderBook synthesises a symmetric book around the last price.
func (p *Provider) OrderBook(ctx context.Context, pair exchange.Pair) (json.RawMessage, error) {
	p.mu.Lock()
	price, ok := p.prices[canonical(pair.OrderCurrency)]
	p.mu.Unlock()
	if !ok {
		return nil, &exchange.Error{Code: "5500", Message: "unknown currency " + pair.OrderCurrency}
	}
	bids := make([]level, 0, bookDepth)
	asks := make([]level, 0, bookDepth)
	for i := 1; i <= bookDepth; i++ {
		step := bookSpread * float64(i)
		bids = append(bids, level{Price: exchange.FormatUnits(price * (1 - step)), Quantity: "1"})
		asks = append(asks, level{Price: exchange.FormatUnits(price * (1 + step)), Quantity: "1"})
	}
	return json.Marshal(map[string]any{
		"order_currency":   pair.OrderCurrency,
		"payment_currency": pair.PaymentCurrency,
		"bids":             bids,
		"asks":             asks,
	})
}

// RecentTransactions is always empty for the simulator.
func (p *Provider) RecentTransactions(ctx context.Context, pair exchange.Pair) (json.RawMessage, error) {
	return json.RawMessage("[]"), nil
}

// Balance reports both legs of the pair using available_/total_ keys.
func (p *Provider) Balance(ctx context.Context, pair exchange.Pair) (json.RawMessage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]string, 4)
	for _, ccy := range []string{pair.OrderCurrency, pair.PaymentCurrency} {
		lower := strings.ToLower(ccy)
		v := p.balances[canonical(ccy)].String()
		out["available_"+lower] = v
		out["total_"+lower] = v
	}
	return json.Marshal(out)
}

// OpenOrders is always empty because fills are synchronous.
func (p *Provider) OpenOrders(ctx context.Context, pair exchange.Pair) (json.RawMessage, error) {
	return json.RawMessage("[]"), nil
}

// PlaceOrder fills the order immediately at its limit price.
func (p *Provider) PlaceOrder(ctx context.Context, order exchange.Order) (*exchange.OrderResponse, error) {
	units, err := decimal.NewFromString(strings.TrimSpace(order.Units))
	if err != nil || !units.IsPositive() {
		return nil, &exchange.Error{Code: "5100", Message: fmt.Sprintf("invalid units %q", order.Units)}
	}
	price, err := decimal.NewFromString(strings.TrimSpace(order.Price))
	if err != nil || !price.IsPositive() {
		return nil, &exchange.Error{Code: "5100", Message: fmt.Sprintf("invalid price %q", order.Price)}
	}
	asset := canonical(order.Pair.OrderCurrency)
	quote := canonical(order.Pair.PaymentCurrency)
	notional := units.Mul(price)

	p.mu.Lock()
	defer p.mu.Unlock()

	switch order.Side {
	case exchange.SideBid:
		if p.balances[quote].LessThan(notional) {
			return nil, &exchange.Error{Code: "5600", Message: "insufficient " + quote + " balance"}
		}
		p.balances[quote] = p.balances[quote].Sub(notional)
		p.balances[asset] = p.balances[asset].Add(units)
	case exchange.SideAsk:
		if p.balances[asset].LessThan(units) {
			return nil, &exchange.Error{Code: "5600", Message: "insufficient " + asset + " balance"}
		}
		p.balances[asset] = p.balances[asset].Sub(units)
		p.balances[quote] = p.balances[quote].Add(notional)
	default:
		return nil, &exchange.Error{Code: "5100", Message: fmt.Sprintf("invalid order type %q", order.Side)}
	}
	p.prices[asset] = price.InexactFloat64()
	p.orders = append(p.orders, order)

	id := uuid.NewString()
	raw, err := json.Marshal(map[string]string{"status": "0000", "order_id": id})
	if err != nil {
		return nil, fmt.Errorf("sim: encode order response: %w", err)
	}
	return &exchange.OrderResponse{OrderID: id, Raw: raw}, nil
}

// CancelOrder always fails since simulated orders never rest on the book.
func (p *Provider) CancelOrder(ctx context.Context, req exchange.CancelRequest) (json.RawMessage, error) {
	return nil, &exchange.Error{Code: "5600", Message: "order " + req.OrderID + " is not open"}
}

// Registry hook for exchange.Config.
func init() {
	exchange.RegisterProvider("sim", func(name string, cfg *exchange.ProviderConfig) (exchange.Client, error) {
		return New(cfg.Balances, cfg.Prices), nil
	})
}
