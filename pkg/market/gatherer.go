package market

import (
	"context"
	"fmt"
	"time"

	"bithumb-llm-trader/pkg/exchange"
)

// Gatherer collects the market and account state a strategy needs for one cycle.
type Gatherer struct {
	client exchange.Client
	now    func() time.Time
}

// NewGatherer returns a Gatherer reading from client.
func NewGatherer(client exchange.Client) *Gatherer {
	return &Gatherer{client: client, now: time.Now}
}

// Gather fetches ticker, order book and balances for pair, in that order.
func (g *Gatherer) Gather(ctx context.Context, pair exchange.Pair) (MarketSnapshot, AccountSnapshot, error) {
	ticker, err := g.client.Ticker(ctx, pair)
	if err != nil {
		return MarketSnapshot{}, AccountSnapshot{}, fmt.Errorf("market: ticker %s: %w", pair, err)
	}
	book, err := g.client.OrderBook(ctx, pair)
	if err != nil {
		return MarketSnapshot{}, AccountSnapshot{}, fmt.Errorf("market: orderbook %s: %w", pair, err)
	}
	balance, err := g.client.Balance(ctx, pair)
	if err != nil {
		return MarketSnapshot{}, AccountSnapshot{}, fmt.Errorf("market: balance %s: %w", pair, err)
	}
	ms := MarketSnapshot{
		Pair:      pair,
		Ticker:    Ticker{Raw: ticker},
		OrderBook: ParseOrderBook(book),
		FetchedAt: g.now().UTC(),
	}
	return ms, NewAccountSnapshot(pair, balance), nil
}
