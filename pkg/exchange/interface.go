package exchange

import (
	"context"
	"encoding/json"
)

// Client exposes the spot exchange capabilities the trading pipeline consumes.
// Read methods return the unwrapped response payload (the "data" member when the
// venue wraps responses in an envelope).
type Client interface {
	// Market data.
	Ticker(ctx context.Context, pair Pair) (json.RawMessage, error)
	OrderBook(ctx context.Context, pair Pair) (json.RawMessage, error)
	RecentTransactions(ctx context.Context, pair Pair) (json.RawMessage, error)

	// Account information.
	Balance(ctx context.Context, pair Pair) (json.RawMessage, error)
	OpenOrders(ctx context.Context, pair Pair) (json.RawMessage, error)

	// Order management.
	PlaceOrder(ctx context.Context, order Order) (*OrderResponse, error)
	CancelOrder(ctx context.Context, req CancelRequest) (json.RawMessage, error)
}
