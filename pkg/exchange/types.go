package exchange

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Pair identifies a spot market as order currency quoted in payment currency.
type Pair struct {
	OrderCurrency   string `json:"order_currency" yaml:"order_currency"`
	PaymentCurrency string `json:"payment_currency" yaml:"payment_currency"`
}

// NewPair normalises both legs to upper case.
func NewPair(asset, quote string) Pair {
	return Pair{
		OrderCurrency:   strings.ToUpper(strings.TrimSpace(asset)),
		PaymentCurrency: strings.ToUpper(strings.TrimSpace(quote)),
	}
}

// String renders the pair as "ASSET/QUOTE".
func (p Pair) String() string { return p.OrderCurrency + "/" + p.PaymentCurrency }

// Symbol renders the pair in path form, "ASSET_QUOTE".
func (p Pair) Symbol() string { return p.OrderCurrency + "_" + p.PaymentCurrency }

// Valid reports whether both currencies are set.
func (p Pair) Valid() bool { return p.OrderCurrency != "" && p.PaymentCurrency != "" }

// OrderSide is the exchange order direction.
type OrderSide string

const (
	// SideBid buys the order currency.
	SideBid OrderSide = "bid"
	// SideAsk sells the order currency.
	SideAsk OrderSide = "ask"
)

// ParseSide accepts bid/ask as well as buy/sell.
func ParseSide(s string) (OrderSide, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bid", "buy":
		return SideBid, nil
	case "ask", "sell":
		return SideAsk, nil
	default:
		return "", fmt.Errorf("exchange: unknown order side %q", s)
	}
}

// Order describes a limit order request. Units and Price are decimal strings
// produced by FormatUnits to avoid precision loss on the wire.
type Order struct {
	Pair  Pair      `json:"pair"`
	Side  OrderSide `json:"type"`
	Units string    `json:"units"`
	Price string    `json:"price"`
}

// CancelRequest identifies a resting order to cancel.
type CancelRequest struct {
	Pair    Pair      `json:"pair"`
	Side    OrderSide `json:"type"`
	OrderID string    `json:"order_id"`
}

// OrderResponse captures an accepted order.
type OrderResponse struct {
	OrderID string          `json:"order_id,omitempty"`
	Raw     json.RawMessage `json:"raw,omitempty"`
}

// FormatUnits renders a quantity or price with at most 8 fractional digits,
// without trailing zeros or a trailing decimal point. Zero renders as "0".
func FormatUnits(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	s := decimal.NewFromFloat(v).Round(8).String()
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}

// FormatOrderUnits renders an order quantity truncated toward zero to 8
// fractional digits, so the submitted size never exceeds the requested one.
func FormatOrderUnits(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	s := decimal.NewFromFloat(v).Truncate(8).String()
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}
