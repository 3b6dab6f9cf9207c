package market

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"bithumb-llm-trader/pkg/exchange"
)

// priceKeys is the ticker fallback order used to find a reference price.
var priceKeys = []string{"closing_price", "closePrice", "price"}

// Ticker wraps the venue's ticker payload. Values usually arrive as numeric
// strings, so reads are lenient.
type Ticker struct {
	Raw json.RawMessage
}

// Float reads key as a number, returning def when it is absent or not numeric.
func (t Ticker) Float(key string, def float64) float64 {
	return SafeFloat(gjson.GetBytes(t.Raw, key), def)
}

// Text returns key verbatim, or "None" when absent.
func (t Ticker) Text(key string) string {
	v := gjson.GetBytes(t.Raw, key)
	if !v.Exists() || v.Type == gjson.Null {
		return "None"
	}
	return v.String()
}

// ClosingPrice returns closing_price, or 0 when missing.
func (t Ticker) ClosingPrice() float64 { return t.Float("closing_price", 0) }

// ReferencePrice returns the first strictly positive of closing_price,
// closePrice and price, or 0 when none qualifies.
func (t Ticker) ReferencePrice() float64 {
	for _, key := range priceKeys {
		if p := t.Float(key, -1); p > 0 {
			return p
		}
	}
	return 0
}

// MarshalJSON emits the raw payload.
func (t Ticker) MarshalJSON() ([]byte, error) {
	if len(t.Raw) == 0 {
		return []byte("{}"), nil
	}
	return t.Raw, nil
}

// Level is one order book price level.
type Level struct {
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// OrderBook holds bid and ask levels in venue order (best first).
type OrderBook struct {
	Bids []Level `json:"bids"`
	Asks []Level `json:"asks"`
}

// ParseOrderBook reads bids/asks (or bid/ask) arrays whose entries carry
// price and quantity (or amount).
func ParseOrderBook(raw json.RawMessage) OrderBook {
	doc := gjson.ParseBytes(raw)
	return OrderBook{
		Bids: parseLevels(firstArray(doc, "bids", "bid")),
		Asks: parseLevels(firstArray(doc, "asks", "ask")),
	}
}

func firstArray(doc gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if v := doc.Get(k); v.IsArray() && len(v.Array()) > 0 {
			return v
		}
	}
	return gjson.Result{}
}

func parseLevels(arr gjson.Result) []Level {
	items := arr.Array()
	levels := make([]Level, 0, len(items))
	for _, item := range items {
		qty := item.Get("quantity")
		if !qty.Exists() {
			qty = item.Get("amount")
		}
		levels = append(levels, Level{
			Price:    SafeFloat(item.Get("price"), 0),
			Quantity: SafeFloat(qty, 0),
		})
	}
	return levels
}

// Top returns at most depth levels from each side.
func (b OrderBook) Top(depth int) OrderBook {
	clip := func(ls []Level) []Level {
		if len(ls) > depth {
			return ls[:depth]
		}
		return ls
	}
	return OrderBook{Bids: clip(b.Bids), Asks: clip(b.Asks)}
}

// MarketSnapshot is the per-cycle view of a pair's market.
type MarketSnapshot struct {
	Pair      exchange.Pair `json:"pair"`
	Ticker    Ticker        `json:"ticker"`
	OrderBook OrderBook     `json:"orderbook"`
	FetchedAt time.Time     `json:"fetched_at"`
}

// AccountSnapshot is the per-cycle view of the balances relevant to a pair.
type AccountSnapshot struct {
	AssetCurrency  string          `json:"asset_currency"`
	QuoteCurrency  string          `json:"quote_currency"`
	AvailableAsset float64         `json:"balance_order_currency"`
	AvailableQuote float64         `json:"balance_payment_currency"`
	Raw            json.RawMessage `json:"raw,omitempty"`
}

// NewAccountSnapshot extracts both legs of pair from a balance payload.
func NewAccountSnapshot(pair exchange.Pair, raw json.RawMessage) AccountSnapshot {
	return AccountSnapshot{
		AssetCurrency:  pair.OrderCurrency,
		QuoteCurrency:  pair.PaymentCurrency,
		AvailableAsset: ExtractBalance(raw, pair.OrderCurrency),
		AvailableQuote: ExtractBalance(raw, pair.PaymentCurrency),
		Raw:            raw,
	}
}

// ExtractBalance looks up a currency balance trying, in order,
// available_<lower>, available_<upper>, available_<as given>, <lower>,
// <upper> and <as given>. The first present key wins; a missing or
// non-numeric value yields 0.
func ExtractBalance(raw json.RawMessage, currency string) float64 {
	doc := gjson.ParseBytes(raw)
	keys := []string{
		"available_" + strings.ToLower(currency),
		"available_" + strings.ToUpper(currency),
		"available_" + currency,
		strings.ToLower(currency),
		strings.ToUpper(currency),
		currency,
	}
	for _, key := range keys {
		if v := doc.Get(gjson.Escape(key)); v.Exists() {
			return SafeFloat(v, 0)
		}
	}
	return 0
}

// SafeFloat converts a JSON number or numeric string, returning def otherwise.
func SafeFloat(v gjson.Result, def float64) float64 {
	switch v.Type {
	case gjson.Number:
		return v.Num
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return def
		}
		return f
	case gjson.True:
		return 1
	case gjson.False:
		return 0
	default:
		return def
	}
}
