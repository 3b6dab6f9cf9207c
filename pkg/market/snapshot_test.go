package market

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"bithumb-llm-trader/pkg/exchange"
)

func TestTickerReferencePrice(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want float64
	}{
		{"closing price", `{"closing_price":"1000000","price":"5"}`, 1000000},
		{"camel case fallback", `{"closing_price":"0","closePrice":2500}`, 2500},
		{"price fallback", `{"closing_price":"n/a","price":"42.5"}`, 42.5},
		{"nothing positive", `{"closing_price":"-1","price":0}`, 0},
		{"empty", `{}`, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tk := Ticker{Raw: json.RawMessage(tc.raw)}
			assert.Equal(t, tc.want, tk.ReferencePrice())
		})
	}
}

func TestTickerClosingPriceIgnoresFallbacks(t *testing.T) {
	tk := Ticker{Raw: json.RawMessage(`{"closePrice":"99"}`)}
	assert.Zero(t, tk.ClosingPrice())
	assert.Equal(t, "None", tk.Text("fluctate_rate_24H"))
	assert.Equal(t, "99", tk.Text("closePrice"))
}

func TestExtractBalanceKeyOrder(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want float64
	}{
		{"available lower wins", `{"available_krw":"100","available_KRW":"200","krw":"300"}`, 100},
		{"available upper", `{"available_KRW":200,"KRW":300}`, 200},
		{"available as given", `{"available_Krw":"150","krw":"300"}`, 150},
		{"bare lower", `{"krw":"300","KRW":"400"}`, 300},
		{"bare upper", `{"KRW":"400"}`, 400},
		{"bare as given", `{"Krw":"500"}`, 500},
		{"present but junk", `{"available_krw":"oops","krw":"300"}`, 0},
		{"missing", `{"total_krw":"1"}`, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractBalance(json.RawMessage(tc.raw), "Krw"))
		})
	}
}

func TestNewAccountSnapshot(t *testing.T) {
	raw := json.RawMessage(`{"available_btc":"0.75","available_krw":"2500000"}`)
	acct := NewAccountSnapshot(exchange.NewPair("BTC", "KRW"), raw)
	assert.Equal(t, 0.75, acct.AvailableAsset)
	assert.Equal(t, 2500000.0, acct.AvailableQuote)
	assert.Equal(t, "BTC", acct.AssetCurrency)
	assert.Equal(t, "KRW", acct.QuoteCurrency)
}

func TestParseOrderBook(t *testing.T) {
	book := ParseOrderBook(json.RawMessage(`{
		"bids":[{"price":"99","quantity":"1.5"},{"price":"98","quantity":"2"}],
		"ask":[{"price":"101","amount":"0.5"}]
	}`))
	require.Len(t, book.Bids, 2)
	require.Len(t, book.Asks, 1)
	assert.Equal(t, Level{Price: 99, Quantity: 1.5}, book.Bids[0])
	assert.Equal(t, Level{Price: 101, Quantity: 0.5}, book.Asks[0])

	top := book.Top(1)
	assert.Len(t, top.Bids, 1)
	assert.Len(t, book.Bids, 2, "Top should not modify the receiver")
}

func TestSafeFloat(t *testing.T) {
	doc := gjson.Parse(`{"n":1.5,"s":" 2 ","bad":"x","nil":null,"t":true}`)
	assert.Equal(t, 1.5, SafeFloat(doc.Get("n"), -1))
	assert.Equal(t, 2.0, SafeFloat(doc.Get("s"), -1))
	assert.Equal(t, -1.0, SafeFloat(doc.Get("bad"), -1))
	assert.Equal(t, -1.0, SafeFloat(doc.Get("nil"), -1))
	assert.Equal(t, -1.0, SafeFloat(doc.Get("missing"), -1))
	assert.Equal(t, 1.0, SafeFloat(doc.Get("t"), -1))
}

func TestTickerMarshalJSON(t *testing.T) {
	b, err := json.Marshal(MarketSnapshot{Ticker: Ticker{Raw: json.RawMessage(`{"closing_price":"1"}`)}})
	require.NoError(t, err)
	assert.Equal(t, "1", gjson.GetBytes(b, "ticker.closing_price").String())

	b, err = json.Marshal(Ticker{})
	require.NoError(t, err)
	assert.Equal(t, "{}", string(b))
}
