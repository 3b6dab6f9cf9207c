package bithumb

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"bithumb-llm-trader/pkg/exchange"
)

var btcKRW = exchange.NewPair("BTC", "KRW")

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(
		WithBaseURL(srv.URL),
		WithCredentials("test-key", "test-secret"),
		WithNonce(func() string { return "1700000000000" }),
	)
}

func TestSign(t *testing.T) {
	got := Sign("secret", "/info/balance", "currency=BTC", "1")
	assert.NotEmpty(t, got)
	assert.Equal(t, got, Sign("secret", "/info/balance", "currency=BTC", "1"), "signature should be deterministic")
	assert.NotEqual(t, got, Sign("secret", "/info/balance", "currency=ETH", "1"), "body must be covered")
	assert.NotEqual(t, got, Sign("secret", "/info/balance", "currency=BTC", "2"), "nonce must be covered")
}

func TestTicker_UnwrapsData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/public/ticker/BTC_KRW", r.URL.Path)
		_, _ = io.WriteString(w, `{"status":"0000","data":{"closing_price":"1000000","fluctate_rate_24H":"1.5"}}`)
	})
	data, err := c.Ticker(context.Background(), btcKRW)
	require.NoError(t, err)
	assert.Equal(t, 1000000.0, gjson.GetBytes(data, "closing_price").Float())
	assert.Equal(t, "1.5", gjson.GetBytes(data, "fluctate_rate_24H").String())
}

func TestPrivateRequest_SignsForm(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/trade/place", r.URL.Path)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		form, err := url.ParseQuery(string(body))
		require.NoError(t, err)
		assert.Equal(t, "BTC", form.Get("order_currency"))
		assert.Equal(t, "KRW", form.Get("payment_currency"))
		assert.Equal(t, "0.4", form.Get("units"))
		assert.Equal(t, "ask", form.Get("type"))
		assert.Equal(t, "1000000", form.Get("price"))

		assert.Equal(t, "test-key", r.Header.Get("Api-Key"))
		assert.Equal(t, "1700000000000", r.Header.Get("Api-Nonce"))
		assert.Equal(t, Sign("test-secret", "/trade/place", string(body), "1700000000000"), r.Header.Get("Api-Sign"))
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		_, _ = io.WriteString(w, `{"status":"0000","order_id":"C0101000001"}`)
	})

	resp, err := c.PlaceOrder(context.Background(), exchange.Order{
		Pair: btcKRW, Side: exchange.SideAsk, Units: "0.4", Price: "1000000",
	})
	require.NoError(t, err)
	assert.Equal(t, "C0101000001", resp.OrderID)
	assert.Equal(t, "0000", gjson.GetBytes(resp.Raw, "status").String())
}

func TestBalance_Params(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/info/balance", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "BTC", r.PostForm.Get("currency"))
		assert.Equal(t, "KRW", r.PostForm.Get("payment_currency"))
		_, _ = io.WriteString(w, `{"status":"0000","data":{"available_btc":"0.5","available_krw":"1000000"}}`)
	})
	data, err := c.Balance(context.Background(), btcKRW)
	require.NoError(t, err)
	assert.Equal(t, "0.5", gjson.GetBytes(data, "available_btc").String())
}

func TestCancelOrder_Params(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/trade/cancel", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "bid", r.PostForm.Get("type"))
		assert.Equal(t, "C1", r.PostForm.Get("order_id"))
		_, _ = io.WriteString(w, `{"status":"0000"}`)
	})
	_, err := c.CancelOrder(context.Background(), exchange.CancelRequest{Pair: btcKRW, Side: exchange.SideBid, OrderID: "C1"})
	require.NoError(t, err)
}

func TestErrors(t *testing.T) {
	t.Run("status code", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"status":"5600","message":"Insufficient balance"}`)
		})
		_, err := c.PlaceOrder(context.Background(), exchange.Order{Pair: btcKRW, Side: exchange.SideBid, Units: "1", Price: "1"})
		require.Error(t, err)
		var exErr *exchange.Error
		require.ErrorAs(t, err, &exErr)
		assert.Equal(t, "5600", exErr.Code)
		assert.Equal(t, "Insufficient balance", exErr.Message)
		assert.Contains(t, string(exErr.Payload), "5600")
	})

	t.Run("http failure", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		_, err := c.Ticker(context.Background(), btcKRW)
		var exErr *exchange.Error
		require.ErrorAs(t, err, &exErr)
		assert.Equal(t, http.StatusBadGateway, exErr.HTTPStatus)
	})

	t.Run("invalid json", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `<html>`)
		})
		_, err := c.OrderBook(context.Background(), btcKRW)
		assert.True(t, exchange.IsExchangeError(err))
	})

	t.Run("missing credentials", func(t *testing.T) {
		c := NewClient(WithBaseURL("http://127.0.0.1:1"))
		_, err := c.Balance(context.Background(), btcKRW)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "credentials")
	})
}

func TestEmptyBodyIsSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	data, err := c.RecentTransactions(context.Background(), btcKRW)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))
}

func TestDefaultNonceIsUniqueUnderConcurrency(t *testing.T) {
	var (
		mu     sync.Mutex
		nonces = make(map[string]int)
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		nonces[r.Header.Get("Api-Nonce")]++
		mu.Unlock()
		_, _ = io.WriteString(w, `{"status":"0000","data":{}}`)
	}))
	t.Cleanup(srv.Close)
	c := NewClient(WithBaseURL(srv.URL), WithCredentials("test-key", "test-secret"))

	const callers = 8
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Balance(context.Background(), btcKRW)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, nonces, callers)
	for nonce, n := range nonces {
		assert.Equal(t, 1, n, "nonce %s reused", nonce)
	}
}

func TestMonotonicNonceWithFrozenClock(t *testing.T) {
	frozen := time.UnixMilli(1_700_000_000_000)
	next := newMonotonicNonce(func() time.Time { return frozen })
	assert.Equal(t, "1700000000000", next())
	assert.Equal(t, "1700000000001", next())
	assert.Equal(t, "1700000000002", next())
}
