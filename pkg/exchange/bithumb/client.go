package bithumb

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"bithumb-llm-trader/pkg/exchange"
)

const (
	// DefaultBaseURL is the production REST endpoint.
	DefaultBaseURL = "https://api.bithumb.com"
	defaultTimeout = 10 * time.Second

	statusOK = "0000"
)

// Client talks to the Bithumb REST API. Public endpoints are plain GETs;
// private endpoints are form POSTs signed with HMAC-SHA512.
type Client struct {
	http      *resty.Client
	apiKey    string
	apiSecret string
	nonce     func() string
}

type settings struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	apiKey     string
	apiSecret  string
	nonce      func() string
}

// Option configures a Client.
type Option func(*settings)

// WithBaseURL overrides the API root, mainly for tests.
func WithBaseURL(u string) Option {
	return func(s *settings) { s.baseURL = strings.TrimRight(u, "/") }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithHTTPClient swaps the underlying transport (e.g. a recorder).
func WithHTTPClient(hc *http.Client) Option {
	return func(s *settings) { s.httpClient = hc }
}

// WithCredentials sets the key pair used for private endpoints.
func WithCredentials(key, secret string) Option {
	return func(s *settings) {
		s.apiKey = key
		s.apiSecret = secret
	}
}

// WithNonce replaces the millisecond-clock nonce source.
func WithNonce(fn func() string) Option {
	return func(s *settings) { s.nonce = fn }
}

// NewClient builds a client with the given options.
func NewClient(opts ...Option) *Client {
	s := settings{baseURL: DefaultBaseURL, timeout: defaultTimeout}
	for _, opt := range opts {
		opt(&s)
	}
	if s.nonce == nil {
		s.nonce = newMonotonicNonce(time.Now)
	}
	var rc *resty.Client
	if s.httpClient != nil {
		rc = resty.NewWithClient(s.httpClient)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(s.baseURL)
	rc.SetTimeout(s.timeout)
	rc.SetHeader("Accept", "application/json")
	return &Client{
		http:      rc,
		apiKey:    s.apiKey,
		apiSecret: s.apiSecret,
		nonce:     s.nonce,
	}
}

// newMonotonicNonce returns millisecond nonces that never repeat, even when
// several strategies sign requests through one client in the same millisecond.
func newMonotonicNonce(now func() time.Time) func() string {
	var last atomic.Int64
	return func() string {
		for {
			prev := last.Load()
			next := now().UnixMilli()
			if next <= prev {
				next = prev + 1
			}
			if last.CompareAndSwap(prev, next) {
				return strconv.FormatInt(next, 10)
			}
		}
	}
}

// Sign computes base64(HMAC-SHA512(secret, endpoint \0 body \0 nonce)).
func Sign(secret, endpoint, body, nonce string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(endpoint))
	mac.Write([]byte{0})
	mac.Write([]byte(body))
	mac.Write([]byte{0})
	mac.Write([]byte(nonce))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (c *Client) public(ctx context.Context, endpoint string) (gjson.Result, error) {
	resp, err := c.http.R().SetContext(ctx).Get(endpoint)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("bithumb: GET %s: %w", endpoint, err)
	}
	return parseResponse(resp)
}

func (c *Client) private(ctx context.Context, endpoint string, params url.Values) (gjson.Result, error) {
	if c.apiKey == "" || c.apiSecret == "" {
		return gjson.Result{}, fmt.Errorf("bithumb: %s requires api credentials", endpoint)
	}
	body := params.Encode()
	nonce := c.nonce()
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Api-Key", c.apiKey).
		SetHeader("Api-Sign", Sign(c.apiSecret, endpoint, body, nonce)).
		SetHeader("Api-Nonce", nonce).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetBody(body).
		Post(endpoint)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("bithumb: POST %s: %w", endpoint, err)
	}
	return parseResponse(resp)
}

func parseResponse(resp *resty.Response) (gjson.Result, error) {
	body := resp.Body()
	if resp.StatusCode() >= http.StatusBadRequest {
		return gjson.Result{}, &exchange.Error{
			Message:    fmt.Sprintf("HTTP error from Bithumb: %d", resp.StatusCode()),
			HTTPStatus: resp.StatusCode(),
			Payload:    body,
		}
	}
	if len(body) == 0 {
		body = []byte("{}")
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, &exchange.Error{Message: "invalid JSON response", Payload: body}
	}
	payload := gjson.ParseBytes(body)
	if status := payload.Get("status"); status.Exists() && status.String() != statusOK {
		msg := payload.Get("message").String()
		if msg == "" {
			msg = "unknown error"
		}
		return gjson.Result{}, &exchange.Error{Message: msg, Code: status.String(), Payload: body}
	}
	return payload, nil
}

// data unwraps the optional "data" envelope.
func data(payload gjson.Result) json.RawMessage {
	if d := payload.Get("data"); d.Exists() {
		return json.RawMessage(d.Raw)
	}
	return json.RawMessage(payload.Raw)
}

func pairParams(pair exchange.Pair) url.Values {
	return url.Values{
		"order_currency":   {pair.OrderCurrency},
		"payment_currency": {pair.PaymentCurrency},
	}
}

// Ticker returns the 24h ticker for the pair.
func (c *Client) Ticker(ctx context.Context, pair exchange.Pair) (json.RawMessage, error) {
	payload, err := c.public(ctx, "/public/ticker/"+pair.Symbol())
	if err != nil {
		return nil, err
	}
	return data(payload), nil
}

// OrderBook returns the current bids and asks.
func (c *Client) OrderBook(ctx context.Context, pair exchange.Pair) (json.RawMessage, error) {
	payload, err := c.public(ctx, "/public/orderbook/"+pair.Symbol())
	if err != nil {
		return nil, err
	}
	return data(payload), nil
}

// RecentTransactions returns the latest public fills.
func (c *Client) RecentTransactions(ctx context.Context, pair exchange.Pair) (json.RawMessage, error) {
	payload, err := c.public(ctx, "/public/recent_transactions/"+pair.Symbol())
	if err != nil {
		return nil, err
	}
	return data(payload), nil
}

// Balance returns account balances for both legs of the pair.
func (c *Client) Balance(ctx context.Context, pair exchange.Pair) (json.RawMessage, error) {
	payload, err := c.private(ctx, "/info/balance", url.Values{
		"currency":         {pair.OrderCurrency},
		"payment_currency": {pair.PaymentCurrency},
	})
	if err != nil {
		return nil, err
	}
	return data(payload), nil
}

// OpenOrders lists resting orders on the pair.
func (c *Client) OpenOrders(ctx context.Context, pair exchange.Pair) (json.RawMessage, error) {
	payload, err := c.private(ctx, "/info/orders", pairParams(pair))
	if err != nil {
		return nil, err
	}
	return data(payload), nil
}

// PlaceOrder submits a limit order, or a market order when Price is empty.
func (c *Client) PlaceOrder(ctx context.Context, order exchange.Order) (*exchange.OrderResponse, error) {
	params := pairParams(order.Pair)
	params.Set("units", order.Units)
	params.Set("type", string(order.Side))
	if order.Price != "" {
		params.Set("price", order.Price)
	}
	payload, err := c.private(ctx, "/trade/place", params)
	if err != nil {
		return nil, err
	}
	return &exchange.OrderResponse{
		OrderID: payload.Get("order_id").String(),
		Raw:     json.RawMessage(payload.Raw),
	}, nil
}

// CancelOrder cancels a resting order.
func (c *Client) CancelOrder(ctx context.Context, req exchange.CancelRequest) (json.RawMessage, error) {
	params := pairParams(req.Pair)
	params.Set("type", string(req.Side))
	params.Set("order_id", req.OrderID)
	payload, err := c.private(ctx, "/trade/cancel", params)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(payload.Raw), nil
}
