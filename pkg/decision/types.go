package decision

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Action is the closed set of trade directions a decision may carry.
// The zero value is ActionHold so an uninitialised decision never trades.
type Action uint8

const (
	ActionHold Action = iota
	ActionBuy
	ActionSell
)

// ParseAction resolves text case-insensitively against the supported actions.
func ParseAction(text string) (Action, error) {
	switch strings.ToUpper(strings.TrimSpace(text)) {
	case "BUY":
		return ActionBuy, nil
	case "SELL":
		return ActionSell, nil
	case "HOLD":
		return ActionHold, nil
	default:
		return ActionHold, &ParseError{Reason: fmt.Sprintf("unsupported action: %s", text)}
	}
}

func (a Action) String() string {
	switch a {
	case ActionBuy:
		return "BUY"
	case ActionSell:
		return "SELL"
	default:
		return "HOLD"
	}
}

// Sign returns +1 for buys, -1 for sells and 0 for holds.
func (a Action) Sign() float64 {
	switch a {
	case ActionBuy:
		return 1
	case ActionSell:
		return -1
	default:
		return 0
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Action) UnmarshalText(b []byte) error {
	v, err := ParseAction(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

type optFloat struct {
	v  float64
	ok bool
}

func some(v float64) optFloat { return optFloat{v: v, ok: true} }

func (o optFloat) ptr() *float64 {
	if !o.ok {
		return nil
	}
	v := o.v
	return &v
}

// TradeDecision is an immutable trade recommendation. Adjustments return
// a new value via the With* methods; fields are never changed in place.
type TradeDecision struct {
	action      Action
	confidence  float64
	amount      float64
	targetPrice optFloat
	stopLoss    optFloat
	takeProfit  optFloat
	reasoning   string
	rawResponse string
}

// Fields is the construction input for New.
type Fields struct {
	Action      Action
	Confidence  float64
	Amount      float64
	TargetPrice *float64
	StopLoss    *float64
	TakeProfit  *float64
	Reasoning   string
	RawResponse string
}

// New builds a decision from fields and validates its invariants.
func New(f Fields) (TradeDecision, error) {
	d := TradeDecision{
		action:      f.Action,
		confidence:  f.Confidence,
		amount:      f.Amount,
		reasoning:   f.Reasoning,
		rawResponse: f.RawResponse,
	}
	if f.TargetPrice != nil {
		d.targetPrice = some(*f.TargetPrice)
	}
	if f.StopLoss != nil {
		d.stopLoss = some(*f.StopLoss)
	}
	if f.TakeProfit != nil {
		d.takeProfit = some(*f.TakeProfit)
	}
	if err := d.Validate(); err != nil {
		return TradeDecision{}, err
	}
	return d, nil
}

// Hold synthesizes a HOLD decision, typically as a rejection fallback.
func Hold(confidence float64, reasoning, rawResponse string) TradeDecision {
	return TradeDecision{
		action:      ActionHold,
		confidence:  confidence,
		reasoning:   reasoning,
		rawResponse: rawResponse,
	}
}

// Validate checks the value invariants.
func (d TradeDecision) Validate() error {
	if math.IsNaN(d.confidence) || d.confidence < 0 || d.confidence > 1 {
		return &ParseError{Reason: "confidence must be between 0 and 1", Raw: d.rawResponse}
	}
	if math.IsNaN(d.amount) || math.IsInf(d.amount, 0) || d.amount < 0 {
		return &ParseError{Reason: "trade amount cannot be negative", Raw: d.rawResponse}
	}
	if d.targetPrice.ok && (math.IsNaN(d.targetPrice.v) || math.IsInf(d.targetPrice.v, 0) || d.targetPrice.v <= 0) {
		return &ParseError{Reason: "target price must be positive when provided", Raw: d.rawResponse}
	}
	return nil
}

func (d TradeDecision) Action() Action      { return d.action }
func (d TradeDecision) Confidence() float64 { return d.confidence }
func (d TradeDecision) Amount() float64     { return d.amount }
func (d TradeDecision) Reasoning() string   { return d.reasoning }
func (d TradeDecision) RawResponse() string { return d.rawResponse }

// TargetPrice reports the requested execution price, if any.
func (d TradeDecision) TargetPrice() (float64, bool) { return d.targetPrice.v, d.targetPrice.ok }

// StopLoss reports the protective stop level, if any.
func (d TradeDecision) StopLoss() (float64, bool) { return d.stopLoss.v, d.stopLoss.ok }

// TakeProfit reports the profit-taking level, if any.
func (d TradeDecision) TakeProfit() (float64, bool) { return d.takeProfit.v, d.takeProfit.ok }

// IsTrade reports whether the decision would move inventory.
func (d TradeDecision) IsTrade() bool { return d.action != ActionHold && d.amount > 0 }

func (d TradeDecision) WithAmount(amount float64) TradeDecision {
	d.amount = amount
	return d
}

func (d TradeDecision) WithTargetPrice(price float64) TradeDecision {
	d.targetPrice = some(price)
	return d
}

func (d TradeDecision) WithReasoning(reasoning string) TradeDecision {
	d.reasoning = reasoning
	return d
}

// WithProtection attaches stop-loss and take-profit levels.
func (d TradeDecision) WithProtection(stopLoss, takeProfit float64) TradeDecision {
	d.stopLoss = some(stopLoss)
	d.takeProfit = some(takeProfit)
	return d
}

// Summary is the serialisable view of a decision used by reports and journals.
type Summary struct {
	Action      Action   `json:"action"`
	Confidence  float64  `json:"confidence"`
	Amount      float64  `json:"amount"`
	TargetPrice *float64 `json:"target_price"`
	StopLoss    *float64 `json:"stop_loss,omitempty"`
	TakeProfit  *float64 `json:"take_profit,omitempty"`
	Reasoning   string   `json:"reasoning"`
	RawResponse string   `json:"raw_response,omitempty"`
}

// Summary returns a plain copy of the decision suitable for encoding.
func (d TradeDecision) Summary() Summary {
	return Summary{
		Action:      d.action,
		Confidence:  d.confidence,
		Amount:      d.amount,
		TargetPrice: d.targetPrice.ptr(),
		StopLoss:    d.stopLoss.ptr(),
		TakeProfit:  d.takeProfit.ptr(),
		Reasoning:   d.reasoning,
		RawResponse: d.rawResponse,
	}
}

// MarshalJSON encodes the decision through its Summary.
func (d TradeDecision) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Summary())
}

func (d TradeDecision) String() string {
	return fmt.Sprintf("%s amount=%g confidence=%.2f", d.action, d.amount, d.confidence)
}

// HistoryEntry is the compact record kept per strategy after each cycle.
type HistoryEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	Action     Action    `json:"action"`
	Amount     float64   `json:"amount"`
	Price      *float64  `json:"price"`
	Confidence float64   `json:"confidence"`
	Reasoning  string    `json:"reasoning"`
}

// Entry converts the decision into a history record stamped at ts (UTC).
func (d TradeDecision) Entry(ts time.Time) HistoryEntry {
	return HistoryEntry{
		Timestamp:  ts.UTC(),
		Action:     d.action,
		Amount:     d.amount,
		Price:      d.targetPrice.ptr(),
		Confidence: d.confidence,
		Reasoning:  d.reasoning,
	}
}
