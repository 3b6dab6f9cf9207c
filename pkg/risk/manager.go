package risk

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"bithumb-llm-trader/pkg/decision"
	"bithumb-llm-trader/pkg/market"
)

const appliedMarker = " | Risk controls applied"

// Manager clamps decisions to account and configuration limits. It holds no
// state besides its configuration, so Apply is safe for concurrent use.
type Manager struct {
	cfg Config
}

// NewManager returns a Manager enforcing cfg.
func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg}
}

// Config returns the limits in force.
func (m *Manager) Config() Config { return m.cfg }

// Apply runs the gates in order and returns either a clamped decision with
// protective levels attached, or a HOLD explaining the rejection. It never fails.
func (m *Manager) Apply(d decision.TradeDecision, ms market.MarketSnapshot, acct market.AccountSnapshot) decision.TradeDecision {
	if d.Action() == decision.ActionHold {
		return d
	}
	if d.Confidence() < m.cfg.MinConfidence {
		return reject(d, fmt.Sprintf(
			"Decision rejected by risk manager: confidence %.2f below threshold %.2f.",
			d.Confidence(), m.cfg.MinConfidence,
		))
	}

	price := resolvePrice(d, ms)
	if price <= 0 {
		return reject(d, "Decision rejected: unable to determine valid execution price.")
	}

	switch d.Action() {
	case decision.ActionBuy:
		allowed := minOf(
			math.Max(d.Amount(), 0),
			m.cfg.MaxPositionSize,
			acct.AvailableQuote/price,
			m.cfg.MaxTradeValue/price,
		)
		if !(allowed > 0) {
			return reject(d, "Insufficient funds to execute BUY order.")
		}
		return m.protect(d.WithAmount(allowed), price)
	case decision.ActionSell:
		allowed := minOf(
			math.Max(d.Amount(), 0),
			m.cfg.MaxPositionSize,
			acct.AvailableAsset,
		)
		if !(allowed > 0) {
			return reject(d, "No inventory available to SELL.")
		}
		return m.protect(d.WithAmount(allowed), price)
	default:
		return d
	}
}

// ProtectiveLevels returns stop-loss and take-profit for an entry at price.
// Buys stop below and take above the entry; sells invert both.
func (m *Manager) ProtectiveLevels(action decision.Action, price float64) (stopLoss, takeProfit float64) {
	entry := decimal.NewFromFloat(price)
	one := decimal.NewFromInt(1)
	sl := decimal.NewFromFloat(m.cfg.StopLossPct)
	tp := decimal.NewFromFloat(m.cfg.TakeProfitPct)
	if action == decision.ActionSell {
		return entry.Mul(one.Add(sl)).InexactFloat64(), entry.Mul(one.Sub(tp)).InexactFloat64()
	}
	return entry.Mul(one.Sub(sl)).InexactFloat64(), entry.Mul(one.Add(tp)).InexactFloat64()
}

func (m *Manager) protect(d decision.TradeDecision, price float64) decision.TradeDecision {
	sl, tp := m.ProtectiveLevels(d.Action(), price)
	return d.WithProtection(sl, tp).WithReasoning(strings.TrimSpace(d.Reasoning() + appliedMarker))
}

func resolvePrice(d decision.TradeDecision, ms market.MarketSnapshot) float64 {
	if p, ok := d.TargetPrice(); ok && p > 0 {
		return p
	}
	return ms.Ticker.ReferencePrice()
}

func reject(d decision.TradeDecision, reason string) decision.TradeDecision {
	return decision.Hold(d.Confidence(), reason, d.RawResponse())
}

func minOf(first float64, rest ...float64) float64 {
	out := first
	for _, v := range rest {
		out = math.Min(out, v)
	}
	return out
}
