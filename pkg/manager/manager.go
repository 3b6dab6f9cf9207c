// Package manager runs the portfolio cycle: for every strategy it fetches
// snapshots, asks the decider, applies risk limits, executes, records
// history and finally aggregates portfolio totals.
package manager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"
	"golang.org/x/sync/errgroup"

	"bithumb-llm-trader/pkg/decision"
	"bithumb-llm-trader/pkg/exchange"
	"bithumb-llm-trader/pkg/market"
	"bithumb-llm-trader/pkg/prompt"
)

const unavailablePrefix = "Decision unavailable: "

// CycleSink receives every completed cycle, e.g. for journaling.
type CycleSink interface {
	RecordCycle(ctx context.Context, result *PortfolioCycleResult) error
}

// Manager coordinates the configured strategies.
type Manager struct {
	strategies  []*Strategy
	byName      map[string]*Strategy
	interval    time.Duration
	concurrency int
	sinks       []CycleSink
	now         func() time.Time
	newID       func() string

	stopChan chan struct{}
	stopOnce sync.Once
}

// Option customises a Manager.
type Option func(*Manager)

// WithInterval sets the period of Run.
func WithInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithConcurrency bounds how many strategies run at once within a cycle.
func WithConcurrency(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.concurrency = n
		}
	}
}

// WithSink adds a cycle sink.
func WithSink(s CycleSink) Option {
	return func(m *Manager) {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// New builds a Manager over strategies, which run in the given order.
func New(strategies []*Strategy, opts ...Option) (*Manager, error) {
	if len(strategies) == 0 {
		return nil, errors.New("manager: at least one strategy is required")
	}
	m := &Manager{
		byName:      make(map[string]*Strategy, len(strategies)),
		interval:    5 * time.Minute,
		concurrency: DefaultMaxConcurrency,
		now:         time.Now,
		newID:       uuid.NewString,
		stopChan:    make(chan struct{}),
	}
	for _, s := range strategies {
		if s == nil {
			return nil, errors.New("manager: nil strategy")
		}
		if _, dup := m.byName[s.name]; dup {
			return nil, fmt.Errorf("manager: duplicate strategy %q", s.name)
		}
		m.byName[s.name] = s
		m.strategies = append(m.strategies, s)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Strategies returns the strategies in configured order.
func (m *Manager) Strategies() []*Strategy {
	out := make([]*Strategy, len(m.strategies))
	copy(out, m.strategies)
	return out
}

// Strategy looks up a strategy by name.
func (m *Manager) Strategy(name string) (*Strategy, bool) {
	s, ok := m.byName[name]
	return s, ok
}

// RunCycle runs every strategy once and aggregates the outcome. Strategy
// failures degrade that strategy to HOLD; an error is returned only when ctx
// is already done before the cycle starts.
func (m *Manager) RunCycle(ctx context.Context) (*PortfolioCycleResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	started := m.now()
	results := make([]StrategyCycleResult, len(m.strategies))

	if m.concurrency <= 1 || len(m.strategies) == 1 {
		for i, s := range m.strategies {
			results[i] = m.runStrategy(ctx, s)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(m.concurrency)
		for i, s := range m.strategies {
			i, s := i, s
			g.Go(func() error {
				results[i] = m.runStrategy(ctx, s)
				return nil
			})
		}
		_ = g.Wait()
	}

	out := aggregate(m.newID(), started, results)
	logx.WithContext(ctx).Infow("manager: cycle complete",
		logx.Field("cycle", out.ID),
		logx.Field("strategies", len(results)),
		logx.Field("total_cash", out.TotalCash),
		logx.Field("positions_value", out.TotalPositionsValue),
		logx.Field("net_exposure", out.NetExposureChange),
		logx.Field("duration", m.now().Sub(started).String()),
	)
	m.emit(ctx, out)
	return out, nil
}

// RunStrategy runs a single named strategy, recording its history.
func (m *Manager) RunStrategy(ctx context.Context, name string) (StrategyCycleResult, error) {
	s, ok := m.byName[name]
	if !ok {
		return StrategyCycleResult{}, fmt.Errorf("manager: unknown strategy %q", name)
	}
	if err := ctx.Err(); err != nil {
		return StrategyCycleResult{}, err
	}
	return m.runStrategy(ctx, s), nil
}

// Run executes a cycle immediately and then every interval until ctx is
// cancelled or Stop is called.
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		if _, err := m.RunCycle(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.stopChan:
			return nil
		case <-ticker.C:
		}
	}
}

// Stop signals Run to exit after the current cycle.
func (m *Manager) Stop() { m.stopOnce.Do(func() { close(m.stopChan) }) }

// CancelOrder cancels an open order through the named strategy's exchange.
func (m *Manager) CancelOrder(ctx context.Context, name string, side exchange.OrderSide, orderID string) (json.RawMessage, error) {
	s, ok := m.byName[name]
	if !ok {
		return nil, fmt.Errorf("manager: unknown strategy %q", name)
	}
	return s.client.CancelOrder(ctx, exchange.CancelRequest{Pair: s.pair, Side: side, OrderID: orderID})
}

func (m *Manager) runStrategy(ctx context.Context, s *Strategy) StrategyCycleResult {
	log := logx.WithContext(ctx)
	res := StrategyCycleResult{Name: s.name, Pair: s.pair}

	ms, acct, err := s.gatherer.Gather(ctx, s.pair)
	if err != nil {
		log.Errorw("manager: snapshot failed", logx.Field("strategy", s.name), logx.Field("error", err.Error()))
		ms, acct = market.MarketSnapshot{Pair: s.pair}, market.AccountSnapshot{AssetCurrency: s.pair.OrderCurrency, QuoteCurrency: s.pair.PaymentCurrency}
		res.LLMDecision, res.Error = unavailable(err)
	} else {
		res.LLMDecision, err = s.decider.Decide(ctx, prompt.Input{
			Pair:    s.pair,
			Market:  ms,
			Account: acct,
			Risk:    s.risk.Config(),
			History: s.history.Entries(),
		})
		if err != nil {
			log.Errorw("manager: decision failed", logx.Field("strategy", s.name), logx.Field("error", err.Error()))
			res.LLMDecision, res.Error = unavailable(err)
		}
	}
	res.Market, res.Account = ms, acct

	adjusted := s.risk.Apply(res.LLMDecision, ms, acct)
	res.FinalDecision, res.OrderResponse = s.executor.Execute(ctx, s.target(), adjusted, ms)
	s.history.Append(res.FinalDecision.Entry(m.now()))
	return res
}

// unavailable converts a pipeline failure into a zero-confidence HOLD,
// keeping the model text when the failure was a parse error.
func unavailable(err error) (decision.TradeDecision, string) {
	raw := ""
	var perr *decision.ParseError
	if errors.As(err, &perr) {
		raw = perr.Raw
	}
	return decision.Hold(0, unavailablePrefix+err.Error(), raw), err.Error()
}

func (m *Manager) emit(ctx context.Context, out *PortfolioCycleResult) {
	for _, sink := range m.sinks {
		if err := sink.RecordCycle(ctx, out); err != nil {
			logx.WithContext(ctx).Errorf("manager: cycle sink failed cycle=%s err=%v", out.ID, err)
		}
	}
}
