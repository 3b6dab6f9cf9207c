package manager

import (
	"errors"
	"fmt"

	"bithumb-llm-trader/pkg/decider"
	"bithumb-llm-trader/pkg/exchange"
	"bithumb-llm-trader/pkg/execution"
	"bithumb-llm-trader/pkg/market"
	"bithumb-llm-trader/pkg/risk"
)

// Strategy bundles one trading pair's configuration with the agents that
// serve it and its private decision history.
type Strategy struct {
	name   string
	pair   exchange.Pair
	dryRun bool

	client   exchange.Client
	decider  decider.Decider
	risk     *risk.Manager
	gatherer *market.Gatherer
	executor *execution.Agent
	history  *History
}

// NewStrategy builds a strategy from cfg. An empty cfg.Name defaults to the
// pair key "ASSET/QUOTE".
func NewStrategy(cfg StrategyConfig, client exchange.Client, d decider.Decider, maxHistory int) (*Strategy, error) {
	if client == nil {
		return nil, errors.New("manager: strategy exchange client is nil")
	}
	if d == nil {
		return nil, errors.New("manager: strategy decider is nil")
	}
	pair := exchange.NewPair(cfg.TradingPair.OrderCurrency, cfg.TradingPair.PaymentCurrency)
	if !pair.Valid() {
		return nil, fmt.Errorf("manager: invalid trading pair %q", pair)
	}
	if err := cfg.Risk.Validate(); err != nil {
		return nil, fmt.Errorf("manager: strategy %s: %w", pair, err)
	}
	name := cfg.Name
	if name == "" {
		name = pair.String()
	}
	return &Strategy{
		name:     name,
		pair:     pair,
		dryRun:   cfg.IsDryRun(),
		client:   client,
		decider:  d,
		risk:     risk.NewManager(cfg.Risk),
		gatherer: market.NewGatherer(client),
		executor: execution.NewAgent(client),
		history:  NewHistory(maxHistory),
	}, nil
}

func (s *Strategy) Name() string            { return s.name }
func (s *Strategy) Pair() exchange.Pair     { return s.pair }
func (s *Strategy) DryRun() bool            { return s.dryRun }
func (s *Strategy) Client() exchange.Client { return s.client }
func (s *Strategy) Risk() *risk.Manager     { return s.risk }
func (s *Strategy) History() *History       { return s.history }

func (s *Strategy) target() execution.Target {
	return execution.Target{Name: s.name, Pair: s.pair, DryRun: s.dryRun}
}
