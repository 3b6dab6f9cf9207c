package svc

import (
	"errors"
	"fmt"

	"github.com/zeromicro/go-zero/core/logx"

	"bithumb-llm-trader/internal/config"
	"bithumb-llm-trader/pkg/decider"
	exchangepkg "bithumb-llm-trader/pkg/exchange"
	_ "bithumb-llm-trader/pkg/exchange/bithumb"
	_ "bithumb-llm-trader/pkg/exchange/sim"
	"bithumb-llm-trader/pkg/journal"
	llmpkg "bithumb-llm-trader/pkg/llm"
	managerpkg "bithumb-llm-trader/pkg/manager"
	"bithumb-llm-trader/pkg/prompt"
)

// ServiceContext holds every long-lived dependency built from Config.
type ServiceContext struct {
	Config *config.Config

	LLMClient         llmpkg.TextCompletionClient
	ExchangeProviders map[string]exchangepkg.Client
	DefaultExchange   string
	PromptDigests     map[string]string
	Journal           *journal.Writer
	Manager           *managerpkg.Manager
}

// Option overrides a dependency, mainly for tests.
type Option func(*options)

type options struct {
	completion llmpkg.TextCompletionClient
	exchanges  map[string]exchangepkg.Client
}

// WithCompletionClient replaces the OpenAI client.
func WithCompletionClient(c llmpkg.TextCompletionClient) Option {
	return func(o *options) { o.completion = c }
}

// WithExchangeProviders replaces the clients built from exchange config.
func WithExchangeProviders(m map[string]exchangepkg.Client) Option {
	return func(o *options) { o.exchanges = m }
}

// NewServiceContext wires config into clients, strategies and the manager.
// Outside prod every strategy is forced into dry-run.
func NewServiceContext(c *config.Config, opts ...Option) (*ServiceContext, error) {
	if c == nil || !c.LLM.Loaded() || !c.Exchange.Loaded() || !c.Portfolio.Loaded() {
		return nil, errors.New("svc: config sections are not loaded")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	svc := &ServiceContext{
		Config:          c,
		DefaultExchange: c.Exchange.Value.Default,
		PromptDigests:   make(map[string]string),
	}

	svc.LLMClient = o.completion
	if svc.LLMClient == nil {
		client, err := llmpkg.NewClient(c.LLM.Value)
		if err != nil {
			return nil, fmt.Errorf("svc: llm client: %w", err)
		}
		svc.LLMClient = client
	}

	svc.ExchangeProviders = o.exchanges
	if svc.ExchangeProviders == nil {
		providers, err := c.Exchange.Value.BuildProviders()
		if err != nil {
			return nil, fmt.Errorf("svc: %w", err)
		}
		svc.ExchangeProviders = providers
	}

	portfolio := c.Portfolio.Value
	strategies := make([]*managerpkg.Strategy, 0, len(portfolio.Strategies))
	for _, sc := range portfolio.Strategies {
		s, digest, err := svc.buildStrategy(sc, portfolio.MaxHistory)
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, s)
		svc.PromptDigests[s.Name()] = digest
	}

	mopts := []managerpkg.Option{
		managerpkg.WithInterval(portfolio.Interval),
		managerpkg.WithConcurrency(portfolio.MaxConcurrency),
	}
	if portfolio.JournalDir != "" {
		w, err := journal.NewWriter(portfolio.JournalDir)
		if err != nil {
			return nil, fmt.Errorf("svc: %w", err)
		}
		svc.Journal = w
		mopts = append(mopts, managerpkg.WithSink(NewJournalSink(w, svc.PromptDigests)))
	}

	m, err := managerpkg.New(strategies, mopts...)
	if err != nil {
		return nil, fmt.Errorf("svc: %w", err)
	}
	svc.Manager = m
	return svc, nil
}

func (svc *ServiceContext) buildStrategy(sc managerpkg.StrategyConfig, maxHistory int) (*managerpkg.Strategy, string, error) {
	exName := sc.Exchange
	if exName == "" {
		exName = svc.DefaultExchange
	}
	client, ok := svc.ExchangeProviders[exName]
	if !ok {
		return nil, "", fmt.Errorf("svc: strategy %s references unknown exchange provider %q", sc.Name, exName)
	}

	if !svc.Config.IsProd() && !sc.IsDryRun() {
		logx.Infof("svc: env=%s forces dry-run for strategy %s", svc.Config.Env, sc.Name)
		forced := true
		sc.DryRun = &forced
	}

	builder, err := prompt.NewBuilder(sc.PromptTemplate)
	if err != nil {
		return nil, "", fmt.Errorf("svc: strategy %s prompt: %w", sc.Name, err)
	}
	d, err := decider.New(svc.LLMClient, builder, sc.LLM)
	if err != nil {
		return nil, "", fmt.Errorf("svc: strategy %s: %w", sc.Name, err)
	}
	s, err := managerpkg.NewStrategy(sc, client, d, maxHistory)
	if err != nil {
		return nil, "", fmt.Errorf("svc: %w", err)
	}
	return s, builder.Digest(), nil
}
