package svc

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bithumb-llm-trader/internal/config"
	"bithumb-llm-trader/pkg/exchange"
	"bithumb-llm-trader/pkg/exchange/sim"
	"bithumb-llm-trader/pkg/llm"
)

type cannedClient struct{ answer string }

func (c cannedClient) Generate(context.Context, string, llm.Params) (string, error) {
	return c.answer, nil
}

const buyAnswer = `{"action":"BUY","confidence":0.9,"amount":0.01,"reasoning":"breakout"}`

func loadConfig(t *testing.T, env, portfolio string) *config.Config {
	t.Helper()
	t.Setenv("NO_DOTENV", "1")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	dir := t.TempDir()
	files := map[string]string{
		"trader.yaml":    "Env: " + env + "\nLLM:\n  File: llm.yaml\nExchange:\n  File: exchange.yaml\nPortfolio:\n  File: portfolio.yaml\n",
		"llm.yaml":       "default_model: gpt-4o-mini\n",
		"exchange.yaml":  "default: paper\nproviders:\n  paper:\n    type: sim\n  spare:\n    type: sim\n",
		"portfolio.yaml": portfolio,
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	cfg, err := config.Load(filepath.Join(dir, "trader.yaml"))
	require.NoError(t, err)
	return cfg
}

const livePortfolio = `
journal_dir: journal
strategies:
  - trading_pair: {order_currency: BTC, payment_currency: KRW}
    dry_run: false
`

func paperExchange() *sim.Provider {
	return sim.New(
		map[string]float64{"KRW": 10_000_000, "BTC": 0},
		map[string]float64{"BTC": 100_000_000},
	)
}

func TestNewServiceContextForcesDryRunOutsideProd(t *testing.T) {
	cfg := loadConfig(t, "test", livePortfolio)
	paper := paperExchange()

	svc, err := NewServiceContext(cfg,
		WithCompletionClient(cannedClient{answer: buyAnswer}),
		WithExchangeProviders(map[string]exchange.Client{"paper": paper}),
	)
	require.NoError(t, err)

	s, ok := svc.Manager.Strategy("BTC/KRW")
	require.True(t, ok)
	assert.True(t, s.DryRun())
	assert.Same(t, paper, s.Client())

	out, err := svc.Manager.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, out.StrategyResults, 1)
	assert.Empty(t, out.StrategyResults[0].Error)
	assert.Empty(t, paper.Orders(), "dry-run must not reach the exchange")

	require.NotNil(t, svc.Journal)
	entries, err := os.ReadDir(svc.Journal.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.NotEmpty(t, svc.PromptDigests["BTC/KRW"])
}

func TestNewServiceContextProdKeepsLiveStrategies(t *testing.T) {
	cfg := loadConfig(t, "prod", livePortfolio)

	svc, err := NewServiceContext(cfg,
		WithCompletionClient(cannedClient{answer: buyAnswer}),
		WithExchangeProviders(map[string]exchange.Client{"paper": paperExchange()}),
	)
	require.NoError(t, err)
	s, ok := svc.Manager.Strategy("BTC/KRW")
	require.True(t, ok)
	assert.False(t, s.DryRun())
}

func TestNewServiceContextBuildsConfiguredProviders(t *testing.T) {
	cfg := loadConfig(t, "test", `
strategies:
  - trading_pair: {order_currency: BTC, payment_currency: KRW}
  - trading_pair: {order_currency: ETH, payment_currency: KRW}
    exchange: spare
`)
	svc, err := NewServiceContext(cfg, WithCompletionClient(cannedClient{answer: buyAnswer}))
	require.NoError(t, err)

	assert.Len(t, svc.ExchangeProviders, 2)
	assert.Equal(t, "paper", svc.DefaultExchange)
	assert.Nil(t, svc.Journal)

	btc, _ := svc.Manager.Strategy("BTC/KRW")
	eth, _ := svc.Manager.Strategy("ETH/KRW")
	assert.Same(t, svc.ExchangeProviders["paper"], btc.Client())
	assert.Same(t, svc.ExchangeProviders["spare"], eth.Client())
}

func TestNewServiceContextRejectsMissingProvider(t *testing.T) {
	cfg := loadConfig(t, "test", livePortfolio)
	_, err := NewServiceContext(cfg,
		WithCompletionClient(cannedClient{answer: buyAnswer}),
		WithExchangeProviders(map[string]exchange.Client{}),
	)
	assert.ErrorContains(t, err, "unknown exchange provider")
}

func TestNewServiceContextRequiresLoadedConfig(t *testing.T) {
	_, err := NewServiceContext(&config.Config{})
	assert.Error(t, err)
}
