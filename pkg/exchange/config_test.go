package exchange_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	exchange "bithumb-llm-trader/pkg/exchange"
	_ "bithumb-llm-trader/pkg/exchange/bithumb"
	_ "bithumb-llm-trader/pkg/exchange/sim"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "exchange.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigAndBuildProviders(t *testing.T) {
	t.Setenv("BITHUMB_API_KEY", "key")
	t.Setenv("BITHUMB_API_SECRET", "secret")

	path := writeConfig(t, `
default: bithumb_main
providers:
  bithumb_main:
    type: bithumb
    api_key: ${BITHUMB_API_KEY}
    api_secret: ${BITHUMB_API_SECRET}
    base_url: https://api.bithumb.com
    timeout: 15s
  paper:
    type: sim
    balances:
      KRW: 5000000
      BTC: 0.1
    prices:
      BTC: 100000000
`)

	cfg, err := exchange.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "bithumb_main", cfg.Default)
	assert.Equal(t, "key", cfg.Providers["bithumb_main"].APIKey)
	assert.Equal(t, "secret", cfg.Providers["bithumb_main"].APISecret)
	assert.Equal(t, "15s", cfg.Providers["bithumb_main"].TimeoutRaw)
	assert.Equal(t, 5000000.0, cfg.Providers["paper"].Balances["KRW"])

	clients, err := cfg.BuildProviders()
	require.NoError(t, err)
	assert.Len(t, clients, 2)
	assert.Contains(t, clients, "bithumb_main")
	assert.Contains(t, clients, "paper")
}

func TestLoadConfigSingleProviderIsDefault(t *testing.T) {
	cfg, err := exchange.LoadConfig(writeConfig(t, "providers:\n  paper:\n    type: sim\n"))
	require.NoError(t, err)
	assert.Equal(t, "paper", cfg.Default)
}

func TestLoadConfigRejects(t *testing.T) {
	cases := map[string]string{
		"unknown type": `
providers:
  x:
    type: binance
`,
		"missing default": `
default: nope
providers:
  paper:
    type: sim
`,
		"half credentials": `
providers:
  live:
    type: bithumb
    api_key: only-key
`,
		"bad timeout": `
providers:
  live:
    type: bithumb
    timeout: soon
`,
		"negative balance": `
providers:
  paper:
    type: sim
    balances:
      KRW: -1
`,
		"empty": `providers: {}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := exchange.LoadConfig(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestGetProvider(t *testing.T) {
	client, err := exchange.GetProvider("sim", nil)
	require.NoError(t, err)
	assert.NotNil(t, client)

	_, err = exchange.GetProvider("ftx", nil)
	assert.Error(t, err)
}
