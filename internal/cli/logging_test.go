package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bithumb-llm-trader/internal/config"
	"bithumb-llm-trader/pkg/confkit"
	"bithumb-llm-trader/pkg/exchange"
	"bithumb-llm-trader/pkg/llm"
	"bithumb-llm-trader/pkg/manager"
)

func TestConfigSummaryLinesNil(t *testing.T) {
	assert.Equal(t, []string{"Configuration: <nil>"}, ConfigSummaryLines(nil))
}

func TestConfigSummaryLines(t *testing.T) {
	live := false
	cfg := &config.Config{
		Env:      "test",
		LogLevel: "info",
		LLM: confkit.Section[llm.Config]{
			File:  "/etc/trader/llm.yaml",
			Value: &llm.Config{BaseURL: "https://api.openai.com/v1", DefaultModel: "gpt-4o-mini", APIKey: "sk"},
		},
		Exchange: confkit.Section[exchange.Config]{
			Value: &exchange.Config{Default: "paper", Providers: map[string]*exchange.ProviderConfig{"paper": {Type: "sim"}}},
		},
		Portfolio: confkit.Section[manager.Config]{
			Value: &manager.Config{Strategies: []manager.StrategyConfig{
				{Name: "BTC/KRW", Exchange: "paper", DryRun: &live, LLM: llm.Params{Model: "gpt-4o-mini"}},
			}},
		},
	}

	lines := ConfigSummaryLines(cfg)
	assert.Contains(t, lines, "Environment: test")
	assert.Contains(t, lines, "LLM config: /etc/trader/llm.yaml")
	assert.Contains(t, lines, "Exchange config: inline")
	assert.Contains(t, lines, "LLM api key: configured")
	assert.Contains(t, lines, "Exchange providers: 1 (default paper)")
	assert.Contains(t, lines, "Journal: <none>")
	assert.Contains(t, lines, "Strategy BTC/KRW: dry-run on paper, model gpt-4o-mini", "non-prod env forces dry-run")
}
