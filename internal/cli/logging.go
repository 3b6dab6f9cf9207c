package cli

import (
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"bithumb-llm-trader/internal/config"
	"bithumb-llm-trader/pkg/confkit"
)

// ConfigSummaryLines returns human readable lines describing the loaded app config.
func ConfigSummaryLines(cfg *config.Config) []string {
	if cfg == nil {
		return []string{"Configuration: <nil>"}
	}

	lines := []string{
		fmt.Sprintf("Environment: %s", cfg.Env),
		fmt.Sprintf("Log level: %s", cfg.LogLevel),
		sectionLine("LLM config", cfg.LLM),
		sectionLine("Exchange config", cfg.Exchange),
		sectionLine("Portfolio config", cfg.Portfolio),
	}

	if llmCfg := cfg.LLM.Value; llmCfg != nil {
		lines = append(lines,
			fmt.Sprintf("LLM endpoint: %s (model %s)", llmCfg.BaseURL, llmCfg.DefaultModel),
			fmt.Sprintf("LLM api key: %s", presence(llmCfg.APIKey != "")),
		)
	}
	if ex := cfg.Exchange.Value; ex != nil {
		lines = append(lines, fmt.Sprintf("Exchange providers: %d (default %s)", len(ex.Providers), orNone(ex.Default)))
	}
	if p := cfg.Portfolio.Value; p != nil {
		lines = append(lines,
			fmt.Sprintf("Interval: %s", p.Interval),
			fmt.Sprintf("Strategies: %s", strings.Join(p.StrategyNames(), ", ")),
			fmt.Sprintf("Journal: %s", orNone(p.JournalDir)),
		)
		for _, s := range p.Strategies {
			mode := "live"
			if s.IsDryRun() || !cfg.IsProd() {
				mode = "dry-run"
			}
			lines = append(lines, fmt.Sprintf("Strategy %s: %s on %s, model %s", s.Name, mode, orNone(s.Exchange), s.LLM.Model))
		}
	}

	return lines
}

// LogConfigSummary emits the configuration summary using logx.
func LogConfigSummary(cfg *config.Config) {
	lines := ConfigSummaryLines(cfg)
	if len(lines) == 0 {
		return
	}
	logx.Info("configuration summary")
	for _, line := range lines {
		logx.Infof("config • %s", line)
	}
}

func presence(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "<none>"
	}
	return s
}

func sectionLine[T any](name string, section confkit.Section[T]) string {
	switch {
	case strings.TrimSpace(section.File) != "":
		return fmt.Sprintf("%s: %s", name, section.File)
	case section.Value != nil:
		return fmt.Sprintf("%s: inline", name)
	default:
		return fmt.Sprintf("%s: not configured", name)
	}
}
