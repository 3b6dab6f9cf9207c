package risk

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

const (
	DefaultMaxTradeValue   = 1_000_000.0
	DefaultMaxPositionSize = 0.2
	DefaultStopLossPct     = 0.02
	DefaultTakeProfitPct   = 0.03
	DefaultMinConfidence   = 0.55
)

// Config constrains order sizing for one strategy.
type Config struct {
	// MaxTradeValue caps a single order's notional, in quote currency.
	MaxTradeValue float64 `yaml:"max_trade_value" json:"max_trade_value"`
	// MaxPositionSize caps a single order's size, in asset units.
	MaxPositionSize float64 `yaml:"max_position_size" json:"max_position_size"`
	StopLossPct     float64 `yaml:"stop_loss_pct" json:"stop_loss_pct"`
	TakeProfitPct   float64 `yaml:"take_profit_pct" json:"take_profit_pct"`
	MinConfidence   float64 `yaml:"min_confidence" json:"min_confidence"`
}

// DefaultConfig returns the stock limits.
func DefaultConfig() Config {
	return Config{
		MaxTradeValue:   DefaultMaxTradeValue,
		MaxPositionSize: DefaultMaxPositionSize,
		StopLossPct:     DefaultStopLossPct,
		TakeProfitPct:   DefaultTakeProfitPct,
		MinConfidence:   DefaultMinConfidence,
	}
}

// UnmarshalYAML starts from DefaultConfig so omitted keys keep their defaults
// while explicit zeros are honoured.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	type plain Config
	out := plain(DefaultConfig())
	if err := node.Decode(&out); err != nil {
		return err
	}
	*c = Config(out)
	return nil
}

// Validate checks that every limit is usable.
func (c Config) Validate() error {
	if c.MaxTradeValue < 0 {
		return fmt.Errorf("risk: max_trade_value cannot be negative")
	}
	if c.MaxPositionSize < 0 {
		return fmt.Errorf("risk: max_position_size cannot be negative")
	}
	if c.StopLossPct < 0 || c.StopLossPct >= 1 {
		return fmt.Errorf("risk: stop_loss_pct must be in [0,1)")
	}
	if c.TakeProfitPct < 0 || c.TakeProfitPct >= 1 {
		return fmt.Errorf("risk: take_profit_pct must be in [0,1)")
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("risk: min_confidence must be in [0,1]")
	}
	return nil
}
