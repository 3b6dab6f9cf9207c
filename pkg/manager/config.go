package manager

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"bithumb-llm-trader/pkg/exchange"
	"bithumb-llm-trader/pkg/llm"
	"bithumb-llm-trader/pkg/risk"
)

const (
	DefaultMaxHistory     = 50
	DefaultMaxConcurrency = 1
	defaultIntervalRaw    = "5m"
)

// Config is the portfolio definition: which strategies run and how often.
type Config struct {
	Interval       time.Duration    `yaml:"-"`
	MaxHistory     int              `yaml:"max_history"`
	MaxConcurrency int              `yaml:"max_concurrency"`
	JournalDir     string           `yaml:"journal_dir"`
	Strategies     []StrategyConfig `yaml:"strategies"`

	IntervalRaw string `yaml:"interval"`

	baseDir string
}

// StrategyConfig describes one trading-pair pipeline.
type StrategyConfig struct {
	Name           string        `yaml:"name"`
	Exchange       string        `yaml:"exchange"`
	TradingPair    exchange.Pair `yaml:"trading_pair"`
	Risk           risk.Config   `yaml:"risk"`
	LLM            llm.Params    `yaml:"llm"`
	DryRun         *bool         `yaml:"dry_run"`
	PromptTemplate string        `yaml:"prompt_template"`
}

// UnmarshalYAML seeds the risk limits with defaults so an omitted risk block
// keeps them while an explicit block, zeros included, is decoded as written.
func (s *StrategyConfig) UnmarshalYAML(node *yaml.Node) error {
	type plain StrategyConfig
	out := plain{Risk: risk.DefaultConfig()}
	if err := node.Decode(&out); err != nil {
		return err
	}
	*s = StrategyConfig(out)
	return nil
}

// IsDryRun reports the dry-run flag; strategies are dry-run unless disabled.
func (s StrategyConfig) IsDryRun() bool {
	return s.DryRun == nil || *s.DryRun
}

// LoadConfig reads the portfolio file. Relative template and journal paths
// resolve against the file's directory.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open portfolio config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file, filepath.Dir(path))
}

// LoadConfigFromReader constructs a Config from a reader with the provided base directory.
func LoadConfigFromReader(r io.Reader, baseDir string) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read portfolio config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal portfolio config: %w", err)
	}
	cfg.baseDir = baseDir

	cfg.applyDefaults()
	if err := cfg.parseDurations(); err != nil {
		return nil, err
	}
	cfg.expandFields()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.IntervalRaw) == "" {
		c.IntervalRaw = defaultIntervalRaw
	}
	if c.MaxHistory == 0 {
		c.MaxHistory = DefaultMaxHistory
	}
	if c.MaxConcurrency == 0 {
		c.MaxConcurrency = DefaultMaxConcurrency
	}
	for i := range c.Strategies {
		s := &c.Strategies[i]
		if strings.TrimSpace(s.LLM.Model) == "" {
			s.LLM.Model = llm.DefaultParams().Model
		}
		if s.LLM.MaxOutputTokens == 0 {
			s.LLM.MaxOutputTokens = llm.DefaultMaxOutputTokens
		}
	}
}

func (c *Config) parseDurations() error {
	value := strings.TrimSpace(c.IntervalRaw)
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("portfolio config: invalid interval %q: %w", value, err)
	}
	if d <= 0 {
		return fmt.Errorf("portfolio config: interval must be positive, got %s", d)
	}
	c.Interval = d
	return nil
}

func (c *Config) expandFields() {
	c.JournalDir = c.resolvePath(c.JournalDir)
	for i := range c.Strategies {
		s := &c.Strategies[i]
		s.TradingPair = exchange.NewPair(s.TradingPair.OrderCurrency, s.TradingPair.PaymentCurrency)
		s.Exchange = strings.TrimSpace(s.Exchange)
		s.Name = strings.TrimSpace(s.Name)
		if s.Name == "" {
			s.Name = s.TradingPair.String()
		}
		s.PromptTemplate = c.resolvePath(s.PromptTemplate)
	}
}

func (c *Config) resolvePath(path string) string {
	path = strings.TrimSpace(os.ExpandEnv(path))
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.baseDir, path)
}

// Validate ensures configuration sanity.
func (c *Config) Validate() error {
	if len(c.Strategies) == 0 {
		return errors.New("portfolio config: at least one strategy must be defined")
	}
	if c.MaxHistory < 1 {
		return errors.New("portfolio config: max_history must be positive")
	}
	if c.MaxConcurrency < 1 {
		return errors.New("portfolio config: max_concurrency must be positive")
	}

	seen := make(map[string]struct{}, len(c.Strategies))
	for i, s := range c.Strategies {
		if !s.TradingPair.Valid() {
			return fmt.Errorf("portfolio config: strategies[%d].trading_pair requires order_currency and payment_currency", i)
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("portfolio config: duplicate strategy name %q", s.Name)
		}
		seen[s.Name] = struct{}{}
		if err := s.Risk.Validate(); err != nil {
			return fmt.Errorf("portfolio config: strategies[%d].risk: %w", i, err)
		}
		if math.IsNaN(s.LLM.Temperature) || s.LLM.Temperature < 0 || s.LLM.Temperature > 2 {
			return fmt.Errorf("portfolio config: strategies[%d].llm.temperature must be between 0 and 2", i)
		}
		if s.LLM.MaxOutputTokens < 0 {
			return fmt.Errorf("portfolio config: strategies[%d].llm.max_output_tokens cannot be negative", i)
		}
		if s.PromptTemplate != "" {
			if _, err := os.Stat(s.PromptTemplate); err != nil {
				return fmt.Errorf("portfolio config: strategies[%d].prompt_template %q not accessible: %w", i, s.PromptTemplate, err)
			}
		}
	}
	return nil
}

// StrategyNames returns strategy names in configured order.
func (c *Config) StrategyNames() []string {
	names := make([]string, 0, len(c.Strategies))
	for _, s := range c.Strategies {
		names = append(names, s.Name)
	}
	return names
}
