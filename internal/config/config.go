package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/zeromicro/go-zero/core/conf"

	"bithumb-llm-trader/pkg/confkit"
	exchangepkg "bithumb-llm-trader/pkg/exchange"
	llmpkg "bithumb-llm-trader/pkg/llm"
	managerpkg "bithumb-llm-trader/pkg/manager"
)

// Config is the top-level trader configuration. Each section lives in its
// own yaml file referenced relative to the main file.
type Config struct {
	// Env is test, dev or prod. Live orders are only allowed in prod.
	Env      string `json:",default=test"`
	LogLevel string `json:",default=info"`

	LLM       confkit.Section[llmpkg.Config]      `json:",optional"`
	Exchange  confkit.Section[exchangepkg.Config] `json:",optional"`
	Portfolio confkit.Section[managerpkg.Config]  `json:",optional"`

	mainPath string
	baseDir  string
}

// IsProd reports whether live trading is permitted.
func (c *Config) IsProd() bool {
	return c.Env == "prod"
}

// Load reads the main file, then hydrates and validates every section.
func Load(path string) (*Config, error) {
	confkit.LoadDotenvOnce()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path %s: %w", path, err)
	}

	var cfg Config
	if err := conf.Load(absPath, &cfg, conf.UseEnv()); err != nil {
		return nil, fmt.Errorf("load config %s: %w", absPath, err)
	}
	cfg.mainPath = absPath
	cfg.baseDir = filepath.Dir(absPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.hydrateSections(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the main file; sections validate themselves on load.
func (c *Config) Validate() error {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	switch c.Env {
	case "":
		c.Env = "test"
	case "test", "dev", "prod":
	default:
		return errors.New("config: env must be one of test|dev|prod")
	}
	if strings.TrimSpace(c.LLM.File) == "" {
		return errors.New("config: LLM.File is required")
	}
	if strings.TrimSpace(c.Exchange.File) == "" {
		return errors.New("config: Exchange.File is required")
	}
	if strings.TrimSpace(c.Portfolio.File) == "" {
		return errors.New("config: Portfolio.File is required")
	}
	return nil
}

func (c *Config) hydrateSections() error {
	base := c.baseDir

	if err := c.LLM.Hydrate(base, llmpkg.LoadConfig); err != nil {
		return fmt.Errorf("load llm config: %w", err)
	}
	if err := c.Exchange.Hydrate(base, exchangepkg.LoadConfig); err != nil {
		return fmt.Errorf("load exchange config: %w", err)
	}
	if err := c.Portfolio.Hydrate(base, managerpkg.LoadConfig); err != nil {
		return fmt.Errorf("load portfolio config: %w", err)
	}
	return c.crossCheck()
}

// crossCheck ensures every strategy resolves to a configured exchange.
func (c *Config) crossCheck() error {
	ex := c.Exchange.Value
	for i, s := range c.Portfolio.Value.Strategies {
		name := s.Exchange
		if name == "" {
			name = ex.Default
		}
		if name == "" {
			return fmt.Errorf("config: strategies[%d] has no exchange and no default provider is set", i)
		}
		if _, ok := ex.Providers[name]; !ok {
			return fmt.Errorf("config: strategies[%d] references undefined exchange %q", i, name)
		}
	}
	return nil
}

func (c *Config) MainPath() string { return c.mainPath }

func (c *Config) BaseDir() string { return c.baseDir }
