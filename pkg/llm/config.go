package llm

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultBaseURL       = "https://api.openai.com/v1"
	defaultModel         = "gpt-4o-mini"
	defaultTimeoutRaw    = "60s"
	defaultMaxRetries    = 3
	defaultLogLevel      = "info"
	envAPIKey            = "OPENAI_API_KEY"
	envBaseURL           = "OPENAI_BASE_URL"
	envDefaultModel      = "OPENAI_DEFAULT_MODEL"
	envTimeout           = "OPENAI_TIMEOUT"
	envMaxRetries        = "OPENAI_MAX_RETRIES"
	maxRetriesUnsetValue = -1
)

// Config describes the OpenAI-compatible endpoint trade decisions are
// requested from.
type Config struct {
	BaseURL      string        `yaml:"base_url"`
	APIKey       string        `yaml:"api_key"`
	DefaultModel string        `yaml:"default_model"`
	Timeout      time.Duration `yaml:"-"`
	// MaxRetries is the number of extra attempts after a retryable failure.
	// Omitted means 3; an explicit 0 disables retries.
	MaxRetries int    `yaml:"max_retries"`
	LogLevel   string `yaml:"log_level"`

	TimeoutRaw string `yaml:"timeout"`
}

// LoadConfig reads the llm section file.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open llm config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// LoadConfigFromReader decodes r, expands ${VAR} references and lets the
// OPENAI_* environment variables override file values.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read llm config: %w", err)
	}

	cfg := Config{MaxRetries: maxRetriesUnsetValue}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal llm config: %w", err)
	}

	if err := cfg.expandFields(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.parseDurations(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) expandFields() error {
	for _, f := range []struct {
		dst *string
		env string
	}{
		{&c.BaseURL, envBaseURL},
		{&c.APIKey, envAPIKey},
		{&c.DefaultModel, envDefaultModel},
		{&c.TimeoutRaw, envTimeout},
		{&c.LogLevel, ""},
	} {
		*f.dst = strings.TrimSpace(os.ExpandEnv(*f.dst))
		if f.env == "" {
			continue
		}
		if v := strings.TrimSpace(os.Getenv(f.env)); v != "" {
			*f.dst = v
		}
	}

	if v := strings.TrimSpace(os.Getenv(envMaxRetries)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("llm config: invalid %s %q: %w", envMaxRetries, v, err)
		}
		c.MaxRetries = n
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.DefaultModel == "" {
		c.DefaultModel = defaultModel
	}
	if c.TimeoutRaw == "" {
		c.TimeoutRaw = defaultTimeoutRaw
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.MaxRetries == maxRetriesUnsetValue {
		c.MaxRetries = defaultMaxRetries
	}
}

func (c *Config) parseDurations() error {
	d, err := time.ParseDuration(c.TimeoutRaw)
	if err != nil {
		return fmt.Errorf("llm config: invalid timeout %q: %w", c.TimeoutRaw, err)
	}
	if d <= 0 {
		return fmt.Errorf("llm config: timeout must be positive, got %s", d)
	}
	c.Timeout = d
	return nil
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	switch {
	case c.APIKey == "":
		return errors.New("llm config: api_key is required")
	case c.BaseURL == "":
		return errors.New("llm config: base_url is required")
	case c.DefaultModel == "":
		return errors.New("llm config: default_model is required")
	case c.Timeout <= 0:
		return errors.New("llm config: timeout must be positive")
	case c.MaxRetries < 0:
		return errors.New("llm config: max_retries cannot be negative")
	}
	return nil
}

// Clone returns an independent copy; Config holds no reference fields.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
