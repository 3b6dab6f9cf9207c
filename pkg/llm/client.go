package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	DefaultTemperature     = 0.0
	DefaultMaxOutputTokens = 512
)

// Params selects the model and sampling settings for one completion.
type Params struct {
	Model           string  `yaml:"model" json:"model"`
	Temperature     float64 `yaml:"temperature" json:"temperature"`
	MaxOutputTokens int     `yaml:"max_output_tokens" json:"max_output_tokens"`
}

// DefaultParams returns gpt-4o-mini at temperature 0 with 512 output tokens.
func DefaultParams() Params {
	return Params{Model: defaultModel, Temperature: DefaultTemperature, MaxOutputTokens: DefaultMaxOutputTokens}
}

// TextCompletionClient turns a prompt into model text.
type TextCompletionClient interface {
	Generate(ctx context.Context, prompt string, params Params) (string, error)
}

// Client calls an OpenAI-compatible chat completions endpoint.
type Client struct {
	config       *Config
	openaiClient *openai.Client
	logger       Logger
	retryHandler *RetryHandler
	httpClient   *http.Client
}

// ClientOption configures optional client behaviour.
type ClientOption func(*clientOptions)

type clientOptions struct {
	logger       Logger
	retry        *RetryHandler
	httpClient   *http.Client
	openaiClient *openai.Client
}

// WithLogger injects a custom logger implementation.
func WithLogger(logger Logger) ClientOption {
	return func(opts *clientOptions) {
		opts.logger = logger
	}
}

// WithRetryHandler injects a custom retry handler.
func WithRetryHandler(handler *RetryHandler) ClientOption {
	return func(opts *clientOptions) {
		opts.retry = handler
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(opts *clientOptions) {
		opts.httpClient = client
	}
}

// WithOpenAIClient injects a pre-configured OpenAI client.
func WithOpenAIClient(client *openai.Client) ClientOption {
	return func(opts *clientOptions) {
		opts.openaiClient = client
	}
}

// NewClient constructs a client using the provided configuration.
func NewClient(cfg *Config, opts ...ClientOption) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("llm: config cannot be nil")
	}
	clientCfg := cfg.Clone()
	if err := clientCfg.Validate(); err != nil {
		return nil, err
	}

	optState := clientOptions{}
	for _, opt := range opts {
		opt(&optState)
	}

	logger := optState.logger
	if logger == nil {
		logger = NewLogger(clientCfg.LogLevel)
	}
	retryHandler := optState.retry
	if retryHandler == nil {
		retryHandler = NewRetryHandler(RetryConfig{MaxRetries: clientCfg.MaxRetries})
	}

	oaClient := optState.openaiClient
	if oaClient == nil {
		oaOpts := []option.RequestOption{
			option.WithAPIKey(clientCfg.APIKey),
			option.WithBaseURL(clientCfg.BaseURL),
			// Retries are owned by RetryHandler.
			option.WithMaxRetries(0),
		}
		if clientCfg.Timeout > 0 {
			oaOpts = append(oaOpts, option.WithRequestTimeout(clientCfg.Timeout))
		}
		if optState.httpClient != nil {
			oaOpts = append(oaOpts, option.WithHTTPClient(optState.httpClient))
		}
		clientVal := openai.NewClient(oaOpts...)
		oaClient = &clientVal
	}

	return &Client{
		config:       clientCfg,
		openaiClient: oaClient,
		logger:       logger,
		retryHandler: retryHandler,
		httpClient:   optState.httpClient,
	}, nil
}

// Generate sends prompt as a single user message and returns the first
// choice's text. An empty Model falls back to the configured default.
func (c *Client) Generate(ctx context.Context, prompt string, params Params) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("llm: prompt cannot be empty")
	}
	model := strings.TrimSpace(params.Model)
	if model == "" {
		model = c.config.DefaultModel
	}
	req := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Messages:    []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		Temperature: openai.Float(params.Temperature),
	}
	if params.MaxOutputTokens > 0 {
		req.MaxCompletionTokens = openai.Int(int64(params.MaxOutputTokens))
	}

	start := time.Now()
	c.logger.Debug(ctx, "llm completion request", Fields{
		"model":        model,
		"prompt_chars": len(prompt),
	})

	var completion *openai.ChatCompletion
	err := c.retryHandler.Do(ctx, func() error {
		resp, callErr := c.openaiClient.Chat.Completions.New(ctx, req)
		if callErr != nil {
			c.logger.Warn(ctx, "llm completion attempt failed", Fields{"model": model, "err": callErr.Error()})
			return callErr
		}
		completion = resp
		return nil
	})
	if err != nil {
		c.logger.Error(ctx, fmt.Errorf("llm completion failed: %w", err), Fields{"model": model})
		return "", fmt.Errorf("llm: completion %s: %w", model, err)
	}
	if completion == nil || len(completion.Choices) == 0 {
		return "", fmt.Errorf("llm: completion %s returned no choices", model)
	}

	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	c.logger.Info(ctx, "llm completion success", Fields{
		"model":             model,
		"duration_ms":       time.Since(start).Milliseconds(),
		"prompt_tokens":     completion.Usage.PromptTokens,
		"completion_tokens": completion.Usage.CompletionTokens,
	})
	return text, nil
}

// Config returns a copy of the client configuration.
func (c *Client) Config() *Config {
	return c.config.Clone()
}

// Close releases idle connections held by an injected HTTP client.
func (c *Client) Close() error {
	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
	}
	return nil
}
