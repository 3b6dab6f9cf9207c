package bithumb

import "bithumb-llm-trader/pkg/exchange"

func init() {
	exchange.RegisterProvider("bithumb", func(name string, cfg *exchange.ProviderConfig) (exchange.Client, error) {
		opts := []Option{WithCredentials(cfg.APIKey, cfg.APISecret), WithTimeout(cfg.Timeout)}
		if cfg.BaseURL != "" {
			opts = append(opts, WithBaseURL(cfg.BaseURL))
		}
		return NewClient(opts...), nil
	})
}

var _ exchange.Client = (*Client)(nil)
