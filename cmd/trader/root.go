package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/zeromicro/go-zero/core/logx"

	"bithumb-llm-trader/internal/config"
	"bithumb-llm-trader/internal/svc"
)

type rootOptions struct {
	configFile string
	verbose    bool

	newService serviceFactory
}

type serviceFactory func(*config.Config) (*svc.ServiceContext, error)

func newRootCmd() *cobra.Command {
	return newRootCmdWith(func(c *config.Config) (*svc.ServiceContext, error) {
		return svc.NewServiceContext(c)
	})
}

func newRootCmdWith(factory serviceFactory) *cobra.Command {
	opts := &rootOptions{newService: factory}
	root := &cobra.Command{
		Use:   "trader",
		Short: "LLM-driven spot trading for Bithumb KRW pairs",
		Long: `trader asks a language model for a BUY/SELL/HOLD decision on each
configured trading pair, clamps it with per-strategy risk limits and places
(or, in dry-run, simulates) the resulting order on Bithumb.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logx.DisableStat()
			if opts.verbose {
				logx.SetLevel(logx.DebugLevel)
			}
		},
	}
	root.PersistentFlags().StringVarP(&opts.configFile, "config", "f", "etc/trader.yaml", "the config file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newOnceCmd(opts),
		newRunCmd(opts),
		newCancelCmd(opts),
		newConfigCmd(opts),
	)
	return root
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, err
	}
	if !o.verbose {
		switch cfg.LogLevel {
		case "debug":
			logx.SetLevel(logx.DebugLevel)
		case "error":
			logx.SetLevel(logx.ErrorLevel)
		case "severe":
			logx.SetLevel(logx.SevereLevel)
		}
	}
	return cfg, nil
}

func (o *rootOptions) service() (*svc.ServiceContext, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return o.newService(cfg)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
