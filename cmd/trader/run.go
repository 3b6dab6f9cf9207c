package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zeromicro/go-zero/core/logx"

	"bithumb-llm-trader/internal/cli"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run decision cycles on the configured interval until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := opts.service()
			if err != nil {
				return err
			}
			cli.LogConfigSummary(sc.Config)

			ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logx.Infof("starting trading loop every %s for %d strategies", sc.Config.Portfolio.Value.Interval, len(sc.Manager.Strategies()))
			if err := sc.Manager.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			logx.Info("trading loop stopped")
			return nil
		},
	}
}
