package main

import (
	"github.com/spf13/cobra"

	"bithumb-llm-trader/internal/cli"
)

func newOnceCmd(opts *rootOptions) *cobra.Command {
	var strategy string
	cmd := &cobra.Command{
		Use:   "once",
		Short: "Run a single decision cycle and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := opts.service()
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			if strategy != "" {
				res, err := sc.Manager.RunStrategy(ctx, strategy)
				if err != nil {
					return err
				}
				return cli.WriteStrategyReport(cmd.OutOrStdout(), res)
			}
			out, err := sc.Manager.RunCycle(ctx)
			if err != nil {
				return err
			}
			return cli.WriteCycleReport(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVarP(&strategy, "strategy", "s", "", "run only the named strategy")
	return cmd
}
