package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bithumb-llm-trader/internal/cli"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Validate configuration and print a summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			for _, line := range cli.ConfigSummaryLines(cfg) {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
