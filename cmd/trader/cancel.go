package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"bithumb-llm-trader/pkg/exchange"
)

func newCancelCmd(opts *rootOptions) *cobra.Command {
	var strategy, side, orderID string
	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel an open order through a strategy's exchange",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strategy == "" || orderID == "" {
				return errors.New("cancel: --strategy and --order-id are required")
			}
			orderSide, err := exchange.ParseSide(side)
			if err != nil {
				return fmt.Errorf("cancel: %w", err)
			}
			sc, err := opts.service()
			if err != nil {
				return err
			}
			raw, err := sc.Manager.CancelOrder(commandContext(cmd), strategy, orderSide, orderID)
			if err != nil {
				return fmt.Errorf("cancel order %s: %w", orderID, err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "cancelled %s: %s\n", orderID, raw)
			return err
		},
	}
	cmd.Flags().StringVarP(&strategy, "strategy", "s", "", "strategy whose exchange and pair to use")
	cmd.Flags().StringVar(&side, "side", "", "order side: bid or ask")
	cmd.Flags().StringVar(&orderID, "order-id", "", "exchange order id")
	return cmd
}
