package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"swapDesk/internal/dex"
)

func runPoolID(cmd *cobra.Command, _ []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	tokenA, err := flagAddress(cmd, "token-a")
	if err != nil {
		return err
	}
	tokenB, err := flagAddress(cmd, "token-b")
	if err != nil {
		return err
	}
	hooks, err := e.hooks()
	if err != nil {
		return err
	}
	key, err := dex.BuildPoolKey(tokenA, tokenB, e.cfg.Fee, hooks)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "pool_id:      %s\n", key.ID().Hex())
	fmt.Fprintf(os.Stdout, "currency0:    %s\n", key.Currency0.Hex())
	fmt.Fprintf(os.Stdout, "currency1:    %s\n", key.Currency1.Hex())
	fmt.Fprintf(os.Stdout, "fee:          %d\n", key.Fee)
	fmt.Fprintf(os.Stdout, "tick_spacing: %d\n", key.TickSpacing)
	fmt.Fprintf(os.Stdout, "hooks:        %s\n", key.Hooks.Hex())
	return nil
}
