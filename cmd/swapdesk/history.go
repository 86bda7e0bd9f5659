package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swapDesk/internal/chain"
	"swapDesk/internal/dex"
	"swapDesk/internal/history"
)

func runHistory(cmd *cobra.Command, _ []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	if e.cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if !common.IsHexAddress(e.cfg.PoolManager) {
		return fmt.Errorf("invalid pool manager address: %q", e.cfg.PoolManager)
	}
	poolID, err := historyPoolID(cmd, e)
	if err != nil {
		return err
	}
	from, _ := cmd.Flags().GetUint64("from")
	to, _ := cmd.Flags().GetUint64("to")
	window, _ := cmd.Flags().GetDuration("window")

	client, err := chain.NewClient(e.ctx, e.cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer client.Close()

	scanner := history.NewScanner(history.Config{
		PoolManager:  common.HexToAddress(e.cfg.PoolManager),
		PoolID:       poolID,
		FromBlock:    from,
		ToBlock:      to,
		BatchSize:    e.cfg.BatchSize,
		MaxRetries:   e.cfg.MaxRetries,
		RetryBackoff: e.cfg.RetryBackoff,
	}, client, e.logger)

	e.logger.Info("history start",
		zap.String("pool", poolID.Hex()),
		zap.Uint64("from", from),
		zap.Uint64("to", to),
		zap.Uint64("batch_size", e.cfg.BatchSize),
	)
	swaps, err := scanner.Run(e.ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	if window <= 0 {
		for _, swap := range swaps {
			if err := enc.Encode(swap); err != nil {
				return err
			}
		}
		return nil
	}
	summaries, err := history.Summarize(swaps, window)
	if err != nil {
		return err
	}
	for _, summary := range summaries {
		if err := enc.Encode(summary); err != nil {
			return err
		}
	}
	return nil
}

func historyPoolID(cmd *cobra.Command, e *env) (common.Hash, error) {
	if raw, _ := cmd.Flags().GetString("pool-id"); strings.TrimSpace(raw) != "" {
		return dex.ParsePoolID(raw)
	}
	tokenA, err := flagAddress(cmd, "token-a")
	if err != nil {
		return common.Hash{}, fmt.Errorf("--pool-id or the token flags are required: %w", err)
	}
	tokenB, err := flagAddress(cmd, "token-b")
	if err != nil {
		return common.Hash{}, err
	}
	hooks, err := e.hooks()
	if err != nil {
		return common.Hash{}, err
	}
	key, err := dex.BuildPoolKey(tokenA, tokenB, e.cfg.Fee, hooks)
	if err != nil {
		return common.Hash{}, err
	}
	return key.ID(), nil
}
