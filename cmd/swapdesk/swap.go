package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swapDesk/internal/dex"
	"swapDesk/internal/lifecycle"
)

func runSwap(cmd *cobra.Command, _ []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	if e.cfg.Router == "" {
		return fmt.Errorf("--router is required")
	}
	router, err := dex.ParseToken(e.cfg.Router)
	if err != nil {
		return err
	}
	retries, _ := cmd.Flags().GetInt("retries")
	unlimited, _ := cmd.Flags().GetBool("unlimited")

	session, err := e.openSession(true)
	if err != nil {
		return err
	}
	defer session.Teardown()

	trade, err := buildQuote(cmd, e, session.Backend())
	if err != nil {
		return err
	}
	q := trade.quote
	displayQuote(os.Stdout, q, trade.in, trade.out)
	if q.AmountIn.Sign() == 0 {
		return fmt.Errorf("amount must be greater than zero")
	}

	if q.Severity.RequiresConfirmation() && !e.cfg.AssumeYes {
		color.Red("  Price impact %.2f%% is high.", q.PriceImpact)
		if !askYesNo(stdin, os.Stdout, "Swap anyway?") {
			color.Yellow("  Swap cancelled")
			return nil
		}
	}

	var executor lifecycle.Executor
	if ex := session.Executor(); ex != nil {
		executor = ex
	}

	tokenIn := dex.InputCurrency(q.PoolKey, q.Params)
	if executor != nil && !dex.IsNative(tokenIn) {
		state, err := approveIfNeeded(e, session, tokenIn, router, q.AmountIn, unlimited)
		if err != nil {
			return err
		}
		if !state.Sufficient() {
			return fmt.Errorf("allowance %s does not cover %s", state.Allowance, q.AmountIn)
		}
	}

	attempt, err := lifecycle.NewSwapAttempt(router, q.PoolKey, q.Params, q.AmountIn)
	if err != nil {
		return err
	}

	store, closeStore, err := e.openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	tracker := lifecycle.NewTracker(executor, session, e.sink(), e.logger)
	unsubscribe := tracker.Subscribe(lifecycle.NewJournal(store, session.ChainID(), e.logger))
	defer unsubscribe()

	snap, err := tracker.Execute(e.ctx, attempt)
	for {
		if err != nil {
			return err
		}
		if snap.Status == lifecycle.StatusConfirming {
			snap, err = awaitSwap(e, tracker)
			if err != nil {
				return err
			}
		}
		if snap.Status != lifecycle.StatusFailed || snap.Err == nil || !snap.Err.Retryable() || retries <= 0 {
			break
		}
		retries--
		e.logger.Info("retrying swap", zap.Uint64("attempt", snap.AttemptNumber), zap.Int("retries_left", retries))
		snap, err = tracker.Retry(e.ctx)
	}

	displaySwapResult(os.Stdout, snap)
	if snap.Status == lifecycle.StatusFailed && snap.Err != nil {
		return snap.Err
	}
	return nil
}

func awaitSwap(e *env, tracker *lifecycle.Tracker) (lifecycle.Snapshot, error) {
	ctx, cancel := context.WithTimeout(e.ctx, e.cfg.ReceiptTimeout)
	defer cancel()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Writer = os.Stderr
	s.Suffix = " Waiting for confirmation..."
	s.Start()
	snap, err := tracker.Wait(ctx)
	s.Stop()
	if err != nil {
		return snap, fmt.Errorf("await receipt %s: %w", snap.TxHash.Hex(), err)
	}
	return snap, nil
}
