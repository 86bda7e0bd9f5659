package main

import (
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"swapDesk/internal/dex"
	"swapDesk/internal/lifecycle"
	"swapDesk/internal/quote"
	"swapDesk/internal/wallet"
)

func runApprove(cmd *cobra.Command, _ []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	token, err := flagAddress(cmd, "token")
	if err != nil {
		return err
	}
	spender, err := spenderAddress(cmd, e.cfg.Router)
	if err != nil {
		return err
	}
	unlimited, _ := cmd.Flags().GetBool("unlimited")

	session, err := e.openSession(true)
	if err != nil {
		return err
	}
	defer session.Teardown()

	var required *big.Int
	if amount, _ := cmd.Flags().GetString("amount"); strings.TrimSpace(amount) != "" {
		resolver := dex.TokenResolver{Caller: session.Backend(), Cache: dex.NewTokenMetaCache(), Logger: e.logger}
		flagValue, _ := cmd.Flags().GetInt("decimals")
		decimals, err := resolveDecimals(e.ctx, resolver, token, flagValue)
		if err != nil {
			return err
		}
		required, err = quote.ParseTokenAmount(amount, decimals)
		if err != nil {
			return err
		}
	} else if !unlimited {
		return fmt.Errorf("--amount or --unlimited is required")
	}

	state, err := approveIfNeeded(e, session, token, spender, required, unlimited)
	if err != nil {
		return err
	}
	if state.Status != lifecycle.ApprovalApproved {
		return fmt.Errorf("approval %s", state.Status)
	}
	return nil
}

func spenderAddress(cmd *cobra.Command, router string) (common.Address, error) {
	if value, _ := cmd.Flags().GetString("spender"); strings.TrimSpace(value) != "" {
		return dex.ParseToken(value)
	}
	if strings.TrimSpace(router) == "" {
		return common.Address{}, fmt.Errorf("--router or --spender is required")
	}
	return dex.ParseToken(router)
}

// approveIfNeeded checks the allowance and submits an approval when it does
// not cover required. A nil required amount always approves.
func approveIfNeeded(e *env, session *wallet.Session, token, spender common.Address, required *big.Int, unlimited bool) (lifecycle.ApprovalState, error) {
	allowances := session.Allowances()
	if allowances == nil {
		return lifecycle.ApprovalState{}, fmt.Errorf("a private key is required to approve")
	}
	approval := lifecycle.NewApproval(allowances, session, token, spender, required, e.sink(), e.logger)

	state := approval.Check(e.ctx)
	switch state.Status {
	case lifecycle.ApprovalApproved:
		if required != nil {
			fmt.Fprintf(os.Stdout, "  Allowance %s already covers %s\n", state.Allowance, required)
			return state, nil
		}
	case lifecycle.ApprovalError:
		if state.Err != nil {
			return state, state.Err
		}
		return state, fmt.Errorf("allowance check failed")
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Writer = os.Stderr
	s.Suffix = " Waiting for approval..."
	// the signing prompt needs the terminal
	if e.cfg.AssumeYes {
		s.Start()
	}
	state, err := approval.Approve(e.ctx, unlimited)
	s.Stop()
	if err != nil {
		return state, err
	}
	if state.Err != nil {
		return state, state.Err
	}
	if state.Status != lifecycle.ApprovalApproved {
		return state, fmt.Errorf("allowance %s still below %s after approval %s", state.Allowance, state.Required, state.TxHash.Hex())
	}
	color.Green("  Approved %s for %s (allowance %s)", shortAddress(token), shortAddress(spender), state.Allowance)
	return state, nil
}
