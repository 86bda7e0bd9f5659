package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swapDesk/internal/dex"
	"swapDesk/internal/quote"
)

type tradeQuote struct {
	quote *quote.Quote
	in    tokenLabel
	out   tokenLabel
}

func runQuote(cmd *cobra.Command, _ []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	var caller dex.ContractCaller
	if e.cfg.RPCURL != "" {
		session, err := e.openSession(false)
		if err != nil {
			return err
		}
		defer session.Teardown()
		caller = session.Backend()
	}

	if watch, _ := cmd.Flags().GetBool("watch"); watch {
		tq, err := newTradeQuoter(cmd, e, caller)
		if err != nil {
			return err
		}
		delay, _ := cmd.Flags().GetDuration("debounce")
		fmt.Fprintln(os.Stderr, "Enter amounts, one per line. Ctrl-D to stop.")
		return watchQuotes(e.ctx, os.Stdin, delay, func(amount string) {
			trade, err := tq.quote(amount)
			if err != nil {
				fmt.Fprintln(os.Stderr, color.RedString("  %s: %v", amount, err))
				return
			}
			displayQuote(os.Stdout, trade.quote, trade.in, trade.out)
		})
	}

	trade, err := buildQuote(cmd, e, caller)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(trade.quote)
	}
	displayQuote(os.Stdout, trade.quote, trade.in, trade.out)
	return nil
}

// buildQuote reads the trade flags and quotes them. caller may be nil, in
// which case decimals must be passed explicitly and price impact is off.
func buildQuote(cmd *cobra.Command, e *env, caller dex.ContractCaller) (tradeQuote, error) {
	tq, err := newTradeQuoter(cmd, e, caller)
	if err != nil {
		return tradeQuote{}, err
	}
	amount, _ := cmd.Flags().GetString("amount")
	return tq.quote(amount)
}

// tradeQuoter holds everything a quote needs except the amount.
type tradeQuoter struct {
	e      *env
	quoter *quote.Quoter
	req    quote.Request
	in     tokenLabel
	out    tokenLabel
}

func newTradeQuoter(cmd *cobra.Command, e *env, caller dex.ContractCaller) (*tradeQuoter, error) {
	tokenIn, err := flagAddress(cmd, "token-in")
	if err != nil {
		return nil, err
	}
	tokenOut, err := flagAddress(cmd, "token-out")
	if err != nil {
		return nil, err
	}
	hooks, err := e.hooks()
	if err != nil {
		return nil, err
	}

	resolver := dex.TokenResolver{Caller: caller, Cache: dex.NewTokenMetaCache(), Logger: e.logger}
	in, err := tokenLabelFor(cmd, e, resolver, tokenIn, "decimals-in")
	if err != nil {
		return nil, err
	}
	out, err := tokenLabelFor(cmd, e, resolver, tokenOut, "decimals-out")
	if err != nil {
		return nil, err
	}

	return &tradeQuoter{
		e:      e,
		quoter: quote.NewQuoter(e.priceSource(caller), e.logger),
		req: quote.Request{
			TokenIn:         tokenIn,
			TokenOut:        tokenOut,
			DecimalsIn:      in.decimals,
			DecimalsOut:     out.decimals,
			Fee:             e.cfg.Fee,
			SlippagePercent: e.cfg.SlippagePercent,
			Hooks:           hooks,
		},
		in:  in,
		out: out,
	}, nil
}

func (t *tradeQuoter) quote(amount string) (tradeQuote, error) {
	req := t.req
	req.Amount = amount
	q, err := t.quoter.Quote(t.e.ctx, req)
	if err != nil {
		return tradeQuote{}, err
	}
	if q == nil {
		return tradeQuote{}, fmt.Errorf("cannot parse amount %q with %d decimals", amount, t.in.decimals)
	}
	t.e.logger.Debug("quote ready",
		zap.String("pool", q.PoolID.Hex()),
		zap.String("amount_out", q.AmountOut.String()),
		zap.Float64("price_impact", q.PriceImpact),
	)
	return tradeQuote{quote: q, in: t.in, out: t.out}, nil
}

func tokenLabelFor(cmd *cobra.Command, e *env, resolver dex.TokenResolver, token common.Address, decimalsFlag string) (tokenLabel, error) {
	flagValue, _ := cmd.Flags().GetInt(decimalsFlag)
	decimals, err := resolveDecimals(e.ctx, resolver, token, flagValue)
	if err != nil {
		return tokenLabel{}, err
	}
	label := tokenLabel{symbol: shortAddress(token), decimals: decimals}
	if dex.IsNative(token) {
		label.symbol = "ETH"
	} else if resolver.Caller != nil {
		if meta, err := resolver.Lookup(e.ctx, token); err == nil && meta.Symbol != "" {
			label.symbol = meta.Symbol
		}
	}
	return label, nil
}
