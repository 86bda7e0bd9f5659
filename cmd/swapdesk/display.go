package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"

	"swapDesk/internal/lifecycle"
	"swapDesk/internal/model"
	"swapDesk/internal/quote"
)

func severityString(s quote.Severity) string {
	switch s.Color() {
	case "green":
		return color.GreenString(s.String())
	case "yellow":
		return color.YellowString(s.String())
	default:
		return color.RedString(s.String())
	}
}

func statusString(status lifecycle.Status) string {
	switch status {
	case lifecycle.StatusConfirmed:
		return color.GreenString(string(status))
	case lifecycle.StatusPending, lifecycle.StatusConfirming:
		return color.YellowString(string(status))
	case lifecycle.StatusFailed:
		return color.RedString(string(status))
	default:
		return string(status)
	}
}

type tokenLabel struct {
	symbol   string
	decimals uint8
}

func displayQuote(out io.Writer, q *quote.Quote, in, outTok tokenLabel) {
	fmt.Fprintln(out, "\n"+strings.Repeat("=", 60))
	fmt.Fprintln(out, color.GreenString("                       SWAP QUOTE"))
	fmt.Fprintln(out, strings.Repeat("=", 60))

	fmt.Fprintf(out, "\n  Pool ID:          %s\n", color.CyanString(q.PoolID.Hex()))
	fmt.Fprintf(out, "  Pool:             %s\n", q.PoolKey)
	fmt.Fprintf(out, "  You pay:          %s %s\n", quote.FormatTokenAmount(q.AmountIn, in.decimals), color.YellowString(in.symbol))
	fmt.Fprintf(out, "  You receive:      ~%s %s\n", quote.FormatTokenAmount(q.AmountOut, outTok.decimals), color.YellowString(outTok.symbol))
	fmt.Fprintf(out, "  Minimum received: %s %s (slippage %d bps)\n", quote.FormatTokenAmount(q.MinimumReceived, outTok.decimals), outTok.symbol, q.SlippageBps)
	fmt.Fprintf(out, "  LP fee:           %s %s\n", quote.FormatTokenAmount(q.FeeAmount, in.decimals), in.symbol)
	fmt.Fprintf(out, "  Rate:             1 %s = %s %s\n", in.symbol, q.ExchangeRate, outTok.symbol)
	fmt.Fprintf(out, "  Inverse rate:     1 %s = %s %s\n", outTok.symbol, q.InverseRate, in.symbol)
	fmt.Fprintf(out, "  Price impact:     %.2f%% (%s)\n", q.PriceImpact, severityString(q.Severity))
	fmt.Fprintf(out, "  Direction:        zeroForOne=%v\n", q.Params.ZeroForOne)

	fmt.Fprintln(out, "\n"+strings.Repeat("=", 60))
}

func displaySwapResult(out io.Writer, snap lifecycle.Snapshot) {
	fmt.Fprintf(out, "\n  Status:  %s\n", statusString(snap.Status))
	if snap.TxHash != (common.Hash{}) {
		fmt.Fprintf(out, "  Tx Hash: %s\n", color.HiBlackString(snap.TxHash.Hex()))
	}
	if snap.BlockNumber != 0 {
		fmt.Fprintf(out, "  Block:   %d\n", snap.BlockNumber)
	}
	if snap.Swap != nil {
		displaySwapEvent(out, *snap.Swap)
	}
	if snap.Err != nil {
		fmt.Fprintf(out, "  Error:   %s\n", color.RedString(snap.Err.Display(120)))
	}
}

func displaySwapEvent(out io.Writer, swap model.SwapEventData) {
	fmt.Fprintf(out, "  Amount0: %s  Amount1: %s\n", swap.Amount0, swap.Amount1)
	fmt.Fprintf(out, "  Tick:    %d  SqrtPriceX96: %s\n", swap.Tick, swap.SqrtPriceX96)
}

func shortAddress(address common.Address) string {
	hex := address.Hex()
	return hex[:6] + ".." + hex[len(hex)-4:]
}
