package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"swapDesk/internal/quote"
)

func main() {
	root := &cobra.Command{
		Use:          "swapdesk",
		Short:        "Uniswap v4 style swap quoting and execution",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("env-file", ".env", "dotenv file loaded before config")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Estimate a swap without submitting it",
		RunE:  runQuote,
	}
	addTradeFlags(quoteCmd)
	quoteCmd.Flags().String("rpc", "", "RPC URL used for token metadata and the reference price")
	quoteCmd.Flags().String("state-view", "", "state view contract for the reference price")
	quoteCmd.Flags().Bool("json", false, "print the quote as JSON")
	quoteCmd.Flags().Bool("watch", false, "read amounts from stdin and re-quote as they change")
	quoteCmd.Flags().Duration("debounce", quote.DefaultDebounce, "quiet period before re-quoting in watch mode")
	root.AddCommand(quoteCmd)

	poolCmd := &cobra.Command{
		Use:   "pool-id",
		Short: "Compute the canonical pool key and id of a token pair",
		RunE:  runPoolID,
	}
	poolCmd.Flags().String("token-a", "", "first token address")
	poolCmd.Flags().String("token-b", "", "second token address")
	poolCmd.Flags().Uint32("fee", 3000, "fee tier in hundredths of a bip")
	poolCmd.Flags().String("hooks", "", "hook contract address")
	root.AddCommand(poolCmd)

	approveCmd := &cobra.Command{
		Use:   "approve",
		Short: "Approve the router to spend a token",
		RunE:  runApprove,
	}
	addWalletFlags(approveCmd)
	approveCmd.Flags().String("token", "", "token to approve")
	approveCmd.Flags().String("amount", "", "amount to approve in token units")
	approveCmd.Flags().Int("decimals", -1, "token decimals, looked up when negative")
	approveCmd.Flags().String("spender", "", "spender address, defaults to the router")
	approveCmd.Flags().Bool("unlimited", false, "approve the maximum amount")
	root.AddCommand(approveCmd)

	swapCmd := &cobra.Command{
		Use:   "swap",
		Short: "Quote, approve if needed, submit and track a swap",
		RunE:  runSwap,
	}
	addTradeFlags(swapCmd)
	addWalletFlags(swapCmd)
	swapCmd.Flags().String("state-view", "", "state view contract for the reference price")
	swapCmd.Flags().Bool("unlimited", false, "approve the maximum amount when an approval is needed")
	swapCmd.Flags().Int("retries", 0, "resubmit a failed swap up to this many times")
	swapCmd.Flags().String("out", "./data/swaps.jsonl", "swap journal JSONL path")
	swapCmd.Flags().String("pg-dsn", "", "Postgres DSN for the swap journal")
	root.AddCommand(swapCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP quote API",
		RunE:  runServe,
	}
	serveCmd.Flags().String("listen", ":8080", "listen address")
	serveCmd.Flags().String("rpc", "", "RPC URL used for token metadata and the reference price")
	serveCmd.Flags().String("chains", "", "allowed chain ids (comma-separated)")
	serveCmd.Flags().String("state-view", "", "state view contract for the reference price")
	serveCmd.Flags().Uint32("fee", 3000, "default fee tier")
	serveCmd.Flags().Float64("slippage", 0.5, "default slippage tolerance in percent")
	serveCmd.Flags().String("hooks", "", "default hook contract address")
	serveCmd.Flags().Float64("rate-limit", 5, "requests per second per client, 0 disables")
	serveCmd.Flags().Bool("dev", false, "include error details in responses")
	root.AddCommand(serveCmd)

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Scan and summarize the Swap events of a pool",
		RunE:  runHistory,
	}
	historyCmd.Flags().String("rpc", "", "RPC URL")
	historyCmd.Flags().String("pool-manager", "", "pool manager contract address")
	historyCmd.Flags().String("pool-id", "", "pool id, derived from the token flags when empty")
	historyCmd.Flags().String("token-a", "", "first token address")
	historyCmd.Flags().String("token-b", "", "second token address")
	historyCmd.Flags().Uint32("fee", 3000, "fee tier")
	historyCmd.Flags().String("hooks", "", "hook contract address")
	historyCmd.Flags().Uint64("from", 0, "start block (inclusive)")
	historyCmd.Flags().Uint64("to", 0, "end block (inclusive), 0 means latest")
	historyCmd.Flags().Uint64("batch-size", 2000, "blocks per batch")
	historyCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	historyCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	historyCmd.Flags().Duration("window", 0, "summarize into windows of this size instead of listing swaps")
	root.AddCommand(historyCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addTradeFlags(cmd *cobra.Command) {
	cmd.Flags().String("token-in", "", "input token address")
	cmd.Flags().String("token-out", "", "output token address")
	cmd.Flags().String("amount", "", "exact input amount in token units")
	cmd.Flags().Int("decimals-in", -1, "input token decimals, looked up when negative")
	cmd.Flags().Int("decimals-out", -1, "output token decimals, looked up when negative")
	cmd.Flags().Uint32("fee", 3000, "fee tier in hundredths of a bip")
	cmd.Flags().Float64("slippage", 0.5, "slippage tolerance in percent")
	cmd.Flags().String("hooks", "", "hook contract address")
}

func addWalletFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "RPC URL")
	cmd.Flags().String("chains", "", "allowed chain ids (comma-separated)")
	cmd.Flags().String("private-key", "", "hex private key of the signer")
	cmd.Flags().String("router", "", "swap router address")
	cmd.Flags().Uint64("gas-limit", 0, "fixed gas limit, estimated when zero")
	cmd.Flags().String("gas-price", "", "fixed gas price in wei, suggested when empty")
	cmd.Flags().Duration("poll-interval", 2*time.Second, "receipt polling interval")
	cmd.Flags().Duration("receipt-timeout", 3*time.Minute, "maximum wait for a receipt")
	cmd.Flags().BoolP("yes", "y", false, "skip confirmation prompts")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
