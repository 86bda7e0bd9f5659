package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math/big"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swapDesk/internal/chain"
	"swapDesk/internal/config"
	"swapDesk/internal/dex"
	"swapDesk/internal/notify"
	"swapDesk/internal/quote"
	"swapDesk/internal/storage"
	"swapDesk/internal/storage/postgres"
	"swapDesk/internal/wallet"
)

var stdin = bufio.NewReader(os.Stdin)

// env bundles what every command needs after flag parsing.
type env struct {
	cfg    config.Config
	logger *zap.Logger
	ctx    context.Context
	stop   context.CancelFunc
}

func setup(cmd *cobra.Command) (*env, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if err := config.LoadEnv(envFile); err != nil {
		return nil, err
	}
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return &env{cfg: cfg, logger: logger, ctx: ctx, stop: stop}, nil
}

func (e *env) close() {
	e.stop()
	_ = e.logger.Sync()
}

func (e *env) sink() notify.Sink {
	return notify.Multi(notify.NewLogSink(e.logger), notify.NewTerminalSink(os.Stderr))
}

// openSession initializes a wallet session. With signer set the private key
// is loaded and each transaction is confirmed unless the user passed --yes.
func (e *env) openSession(signer bool) (*wallet.Session, error) {
	gasPrice, err := parseWei(e.cfg.GasPrice)
	if err != nil {
		return nil, err
	}
	var confirm chain.ConfirmFunc
	if signer && !e.cfg.AssumeYes {
		confirm = promptConfirm(stdin, os.Stdout)
	}
	privateKey := ""
	if signer {
		privateKey = e.cfg.PrivateKey
	}
	session := wallet.NewSession(wallet.Config{
		RPCURL:        e.cfg.RPCURL,
		AllowedChains: e.cfg.AllowedChains,
		PrivateKey:    privateKey,
		GasPrice:      gasPrice,
		GasLimit:      e.cfg.GasLimit,
		PollInterval:  e.cfg.PollInterval,
		Confirm:       confirm,
	}, wallet.DialRPC, e.logger)
	if err := session.Init(e.ctx); err != nil {
		return nil, err
	}
	return session, nil
}

// openStore picks Postgres when a DSN is configured and the JSONL file
// otherwise. The returned func releases it.
func (e *env) openStore() (storage.Storage, func(), error) {
	if e.cfg.PGDSN == "" {
		return storage.NewJsonlStorage(e.cfg.Out), func() {}, nil
	}
	store, err := postgres.NewStore(e.ctx, e.cfg.PGDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := store.EnsureSchema(e.ctx); err != nil {
		store.Close()
		return nil, nil, err
	}
	return store, store.Close, nil
}

func (e *env) priceSource(caller dex.ContractCaller) quote.PriceSource {
	if caller == nil || e.cfg.StateView == "" {
		return nil
	}
	if !common.IsHexAddress(e.cfg.StateView) {
		e.logger.Warn("state view address invalid, price impact disabled", zap.String("state_view", e.cfg.StateView))
		return nil
	}
	return chain.NewStateViewPriceSource(caller, common.HexToAddress(e.cfg.StateView))
}

func (e *env) hooks() (common.Address, error) {
	if strings.TrimSpace(e.cfg.Hooks) == "" {
		return common.Address{}, nil
	}
	return dex.ParseToken(e.cfg.Hooks)
}

// resolveDecimals returns flagValue when it is set, the native precision
// for native sentinels, or the on-chain decimals otherwise.
func resolveDecimals(ctx context.Context, tokens dex.TokenResolver, token common.Address, flagValue int) (uint8, error) {
	if flagValue >= 0 {
		if flagValue > 255 {
			return 0, fmt.Errorf("decimals %d out of range", flagValue)
		}
		return uint8(flagValue), nil
	}
	if dex.IsNative(token) {
		return dex.NativeDecimals, nil
	}
	if tokens.Caller == nil {
		return 0, fmt.Errorf("decimals for %s are required without --rpc", token.Hex())
	}
	meta, err := tokens.Lookup(ctx, token)
	if err != nil {
		return 0, fmt.Errorf("token metadata %s: %w", token.Hex(), err)
	}
	return meta.Decimals, nil
}

func parseWei(value string) (*big.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	wei, ok := new(big.Int).SetString(value, 10)
	if !ok || wei.Sign() < 0 {
		return nil, fmt.Errorf("invalid wei amount: %s", value)
	}
	return wei, nil
}

func flagAddress(cmd *cobra.Command, name string) (common.Address, error) {
	value, _ := cmd.Flags().GetString(name)
	if strings.TrimSpace(value) == "" {
		return common.Address{}, fmt.Errorf("--%s is required", name)
	}
	return dex.ParseToken(value)
}

func askYesNo(in *bufio.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "\n%s (y/N): ", question)
	response, err := in.ReadString('\n')
	if err != nil && response == "" {
		return false
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

func promptConfirm(in *bufio.Reader, out io.Writer) chain.ConfirmFunc {
	return func(_ context.Context, tx chain.PendingTx) (bool, error) {
		fmt.Fprintf(out, "\n  Sign %s to %s\n", tx.Method, tx.To.Hex())
		fmt.Fprintf(out, "  Value: %s wei  Gas: %d  Gas price: %s wei  Nonce: %d\n", tx.Value, tx.Gas, tx.GasPrice, tx.Nonce)
		return askYesNo(in, out, "Sign and send?"), nil
	}
}
