package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"swapDesk/internal/dex"
	"swapDesk/internal/lifecycle"
	"swapDesk/internal/swaperr"
)

const (
	gasBufferPercent    = 120
	defaultPollInterval = 2 * time.Second
)

// Backend is the subset of the chain client needed to sign, send and
// observe transactions.
type Backend interface {
	dex.ContractCaller
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// PendingTx describes a transaction about to be signed.
type PendingTx struct {
	From     common.Address
	To       common.Address
	Method   string
	Value    *big.Int
	Gas      uint64
	GasPrice *big.Int
	Nonce    uint64
}

// ConfirmFunc approves a transaction before signing. Returning false
// rejects it with swaperr.ErrUserRejected.
type ConfirmFunc func(ctx context.Context, tx PendingTx) (bool, error)

// ExecutorConfig holds signing and polling settings.
type ExecutorConfig struct {
	ChainID      *big.Int
	PrivateKey   *ecdsa.PrivateKey
	GasPrice     *big.Int
	GasLimit     uint64
	PollInterval time.Duration
	Confirm      ConfirmFunc
}

// Executor signs calls with a local key and submits them as legacy
// EIP-155 transactions.
type Executor struct {
	backend Backend
	cfg     ExecutorConfig
	from    common.Address
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewExecutor(backend Backend, cfg ExecutorConfig, logger *zap.Logger) (*Executor, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend is nil")
	}
	if cfg.PrivateKey == nil {
		return nil, fmt.Errorf("private key is required")
	}
	if cfg.ChainID == nil || cfg.ChainID.Sign() <= 0 {
		return nil, fmt.Errorf("chain id is required")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		backend: backend,
		cfg:     cfg,
		from:    crypto.PubkeyToAddress(cfg.PrivateKey.PublicKey),
		limiter: rate.NewLimiter(rate.Every(cfg.PollInterval), 1),
		logger:  logger,
	}, nil
}

// From returns the signer address.
func (e *Executor) From() common.Address {
	return e.from
}

// Submit signs and broadcasts call, returning its transaction hash.
func (e *Executor) Submit(ctx context.Context, call dex.Call) (common.Hash, error) {
	value := call.Value
	if value == nil {
		value = big.NewInt(0)
	}

	nonce, err := e.backend.PendingNonceAt(ctx, e.from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("get nonce: %w", err)
	}
	gasPrice, err := e.gasPrice(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	gasLimit, err := e.gasLimit(ctx, call, value)
	if err != nil {
		return common.Hash{}, err
	}

	pending := PendingTx{
		From:     e.from,
		To:       call.To,
		Method:   call.Method,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Nonce:    nonce,
	}
	if e.cfg.Confirm != nil {
		ok, err := e.cfg.Confirm(ctx, pending)
		if err != nil {
			return common.Hash{}, err
		}
		if !ok {
			return common.Hash{}, swaperr.ErrUserRejected
		}
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &call.To,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     call.Data,
	})
	signed, err := types.SignTx(tx, types.NewEIP155Signer(e.cfg.ChainID), e.cfg.PrivateKey)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign transaction: %w", err)
	}
	if err := e.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("send transaction: %w", err)
	}

	e.logger.Info("transaction sent",
		zap.String("tx", signed.Hash().Hex()),
		zap.String("to", call.To.Hex()),
		zap.String("method", call.Method),
		zap.Uint64("nonce", nonce),
		zap.Uint64("gas", gasLimit),
	)
	return signed.Hash(), nil
}

// AwaitReceipt polls until the transaction is mined or ctx is done.
func (e *Executor) AwaitReceipt(ctx context.Context, hash common.Hash) (lifecycle.Receipt, error) {
	for {
		if err := e.limiter.Wait(ctx); err != nil {
			return lifecycle.Receipt{}, err
		}
		receipt, err := e.backend.TransactionReceipt(ctx, hash)
		if err != nil {
			if errors.Is(err, ethereum.NotFound) {
				continue
			}
			if ctx.Err() != nil {
				return lifecycle.Receipt{}, ctx.Err()
			}
			e.logger.Warn("receipt poll failed", zap.String("tx", hash.Hex()), zap.Error(err))
			continue
		}
		return toReceipt(receipt), nil
	}
}

func (e *Executor) gasPrice(ctx context.Context) (*big.Int, error) {
	if e.cfg.GasPrice != nil {
		return new(big.Int).Set(e.cfg.GasPrice), nil
	}
	gasPrice, err := e.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("get gas price: %w", err)
	}
	return gasPrice, nil
}

func (e *Executor) gasLimit(ctx context.Context, call dex.Call, value *big.Int) (uint64, error) {
	if e.cfg.GasLimit > 0 {
		return e.cfg.GasLimit, nil
	}
	to := call.To
	estimated, err := e.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:  e.from,
		To:    &to,
		Value: value,
		Data:  call.Data,
	})
	if err != nil {
		return 0, fmt.Errorf("estimate gas: %w", err)
	}
	return estimated * gasBufferPercent / 100, nil
}

func toReceipt(receipt *types.Receipt) lifecycle.Receipt {
	out := lifecycle.Receipt{
		Success: receipt.Status == types.ReceiptStatusSuccessful,
		GasUsed: receipt.GasUsed,
		Logs:    receipt.Logs,
	}
	if receipt.BlockNumber != nil {
		out.BlockNumber = receipt.BlockNumber.Uint64()
	}
	return out
}
