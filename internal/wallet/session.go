package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"swapDesk/internal/chain"
)

// Config describes the wallet connection.
type Config struct {
	RPCURL        string
	AllowedChains []uint64
	PrivateKey    string
	GasPrice      *big.Int
	GasLimit      uint64
	PollInterval  time.Duration
	Confirm       chain.ConfirmFunc
}

// Dialer opens a chain backend. Tests replace it.
type Dialer func(ctx context.Context, rpcURL string) (Backend, error)

// Backend is a chain backend that can report its chain ID and be closed.
type Backend interface {
	chain.Backend
	GetChainID(ctx context.Context) (*big.Int, error)
	Close()
}

// DialRPC connects with the go-ethereum client.
func DialRPC(ctx context.Context, rpcURL string) (Backend, error) {
	client, err := chain.NewClient(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Session is an explicitly initialized wallet connection restricted to a
// set of chains. It provides the signer identity, the executor and the
// allowance layer.
type Session struct {
	cfg    Config
	dial   Dialer
	logger *zap.Logger

	mu         sync.RWMutex
	backend    Backend
	chainID    uint64
	key        *ecdsa.PrivateKey
	account    common.Address
	executor   *chain.Executor
	allowances *chain.AllowanceClient
}

func NewSession(cfg Config, dial Dialer, logger *zap.Logger) *Session {
	if dial == nil {
		dial = DialRPC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{cfg: cfg, dial: dial, logger: logger}
}

// Init dials the RPC endpoint, checks the chain against the allowlist and
// loads the signing key when one is configured. Without a key the session
// is read-only and Account reports no signer.
func (s *Session) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.backend != nil {
		return fmt.Errorf("session already initialized")
	}
	if s.cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}

	backend, err := s.dial(ctx, s.cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("dial rpc: %w", err)
	}
	chainID, err := backend.GetChainID(ctx)
	if err != nil {
		backend.Close()
		return fmt.Errorf("get chain id: %w", err)
	}
	if !chainID.IsUint64() || !s.allowed(chainID.Uint64()) {
		backend.Close()
		return fmt.Errorf("chain %s is not in the allowed networks %v", chainID, s.cfg.AllowedChains)
	}

	s.backend = backend
	s.chainID = chainID.Uint64()

	if s.cfg.PrivateKey == "" {
		s.logger.Info("wallet session read-only", zap.Uint64("chain_id", s.chainID))
		return nil
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(s.cfg.PrivateKey), "0x"))
	if err != nil {
		s.teardownLocked()
		return fmt.Errorf("invalid private key: %w", err)
	}
	executor, err := chain.NewExecutor(backend, chain.ExecutorConfig{
		ChainID:      chainID,
		PrivateKey:   key,
		GasPrice:     s.cfg.GasPrice,
		GasLimit:     s.cfg.GasLimit,
		PollInterval: s.cfg.PollInterval,
		Confirm:      s.cfg.Confirm,
	}, s.logger)
	if err != nil {
		s.teardownLocked()
		return err
	}
	s.key = key
	s.account = executor.From()
	s.executor = executor
	s.allowances = chain.NewAllowanceClient(backend, executor)
	s.logger.Info("wallet session ready", zap.Uint64("chain_id", s.chainID), zap.String("account", s.account.Hex()))
	return nil
}

// Teardown closes the connection and forgets the key. It is safe to call
// more than once.
func (s *Session) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardownLocked()
}

func (s *Session) teardownLocked() {
	if s.backend != nil {
		s.backend.Close()
	}
	s.backend = nil
	s.chainID = 0
	s.key = nil
	s.account = common.Address{}
	s.executor = nil
	s.allowances = nil
}

// Account returns the signer address when a key is loaded.
func (s *Session) Account() (common.Address, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account, s.key != nil
}

// ChainID returns the connected chain, or 0 before Init.
func (s *Session) ChainID() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chainID
}

// Backend returns the connected chain backend, or nil before Init.
func (s *Session) Backend() Backend {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.backend
}

// Executor returns the signing executor, or nil for read-only sessions.
func (s *Session) Executor() *chain.Executor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.executor
}

// Allowances returns the allowance layer, or nil for read-only sessions.
func (s *Session) Allowances() *chain.AllowanceClient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.allowances
}

func (s *Session) allowed(chainID uint64) bool {
	if len(s.cfg.AllowedChains) == 0 {
		return true
	}
	for _, id := range s.cfg.AllowedChains {
		if id == chainID {
			return true
		}
	}
	return false
}
