package wallet

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

const testKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

type fakeBackend struct {
	chainID *big.Int
	closed  int
}

func (f *fakeBackend) CallContract(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) { return 0, nil }
func (f *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error)              { return big.NewInt(1), nil }
func (f *fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error)  { return 21000, nil }
func (f *fakeBackend) SendTransaction(context.Context, *types.Transaction) error      { return nil }
func (f *fakeBackend) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	return nil, ethereum.NotFound
}
func (f *fakeBackend) GetChainID(context.Context) (*big.Int, error) { return f.chainID, nil }
func (f *fakeBackend) Close()                                       { f.closed++ }

func dialer(backend *fakeBackend) Dialer {
	return func(context.Context, string) (Backend, error) { return backend, nil }
}

func TestSessionInitWithKey(t *testing.T) {
	backend := &fakeBackend{chainID: big.NewInt(11155111)}
	session := NewSession(Config{RPCURL: "http://node", AllowedChains: []uint64{1, 11155111}, PrivateKey: "0x" + testKey}, dialer(backend), nil)

	if _, ok := session.Account(); ok {
		t.Fatalf("account should be absent before init")
	}
	if err := session.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	key, _ := crypto.HexToECDSA(testKey)
	account, ok := session.Account()
	if !ok || account != crypto.PubkeyToAddress(key.PublicKey) {
		t.Fatalf("unexpected account %s %v", account.Hex(), ok)
	}
	if session.ChainID() != 11155111 || session.Executor() == nil || session.Allowances() == nil {
		t.Fatalf("session not fully initialized")
	}
	if err := session.Init(context.Background()); err == nil {
		t.Fatalf("second init should fail")
	}

	session.Teardown()
	session.Teardown()
	if _, ok := session.Account(); ok {
		t.Fatalf("account should be cleared after teardown")
	}
	if backend.closed != 1 || session.Executor() != nil {
		t.Fatalf("teardown did not release the backend: closed=%d", backend.closed)
	}
}

func TestSessionRejectsChainOutsideAllowlist(t *testing.T) {
	backend := &fakeBackend{chainID: big.NewInt(56)}
	session := NewSession(Config{RPCURL: "http://node", AllowedChains: []uint64{11155111}}, dialer(backend), nil)
	err := session.Init(context.Background())
	if err == nil || !strings.Contains(err.Error(), "not in the allowed networks") {
		t.Fatalf("expected allowlist error, got %v", err)
	}
	if backend.closed != 1 || session.Backend() != nil {
		t.Fatalf("rejected backend should be closed")
	}
}

func TestSessionReadOnly(t *testing.T) {
	session := NewSession(Config{RPCURL: "http://node"}, dialer(&fakeBackend{chainID: big.NewInt(1)}), nil)
	if err := session.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, ok := session.Account(); ok {
		t.Fatalf("read-only session should not report a signer")
	}
	if session.Executor() != nil {
		t.Fatalf("read-only session should not have an executor")
	}
}

func TestSessionInvalidKey(t *testing.T) {
	backend := &fakeBackend{chainID: big.NewInt(1)}
	session := NewSession(Config{RPCURL: "http://node", PrivateKey: "zz"}, dialer(backend), nil)
	if err := session.Init(context.Background()); err == nil {
		t.Fatalf("expected invalid key error")
	}
	if backend.closed != 1 {
		t.Fatalf("backend should be closed after failed init")
	}
}
