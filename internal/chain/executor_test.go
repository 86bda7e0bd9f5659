package chain

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"swapDesk/internal/dex"
	"swapDesk/internal/swaperr"
)

type fakeBackend struct {
	mu          sync.Mutex
	nonce       uint64
	gasPrice    *big.Int
	estimate    uint64
	estimateErr error
	sent        []*types.Transaction
	notFound    int
	receipt     *types.Receipt
	callResp    []byte
}

func (f *fakeBackend) CallContract(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	return f.callResp, nil
}

func (f *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return f.nonce, nil
}

func (f *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return f.gasPrice, nil
}

func (f *fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return f.estimate, f.estimateErr
}

func (f *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, tx)
	return nil
}

func (f *fakeBackend) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.notFound > 0 {
		f.notFound--
		return nil, ethereum.NotFound
	}
	return f.receipt, nil
}

func newTestExecutor(t *testing.T, backend *fakeBackend, confirm ConfirmFunc) *Executor {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	executor, err := NewExecutor(backend, ExecutorConfig{
		ChainID:      big.NewInt(11155111),
		PrivateKey:   key,
		PollInterval: time.Millisecond,
		Confirm:      confirm,
	}, nil)
	if err != nil {
		t.Fatalf("new executor: %v", err)
	}
	return executor
}

func TestExecutorSubmitSignsCall(t *testing.T) {
	backend := &fakeBackend{nonce: 4, gasPrice: big.NewInt(1_000_000_000), estimate: 100_000}
	executor := newTestExecutor(t, backend, nil)

	router := common.HexToAddress("0x9B6b46e2c869aa39918Db7f52f5557FE577B6eEe")
	call := dex.Call{To: router, Method: "swap", Data: []byte{0xde, 0xad, 0xbe, 0xef}, Value: big.NewInt(42)}
	hash, err := executor.Submit(context.Background(), call)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(backend.sent) != 1 {
		t.Fatalf("expected one transaction, got %d", len(backend.sent))
	}
	tx := backend.sent[0]
	if tx.Hash() != hash {
		t.Fatalf("hash mismatch")
	}
	if tx.Nonce() != 4 || tx.Gas() != 120_000 || tx.Value().Int64() != 42 || *tx.To() != router {
		t.Fatalf("unexpected tx fields: nonce=%d gas=%d value=%s", tx.Nonce(), tx.Gas(), tx.Value())
	}
	if !bytes.Equal(tx.Data(), call.Data) {
		t.Fatalf("calldata mismatch")
	}
	sender, err := types.Sender(types.NewEIP155Signer(big.NewInt(11155111)), tx)
	if err != nil {
		t.Fatalf("recover sender: %v", err)
	}
	if sender != executor.From() {
		t.Fatalf("sender %s != %s", sender.Hex(), executor.From().Hex())
	}
}

func TestExecutorConfirmRefusal(t *testing.T) {
	backend := &fakeBackend{gasPrice: big.NewInt(1), estimate: 21_000}
	var seen PendingTx
	executor := newTestExecutor(t, backend, func(_ context.Context, tx PendingTx) (bool, error) {
		seen = tx
		return false, nil
	})

	_, err := executor.Submit(context.Background(), dex.Call{To: common.HexToAddress("0x01"), Method: "approve"})
	if !errors.Is(err, swaperr.ErrUserRejected) {
		t.Fatalf("expected user rejection, got %v", err)
	}
	if !errors.Is(swaperr.ClassifySubmission(err), swaperr.UserCancelledError) {
		t.Fatalf("refusal should classify as cancellation")
	}
	if len(backend.sent) != 0 {
		t.Fatalf("refused transaction was sent")
	}
	if seen.Method != "approve" || seen.Gas != 25_200 {
		t.Fatalf("confirm saw %+v", seen)
	}
}

func TestExecutorEstimateFailure(t *testing.T) {
	backend := &fakeBackend{gasPrice: big.NewInt(1), estimateErr: errors.New("execution reverted")}
	executor := newTestExecutor(t, backend, nil)
	if _, err := executor.Submit(context.Background(), dex.Call{To: common.HexToAddress("0x01")}); err == nil {
		t.Fatalf("expected estimate error")
	}
	if len(backend.sent) != 0 {
		t.Fatalf("transaction sent despite failed estimate")
	}
}

func TestExecutorAwaitReceipt(t *testing.T) {
	backend := &fakeBackend{
		notFound: 2,
		receipt:  &types.Receipt{Status: types.ReceiptStatusFailed, BlockNumber: big.NewInt(99), GasUsed: 50_000},
	}
	executor := newTestExecutor(t, backend, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	receipt, err := executor.AwaitReceipt(ctx, common.HexToHash("0x01"))
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if receipt.Success || receipt.BlockNumber != 99 || receipt.GasUsed != 50_000 {
		t.Fatalf("unexpected receipt %+v", receipt)
	}
}

func TestExecutorAwaitReceiptHonorsContext(t *testing.T) {
	backend := &fakeBackend{notFound: 1 << 30}
	executor := newTestExecutor(t, backend, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := executor.AwaitReceipt(ctx, common.HexToHash("0x01")); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestAllowanceClientSubmitApproval(t *testing.T) {
	backend := &fakeBackend{gasPrice: big.NewInt(1), estimate: 50_000}
	executor := newTestExecutor(t, backend, nil)
	client := NewAllowanceClient(backend, executor)

	token := common.HexToAddress("0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238")
	spender := common.HexToAddress("0x9B6b46e2c869aa39918Db7f52f5557FE577B6eEe")
	if _, err := client.SubmitApproval(context.Background(), token, spender, big.NewInt(100)); err != nil {
		t.Fatalf("submit approval: %v", err)
	}
	tx := backend.sent[0]
	erc20, err := dex.ERC20ABI()
	if err != nil {
		t.Fatalf("abi: %v", err)
	}
	if *tx.To() != token || !bytes.Equal(tx.Data()[:4], erc20.Methods["approve"].ID) {
		t.Fatalf("approval not sent to token")
	}

	backend.callResp, err = erc20.Methods["allowance"].Outputs.Pack(big.NewInt(100))
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	got, err := client.ReadAllowance(context.Background(), token, executor.From(), spender)
	if err != nil || got.Int64() != 100 {
		t.Fatalf("read allowance: %v %v", got, err)
	}
}
