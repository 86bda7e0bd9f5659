package lifecycle

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"swapDesk/internal/dex"
	"swapDesk/internal/notify"
)

var (
	trader = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	router = common.HexToAddress("0x9B6b46e2c869aa39918Db7f52f5557FE577B6eEe")
	usdc   = common.HexToAddress("0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238")
)

type fakeExecutor struct {
	mu         sync.Mutex
	submitErrs []error
	hashes     []common.Hash
	receipt    Receipt
	receiptErr error
	submitted  []dex.Call
	awaited    int
}

func (f *fakeExecutor) Submit(_ context.Context, call dex.Call) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, call)
	n := len(f.submitted)
	if n <= len(f.submitErrs) && f.submitErrs[n-1] != nil {
		return common.Hash{}, f.submitErrs[n-1]
	}
	if n <= len(f.hashes) {
		return f.hashes[n-1], nil
	}
	return common.BigToHash(big.NewInt(int64(n))), nil
}

func (f *fakeExecutor) AwaitReceipt(context.Context, common.Hash) (Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.awaited++
	return f.receipt, f.receiptErr
}

func (f *fakeExecutor) submits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submitted)
}

type recordingSink struct {
	mu    sync.Mutex
	items []notify.Notification
}

func (r *recordingSink) Notify(n notify.Notification) {
	r.mu.Lock()
	r.items = append(r.items, n)
	r.mu.Unlock()
}

func (r *recordingSink) count(title string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, n := range r.items {
		if n.Title == title {
			total++
		}
	}
	return total
}

func (r *recordingSink) last() notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return notify.Notification{}
	}
	return r.items[len(r.items)-1]
}

type fakeAllowances struct {
	mu        sync.Mutex
	allowance *big.Int
	readErr   error
	submitErr error
	receipt   Receipt
	pending   *big.Int
	reads     int
	approvals []*big.Int
}

func (f *fakeAllowances) ReadAllowance(context.Context, common.Address, common.Address, common.Address) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.readErr != nil {
		return nil, f.readErr
	}
	if f.allowance == nil {
		return nil, nil
	}
	return new(big.Int).Set(f.allowance), nil
}

func (f *fakeAllowances) SubmitApproval(_ context.Context, _ common.Address, _ common.Address, amount *big.Int) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return common.Hash{}, f.submitErr
	}
	f.approvals = append(f.approvals, new(big.Int).Set(amount))
	f.pending = new(big.Int).Set(amount)
	return common.HexToHash("0xa11"), nil
}

func (f *fakeAllowances) AwaitReceipt(context.Context, common.Hash) (Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.receipt.Success && f.pending != nil {
		f.allowance = f.pending
		f.pending = nil
	}
	return f.receipt, nil
}

type codedErr struct{ code int }

func (e codedErr) Error() string  { return "provider error" }
func (e codedErr) ErrorCode() int { return e.code }

var errBoom = errors.New("nonce too low")

func nativeToUSDCAttempt(t *testing.T) Attempt {
	t.Helper()
	key, err := dex.BuildPoolKey(dex.NativeCurrency, usdc, 3000, common.Address{})
	if err != nil {
		t.Fatalf("build key: %v", err)
	}
	amount := new(big.Int).Mul(big.NewInt(10), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
	params, err := dex.BuildSwapParams(dex.NativeCurrency, usdc, amount, true)
	if err != nil {
		t.Fatalf("build params: %v", err)
	}
	attempt, err := NewSwapAttempt(router, key, params, amount)
	if err != nil {
		t.Fatalf("attempt: %v", err)
	}
	return attempt
}

func swapLog(t *testing.T, poolID common.Hash) *types.Log {
	t.Helper()
	managerABI, err := dex.PoolManagerABI()
	if err != nil {
		t.Fatalf("abi: %v", err)
	}
	event := managerABI.Events["Swap"]
	data, err := event.Inputs.NonIndexed().Pack(
		big.NewInt(10),
		big.NewInt(-9),
		new(big.Int).Lsh(big.NewInt(1), 96),
		big.NewInt(1000),
		big.NewInt(0),
		big.NewInt(3000),
	)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	return &types.Log{
		Topics: []common.Hash{event.ID, poolID, common.BytesToHash(router.Bytes())},
		Data:   data,
	}
}
