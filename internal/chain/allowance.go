package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"swapDesk/internal/dex"
	"swapDesk/internal/lifecycle"
)

// AllowanceClient reads ERC20 allowances and submits approvals through an
// Executor.
type AllowanceClient struct {
	caller   dex.ContractCaller
	executor *Executor
}

func NewAllowanceClient(caller dex.ContractCaller, executor *Executor) *AllowanceClient {
	return &AllowanceClient{caller: caller, executor: executor}
}

func (a *AllowanceClient) ReadAllowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	return dex.FetchAllowance(ctx, a.caller, token, owner, spender)
}

func (a *AllowanceClient) SubmitApproval(ctx context.Context, token, spender common.Address, amount *big.Int) (common.Hash, error) {
	call, err := dex.PackApprove(token, spender, amount)
	if err != nil {
		return common.Hash{}, err
	}
	return a.executor.Submit(ctx, call)
}

func (a *AllowanceClient) AwaitReceipt(ctx context.Context, hash common.Hash) (lifecycle.Receipt, error) {
	return a.executor.AwaitReceipt(ctx, hash)
}
