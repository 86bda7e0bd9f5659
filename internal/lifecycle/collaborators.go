package lifecycle

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"swapDesk/internal/dex"
)

// Receipt is the observed outcome of a mined transaction.
type Receipt struct {
	Success     bool
	BlockNumber uint64
	GasUsed     uint64
	Logs        []*types.Log
}

// Executor submits encoded calls and observes their receipts.
type Executor interface {
	Submit(ctx context.Context, call dex.Call) (common.Hash, error)
	AwaitReceipt(ctx context.Context, hash common.Hash) (Receipt, error)
}

// Allowances reads and mutates ERC20 allowances.
type Allowances interface {
	ReadAllowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
	SubmitApproval(ctx context.Context, token, spender common.Address, amount *big.Int) (common.Hash, error)
	AwaitReceipt(ctx context.Context, hash common.Hash) (Receipt, error)
}

// AccountSource reports the connected signer, if any.
type AccountSource interface {
	Account() (common.Address, bool)
}

// StaticAccount is a fixed AccountSource. The zero address means no signer.
type StaticAccount common.Address

func (a StaticAccount) Account() (common.Address, bool) {
	addr := common.Address(a)
	return addr, addr != (common.Address{})
}
