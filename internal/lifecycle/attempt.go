package lifecycle

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"swapDesk/internal/dex"
)

// Attempt is the retryable unit of a swap: the pool, the derived params and
// the encoded call that was submitted.
type Attempt struct {
	Key    dex.PoolKey
	Params dex.SwapParams
	Call   dex.Call
}

// NewSwapAttempt encodes a router swap for key and params. maxIn is the
// maximum native amount sent when the input currency is native.
func NewSwapAttempt(router common.Address, key dex.PoolKey, params dex.SwapParams, maxIn *big.Int) (Attempt, error) {
	call, err := dex.PackSwap(router, key, params, dex.SwapValue(key, params, maxIn), nil)
	if err != nil {
		return Attempt{}, err
	}
	return Attempt{Key: key, Params: params, Call: call}, nil
}

func (a Attempt) clone() Attempt {
	out := a
	out.Params.AmountSpecified = cloneInt(a.Params.AmountSpecified)
	out.Params.SqrtPriceLimitX96 = cloneInt(a.Params.SqrtPriceLimitX96)
	out.Call.Value = cloneInt(a.Call.Value)
	if a.Call.Data != nil {
		out.Call.Data = append([]byte(nil), a.Call.Data...)
	}
	return out
}

func cloneInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
