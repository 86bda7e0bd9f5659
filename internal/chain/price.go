package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"swapDesk/internal/dex"
)

var q192 = new(big.Int).Lsh(big.NewInt(1), 192)

// StateViewPriceSource reads the pool spot price from a StateView contract.
type StateViewPriceSource struct {
	caller    dex.ContractCaller
	stateView common.Address
}

func NewStateViewPriceSource(caller dex.ContractCaller, stateView common.Address) *StateViewPriceSource {
	return &StateViewPriceSource{caller: caller, stateView: stateView}
}

// SpotPrice returns the price of tokenIn in tokenOut human units.
func (s *StateViewPriceSource) SpotPrice(ctx context.Context, key dex.PoolKey, tokenIn common.Address, decimalsIn, decimalsOut uint8) (*big.Rat, error) {
	slot, err := dex.FetchSlot0(ctx, s.caller, s.stateView, key.ID())
	if err != nil {
		return nil, fmt.Errorf("read slot0: %w", err)
	}
	if slot.SqrtPriceX96 == nil || slot.SqrtPriceX96.Sign() == 0 {
		return nil, fmt.Errorf("pool %s is not initialized", key.ID().Hex())
	}
	zeroForOne := dex.Normalize(tokenIn) == key.Currency0
	return HumanPrice(slot.SqrtPriceX96, zeroForOne, decimalsIn, decimalsOut), nil
}

// HumanPrice converts a Q64.96 sqrt price into the price of the input
// currency in output units, adjusted for decimals.
func HumanPrice(sqrtPriceX96 *big.Int, zeroForOne bool, decimalsIn, decimalsOut uint8) *big.Rat {
	squared := new(big.Int).Mul(sqrtPriceX96, sqrtPriceX96)
	raw := new(big.Rat).SetFrac(squared, q192)
	if !zeroForOne {
		raw.Inv(raw)
	}
	scaleIn := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimalsIn)), nil)
	scaleOut := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimalsOut)), nil)
	return raw.Mul(raw, new(big.Rat).SetFrac(scaleIn, scaleOut))
}
