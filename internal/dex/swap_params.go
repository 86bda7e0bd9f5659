package dex

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"swapDesk/internal/swaperr"
)

var (
	MinSqrtRatio    = new(big.Int).SetUint64(4295128739)
	MaxSqrtRatio, _ = new(big.Int).SetString("1461446703485210103287273052203988822378723970342", 10)

	// MinPriceLimit and MaxPriceLimit stay one unit inside the legal range.
	MinPriceLimit = new(big.Int).Add(MinSqrtRatio, big.NewInt(1))
	MaxPriceLimit = new(big.Int).Sub(MaxSqrtRatio, big.NewInt(1))
)

// SwapParams are the pool-manager swap arguments derived from a trade intent.
type SwapParams struct {
	ZeroForOne        bool     `json:"zero_for_one"`
	AmountSpecified   *big.Int `json:"amount_specified"`
	SqrtPriceLimitX96 *big.Int `json:"sqrt_price_limit_x96"`
}

// BuildSwapParams derives direction, signed amount and price bound.
// Direction follows the pool's canonical ordering, not argument order.
// Exact input is encoded as a positive amount, exact output as negative.
func BuildSwapParams(tokenIn, tokenOut common.Address, amount *big.Int, exactInput bool) (SwapParams, error) {
	in := Normalize(tokenIn)
	currency0, _, err := SortTokens(in, Normalize(tokenOut))
	if err != nil {
		return SwapParams{}, err
	}
	if amount == nil {
		return SwapParams{}, swaperr.New(swaperr.KindParse, "amount is required")
	}
	if amount.Sign() < 0 {
		return SwapParams{}, swaperr.New(swaperr.KindParse, fmt.Sprintf("negative amount: %s", amount))
	}

	specified := new(big.Int).Set(amount)
	if !exactInput {
		specified.Neg(specified)
	}

	zeroForOne := in == currency0
	limit := MaxPriceLimit
	if zeroForOne {
		limit = MinPriceLimit
	}

	return SwapParams{
		ZeroForOne:        zeroForOne,
		AmountSpecified:   specified,
		SqrtPriceLimitX96: new(big.Int).Set(limit),
	}, nil
}
