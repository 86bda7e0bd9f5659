package dex

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Call is an encoded contract invocation ready for signing.
type Call struct {
	To     common.Address `json:"to"`
	Method string         `json:"method"`
	Data   []byte         `json:"data"`
	Value  *big.Int       `json:"value"`
}

// Selector returns the 4-byte function selector as hex.
func (c Call) Selector() string {
	if len(c.Data) < 4 {
		return ""
	}
	return hexutil.Encode(c.Data[:4])
}

type poolKeyArg struct {
	Currency0   common.Address
	Currency1   common.Address
	Fee         *big.Int
	TickSpacing *big.Int
	Hooks       common.Address
}

type swapParamsArg struct {
	ZeroForOne        bool
	AmountSpecified   *big.Int
	SqrtPriceLimitX96 *big.Int
}

type testSettingsArg struct {
	TakeClaims      bool
	SettleUsingBurn bool
}

// InputCurrency returns the pool currency paid into the swap.
func InputCurrency(key PoolKey, params SwapParams) common.Address {
	if params.ZeroForOne {
		return key.Currency0
	}
	return key.Currency1
}

// SwapValue is the native value attached to a swap: maxIn when the input
// currency is native, zero otherwise.
func SwapValue(key PoolKey, params SwapParams, maxIn *big.Int) *big.Int {
	if maxIn == nil || !IsNative(InputCurrency(key, params)) {
		return big.NewInt(0)
	}
	return new(big.Int).Set(maxIn)
}

// PackSwap encodes a router swap call.
func PackSwap(router common.Address, key PoolKey, params SwapParams, value *big.Int, hookData []byte) (Call, error) {
	routerABI, err := RouterABI()
	if err != nil {
		return Call{}, fmt.Errorf("parse router abi: %w", err)
	}
	if hookData == nil {
		hookData = []byte{}
	}
	data, err := routerABI.Pack("swap",
		poolKeyArg{
			Currency0:   key.Currency0,
			Currency1:   key.Currency1,
			Fee:         new(big.Int).SetUint64(uint64(key.Fee)),
			TickSpacing: big.NewInt(int64(key.TickSpacing)),
			Hooks:       key.Hooks,
		},
		swapParamsArg{
			ZeroForOne:        params.ZeroForOne,
			AmountSpecified:   params.AmountSpecified,
			SqrtPriceLimitX96: params.SqrtPriceLimitX96,
		},
		testSettingsArg{},
		hookData,
	)
	if err != nil {
		return Call{}, fmt.Errorf("pack swap: %w", err)
	}
	if value == nil {
		value = big.NewInt(0)
	}
	return Call{To: router, Method: "swap", Data: data, Value: value}, nil
}

// PackApprove encodes an ERC20 approve call on token.
func PackApprove(token, spender common.Address, amount *big.Int) (Call, error) {
	erc20, err := ERC20ABI()
	if err != nil {
		return Call{}, fmt.Errorf("parse erc20 abi: %w", err)
	}
	data, err := erc20.Pack("approve", spender, amount)
	if err != nil {
		return Call{}, fmt.Errorf("pack approve: %w", err)
	}
	return Call{To: token, Method: "approve", Data: data, Value: big.NewInt(0)}, nil
}
