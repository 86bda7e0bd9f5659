package dex

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"swapDesk/internal/swaperr"
)

const (
	// MaxFee is the exclusive upper bound of a uint24 fee.
	MaxFee = 1 << 24

	// DefaultTickSpacing applies to fee tiers missing from the table.
	DefaultTickSpacing int32 = 60

	poolKeyEncodedLen = 20 + 20 + 3 + 3 + 20
)

var tickSpacings = map[uint32]int32{
	100:   1,
	500:   10,
	3000:  60,
	10000: 200,
}

// TickSpacingForFee returns the tick spacing for a fee tier.
func TickSpacingForFee(fee uint32) int32 {
	if spacing, ok := tickSpacings[fee]; ok {
		return spacing
	}
	return DefaultTickSpacing
}

// PoolKey identifies a pool by its sorted currencies, fee, tick spacing and hooks.
type PoolKey struct {
	Currency0   common.Address `json:"currency0"`
	Currency1   common.Address `json:"currency1"`
	Fee         uint32         `json:"fee"`
	TickSpacing int32          `json:"tick_spacing"`
	Hooks       common.Address `json:"hooks"`
}

// BuildPoolKey normalizes and sorts the pair. The result does not depend on argument order.
func BuildPoolKey(tokenA, tokenB common.Address, fee uint32, hooks common.Address) (PoolKey, error) {
	if fee >= MaxFee {
		return PoolKey{}, swaperr.New(swaperr.KindInvalidPool, fmt.Sprintf("fee %d overflows uint24", fee))
	}
	currency0, currency1, err := SortTokens(Normalize(tokenA), Normalize(tokenB))
	if err != nil {
		return PoolKey{}, err
	}
	return PoolKey{
		Currency0:   currency0,
		Currency1:   currency1,
		Fee:         fee,
		TickSpacing: TickSpacingForFee(fee),
		Hooks:       hooks,
	}, nil
}

// Encode packs the key as currency0 | currency1 | fee(uint24) | tickSpacing(int24) | hooks.
func (k PoolKey) Encode() []byte {
	out := make([]byte, 0, poolKeyEncodedLen)
	out = append(out, k.Currency0.Bytes()...)
	out = append(out, k.Currency1.Bytes()...)
	out = append(out, byte(k.Fee>>16), byte(k.Fee>>8), byte(k.Fee))
	spacing := uint32(k.TickSpacing)
	out = append(out, byte(spacing>>16), byte(spacing>>8), byte(spacing))
	out = append(out, k.Hooks.Bytes()...)
	return out
}

// ID is the Keccak-256 hash of the packed key.
func (k PoolKey) ID() common.Hash {
	return crypto.Keccak256Hash(k.Encode())
}

func (k PoolKey) String() string {
	return fmt.Sprintf("%s/%s fee=%d spacing=%d hooks=%s", k.Currency0.Hex(), k.Currency1.Hex(), k.Fee, k.TickSpacing, k.Hooks.Hex())
}

// PoolIdentifier returns the stable identifier of a pool key.
func PoolIdentifier(key PoolKey) common.Hash {
	return key.ID()
}
