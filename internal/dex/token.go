package dex

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"swapDesk/internal/swaperr"
)

// NativeCurrency is the placeholder address wallets use for the chain's native asset.
var NativeCurrency = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

// IsNative reports whether token is one of the native-asset sentinels.
func IsNative(token common.Address) bool {
	return token == NativeCurrency || token == (common.Address{})
}

// Normalize maps native-asset sentinels to the zero address used in pool keys.
func Normalize(token common.Address) common.Address {
	if IsNative(token) {
		return common.Address{}
	}
	return token
}

// ParseToken converts a hex string into a token address.
func ParseToken(input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return common.Address{}, swaperr.New(swaperr.KindInvalidPool, fmt.Sprintf("invalid token address: %q", input))
	}
	return common.HexToAddress(input), nil
}

// ParsePoolID converts a 0x-prefixed 32-byte hex string into a pool id.
func ParsePoolID(input string) (common.Hash, error) {
	input = strings.TrimSpace(input)
	data, err := hexutil.Decode(input)
	if err != nil {
		return common.Hash{}, swaperr.New(swaperr.KindInvalidPool, fmt.Sprintf("invalid pool id: %q", input))
	}
	if len(data) != 32 {
		return common.Hash{}, swaperr.New(swaperr.KindInvalidPool, fmt.Sprintf("invalid pool id length: %q", input))
	}
	return common.BytesToHash(data), nil
}

// SortTokens orders two normalized addresses by unsigned byte value.
func SortTokens(a, b common.Address) (common.Address, common.Address, error) {
	switch bytes.Compare(a.Bytes(), b.Bytes()) {
	case 0:
		return common.Address{}, common.Address{}, swaperr.New(swaperr.KindInvalidPool, fmt.Sprintf("identical tokens: %s", a.Hex()))
	case -1:
		return a, b, nil
	default:
		return b, a, nil
	}
}
