package dex

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapDesk/internal/model"
)

// NativeDecimals is the precision of the chain's native asset.
const NativeDecimals uint8 = 18

// ContractCaller performs read-only contract calls.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// TokenMetaCache caches token metadata by address.
type TokenMetaCache struct {
	mu   sync.RWMutex
	data map[common.Address]model.TokenMeta
}

func NewTokenMetaCache() *TokenMetaCache {
	return &TokenMetaCache{data: make(map[common.Address]model.TokenMeta)}
}

func (c *TokenMetaCache) Get(address common.Address) (model.TokenMeta, bool) {
	c.mu.RLock()
	meta, ok := c.data[address]
	c.mu.RUnlock()
	return meta, ok
}

func (c *TokenMetaCache) Set(address common.Address, meta model.TokenMeta) {
	c.mu.Lock()
	c.data[address] = meta
	c.mu.Unlock()
}

// TokenResolver binds a caller and cache for repeated metadata lookups.
type TokenResolver struct {
	Caller ContractCaller
	Cache  *TokenMetaCache
	Logger *zap.Logger
}

func (r TokenResolver) Lookup(ctx context.Context, token common.Address) (model.TokenMeta, error) {
	return LookupTokenMeta(ctx, r.Caller, r.Cache, token, r.Logger)
}

// Slot0 is the current pool price state.
type Slot0 struct {
	SqrtPriceX96 *big.Int
	Tick         int32
	ProtocolFee  uint32
	LPFee        uint32
}

// LookupTokenMeta returns cached metadata or fetches and caches it.
func LookupTokenMeta(ctx context.Context, caller ContractCaller, cache *TokenMetaCache, token common.Address, logger *zap.Logger) (model.TokenMeta, error) {
	if cache != nil {
		if meta, ok := cache.Get(token); ok {
			return meta, nil
		}
	}
	meta, err := FetchTokenMeta(ctx, caller, token, logger)
	if err != nil {
		return meta, err
	}
	if cache != nil {
		cache.Set(token, meta)
	}
	return meta, nil
}

// FetchTokenMeta loads token metadata via ERC20 calls. Native sentinels
// resolve locally without RPC.
func FetchTokenMeta(ctx context.Context, caller ContractCaller, token common.Address, logger *zap.Logger) (model.TokenMeta, error) {
	meta := model.TokenMeta{Address: token.Hex()}
	if IsNative(token) {
		meta.Decimals = NativeDecimals
		meta.Symbol = "ETH"
		meta.Name = "Ether"
		meta.Native = true
		return meta, nil
	}
	if caller == nil {
		return meta, fmt.Errorf("contract caller is nil")
	}

	stringABI, err := ERC20ABI()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := erc20ABIBytes32Instance()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	values, err := callMethod(ctx, caller, token, stringABI, "decimals", nil)
	if err != nil {
		return meta, err
	}
	decimals, err := asUint8(values[0])
	if err != nil {
		return meta, err
	}
	meta.Decimals = decimals

	if values, err := callMethod(ctx, caller, token, stringABI, "symbol", nil); err == nil {
		if symbol, ok := values[0].(string); ok {
			meta.Symbol = symbol
		}
	} else if values, err := callMethod(ctx, caller, token, bytes32ABI, "symbol", nil); err == nil {
		if symbol, ok := bytes32ToString(values[0]); ok {
			meta.Symbol = symbol
		}
	} else if logger != nil {
		logger.Debug("symbol call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	if values, err := callMethod(ctx, caller, token, stringABI, "name", nil); err == nil {
		if name, ok := values[0].(string); ok {
			meta.Name = name
		}
	} else if values, err := callMethod(ctx, caller, token, bytes32ABI, "name", nil); err == nil {
		if name, ok := bytes32ToString(values[0]); ok {
			meta.Name = name
		}
	} else if logger != nil {
		logger.Debug("name call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	return meta, nil
}

// FetchAllowance reads allowance(owner, spender) on token.
func FetchAllowance(ctx context.Context, caller ContractCaller, token, owner, spender common.Address) (*big.Int, error) {
	erc20, err := ERC20ABI()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	values, err := callMethod(ctx, caller, token, erc20, "allowance", nil, owner, spender)
	if err != nil {
		return nil, err
	}
	return asBigInt(values[0])
}

// FetchSlot0 reads getSlot0(poolId) from a state view contract.
func FetchSlot0(ctx context.Context, caller ContractCaller, stateView common.Address, poolID common.Hash) (Slot0, error) {
	viewABI, err := StateViewABI()
	if err != nil {
		return Slot0{}, fmt.Errorf("parse state view abi: %w", err)
	}
	values, err := callMethod(ctx, caller, stateView, viewABI, "getSlot0", nil, [32]byte(poolID))
	if err != nil {
		return Slot0{}, err
	}
	if len(values) != 4 {
		return Slot0{}, fmt.Errorf("unexpected slot0 values: %d", len(values))
	}
	sqrtPrice, err := asBigInt(values[0])
	if err != nil {
		return Slot0{}, fmt.Errorf("sqrt price: %w", err)
	}
	tickInt, err := asBigInt(values[1])
	if err != nil {
		return Slot0{}, fmt.Errorf("tick: %w", err)
	}
	tick, err := int24FromBig(tickInt)
	if err != nil {
		return Slot0{}, fmt.Errorf("tick: %w", err)
	}
	protocolFee, err := asBigInt(values[2])
	if err != nil {
		return Slot0{}, fmt.Errorf("protocol fee: %w", err)
	}
	lpFee, err := asBigInt(values[3])
	if err != nil {
		return Slot0{}, fmt.Errorf("lp fee: %w", err)
	}
	return Slot0{
		SqrtPriceX96: sqrtPrice,
		Tick:         tick,
		ProtocolFee:  uint32(protocolFee.Uint64()),
		LPFee:        uint32(lpFee.Uint64()),
	}, nil
}

func callMethod(ctx context.Context, caller ContractCaller, contract common.Address, parsed abi.ABI, method string, block *big.Int, args ...interface{}) ([]interface{}, error) {
	if caller == nil {
		return nil, fmt.Errorf("contract caller is nil")
	}
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &contract, Data: data}
	resp, err := caller.CallContract(ctx, msg, block)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("unpack %s: empty result", method)
	}
	return values, nil
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int8:
		return big.NewInt(int64(v)), nil
	case int16:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case uint16:
		return uint8(v), nil
	case uint32:
		return uint8(v), nil
	case uint64:
		return uint8(v), nil
	case *big.Int:
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}

func int24FromBig(value *big.Int) (int32, error) {
	min := big.NewInt(-1 << 23)
	max := big.NewInt((1 << 23) - 1)
	if value.Cmp(min) < 0 || value.Cmp(max) > 0 {
		return 0, fmt.Errorf("int24 overflow: %s", value.String())
	}
	return int32(value.Int64()), nil
}
