package dex

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const poolKeyComponents = `[
      {"internalType": "Currency", "name": "currency0", "type": "address"},
      {"internalType": "Currency", "name": "currency1", "type": "address"},
      {"internalType": "uint24", "name": "fee", "type": "uint24"},
      {"internalType": "int24", "name": "tickSpacing", "type": "int24"},
      {"internalType": "contract IHooks", "name": "hooks", "type": "address"}
    ]`

const routerABIJSON = `[
  {
    "inputs": [
      {"components": ` + poolKeyComponents + `, "internalType": "struct PoolKey", "name": "key", "type": "tuple"},
      {
        "components": [
          {"internalType": "bool", "name": "zeroForOne", "type": "bool"},
          {"internalType": "int256", "name": "amountSpecified", "type": "int256"},
          {"internalType": "uint160", "name": "sqrtPriceLimitX96", "type": "uint160"}
        ],
        "internalType": "struct IPoolManager.SwapParams",
        "name": "params",
        "type": "tuple"
      },
      {
        "components": [
          {"internalType": "bool", "name": "takeClaims", "type": "bool"},
          {"internalType": "bool", "name": "settleUsingBurn", "type": "bool"}
        ],
        "internalType": "struct PoolSwapTest.TestSettings",
        "name": "testSettings",
        "type": "tuple"
      },
      {"internalType": "bytes", "name": "hookData", "type": "bytes"}
    ],
    "name": "swap",
    "outputs": [{"internalType": "BalanceDelta", "name": "delta", "type": "int256"}],
    "stateMutability": "payable",
    "type": "function"
  }
]`

const stateViewABIJSON = `[
  {
    "inputs": [{"internalType": "PoolId", "name": "poolId", "type": "bytes32"}],
    "name": "getSlot0",
    "outputs": [
      {"internalType": "uint160", "name": "sqrtPriceX96", "type": "uint160"},
      {"internalType": "int24", "name": "tick", "type": "int24"},
      {"internalType": "uint24", "name": "protocolFee", "type": "uint24"},
      {"internalType": "uint24", "name": "lpFee", "type": "uint24"}
    ],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "PoolId", "name": "poolId", "type": "bytes32"}],
    "name": "getLiquidity",
    "outputs": [{"internalType": "uint128", "name": "liquidity", "type": "uint128"}],
    "stateMutability": "view",
    "type": "function"
  }
]`

const poolManagerABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "PoolId", "name": "id", "type": "bytes32"},
      {"indexed": true, "internalType": "address", "name": "sender", "type": "address"},
      {"indexed": false, "internalType": "int128", "name": "amount0", "type": "int128"},
      {"indexed": false, "internalType": "int128", "name": "amount1", "type": "int128"},
      {"indexed": false, "internalType": "uint160", "name": "sqrtPriceX96", "type": "uint160"},
      {"indexed": false, "internalType": "uint128", "name": "liquidity", "type": "uint128"},
      {"indexed": false, "internalType": "int24", "name": "tick", "type": "int24"},
      {"indexed": false, "internalType": "uint24", "name": "fee", "type": "uint24"}
    ],
    "name": "Swap",
    "type": "event"
  }
]`

var (
	routerABI     abi.ABI
	routerABIOnce sync.Once
	routerABIErr  error

	stateViewABI     abi.ABI
	stateViewABIOnce sync.Once
	stateViewABIErr  error

	poolManagerABI     abi.ABI
	poolManagerABIOnce sync.Once
	poolManagerABIErr  error
)

// RouterABI returns the parsed swap router ABI.
func RouterABI() (abi.ABI, error) {
	routerABIOnce.Do(func() {
		routerABI, routerABIErr = abi.JSON(strings.NewReader(routerABIJSON))
	})
	return routerABI, routerABIErr
}

// StateViewABI returns the parsed pool state view ABI.
func StateViewABI() (abi.ABI, error) {
	stateViewABIOnce.Do(func() {
		stateViewABI, stateViewABIErr = abi.JSON(strings.NewReader(stateViewABIJSON))
	})
	return stateViewABI, stateViewABIErr
}

// PoolManagerABI returns the parsed pool manager event ABI.
func PoolManagerABI() (abi.ABI, error) {
	poolManagerABIOnce.Do(func() {
		poolManagerABI, poolManagerABIErr = abi.JSON(strings.NewReader(poolManagerABIJSON))
	})
	return poolManagerABI, poolManagerABIErr
}
