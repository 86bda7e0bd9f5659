package model

// SwapEventData is the decoded pool manager Swap event payload.
// Amounts are signed from the pool's perspective: negative leaves the pool.
type SwapEventData struct {
	PoolID       string `json:"pool_id"`
	Sender       string `json:"sender"`
	Amount0      string `json:"amount0"`
	Amount1      string `json:"amount1"`
	SqrtPriceX96 string `json:"sqrt_price_x96"`
	Liquidity    string `json:"liquidity"`
	Tick         int32  `json:"tick"`
	Fee          uint32 `json:"fee"`
	TxHash       string `json:"tx_hash"`
	BlockNumber  uint64 `json:"block_number"`
	LogIndex     uint64 `json:"log_index"`
	Timestamp    uint64 `json:"timestamp,omitempty"`
}
