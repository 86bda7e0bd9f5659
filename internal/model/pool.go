package model

// Pool is a pool key record for storage.
type Pool struct {
	ChainID     uint64 `json:"chain_id"`
	PoolID      string `json:"pool_id"`
	Currency0   string `json:"currency0"`
	Currency1   string `json:"currency1"`
	Fee         uint32 `json:"fee"`
	TickSpacing int32  `json:"tick_spacing"`
	Hooks       string `json:"hooks"`
}
