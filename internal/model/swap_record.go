package model

// SwapRecord is the persisted outcome of one swap attempt.
type SwapRecord struct {
	ChainID         uint64         `json:"chain_id"`
	Attempt         uint64         `json:"attempt"`
	Account         string         `json:"account"`
	Pool            Pool           `json:"pool"`
	ZeroForOne      bool           `json:"zero_for_one"`
	AmountSpecified string         `json:"amount_specified"`
	Value           string         `json:"value"`
	Status          string         `json:"status"`
	TxHash          string         `json:"tx_hash,omitempty"`
	BlockNumber     uint64         `json:"block_number,omitempty"`
	ErrorKind       string         `json:"error_kind,omitempty"`
	Error           string         `json:"error,omitempty"`
	Swap            *SwapEventData `json:"swap,omitempty"`
	RecordedAt      string         `json:"recorded_at"`
}
