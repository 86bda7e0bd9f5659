package lifecycle

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"swapDesk/internal/model"
	"swapDesk/internal/storage"
)

// NewJournal returns a tracker subscriber that writes one record per
// confirmed or failed attempt to store.
func NewJournal(store storage.Storage, chainID uint64, logger *zap.Logger) func(Snapshot) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var (
		mu      sync.Mutex
		written = make(map[uint64]struct{})
	)
	return func(snap Snapshot) {
		if !snap.Status.Terminal() {
			return
		}
		mu.Lock()
		if _, done := written[snap.AttemptNumber]; done {
			mu.Unlock()
			return
		}
		written[snap.AttemptNumber] = struct{}{}
		mu.Unlock()

		record := SwapRecord(snap, chainID, time.Now())
		if err := store.PutSwapRecords([]model.SwapRecord{record}); err != nil {
			logger.Warn("journal write failed", zap.Uint64("attempt", snap.AttemptNumber), zap.Error(err))
		}
	}
}

// SwapRecord converts a snapshot into its persisted form.
func SwapRecord(snap Snapshot, chainID uint64, at time.Time) model.SwapRecord {
	record := model.SwapRecord{
		ChainID:         chainID,
		Attempt:         snap.AttemptNumber,
		AmountSpecified: "0",
		Value:           "0",
		Status:          string(snap.Status),
		RecordedAt:      at.UTC().Format(time.RFC3339Nano),
		Swap:            snap.Swap,
	}
	if snap.Account != (common.Address{}) {
		record.Account = snap.Account.Hex()
	}
	if snap.TxHash != (common.Hash{}) {
		record.TxHash = snap.TxHash.Hex()
		record.BlockNumber = snap.BlockNumber
	}
	if snap.Err != nil {
		record.ErrorKind = string(snap.Err.Kind)
		record.Error = snap.Err.Error()
	}
	if snap.Attempt != nil {
		key := snap.Attempt.Key
		record.Pool = model.Pool{
			ChainID:     chainID,
			PoolID:      hexutil.Encode(key.ID().Bytes()),
			Currency0:   key.Currency0.Hex(),
			Currency1:   key.Currency1.Hex(),
			Fee:         key.Fee,
			TickSpacing: key.TickSpacing,
			Hooks:       key.Hooks.Hex(),
		}
		record.ZeroForOne = snap.Attempt.Params.ZeroForOne
		if amount := snap.Attempt.Params.AmountSpecified; amount != nil {
			record.AmountSpecified = amount.String()
		}
		if value := snap.Attempt.Call.Value; value != nil {
			record.Value = value.String()
		}
	}
	return record
}
