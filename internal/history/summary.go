package history

import (
	"fmt"
	"math/big"
	"sort"
	"time"

	"swapDesk/internal/model"
)

// WindowSummary aggregates the swaps of one pool inside a time window.
type WindowSummary struct {
	WindowStart  uint64   `json:"window_start"`
	WindowEnd    uint64   `json:"window_end"`
	SwapCount    uint64   `json:"swap_count"`
	Volume0      *big.Int `json:"volume0"`
	Volume1      *big.Int `json:"volume1"`
	Fee0         *big.Int `json:"fee0"`
	Fee1         *big.Int `json:"fee1"`
	FirstBlock   uint64   `json:"first_block"`
	LastBlock    uint64   `json:"last_block"`
	LastTS       uint64   `json:"last_ts"`
	SqrtPriceX96 string   `json:"sqrt_price_x96"`
	Tick         int32    `json:"tick"`
}

func newWindowSummary(start, end uint64) *WindowSummary {
	return &WindowSummary{
		WindowStart: start,
		WindowEnd:   end,
		Volume0:     big.NewInt(0),
		Volume1:     big.NewInt(0),
		Fee0:        big.NewInt(0),
		Fee1:        big.NewInt(0),
	}
}

// Summarize buckets swaps into fixed windows by block timestamp. Swaps
// without a timestamp are rejected.
func Summarize(swaps []model.SwapEventData, window time.Duration) ([]WindowSummary, error) {
	windowSeconds := uint64(window / time.Second)
	if windowSeconds == 0 {
		return nil, fmt.Errorf("window must be at least one second")
	}

	buckets := make(map[uint64]*WindowSummary)
	for _, swap := range swaps {
		if swap.Timestamp == 0 {
			return nil, fmt.Errorf("swap %s:%d has no timestamp", swap.TxHash, swap.LogIndex)
		}
		start := swap.Timestamp - swap.Timestamp%windowSeconds
		acc, ok := buckets[start]
		if !ok {
			acc = newWindowSummary(start, start+windowSeconds)
			buckets[start] = acc
		}
		if err := acc.add(swap); err != nil {
			return nil, err
		}
	}

	out := make([]WindowSummary, 0, len(buckets))
	for _, acc := range buckets {
		out = append(out, *acc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WindowStart < out[j].WindowStart })
	return out, nil
}

// add folds one swap in. Amounts are swapper deltas, so the negative side
// is the input token and carries the LP fee.
func (a *WindowSummary) add(swap model.SwapEventData) error {
	amount0, err := parseBigInt(swap.Amount0)
	if err != nil {
		return err
	}
	amount1, err := parseBigInt(swap.Amount1)
	if err != nil {
		return err
	}

	absAdd(a.Volume0, amount0)
	absAdd(a.Volume1, amount1)
	if swap.Fee != 0 {
		if amount0.Sign() < 0 && amount1.Sign() > 0 {
			a.Fee0.Add(a.Fee0, feeFromAmount(amount0, swap.Fee))
		} else if amount1.Sign() < 0 && amount0.Sign() > 0 {
			a.Fee1.Add(a.Fee1, feeFromAmount(amount1, swap.Fee))
		}
	}

	if a.FirstBlock == 0 || swap.BlockNumber < a.FirstBlock {
		a.FirstBlock = swap.BlockNumber
	}
	if swap.Timestamp >= a.LastTS {
		a.LastTS = swap.Timestamp
		a.LastBlock = swap.BlockNumber
		a.SqrtPriceX96 = swap.SqrtPriceX96
		a.Tick = swap.Tick
	}
	a.SwapCount++
	return nil
}

func parseBigInt(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid int: %s", value)
	}
	return parsed, nil
}

func absAdd(target *big.Int, value *big.Int) {
	if value == nil || target == nil {
		return
	}
	target.Add(target, new(big.Int).Abs(value))
}

func feeFromAmount(amountIn *big.Int, feeRate uint32) *big.Int {
	fee := new(big.Int).Abs(amountIn)
	fee.Mul(fee, big.NewInt(int64(feeRate)))
	fee.Div(fee, big.NewInt(1_000_000))
	return fee
}
