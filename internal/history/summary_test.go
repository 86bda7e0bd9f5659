package history

import (
	"testing"
	"time"

	"swapDesk/internal/model"
)

func TestSummarizeBucketsByWindow(t *testing.T) {
	swaps := []model.SwapEventData{
		{Amount0: "-1000000", Amount1: "990", Fee: 3000, BlockNumber: 10, Timestamp: 1_000, SqrtPriceX96: "1", Tick: 1},
		{Amount0: "500", Amount1: "-2000", Fee: 3000, BlockNumber: 11, Timestamp: 1_030, SqrtPriceX96: "2", Tick: 2},
		{Amount0: "-10", Amount1: "10", BlockNumber: 20, Timestamp: 1_070, SqrtPriceX96: "3", Tick: 3},
	}
	got, err := Summarize(swaps, time.Minute)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(got))
	}

	first := got[0]
	if first.WindowStart != 960 || first.WindowEnd != 1020 || first.SwapCount != 1 {
		t.Fatalf("first window: %+v", first)
	}
	if first.Volume0.Int64() != 1_000_000 || first.Fee0.Int64() != 3000 || first.Fee1.Sign() != 0 {
		t.Fatalf("first window amounts: %+v", first)
	}

	second := got[1]
	if second.WindowStart != 1020 || second.SwapCount != 2 {
		t.Fatalf("second window: %+v", second)
	}
	if second.Volume0.Int64() != 510 || second.Volume1.Int64() != 2010 {
		t.Fatalf("second window volume: %s %s", second.Volume0, second.Volume1)
	}
	if second.Fee1.Int64() != 6 || second.Fee0.Sign() != 0 {
		t.Fatalf("second window fees: %s %s", second.Fee0, second.Fee1)
	}
	if second.FirstBlock != 11 || second.LastBlock != 20 || second.Tick != 3 || second.SqrtPriceX96 != "3" {
		t.Fatalf("second window last state: %+v", second)
	}
}

func TestSummarizeRejectsBadInput(t *testing.T) {
	if _, err := Summarize(nil, time.Millisecond); err == nil {
		t.Fatalf("expected window error")
	}
	if _, err := Summarize([]model.SwapEventData{{Amount0: "1"}}, time.Minute); err == nil {
		t.Fatalf("expected missing timestamp error")
	}
	if _, err := Summarize([]model.SwapEventData{{Amount0: "x", Timestamp: 5}}, time.Minute); err == nil {
		t.Fatalf("expected parse error")
	}
}
