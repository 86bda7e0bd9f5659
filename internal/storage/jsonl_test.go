package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"swapDesk/internal/model"
)

func TestJsonlStorageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "swaps.jsonl")
	store := NewJsonlStorage(path)

	if err := store.PutSwapRecords(nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
	if err := store.PutSwapRecords([]model.SwapRecord{{Attempt: 1, Status: "failed", ErrorKind: "user_cancelled"}}); err != nil {
		t.Fatalf("first batch: %v", err)
	}
	if err := store.PutSwapRecords([]model.SwapRecord{{Attempt: 2, Status: "confirmed", TxHash: "0xabc", BlockNumber: 9}}); err != nil {
		t.Fatalf("second batch: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()

	var records []model.SwapRecord
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var record model.SwapRecord
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		records = append(records, record)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ErrorKind != "user_cancelled" || records[1].TxHash != "0xabc" || records[1].BlockNumber != 9 {
		t.Fatalf("unexpected records: %+v", records)
	}
}
