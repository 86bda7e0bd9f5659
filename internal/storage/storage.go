package storage

import "swapDesk/internal/model"

// Storage defines a sink for swap records.
type Storage interface {
	PutSwapRecords(records []model.SwapRecord) error
}
