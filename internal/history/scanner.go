package history

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"swapDesk/internal/dex"
	"swapDesk/internal/model"
)

// LogSource is the chain access the scanner needs.
type LogSource interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, address common.Address, topics [][]common.Hash) ([]types.Log, error)
}

// Config selects the pool and block range to scan.
type Config struct {
	PoolManager  common.Address
	PoolID       common.Hash
	FromBlock    uint64
	ToBlock      uint64
	BatchSize    uint64
	MaxRetries   int
	RetryBackoff time.Duration
}

// Scanner collects decoded Swap events of one pool.
type Scanner struct {
	cfg        Config
	source     LogSource
	logger     *zap.Logger
	seen       map[string]struct{}
	timestamps map[uint64]uint64
}

func NewScanner(cfg Config, source LogSource, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{
		cfg:        cfg,
		source:     source,
		logger:     logger,
		seen:       make(map[string]struct{}),
		timestamps: make(map[uint64]uint64),
	}
}

// Run scans the configured range in batches and returns the pool's swaps in
// log order. A zero ToBlock scans up to the latest block.
func (s *Scanner) Run(ctx context.Context) ([]model.SwapEventData, error) {
	if s.source == nil {
		return nil, fmt.Errorf("log source is nil")
	}
	if s.cfg.BatchSize == 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if s.cfg.PoolID == (common.Hash{}) {
		return nil, fmt.Errorf("pool id is required")
	}
	topic, err := dex.SwapEventTopic()
	if err != nil {
		return nil, err
	}

	to := s.cfg.ToBlock
	if to == 0 {
		latest, err := s.source.LatestBlockNumber(ctx)
		if err != nil {
			return nil, fmt.Errorf("get latest block: %w", err)
		}
		to = latest
	}
	if s.cfg.FromBlock > to {
		s.logger.Info("nothing to scan", zap.Uint64("from", s.cfg.FromBlock), zap.Uint64("to", to))
		return nil, nil
	}

	ranges, err := BlockRange{From: s.cfg.FromBlock, To: to}.Batches(s.cfg.BatchSize)
	if err != nil {
		return nil, err
	}

	topics := [][]common.Hash{{topic}, {s.cfg.PoolID}}
	swaps := make([]model.SwapEventData, 0)
	for _, blockRange := range ranges {
		select {
		case <-ctx.Done():
			return swaps, ctx.Err()
		default:
		}

		s.logger.Debug("fetch swap logs", zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))
		logs, err := s.filterLogsWithRetry(ctx, blockRange, topics)
		if err != nil {
			return swaps, fmt.Errorf("filter logs: %w", err)
		}

		for _, log := range logs {
			if log.Removed || s.isDuplicate(log) {
				continue
			}
			swap, err := dex.DecodeSwapLog(log)
			if err != nil {
				s.logger.Warn("decode swap log failed", zap.String("tx", log.TxHash.Hex()), zap.Uint("index", log.Index), zap.Error(err))
				continue
			}
			ts, err := s.blockTimestampWithRetry(ctx, log.BlockNumber)
			if err != nil {
				return swaps, fmt.Errorf("block timestamp %d: %w", log.BlockNumber, err)
			}
			swap.Timestamp = ts
			swaps = append(swaps, swap)
		}
	}

	s.logger.Info("swap scan complete", zap.Int("swaps", len(swaps)), zap.Uint64("from", s.cfg.FromBlock), zap.Uint64("to", to))
	return swaps, nil
}

func (s *Scanner) filterLogsWithRetry(ctx context.Context, blockRange BlockRange, topics [][]common.Hash) ([]types.Log, error) {
	var logs []types.Log
	err := retry(ctx, s.cfg.MaxRetries, s.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		logs, err = s.source.FilterLogs(ctx, blockRange.From, blockRange.To, s.cfg.PoolManager, topics)
		return err
	}, func(attempt int, err error) {
		s.logger.Warn("filter logs failed", zap.Int("attempt", attempt), zap.Error(err), zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))
	})
	return logs, err
}

func (s *Scanner) blockTimestampWithRetry(ctx context.Context, blockNumber uint64) (uint64, error) {
	if ts, ok := s.timestamps[blockNumber]; ok {
		return ts, nil
	}
	var ts uint64
	err := retry(ctx, s.cfg.MaxRetries, s.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		ts, err = s.source.BlockTimestamp(ctx, blockNumber)
		return err
	}, func(attempt int, err error) {
		s.logger.Warn("block timestamp fetch failed", zap.Int("attempt", attempt), zap.Error(err), zap.Uint64("block_number", blockNumber))
	})
	if err != nil {
		return 0, err
	}
	s.timestamps[blockNumber] = ts
	return ts, nil
}

func (s *Scanner) isDuplicate(log types.Log) bool {
	id := fmt.Sprintf("%d:%s:%d", log.BlockNumber, log.TxHash.Hex(), log.Index)
	if _, ok := s.seen[id]; ok {
		return true
	}
	s.seen[id] = struct{}{}
	return false
}
