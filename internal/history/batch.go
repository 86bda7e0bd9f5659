package history

import (
	"context"
	"fmt"
	"time"
)

const maxRetryDelay = 10 * time.Second

// BlockRange is an inclusive block range.
type BlockRange struct {
	From uint64
	To   uint64
}

func (r BlockRange) Len() uint64 {
	if r.To < r.From {
		return 0
	}
	return r.To - r.From + 1
}

// Batches splits r into consecutive ranges of at most size blocks.
func (r BlockRange) Batches(size uint64) ([]BlockRange, error) {
	if size == 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if r.To < r.From {
		return nil, fmt.Errorf("to block %d is before from block %d", r.To, r.From)
	}

	batches := make([]BlockRange, 0, (r.Len()+size-1)/size)
	for start := r.From; ; {
		end := r.To
		if r.To-start >= size {
			end = start + size - 1
		}
		batches = append(batches, BlockRange{From: start, To: end})
		if end == r.To {
			return batches, nil
		}
		start = end + 1
	}
}

// retry runs fn until it succeeds or maxRetries extra attempts fail. The delay
// doubles after each failure up to maxRetryDelay. onFailure sees every error.
func retry(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(context.Context) error, onFailure func(attempt int, err error)) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}

	delay := baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if onFailure != nil {
			onFailure(attempt, err)
		}
		if attempt >= maxRetries {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if delay *= 2; delay > maxRetryDelay {
			delay = maxRetryDelay
		}
	}
}
