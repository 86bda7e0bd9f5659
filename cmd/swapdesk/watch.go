package main

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"swapDesk/internal/quote"
)

// watchQuotes reads one amount per line from r and calls requote with the
// latest amount once input has been quiet for delay. The last amount is
// delivered at EOF. Cancelling ctx ends the watch without an error.
func watchQuotes(ctx context.Context, r io.Reader, delay time.Duration, requote func(amount string)) error {
	var mu sync.Mutex
	d := quote.NewDebouncer(delay, func(amount string) {
		mu.Lock()
		defer mu.Unlock()
		requote(amount)
	})
	defer func() {
		d.Stop()
		// wait for a delivery already in progress
		mu.Lock()
		mu.Unlock()
	}()

	lines := make(chan string)
	done := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		done <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line := <-lines:
			if amount := strings.TrimSpace(line); amount != "" {
				d.Trigger(amount)
			}
		case err := <-done:
			d.Flush()
			return err
		}
	}
}
