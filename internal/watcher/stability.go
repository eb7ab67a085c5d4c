package watcher

import (
	"context"
	"errors"
	"os"
	"time"
)

// ErrFileNotFound is returned when the file disappears while waiting.
var ErrFileNotFound = errors.New("file not found")

// ErrFileUnstable is returned when the file keeps changing past the timeout.
var ErrFileUnstable = errors.New("file did not stabilize within timeout")

// StabilityChecker waits until a file stops growing, so that documents still
// being downloaded or copied are not analyzed half written.
type StabilityChecker struct {
	threshold time.Duration // Size must stay unchanged this long
	timeout   time.Duration // Give up after this long
	interval  time.Duration // Polling period
}

// NewStabilityChecker creates a checker polling at threshold/4 (at least
// 50ms) with a 30 second timeout.
func NewStabilityChecker(threshold time.Duration) *StabilityChecker {
	interval := threshold / 4
	if interval < 50*time.Millisecond {
		interval = 50 * time.Millisecond
	}
	return NewStabilityCheckerWithOptions(threshold, 30*time.Second, interval)
}

// NewStabilityCheckerWithOptions creates a checker with explicit timing.
func NewStabilityCheckerWithOptions(threshold, timeout, interval time.Duration) *StabilityChecker {
	return &StabilityChecker{threshold: threshold, timeout: timeout, interval: interval}
}

// WaitForStable blocks until the size of path has not changed for the
// threshold and returns that size. A zero threshold returns immediately.
func (s *StabilityChecker) WaitForStable(ctx context.Context, path string) (int64, error) {
	size, err := fileSize(path)
	if err != nil || s.threshold <= 0 {
		return size, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	lastChange := time.Now()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return size, ErrFileUnstable
			}
			return size, ctx.Err()
		case <-ticker.C:
			current, err := fileSize(path)
			if err != nil {
				return 0, err
			}
			if current != size {
				size = current
				lastChange = time.Now()
			} else if time.Since(lastChange) >= s.threshold {
				return size, nil
			}
		}
	}
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrFileNotFound
		}
		return 0, err
	}
	return info.Size(), nil
}
