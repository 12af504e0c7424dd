package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWaitFor(t *testing.T) {
	originalSleep := sleep
	defer func() { sleep = originalSleep }()

	var slept time.Duration
	sleep = func(d time.Duration) { slept = d }

	if err := WaitFor(context.Background(), time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slept != time.Second {
		t.Fatalf("expected to sleep 1s, got %v", slept)
	}
}

func TestWaitForCancelled(t *testing.T) {
	originalSleep := sleep
	defer func() { sleep = originalSleep }()

	release := make(chan struct{})
	defer close(release)
	sleep = func(time.Duration) { <-release }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := WaitFor(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	if err := WaitFor(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected zero wait to report cancellation, got %v", err)
	}
}
