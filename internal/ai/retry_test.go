package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)

	calls := 0
	out, err := Do(context.Background(), fastPolicy(3), RateLimitClassifier, zap.New(core), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("HTTP 429: Too Many Requests")
		}
		return "ok", nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "ok" || calls != 3 {
		t.Fatalf("expected ok after 3 calls, got %q after %d", out, calls)
	}
	if observed.Len() != 2 {
		t.Fatalf("expected 2 retry warnings, got %d", observed.Len())
	}
}

func TestDoStopsOnPermanentError(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy(5), RateLimitClassifier, nil, func(context.Context) (string, error) {
		calls++
		return "", errors.New("invalid argument")
	})

	if err == nil || calls != 1 {
		t.Fatalf("expected single failing call, got %d calls and err %v", calls, err)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy(2), RateLimitClassifier, nil, func(context.Context) (string, error) {
		calls++
		return "", errors.New("quota exceeded")
	})

	if err == nil || calls != 2 {
		t.Fatalf("expected 2 calls and an error, got %d calls and err %v", calls, err)
	}
}

func TestDoRefusesLongRetryHint(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy(3), RateLimitClassifier, nil, func(context.Context) (string, error) {
		calls++
		return "", errors.New("quota exhausted, retry after 60 seconds")
	})

	if !errors.Is(err, ErrRetryAfterTooLong) {
		t.Fatalf("expected ErrRetryAfterTooLong, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}

func TestDoHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Hour, MaxDelay: time.Hour}

	_, err := Do(ctx, policy, RateLimitClassifier, nil, func(context.Context) (string, error) {
		cancel()
		return "", errors.New("rate limit exceeded")
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDelay(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: 5 * time.Second}

	expect := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	for i, want := range expect {
		if got := p.Delay(i + 1); got != want {
			t.Fatalf("attempt %d: expected %v, got %v", i+1, want, got)
		}
	}
}

func TestIsRateLimitError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil error", err: nil, expected: false},
		{name: "resource exhausted", err: errors.New("rpc error: code = ResourceExhausted desc = Resource exhausted"), expected: true},
		{name: "http 429", err: errors.New("HTTP 429: Too Many Requests"), expected: true},
		{name: "rate limit", err: errors.New("rate limit exceeded"), expected: true},
		{name: "quota", err: errors.New("quota exceeded for this project"), expected: true},
		{name: "timeout", err: errors.New("connection timeout"), expected: false},
		{name: "json", err: errors.New("failed to parse JSON"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRateLimitError(tt.err); got != tt.expected {
				t.Fatalf("IsRateLimitError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		msg    string
		expect time.Duration
		ok     bool
	}{
		{msg: "quota exhausted, retry after 60 seconds", expect: time.Minute, ok: true},
		{msg: `{"retryDelay": "12s"}`, expect: 12 * time.Second, ok: true},
		{msg: "Please retry in 1.5s.", expect: 1500 * time.Millisecond, ok: true},
		{msg: "internal error", ok: false},
	}

	for _, tt := range tests {
		got, ok := RetryAfter(tt.msg)
		if ok != tt.ok || got != tt.expect {
			t.Fatalf("%q: expected (%v, %v), got (%v, %v)", tt.msg, tt.expect, tt.ok, got, ok)
		}
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := map[string]string{
		"{\"a\":1}":                   "{\"a\":1}",
		"```json\n{\"a\":1}\n```":     "{\"a\":1}",
		"```\n{\"a\":1}\n```\n":       "{\"a\":1}",
		"  `{\"a\":1}`  ":             "{\"a\":1}",
		"```JSON\n{\"b\":\"x\"}```  ": "{\"b\":\"x\"}",
	}

	for in, expect := range tests {
		if got := StripCodeFence(in); got != expect {
			t.Fatalf("StripCodeFence(%q) = %q, want %q", in, got, expect)
		}
	}
}
