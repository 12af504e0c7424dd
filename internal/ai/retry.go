package ai

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/talent-screener/internal/utils"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 2 * time.Second
	DefaultMaxDelay    = 30 * time.Second
)

var (
	retryAfterRe = regexp.MustCompile(`(?i)retry (?:after|in) (\d+(?:\.\d+)?)\s*(?:s|sec|secs|seconds?)\b`)
	retryDelayRe = regexp.MustCompile(`(?i)"?retryDelay"?\s*:\s*"(\d+(?:\.\d+)?)s"`)
)

// ErrRetryAfterTooLong is returned when the provider asks to back off longer
// than the policy allows.
var ErrRetryAfterTooLong = errors.New("provider retry delay exceeds the allowed maximum")

// RetryPolicy is an exponential backoff for transient provider failures.
type RetryPolicy struct {
	MaxAttempts int           `mapstructure:"max-attempts"`
	BaseDelay   time.Duration `mapstructure:"base-delay"`
	MaxDelay    time.Duration `mapstructure:"max-delay"`
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultMaxDelay
	}
	return p
}

// Delay returns the wait before the given retry, attempt starting at 1.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	p = p.withDefaults()
	if attempt < 1 {
		attempt = 1
	}

	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	return d
}

// Classifier decides whether an error is worth another attempt. A positive
// hint overrides the computed backoff.
type Classifier func(err error) (retry bool, hint time.Duration)

// Do runs fn until it succeeds, the error is not retryable, the attempts are
// exhausted or the context is done.
func Do(ctx context.Context, p RetryPolicy, classify Classifier, logger *zap.Logger, fn func(context.Context) (string, error)) (string, error) {
	p = p.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err

		retry, hint := classify(err)
		if !retry {
			return "", err
		}
		if hint > p.MaxDelay {
			return "", fmt.Errorf("%w (%s): %w", ErrRetryAfterTooLong, hint, err)
		}
		if attempt == p.MaxAttempts {
			break
		}

		delay := p.Delay(attempt)
		if hint > 0 {
			delay = hint
		}

		logger.Warn("retrying after transient provider error",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", p.MaxAttempts),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		if err := utils.WaitFor(ctx, delay); err != nil {
			return "", fmt.Errorf("waiting for retry: %w", err)
		}
	}

	return "", fmt.Errorf("giving up after %d attempts: %w", p.MaxAttempts, lastErr)
}

// IsRateLimitError recognizes rate limiting by its message. Provider SDKs
// that only surface gRPC or HTTP text need this.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"resourceexhausted", "resource_exhausted", "resource exhausted", "429", "rate limit", "quota"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// RetryAfter extracts a provider supplied back off hint from an error message.
func RetryAfter(msg string) (time.Duration, bool) {
	for _, re := range []*regexp.Regexp{retryDelayRe, retryAfterRe} {
		match := re.FindStringSubmatch(msg)
		if match == nil {
			continue
		}
		seconds, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			continue
		}
		return time.Duration(seconds * float64(time.Second)), true
	}
	return 0, false
}

// RateLimitClassifier retries rate limiting recognized by IsRateLimitError.
func RateLimitClassifier(err error) (bool, time.Duration) {
	if !IsRateLimitError(err) {
		return false, 0
	}
	hint, _ := RetryAfter(err.Error())
	return true, hint
}
