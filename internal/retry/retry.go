package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/bstardust/imgmeta/internal/logger"
	"github.com/bstardust/imgmeta/pkg/s3client"
)

// Config defines retry behavior for reads that might fail transiently
type Config struct {
	// MaxRetries is the maximum number of retries before giving up
	MaxRetries int

	// InitialBackoff is the duration to wait before the first retry
	InitialBackoff time.Duration

	// MaxBackoff is the maximum duration to wait between retries
	MaxBackoff time.Duration

	// BackoffFactor is the factor by which to increase backoff after each retry
	BackoffFactor float64

	// RetryableCodes lists S3 error codes that should be retried
	RetryableCodes map[string]bool
}

// DefaultConfig returns a default retry configuration
func DefaultConfig() Config {
	return Config{
		MaxRetries:     3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
		BackoffFactor:  2.0,
		RetryableCodes: defaultRetryableCodes(),
	}
}

func defaultRetryableCodes() map[string]bool {
	return map[string]bool{
		"RequestTimeout":             true,
		"RequestTimeTooSkewed":       true,
		"InternalError":              true,
		"SlowDown":                   true,
		"OperationAborted":           true,
		"ServiceUnavailable":         true,
		"ThrottlingException":        true,
		"RequestLimitExceeded":       true,
		"BandwidthLimitExceeded":     true,
		"XMinioServerNotInitialized": true,
	}
}

// IsRetryable determines if an error should be retried based on its code or message
func (rc Config) IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if code := s3client.ErrorCode(err); code != "" {
		return rc.RetryableCodes[code]
	}
	if s3client.IsPermanent(err) {
		return false
	}

	lowerErr := strings.ToLower(err.Error())
	return strings.Contains(lowerErr, "timeout") ||
		strings.Contains(lowerErr, "connection") ||
		strings.Contains(lowerErr, "reset") ||
		strings.Contains(lowerErr, "broken pipe") ||
		strings.Contains(lowerErr, "network") ||
		strings.Contains(lowerErr, "unavailable") ||
		strings.Contains(lowerErr, "unexpected eof")
}

// WithBackoff retries fn with exponential backoff
func WithBackoff(ctx context.Context, operation string, fn func() error, config Config) error {
	var err error
	var attempt int

	for attempt = 0; attempt <= config.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return fmt.Errorf("%s canceled: %w", operation, ctx.Err())
		}

		if attempt > 0 {
			logger.Debug("Retry attempt %d/%d for %s", attempt, config.MaxRetries, operation)
		}

		err = fn()
		if err == nil {
			if attempt > 0 {
				logger.Info("Completed %s after %d retries", operation, attempt)
			}
			return nil
		}

		if !config.IsRetryable(err) {
			logger.Debug("Non-retryable error for %s: %v", operation, err)
			return err
		}

		// Last attempt failed
		if attempt == config.MaxRetries {
			break
		}

		backoff := backoffDuration(attempt, config)
		logger.Debug("Backing off for %v before retrying %s: %v", backoff, operation, err)

		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s canceled during retry: %w", operation, ctx.Err())
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operation, attempt, err)
}

// backoffDuration calculates the backoff duration for a retry attempt
func backoffDuration(attempt int, config Config) time.Duration {
	backoff := float64(config.InitialBackoff) * math.Pow(config.BackoffFactor, float64(attempt))

	// ±20% jitter
	jitter := (rand.Float64() * 0.4) - 0.2
	backoff = backoff * (1 + jitter)

	if backoff > float64(config.MaxBackoff) {
		backoff = float64(config.MaxBackoff)
	}

	return time.Duration(backoff)
}
