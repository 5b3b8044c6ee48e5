// SPDX-License-Identifier: Apache-2.0
// Package resilience provides retry and timeout patterns for outbound calls.
package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/dmolins/convo/pkg/errors"
)

// RetryConfig controls retry behavior with exponential backoff.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (must be >= 1).
	MaxAttempts int

	// InitialDelay is the initial backoff delay.
	InitialDelay time.Duration

	// MaxDelay caps the exponential backoff delay.
	MaxDelay time.Duration

	// Multiplier for exponential backoff (default 2.0).
	Multiplier float64

	// IsRecoverable determines if an error should be retried.
	// If nil, all errors are considered recoverable.
	IsRecoverable func(error) bool

	// Jitter adds randomness to backoff to prevent thundering herd.
	// Value between 0 and 1; 0.1 means ±10% jitter.
	Jitter float64
}

// DefaultRetryConfig returns a sensible default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  500 * time.Millisecond,
		MaxDelay:      10 * time.Second,
		Multiplier:    2.0,
		Jitter:        0.1,
		IsRecoverable: isRecoverableDefault,
	}
}

// WithMaxAttempts returns a new config with MaxAttempts set.
func (rc RetryConfig) WithMaxAttempts(max int) RetryConfig {
	rc.MaxAttempts = max
	return rc
}

// WithInitialDelay returns a new config with InitialDelay set.
func (rc RetryConfig) WithInitialDelay(d time.Duration) RetryConfig {
	rc.InitialDelay = d
	return rc
}

// WithIsRecoverable returns a new config with IsRecoverable set.
func (rc RetryConfig) WithIsRecoverable(fn func(error) bool) RetryConfig {
	rc.IsRecoverable = fn
	return rc
}

// Do executes fn with retry logic, returning the last error if all attempts fail.
func (rc RetryConfig) Do(ctx context.Context, fn func() error) error {
	if rc.MaxAttempts < 1 {
		rc.MaxAttempts = 1
	}
	if rc.IsRecoverable == nil {
		rc.IsRecoverable = isRecoverableDefault
	}

	var lastErr error
	for attempt := 0; attempt < rc.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := calculateBackoff(attempt, rc)
			select {
			case <-ctx.Done():
				return errors.New(errors.CodeTimeout, "context canceled during retry", ctx.Err()).
					WithContext("attempt", attempt).
					WithContext("max_attempts", rc.MaxAttempts)
			case <-time.After(delay):
			}
		}

		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		if !rc.IsRecoverable(err) {
			return err
		}
	}

	return lastErr
}

// calculateBackoff computes exponential backoff delay with jitter.
func calculateBackoff(attempt int, rc RetryConfig) time.Duration {
	if rc.Multiplier == 0 {
		rc.Multiplier = 2.0
	}

	exponentialDelay := time.Duration(float64(rc.InitialDelay) * math.Pow(rc.Multiplier, float64(attempt)))

	if exponentialDelay > rc.MaxDelay {
		exponentialDelay = rc.MaxDelay
	}

	if rc.Jitter > 0 {
		jitterAmount := exponentialDelay.Seconds() * rc.Jitter
		jitterRange := 2 * jitterAmount * (rand.Float64() - 0.5)
		exponentialDelay = time.Duration(float64(exponentialDelay) + jitterRange*1e9)
		if exponentialDelay < 0 {
			exponentialDelay = 0
		}
	}

	return exponentialDelay
}

// isRecoverableDefault considers errors recoverable based on type.
func isRecoverableDefault(err error) bool {
	if err == nil {
		return false
	}

	if ce, ok := err.(*errors.Error); ok {
		return ce.Recoverable
	}

	return true
}
