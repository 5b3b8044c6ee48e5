// SPDX-License-Identifier: Apache-2.0
package resilience

import (
	"context"
	"time"

	"github.com/dmolins/convo/pkg/errors"
)

// TimeoutConfig controls timeout behavior.
type TimeoutConfig struct {
	// Duration is the maximum time allowed for the operation.
	Duration time.Duration
}

// WithTimeoutResult executes fn with a timeout boundary, returning both
// result and error. Returns errors.CodeTimeout if the deadline is exceeded.
func WithTimeoutResult[T any](ctx context.Context, config TimeoutConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if config.Duration == 0 {
		return fn(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, config.Duration)
	defer cancel()

	type result struct {
		value T
		err   error
	}

	done := make(chan result, 1)
	go func() {
		value, err := fn(ctx)
		done <- result{value, err}
	}()

	select {
	case <-ctx.Done():
		return zero, errors.New(errors.CodeTimeout, "operation exceeded timeout", ctx.Err()).
			WithContext("timeout", config.Duration.String()).
			WithRecoverable(true)
	case res := <-done:
		return res.value, res.err
	}
}
