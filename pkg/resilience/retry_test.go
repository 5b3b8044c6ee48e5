// SPDX-License-Identifier: Apache-2.0
package resilience

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/dmolins/convo/pkg/errors"
)

func fastRetry(attempts int) RetryConfig {
	return DefaultRetryConfig().
		WithMaxAttempts(attempts).
		WithInitialDelay(time.Millisecond)
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := fastRetry(3).Do(context.Background(), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_RetriesRecoverable(t *testing.T) {
	calls := 0
	err := fastRetry(3).Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New(errors.CodeProvider, "transient", nil).WithRecoverable(true)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_StopsOnUnrecoverable(t *testing.T) {
	calls := 0
	unrecoverable := errors.New(errors.CodeProvider, "permanent", nil)
	err := fastRetry(5).Do(context.Background(), func() error {
		calls++
		return unrecoverable
	})
	if !stderrors.Is(err, unrecoverable) {
		t.Fatalf("expected the original error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := fastRetry(3).Do(context.Background(), func() error {
		calls++
		return stderrors.New("always failing")
	})
	if err == nil {
		t.Fatal("expected final error")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := DefaultRetryConfig().
		WithMaxAttempts(5).
		WithInitialDelay(time.Hour) // never elapses; cancellation must win

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- cfg.Do(ctx, func() error {
			calls++
			return stderrors.New("fail")
		})
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		var ce *errors.Error
		if !stderrors.As(err, &ce) || ce.Code != errors.CodeTimeout {
			t.Fatalf("expected TIMEOUT on cancellation, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Do did not return after cancellation")
	}
	if calls != 1 {
		t.Errorf("expected 1 call before cancellation, got %d", calls)
	}
}

func TestCalculateBackoff_CapsAtMaxDelay(t *testing.T) {
	cfg := RetryConfig{
		InitialDelay: time.Second,
		MaxDelay:     2 * time.Second,
		Multiplier:   2.0,
	}
	for attempt := 1; attempt < 10; attempt++ {
		if d := calculateBackoff(attempt, cfg); d > cfg.MaxDelay {
			t.Errorf("attempt %d: backoff %v exceeds max %v", attempt, d, cfg.MaxDelay)
		}
	}
}

func TestWithTimeoutResult_ReturnsValue(t *testing.T) {
	got, err := WithTimeoutResult(context.Background(), TimeoutConfig{Duration: time.Second},
		func(context.Context) (int, error) { return 42, nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Errorf("expected 42, got %d", got)
	}
}

func TestWithTimeoutResult_TimesOut(t *testing.T) {
	_, err := WithTimeoutResult(context.Background(), TimeoutConfig{Duration: 10 * time.Millisecond},
		func(ctx context.Context) (int, error) {
			select {
			case <-time.After(time.Second):
				return 1, nil
			case <-ctx.Done():
				return 0, ctx.Err()
			}
		})
	var ce *errors.Error
	if !stderrors.As(err, &ce) || ce.Code != errors.CodeTimeout {
		t.Fatalf("expected TIMEOUT, got %v", err)
	}
}
