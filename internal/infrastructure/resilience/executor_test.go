package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RetryInitialBackoff = time.Millisecond
	cfg.RetryMaxBackoff = 2 * time.Millisecond
	cfg.RetryJitter = 0
	cfg.BreakerOpenTimeout = 50 * time.Millisecond
	return cfg
}

type hintedError struct {
	wait time.Duration
}

func (e *hintedError) Error() string                     { return "rate limited" }
func (e *hintedError) RetryAfter() (time.Duration, bool) { return e.wait, true }

func TestExecuteRetriesRetryableErrors(t *testing.T) {
	exec := NewExecutor(testConfig())

	calls := 0
	err := exec.Execute(context.Background(), "test_op", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestExecuteDoesNotRetryPermanentErrors(t *testing.T) {
	exec := NewExecutor(testConfig())

	calls := 0
	wantErr := errors.New("permanent")
	err := exec.Execute(context.Background(), "test_op", func(context.Context) error {
		calls++
		return wantErr
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: true}
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Execute error = %v, want %v", err, wantErr)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestExecuteOpensCircuitAfterRepeatedFailures(t *testing.T) {
	cfg := testConfig()
	cfg.RetryMaxAttempts = 1
	cfg.BreakerMinRequests = 3
	exec := NewExecutor(cfg)

	classifier := func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: true}
	}

	for i := 0; i < 5; i++ {
		_ = exec.Execute(context.Background(), "flaky_op", func(context.Context) error {
			return errors.New("down")
		}, classifier)
	}

	err := exec.Execute(context.Background(), "flaky_op", func(context.Context) error {
		t.Fatal("callback should not run while circuit is open")
		return nil
	}, classifier)
	if !IsCircuitOpen(err) {
		t.Fatalf("expected open circuit, got %v", err)
	}
}

func TestExecuteHonorsRetryAfterHint(t *testing.T) {
	cfg := testConfig()
	cfg.RetryMaxAttempts = 2
	cfg.RetryMaxBackoff = 20 * time.Millisecond
	exec := NewExecutor(cfg)

	calls := 0
	var firstRetryAt time.Time
	start := time.Now()
	err := exec.Execute(context.Background(), "test_op", func(context.Context) error {
		calls++
		if calls == 1 {
			return &hintedError{wait: 10 * time.Millisecond}
		}
		firstRetryAt = time.Now()
		return nil
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
	// The hint replaces the 1ms initial backoff.
	if waited := firstRetryAt.Sub(start); waited < 10*time.Millisecond {
		t.Fatalf("retry fired after %v, want at least the 10ms hint", waited)
	}
}

func TestExecuteCapsRetryAfterHintAtMaxBackoff(t *testing.T) {
	cfg := testConfig()
	cfg.RetryMaxAttempts = 2
	cfg.RetryMaxBackoff = 5 * time.Millisecond
	exec := NewExecutor(cfg)

	calls := 0
	start := time.Now()
	err := exec.Execute(context.Background(), "test_op", func(context.Context) error {
		calls++
		if calls == 1 {
			return &hintedError{wait: time.Minute}
		}
		return nil
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("hint was not capped, waited %v", elapsed)
	}
}

func TestExecuteStopsOnContextCancel(t *testing.T) {
	exec := NewExecutor(testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := exec.Execute(ctx, "test_op", func(context.Context) error {
		calls++
		cancel()
		return errors.New("transient")
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	})
	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}
