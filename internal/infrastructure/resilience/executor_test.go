package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testExecutor() *Executor {
	return NewExecutor(BreakerConfig{Enabled: false})
}

func retryPolicy(attempts int) StepPolicy {
	return StepPolicy{
		Retryable:      true,
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestExecuteRetriesUntilSuccess(t *testing.T) {
	exec := testExecutor()

	calls := 0
	err := exec.Execute(context.Background(), "op", retryPolicy(3), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("boom")
		}
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestExecuteStopsAtMaxAttempts(t *testing.T) {
	exec := testExecutor()

	calls := 0
	wantErr := errors.New("persistent")
	err := exec.Execute(context.Background(), "op", retryPolicy(3), func(context.Context) error {
		calls++
		return wantErr
	}, nil)
	if !errors.Is(err, wantErr) {
		t.Fatalf("Execute() error = %v, want %v", err, wantErr)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestFailFastPolicyRunsOnce(t *testing.T) {
	exec := testExecutor()

	calls := 0
	err := exec.Execute(context.Background(), "op", FailFast(), func(context.Context) error {
		calls++
		return errors.New("boom")
	}, nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected single attempt, got %d", calls)
	}
}

func TestClassifierVetoesRetry(t *testing.T) {
	exec := testExecutor()

	calls := 0
	err := exec.Execute(context.Background(), "op", retryPolicy(5), func(context.Context) error {
		calls++
		return errors.New("bad input")
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: false}
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected classifier to stop retries, got %d attempts", calls)
	}
}

func TestExecuteHonorsContextCancellation(t *testing.T) {
	exec := testExecutor()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := exec.Execute(ctx, "op", retryPolicy(5), func(context.Context) error {
		calls++
		cancel()
		return errors.New("boom")
	}, nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected cancellation to stop retries, got %d attempts", calls)
	}
}

func TestBreakerOpensAfterFailureRatio(t *testing.T) {
	exec := NewExecutor(BreakerConfig{
		Enabled:      true,
		MinRequests:  3,
		FailureRatio: 0.5,
		OpenTimeout:  time.Minute,
	})

	for i := 0; i < 3; i++ {
		_ = exec.Execute(context.Background(), "flaky", FailFast(), func(context.Context) error {
			return errors.New("boom")
		}, nil)
	}

	err := exec.Execute(context.Background(), "flaky", FailFast(), func(context.Context) error {
		return nil
	}, nil)
	if !IsCircuitOpen(err) {
		t.Fatalf("expected open circuit, got %v", err)
	}
}
