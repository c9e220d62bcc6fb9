package middleware

import (
	"testing"
	"time"
)

func TestCircuitOpensAfterFailureThreshold(t *testing.T) {
	cb := NewCircuitBreaker()
	cb.FailureThreshold = 3

	for i := 0; i < 2; i++ {
		cb.RecordFailure()
	}
	if cb.State() != CircuitClosed {
		t.Fatal("breaker should stay closed below the failure threshold")
	}

	cb.RecordFailure()
	if cb.State() != CircuitOpen {
		t.Error("breaker should open at the failure threshold")
	}
	if cb.Allow() {
		t.Error("open breaker should reject requests")
	}
}

func TestCircuitHalfOpensAfterTimeout(t *testing.T) {
	cb := NewCircuitBreaker()
	cb.FailureThreshold = 1
	cb.Timeout = 10 * time.Millisecond

	cb.RecordFailure()
	if cb.State() != CircuitOpen {
		t.Fatal("breaker should be open")
	}

	time.Sleep(20 * time.Millisecond)

	if !cb.Allow() {
		t.Fatal("breaker should allow a trial request after the timeout")
	}
	if cb.State() != CircuitHalfOpen {
		t.Errorf("expected half-open state, got %d", cb.State())
	}
}

func TestCircuitClosesAfterSuccesses(t *testing.T) {
	cb := NewCircuitBreaker()
	cb.FailureThreshold = 1
	cb.SuccessThreshold = 2
	cb.Timeout = 10 * time.Millisecond

	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)
	cb.Allow()

	cb.RecordSuccess()
	if cb.State() != CircuitHalfOpen {
		t.Fatal("breaker should need more successes before closing")
	}
	cb.RecordSuccess()
	if cb.State() != CircuitClosed {
		t.Error("breaker should close after the success threshold")
	}
}

func TestCircuitReopensOnHalfOpenFailure(t *testing.T) {
	cb := NewCircuitBreaker()
	cb.FailureThreshold = 1
	cb.Timeout = 10 * time.Millisecond

	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)
	cb.Allow()

	cb.RecordFailure()
	if cb.State() != CircuitOpen {
		t.Error("a failure in half-open should reopen the breaker")
	}
}
