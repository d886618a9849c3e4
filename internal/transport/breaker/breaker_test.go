package breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/coffeefinder/internal/metrics"
)

func TestBreaker_OpensAfterFailures(t *testing.T) {
	cb := New[int]("test-open", Settings{MinRequests: 2, FailureRatio: 0.5, Timeout: time.Hour}, zap.NewNop())
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		if _, err := cb.Execute(func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
			t.Fatalf("call %d: expected boom, got %v", i, err)
		}
	}

	_, err := cb.Execute(func() (int, error) { return 1, nil })
	if !IsRejected(err) {
		t.Fatalf("expected rejection once open, got %v", err)
	}
	if cb.State() != gobreaker.StateOpen {
		t.Errorf("state = %v, want open", cb.State())
	}
	if got := testutil.ToFloat64(metrics.CircuitBreakerState.WithLabelValues("test-open")); got != 2 {
		t.Errorf("circuit_breaker_state = %v, want 2", got)
	}
}

func TestBreaker_StaysClosedBelowMinRequests(t *testing.T) {
	cb := New[int]("test-closed", Settings{MinRequests: 10}, zap.NewNop())

	for i := 0; i < 5; i++ {
		_, _ = cb.Execute(func() (int, error) { return 0, errors.New("fail") })
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("state = %v, want closed", cb.State())
	}
}

func TestIsRejected(t *testing.T) {
	if IsRejected(errors.New("other")) {
		t.Error("plain error must not count as rejection")
	}
	if !IsRejected(gobreaker.ErrOpenState) || !IsRejected(gobreaker.ErrTooManyRequests) {
		t.Error("breaker errors must count as rejection")
	}
}
