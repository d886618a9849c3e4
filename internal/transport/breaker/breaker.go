// Package breaker builds circuit breakers for external HTTP providers.
package breaker

import (
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/coffeefinder/internal/metrics"
)

// Settings tunes a breaker. Zero values fall back to defaults.
type Settings struct {
	// MinRequests is the number of requests in a window before the failure ratio is evaluated.
	MinRequests uint32
	// FailureRatio opens the circuit once reached.
	FailureRatio float64
	// Interval resets the closed-state counts.
	Interval time.Duration
	// Timeout is how long the circuit stays open before probing again.
	Timeout time.Duration
}

func (s Settings) withDefaults() Settings {
	if s.MinRequests == 0 {
		s.MinRequests = 5
	}
	if s.FailureRatio == 0 {
		s.FailureRatio = 0.6
	}
	if s.Interval == 0 {
		s.Interval = time.Minute
	}
	if s.Timeout == 0 {
		s.Timeout = 30 * time.Second
	}
	return s
}

// New creates a circuit breaker that reports its state to metrics.CircuitBreakerState.
func New[T any](name string, s Settings, logger *zap.Logger) *gobreaker.CircuitBreaker[T] {
	s = s.withDefaults()
	metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(gobreaker.StateClosed))

	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= s.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
}

// IsRejected reports whether err came from an open or saturated breaker rather than the call itself.
func IsRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
