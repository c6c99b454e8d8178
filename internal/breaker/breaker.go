// Package breaker wraps outbound source calls in a circuit breaker so a
// flapping source trips open instead of slowing every resolution pass.
package breaker

import (
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

type Guard struct {
	cb *gobreaker.CircuitBreaker
}

// New creates a guard for one named upstream source. The breaker trips when
// at least 5 calls in the rolling interval have a failure ratio of 60% or
// more, and probes again after 30 seconds.
func New(name string, logger *zap.Logger) *Guard {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("source breaker state changed",
				zap.String("source", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return &Guard{cb: cb}
}

// Do runs fn through the breaker. When the breaker is open, fn is not called
// and gobreaker.ErrOpenState is returned; callers treat that the same as any
// other source failure.
func Do[T any](g *Guard, fn func() (T, error)) (T, error) {
	v, err := g.cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
