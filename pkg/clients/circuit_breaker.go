package clients

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// errServerStatus marks a 5xx response as a breaker failure.
var errServerStatus = stderrors.New("server error status")

// CircuitBreakerConfig is the configuration for circuit breaker
type CircuitBreakerConfig struct {
	Name             string
	FailureThreshold int           // Consecutive failures before opening
	SuccessThreshold int           // Requests allowed while half-open
	Timeout          time.Duration // Open duration before probing again
}

// CircuitBreaker guards an upstream with a gobreaker state machine.
type CircuitBreaker struct {
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

// CircuitBreakerState describes the breaker for stats and logs.
type CircuitBreakerState struct {
	State                string `json:"state"`
	Requests             uint32 `json:"requests"`
	TotalFailures        uint32 `json:"total_failures"`
	ConsecutiveFailures  uint32 `json:"consecutive_failures"`
	ConsecutiveSuccesses uint32 `json:"consecutive_successes"`
}

// NewCircuitBreaker creates a circuit breaker that opens after
// FailureThreshold consecutive failures.
func NewCircuitBreaker(cfg CircuitBreakerConfig, logger *zap.Logger) *CircuitBreaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 1
	}
	if cfg.Name == "" {
		cfg.Name = "default"
	}

	b := &CircuitBreaker{logger: logger.With(zap.String("component", "circuit_breaker"))}
	threshold := uint32(cfg.FailureThreshold)
	b.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: uint32(cfg.SuccessThreshold),
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.logger.Warn("circuit breaker state change",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return b
}

// Execute runs fn with circuit breaker protection.
func (b *CircuitBreaker) Execute(fn func() error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}

// ExecuteHTTP runs an HTTP round trip. Transport errors and 5xx responses
// count as failures; a 5xx response is still returned alongside the error.
func (b *CircuitBreaker) ExecuteHTTP(fn func() (*http.Response, error)) (*http.Response, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		resp, err := fn()
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			return resp, fmt.Errorf("%w: %d", errServerStatus, resp.StatusCode)
		}
		return resp, nil
	})
	resp, _ := out.(*http.Response)
	return resp, err
}

// GetState returns the current breaker state and counts.
func (b *CircuitBreaker) GetState() CircuitBreakerState {
	counts := b.cb.Counts()
	return CircuitBreakerState{
		State:                b.cb.State().String(),
		Requests:             counts.Requests,
		TotalFailures:        counts.TotalFailures,
		ConsecutiveFailures:  counts.ConsecutiveFailures,
		ConsecutiveSuccesses: counts.ConsecutiveSuccesses,
	}
}

// IsCircuitOpen reports whether err was produced by an open or saturated breaker.
func IsCircuitOpen(err error) bool {
	return stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests)
}
