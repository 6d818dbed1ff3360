package clients

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter defines the interface for rate limiting implementations.
type RateLimiter interface {
	// Allow checks if a request is allowed
	Allow() bool

	// Wait blocks until a request is allowed
	Wait(ctx context.Context) error

	// SetRate updates the rate limit
	SetRate(rate float64)

	// SetBurst updates the burst size
	SetBurst(burst int)

	// GetStats returns rate limiter statistics
	GetStats() RateLimiterStats
}

// RateLimiterStats provides statistics about rate limiter usage.
type RateLimiterStats struct {
	Rate            float64       `json:"rate"`
	Burst           int           `json:"burst"`
	AllowedRequests int64         `json:"allowed_requests"`
	BlockedRequests int64         `json:"blocked_requests"`
	AverageWaitTime time.Duration `json:"average_wait_time"`
}

// TokenBucketRateLimiter implements the token bucket algorithm on top of
// golang.org/x/time/rate.
type TokenBucketRateLimiter struct {
	limiter *rate.Limiter

	allowedRequests int64
	blockedRequests int64
	totalWaitTime   int64
}

// NewTokenBucketRateLimiter creates a token bucket rate limiter with the
// given rate (tokens per second) and burst capacity.
func NewTokenBucketRateLimiter(r float64, burst int) *TokenBucketRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &TokenBucketRateLimiter{
		limiter: rate.NewLimiter(rate.Limit(r), burst),
	}
}

// Allow checks if a request is allowed immediately.
func (tb *TokenBucketRateLimiter) Allow() bool {
	if tb.limiter.Allow() {
		atomic.AddInt64(&tb.allowedRequests, 1)
		return true
	}
	atomic.AddInt64(&tb.blockedRequests, 1)
	return false
}

// Wait blocks until a request is allowed or ctx is done.
func (tb *TokenBucketRateLimiter) Wait(ctx context.Context) error {
	start := time.Now()
	if err := tb.limiter.Wait(ctx); err != nil {
		atomic.AddInt64(&tb.blockedRequests, 1)
		return err
	}
	atomic.AddInt64(&tb.allowedRequests, 1)
	atomic.AddInt64(&tb.totalWaitTime, time.Since(start).Nanoseconds())
	return nil
}

// SetRate updates the rate limit
func (tb *TokenBucketRateLimiter) SetRate(r float64) {
	tb.limiter.SetLimit(rate.Limit(r))
}

// SetBurst updates the burst size
func (tb *TokenBucketRateLimiter) SetBurst(burst int) {
	tb.limiter.SetBurst(burst)
}

// GetStats returns rate limiter statistics
func (tb *TokenBucketRateLimiter) GetStats() RateLimiterStats {
	allowed := atomic.LoadInt64(&tb.allowedRequests)
	totalWait := atomic.LoadInt64(&tb.totalWaitTime)

	avgWait := time.Duration(0)
	if allowed > 0 {
		avgWait = time.Duration(totalWait / allowed)
	}

	return RateLimiterStats{
		Rate:            float64(tb.limiter.Limit()),
		Burst:           tb.limiter.Burst(),
		AllowedRequests: allowed,
		BlockedRequests: atomic.LoadInt64(&tb.blockedRequests),
		AverageWaitTime: avgWait,
	}
}
