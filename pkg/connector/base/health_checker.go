package base

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/core"
	"go.uber.org/zap"
)

// HealthChecker tracks connector health from the outcome of its operations.
// One failure degrades it; maxFailures consecutive failures make it
// unhealthy; a success restores it.
type HealthChecker struct {
	name             string
	maxFailures      int
	status           *core.HealthStatus
	statusMutex      sync.RWMutex
	logger           *zap.Logger
	failureCount     int64
	consecutiveFails int
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(name string, maxFailures int, logger *zap.Logger) *HealthChecker {
	if maxFailures <= 0 {
		maxFailures = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthChecker{
		name:        name,
		maxFailures: maxFailures,
		status: &core.HealthStatus{
			Status:    "healthy",
			Timestamp: time.Now(),
			Details:   make(map[string]interface{}),
		},
		logger: logger.With(zap.String("component", "health_checker")),
	}
}

// RecordSuccess resets the failure streak
func (hc *HealthChecker) RecordSuccess() {
	hc.statusMutex.Lock()
	defer hc.statusMutex.Unlock()

	hc.consecutiveFails = 0
	hc.status.Status = "healthy"
	hc.status.Error = nil
	hc.status.Timestamp = time.Now()
	delete(hc.status.Details, "consecutive_failures")
	delete(hc.status.Details, "last_error")
}

// RecordFailure extends the failure streak
func (hc *HealthChecker) RecordFailure(err error) {
	atomic.AddInt64(&hc.failureCount, 1)

	hc.statusMutex.Lock()
	defer hc.statusMutex.Unlock()

	hc.consecutiveFails++
	if hc.consecutiveFails >= hc.maxFailures {
		hc.status.Status = "unhealthy"
	} else {
		hc.status.Status = "degraded"
	}
	hc.status.Error = err
	hc.status.Timestamp = time.Now()
	hc.status.Details["consecutive_failures"] = hc.consecutiveFails
	if err != nil {
		hc.status.Details["last_error"] = err.Error()
	}

	hc.logger.Warn("operation failed",
		zap.Error(err),
		zap.String("status", hc.status.Status),
		zap.Int("consecutive_failures", hc.consecutiveFails))
}

// GetStatus returns a copy of the current health status
func (hc *HealthChecker) GetStatus() *core.HealthStatus {
	hc.statusMutex.RLock()
	defer hc.statusMutex.RUnlock()

	statusCopy := &core.HealthStatus{
		Status:    hc.status.Status,
		Timestamp: hc.status.Timestamp,
		Details:   make(map[string]interface{}, len(hc.status.Details)),
		Error:     hc.status.Error,
	}
	for k, v := range hc.status.Details {
		statusCopy.Details[k] = v
	}
	return statusCopy
}

// FailureCount returns the total number of recorded failures
func (hc *HealthChecker) FailureCount() int64 {
	return atomic.LoadInt64(&hc.failureCount)
}

// IsUnhealthy reports whether the failure streak has reached maxFailures.
// A degraded checker is not unhealthy.
func (hc *HealthChecker) IsUnhealthy() bool {
	hc.statusMutex.RLock()
	defer hc.statusMutex.RUnlock()
	return hc.status.Status == "unhealthy"
}
