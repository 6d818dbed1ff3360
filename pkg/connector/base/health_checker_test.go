package base

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestHealthCheckerFailureStreak(t *testing.T) {
	hc := NewHealthChecker("rickmorty", 3, zaptest.NewLogger(t))
	assert.False(t, hc.IsUnhealthy())
	assert.Equal(t, "healthy", hc.GetStatus().Status)

	hc.RecordFailure(fmt.Errorf("timeout"))
	assert.False(t, hc.IsUnhealthy())
	assert.Equal(t, "degraded", hc.GetStatus().Status)

	hc.RecordFailure(fmt.Errorf("timeout"))
	assert.False(t, hc.IsUnhealthy())

	hc.RecordFailure(fmt.Errorf("reset"))
	assert.True(t, hc.IsUnhealthy())
	status := hc.GetStatus()
	assert.Equal(t, "unhealthy", status.Status)
	assert.Equal(t, 3, status.Details["consecutive_failures"])
	assert.Equal(t, "reset", status.Details["last_error"])

	hc.RecordSuccess()
	assert.False(t, hc.IsUnhealthy())
	assert.Equal(t, "healthy", hc.GetStatus().Status)
	assert.NotContains(t, hc.GetStatus().Details, "last_error")
	assert.Equal(t, int64(3), hc.FailureCount())
}

func TestHealthCheckerSuccessBreaksStreak(t *testing.T) {
	hc := NewHealthChecker("rickmorty", 2, nil)

	hc.RecordFailure(fmt.Errorf("boom"))
	hc.RecordSuccess()
	hc.RecordFailure(fmt.Errorf("boom"))
	assert.False(t, hc.IsUnhealthy(), "failures must be consecutive")

	hc.RecordFailure(fmt.Errorf("boom"))
	assert.True(t, hc.IsUnhealthy())
}
