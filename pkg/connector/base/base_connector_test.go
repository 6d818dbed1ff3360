package base

import (
	"context"
	"fmt"
	"testing"

	"github.com/ajitpratap0/nebula-rickmorty/pkg/config"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/core"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseConnectorLifecycle(t *testing.T) {
	bc := NewBaseConnector("rickmorty", core.ConnectorTypeSource, "1.0.0")
	assert.Equal(t, "rickmorty", bc.Name())
	assert.Equal(t, core.ConnectorTypeSource, bc.Type())
	assert.Equal(t, "1.0.0", bc.Version())

	ctx := context.Background()
	require.NoError(t, bc.Initialize(ctx, config.NewBaseConfig("rickmorty", "source")))
	assert.NoError(t, bc.Health(ctx))
	assert.NoError(t, bc.GetContext().Err())

	require.NoError(t, bc.Close(ctx))
	require.NoError(t, bc.Close(ctx))
	assert.Error(t, bc.Health(ctx))
	assert.ErrorIs(t, bc.GetContext().Err(), context.Canceled)

	// reusable after close
	require.NoError(t, bc.Initialize(ctx, config.NewBaseConfig("rickmorty", "source")))
	assert.NoError(t, bc.Health(ctx))
}

func TestBaseConnectorInitializeValidates(t *testing.T) {
	bc := NewBaseConnector("rickmorty", core.ConnectorTypeSource, "1.0.0")

	err := bc.Initialize(context.Background(), nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	cfg := config.NewBaseConfig("rickmorty", "source")
	cfg.Performance.BatchSize = 0
	err = bc.Initialize(context.Background(), cfg)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestBaseConnectorHealthTracking(t *testing.T) {
	bc := NewBaseConnector("rickmorty", core.ConnectorTypeSource, "1.0.0")
	ctx := context.Background()
	require.NoError(t, bc.Initialize(ctx, config.NewBaseConfig("rickmorty", "source")))

	bc.RecordFailure(fmt.Errorf("boom"))
	assert.NoError(t, bc.Health(ctx), "a single failure only degrades")
	bc.RecordFailure(fmt.Errorf("boom"))
	bc.RecordFailure(fmt.Errorf("boom"))
	assert.Error(t, bc.Health(ctx))

	bc.RecordSuccess()
	assert.NoError(t, bc.Health(ctx))

	m := bc.Metrics()
	assert.Equal(t, "rickmorty", m["name"])
	assert.Equal(t, "healthy", m["health_status"])
	assert.Equal(t, int64(3), m["health_failure_count"])
	assert.Equal(t, int64(3), m["errors"])
}

func TestProgressReporter(t *testing.T) {
	bc := NewBaseConnector("rickmorty", core.ConnectorTypeSource, "1.0.0")
	pr := bc.Progress()

	pr.IncrementProcessed(20)
	pr.IncrementProcessed(5)
	pr.ReportError(nil)

	processed, total := pr.GetProgress()
	assert.Equal(t, int64(25), processed)
	assert.Zero(t, total)

	pr.ReportProgress(10, 40)
	snap := pr.GetSnapshot()
	assert.Equal(t, int64(10), snap.ProcessedRecords)
	assert.InDelta(t, 25.0, snap.Percentage, 0.001)
	assert.Zero(t, snap.Errors)
	pr.ReportComplete()

	pr.Reset()
	processed, total = pr.GetProgress()
	assert.Zero(t, processed)
	assert.Zero(t, total)

	var _ core.ProgressReporter = pr
}
