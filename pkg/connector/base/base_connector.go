// Package base provides the BaseConnector that connectors embed. It holds
// identity, configuration, logger, health state, an in-process metrics
// collector and a tracer, and implements the lifecycle half of
// core.Connector.
//
// # Usage
//
//	type MySource struct {
//	    *base.BaseConnector
//	    // connector-specific fields
//	}
//
//	func NewMySource() *MySource {
//	    return &MySource{
//	        BaseConnector: base.NewBaseConnector("my-source", core.ConnectorTypeSource, "1.0.0"),
//	    }
//	}
//
// # Lifecycle
//
// 1. Create with NewBaseConnector
// 2. Initialize with Initialize()
// 3. Use throughout connector operations
// 4. Close with Close()
package base

import (
	"context"
	"sync"
	"time"

	"github.com/ajitpratap0/nebula-rickmorty/pkg/config"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/core"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/errors"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/logger"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/metrics"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/observability"
	"go.uber.org/zap"
)

// BaseConnector provides common functionality for all connectors.
type BaseConnector struct {
	name          string
	connectorType core.ConnectorType
	version       string
	config        *config.BaseConfig
	logger        *zap.Logger

	ctx        context.Context
	cancel     context.CancelFunc
	closed     bool
	closeMutex sync.Mutex

	healthChecker    *HealthChecker
	metricsCollector *metrics.Collector
	tracer           *observability.ConnectorTracer
	progressReporter *ProgressReporter
}

// NewBaseConnector creates a base connector with the given identity.
func NewBaseConnector(name string, connectorType core.ConnectorType, version string) *BaseConnector {
	log := logger.Get().With(
		zap.String("connector", name),
		zap.String("connector_type", string(connectorType)))
	collector := metrics.NewCollector(name)
	return &BaseConnector{
		name:             name,
		connectorType:    connectorType,
		version:          version,
		logger:           log,
		healthChecker:    NewHealthChecker(name, 3, log),
		metricsCollector: collector,
		tracer:           observability.NewConnectorTracer(string(connectorType), name),
		progressReporter: NewProgressReporter(log, collector),
	}
}

// Initialize stores the configuration and derives the connector context.
// It can be called again after Close to reuse the connector.
func (bc *BaseConnector) Initialize(ctx context.Context, cfg *config.BaseConfig) error {
	if cfg == nil {
		return errors.New(errors.ErrorTypeConfig, "configuration is required")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "invalid configuration")
	}

	bc.closeMutex.Lock()
	defer bc.closeMutex.Unlock()

	bc.config = cfg
	bc.ctx, bc.cancel = context.WithCancel(ctx)
	bc.closed = false

	bc.logger.Info("connector initialized",
		zap.String("version", bc.version),
		zap.Int("batch_size", cfg.Performance.BatchSize))
	return nil
}

// Name returns the connector name
func (bc *BaseConnector) Name() string {
	return bc.name
}

// Type returns the connector type
func (bc *BaseConnector) Type() core.ConnectorType {
	return bc.connectorType
}

// Version returns the connector version
func (bc *BaseConnector) Version() string {
	return bc.version
}

// Health reports an error once the connector is closed or has seen
// repeated failures.
func (bc *BaseConnector) Health(_ context.Context) error {
	if bc.IsClosed() {
		return errors.New(errors.ErrorTypeConnection, "connector is closed")
	}

	if bc.healthChecker.IsUnhealthy() {
		if status := bc.healthChecker.GetStatus(); status.Error != nil {
			return errors.Wrap(status.Error, errors.ErrorTypeConnection, "connector is unhealthy")
		}
		return errors.New(errors.ErrorTypeConnection, "connector is unhealthy")
	}
	return nil
}

// Metrics returns current metrics
func (bc *BaseConnector) Metrics() map[string]interface{} {
	m := bc.metricsCollector.GetAll()

	m["name"] = bc.name
	m["type"] = bc.connectorType
	m["version"] = bc.version

	status := bc.healthChecker.GetStatus()
	m["health_status"] = status.Status
	m["health_failure_count"] = bc.healthChecker.FailureCount()

	processed, _ := bc.progressReporter.GetProgress()
	m["records_processed"] = processed
	m["uptime_seconds"] = bc.Uptime().Seconds()

	return m
}

// Close cancels the connector context. Closing twice is a no-op.
func (bc *BaseConnector) Close(_ context.Context) error {
	bc.closeMutex.Lock()
	defer bc.closeMutex.Unlock()

	if bc.closed {
		return nil
	}
	if bc.cancel != nil {
		bc.cancel()
	}
	bc.closed = true
	bc.logger.Info("connector closed", zap.Any("metrics", bc.metricsCollector.GetAll()))
	return nil
}

// IsClosed reports whether Close has been called since the last Initialize
func (bc *BaseConnector) IsClosed() bool {
	bc.closeMutex.Lock()
	defer bc.closeMutex.Unlock()
	return bc.closed
}

// RecordSuccess marks an operation as successful for health tracking
func (bc *BaseConnector) RecordSuccess() {
	bc.healthChecker.RecordSuccess()
}

// RecordFailure marks an operation as failed for health tracking
func (bc *BaseConnector) RecordFailure(err error) {
	bc.healthChecker.RecordFailure(err)
	bc.progressReporter.ReportError(err)
}

// Progress returns the connector's progress reporter
func (bc *BaseConnector) Progress() *ProgressReporter {
	return bc.progressReporter
}

// GetLogger returns the connector logger
func (bc *BaseConnector) GetLogger() *zap.Logger {
	return bc.logger
}

// GetContext returns the connector context, or context.Background before
// Initialize.
func (bc *BaseConnector) GetContext() context.Context {
	if bc.ctx == nil {
		return context.Background()
	}
	return bc.ctx
}

// GetTracer returns the connector tracer
func (bc *BaseConnector) GetTracer() *observability.ConnectorTracer {
	return bc.tracer
}

// Uptime returns the time since the connector was created
func (bc *BaseConnector) Uptime() time.Duration {
	return time.Since(bc.metricsCollector.StartTime())
}
