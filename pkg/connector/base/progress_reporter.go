package base

import (
	"sync/atomic"
	"time"

	"github.com/ajitpratap0/nebula-rickmorty/pkg/metrics"
	"go.uber.org/zap"
)

// ProgressReporter tracks record counts for a running sync and logs a
// summary when it completes. It implements core.ProgressReporter.
type ProgressReporter struct {
	logger           *zap.Logger
	metricsCollector *metrics.Collector

	totalRecords     int64
	processedRecords int64
	errorCount       int64
	startTime        atomic.Int64
}

// NewProgressReporter creates a new progress reporter
func NewProgressReporter(logger *zap.Logger, collector *metrics.Collector) *ProgressReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	pr := &ProgressReporter{
		logger:           logger,
		metricsCollector: collector,
	}
	pr.startTime.Store(time.Now().UnixNano())
	return pr
}

// Reset zeroes the counters and restarts the clock
func (pr *ProgressReporter) Reset() {
	atomic.StoreInt64(&pr.totalRecords, 0)
	atomic.StoreInt64(&pr.processedRecords, 0)
	atomic.StoreInt64(&pr.errorCount, 0)
	pr.startTime.Store(time.Now().UnixNano())
}

// ReportProgress updates the progress. A total of 0 means unknown.
func (pr *ProgressReporter) ReportProgress(processed, total int64) {
	atomic.StoreInt64(&pr.processedRecords, processed)
	if total > 0 {
		atomic.StoreInt64(&pr.totalRecords, total)
	}
}

// IncrementProcessed increments the processed count
func (pr *ProgressReporter) IncrementProcessed(count int64) {
	atomic.AddInt64(&pr.processedRecords, count)
	if pr.metricsCollector != nil {
		pr.metricsCollector.Add("records_processed", count)
	}
}

// ReportError counts a failure
func (pr *ProgressReporter) ReportError(err error) {
	if err == nil {
		return
	}
	atomic.AddInt64(&pr.errorCount, 1)
	if pr.metricsCollector != nil {
		pr.metricsCollector.Add("errors", 1)
	}
}

// ReportComplete logs the final summary
func (pr *ProgressReporter) ReportComplete() {
	snap := pr.GetSnapshot()
	fields := []zap.Field{
		zap.Int64("total_processed", snap.ProcessedRecords),
		zap.Int64("errors", snap.Errors),
		zap.Duration("total_time", snap.ElapsedTime),
		zap.Float64("avg_throughput", snap.Throughput),
	}
	if snap.TotalRecords > 0 {
		fields = append(fields,
			zap.Int64("expected_total", snap.TotalRecords),
			zap.Float64("completion_percentage", snap.Percentage))
	}
	pr.logger.Info("processing completed", fields...)
}

// GetProgress returns current progress
func (pr *ProgressReporter) GetProgress() (processed, total int64) {
	return atomic.LoadInt64(&pr.processedRecords), atomic.LoadInt64(&pr.totalRecords)
}

// GetElapsedTime returns time since start
func (pr *ProgressReporter) GetElapsedTime() time.Duration {
	return time.Since(time.Unix(0, pr.startTime.Load()))
}

// ProgressSnapshot represents a point-in-time progress snapshot
type ProgressSnapshot struct {
	Timestamp        time.Time
	ProcessedRecords int64
	TotalRecords     int64
	Errors           int64
	Percentage       float64
	Throughput       float64
	ElapsedTime      time.Duration
}

// GetSnapshot returns a progress snapshot
func (pr *ProgressReporter) GetSnapshot() *ProgressSnapshot {
	processed, total := pr.GetProgress()
	elapsed := pr.GetElapsedTime()

	snapshot := &ProgressSnapshot{
		Timestamp:        time.Now(),
		ProcessedRecords: processed,
		TotalRecords:     total,
		Errors:           atomic.LoadInt64(&pr.errorCount),
		ElapsedTime:      elapsed,
	}
	if elapsed > 0 {
		snapshot.Throughput = float64(processed) / elapsed.Seconds()
	}
	if total > 0 {
		snapshot.Percentage = float64(processed) / float64(total) * 100
	}
	return snapshot
}
