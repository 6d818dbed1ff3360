// Package pipeline connects a source to a destination, optionally passing
// records through transforms on the way.
//
// # Basic Usage
//
//	p := pipeline.NewSimplePipeline(source, destination, pipeline.DefaultPipelineConfig(), logger)
//	p.AddTransform(pipeline.FieldMapperTransform(map[string]string{"name": "full_name"}))
//	err := p.Run(ctx)
//
// The source and destination must already be initialized. Run returns the
// first source or destination error; records read before a source failure
// are still delivered to the destination.
package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/core"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/errors"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/pool"
	"go.uber.org/zap"
)

// SimplePipeline moves records from one source to one destination.
type SimplePipeline struct {
	source      core.Source
	destination core.Destination
	transforms  []Transform

	bufferSize  int
	workerCount int

	recordsRead      int64
	recordsProcessed int64
	recordsFiltered  int64
	recordsFailed    int64
	startTime        time.Time
	duration         time.Duration

	logger *zap.Logger
	mu     sync.Mutex
	cancel context.CancelFunc
}

// Transform modifies a record in flight. Returning a nil record drops it.
type Transform func(ctx context.Context, record *pool.Record) (*pool.Record, error)

// PipelineConfig controls channel sizes and transform parallelism.
type PipelineConfig struct {
	BufferSize  int // capacity of the channel feeding the destination
	WorkerCount int // transform workers; more than one may reorder records
}

// DefaultPipelineConfig returns a config that preserves source order.
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		BufferSize:  1000,
		WorkerCount: 1,
	}
}

// NewSimplePipeline creates a pipeline. Call Run to start it.
func NewSimplePipeline(source core.Source, destination core.Destination, config *PipelineConfig, logger *zap.Logger) *SimplePipeline {
	if config == nil {
		config = DefaultPipelineConfig()
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 1
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SimplePipeline{
		source:      source,
		destination: destination,
		bufferSize:  config.BufferSize,
		workerCount: config.WorkerCount,
		logger:      logger,
	}
}

// AddTransform appends a transform. Transforms run in the order added.
func (p *SimplePipeline) AddTransform(transform Transform) {
	p.transforms = append(p.transforms, transform)
}

// Run streams the source into the destination and blocks until the
// destination returns.
func (p *SimplePipeline) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.cancel = cancel
	p.startTime = time.Now()
	p.mu.Unlock()
	defer cancel()

	p.logger.Info("starting pipeline",
		zap.String("source", p.source.Name()),
		zap.String("destination", p.destination.Name()),
		zap.Int("worker_count", p.workerCount),
		zap.Int("transforms", len(p.transforms)))

	in, err := p.source.Read(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to start source read")
	}

	records := make(chan *pool.Record, p.bufferSize)
	errs := make(chan error, 1)
	go p.forward(ctx, in, records, errs)

	writeErr := p.destination.Write(ctx, &core.RecordStream{Records: records, Errors: errs})

	// unblock forward if the destination stopped early
	cancel()
	for rec := range records {
		rec.Release()
	}

	p.mu.Lock()
	p.duration = time.Since(p.startTime)
	p.mu.Unlock()

	fields := []zap.Field{
		zap.Int64("records_read", atomic.LoadInt64(&p.recordsRead)),
		zap.Int64("records_processed", atomic.LoadInt64(&p.recordsProcessed)),
		zap.Int64("records_filtered", atomic.LoadInt64(&p.recordsFiltered)),
		zap.Int64("records_failed", atomic.LoadInt64(&p.recordsFailed)),
		zap.Duration("duration", p.duration),
	}
	if writeErr != nil {
		p.logger.Error("pipeline failed", append(fields, zap.Error(writeErr))...)
		return writeErr
	}
	p.logger.Info("pipeline completed", fields...)
	return nil
}

// forward copies the source stream through the transform workers into
// out. A source error is sent on errs only after every record before it
// has been handed on.
func (p *SimplePipeline) forward(ctx context.Context, in *core.RecordStream, out chan<- *pool.Record, errs chan<- error) {
	defer close(errs)

	var sourceErr error
	var errMu sync.Mutex
	stage := make(chan *pool.Record, p.workerCount)

	go func() {
		defer close(stage)
		sourceRecords, sourceErrs := in.Records, in.Errors
		for sourceRecords != nil {
			select {
			case rec, ok := <-sourceRecords:
				if !ok {
					sourceRecords = nil
					continue
				}
				atomic.AddInt64(&p.recordsRead, 1)
				select {
				case stage <- rec:
				case <-ctx.Done():
					rec.Release()
					return
				}
			case err, ok := <-sourceErrs:
				if !ok {
					sourceErrs = nil
					continue
				}
				errMu.Lock()
				if sourceErr == nil {
					sourceErr = err
				}
				errMu.Unlock()
			case <-ctx.Done():
				return
			}
		}
		if sourceErrs != nil {
			select {
			case err, ok := <-sourceErrs:
				if ok && err != nil {
					errMu.Lock()
					if sourceErr == nil {
						sourceErr = err
					}
					errMu.Unlock()
				}
			case <-ctx.Done():
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < p.workerCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			p.transformWorker(ctx, id, stage, out)
		}(i)
	}
	wg.Wait()
	close(out)

	errMu.Lock()
	defer errMu.Unlock()
	if sourceErr != nil {
		errs <- sourceErr
	}
}

func (p *SimplePipeline) transformWorker(ctx context.Context, id int, in <-chan *pool.Record, out chan<- *pool.Record) {
	logger := p.logger.With(zap.Int("worker", id))

	for rec := range in {
		transformed, err := p.apply(ctx, rec)
		if err != nil {
			atomic.AddInt64(&p.recordsFailed, 1)
			logger.Warn("transform failed, dropping record", zap.String("record_id", rec.ID), zap.Error(err))
			rec.Release()
			continue
		}
		if transformed == nil {
			atomic.AddInt64(&p.recordsFiltered, 1)
			rec.Release()
			continue
		}

		select {
		case out <- transformed:
			atomic.AddInt64(&p.recordsProcessed, 1)
		case <-ctx.Done():
			transformed.Release()
			// drain so the reader goroutine can exit
			for r := range in {
				r.Release()
			}
			return
		}
	}
}

func (p *SimplePipeline) apply(ctx context.Context, rec *pool.Record) (*pool.Record, error) {
	current := rec
	for i, transform := range p.transforms {
		next, err := transform(ctx, current)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "transform failed").WithDetail("transform", i)
		}
		if next == nil {
			return nil, nil
		}
		current = next
	}
	return current, nil
}

// Stop cancels a running pipeline
func (p *SimplePipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.logger.Info("stopping pipeline")
		p.cancel()
	}
}

// Metrics returns pipeline counters
func (p *SimplePipeline) Metrics() map[string]interface{} {
	p.mu.Lock()
	duration := p.duration
	if duration == 0 && !p.startTime.IsZero() {
		duration = time.Since(p.startTime)
	}
	p.mu.Unlock()

	processed := atomic.LoadInt64(&p.recordsProcessed)
	throughput := 0.0
	if duration > 0 {
		throughput = float64(processed) / duration.Seconds()
	}

	return map[string]interface{}{
		"records_read":      atomic.LoadInt64(&p.recordsRead),
		"records_processed": processed,
		"records_filtered":  atomic.LoadInt64(&p.recordsFiltered),
		"records_failed":    atomic.LoadInt64(&p.recordsFailed),
		"duration":          duration.String(),
		"throughput_rps":    throughput,
		"worker_count":      p.workerCount,
		"transform_count":   len(p.transforms),
	}
}
