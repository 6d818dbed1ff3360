// Package metrics exposes Prometheus metrics for syncs: pages fetched,
// records emitted, request latency, connection checks and destination writes.
//
// # Basic Usage
//
//	metrics.PagesFetched.WithLabelValues("rickmorty", "characters", "success").Inc()
//
//	timer := metrics.NewTimer()
//	resp, err := client.Do(req)
//	metrics.RequestLatency.WithLabelValues("rickmorty", "characters").Observe(timer.Stop().Seconds())
//
// Metrics register with the default registry through promauto, so Handler
// serves everything the process recorded.
package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rickmorty"

var (
	// PagesFetched counts page requests by outcome.
	// Labels: source, stream, status (success/failure)
	PagesFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_fetched_total",
			Help:      "Total number of pages requested from the API",
		},
		[]string{"source", "stream", "status"},
	)

	// RecordsEmitted counts records yielded by a stream.
	RecordsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_emitted_total",
			Help:      "Total number of records emitted by sources",
		},
		[]string{"source", "stream"},
	)

	// RequestLatency tracks page request latency in seconds.
	RequestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Latency of page requests",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"source", "stream"},
	)

	// ConnectionChecks counts connection checks by result.
	// Labels: source, result (ok/permission/http/unknown)
	ConnectionChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connection_checks_total",
			Help:      "Total number of connection checks",
		},
		[]string{"source", "result"},
	)

	// DestinationWrites counts records written by destinations.
	// Labels: destination, status (success/failure)
	DestinationWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "destination_records_total",
			Help:      "Total number of records handled by destinations",
		},
		[]string{"destination", "status"},
	)

	// ActiveSyncs tracks the number of running syncs.
	ActiveSyncs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_syncs",
			Help:      "Number of syncs currently running",
		},
	)
)

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer measures elapsed time for a single operation.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop returns the elapsed duration.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// Collector accumulates per-run totals alongside the Prometheus series so a
// component can report a summary when it finishes.
type Collector struct {
	name      string
	counters  map[string]*int64
	startTime time.Time
	mu        sync.RWMutex
}

// NewCollector creates a collector for a named component.
func NewCollector(name string) *Collector {
	return &Collector{
		name:      name,
		counters:  make(map[string]*int64),
		startTime: time.Now(),
	}
}

// Add increments a named counter.
func (c *Collector) Add(name string, delta int64) {
	c.mu.RLock()
	ctr, ok := c.counters[name]
	c.mu.RUnlock()
	if !ok {
		c.mu.Lock()
		if ctr, ok = c.counters[name]; !ok {
			ctr = new(int64)
			c.counters[name] = ctr
		}
		c.mu.Unlock()
	}
	atomic.AddInt64(ctr, delta)
}

// Get returns the current value of a named counter.
func (c *Collector) Get(name string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if ctr, ok := c.counters[name]; ok {
		return atomic.LoadInt64(ctr)
	}
	return 0
}

// GetAll returns all current counter values plus component and uptime.
func (c *Collector) GetAll() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := map[string]interface{}{
		"component": c.name,
		"uptime":    time.Since(c.startTime).Seconds(),
	}
	for k, v := range c.counters {
		out[k] = atomic.LoadInt64(v)
	}
	return out
}

// StartTime returns when the collector was created
func (c *Collector) StartTime() time.Time {
	return c.startTime
}
