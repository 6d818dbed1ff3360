package clients

import (
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPMetrics tracks request counts, status classes and a ring of recent
// latencies for percentile reporting.
type HTTPMetrics struct {
	totalRequests  int64
	failedRequests int64

	latencySamples []time.Duration
	sampleIndex    int

	byStatus map[string]int64
	byHost   map[string]int64

	mu sync.RWMutex
}

const maxLatencySamples = 1000

// NewHTTPMetrics creates a new HTTP metrics tracker
func NewHTTPMetrics() *HTTPMetrics {
	return &HTTPMetrics{
		latencySamples: make([]time.Duration, 0, maxLatencySamples),
		byStatus:       make(map[string]int64),
		byHost:         make(map[string]int64),
	}
}

// RecordRequest records one request outcome. status is 0 when no response
// was received.
func (hm *HTTPMetrics) RecordRequest(method, host string, status int, latency time.Duration, err error) {
	atomic.AddInt64(&hm.totalRequests, 1)
	if err != nil {
		atomic.AddInt64(&hm.failedRequests, 1)
	}

	hm.mu.Lock()
	defer hm.mu.Unlock()

	hm.byStatus[statusClass(status)]++
	hm.byHost[method+" "+host]++

	if len(hm.latencySamples) < maxLatencySamples {
		hm.latencySamples = append(hm.latencySamples, latency)
	} else {
		hm.latencySamples[hm.sampleIndex] = latency
		hm.sampleIndex = (hm.sampleIndex + 1) % maxLatencySamples
	}
}

func statusClass(status int) string {
	if status == 0 {
		return "none"
	}
	return strconv.Itoa(status/100) + "xx"
}

// TotalRequests returns the number of recorded requests.
func (hm *HTTPMetrics) TotalRequests() int64 {
	return atomic.LoadInt64(&hm.totalRequests)
}

// StatusCounts returns request counts by status class ("2xx", "5xx", "none").
func (hm *HTTPMetrics) StatusCounts() map[string]int64 {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	out := make(map[string]int64, len(hm.byStatus))
	for k, v := range hm.byStatus {
		out[k] = v
	}
	return out
}

// GetAverageLatency returns the average latency of the recent samples
func (hm *HTTPMetrics) GetAverageLatency() time.Duration {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	if len(hm.latencySamples) == 0 {
		return 0
	}
	var total time.Duration
	for _, sample := range hm.latencySamples {
		total += sample
	}
	return total / time.Duration(len(hm.latencySamples))
}

// GetP95Latency returns the 95th percentile latency
func (hm *HTTPMetrics) GetP95Latency() time.Duration {
	return hm.getPercentileLatency(0.95)
}

func (hm *HTTPMetrics) getPercentileLatency(percentile float64) time.Duration {
	hm.mu.RLock()
	samples := make([]time.Duration, len(hm.latencySamples))
	copy(samples, hm.latencySamples)
	hm.mu.RUnlock()

	if len(samples) == 0 {
		return 0
	}

	sort.Slice(samples, func(i, j int) bool {
		return samples[i] < samples[j]
	})

	index := int(float64(len(samples)-1) * percentile)
	return samples[index]
}
