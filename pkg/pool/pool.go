// Package pool provides object pooling for the records that flow from the
// source to destinations, plus a generic typed pool for other hot-path types.
//
// Example usage:
//
//	record := pool.GetRecord()
//	defer record.Release()
//
//	record.SetData("name", "Rick Sanchez")
package pool

import (
	"sync"
	"sync/atomic"
)

// Pool represents a generic object pool with type safety.
// It wraps sync.Pool with statistics tracking and an optional reset
// function. The pool is safe for concurrent use.
type Pool[T any] struct {
	pool  sync.Pool
	reset func(T)
	stats struct {
		allocated int64
		inUse     int64
		hits      int64
	}
}

// New creates a new typed pool with custom allocation and reset functions.
// The reset function, when non-nil, runs before an object goes back into
// the pool.
func New[T any](newFn func() T, reset func(T)) *Pool[T] {
	p := &Pool[T]{reset: reset}
	p.pool.New = func() interface{} {
		atomic.AddInt64(&p.stats.allocated, 1)
		return newFn()
	}
	return p
}

// Get retrieves an object from the pool, allocating when it is empty.
func (p *Pool[T]) Get() T {
	atomic.AddInt64(&p.stats.inUse, 1)
	obj := p.pool.Get().(T)
	atomic.AddInt64(&p.stats.hits, 1)
	return obj
}

// Put returns an object to the pool for reuse.
func (p *Pool[T]) Put(obj T) {
	if p.reset != nil {
		p.reset(obj)
	}
	atomic.AddInt64(&p.stats.inUse, -1)
	p.pool.Put(obj)
}

// Stats returns a snapshot of the pool counters.
func (p *Pool[T]) Stats() Stats {
	return Stats{
		Allocated: atomic.LoadInt64(&p.stats.allocated),
		InUse:     atomic.LoadInt64(&p.stats.inUse),
		Hits:      atomic.LoadInt64(&p.stats.hits),
	}
}

// Stats represents pool statistics for monitoring.
type Stats struct {
	// Allocated is the total number of objects created by the pool
	Allocated int64
	// InUse is the current number of objects checked out from the pool
	InUse int64
	// Hits is the number of Get calls served
	Hits int64
}

var (
	// MapPool pools map[string]interface{} values, cleared on return.
	MapPool = New(
		func() map[string]interface{} {
			return make(map[string]interface{}, 16)
		},
		func(m map[string]interface{}) {
			for k := range m {
				delete(m, k)
			}
		},
	)

	// BatchSlicePool pools record batches used by destinations.
	BatchSlicePool = New(
		func() []*Record {
			return make([]*Record, 0, 256)
		},
		func(s []*Record) {
			for i := range s {
				s[i] = nil
			}
		},
	)

	// IDBufferPool holds scratch buffers for ID generation.
	IDBufferPool = New(
		func() []byte {
			return make([]byte, 0, 64)
		},
		nil,
	)
)

// GetMap retrieves an empty map from the global pool.
func GetMap() map[string]interface{} {
	return MapPool.Get()
}

// PutMap returns a map to the global pool. The map is cleared first.
func PutMap(m map[string]interface{}) {
	if m != nil {
		MapPool.Put(m)
	}
}

// GetBatchSlice returns an empty batch with at least the requested capacity.
//
// Example:
//
//	batch := pool.GetBatchSlice(100)
//	defer pool.PutBatchSlice(batch)
func GetBatchSlice(capacity int) []*Record {
	batch := BatchSlicePool.Get()
	if cap(batch) < capacity {
		batch = make([]*Record, 0, capacity)
	}
	return batch[:0]
}

// PutBatchSlice returns a batch slice to the global pool.
func PutBatchSlice(batch []*Record) {
	if batch != nil {
		BatchSlicePool.Put(batch)
	}
}

// GetGlobalStats returns statistics for the global pools keyed by name.
func GetGlobalStats() map[string]Stats {
	return map[string]Stats{
		"record": RecordPool.Stats(),
		"map":    MapPool.Stats(),
		"batch":  BatchSlicePool.Stats(),
	}
}
