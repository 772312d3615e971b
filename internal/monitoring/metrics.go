package monitoring

import (
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const maxResponseSamples = 1000

// Metrics holds in-process service counters
type Metrics struct {
	RequestCount        int64
	ErrorCount          int64
	CacheHits           int64
	CacheMisses         int64
	HealthComputations  int64
	StoreErrors         int64
	AverageResponseTime int64 // nanoseconds
	StartTime           time.Time

	RateLimitBlocks      int64
	RateLimitRedisErrors int64
	RateLimitFallbacks   int64

	responseTimes   []time.Duration
	responseTimesMu sync.RWMutex

	requestsByStatus map[int]int64
	healthByStatus   map[string]int64
	countsMu         sync.RWMutex
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime:        time.Now(),
		responseTimes:    make([]time.Duration, 0, maxResponseSamples),
		requestsByStatus: make(map[int]int64),
		healthByStatus:   make(map[string]int64),
	}
}

// IncrementRequest increments the request count
func (m *Metrics) IncrementRequest() {
	atomic.AddInt64(&m.RequestCount, 1)
}

// IncrementError increments the error count
func (m *Metrics) IncrementError() {
	atomic.AddInt64(&m.ErrorCount, 1)
}

// IncrementCacheHit increments cache hit count
func (m *Metrics) IncrementCacheHit() {
	atomic.AddInt64(&m.CacheHits, 1)
}

// IncrementCacheMiss increments cache miss count
func (m *Metrics) IncrementCacheMiss() {
	atomic.AddInt64(&m.CacheMisses, 1)
}

// IncrementStoreError counts a failed score store call
func (m *Metrics) IncrementStoreError() {
	atomic.AddInt64(&m.StoreErrors, 1)
}

// IncrementRateLimitBlock counts a rejected request
func (m *Metrics) IncrementRateLimitBlock() {
	atomic.AddInt64(&m.RateLimitBlocks, 1)
}

// IncrementRateLimitRedisError counts a failed Redis limiter call
func (m *Metrics) IncrementRateLimitRedisError() {
	atomic.AddInt64(&m.RateLimitRedisErrors, 1)
}

// IncrementRateLimitFallback counts a decision made by the in-memory limiter
func (m *Metrics) IncrementRateLimitFallback() {
	atomic.AddInt64(&m.RateLimitFallbacks, 1)
}

// RecordHealthComputation counts a computed score by its status
func (m *Metrics) RecordHealthComputation(status string) {
	atomic.AddInt64(&m.HealthComputations, 1)

	m.countsMu.Lock()
	m.healthByStatus[status]++
	m.countsMu.Unlock()
}

// RecordResponseTime records a response time for averaging and percentiles
func (m *Metrics) RecordResponseTime(duration time.Duration) {
	current := atomic.LoadInt64(&m.AverageResponseTime)
	atomic.StoreInt64(&m.AverageResponseTime, (current+duration.Nanoseconds())/2)

	m.responseTimesMu.Lock()
	m.responseTimes = append(m.responseTimes, duration)
	if len(m.responseTimes) > maxResponseSamples {
		m.responseTimes = m.responseTimes[1:]
	}
	m.responseTimesMu.Unlock()
}

// RecordRequestByStatus records request count by HTTP status code
func (m *Metrics) RecordRequestByStatus(statusCode int) {
	m.countsMu.Lock()
	defer m.countsMu.Unlock()
	m.requestsByStatus[statusCode]++
}

// GetPercentileResponseTime calculates a percentile over the recent samples
func (m *Metrics) GetPercentileResponseTime(percentile float64) time.Duration {
	m.responseTimesMu.RLock()
	times := make([]time.Duration, len(m.responseTimes))
	copy(times, m.responseTimes)
	m.responseTimesMu.RUnlock()

	if len(times) == 0 {
		return 0
	}

	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	index := int(float64(len(times)-1) * percentile / 100.0)
	if index >= len(times) {
		index = len(times) - 1
	}
	return times[index]
}

// GetStatusCodeDistribution returns request count by status code
func (m *Metrics) GetStatusCodeDistribution() map[int]int64 {
	m.countsMu.RLock()
	defer m.countsMu.RUnlock()

	out := make(map[int]int64, len(m.requestsByStatus))
	for code, count := range m.requestsByStatus {
		out[code] = count
	}
	return out
}

// GetHealthStatusDistribution returns computed scores by health status
func (m *Metrics) GetHealthStatusDistribution() map[string]int64 {
	m.countsMu.RLock()
	defer m.countsMu.RUnlock()

	out := make(map[string]int64, len(m.healthByStatus))
	for status, count := range m.healthByStatus {
		out[status] = count
	}
	return out
}

// GetStats returns a snapshot of every metric
func (m *Metrics) GetStats() map[string]interface{} {
	requests := atomic.LoadInt64(&m.RequestCount)
	errors := atomic.LoadInt64(&m.ErrorCount)
	cacheHits := atomic.LoadInt64(&m.CacheHits)
	cacheMisses := atomic.LoadInt64(&m.CacheMisses)

	errorRate := float64(0)
	if requests > 0 {
		errorRate = float64(errors) / float64(requests) * 100
	}

	cacheHitRate := float64(0)
	if total := cacheHits + cacheMisses; total > 0 {
		cacheHitRate = float64(cacheHits) / float64(total) * 100
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return map[string]interface{}{
		"uptime_seconds":         time.Since(m.StartTime).Seconds(),
		"start_time":             m.StartTime.Format(time.RFC3339),
		"total_requests":         requests,
		"error_count":            errors,
		"error_rate_percent":     errorRate,
		"cache_hits":             cacheHits,
		"cache_misses":           cacheMisses,
		"cache_hit_rate_percent": cacheHitRate,
		"avg_response_time_ms":   float64(atomic.LoadInt64(&m.AverageResponseTime)) / 1e6,
		"p50_response_time_ms":   float64(m.GetPercentileResponseTime(50)) / 1e6,
		"p95_response_time_ms":   float64(m.GetPercentileResponseTime(95)) / 1e6,
		"p99_response_time_ms":   float64(m.GetPercentileResponseTime(99)) / 1e6,

		"status_code_distribution":   m.GetStatusCodeDistribution(),
		"health_computations":        atomic.LoadInt64(&m.HealthComputations),
		"health_status_distribution": m.GetHealthStatusDistribution(),
		"store_errors":               atomic.LoadInt64(&m.StoreErrors),

		"rate_limit": map[string]interface{}{
			"blocks":       atomic.LoadInt64(&m.RateLimitBlocks),
			"redis_errors": atomic.LoadInt64(&m.RateLimitRedisErrors),
			"fallbacks":    atomic.LoadInt64(&m.RateLimitFallbacks),
		},

		"go_goroutines":       runtime.NumGoroutine(),
		"go_gc_count":         mem.NumGC,
		"go_heap_alloc_bytes": mem.HeapAlloc,
		"go_heap_sys_bytes":   mem.HeapSys,
	}
}

// Reset clears all metrics
func (m *Metrics) Reset() {
	for _, p := range []*int64{
		&m.RequestCount, &m.ErrorCount, &m.CacheHits, &m.CacheMisses,
		&m.HealthComputations, &m.StoreErrors, &m.AverageResponseTime,
		&m.RateLimitBlocks, &m.RateLimitRedisErrors, &m.RateLimitFallbacks,
	} {
		atomic.StoreInt64(p, 0)
	}

	m.responseTimesMu.Lock()
	m.responseTimes = m.responseTimes[:0]
	m.responseTimesMu.Unlock()

	m.countsMu.Lock()
	m.requestsByStatus = make(map[int]int64)
	m.healthByStatus = make(map[string]int64)
	m.countsMu.Unlock()

	m.StartTime = time.Now()
}
