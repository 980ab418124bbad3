// Package metrics keeps in-process latency statistics for API calls.
package metrics

import (
	"sort"
	"sync"
	"time"
)

// Latency summarizes the samples held by a Histogram
type Latency struct {
	Count   int64         `json:"count"`
	Average time.Duration `json:"average"`
	Min     time.Duration `json:"min"`
	Max     time.Duration `json:"max"`
	P50     time.Duration `json:"p50"`
	P90     time.Duration `json:"p90"`
	P95     time.Duration `json:"p95"`
	P99     time.Duration `json:"p99"`

	LastUpdated time.Time `json:"last_updated"`
}

// Histogram is a circular buffer of latency samples. Count, Average, Min and
// Max cover every sample; percentiles cover the most recent ones.
type Histogram struct {
	mu          sync.RWMutex
	samples     []time.Duration
	index       int
	count       int64
	total       time.Duration
	min         time.Duration
	max         time.Duration
	lastUpdated time.Time
}

// NewHistogram creates a histogram keeping sampleSize samples (1000 if <= 0)
func NewHistogram(sampleSize int) *Histogram {
	if sampleSize <= 0 {
		sampleSize = 1000
	}
	return &Histogram{samples: make([]time.Duration, sampleSize)}
}

// Add records one sample
func (h *Histogram) Add(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.samples[h.index] = d
	h.index = (h.index + 1) % len(h.samples)
	h.count++
	h.total += d
	if h.count == 1 || d < h.min {
		h.min = d
	}
	if d > h.max {
		h.max = d
	}
	h.lastUpdated = time.Now()
}

// Snapshot computes the current statistics
func (h *Histogram) Snapshot() Latency {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.count == 0 {
		return Latency{}
	}

	n := len(h.samples)
	if h.count < int64(n) {
		n = int(h.count)
	}
	sorted := make([]time.Duration, n)
	copy(sorted, h.samples[:n])
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return Latency{
		Count:       h.count,
		Average:     h.total / time.Duration(h.count),
		Min:         h.min,
		Max:         h.max,
		P50:         percentile(sorted, 50),
		P90:         percentile(sorted, 90),
		P95:         percentile(sorted, 95),
		P99:         percentile(sorted, 99),
		LastUpdated: h.lastUpdated,
	}
}

// percentile interpolates linearly between the closest ranks of sorted.
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	rank := float64(p) / 100 * float64(len(sorted)-1)
	lower := int(rank)
	if lower+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lower)
	return sorted[lower] + time.Duration(frac*float64(sorted[lower+1]-sorted[lower]))
}

// Reset drops every sample
func (h *Histogram) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clear(h.samples)
	h.index = 0
	h.count = 0
	h.total = 0
	h.min = 0
	h.max = 0
	h.lastUpdated = time.Time{}
}
