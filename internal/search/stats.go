package search

import (
	"sort"
	"sync"
	"time"
)

type sample struct {
	timestamp time.Time
	duration  time.Duration
	hits      int
}

// LatencySnapshot aggregates the search calls inside the rolling window.
type LatencySnapshot struct {
	Count     int     `json:"count"`
	EmptyHits int     `json:"empty_hits"`
	MinMs     float64 `json:"min_ms"`
	MaxMs     float64 `json:"max_ms"`
	AvgMs     float64 `json:"avg_ms"`
	P50Ms     float64 `json:"p50_ms"`
	P95Ms     float64 `json:"p95_ms"`
	P99Ms     float64 `json:"p99_ms"`
}

// Latency tracks recent search call durations within a rolling window.
type Latency struct {
	mu      sync.Mutex
	samples []sample
	maxAge  time.Duration
	now     func() time.Time
}

func NewLatency(maxAge time.Duration) *Latency {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Latency{
		samples: make([]sample, 0, 256),
		maxAge:  maxAge,
		now:     time.Now,
	}
}

// Record adds one search call that took d and returned hits results.
func (l *Latency) Record(d time.Duration, hits int) {
	if d < 0 {
		d = 0
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneLocked(now)
	l.samples = append(l.samples, sample{timestamp: now, duration: d, hits: hits})
}

// Observe runs fn and records its duration and hit count.
func (l *Latency) Observe(fn func() []Result) []Result {
	start := l.now()
	results := fn()
	l.Record(l.now().Sub(start), len(results))
	return results
}

func (l *Latency) Snapshot() LatencySnapshot {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneLocked(now)
	if len(l.samples) == 0 {
		return LatencySnapshot{}
	}

	values := make([]float64, 0, len(l.samples))
	var sum float64
	var empty int
	for _, s := range l.samples {
		ms := float64(s.duration) / float64(time.Millisecond)
		values = append(values, ms)
		sum += ms
		if s.hits == 0 {
			empty++
		}
	}
	sort.Float64s(values)

	return LatencySnapshot{
		Count:     len(values),
		EmptyHits: empty,
		MinMs:     values[0],
		MaxMs:     values[len(values)-1],
		AvgMs:     sum / float64(len(values)),
		P50Ms:     percentile(values, 50),
		P95Ms:     percentile(values, 95),
		P99Ms:     percentile(values, 99),
	}
}

func (l *Latency) pruneLocked(now time.Time) {
	cutoff := now.Add(-l.maxAge)
	keep := l.samples[:0]
	for _, s := range l.samples {
		if !s.timestamp.Before(cutoff) {
			keep = append(keep, s)
		}
	}
	l.samples = keep
}

func percentile(sorted []float64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return sorted[0]
	case pct >= 100:
		return sorted[len(sorted)-1]
	}
	index := float64(len(sorted)-1) * pct / 100
	lower := int(index)
	if lower+1 >= len(sorted) {
		return sorted[lower]
	}
	weight := index - float64(lower)
	return sorted[lower] + (sorted[lower+1]-sorted[lower])*weight
}
