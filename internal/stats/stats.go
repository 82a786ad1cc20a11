// Package stats keeps rolling latency windows for export and update sweeps.
package stats

import (
	"sort"
	"sync"
	"time"
)

type sample struct {
	timestamp  time.Time
	durationMs int64
	items      int
}

// Snapshot is a point-in-time aggregate of sweep samples.
type Snapshot struct {
	Count int     `json:"count"`
	Items int     `json:"items"`
	MinMs int64   `json:"min_ms"`
	MaxMs int64   `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

// Sweeps tracks recent sweep durations per operation within a rolling
// window.
type Sweeps struct {
	mu      sync.Mutex
	samples map[string][]sample
	maxAge  time.Duration
}

func NewSweeps(maxAge time.Duration) *Sweeps {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Sweeps{
		samples: make(map[string][]sample),
		maxAge:  maxAge,
	}
}

// Record adds one finished sweep of op that touched items nodes.
func (s *Sweeps) Record(op string, d time.Duration, items int) {
	ms := d.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(op, now)
	s.samples[op] = append(s.samples[op], sample{
		timestamp:  now,
		durationMs: ms,
		items:      items,
	})
}

// Snapshot aggregates the live samples of every operation.
func (s *Sweeps) Snapshot() map[string]Snapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]Snapshot, len(s.samples))
	for op := range s.samples {
		s.pruneLocked(op, now)
		if len(s.samples[op]) == 0 {
			continue
		}
		out[op] = aggregate(s.samples[op])
	}
	return out
}

func aggregate(samples []sample) Snapshot {
	values := make([]int64, 0, len(samples))
	var sum int64
	items := 0
	for _, sm := range samples {
		values = append(values, sm.durationMs)
		sum += sm.durationMs
		items += sm.items
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	return Snapshot{
		Count: len(values),
		Items: items,
		MinMs: values[0],
		MaxMs: values[len(values)-1],
		AvgMs: float64(sum) / float64(len(values)),
		P50Ms: percentile(values, 50),
		P95Ms: percentile(values, 95),
		P99Ms: percentile(values, 99),
	}
}

func (s *Sweeps) pruneLocked(op string, now time.Time) {
	cutoff := now.Add(-s.maxAge)
	kept := s.samples[op][:0]
	for _, sm := range s.samples[op] {
		if !sm.timestamp.Before(cutoff) {
			kept = append(kept, sm)
		}
	}
	s.samples[op] = kept
}

func percentile(sortedValues []int64, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sortedValues[0])
	}
	if pct >= 100 {
		return float64(sortedValues[len(sortedValues)-1])
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return float64(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := float64(sortedValues[lower])
	hi := float64(sortedValues[upper])
	return lo + ((hi - lo) * weight)
}
