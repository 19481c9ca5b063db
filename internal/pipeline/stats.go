package pipeline

import (
	"sort"
	"sync"
	"time"
)

// ConversionStats accumulates service-lifetime counters across jobs and
// a rolling window of conversion latencies.
type ConversionStats struct {
	mu sync.Mutex

	submitted  int64
	completed  int64
	failed     int64
	duplicates int64

	inputBytes  int64
	outputBytes int64

	byFormat map[string]int64

	latency *LatencyStats
}

func NewConversionStats() *ConversionStats {
	return &ConversionStats{
		byFormat: make(map[string]int64),
		latency:  NewLatencyStats(time.Hour),
	}
}

func (s *ConversionStats) RecordSubmit(format string, inputBytes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitted++
	s.inputBytes += int64(inputBytes)
	s.byFormat[format]++
}

func (s *ConversionStats) RecordCompleted(outputBytes int, elapsed time.Duration) {
	s.mu.Lock()
	s.completed++
	s.outputBytes += int64(outputBytes)
	s.mu.Unlock()
	s.latency.Record(elapsed.Milliseconds())
}

func (s *ConversionStats) RecordFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed++
}

func (s *ConversionStats) RecordDuplicate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.duplicates++
}

// StatsSnapshot is a JSON-safe copy of the counters.
type StatsSnapshot struct {
	Submitted   int64            `json:"submitted"`
	Completed   int64            `json:"completed"`
	Failed      int64            `json:"failed"`
	Duplicates  int64            `json:"duplicates"`
	InputBytes  int64            `json:"input_bytes"`
	OutputBytes int64            `json:"output_bytes"`
	ByFormat    map[string]int64 `json:"by_format"`
	Latency     LatencySnapshot  `json:"latency"`
}

func (s *ConversionStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	byFormat := make(map[string]int64, len(s.byFormat))
	for k, v := range s.byFormat {
		byFormat[k] = v
	}
	snap := StatsSnapshot{
		Submitted:   s.submitted,
		Completed:   s.completed,
		Failed:      s.failed,
		Duplicates:  s.duplicates,
		InputBytes:  s.inputBytes,
		OutputBytes: s.outputBytes,
		ByFormat:    byFormat,
	}
	s.mu.Unlock()
	snap.Latency = s.latency.Snapshot()
	return snap
}

type sample struct {
	timestamp  time.Time
	durationMs int64
}

// LatencySnapshot is a point-in-time aggregate of conversion latency
// samples.
type LatencySnapshot struct {
	Count int     `json:"count"`
	MinMs int64   `json:"min_ms"`
	MaxMs int64   `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

// LatencyStats tracks recent conversion latencies within a rolling
// window.
type LatencyStats struct {
	mu      sync.Mutex
	samples []sample
	maxAge  time.Duration
}

func NewLatencyStats(maxAge time.Duration) *LatencyStats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &LatencyStats{
		samples: make([]sample, 0, 256),
		maxAge:  maxAge,
	}
}

func (s *LatencyStats) Record(durationMs int64) {
	if durationMs < 0 {
		durationMs = 0
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	s.samples = append(s.samples, sample{
		timestamp:  now,
		durationMs: durationMs,
	})
}

func (s *LatencyStats) Snapshot() LatencySnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	if len(s.samples) == 0 {
		return LatencySnapshot{}
	}

	values := make([]int64, 0, len(s.samples))
	var sum int64
	for _, sm := range s.samples {
		values = append(values, sm.durationMs)
		sum += sm.durationMs
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	return LatencySnapshot{
		Count: len(values),
		MinMs: values[0],
		MaxMs: values[len(values)-1],
		AvgMs: float64(sum) / float64(len(values)),
		P50Ms: percentile(values, 50),
		P95Ms: percentile(values, 95),
		P99Ms: percentile(values, 99),
	}
}

func (s *LatencyStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxAge)
	writeIdx := 0
	for _, sm := range s.samples {
		if !sm.timestamp.Before(cutoff) {
			s.samples[writeIdx] = sm
			writeIdx++
		}
	}
	s.samples = s.samples[:writeIdx]
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
