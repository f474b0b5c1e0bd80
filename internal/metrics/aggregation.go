package metrics

import (
	"sort"
	"time"
)

// Summary provides a summary of metrics for a filter.
type Summary struct {
	Count          int           `json:"count"`
	TotalTime      time.Duration `json:"total_time"`
	SuccessCount   int           `json:"success_count"`
	ErrorCount     int           `json:"error_count"`
	AvgTimeSeconds float64       `json:"avg_time_seconds"`
}

// GetSummary returns a summary of metrics matching the filter.
func (q *Query) GetSummary(f Filter) *Summary {
	metrics := q.List(f, 0)
	s := &Summary{Count: len(metrics)}
	for _, m := range metrics {
		s.TotalTime += m.Duration()
		if m.Success {
			s.SuccessCount++
		} else {
			s.ErrorCount++
		}
	}
	if s.Count > 0 {
		s.AvgTimeSeconds = s.TotalTime.Seconds() / float64(s.Count)
	}
	return s
}

// DetailedStats adds latency percentiles to the summary counts.
type DetailedStats struct {
	Count        int `json:"count"`
	SuccessCount int `json:"success_count"`
	ErrorCount   int `json:"error_count"`

	// Latency (seconds)
	LatencyTotal float64 `json:"latency_total"`
	LatencyP50   float64 `json:"latency_p50"`
	LatencyP95   float64 `json:"latency_p95"`
	LatencyP99   float64 `json:"latency_p99"`
	LatencyAvg   float64 `json:"latency_avg"`
	LatencyMin   float64 `json:"latency_min"`
	LatencyMax   float64 `json:"latency_max"`
}

// GetDetailedStats returns detailed statistics for metrics matching the filter.
func (q *Query) GetDetailedStats(f Filter) *DetailedStats {
	return detailedStats(q.List(f, 0))
}

// StageDetailedStats returns detailed stats grouped by stage. Provider
// calls are excluded; see ProviderDetailedStats.
func (q *Query) StageDetailedStats() map[string]*DetailedStats {
	return groupStats(q.List(Filter{}, 0), func(m Metric) string {
		if m.Stage == StageCall {
			return ""
		}
		return m.Stage
	})
}

// ProviderDetailedStats returns provider call stats keyed by
// "provider/operation".
func (q *Query) ProviderDetailedStats() map[string]*DetailedStats {
	return groupStats(q.List(Filter{Stage: StageCall}, 0), func(m Metric) string {
		return m.Provider + "/" + m.Operation
	})
}

func groupStats(metrics []Metric, key func(Metric) string) map[string]*DetailedStats {
	groups := make(map[string][]Metric)
	for _, m := range metrics {
		if k := key(m); k != "" {
			groups[k] = append(groups[k], m)
		}
	}
	result := make(map[string]*DetailedStats, len(groups))
	for k, ms := range groups {
		result[k] = detailedStats(ms)
	}
	return result
}

func detailedStats(metrics []Metric) *DetailedStats {
	stats := &DetailedStats{Count: len(metrics)}
	if len(metrics) == 0 {
		return stats
	}

	var latencies []float64
	for _, m := range metrics {
		if m.Success {
			stats.SuccessCount++
		} else {
			stats.ErrorCount++
		}
		stats.LatencyTotal += m.TotalSeconds
		latencies = append(latencies, m.TotalSeconds)
	}

	sort.Float64s(latencies)
	stats.LatencyMin = latencies[0]
	stats.LatencyMax = latencies[len(latencies)-1]
	stats.LatencyAvg = stats.LatencyTotal / float64(len(latencies))
	stats.LatencyP50 = percentile(latencies, 50)
	stats.LatencyP95 = percentile(latencies, 95)
	stats.LatencyP99 = percentile(latencies, 99)
	return stats
}

// percentile calculates the p-th percentile from a sorted slice of values.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	n := float64(len(sorted))
	idx := (p / 100.0) * (n - 1)

	// Interpolate between floor and ceil indices
	lower := int(idx)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	weight := idx - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
