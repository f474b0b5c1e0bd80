package metrics

import "time"

// Query filters the metrics held by a Recorder.
type Query struct {
	recorder *Recorder
}

// NewQuery creates a new metrics query helper.
func NewQuery(r *Recorder) *Query {
	return &Query{recorder: r}
}

// Filter specifies query filters. Zero fields match anything.
type Filter struct {
	Stage     string
	ItemKey   string
	Provider  string
	Operation string
	After     time.Time
	Before    time.Time
	Success   *bool // nil = any, true = success only, false = errors only
}

func (f Filter) match(m Metric) bool {
	if f.Stage != "" && m.Stage != f.Stage {
		return false
	}
	if f.ItemKey != "" && m.ItemKey != f.ItemKey {
		return false
	}
	if f.Provider != "" && m.Provider != f.Provider {
		return false
	}
	if f.Operation != "" && m.Operation != f.Operation {
		return false
	}
	if !f.After.IsZero() && !m.CreatedAt.After(f.After) {
		return false
	}
	if !f.Before.IsZero() && !m.CreatedAt.Before(f.Before) {
		return false
	}
	if f.Success != nil && m.Success != *f.Success {
		return false
	}
	return true
}

// List returns metrics matching the filter in recording order. A limit of
// zero means no limit.
func (q *Query) List(f Filter, limit int) []Metric {
	var out []Metric
	for _, m := range q.recorder.Metrics() {
		if !f.match(m) {
			continue
		}
		out = append(out, m)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// TotalTime returns the summed time of metrics matching the filter.
func (q *Query) TotalTime(f Filter) time.Duration {
	var total float64
	for _, m := range q.List(f, 0) {
		total += m.TotalSeconds
	}
	return time.Duration(total * float64(time.Second))
}
