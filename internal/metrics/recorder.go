package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Malay-RB/Document-parsing/internal/providers"
)

// Recorder collects metrics for one run in memory. It is safe for
// concurrent use and nil-safe: a nil Recorder discards everything.
type Recorder struct {
	mu      sync.Mutex
	runID   string
	started time.Time
	metrics []Metric
}

// NewRecorder creates a recorder for a run.
func NewRecorder(runID string) *Recorder {
	return &Recorder{runID: runID, started: time.Now()}
}

// RunID returns the run the recorder belongs to.
func (r *Recorder) RunID() string {
	if r == nil {
		return ""
	}
	return r.runID
}

// Record stores a single metric.
func (r *Recorder) Record(m Metric) {
	if r == nil {
		return
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	if m.RunID == "" {
		m.RunID = r.runID
	}
	r.mu.Lock()
	r.metrics = append(r.metrics, m)
	r.mu.Unlock()
}

// RecordStage records a timed stage. A non-nil err marks it failed.
func (r *Recorder) RecordStage(stage, itemKey string, d time.Duration, err error) {
	m := Metric{
		Stage:        stage,
		ItemKey:      itemKey,
		TotalSeconds: d.Seconds(),
		Success:      err == nil,
	}
	if err != nil {
		m.ErrorType = stage + "_error"
	}
	r.Record(m)
}

// RecordCall records a provider call. Its signature matches
// providers.StatsObserver.
func (r *Recorder) RecordCall(s providers.CallStats) {
	m := Metric{
		Stage:        StageCall,
		Provider:     s.Provider,
		Operation:    s.Operation,
		TotalSeconds: s.ExecutionTime.Seconds(),
		Success:      s.Success,
	}
	if !s.Success {
		m.ErrorType = s.Operation + "_error"
	}
	r.Record(m)
}

// Time starts a stage timer. Call the returned function with the stage
// outcome when done.
func (r *Recorder) Time(stage, itemKey string) func(err error) {
	start := time.Now()
	return func(err error) {
		r.RecordStage(stage, itemKey, time.Since(start), err)
	}
}

// Metrics returns a copy of the recorded metrics.
func (r *Recorder) Metrics() []Metric {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Metric, len(r.metrics))
	copy(out, r.metrics)
	return out
}

// Report is the metrics file written at the end of a run.
type Report struct {
	RunID     string                    `json:"run_id"`
	Document  string                    `json:"document"`
	StartedAt time.Time                 `json:"started_at"`
	Elapsed   float64                   `json:"elapsed_seconds"`
	Summary   *Summary                  `json:"summary"`
	Stages    map[string]*DetailedStats `json:"stages"`
	Providers map[string]*DetailedStats `json:"providers,omitempty"`
}

// Report summarizes the recorded metrics.
func (r *Recorder) Report(document string) Report {
	q := NewQuery(r)
	rep := Report{
		RunID:     r.RunID(),
		Document:  document,
		Summary:   q.GetSummary(Filter{}),
		Stages:    q.StageDetailedStats(),
		Providers: q.ProviderDetailedStats(),
	}
	if r != nil {
		rep.StartedAt = r.started
		rep.Elapsed = time.Since(r.started).Seconds()
	}
	return rep
}

// Save writes the run report as indented JSON, creating parent directories.
func (r *Recorder) Save(path, document string) error {
	data, err := json.MarshalIndent(r.Report(document), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
