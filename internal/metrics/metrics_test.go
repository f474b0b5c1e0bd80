package metrics

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Malay-RB/Document-parsing/internal/providers"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		p      float64
		want   float64
	}{
		{"empty", nil, 50, 0},
		{"single", []float64{3}, 99, 3},
		{"median odd", []float64{1, 2, 3}, 50, 2},
		{"interpolated", []float64{1, 2, 3, 4}, 50, 2.5},
		{"max", []float64{1, 2, 3, 4}, 100, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := percentile(tt.values, tt.p); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("percentile() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecorder(t *testing.T) {
	r := NewRecorder("run-1")
	r.RecordStage(StagePage, PageKey(1), 2*time.Second, nil)
	r.RecordStage(StagePage, PageKey(2), 4*time.Second, errors.New("boom"))
	r.RecordStage(StageTOC, "", time.Second, nil)
	r.RecordCall(providers.CallStats{Provider: "tesseract", Operation: "recognize", Success: true, ExecutionTime: time.Second})
	r.RecordCall(providers.CallStats{Provider: "tesseract", Operation: "recognize", Success: false})

	t.Run("attribution", func(t *testing.T) {
		ms := r.Metrics()
		if len(ms) != 5 {
			t.Fatalf("expected 5 metrics, got %d", len(ms))
		}
		for _, m := range ms {
			if m.RunID != "run-1" || m.CreatedAt.IsZero() {
				t.Errorf("metric missing attribution: %+v", m)
			}
		}
		if ms[0].ItemKey != "page_0001" {
			t.Errorf("item key = %q", ms[0].ItemKey)
		}
		if ms[1].ErrorType != "page_error" {
			t.Errorf("error type = %q", ms[1].ErrorType)
		}
	})

	t.Run("query filters", func(t *testing.T) {
		q := NewQuery(r)
		failed := false
		if got := q.List(Filter{Success: &failed}, 0); len(got) != 2 {
			t.Errorf("expected 2 failures, got %d", len(got))
		}
		if got := q.List(Filter{Stage: StagePage}, 1); len(got) != 1 {
			t.Errorf("limit not applied: %d", len(got))
		}
		if got := q.TotalTime(Filter{Stage: StagePage}); got != 6*time.Second {
			t.Errorf("TotalTime() = %v", got)
		}
	})

	t.Run("stage and provider stats", func(t *testing.T) {
		q := NewQuery(r)
		stages := q.StageDetailedStats()
		if _, ok := stages[StageCall]; ok {
			t.Error("provider calls should not appear in stage stats")
		}
		page := stages[StagePage]
		if page == nil || page.Count != 2 || page.ErrorCount != 1 || page.LatencyAvg != 3 {
			t.Errorf("page stats = %+v", page)
		}
		calls := q.ProviderDetailedStats()["tesseract/recognize"]
		if calls == nil || calls.Count != 2 || calls.SuccessCount != 1 {
			t.Errorf("provider stats = %+v", calls)
		}
	})

	t.Run("save", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "metrics", "book_metrics.json")
		if err := r.Save(path, "book.pdf"); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		var rep Report
		if err := json.Unmarshal(data, &rep); err != nil {
			t.Fatalf("invalid report: %v", err)
		}
		if rep.RunID != "run-1" || rep.Document != "book.pdf" || rep.Summary.Count != 5 {
			t.Errorf("unexpected report: %+v", rep)
		}
	})
}

func TestRecorder_Nil(t *testing.T) {
	var r *Recorder
	r.RecordStage(StagePage, "", time.Second, nil)
	r.Time(StageTOC, "")(nil)
	if r.Metrics() != nil {
		t.Error("nil recorder should hold nothing")
	}
	if rep := r.Report("x"); rep.Summary.Count != 0 {
		t.Errorf("unexpected report: %+v", rep)
	}
}
