// Package metrics records stage timings and provider call telemetry for a
// pipeline run.
package metrics

import (
	"fmt"
	"time"
)

// Stages recorded by the pipeline.
const (
	StageOpen   = "open"
	StageScout  = "scout"
	StageTOC    = "toc"
	StageSync   = "sync"
	StagePage   = "page"
	StageRender = "render"
	StageLayout = "layout"
	StagePaging = "pagination"
	StageBlocks = "blocks"
	StageCall   = "provider_call"
	StageOutput = "output"
)

// Metric is a single timed operation.
type Metric struct {
	// Attribution
	RunID   string `json:"run_id,omitempty"`
	Stage   string `json:"stage"`
	ItemKey string `json:"item_key,omitempty"` // e.g., "page_0012"

	// Provider info, for provider calls
	Provider  string `json:"provider,omitempty"`
	Operation string `json:"operation,omitempty"`

	TotalSeconds float64 `json:"total_seconds"`

	Success   bool   `json:"success"`
	ErrorType string `json:"error_type,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Duration returns the metric's total time.
func (m Metric) Duration() time.Duration {
	return time.Duration(m.TotalSeconds * float64(time.Second))
}

// PageKey formats the item key for a physical page.
func PageKey(n int) string {
	return fmt.Sprintf("page_%04d", n)
}
